package reprap

import (
	"testing"

	"github.com/mastercactapus/gpanel/coord"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	check := func(line string, exp *machine.Report) {
		t.Run(line, func(t *testing.T) {
			r, err := parseLine(line)
			assert.NoError(t, err)
			assert.Equal(t, exp, r)
		})
	}

	check("", nil)
	check("ok", nil)
	check("echo:Unknown command", nil)
	check("start", &machine.Report{Reset: true})

	check("ok T:201.3 /210.0 B:60.1 /60.0 @:0", &machine.Report{
		Temperatures: []machine.ToolTemperature{{Tool: -1, Temperature: machine.Temperature{Current: 201.3, Target: 210}}},
		Platform:     &machine.Temperature{Current: 60.1, Target: 60},
	})
	check("ok T:201.3 /210.0 B:60.1 /60.0 T0:201.3 /210.0 T1:25.0 /0.0 @:0", &machine.Report{
		Temperatures: []machine.ToolTemperature{
			{Tool: 0, Temperature: machine.Temperature{Current: 201.3, Target: 210}},
			{Tool: 1, Temperature: machine.Temperature{Current: 25}},
		},
		Platform: &machine.Temperature{Current: 60.1, Target: 60},
	})
	check("ok B:40.0 /50.0", &machine.Report{
		Platform: &machine.Temperature{Current: 40, Target: 50},
	})

	check("X:10.00 Y:-2.50 Z:0.00 E:0.00 Count X: 800 Y:-200 Z:0", &machine.Report{
		Position: &coord.Point{X: 10, Y: -2.5},
	})
	check("X:1.00 Y:2.00 Z:3.00 A:4.00 B:5.00 E:0.00 Count X:0 Y:0 Z:0", &machine.Report{
		Position: &coord.Point{X: 1, Y: 2, Z: 3, A: 4, B: 5},
	})
	check("X:1.00 Y:2.00", nil)
}
