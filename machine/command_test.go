package machine

import (
	"testing"

	"github.com/mastercactapus/gpanel/coord"
	"github.com/mastercactapus/gpanel/gcode"
	"github.com/stretchr/testify/assert"
)

func lines(c Command) []string {
	return gcode.Lines(c.Blocks())
}

func TestCommand_Blocks(t *testing.T) {
	assert.Empty(t, lines(InvalidatePosition{}))
	assert.Equal(t, []string{"G161 X0\n"}, lines(HomeAxes{Axes: []AxisID{AxisX}, Direction: Negative}))
	assert.Equal(t, []string{"G162 Y0 Z0\n"}, lines(HomeAxes{Axes: []AxisID{AxisY, AxisZ}, Direction: Positive}))
	assert.Equal(t, []string{"M17\n"}, lines(EnableDrives{}))
	assert.Equal(t, []string{"M18\n"}, lines(DisableDrives{}))
	assert.Equal(t, []string{"T1\n"}, lines(SelectTool{Index: 1}))
	assert.Equal(t, []string{"M105\n", "M114\n"}, lines(UpdateManualControl{}))
	assert.Equal(t, []string{"G91\n", "G1 Z-0.1 F200\n", "G90\n"}, lines(Jog{Axis: AxisZ, Distance: -0.1, FeedRate: 200}))
	assert.Equal(t, []string{"G92 X0 A5\n"}, lines(SetPosition{Axes: map[AxisID]float64{AxisA: 5, AxisX: 0}}))
	assert.Equal(t, []string{"M104 S215.5 T0\n"}, lines(SetTemperature{Tool: 0, Celsius: 215.5}))
}

func TestCommand_Apply(t *testing.T) {
	m := DefaultProfile().Model()
	m.Position = coord.Point{X: 10}
	m.PositionValid = true

	Jog{Axis: AxisX, Distance: 5}.apply(&m)
	assert.Equal(t, 15.0, m.Position.X)

	InvalidatePosition{}.apply(&m)
	assert.False(t, m.PositionValid)

	Jog{Axis: AxisX, Distance: 5}.apply(&m)
	assert.Equal(t, 15.0, m.Position.X)

	EnableDrives{}.apply(&m)
	assert.True(t, m.DrivesEnabled)
	DisableDrives{}.apply(&m)
	assert.False(t, m.DrivesEnabled)

	SetTemperature{Tool: 0, Celsius: 200}.apply(&m)
	tool, ok := m.Tool(0)
	assert.True(t, ok)
	assert.Equal(t, 200.0, tool.TargetTemperature)

	SelectTool{Index: 3}.apply(&m)
	assert.Equal(t, 3, m.CurrentTool)
}
