package machine

import (
	"fmt"

	"github.com/mastercactapus/gpanel/gcode"
)

// A Command is a unit of work submitted to a Machine. Blocks are sent to the
// firmware in order; apply, when implemented, updates the host model once
// they have been acknowledged.
type Command interface {
	Blocks() []gcode.Block
}

type modelUpdater interface {
	apply(*Model)
}

// InvalidatePosition marks the current position as unknown.
type InvalidatePosition struct{}

func (InvalidatePosition) Blocks() []gcode.Block { return nil }
func (InvalidatePosition) apply(m *Model)        { m.PositionValid = false }
func (InvalidatePosition) String() string        { return "InvalidatePosition" }

// HomeAxes drives the axes toward their endstops.
type HomeAxes struct {
	Axes      []AxisID
	Direction Direction
}

func (c HomeAxes) Blocks() []gcode.Block {
	code := 161.0
	if c.Direction == Positive {
		code = 162
	}
	b := gcode.Block{{W: 'G', Arg: code}}
	for _, a := range c.Axes {
		b = append(b, gcode.Word{W: byte(a), Arg: 0})
	}
	return []gcode.Block{b}
}
func (c HomeAxes) apply(m *Model) { m.PositionValid = false }
func (c HomeAxes) String() string {
	return fmt.Sprintf("HomeAxes(%v, %s)", c.Axes, c.Direction)
}

type EnableDrives struct{}

func (EnableDrives) Blocks() []gcode.Block { return []gcode.Block{{{W: 'M', Arg: 17}}} }
func (EnableDrives) apply(m *Model)        { m.DrivesEnabled = true }
func (EnableDrives) String() string        { return "EnableDrives" }

type DisableDrives struct{}

func (DisableDrives) Blocks() []gcode.Block { return []gcode.Block{{{W: 'M', Arg: 18}}} }
func (DisableDrives) apply(m *Model)        { m.DrivesEnabled = false }
func (DisableDrives) String() string        { return "DisableDrives" }

type SelectTool struct{ Index int }

func (c SelectTool) Blocks() []gcode.Block {
	return []gcode.Block{{{W: 'T', Arg: float64(c.Index)}}}
}
func (c SelectTool) apply(m *Model)  { m.CurrentTool = c.Index }
func (c SelectTool) String() string { return fmt.Sprintf("SelectTool(%d)", c.Index) }

// UpdateManualControl asks the firmware for temperatures and position. The
// answers arrive as adapter reports.
type UpdateManualControl struct{}

func (UpdateManualControl) Blocks() []gcode.Block {
	return []gcode.Block{
		{{W: 'M', Arg: 105}},
		{{W: 'M', Arg: 114}},
	}
}
func (UpdateManualControl) String() string { return "UpdateManualControl" }

// Jog is a relative move of a single axis.
type Jog struct {
	Axis     AxisID
	Distance float64
	FeedRate float64
}

func (c Jog) Blocks() []gcode.Block {
	move := gcode.Block{{W: 'G', Arg: 1}, {W: byte(c.Axis), Arg: c.Distance}}
	if c.FeedRate > 0 {
		move = append(move, gcode.Word{W: 'F', Arg: c.FeedRate})
	}
	return []gcode.Block{
		{{W: 'G', Arg: 91}},
		move,
		{{W: 'G', Arg: 90}},
	}
}
func (c Jog) apply(m *Model) {
	if !m.PositionValid {
		return
	}
	v, _ := m.Position.Axis(byte(c.Axis))
	m.Position = m.Position.WithAxis(byte(c.Axis), v+c.Distance)
}
func (c Jog) String() string {
	return fmt.Sprintf("Jog(%s %g F%g)", c.Axis, c.Distance, c.FeedRate)
}

// SetPosition redefines the current position of the given axes.
type SetPosition struct {
	Axes map[AxisID]float64
}

func (c SetPosition) Blocks() []gcode.Block {
	b := gcode.Block{{W: 'G', Arg: 92}}
	for _, a := range Axes {
		if v, ok := c.Axes[a]; ok {
			b = append(b, gcode.Word{W: byte(a), Arg: v})
		}
	}
	return []gcode.Block{b}
}
func (c SetPosition) apply(m *Model) {
	for a, v := range c.Axes {
		m.Position = m.Position.WithAxis(byte(a), v)
	}
}
func (c SetPosition) String() string { return fmt.Sprintf("SetPosition(%v)", c.Axes) }

// SetTemperature sets the target temperature of a tool, in Celsius.
type SetTemperature struct {
	Tool    int
	Celsius float64
}

func (c SetTemperature) Blocks() []gcode.Block {
	return []gcode.Block{{
		{W: 'M', Arg: 104},
		{W: 'S', Arg: c.Celsius},
		{W: 'T', Arg: float64(c.Tool)},
	}}
}
func (c SetTemperature) apply(m *Model) {
	if t := m.tool(c.Tool); t != nil {
		t.TargetTemperature = c.Celsius
	}
}
func (c SetTemperature) String() string {
	return fmt.Sprintf("SetTemperature(T%d %g)", c.Tool, c.Celsius)
}
