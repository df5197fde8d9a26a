package machine

import "github.com/mastercactapus/gpanel/coord"

// ToolExtruder is the only tool type with a control panel.
const ToolExtruder = "extruder"

// ToolModel is the live status of one addressable tool head.
type ToolModel struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Type  string `json:"type"`

	Temperature       float64 `json:"temperature"`
	TargetTemperature float64 `json:"targetTemperature"`
}

// AxisModel is the static description of one axis.
type AxisModel struct {
	ID          AxisID   `json:"id"`
	Length      float64  `json:"length"`
	MaxFeedRate float64  `json:"maxFeedRate"`
	Endstops    Endstops `json:"endstops"`
}

// Model is a point-in-time snapshot of what the host knows about a machine.
type Model struct {
	Name  string
	State State

	Axes  []AxisModel
	Tools []ToolModel

	CurrentTool int

	Position      coord.Point
	PositionValid bool

	DrivesEnabled bool

	PlatformTemperature       float64
	PlatformTargetTemperature float64
}

// Axis returns the model of the given axis, if the machine has it.
func (m Model) Axis(id AxisID) (AxisModel, bool) {
	for _, a := range m.Axes {
		if a.ID == id {
			return a, true
		}
	}
	return AxisModel{}, false
}

// Tool returns the tool with the given index.
func (m Model) Tool(index int) (ToolModel, bool) {
	for _, t := range m.Tools {
		if t.Index == index {
			return t, true
		}
	}
	return ToolModel{}, false
}

func (m *Model) tool(index int) *ToolModel {
	for i := range m.Tools {
		if m.Tools[i].Index == index {
			return &m.Tools[i]
		}
	}
	return nil
}

func (m Model) clone() Model {
	c := m
	c.Axes = append([]AxisModel(nil), m.Axes...)
	c.Tools = append([]ToolModel(nil), m.Tools...)
	return c
}
