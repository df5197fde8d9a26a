package controlpanel

type AxisSnapshot struct {
	ID       string `json:"id"`
	Position string `json:"position"`
}

type JogSnapshot struct {
	Axes       []AxisSnapshot `json:"axes"`
	Step       float64        `json:"step"`
	StepSizes  []float64      `json:"stepSizes"`
	XYFeedRate float64        `json:"xyFeedRate"`
	ZFeedRate  float64        `json:"zFeedRate"`
}

type ToolSnapshot struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	Temperature       float64 `json:"temperature"`
	TargetTemperature float64 `json:"targetTemperature"`
	Selected          bool    `json:"selected"`
}

// Snapshot is the view model of a panel.
type Snapshot struct {
	Title         string         `json:"title"`
	Menu          Menu           `json:"menu"`
	Jog           JogSnapshot    `json:"jog"`
	DrivesEnabled bool           `json:"drivesEnabled"`
	Tools         []ToolSnapshot `json:"tools"`
}

func (p *Panel) Snapshot() Snapshot {
	s := Snapshot{
		Title:         Title,
		Menu:          p.menu,
		DrivesEnabled: p.activation.Enabled(),
		Tools:         []ToolSnapshot{},
	}

	xy, z := p.jog.FeedRates()
	s.Jog = JogSnapshot{
		Axes:       []AxisSnapshot{},
		Step:       p.jog.Step(),
		StepSizes:  StepSizes,
		XYFeedRate: xy,
		ZFeedRate:  z,
	}
	for _, id := range p.jog.Axes() {
		s.Jog.Axes = append(s.Jog.Axes, AxisSnapshot{ID: id.String(), Position: p.jog.Position(id)})
	}

	sel, hasSel := p.tools.Selected()
	for _, tp := range p.tools.Panels() {
		t := tp.Tool()
		s.Tools = append(s.Tools, ToolSnapshot{
			Index:             t.Index,
			Name:              t.Name,
			Temperature:       t.Temperature,
			TargetTemperature: t.TargetTemperature,
			Selected:          hasSel && sel == t.Index,
		})
	}
	return s
}
