package controlpanel

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/mastercactapus/gpanel/machine"
)

var (
	ErrUnknownTool        = errors.New("unknown tool")
	ErrInvalidTemperature = errors.New("temperature must not be negative")
)

// ToolPanel shows the temperature of one extruder and sets its target.
type ToolPanel struct {
	m       Machine
	changed func()

	mx   sync.Mutex
	tool machine.ToolModel
}

// Tool returns the tool as of the last update.
func (t *ToolPanel) Tool() machine.ToolModel {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.tool
}

func (t *ToolPanel) SetTarget(celsius float64) error {
	if celsius < 0 {
		return ErrInvalidTemperature
	}
	t.mx.Lock()
	idx := t.tool.Index
	t.mx.Unlock()
	if err := t.m.RunCommand(machine.SetTemperature{Tool: idx, Celsius: celsius}); err != nil {
		return err
	}
	t.changed()
	return nil
}

func (t *ToolPanel) UpdateStatus(model machine.Model) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if tm, ok := model.Tool(t.tool.Index); ok {
		t.tool = tm
	}
}

func (t *ToolPanel) update(tm machine.ToolModel) {
	t.mx.Lock()
	t.tool = tm
	t.mx.Unlock()
}

// ToolTabs holds a tab per supported tool. Selecting a tab makes its tool
// the current one.
type ToolTabs struct {
	m       Machine
	changed func()

	mx       sync.Mutex
	panels   []*ToolPanel
	selected int
}

func newToolTabs(m Machine, model machine.Model, changed func()) *ToolTabs {
	tt := &ToolTabs{m: m, changed: changed, selected: -1}
	for _, tm := range model.Tools {
		if tm.Type != machine.ToolExtruder {
			log.Println("Unsupported tool for control panel.")
			continue
		}
		log.Println("Creating panel for", tm.Name)
		tt.panels = append(tt.panels, &ToolPanel{m: m, changed: changed, tool: tm})
		if tm.Index == model.CurrentTool {
			tt.selected = len(tt.panels) - 1
		}
	}
	return tt
}

// Panels returns the tool panels in tab order.
func (tt *ToolTabs) Panels() []*ToolPanel {
	tt.mx.Lock()
	defer tt.mx.Unlock()
	return append([]*ToolPanel(nil), tt.panels...)
}

// Panel returns the panel of the tool with the given index.
func (tt *ToolTabs) Panel(index int) (*ToolPanel, bool) {
	tt.mx.Lock()
	defer tt.mx.Unlock()
	i := tt.find(index)
	if i < 0 {
		return nil, false
	}
	return tt.panels[i], true
}

func (tt *ToolTabs) find(index int) int {
	for i, p := range tt.panels {
		if p.Tool().Index == index {
			return i
		}
	}
	return -1
}

// Selected returns the tool index of the selected tab.
func (tt *ToolTabs) Selected() (int, bool) {
	tt.mx.Lock()
	defer tt.mx.Unlock()
	if tt.selected < 0 {
		return 0, false
	}
	return tt.panels[tt.selected].Tool().Index, true
}

// Select switches to the tab of the tool with the given index. Selecting
// the current tab does nothing.
func (tt *ToolTabs) Select(index int) error {
	tt.mx.Lock()
	i := tt.find(index)
	if i < 0 {
		tt.mx.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownTool, index)
	}
	if i == tt.selected {
		tt.mx.Unlock()
		return nil
	}
	tt.selected = i
	tt.mx.Unlock()

	if err := tt.m.RunCommand(machine.SelectTool{Index: index}); err != nil {
		return err
	}
	tt.changed()
	return nil
}

func (tt *ToolTabs) UpdateStatus(model machine.Model) {
	for _, p := range tt.Panels() {
		p.UpdateStatus(model)
	}
}
