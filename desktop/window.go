// Package desktop shows a control panel in a fyne window.
package desktop

import (
	"fmt"
	"log"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/machine"
)

type Window struct {
	panel *controlpanel.Panel
	win   fyne.Window

	positions map[machine.AxisID]*widget.Label
	buttons   map[string]*widget.Button
	step      *widget.Select
	xyFeed    *widget.Entry
	zFeed     *widget.Entry
	drives    *widget.Label

	tabs    *container.AppTabs
	tabTool map[*container.TabItem]int
	temps   map[int]*widget.Label
	targets map[int]*widget.Entry
}

// New builds the window for p. Closing the window closes the panel, and a
// disposed panel closes its window.
func New(a fyne.App, p *controlpanel.Panel) *Window {
	w := &Window{
		panel:     p,
		win:       a.NewWindow(p.Title()),
		positions: make(map[machine.AxisID]*widget.Label),
		buttons:   make(map[string]*widget.Button),
		tabTool:   make(map[*container.TabItem]int),
		temps:     make(map[int]*widget.Label),
		targets:   make(map[int]*widget.Entry),
	}
	w.win.SetFixedSize(!p.Resizable())
	w.win.SetMainMenu(w.buildMenu())
	w.win.SetContent(container.NewHBox(
		container.NewVBox(w.buildJog(), w.buildActivation()),
		w.buildTools(),
	))

	w.refresh(p.Snapshot())
	p.OnUpdate(func(s controlpanel.Snapshot) {
		fyne.Do(func() { w.refresh(s) })
	})

	w.win.SetOnClosed(func() {
		select {
		case <-p.Done():
		default:
			p.Close()
		}
	})
	p.OnDispose(func() {
		fyne.Do(w.win.Close)
	})

	return w
}

func (w *Window) Window() fyne.Window { return w.win }
func (w *Window) Show() { w.win.Show() }

func (w *Window) report(err error) {
	if err == nil {
		return
	}
	log.Println("ERROR:", err)
	dialog.ShowError(err, w.win)
}

func (w *Window) buildMenu() *fyne.MainMenu {
	menu := w.panel.Menu()
	var items []*fyne.MenuItem
	for _, item := range menu.Items {
		id := item.ID
		items = append(items, fyne.NewMenuItem(item.Label, func() {
			w.report(w.panel.Activate(id))
		}))
	}
	return fyne.NewMainMenu(fyne.NewMenu(menu.Title, items...))
}

// button creates a button and remembers it under key.
func (w *Window) button(key, label string, tapped func()) *widget.Button {
	b := widget.NewButton(label, tapped)
	w.buttons[key] = b
	return b
}

func formatStep(s float64) string { return strconv.FormatFloat(s, 'f', -1, 64) }

func (w *Window) buildJog() fyne.CanvasObject {
	jog := w.panel.Jog()

	grid := container.NewGridWithColumns(5)
	for _, id := range jog.Axes() {
		id := id
		pos := widget.NewLabel(controlpanel.Unknown)
		w.positions[id] = pos
		grid.Add(widget.NewLabel(id.String()))
		grid.Add(w.button(id.String()+"-", "-", func() { w.report(jog.Jog(id, machine.Negative)) }))
		grid.Add(pos)
		grid.Add(w.button(id.String()+"+", "+", func() { w.report(jog.Jog(id, machine.Positive)) }))
		grid.Add(w.button(id.String()+"0", "Zero", func() { w.report(jog.Zero(id)) }))
	}

	var steps []string
	for _, s := range controlpanel.StepSizes {
		steps = append(steps, formatStep(s))
	}
	w.step = widget.NewSelect(steps, nil)
	w.step.SetSelected(formatStep(jog.Step()))
	w.step.OnChanged = func(s string) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			w.report(err)
			return
		}
		w.report(jog.SetStep(v))
	}

	xy, z := jog.FeedRates()
	w.xyFeed = widget.NewEntry()
	w.xyFeed.SetText(formatStep(xy))
	w.zFeed = widget.NewEntry()
	w.zFeed.SetText(formatStep(z))
	setFeed := func(string) {
		xy, err := strconv.ParseFloat(w.xyFeed.Text, 64)
		if err != nil {
			w.report(fmt.Errorf("XY feed rate: %w", err))
			return
		}
		z, err := strconv.ParseFloat(w.zFeed.Text, 64)
		if err != nil {
			w.report(fmt.Errorf("Z feed rate: %w", err))
			return
		}
		w.report(jog.SetFeedRates(xy, z))
	}
	w.xyFeed.OnSubmitted = setFeed
	w.zFeed.OnSubmitted = setFeed

	return widget.NewCard("Jog", "", container.NewVBox(
		grid,
		widget.NewForm(
			widget.NewFormItem("Step (mm)", w.step),
			widget.NewFormItem("XY feed (mm/min)", w.xyFeed),
			widget.NewFormItem("Z feed (mm/min)", w.zFeed),
		),
	))
}

func (w *Window) buildActivation() fyne.CanvasObject {
	act := w.panel.Activation()
	w.drives = widget.NewLabel("")
	return container.NewHBox(
		w.button("enable", "Enable", func() { w.report(act.Enable()) }),
		w.button("disable", "Disable", func() { w.report(act.Disable()) }),
		w.drives,
	)
}

func (w *Window) buildTools() fyne.CanvasObject {
	tools := w.panel.Tools()
	w.tabs = container.NewAppTabs()

	sel, hasSel := tools.Selected()
	for _, tp := range tools.Panels() {
		tp := tp
		t := tp.Tool()

		temp := widget.NewLabel("")
		target := widget.NewEntry()
		target.SetPlaceHolder("target °C")
		setTarget := func() {
			c, err := strconv.ParseFloat(target.Text, 64)
			if err != nil {
				w.report(err)
				return
			}
			w.report(tp.SetTarget(c))
		}
		target.OnSubmitted = func(string) { setTarget() }
		w.temps[t.Index] = temp
		w.targets[t.Index] = target

		item := container.NewTabItem(t.Name, container.NewVBox(
			temp,
			container.NewBorder(nil, nil, nil, widget.NewButton("Set", setTarget), target),
		))
		w.tabTool[item] = t.Index
		w.tabs.Append(item)
		if hasSel && sel == t.Index {
			w.tabs.Select(item)
		}
	}

	// assigned last so the initial selection sends nothing
	w.tabs.OnSelected = func(item *container.TabItem) {
		w.report(tools.Select(w.tabTool[item]))
	}
	return w.tabs
}

func (w *Window) refresh(s controlpanel.Snapshot) {
	for _, a := range s.Jog.Axes {
		id, err := machine.ParseAxis(a.ID)
		if err != nil {
			continue
		}
		if l, ok := w.positions[id]; ok {
			l.SetText(a.Position)
		}
	}
	if w.drives != nil {
		if s.DrivesEnabled {
			w.drives.SetText("Drives enabled")
		} else {
			w.drives.SetText("Drives disabled")
		}
	}
	for _, t := range s.Tools {
		if l, ok := w.temps[t.Index]; ok {
			l.SetText(fmt.Sprintf("%.1f °C / %.1f °C", t.Temperature, t.TargetTemperature))
		}
	}
}
