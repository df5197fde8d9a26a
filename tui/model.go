// Package tui shows a control panel in the terminal.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/machine"
)

const (
	colorText    lipgloss.Color = "#cdd6f4"
	colorSubtle  lipgloss.Color = "#7f849c"
	colorFocus   lipgloss.Color = "#b4befe"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorError   lipgloss.Color = "#f38ba8"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	sectionStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFocus)
	subtleStyle   = lipgloss.NewStyle().Foreground(colorSubtle)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	okStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
)

type snapshotMsg controlpanel.Snapshot
type disposedMsg struct{}

// Model is the bubbletea model of a control panel.
type Model struct {
	panel *controlpanel.Panel
	snap  controlpanel.Snapshot

	axis     int
	menuOpen bool
	menuIdx  int

	// input holds a target temperature being typed, nil when not editing
	input *string

	err    error
	closed bool
}

func New(p *controlpanel.Panel) Model {
	return Model{panel: p, snap: p.Snapshot()}
}

// Run shows p until the user quits or the panel is disposed.
func Run(p *controlpanel.Panel, opts ...tea.ProgramOption) error {
	prog := tea.NewProgram(New(p), opts...)
	p.OnUpdate(func(s controlpanel.Snapshot) { prog.Send(snapshotMsg(s)) })
	p.OnDispose(func() { prog.Send(disposedMsg{}) })

	_, err := prog.Run()
	p.Close()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = controlpanel.Snapshot(msg)
		return m, nil
	case disposedMsg:
		m.closed = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.input != nil:
			return m.updateInput(msg)
		case m.menuOpen:
			return m.updateMenu(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

// act runs fn and keeps its error for display. The view is refreshed from
// the panel right away.
func (m Model) act(fn func() error) Model {
	m.err = fn()
	m.snap = m.panel.Snapshot()
	return m
}

func (m Model) selectedAxis() (machine.AxisID, bool) {
	if m.axis < 0 || m.axis >= len(m.snap.Jog.Axes) {
		return 0, false
	}
	id, err := machine.ParseAxis(m.snap.Jog.Axes[m.axis].ID)
	return id, err == nil
}

func (m Model) stepIndex() int {
	for i, s := range m.snap.Jog.StepSizes {
		if s == m.snap.Jog.Step {
			return i
		}
	}
	return 0
}

func (m Model) selectedTool() int {
	for i, t := range m.snap.Tools {
		if t.Selected {
			return i
		}
	}
	return -1
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	jog := m.panel.Jog()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.axis > 0 {
			m.axis--
		}
	case "down", "j":
		if m.axis < len(m.snap.Jog.Axes)-1 {
			m.axis++
		}
	case "left", "h", "right", "l":
		id, ok := m.selectedAxis()
		if !ok {
			return m, nil
		}
		dir := machine.Positive
		if s := msg.String(); s == "left" || s == "h" {
			dir = machine.Negative
		}
		return m.act(func() error { return jog.Jog(id, dir) }), nil
	case "0":
		id, ok := m.selectedAxis()
		if !ok {
			return m, nil
		}
		return m.act(func() error { return jog.Zero(id) }), nil
	case "[", "]":
		i := m.stepIndex()
		if msg.String() == "[" && i > 0 {
			i--
		} else if msg.String() == "]" && i < len(m.snap.Jog.StepSizes)-1 {
			i++
		}
		step := m.snap.Jog.StepSizes[i]
		return m.act(func() error { return jog.SetStep(step) }), nil
	case "e":
		return m.act(m.panel.Activation().Enable), nil
	case "d":
		return m.act(m.panel.Activation().Disable), nil
	case "m":
		if len(m.snap.Menu.Items) > 0 {
			m.menuOpen = true
			m.menuIdx = 0
		}
	case "tab":
		if len(m.snap.Tools) == 0 {
			return m, nil
		}
		next := m.snap.Tools[(m.selectedTool()+1)%len(m.snap.Tools)]
		return m.act(func() error { return m.panel.Tools().Select(next.Index) }), nil
	case "t":
		if m.selectedTool() >= 0 {
			s := ""
			m.input = &s
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "m":
		m.menuOpen = false
	case "up", "k":
		if m.menuIdx > 0 {
			m.menuIdx--
		}
	case "down", "j":
		if m.menuIdx < len(m.snap.Menu.Items)-1 {
			m.menuIdx++
		}
	case "enter":
		id := m.snap.Menu.Items[m.menuIdx].ID
		m.menuOpen = false
		return m.act(func() error { return m.panel.Activate(id) }), nil
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := *m.input
	switch msg.Type {
	case tea.KeyEsc:
		m.input = nil
		return m, nil
	case tea.KeyBackspace:
		if len(s) > 0 {
			s = s[:len(s)-1]
		}
	case tea.KeyEnter:
		m.input = nil
		c, err := strconv.ParseFloat(s, 64)
		if err != nil {
			m.err = fmt.Errorf("target temperature: %w", err)
			return m, nil
		}
		t := m.snap.Tools[m.selectedTool()]
		return m.act(func() error {
			tp, ok := m.panel.Tools().Panel(t.Index)
			if !ok {
				return controlpanel.ErrUnknownTool
			}
			return tp.SetTarget(c)
		}), nil
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if (r >= '0' && r <= '9') || r == '.' {
				s += string(r)
			}
		}
	}
	m.input = &s
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.snap.Title))
	b.WriteString("\n\n")

	if m.menuOpen {
		var lines []string
		for i, item := range m.snap.Menu.Items {
			if i == m.menuIdx {
				lines = append(lines, selectedStyle.Render("> "+item.Label))
			} else {
				lines = append(lines, textStyle.Render("  "+item.Label))
			}
		}
		b.WriteString(sectionStyle.Render(m.snap.Menu.Title + "\n" + strings.Join(lines, "\n")))
		b.WriteString("\n" + subtleStyle.Render("enter home  esc close"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.jogView(), " ", m.toolView()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.closed {
		b.WriteString(subtleStyle.Render("panel closed") + "\n")
	}
	b.WriteString(subtleStyle.Render("↑/↓ axis  ←/→ jog  [/] step  0 zero  e/d drives  m homing  tab tool  t target  q quit"))
	return b.String()
}

func (m Model) jogView() string {
	var lines []string
	for i, a := range m.snap.Jog.Axes {
		line := fmt.Sprintf("%s %10s", a.ID, a.Position)
		if i == m.axis {
			lines = append(lines, selectedStyle.Render("> "+line))
		} else {
			lines = append(lines, textStyle.Render("  "+line))
		}
	}
	lines = append(lines, "", subtleStyle.Render(fmt.Sprintf("step %g mm  XY F%g  Z F%g",
		m.snap.Jog.Step, m.snap.Jog.XYFeedRate, m.snap.Jog.ZFeedRate)))
	if m.snap.DrivesEnabled {
		lines = append(lines, okStyle.Render("drives enabled"))
	} else {
		lines = append(lines, subtleStyle.Render("drives disabled"))
	}
	return sectionStyle.Render("Jog\n" + strings.Join(lines, "\n"))
}

func (m Model) toolView() string {
	if len(m.snap.Tools) == 0 {
		return sectionStyle.Render(subtleStyle.Render("no tools"))
	}
	var tabs []string
	var body string
	for _, t := range m.snap.Tools {
		if t.Selected {
			tabs = append(tabs, selectedStyle.Render("["+t.Name+"]"))
			body = fmt.Sprintf("%.1f °C / %.1f °C", t.Temperature, t.TargetTemperature)
		} else {
			tabs = append(tabs, subtleStyle.Render(" "+t.Name+" "))
		}
	}
	if m.input != nil {
		body += "\ntarget: " + *m.input + "_"
	}
	return sectionStyle.Render(strings.Join(tabs, " ") + "\n" + textStyle.Render(body))
}
