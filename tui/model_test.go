package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/machine/reprap"
	"github.com/mastercactapus/gpanel/machine/sim"
)

func newSimModel(t *testing.T) (Model, *machine.Machine, *sim.Firmware) {
	t.Helper()
	fw := sim.New(machine.DefaultProfile())
	m := machine.NewMachine(reprap.NewSerialAdapter(fw, reprap.DefaultMaxOutstanding), machine.DefaultProfile())
	p, err := controlpanel.New(m, controlpanel.Options{UpdateInterval: 10 * time.Millisecond, PollInterval: time.Hour})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	t.Cleanup(func() {
		p.Close()
		m.Disconnect()
	})
	return New(p), m, fw
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func sent(fw *sim.Firmware, line string) func() bool {
	return func() bool {
		for _, l := range fw.Lines() {
			if l == line {
				return true
			}
		}
		return false
	}
}

func TestModel_Jog(t *testing.T) {
	m, _, fw := newSimModel(t)

	m = press(m, "right")
	assert.NoError(t, m.err)
	assert.Eventually(t, sent(fw, "G1 X1 F5000"), time.Second, time.Millisecond)

	m = press(m, "down", "down", "down", "]", "left")
	assert.Equal(t, 2, m.axis)
	assert.Equal(t, 5.0, m.snap.Jog.Step)
	assert.Eventually(t, sent(fw, "G1 Z-5 F200"), time.Second, time.Millisecond)

	m = press(m, "up", "0")
	assert.Eventually(t, sent(fw, "G92 Y0"), time.Second, time.Millisecond)

	m = press(m, "[", "[", "[", "[", "[", "[", "[")
	assert.Equal(t, 0.01, m.snap.Jog.Step)
}

func TestModel_Drives(t *testing.T) {
	m, _, fw := newSimModel(t)

	press(m, "e")
	assert.Eventually(t, fw.DrivesEnabled, time.Second, time.Millisecond)
	press(m, "d")
	assert.Eventually(t, sent(fw, "M18"), time.Second, time.Millisecond)
}

func TestModel_Menu(t *testing.T) {
	m, _, fw := newSimModel(t)

	m = press(m, "m")
	assert.True(t, m.menuOpen)
	assert.Contains(t, m.View(), "Home X to minimum")

	m = press(m, "down", "down", "down", "enter")
	assert.False(t, m.menuOpen)
	assert.Eventually(t, sent(fw, "G161 Z0"), time.Second, time.Millisecond)

	m = press(m, "m", "esc")
	assert.False(t, m.menuOpen)
}

func TestModel_Target(t *testing.T) {
	m, _, fw := newSimModel(t)

	m = press(m, "t", "2", "x", "1", "5", "enter")
	assert.Nil(t, m.input)
	assert.NoError(t, m.err)
	assert.Eventually(t, sent(fw, "M104 S215 T0"), time.Second, time.Millisecond)

	m = press(m, "t", "esc")
	assert.Nil(t, m.input)

	m = press(m, "t", "enter")
	assert.Error(t, m.err)
}

func TestModel_Snapshot(t *testing.T) {
	m, _, _ := newSimModel(t)

	s := m.snap
	s.Jog.Axes = append([]controlpanel.AxisSnapshot(nil), s.Jog.Axes...)
	s.Jog.Axes[0].Position = "12.345"
	next, _ := m.Update(snapshotMsg(s))
	m = next.(Model)
	assert.True(t, strings.Contains(m.View(), "12.345"))

	next, cmd := m.Update(disposedMsg{})
	m = next.(Model)
	assert.True(t, m.closed)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "panel closed")
}
