package desktop

import (
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/machine/reprap"
	"github.com/mastercactapus/gpanel/machine/sim"
)

func newSimPanel(t *testing.T) (*controlpanel.Panel, *machine.Machine, *sim.Firmware) {
	t.Helper()
	fw := sim.New(machine.DefaultProfile())
	m := machine.NewMachine(reprap.NewSerialAdapter(fw, reprap.DefaultMaxOutstanding), machine.DefaultProfile())
	p, err := controlpanel.New(m, controlpanel.Options{
		UpdateInterval: 10 * time.Millisecond,
		PollInterval:   50 * time.Millisecond,
	})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return p, m, fw
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

func TestWindow(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	p, m, fw := newSimPanel(t)
	defer m.Disconnect()
	w := New(a, p)
	w.Show()

	assert.Equal(t, "Control Panel", w.Window().Title())
	assert.True(t, w.Window().FixedSize())

	menu := w.Window().MainMenu()
	if assert.Len(t, menu.Items, 1) {
		assert.Equal(t, "Homing", menu.Items[0].Label)
		var labels []string
		for _, item := range menu.Items[0].Items {
			labels = append(labels, item.Label)
		}
		assert.Equal(t, []string{"Home X to minimum", "Home Y to minimum", "Home Z to minimum"}, labels)
		menu.Items[0].Items[1].Action()
		assert.Eventually(t, sent(fw, "G161 Y0"), time.Second, time.Millisecond)
	}

	test.Tap(w.buttons["X+"])
	assert.Eventually(t, sent(fw, "G1 X1 F5000"), time.Second, time.Millisecond)

	w.step.SetSelected("10")
	assert.Equal(t, 10.0, p.Jog().Step())
	test.Tap(w.buttons["Z-"])
	assert.Eventually(t, sent(fw, "G1 Z-10 F200"), time.Second, time.Millisecond)

	test.Tap(w.buttons["enable"])
	assert.Eventually(t, fw.DrivesEnabled, time.Second, time.Millisecond)

	assert.Eventually(t, func() bool {
		return strings.Contains(w.drives.Text, "enabled")
	}, time.Second, time.Millisecond)

	w.targets[0].SetText("205")
	w.targets[0].OnSubmitted("205")
	assert.Eventually(t, sent(fw, "M104 S205 T0"), time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return strings.Contains(w.temps[0].Text, "/ 205.0")
	}, time.Second, time.Millisecond)

	w.Window().Close()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("panel still open after window closed")
	}
}

func TestWindow_Disposed(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	p, m, _ := newSimPanel(t)
	w := New(a, p)
	w.Show()
	assert.Len(t, a.Driver().AllWindows(), 1)

	m.Disconnect()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("panel still open after disconnect")
	}
	assert.Eventually(t, func() bool { return len(a.Driver().AllWindows()) == 0 }, time.Second, time.Millisecond)
}
