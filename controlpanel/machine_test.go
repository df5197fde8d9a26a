package controlpanel

import (
	"sync"
	"testing"
	"time"

	"github.com/mastercactapus/gpanel/coord"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/stretchr/testify/assert"
)

type fakeMachine struct {
	mx        sync.Mutex
	model     machine.Model
	modelErr  error
	runErr    error
	cmds      []machine.Command
	listeners []machine.Listener

	// onAdd runs after a listener is added. gate, when set, holds Model
	// until it is closed.
	onAdd func(machine.Listener)
	gate  chan struct{}
}

func newFakeMachine() *fakeMachine {
	p := machine.DefaultProfile()
	p.Axes[0].Endstops = machine.Endstops{HasMin: true, HasMax: true}
	p.Axes[1].Endstops = machine.Endstops{HasMax: true}
	p.Tools = append(p.Tools,
		machine.ToolProfile{Index: 1, Name: "Spindle", Type: "spindle"},
		machine.ToolProfile{Index: 2, Name: "Second", Type: machine.ToolExtruder},
	)
	model := p.Model()
	model.State = machine.State{Kind: machine.Ready}
	return &fakeMachine{model: model}
}

func (m *fakeMachine) RunCommand(cmd machine.Command) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.runErr != nil {
		return m.runErr
	}
	m.cmds = append(m.cmds, cmd)
	return nil
}

func (m *fakeMachine) Model() (machine.Model, error) {
	m.mx.Lock()
	gate := m.gate
	m.mx.Unlock()
	if gate != nil {
		<-gate
	}

	m.mx.Lock()
	defer m.mx.Unlock()
	if m.modelErr != nil {
		return machine.Model{}, m.modelErr
	}
	return m.model, nil
}

func (m *fakeMachine) Endstops(axis machine.AxisID) (machine.Endstops, bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	a, ok := m.model.Axis(axis)
	return a.Endstops, ok
}

func (m *fakeMachine) AddListener(l machine.Listener) {
	m.mx.Lock()
	m.listeners = append(m.listeners, l)
	fn := m.onAdd
	m.mx.Unlock()
	if fn != nil {
		fn(l)
	}
}

func (m *fakeMachine) RemoveListener(l machine.Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for i, x := range m.listeners {
		if x == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

func (m *fakeMachine) Listeners() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return len(m.listeners)
}

// Commands returns the submitted commands, leaving out status polls.
func (m *fakeMachine) Commands() []machine.Command {
	m.mx.Lock()
	defer m.mx.Unlock()
	var res []machine.Command
	for _, c := range m.cmds {
		if _, ok := c.(machine.UpdateManualControl); ok {
			continue
		}
		res = append(res, c)
	}
	return res
}

func (m *fakeMachine) Polls() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	n := 0
	for _, c := range m.cmds {
		if _, ok := c.(machine.UpdateManualControl); ok {
			n++
		}
	}
	return n
}

func (m *fakeMachine) Last() machine.Command {
	cmds := m.Commands()
	if len(cmds) == 0 {
		return nil
	}
	return cmds[len(cmds)-1]
}

func (m *fakeMachine) SetPosition(p coord.Point, valid bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.model.Position = p
	m.model.PositionValid = valid
}

func (m *fakeMachine) Disconnect() {
	m.mx.Lock()
	m.modelErr = machine.ErrNotConnected
	ls := append([]machine.Listener(nil), m.listeners...)
	m.mx.Unlock()
	for _, l := range ls {
		l.MachineStateChanged(machine.StateChangeEvent{State: machine.State{Kind: machine.NotAttached}})
	}
}

// slow keeps the loops from running again during a test.
var slow = Options{UpdateInterval: time.Hour, PollInterval: time.Hour}

func waitClosed(t *testing.T, p *Panel) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("panel did not close")
	}
}

func TestFakeMachine(t *testing.T) {
	m := newFakeMachine()
	e, ok := m.Endstops(machine.AxisY)
	assert.True(t, ok)
	assert.Equal(t, machine.Endstops{HasMax: true}, e)
	_, ok = m.Endstops(machine.AxisA)
	assert.False(t, ok)
}
