package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/mastercactapus/gpanel/gcode"
)

var (
	// ErrNotConnected is returned when the machine link is gone.
	ErrNotConnected = errors.New("machine not connected")
	// ErrBusy is returned for manual commands while a build is running.
	ErrBusy = errors.New("machine is building")
	// ErrQueueFull is returned when the command queue cannot take more work.
	ErrQueueFull = errors.New("command queue full")
)

const queueSize = 64

type Machine struct {
	Adapter

	mx        sync.Mutex
	model     Model
	listeners []Listener

	cmds    chan Command
	events  chan func()
	closeCh chan struct{}
	once    sync.Once
}

// NewMachine wraps a connected adapter. The machine starts Ready.
func NewMachine(a Adapter, p Profile) *Machine {
	m := &Machine{
		Adapter: a,
		model:   p.Model(),
		cmds:    make(chan Command, queueSize),
		events:  make(chan func(), queueSize),
		closeCh: make(chan struct{}),
	}
	m.model.State = State{Kind: Ready}

	go m.dispatch()
	go m.worker()
	go m.loop()

	return m
}

func (m *Machine) State() State {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.model.State
}

// Model returns a snapshot of the machine model.
func (m *Machine) Model() (Model, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.model.State.IsConnected() {
		return Model{}, ErrNotConnected
	}
	return m.model.clone(), nil
}

// Endstops returns the endstop configuration of an axis.
func (m *Machine) Endstops(axis AxisID) (Endstops, bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	a, ok := m.model.Axis(axis)
	return a.Endstops, ok
}

func (m *Machine) AddListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Machine) RemoveListener(l Listener) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for i, x := range m.listeners {
		if x == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// RunCommand queues cmd for execution and returns immediately.
func (m *Machine) RunCommand(cmd Command) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.accepting(); err != nil {
		return err
	}
	select {
	case m.cmds <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// accepting reports why new work cannot be queued. m.mx must be held.
func (m *Machine) accepting() error {
	if !m.model.State.IsConnected() {
		return ErrNotConnected
	}
	if m.model.State.IsBuilding() {
		return ErrBusy
	}
	return nil
}

// buildJob is a program queued behind the commands accepted before it.
type buildJob struct {
	ctx   context.Context
	lines []string

	// started is closed once Building has been announced.
	started chan struct{}
	done    chan error
}

func (*buildJob) Blocks() []gcode.Block { return nil }
func (j *buildJob) String() string      { return fmt.Sprintf("Build(%d lines)", len(j.lines)) }

// Build streams lines to the firmware, one at a time, reporting progress.
// Commands queued before the call run first; manual commands are refused
// until it returns.
func (m *Machine) Build(ctx context.Context, lines []string) error {
	job := &buildJob{ctx: ctx, lines: lines, started: make(chan struct{}), done: make(chan error, 1)}

	m.mx.Lock()
	if err := m.accepting(); err != nil {
		m.mx.Unlock()
		return err
	}
	select {
	case m.cmds <- job:
	default:
		m.mx.Unlock()
		return ErrQueueFull
	}
	prev := m.model.State
	m.model.State = State{Kind: Building}
	m.mx.Unlock()
	m.stateChanged(prev, State{Kind: Building})
	close(job.started)

	select {
	case err := <-job.done:
		return err
	case <-m.closeCh:
		return ErrNotConnected
	}
}

func (m *Machine) runBuild(job *buildJob) error {
	total := len(job.lines)
	for i, line := range job.lines {
		if err := job.ctx.Err(); err != nil {
			m.setState(State{Kind: Ready, Message: "build cancelled"})
			return err
		}
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		_, err := m.Adapter.Write([]byte(line))
		if err != nil {
			m.failed(err)
			return err
		}
		n := i + 1
		m.emit(func(l Listener) { l.MachineProgress(ProgressEvent{Machine: m, Lines: n, Total: total}) })
	}
	m.setState(State{Kind: Ready})
	return nil
}

// Disconnect closes the adapter and detaches the machine.
func (m *Machine) Disconnect() error {
	var err error
	m.once.Do(func() {
		m.setState(State{Kind: NotAttached})
		close(m.closeCh)
		err = m.Adapter.Close()
	})
	return err
}

func (m *Machine) runBlocks(b []gcode.Block) error {
	_, err := m.Adapter.ReadFrom(gcode.NewBuffer(&gcode.BlocksReader{Blocks: b}))
	return err
}

func (m *Machine) worker() {
	for {
		select {
		case <-m.closeCh:
			return
		case cmd := <-m.cmds:
			m.exec(cmd)
		}
	}
}

func (m *Machine) exec(cmd Command) {
	if job, ok := cmd.(*buildJob); ok {
		<-job.started
		job.done <- m.runBuild(job)
		return
	}
	if b := cmd.Blocks(); len(b) > 0 {
		err := m.runBlocks(b)
		if err != nil {
			log.Printf("ERROR: run %v: %v", cmd, err)
			m.failed(err)
			return
		}
	}
	if u, ok := cmd.(modelUpdater); ok {
		m.mx.Lock()
		u.apply(&m.model)
		m.mx.Unlock()
	}
}

// failed decides whether a write error means the link is gone.
func (m *Machine) failed(err error) {
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
		m.lost(err.Error())
		return
	}
	if m.State().IsBuilding() {
		m.setState(State{Kind: Error, Message: err.Error()})
		m.setState(State{Kind: Ready})
	}
}

func (m *Machine) lost(reason string) {
	m.once.Do(func() {
		m.setState(State{Kind: NotAttached, Message: reason})
		close(m.closeCh)
		m.Adapter.Close()
	})
}

func (m *Machine) loop() {
	reports := m.Adapter.Reports()
	for {
		select {
		case <-m.closeCh:
			return
		case r, ok := <-reports:
			if !ok {
				m.lost("link closed")
				return
			}
			m.handleReport(r)
		}
	}
}

func (m *Machine) handleReport(r Report) {
	var changed []ToolModel

	m.mx.Lock()
	if r.Reset {
		log.Println("Firmware reset.")
		m.model.PositionValid = false
		m.model.DrivesEnabled = false
	}
	if r.Position != nil {
		m.model.Position = *r.Position
		m.model.PositionValid = true
	}
	if r.Platform != nil {
		m.model.PlatformTemperature = r.Platform.Current
		m.model.PlatformTargetTemperature = r.Platform.Target
	}
	for _, tt := range r.Temperatures {
		idx := tt.Tool
		if idx < 0 {
			idx = m.model.CurrentTool
		}
		t := m.model.tool(idx)
		if t == nil {
			continue
		}
		if t.Temperature == tt.Current && t.TargetTemperature == tt.Target {
			continue
		}
		t.Temperature = tt.Current
		t.TargetTemperature = tt.Target
		changed = append(changed, *t)
	}
	m.mx.Unlock()

	for _, t := range changed {
		t := t
		m.emit(func(l Listener) { l.ToolStatusChanged(ToolStatusEvent{Machine: m, Tool: t}) })
	}
}

func (m *Machine) setState(s State) {
	m.mx.Lock()
	prev := m.model.State
	m.model.State = s
	m.mx.Unlock()
	m.stateChanged(prev, s)
}

func (m *Machine) stateChanged(prev, s State) {
	if prev == s {
		return
	}
	log.Println("Machine state:", s)
	m.emit(func(l Listener) { l.MachineStateChanged(StateChangeEvent{Machine: m, State: s, Previous: prev}) })
}

// emit queues fn for every listener registered at the time of the call.
func (m *Machine) emit(fn func(Listener)) {
	m.mx.Lock()
	ls := append([]Listener(nil), m.listeners...)
	m.mx.Unlock()
	if len(ls) == 0 {
		return
	}
	select {
	case m.events <- func() {
		for _, l := range ls {
			fn(l)
		}
	}:
	case <-m.closeCh:
	}
}

func (m *Machine) dispatch() {
	for {
		select {
		case fn := <-m.events:
			fn()
		case <-m.closeCh:
			for {
				select {
				case fn := <-m.events:
					fn()
				default:
					return
				}
			}
		}
	}
}
