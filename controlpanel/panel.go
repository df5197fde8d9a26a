// Package controlpanel implements the manual control panel of a machine:
// a homing menu, a jog panel, drive activation and a tab per extruder,
// kept current by two background loops while the panel is open.
//
// The panel holds no widgets. Frontends render it from Snapshot and call
// its operations in response to user input.
package controlpanel

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mastercactapus/gpanel/machine"
)

// Title is the window title of a control panel.
const Title = "Control Panel"

const (
	DefaultUpdateInterval = time.Second
	DefaultPollInterval   = 700 * time.Millisecond
)

var ErrClosed = errors.New("control panel closed")

type Options struct {
	// UpdateInterval is how often the displayed status is refreshed.
	UpdateInterval time.Duration
	// PollInterval is how often the machine is asked for temperatures and
	// position.
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = DefaultUpdateInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

type Panel struct {
	m   Machine
	opt Options
	reg *Registry

	menu       Menu
	jog        *JogPanel
	activation *ActivationPanel
	tools      *ToolTabs

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mx        sync.Mutex
	onUpdate  []func(Snapshot)
	onDispose []func()
	closed    bool

	closeOnce sync.Once
	done      chan struct{}
}

var _ machine.Listener = &Panel{}

// New creates a panel for m outside of any registry. Most callers want Open.
func New(m Machine, opt Options) (*Panel, error) {
	return newPanel(m, opt, nil)
}

func newPanel(m Machine, opt Options, reg *Registry) (*Panel, error) {
	p := &Panel{
		m:    m,
		opt:  opt.withDefaults(),
		reg:  reg,
		done: make(chan struct{}),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	if err := m.RunCommand(machine.InvalidatePosition{}); err != nil {
		log.Println("ERROR: invalidate position:", err)
	}

	// Close may run from a listener callback before the loops exist; it
	// waits for them, so they are counted first.
	p.wg.Add(2)

	// stop and close when a build starts or the machine goes away
	m.AddListener(p)

	model, err := m.Model()
	if err != nil {
		m.RemoveListener(p)
		p.cancel()
		p.wg.Add(-2)
		return nil, err
	}

	p.mx.Lock()
	p.menu = homingMenu(m)
	p.jog = newJogPanel(m, model, p.notify)
	p.activation = &ActivationPanel{m: m, changed: p.notify}
	p.tools = newToolTabs(m, model, p.notify)
	p.mx.Unlock()

	go p.updateLoop(p.ctx)
	go p.pollLoop(p.ctx)

	return p, nil
}

func (p *Panel) Title() string { return Title }

// Resizable is always false; the layout is fixed.
func (p *Panel) Resizable() bool { return false }

func (p *Panel) Machine() Machine { return p.m }
func (p *Panel) Menu() Menu { return p.menu }
func (p *Panel) Jog() *JogPanel { return p.jog }
func (p *Panel) Activation() *ActivationPanel { return p.activation }
func (p *Panel) Tools() *ToolTabs { return p.tools }
func (p *Panel) Done() <-chan struct{} { return p.done }

// Activate runs the menu item with the given ID.
func (p *Panel) Activate(id string) error {
	if p.closing() {
		return ErrClosed
	}
	item, ok := p.menu.Item(id)
	if !ok {
		return ErrUnknownItem
	}
	if err := p.m.RunCommand(item.cmd); err != nil {
		return err
	}
	p.notify()
	return nil
}

// UpdateStatus refreshes every sub-panel from the machine model.
func (p *Panel) UpdateStatus() error {
	model, err := p.m.Model()
	if err != nil {
		return err
	}
	p.jog.UpdateStatus(model)
	p.activation.UpdateStatus(model)
	p.tools.UpdateStatus(model)
	p.notify()
	return nil
}

// OnUpdate registers fn to receive a snapshot after every status refresh
// and every action taken through the panel. fn must not block.
func (p *Panel) OnUpdate(fn func(Snapshot)) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.onUpdate = append(p.onUpdate, fn)
}

// OnDispose registers fn to run once the panel has closed. If it already
// has, fn runs immediately.
func (p *Panel) OnDispose(fn func()) {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		fn()
		return
	}
	p.onDispose = append(p.onDispose, fn)
	p.mx.Unlock()
}

func (p *Panel) notify() {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return
	}
	fns := make([]func(Snapshot), len(p.onUpdate))
	copy(fns, p.onUpdate)
	p.mx.Unlock()
	if len(fns) == 0 {
		return
	}

	s := p.Snapshot()
	for _, fn := range fns {
		fn(s)
	}
}

// closing is true once the panel has started to go away.
func (p *Panel) closing() bool { return p.ctx.Err() != nil }

// dispose closes the panel from a goroutine that Close would wait on.
func (p *Panel) dispose() {
	p.cancel()
	go p.Close()
}

// Close stops both loops and detaches the panel from its machine and
// registry. It is safe to call more than once.
func (p *Panel) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		p.m.RemoveListener(p)
		if p.reg != nil {
			p.reg.release(p)
		}

		p.mx.Lock()
		p.closed = true
		fns := p.onDispose
		p.onDispose = nil
		p.onUpdate = nil
		p.mx.Unlock()

		close(p.done)
		for _, fn := range fns {
			fn()
		}
	})
	return nil
}

func (p *Panel) MachineStateChanged(e machine.StateChangeEvent) {
	if e.State.IsBuilding() || !e.State.IsConnected() {
		p.dispose()
	}
}

func (p *Panel) MachineProgress(machine.ProgressEvent) {}

func (p *Panel) ToolStatusChanged(e machine.ToolStatusEvent) {
	p.mx.Lock()
	tools := p.tools
	p.mx.Unlock()
	if tools == nil {
		// still being built; the first refresh picks the status up
		return
	}
	tp, ok := tools.Panel(e.Tool.Index)
	if !ok {
		return
	}
	tp.update(e.Tool)
	p.notify()
}
