package controlpanel

import "sync"

// Registry keeps at most one open panel.
type Registry struct {
	// getMx serializes Get; mx guards panel and is also taken by closing
	// panels.
	getMx sync.Mutex

	mx    sync.Mutex
	panel *Panel
}

// Get returns the open panel for m, replacing a panel that belongs to a
// different machine.
func (r *Registry) Get(m Machine, opt Options) (*Panel, error) {
	r.getMx.Lock()
	defer r.getMx.Unlock()

	r.mx.Lock()
	old := r.panel
	r.mx.Unlock()

	if old != nil {
		if old.m == m && !old.closing() {
			return old, nil
		}
		old.Close()
	}

	p, err := newPanel(m, opt, r)
	if err != nil {
		return nil, err
	}
	r.mx.Lock()
	r.panel = p
	r.mx.Unlock()
	return p, nil
}

// Current returns the open panel, if any.
func (r *Registry) Current() *Panel {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.panel
}

func (r *Registry) release(p *Panel) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.panel == p {
		r.panel = nil
	}
}

var defaultRegistry = &Registry{}

// Open returns the control panel for m from the default registry.
func Open(m Machine, opt Options) (*Panel, error) {
	return defaultRegistry.Get(m, opt)
}
