package controlpanel

import (
	"context"
	"log"
	"time"

	"github.com/mastercactapus/gpanel/machine"
)

// updateLoop refreshes the display until the panel closes. A failed refresh
// means the machine disconnected, so the panel goes away.
func (p *Panel) updateLoop(ctx context.Context) {
	defer p.wg.Done()
	t := time.NewTicker(p.opt.UpdateInterval)
	defer t.Stop()

	for {
		if err := p.UpdateStatus(); err != nil {
			log.Println("ERROR: update control panel:", err)
			p.dispose()
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// pollLoop asks the machine for fresh status. Failures are not fatal.
func (p *Panel) pollLoop(ctx context.Context) {
	defer p.wg.Done()
	t := time.NewTicker(p.opt.PollInterval)
	defer t.Stop()

	for {
		if err := p.m.RunCommand(machine.UpdateManualControl{}); err != nil {
			log.Println("ERROR: poll machine:", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
