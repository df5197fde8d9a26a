package controlpanel

import (
	"sync"

	"github.com/mastercactapus/gpanel/machine"
)

// ActivationPanel powers the stepper drives up or down.
type ActivationPanel struct {
	m       Machine
	changed func()

	mx      sync.Mutex
	enabled bool
}

func (a *ActivationPanel) Enable() error {
	if err := a.m.RunCommand(machine.EnableDrives{}); err != nil {
		return err
	}
	a.changed()
	return nil
}

func (a *ActivationPanel) Disable() error {
	if err := a.m.RunCommand(machine.DisableDrives{}); err != nil {
		return err
	}
	a.changed()
	return nil
}

// Enabled reports the drive state seen at the last status update.
func (a *ActivationPanel) Enabled() bool {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.enabled
}

func (a *ActivationPanel) UpdateStatus(model machine.Model) {
	a.mx.Lock()
	a.enabled = model.DrivesEnabled
	a.mx.Unlock()
}
