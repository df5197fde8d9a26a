package controlpanel

import "github.com/mastercactapus/gpanel/machine"

// Machine is what a control panel needs from a machine. *machine.Machine
// satisfies it.
type Machine interface {
	RunCommand(machine.Command) error

	// Model returns machine.ErrNotConnected once the machine is gone.
	Model() (machine.Model, error)
	Endstops(machine.AxisID) (machine.Endstops, bool)

	AddListener(machine.Listener)
	RemoveListener(machine.Listener)
}

var _ Machine = &machine.Machine{}
