package main

import (
	"errors"

	"github.com/mastercactapus/gpanel/config"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/machine/reprap"
	"github.com/mastercactapus/gpanel/machine/sim"
	"github.com/mastercactapus/gpanel/spjs"
)

// openAdapter connects to the firmware named by cfg: the simulator, a port
// behind an SPJS bridge, or a local serial port.
func openAdapter(cfg config.MachineConfig, p machine.Profile) (machine.Adapter, error) {
	switch {
	case cfg.SPJS != "":
		if cfg.Port == config.SimPort {
			return nil, errors.New("spjs needs the bridge's serial port name")
		}
		return reprap.NewSPJSAdapter(spjs.NewSPJS(cfg.SPJS), cfg.Port, cfg.Baud), nil
	case cfg.Port == config.SimPort:
		return reprap.NewSerialAdapter(sim.New(p), cfg.MaxOutstanding), nil
	}
	return reprap.OpenSerial(cfg.Port, cfg.Baud, cfg.MaxOutstanding)
}
