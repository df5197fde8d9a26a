package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mastercactapus/gpanel/config"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/machine/reprap"
)

func TestOpenAdapter(t *testing.T) {
	p := machine.DefaultProfile()

	a, err := openAdapter(config.MachineConfig{Port: config.SimPort, Baud: 115200}, p)
	assert.NoError(t, err)
	assert.IsType(t, &reprap.SerialAdapter{}, a)
	a.Close()

	a, err = openAdapter(config.MachineConfig{Port: "/dev/ttyUSB0", Baud: 115200, SPJS: "ws://127.0.0.1:1/ws"}, p)
	assert.NoError(t, err)
	assert.IsType(t, &reprap.SPJSAdapter{}, a)
	a.Close()

	// a bridge without a port must not fall back to the simulator
	_, err = openAdapter(config.MachineConfig{Port: config.SimPort, Baud: 115200, SPJS: "ws://127.0.0.1:1/ws"}, p)
	assert.Error(t, err)
}
