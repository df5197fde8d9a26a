package machine

import (
	"io"

	"github.com/mastercactapus/gpanel/coord"
)

// An Adapter represents the minimal firmware link of a machine.
type Adapter interface {
	// Reports delivers unsolicited and polled status from the firmware. It is
	// closed when the link is lost.
	Reports() chan Report

	WriteByte(byte) error
	Write([]byte) (int, error)
	ReadFrom(io.Reader) (int64, error)

	Close() error
}

type Temperature struct {
	Current float64
	Target  float64
}

// ToolTemperature is a temperature report for one tool. Tool is -1 when the
// firmware did not name the tool, meaning the current one.
type ToolTemperature struct {
	Tool int
	Temperature
}

// Report is a parsed firmware response. Nil fields were not part of it.
type Report struct {
	Position     *coord.Point
	Temperatures []ToolTemperature
	Platform     *Temperature

	// Reset is set when the firmware restarted.
	Reset bool
}
