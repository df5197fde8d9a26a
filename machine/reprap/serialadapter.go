package reprap

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"

	"github.com/mastercactapus/gpanel/machine"
)

// SerialAdapter drives a firmware over a byte stream, normally a serial port.
type SerialAdapter struct {
	*Conn

	reports chan machine.Report
}

var _ machine.Adapter = &SerialAdapter{}

// OpenSerial opens a serial port and wraps it in a SerialAdapter.
func OpenSerial(name string, baud int, maxOutstanding int) (*SerialAdapter, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name: name,
		Baud: baud,
	})
	if err != nil {
		return nil, err
	}
	return NewSerialAdapter(port, maxOutstanding), nil
}

func NewSerialAdapter(rw io.ReadWriter, maxOutstanding int) *SerialAdapter {
	adapter := &SerialAdapter{
		Conn:    NewConn(rw, maxOutstanding),
		reports: make(chan machine.Report, 16),
	}
	go adapter.readLoop()

	return adapter
}

func (adapter *SerialAdapter) Reports() chan machine.Report { return adapter.reports }

func (adapter *SerialAdapter) readLoop() {
	defer close(adapter.reports)

	buf := make([]byte, 1024)
	for {
		n, err := adapter.Read(buf)
		if errors.Is(err, io.ErrShortBuffer) {
			buf = make([]byte, len(buf)*2)
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || adapter.closed() {
			return
		}
		if err != nil {
			log.Println("ERROR: read from port:", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		r, err := parseLine(string(buf[:n]))
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		if r == nil {
			continue
		}
		select {
		case adapter.reports <- *r:
		case <-adapter.closeCh:
			return
		}
	}
}
