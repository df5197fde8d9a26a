package reprap

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/machine/sim"
	"github.com/stretchr/testify/assert"
)

// scriptRW answers every written line with the next scripted response.
type scriptRW struct {
	mx   sync.Mutex
	cond *sync.Cond

	responses []string
	written   bytes.Buffer
	out       bytes.Buffer
	closed    bool
}

func newScriptRW(responses ...string) *scriptRW {
	rw := &scriptRW{responses: responses}
	rw.cond = sync.NewCond(&rw.mx)
	return rw
}

func (rw *scriptRW) Write(p []byte) (int, error) {
	rw.mx.Lock()
	defer rw.mx.Unlock()
	rw.written.Write(p)
	for i := bytes.Count(p, []byte("\n")); i > 0 && len(rw.responses) > 0; i-- {
		rw.out.WriteString(rw.responses[0])
		rw.responses = rw.responses[1:]
	}
	rw.cond.Broadcast()
	return len(p), nil
}

func (rw *scriptRW) Read(p []byte) (int, error) {
	rw.mx.Lock()
	defer rw.mx.Unlock()
	for rw.out.Len() == 0 && !rw.closed {
		rw.cond.Wait()
	}
	if rw.out.Len() == 0 {
		return 0, io.EOF
	}
	return rw.out.Read(p)
}

func (rw *scriptRW) Close() error {
	rw.mx.Lock()
	defer rw.mx.Unlock()
	rw.closed = true
	rw.cond.Broadcast()
	return nil
}

func (rw *scriptRW) String() string {
	rw.mx.Lock()
	defer rw.mx.Unlock()
	return rw.written.String()
}

func drain(c *Conn) {
	buf := make([]byte, 256)
	for {
		_, err := c.Read(buf)
		if err == io.EOF || err == io.ErrClosedPipe {
			return
		}
	}
}

func TestConn_Write(t *testing.T) {
	rw := newScriptRW("ok\n", "Error:Unknown code\nok\n", "ok\n")
	c := NewConn(rw, 1)
	go drain(c)
	defer c.Close()

	_, err := c.Write([]byte("G90\n"))
	assert.NoError(t, err)

	_, err = c.Write([]byte("G5\n"))
	assert.EqualError(t, err, "Error:Unknown code")

	n, err := c.ReadFrom(strings.NewReader("G91\n\n"))
	assert.NoError(t, err)
	assert.EqualValues(t, 4, n)

	assert.Equal(t, "G90\nG5\nG91\n", rw.String())
}

func TestConn_Halt(t *testing.T) {
	rw := newScriptRW("!! thermal runaway\n")
	c := NewConn(rw, 1)
	go drain(c)
	defer c.Close()

	_, err := c.Write([]byte("M105\n"))
	assert.EqualError(t, err, "firmware halted: thermal runaway")
}

func TestConn_Reset(t *testing.T) {
	rw := newScriptRW("ok\n", "start\n")
	c := NewConn(rw, 1)
	go drain(c)
	defer c.Close()

	_, err := c.Write([]byte("G90\n"))
	assert.NoError(t, err)
	_, err = c.Write([]byte("G28\n"))
	assert.Equal(t, ErrReset, err)
}

func TestConn_BootBanner(t *testing.T) {
	rw := newScriptRW("ok\n")
	rw.out.WriteString("start\n")
	c := NewConn(rw, 1)
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Write([]byte("M105\n"))
		errCh <- err
	}()
	// the banner is read while the first line is in flight
	time.Sleep(10 * time.Millisecond)
	go drain(c)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write not acknowledged")
	}
}

func TestConn_Close(t *testing.T) {
	rw := newScriptRW()
	c := NewConn(rw, 1)
	go drain(c)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Write([]byte("G4 P1000\n"))
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, c.Close())
	select {
	case err := <-errCh:
		assert.Equal(t, io.ErrClosedPipe, err)
	case <-time.After(time.Second):
		t.Fatal("write did not abort on close")
	}

	_, err := c.Write([]byte("G90\n"))
	assert.Equal(t, io.ErrClosedPipe, err)
}

func TestSerialAdapter(t *testing.T) {
	fw := sim.New(machine.DefaultProfile())
	a := NewSerialAdapter(fw, DefaultMaxOutstanding)

	r := <-a.Reports()
	assert.True(t, r.Reset)

	_, err := a.Write([]byte("G91\nG1 X5 F1000\nG90\nM114\n"))
	assert.NoError(t, err)

	r = <-a.Reports()
	if assert.NotNil(t, r.Position) {
		assert.Equal(t, 5.0, r.Position.X)
	}

	_, err = a.Write([]byte("M104 S200\nM105\n"))
	assert.NoError(t, err)
	r = <-a.Reports()
	if assert.Len(t, r.Temperatures, 1) {
		assert.Equal(t, 200.0, r.Temperatures[0].Target)
	}

	assert.NoError(t, a.Close())
	_, ok := <-a.Reports()
	assert.False(t, ok)
}

func TestSerialAdapter_BuildAfterBoot(t *testing.T) {
	for i := 0; i < 10; i++ {
		m := machine.NewMachine(NewSerialAdapter(sim.New(machine.DefaultProfile()), DefaultMaxOutstanding), machine.DefaultProfile())
		err := m.Build(context.Background(), []string{"G28", "G1 X5 F1000"})
		assert.NoError(t, err)
		m.Disconnect()
	}
}
