package reprap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultMaxOutstanding keeps a single unacknowledged line in flight, which
// is what most RepRap firmwares expect without line numbers.
const DefaultMaxOutstanding = 1

// ErrReset will be returned from write methods if a reset is encountered
// before all commands are run.
var ErrReset = errors.New("firmware reset")

// Conn represents a direct line/ack connection to a RepRap firmware.
type Conn struct {
	rw io.ReadWriter

	readBuf []byte
	scan    *bufio.Scanner
	ackCh   chan error
	resetCh chan struct{}
	closeCh chan struct{}
	once    sync.Once

	mx  sync.Mutex
	wMx sync.Mutex

	maxOutstanding int
	outstanding    int

	// unacked is shared with the reader so stray acks can be dropped
	unacked int64

	// booted is set by the first "ok"; until then "start" is the power-on
	// banner, not a reset
	booted int32

	// lastErr is an error line waiting for its "ok"
	lastErr error

	wroteLines int64
	readLines  int64
}

// NewConn creates a new Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter, maxOutstanding int) *Conn {
	if maxOutstanding < 1 {
		maxOutstanding = DefaultMaxOutstanding
	}
	return &Conn{
		scan:           bufio.NewScanner(rw),
		rw:             rw,
		ackCh:          make(chan error, maxOutstanding),
		resetCh:        make(chan struct{}, 1),
		closeCh:        make(chan struct{}),
		maxOutstanding: maxOutstanding,
	}
}

// Close will abort any in-progress writes and close the
// underlying ReadWriter, if it implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Conn) closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *Conn) waitForSlot() error {
	for c.outstanding >= c.maxOutstanding {
		err := c.next()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) reset() {
	c.outstanding = 0
	c.readLines = c.wroteLines
	atomic.StoreInt64(&c.unacked, 0)
	for {
		select {
		case <-c.ackCh:
		default:
			return
		}
	}
}

func (c *Conn) next() error {
	if c.closed() {
		return io.ErrClosedPipe
	}

	select {
	case <-c.resetCh:
		c.reset()
		return ErrReset
	default:
	}

	select {
	case <-c.closeCh:
		return io.ErrClosedPipe
	case <-c.resetCh:
		c.reset()
		return ErrReset
	case e := <-c.ackCh:
		c.readLines++
		c.outstanding--
		return e
	}
}

func (c *Conn) waitForLine(id int64) (err error) {
	for c.readLines < id {
		e := c.next()
		if err == nil {
			err = e
		}
		if e == ErrReset || e == io.ErrClosedPipe {
			return e
		}
	}
	return err
}

// writeLine will block until line has been written to the device in full.
//
// It returns the line index.
func (c *Conn) writeLine(line []byte) (id int64, err error) {
	err = c.waitForSlot()
	if err != nil {
		return 0, err
	}
	atomic.AddInt64(&c.unacked, 1)
	c.mx.Lock()
	_, err = c.rw.Write(line)
	c.mx.Unlock()
	if err != nil {
		atomic.AddInt64(&c.unacked, -1)
		return 0, err
	}
	c.outstanding++
	c.wroteLines++
	return c.wroteLines, nil
}

func splitLinesKeepN(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), append(data, '\n'), nil
	}
	return 0, nil, nil
}

// ReadFrom returns after all lines have been sent and acknowledged.
func (c *Conn) ReadFrom(r io.Reader) (n int64, err error) {
	c.wMx.Lock()
	defer c.wMx.Unlock()
	return c.readFrom(r)
}

func (c *Conn) readFrom(r io.Reader) (n int64, err error) {
	if c.closed() {
		return 0, io.ErrClosedPipe
	}

	scanner := bufio.NewScanner(r)
	scanner.Split(splitLinesKeepN)

	lastID := c.wroteLines
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		lastID, err = c.writeLine(line)
		if err != nil {
			return n, err
		}
		n += int64(len(line))
	}
	if err = scanner.Err(); err != nil {
		return n, err
	}

	return n, c.waitForLine(lastID)
}

// Write will return after all lines have been sent and acknowledged.
func (c *Conn) Write(p []byte) (int, error) {
	c.wMx.Lock()
	defer c.wMx.Unlock()

	n, err := c.readFrom(bytes.NewReader(p))
	return int(n), err
}

// WriteByte will write directly to the device without
// waiting for an acknowledgement.
func (c *Conn) WriteByte(p byte) (err error) {
	if c.closed() {
		return io.ErrClosedPipe
	}
	c.mx.Lock()
	_, err = c.rw.Write([]byte{p})
	c.mx.Unlock()
	return err
}

// ack releases the oldest pending line. Acks with nothing pending are dropped.
func (c *Conn) ack(err error) {
	for {
		n := atomic.LoadInt64(&c.unacked)
		if n <= 0 {
			return
		}
		if atomic.CompareAndSwapInt64(&c.unacked, n, n-1) {
			break
		}
	}
	select {
	case c.ackCh <- err:
	default:
	}
}

// Read will read the next line from the device, acknowledging pending
// writes as a side effect. Lines are returned without the trailing newline.
func (c *Conn) Read(p []byte) (n int, err error) {
	if c.closed() {
		return 0, io.ErrClosedPipe
	}

	if c.readBuf != nil {
		if len(p) < len(c.readBuf) {
			return 0, io.ErrShortBuffer
		}
		n = copy(p, c.readBuf)
		c.readBuf = nil
		return n, nil
	}
	if !c.scan.Scan() {
		err = c.scan.Err()
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	data := bytes.TrimSpace(c.scan.Bytes())

	switch {
	case bytes.HasPrefix(data, []byte("ok")):
		atomic.StoreInt32(&c.booted, 1)
		c.ack(c.lastErr)
		c.lastErr = nil
	case bytes.HasPrefix(data, []byte("Error:")):
		c.lastErr = errors.New(strings.TrimSpace(string(data)))
	case bytes.HasPrefix(data, []byte("!!")):
		c.ack(errors.New("firmware halted: " + strings.TrimSpace(string(data[2:]))))
	case bytes.Equal(data, []byte("start")):
		c.lastErr = nil
		if atomic.SwapInt32(&c.booted, 0) == 0 || atomic.LoadInt64(&c.unacked) == 0 {
			break
		}
		select {
		case c.resetCh <- struct{}{}:
		default:
		}
	}

	if len(p) < len(data) {
		c.readBuf = append([]byte(nil), data...)
		return 0, io.ErrShortBuffer
	}

	return copy(p, data), nil
}
