package reprap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/spjs"
)

// ErrWipedQueue is returned for commands dropped by the bridge.
var ErrWipedQueue = errors.New("wiped queue")

func nextID() string {
	return "cmd_" + uuid.NewString()
}

// SPJSAdapter drives a firmware attached to a remote Serial Port JSON Server.
// The bridge does the line buffering, so commands complete when the
// bridge reports them done.
type SPJSAdapter struct {
	sp   *spjs.SPJS
	port string
	baud int

	cmds    chan adapterMessage
	waiting map[string]chan error

	reports chan machine.Report
	lineBuf strings.Builder

	closeCh chan struct{}
	once    sync.Once
}

var _ machine.Adapter = &SPJSAdapter{}

type adapterMessage struct {
	spjs.JSON
	wait chan error
}

func NewSPJSAdapter(sp *spjs.SPJS, port string, baud int) *SPJSAdapter {
	adapter := &SPJSAdapter{
		sp:      sp,
		port:    port,
		baud:    baud,
		waiting: make(map[string]chan error, 100),
		cmds:    make(chan adapterMessage, 1000),
		reports: make(chan machine.Report, 16),
		closeCh: make(chan struct{}),
	}
	go adapter.loop()

	return adapter
}

func (adapter *SPJSAdapter) Reports() chan machine.Report { return adapter.reports }

func (adapter *SPJSAdapter) Close() error {
	adapter.once.Do(func() { close(adapter.closeCh) })
	return adapter.sp.Close()
}

// frame collects data frames into lines; SPJS may split or join them.
func (adapter *SPJSAdapter) frame(data string) {
	adapter.lineBuf.WriteString(data)
	buffered := adapter.lineBuf.String()
	idx := strings.LastIndexByte(buffered, '\n')
	if idx < 0 {
		return
	}
	adapter.lineBuf.Reset()
	adapter.lineBuf.WriteString(buffered[idx+1:])

	for _, line := range strings.Split(buffered[:idx], "\n") {
		r, err := parseLine(line)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		if r == nil {
			continue
		}
		select {
		case adapter.reports <- *r:
		default:
			log.Println("ERROR: report dropped, consumer too slow")
		}
	}
}

func (adapter *SPJSAdapter) loop() {
	defer close(adapter.reports)
	for {
		select {
		case <-adapter.closeCh:
			for key, ch := range adapter.waiting {
				ch <- io.ErrClosedPipe
				delete(adapter.waiting, key)
			}
			return
		case resp := <-adapter.sp.Messages():
			switch msg := resp.(type) {
			case *spjs.DataFrame:
				if msg.Port != "" && msg.Port != adapter.port {
					continue
				}
				adapter.frame(msg.Data)
			case *spjs.CmdStatus:
				switch msg.Cmd {
				case "WipedQueue":
					for key, ch := range adapter.waiting {
						ch <- ErrWipedQueue
						delete(adapter.waiting, key)
					}
				case "Complete":
					if adapter.waiting[msg.ID] != nil {
						adapter.waiting[msg.ID] <- nil
						delete(adapter.waiting, msg.ID)
					}
				}
			case *spjs.SerialPortList:
				for _, port := range msg.SerialPorts {
					if port.Name != adapter.port {
						continue
					}
					if !port.IsOpen {
						go adapter.sp.WriteString("open " + adapter.port + " " + strconv.Itoa(adapter.baud) + " marlin")
					}
				}
			case *spjs.ErrorMessage:
				log.Println("ERROR: spjs:", msg.Error)
			}
		case msg := <-adapter.cmds:
			if err := adapter.sp.SendJSON(msg.JSON); err != nil {
				if msg.wait != nil {
					msg.wait <- err
				}
				continue
			}
			if msg.wait != nil {
				adapter.waiting[msg.Data[len(msg.Data)-1].ID] = msg.wait
			}
		}
	}
}

func (adapter *SPJSAdapter) ReadFrom(r io.Reader) (n int64, err error) {
	scan := bufio.NewScanner(r)
	var wait chan error
	for {
		var j spjs.JSON
		j.Port = adapter.port
		for scan.Scan() {
			line := strings.TrimSpace(scan.Text())
			if line == "" {
				continue
			}
			n += int64(len(scan.Bytes()))
			j.Data = append(j.Data, spjs.Data{
				Data: line + "\n",
				ID:   nextID(),
			})
			if len(j.Data) == 100 {
				break
			}
		}
		if len(j.Data) == 0 {
			break
		}
		wait = make(chan error, 1)
		select {
		case adapter.cmds <- adapterMessage{JSON: j, wait: wait}:
		case <-adapter.closeCh:
			return n, io.ErrClosedPipe
		}
	}

	if wait == nil {
		return 0, nil
	}

	// wait for last channel
	select {
	case err = <-wait:
		return n, err
	case <-adapter.closeCh:
		return n, io.ErrClosedPipe
	}
}
func (adapter *SPJSAdapter) WriteByte(b byte) error {
	_, err := adapter.Write([]byte{b, '\n'})
	return err
}
func (adapter *SPJSAdapter) Write(p []byte) (int, error) {
	n, err := adapter.ReadFrom(bytes.NewReader(p))
	return int(n), err
}
