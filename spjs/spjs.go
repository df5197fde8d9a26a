// Package spjs is a client for the Serial Port JSON Server, a websocket
// bridge that exposes serial ports of a remote host.
package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("spjs: closed")

type SPJS struct {
	url string

	mx          sync.RWMutex
	serialPorts []SerialPort

	outgoing  chan message
	incomming chan interface{}

	closeCh chan struct{}
	once    sync.Once
}

type message struct {
	done    chan struct{}
	payload []byte
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name                      string
	Friendly                  string
	SerialNumber              string
	DeviceClass               string
	IsOpen                    bool
	IsPrimary                 bool
	RelatedNames              []string
	Baud                      int
	BufferAlgorithm           string
	AvailableBufferAlgorithms []string
	Ver                       float64
	USBVID                    string
	USBPID                    string
	FeedRateOverride          float64
}

func NewSPJS(url string) *SPJS {
	sp := &SPJS{
		url:       url,
		outgoing:  make(chan message, 1000),
		incomming: make(chan interface{}, 1000),
		closeCh:   make(chan struct{}),
	}

	go sp.loop()

	return sp
}

// Messages delivers parsed server messages. It is never closed; select on
// Done to notice shutdown.
func (sp *SPJS) Messages() <-chan interface{} {
	return sp.incomming
}

// Done is closed after Close.
func (sp *SPJS) Done() <-chan struct{} { return sp.closeCh }

// SerialPorts returns the most recent port list.
func (sp *SPJS) SerialPorts() []SerialPort {
	sp.mx.RLock()
	defer sp.mx.RUnlock()
	return append([]SerialPort(nil), sp.serialPorts...)
}

func (sp *SPJS) Close() error {
	sp.once.Do(func() { close(sp.closeCh) })
	return nil
}

func parseSPJSMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("SerialPorts", &SerialPortList{}) {
		return
	}
	if check("Type", &CmdStatus{}) {
		return
	}
	if check("Cmd", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (sp *SPJS) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("ERROR: read:", err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			log.Println("ERROR: read:", err)
			continue
		}
		val, err := parseSPJSMessage(data, msg)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		if list, ok := val.(*SerialPortList); ok {
			sp.mx.Lock()
			sp.serialPorts = list.SerialPorts
			sp.mx.Unlock()
		}
		select {
		case sp.incomming <- val:
		case <-sp.closeCh:
			return
		}
	}
}

func (sp *SPJS) loop() {
	var nextUp message

reconnect:
	for {
		select {
		case <-sp.closeCh:
			return
		default:
		}
		log.Println("Connecting to", sp.url)
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			log.Println("ERROR: connect:", err)
			select {
			case <-time.After(3 * time.Second):
			case <-sp.closeCh:
				return
			}
			continue
		}
		log.Println("Connected.")
		ch := make(chan struct{})
		go sp.readLoop(ws, ch)
		go sp.WriteString("list") // refresh list on reconnect

		for {
			if nextUp.done != nil {
				err = ws.WriteMessage(websocket.TextMessage, nextUp.payload)
				if err != nil {
					log.Println("ERROR: send:", err)
					ws.Close()
					continue reconnect
				}
				close(nextUp.done)
				nextUp.done = nil
			}

			select {
			case <-ch:
				continue reconnect
			case <-sp.closeCh:
				ws.Close()
				return
			case nextUp = <-sp.outgoing:
			}
		}
	}
}

type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

func (sp *SPJS) send(payload []byte) error {
	ch := make(chan struct{})
	select {
	case sp.outgoing <- message{done: ch, payload: payload}:
	case <-sp.closeCh:
		return ErrClosed
	}
	select {
	case <-ch:
		return nil
	case <-sp.closeCh:
		return ErrClosed
	}
}

func (sp *SPJS) SendJSON(v JSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sp.send(append([]byte("sendjson "), data...))
}
func (sp *SPJS) WriteString(data string) error {
	return sp.send([]byte(data))
}
