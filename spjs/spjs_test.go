package spjs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, data string) interface{} {
	var msg map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal([]byte(data), &msg))
	val, err := parseSPJSMessage([]byte(data), msg)
	assert.NoError(t, err)
	return val
}

func TestParseSPJSMessage(t *testing.T) {
	assert.Equal(t, &DataFrame{Port: "/dev/ttyACM0", Data: "ok T:20.0 /0.0\n"},
		parse(t, `{"P":"/dev/ttyACM0","D":"ok T:20.0 /0.0\n"}`))

	assert.Equal(t, &CmdStatus{Cmd: "Complete", ID: "cmd_1", Data: []string{"M105\n"}},
		parse(t, `{"Cmd":"Complete","Id":"cmd_1","D":["M105\n"]}`))

	assert.Equal(t, &ErrorMessage{Error: "port busy"}, parse(t, `{"Error":"port busy"}`))

	_, err := parseSPJSMessage([]byte(`{"Foo":1}`), map[string]json.RawMessage{"Foo": json.RawMessage("1")})
	assert.Error(t, err)
}

func TestSPJS_RoundTrip(t *testing.T) {
	got := make(chan string, 10)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			got <- string(data)
			if string(data) == "list" {
				ws.WriteMessage(websocket.TextMessage, []byte(`{"SerialPorts":[{"Name":"COM3","IsOpen":true}]}`))
			}
		}
	}))
	defer srv.Close()

	sp := NewSPJS("ws" + strings.TrimPrefix(srv.URL, "http"))
	defer sp.Close()

	select {
	case msg := <-sp.Messages():
		list, ok := msg.(*SerialPortList)
		assert.True(t, ok)
		assert.Equal(t, "COM3", list.SerialPorts[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no port list")
	}
	assert.Len(t, sp.SerialPorts(), 1)
	assert.Equal(t, "list", <-got)

	assert.NoError(t, sp.SendJSON(JSON{Port: "COM3", Data: []Data{{Data: "M105\n", ID: "a"}}}))
	assert.Equal(t, `sendjson {"P":"COM3","Data":[{"D":"M105\n","Id":"a"}]}`, <-got)
}

func TestSPJS_Closed(t *testing.T) {
	sp := NewSPJS("ws://127.0.0.1:1/ws")
	sp.Close()
	assert.Equal(t, ErrClosed, sp.WriteString("list"))
}
