// Package web serves a control panel over HTTP, pushing snapshots to the
// browser with server-sent events.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"sync"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/gcode"
	"github.com/mastercactapus/gpanel/machine"
)

//go:embed static/index.html
var static embed.FS

// Opener returns the control panel to serve. It is called for every
// request, so a panel closed by a build is replaced by a fresh one.
type Opener func() (*controlpanel.Panel, error)

// Builder streams a job to the machine.
type Builder interface {
	Build(ctx context.Context, lines []string) error
}

type API struct {
	http.Handler

	open      Opener
	b         Builder
	publicURL string
	sse       *sse.Server

	mx      sync.Mutex
	current *controlpanel.Panel
}

// New creates the API. publicURL is encoded in the QR code; when empty the
// request host is used.
func New(open Opener, b Builder, publicURL string) *API {
	r := mux.NewRouter()

	a := &API{
		Handler:   r,
		open:      open,
		b:         b,
		publicURL: publicURL,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	r.HandleFunc("/api/panel", a.getPanel).Methods("GET")
	r.HandleFunc("/api/menu/{id}", a.activate).Methods("POST")
	r.HandleFunc("/api/jog", a.jog).Methods("POST")
	r.HandleFunc("/api/jog/step", a.setStep).Methods("POST")
	r.HandleFunc("/api/jog/feed", a.setFeed).Methods("POST")
	r.HandleFunc("/api/zero/{axis}", a.zero).Methods("POST")
	r.HandleFunc("/api/drives/{action:enable|disable}", a.drives).Methods("POST")
	r.HandleFunc("/api/tools/{index:[0-9]+}/select", a.selectTool).Methods("POST")
	r.HandleFunc("/api/tools/{index:[0-9]+}/target", a.setTarget).Methods("POST")
	r.HandleFunc("/api/run", a.run).Methods("POST")
	r.HandleFunc("/qr.png", a.qr).Methods("GET")
	r.PathPrefix("/events/").HandlerFunc(a.events)
	r.HandleFunc("/", a.index).Methods("GET")

	return a
}

// Close disconnects event stream clients.
func (a *API) Close() {
	a.sse.Shutdown()
}

// panel returns the open panel, subscribing to updates of a new one.
func (a *API) panel() (*controlpanel.Panel, error) {
	p, err := a.open()
	if err != nil {
		return nil, err
	}

	a.mx.Lock()
	defer a.mx.Unlock()
	if p != a.current {
		a.current = p
		p.OnUpdate(a.publish)
	}
	return p, nil
}

// events makes sure a panel is open before a client starts listening.
func (a *API) events(w http.ResponseWriter, req *http.Request) {
	if _, err := a.panel(); err != nil {
		log.Println("ERROR: open panel:", err)
	}
	a.sse.ServeHTTP(w, req)
}

func (a *API) publish(s controlpanel.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("ERROR: marshal json: %+v", err)
		return
	}
	a.sse.SendMessage("/events/panel", sse.SimpleMessage(string(data)))
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, controlpanel.ErrUnknownItem),
		errors.Is(err, controlpanel.ErrUnknownAxis),
		errors.Is(err, controlpanel.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, controlpanel.ErrInvalidStep),
		errors.Is(err, controlpanel.ErrInvalidFeedRate),
		errors.Is(err, controlpanel.ErrInvalidTemperature):
		return http.StatusBadRequest
	case errors.Is(err, machine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, machine.ErrNotConnected),
		errors.Is(err, machine.ErrQueueFull),
		errors.Is(err, controlpanel.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func httpError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.Printf("ERROR: %+v", err)
	}
	http.Error(w, err.Error(), code)
}

// do runs fn against the open panel and replies with a fresh snapshot.
func (a *API) do(w http.ResponseWriter, fn func(p *controlpanel.Panel) error) {
	p, err := a.panel()
	if err != nil {
		httpError(w, err)
		return
	}
	if err = fn(p); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, p.Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *API) getPanel(w http.ResponseWriter, req *http.Request) {
	a.do(w, func(*controlpanel.Panel) error { return nil })
}

func (a *API) activate(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	a.do(w, func(p *controlpanel.Panel) error { return p.Activate(id) })
}

func parseFloat(req *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(req.FormValue(name), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (a *API) jog(w http.ResponseWriter, req *http.Request) {
	axis, err := machine.ParseAxis(req.FormValue("axis"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var dir machine.Direction
	switch req.FormValue("dir") {
	case "+", "1", "positive":
		dir = machine.Positive
	case "-", "-1", "negative":
		dir = machine.Negative
	default:
		http.Error(w, "dir must be + or -", http.StatusBadRequest)
		return
	}
	a.do(w, func(p *controlpanel.Panel) error { return p.Jog().Jog(axis, dir) })
}

func (a *API) setStep(w http.ResponseWriter, req *http.Request) {
	step, err := parseFloat(req, "step")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.do(w, func(p *controlpanel.Panel) error { return p.Jog().SetStep(step) })
}

func (a *API) setFeed(w http.ResponseWriter, req *http.Request) {
	xy, err := parseFloat(req, "xy")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	z, err := parseFloat(req, "z")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.do(w, func(p *controlpanel.Panel) error { return p.Jog().SetFeedRates(xy, z) })
}

func (a *API) zero(w http.ResponseWriter, req *http.Request) {
	axis, err := machine.ParseAxis(mux.Vars(req)["axis"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	a.do(w, func(p *controlpanel.Panel) error { return p.Jog().Zero(axis) })
}

func (a *API) drives(w http.ResponseWriter, req *http.Request) {
	enable := mux.Vars(req)["action"] == "enable"
	a.do(w, func(p *controlpanel.Panel) error {
		if enable {
			return p.Activation().Enable()
		}
		return p.Activation().Disable()
	})
}

func toolIndex(req *http.Request) int {
	// the route only matches digits
	idx, _ := strconv.Atoi(mux.Vars(req)["index"])
	return idx
}

func (a *API) selectTool(w http.ResponseWriter, req *http.Request) {
	idx := toolIndex(req)
	a.do(w, func(p *controlpanel.Panel) error { return p.Tools().Select(idx) })
}

func (a *API) setTarget(w http.ResponseWriter, req *http.Request) {
	idx := toolIndex(req)
	c, err := parseFloat(req, "celsius")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.do(w, func(p *controlpanel.Panel) error {
		tp, ok := p.Tools().Panel(idx)
		if !ok {
			return controlpanel.ErrUnknownTool
		}
		return tp.SetTarget(c)
	})
}

func (a *API) run(w http.ResponseWriter, req *http.Request) {
	prog, err := gcode.ReadProgram(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = a.b.Build(req.Context(), gcode.Lines(prog))
	if err != nil {
		log.Printf("ERROR: run: %+v", err)
		http.Error(w, err.Error(), statusCode(err))
		return
	}
}

func (a *API) qr(w http.ResponseWriter, req *http.Request) {
	url := a.publicURL
	if url == "" {
		url = "http://" + req.Host + "/"
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		log.Printf("ERROR: encode qr: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (a *API) index(w http.ResponseWriter, req *http.Request) {
	data, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
