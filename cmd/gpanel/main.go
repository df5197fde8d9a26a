package main

import (
	"flag"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"fyne.io/fyne/v2/app"

	"github.com/mastercactapus/gpanel/config"
	"github.com/mastercactapus/gpanel/controlpanel"
	"github.com/mastercactapus/gpanel/desktop"
	"github.com/mastercactapus/gpanel/machine"
	"github.com/mastercactapus/gpanel/tui"
	"github.com/mastercactapus/gpanel/web"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfgPath := flag.String("config", "", "Config file to use (YAML).")
	port := flag.String("port", "", "Port path (or name if using SPJS). Use 'sim' for the built-in simulator.")
	baud := flag.Int("baud", 0, "Serial baud rate.")
	spjsURL := flag.String("spjs", "", "Websocket URL of the SPJS server to use.")
	profile := flag.String("profile", "", "Machine profile (YAML). Defaults to a generic RepRap.")
	ui := flag.String("ui", "", "Frontend to use: desktop, web or tui.")
	addr := flag.String("addr", "", "Address to bind the web server to.")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// explicit flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Machine.Port = *port
		case "baud":
			cfg.Machine.Baud = *baud
		case "spjs":
			cfg.Machine.SPJS = *spjsURL
		case "profile":
			cfg.Machine.Profile = *profile
		case "ui":
			cfg.UI.Mode = *ui
		case "addr":
			cfg.UI.Addr = *addr
		}
	})
	if err = cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	prof := machine.DefaultProfile()
	if cfg.Machine.Profile != "" {
		prof, err = machine.LoadProfile(cfg.Machine.Profile)
		if err != nil {
			log.Fatal(err)
		}
	}

	adapter, err := openAdapter(cfg.Machine, prof)
	if err != nil {
		log.Fatal("ERROR: open machine: ", err)
	}
	m := machine.NewMachine(adapter, prof)
	defer m.Disconnect()

	opt := controlpanel.Options{
		UpdateInterval: cfg.Panel.UpdateInterval,
		PollInterval:   cfg.Panel.PollInterval,
	}

	switch cfg.UI.Mode {
	case "web":
		api := web.New(func() (*controlpanel.Panel, error) {
			return controlpanel.Open(m, opt)
		}, m, cfg.UI.PublicURL)
		defer api.Close()

		log.Println("Listening on", cfg.UI.Addr)
		err = http.ListenAndServe(cfg.UI.Addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
			api.ServeHTTP(w, req)
		}))
	case "tui":
		// the terminal belongs to the UI
		if os.Getenv("GPANEL_DEBUG") == "" {
			log.SetOutput(ioutil.Discard)
		}
		var p *controlpanel.Panel
		p, err = controlpanel.Open(m, opt)
		if err != nil {
			break
		}
		err = tui.Run(p)
	default:
		var p *controlpanel.Panel
		p, err = controlpanel.Open(m, opt)
		if err != nil {
			break
		}
		a := app.NewWithID("com.github.mastercactapus.gpanel")
		w := desktop.New(a, p)
		w.Window().SetMaster()
		w.Window().ShowAndRun()
	}
	if err != nil {
		log.Fatal(err)
	}
}
