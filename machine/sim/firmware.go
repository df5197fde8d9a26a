// Package sim provides a simulated RepRap firmware for running the panel
// without hardware.
package sim

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/mastercactapus/gpanel/coord"
	"github.com/mastercactapus/gpanel/gcode"
	"github.com/mastercactapus/gpanel/machine"
)

// Ambient is the temperature an unheated tool settles at.
const Ambient = 22.0

type heater struct {
	current, target float64
}

// step moves the heater halfway to its goal.
func (h *heater) step() {
	goal := h.target
	if goal <= 0 {
		goal = Ambient
	}
	h.current += (goal - h.current) / 2
	if math.Abs(goal-h.current) < 0.5 {
		h.current = goal
	}
}

// Firmware speaks the RepRap line protocol: every line is answered with
// "ok", prefixed by any report the command produces.
type Firmware struct {
	mx   sync.Mutex
	cond *sync.Cond

	profile machine.Profile
	vm      *gcode.VM

	heaters  map[int]*heater
	platform heater
	current  int
	drives   bool

	in     bytes.Buffer
	out    bytes.Buffer
	lines  []string
	closed bool
}

var _ io.ReadWriteCloser = &Firmware{}

// New boots a firmware for the profile. Like real hardware it announces
// itself with "start".
func New(p machine.Profile) *Firmware {
	f := &Firmware{
		profile: p,
		vm:      gcode.NewVM(),
		heaters: make(map[int]*heater),
	}
	f.cond = sync.NewCond(&f.mx)
	for _, t := range p.Tools {
		f.heaters[t.Index] = &heater{current: Ambient}
	}
	if len(p.Tools) > 0 {
		f.current = p.Tools[0].Index
	}
	f.platform.current = Ambient
	f.out.WriteString("start\n")
	return f
}

// Lines returns every line received so far.
func (f *Firmware) Lines() []string {
	f.mx.Lock()
	defer f.mx.Unlock()
	return append([]string(nil), f.lines...)
}

// Position is the machine position in work coordinates.
func (f *Firmware) Position() coord.Point {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.vm.WPos()
}

func (f *Firmware) DrivesEnabled() bool {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.drives
}

func (f *Firmware) CurrentTool() int {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.current
}

func (f *Firmware) Write(p []byte) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	f.in.Write(p)
	for {
		line, err := f.in.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			f.in.Reset()
			f.in.WriteString(line)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		f.lines = append(f.lines, line)
		f.out.WriteString(f.exec(line))
	}
	f.cond.Broadcast()
	return len(p), nil
}

func (f *Firmware) Read(p []byte) (int, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	for f.out.Len() == 0 && !f.closed {
		f.cond.Wait()
	}
	if f.out.Len() == 0 {
		return 0, io.EOF
	}
	return f.out.Read(p)
}

func (f *Firmware) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.closed = true
	f.cond.Broadcast()
	return nil
}

func (f *Firmware) exec(line string) string {
	b, err := gcode.ParseLine(line)
	if err != nil {
		return "Error:" + err.Error() + "\nok\n"
	}
	if b == nil {
		return "ok\n"
	}

	switch b[0].W {
	case 'T':
		idx := int(b[0].Arg)
		if _, ok := f.heaters[idx]; !ok {
			return fmt.Sprintf("echo:Invalid extruder %d\nok\n", idx)
		}
		f.current = idx
		return "ok\n"
	case 'M':
		return f.execM(b)
	case 'G':
		switch b[0].Arg {
		case 28:
			f.home(b, false)
			return "ok\n"
		case 161:
			f.home(b, false)
			return "ok\n"
		case 162:
			f.home(b, true)
			return "ok\n"
		}
	}

	var motion gcode.Block
	for _, w := range b {
		if w.W != 'E' {
			motion = append(motion, w)
		}
	}
	if err := f.vm.Run(motion); err != nil {
		return "echo:Unknown command: \"" + line + "\"\nok\n"
	}
	return "ok\n"
}

func (f *Firmware) execM(b gcode.Block) string {
	switch b[0].Arg {
	case 17:
		f.drives = true
	case 18, 84:
		f.drives = false
	case 104:
		idx := f.current
		if ok, t := b.Arg('T'); ok {
			idx = int(t)
		}
		h, ok := f.heaters[idx]
		if !ok {
			return fmt.Sprintf("echo:Invalid extruder %d\nok\n", idx)
		}
		if ok, s := b.Arg('S'); ok {
			h.target = s
		}
	case 140:
		if ok, s := b.Arg('S'); ok {
			f.platform.target = s
		}
	case 105:
		return f.temperatures()
	case 114:
		p := f.vm.WPos()
		s := fmt.Sprintf("X:%.2f Y:%.2f Z:%.2f", p.X, p.Y, p.Z)
		if _, ok := f.axis(machine.AxisA); ok {
			s += fmt.Sprintf(" A:%.2f", p.A)
		}
		if _, ok := f.axis(machine.AxisB); ok {
			s += fmt.Sprintf(" B:%.2f", p.B)
		}
		return s + " E:0.00 Count X:0 Y:0 Z:0\nok\n"
	default:
		return fmt.Sprintf("echo:Unknown command: \"M%g\"\nok\n", b[0].Arg)
	}
	return "ok\n"
}

func (f *Firmware) temperatures() string {
	var sb strings.Builder
	sb.WriteString("ok")
	if h, ok := f.heaters[f.current]; ok {
		h.step()
		fmt.Fprintf(&sb, " T:%.1f /%.1f", h.current, h.target)
	}
	f.platform.step()
	fmt.Fprintf(&sb, " B:%.1f /%.1f", f.platform.current, f.platform.target)
	if len(f.heaters) > 1 {
		for _, t := range f.profile.Tools {
			h := f.heaters[t.Index]
			if t.Index != f.current {
				h.step()
			}
			fmt.Fprintf(&sb, " T%d:%.1f /%.1f", t.Index, h.current, h.target)
		}
	}
	sb.WriteString(" @:0\n")
	return sb.String()
}

func (f *Firmware) axis(id machine.AxisID) (machine.AxisProfile, bool) {
	for _, a := range f.profile.Axes {
		if a.ID == id {
			return a, true
		}
	}
	return machine.AxisProfile{}, false
}

// home moves the named axes (all axes when none are named) to an end of
// travel and clears their work offset.
func (f *Firmware) home(b gcode.Block, max bool) {
	axes := b.Axes()
	if len(axes) == 0 {
		for _, a := range f.profile.Axes {
			axes = append(axes, gcode.Word{W: byte(a.ID)})
		}
	}
	pos := f.vm.MPos()
	wco := f.vm.WCO()
	for _, w := range axes {
		v := 0.0
		if max {
			if a, ok := f.axis(machine.AxisID(w.W)); ok {
				v = a.Length
			}
		}
		pos = pos.WithAxis(w.W, v)
		wco = wco.WithAxis(w.W, 0)
	}
	f.vm.SetMPos(pos)
	f.vm.SetWCO(wco)
}
