package controlpanel

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mastercactapus/gpanel/machine"
)

var (
	ErrUnknownAxis     = errors.New("unknown axis")
	ErrInvalidStep     = errors.New("invalid step size")
	ErrInvalidFeedRate = errors.New("feed rate must be positive")
)

// StepSizes are the jog distances offered, in mm.
var StepSizes = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 20, 50}

const (
	DefaultStep = 1.0

	// feed rates used when the profile does not name one, in mm/min
	defaultXYFeedRate = 1000.0
	defaultZFeedRate  = 200.0
)

// Unknown is shown in place of a position that has been invalidated.
const Unknown = "unknown"

// JogPanel moves single axes by a fixed step and shows the current position.
type JogPanel struct {
	m       Machine
	changed func()

	mx        sync.Mutex
	axes      []machine.AxisModel
	step      float64
	xyFeed    float64
	zFeed     float64
	positions map[machine.AxisID]string
}

func newJogPanel(m Machine, model machine.Model, changed func()) *JogPanel {
	j := &JogPanel{
		m:         m,
		changed:   changed,
		step:      DefaultStep,
		xyFeed:    defaultXYFeedRate,
		zFeed:     defaultZFeedRate,
		positions: make(map[machine.AxisID]string),
	}
	for _, id := range machine.Axes {
		a, ok := model.Axis(id)
		if !ok {
			continue
		}
		j.axes = append(j.axes, a)
		j.positions[id] = Unknown
	}
	if a, ok := model.Axis(machine.AxisX); ok && a.MaxFeedRate > 0 {
		j.xyFeed = a.MaxFeedRate
	}
	if a, ok := model.Axis(machine.AxisZ); ok && a.MaxFeedRate > 0 {
		j.zFeed = a.MaxFeedRate
	}
	return j
}

// Axes returns the jog-able axes in canonical order.
func (j *JogPanel) Axes() []machine.AxisID {
	j.mx.Lock()
	defer j.mx.Unlock()
	ids := make([]machine.AxisID, len(j.axes))
	for i, a := range j.axes {
		ids[i] = a.ID
	}
	return ids
}

func (j *JogPanel) Step() float64 {
	j.mx.Lock()
	defer j.mx.Unlock()
	return j.step
}

// SetStep selects one of StepSizes.
func (j *JogPanel) SetStep(step float64) error {
	valid := false
	for _, s := range StepSizes {
		if s == step {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %g", ErrInvalidStep, step)
	}
	j.mx.Lock()
	j.step = step
	j.mx.Unlock()
	j.changed()
	return nil
}

func (j *JogPanel) FeedRates() (xy, z float64) {
	j.mx.Lock()
	defer j.mx.Unlock()
	return j.xyFeed, j.zFeed
}

func (j *JogPanel) SetFeedRates(xy, z float64) error {
	if xy <= 0 || z <= 0 {
		return ErrInvalidFeedRate
	}
	j.mx.Lock()
	j.xyFeed, j.zFeed = xy, z
	j.mx.Unlock()
	j.changed()
	return nil
}

func (j *JogPanel) axis(id machine.AxisID) (machine.AxisModel, bool) {
	for _, a := range j.axes {
		if a.ID == id {
			return a, true
		}
	}
	return machine.AxisModel{}, false
}

// feedRate must be called with mx held. Rotary axes use their own limit.
func (j *JogPanel) feedRate(a machine.AxisModel) float64 {
	switch a.ID {
	case machine.AxisX, machine.AxisY:
		return j.xyFeed
	case machine.AxisZ:
		return j.zFeed
	}
	if a.MaxFeedRate > 0 {
		return a.MaxFeedRate
	}
	return j.xyFeed
}

// Jog moves axis one step in dir.
func (j *JogPanel) Jog(axis machine.AxisID, dir machine.Direction) error {
	j.mx.Lock()
	a, ok := j.axis(axis)
	if !ok {
		j.mx.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAxis, axis)
	}
	cmd := machine.Jog{
		Axis:     axis,
		Distance: float64(dir) * j.step,
		FeedRate: j.feedRate(a),
	}
	j.mx.Unlock()

	if err := j.m.RunCommand(cmd); err != nil {
		return err
	}
	j.changed()
	return nil
}

// Zero makes the current position of axis its origin.
func (j *JogPanel) Zero(axis machine.AxisID) error {
	j.mx.Lock()
	_, ok := j.axis(axis)
	j.mx.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAxis, axis)
	}
	if err := j.m.RunCommand(machine.SetPosition{Axes: map[machine.AxisID]float64{axis: 0}}); err != nil {
		return err
	}
	j.changed()
	return nil
}

// Position returns the displayed position of axis.
func (j *JogPanel) Position(axis machine.AxisID) string {
	j.mx.Lock()
	defer j.mx.Unlock()
	return j.positions[axis]
}

func (j *JogPanel) UpdateStatus(model machine.Model) {
	j.mx.Lock()
	defer j.mx.Unlock()
	for _, a := range j.axes {
		if !model.PositionValid {
			j.positions[a.ID] = Unknown
			continue
		}
		v, _ := model.Position.Axis(byte(a.ID))
		j.positions[a.ID] = strconv.FormatFloat(v, 'f', 3, 64)
	}
}
