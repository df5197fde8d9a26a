package machine

import (
	"fmt"
	"strings"
)

// AxisID names a machine axis.
type AxisID byte

const (
	AxisX AxisID = 'X'
	AxisY AxisID = 'Y'
	AxisZ AxisID = 'Z'
	AxisA AxisID = 'A'
	AxisB AxisID = 'B'
)

// Axes lists every axis in canonical order.
var Axes = []AxisID{AxisX, AxisY, AxisZ, AxisA, AxisB}

func (a AxisID) String() string { return string(a) }

// Valid returns true for the five known axes.
func (a AxisID) Valid() bool {
	switch a {
	case AxisX, AxisY, AxisZ, AxisA, AxisB:
		return true
	}
	return false
}

// ParseAxis accepts an axis letter in either case.
func ParseAxis(s string) (AxisID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || !AxisID(s[0]).Valid() {
		return 0, fmt.Errorf("unknown axis %q", s)
	}
	return AxisID(s[0]), nil
}

func (a AxisID) MarshalText() ([]byte, error) {
	return []byte{byte(a)}, nil
}

func (a *AxisID) UnmarshalText(data []byte) error {
	id, err := ParseAxis(string(data))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// Direction is the sign of a linear move.
type Direction int

const (
	Negative Direction = -1
	Positive Direction = 1
)

func (d Direction) String() string {
	if d == Positive {
		return "+"
	}
	return "-"
}

// Endstops describes the limit switches fitted to an axis.
type Endstops struct {
	HasMin bool `yaml:"min" json:"min"`
	HasMax bool `yaml:"max" json:"max"`
}
