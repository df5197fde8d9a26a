package machine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes the physical layout of a machine.
type Profile struct {
	Name  string        `yaml:"name"`
	Axes  []AxisProfile `yaml:"axes"`
	Tools []ToolProfile `yaml:"tools"`
}

type AxisProfile struct {
	ID          AxisID   `yaml:"id"`
	Length      float64  `yaml:"length"`
	MaxFeedRate float64  `yaml:"maxFeedRate"`
	Endstops    Endstops `yaml:"endstops"`
}

type ToolProfile struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
}

// DefaultProfile is a single extruder cartesian printer with minimum
// endstops on X, Y and Z.
func DefaultProfile() Profile {
	return Profile{
		Name: "Generic RepRap",
		Axes: []AxisProfile{
			{ID: AxisX, Length: 200, MaxFeedRate: 5000, Endstops: Endstops{HasMin: true}},
			{ID: AxisY, Length: 200, MaxFeedRate: 5000, Endstops: Endstops{HasMin: true}},
			{ID: AxisZ, Length: 140, MaxFeedRate: 200, Endstops: Endstops{HasMin: true}},
		},
		Tools: []ToolProfile{
			{Index: 0, Name: "Extruder", Type: ToolExtruder},
		},
	}
}

// LoadProfile reads a YAML machine profile.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	for i := range p.Tools {
		if p.Tools[i].Type == "" {
			p.Tools[i].Type = ToolExtruder
		}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) Validate() error {
	if len(p.Axes) == 0 {
		return errors.New("profile has no axes")
	}
	seen := make(map[AxisID]bool)
	for _, a := range p.Axes {
		if !a.ID.Valid() {
			return fmt.Errorf("invalid axis %q", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("axis %s declared twice", a.ID)
		}
		seen[a.ID] = true
	}
	tools := make(map[int]bool)
	for _, t := range p.Tools {
		if tools[t.Index] {
			return fmt.Errorf("tool index %d declared twice", t.Index)
		}
		tools[t.Index] = true
	}
	return nil
}

// Model builds the initial model for the profile. Axes are reordered
// canonically.
func (p Profile) Model() Model {
	m := Model{Name: p.Name}
	for _, id := range Axes {
		for _, a := range p.Axes {
			if a.ID != id {
				continue
			}
			m.Axes = append(m.Axes, AxisModel{
				ID:          a.ID,
				Length:      a.Length,
				MaxFeedRate: a.MaxFeedRate,
				Endstops:    a.Endstops,
			})
		}
	}
	for _, t := range p.Tools {
		m.Tools = append(m.Tools, ToolModel{Index: t.Index, Name: t.Name, Type: t.Type})
	}
	if len(m.Tools) > 0 {
		m.CurrentTool = m.Tools[0].Index
	}
	return m
}
