package reprap

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mastercactapus/gpanel/coord"
	"github.com/mastercactapus/gpanel/machine"
)

var (
	rxTemp = regexp.MustCompile(`\b(T\d*|B):\s*(-?[0-9.]+)(?:\s*/\s*(-?[0-9.]+))?`)
	rxAxis = regexp.MustCompile(`\b([XYZAB]):\s*(-?[0-9.]+)`)
	rxTool = regexp.MustCompile(`\bT\d*:`)
)

func parseTemperature(cur, target string) (t machine.Temperature, err error) {
	t.Current, err = strconv.ParseFloat(cur, 64)
	if err != nil {
		return t, err
	}
	if target != "" {
		t.Target, err = strconv.ParseFloat(target, 64)
	}
	return t, err
}

// parseTemperatures handles M105 style reports, e.g.
//
//	ok T:201.3 /210.0 B:60.1 /60.0 T0:201.3 /210.0 T1:25.0 /0.0 @:0
//
// When indexed tools are present the bare T entry (a copy of the current
// tool) is dropped.
func parseTemperatures(data string) ([]machine.ToolTemperature, *machine.Temperature, error) {
	var (
		bare     *machine.ToolTemperature
		indexed  []machine.ToolTemperature
		platform *machine.Temperature
	)
	for _, m := range rxTemp.FindAllStringSubmatch(data, -1) {
		t, err := parseTemperature(m[2], m[3])
		if err != nil {
			return nil, nil, err
		}
		switch {
		case m[1] == "B":
			platform = &t
		case m[1] == "T":
			bare = &machine.ToolTemperature{Tool: -1, Temperature: t}
		default:
			idx, err := strconv.Atoi(m[1][1:])
			if err != nil {
				return nil, nil, err
			}
			indexed = append(indexed, machine.ToolTemperature{Tool: idx, Temperature: t})
		}
	}
	if len(indexed) == 0 && bare != nil {
		indexed = append(indexed, *bare)
	}
	return indexed, platform, nil
}

// parsePosition handles M114 reports, e.g.
//
//	X:10.00 Y:0.00 Z:0.00 E:0.00 Count X: 0.00 Y:0.00 Z:0.00
//
// Only the part before "Count" is the logical position.
func parsePosition(data string) (*coord.Point, error) {
	if i := strings.Index(data, "Count"); i >= 0 {
		data = data[:i]
	}
	var (
		p    coord.Point
		seen int
	)
	for _, m := range rxAxis.FindAllStringSubmatch(data, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, err
		}
		p = p.WithAxis(m[1][0], v)
		switch m[1][0] {
		case 'X', 'Y', 'Z':
			seen++
		}
	}
	if seen < 3 {
		return nil, nil
	}
	return &p, nil
}

// parseLine turns one firmware line into a report. Lines without status
// information return nil.
func parseLine(data string) (*machine.Report, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	if data == "start" {
		return &machine.Report{Reset: true}, nil
	}

	// B is both the platform heater and the fifth axis, so a line with
	// an X position is never a temperature report.
	hasX := strings.Contains(data, "X:")
	switch {
	case rxTool.MatchString(data) || (!hasX && strings.Contains(data, "B:")):
		temps, platform, err := parseTemperatures(data)
		if err != nil || (len(temps) == 0 && platform == nil) {
			return nil, err
		}
		return &machine.Report{Temperatures: temps, Platform: platform}, nil
	case hasX:
		p, err := parsePosition(data)
		if err != nil || p == nil {
			return nil, err
		}
		return &machine.Report{Position: p}, nil
	}
	return nil, nil
}
