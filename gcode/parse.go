package gcode

import (
	"io"
	"strings"
)

// ReadProgram parses every block of a program. Blank and comment-only lines
// are dropped and the first bad line fails the whole program.
func ReadProgram(r io.Reader) ([]Block, error) {
	pr := NewParser(r)
	var prog []Block
	for {
		b, err := pr.Read()
		if err == io.EOF {
			return prog, nil
		}
		if err != nil {
			return nil, err
		}
		prog = append(prog, b)
	}
}

func ParseProgram(s string) ([]Block, error) {
	return ReadProgram(strings.NewReader(s))
}
