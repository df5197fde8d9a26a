package gcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	b, err := ParseLine("g1 x10 y-2.5 f3000 ; move\n")
	assert.NoError(t, err)
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 10}, {W: 'Y', Arg: -2.5}, {W: 'F', Arg: 3000}}, b)

	b, err = ParseLine("M104 S210 T1 (heat second head)")
	assert.NoError(t, err)
	assert.Equal(t, "M104 S210 T1", b.String())

	b, err = ParseLine("   ; only a comment")
	assert.NoError(t, err)
	assert.Nil(t, b)

	_, err = ParseLine("G1 X")
	assert.Error(t, err)
}

func TestReadProgram(t *testing.T) {
	prog, err := ReadProgram(strings.NewReader("G91\n\n; lift\nG1 Z0.1\nG90"))
	assert.NoError(t, err)
	assert.Len(t, prog, 3)
	assert.Equal(t, []string{"G91\n", "G1 Z0.1\n", "G90\n"}, Lines(prog))

	prog, err = ParseProgram("G90\n(home first)\nG1 X\nG28\n")
	assert.EqualError(t, err, "line 3: invalid or unhandled line: G1X")
	assert.Nil(t, prog)

	prog, err = ParseProgram("")
	assert.NoError(t, err)
	assert.Empty(t, prog)
}
