package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocksReader(t *testing.T) {
	home := Block{{W: 'G', Arg: 162}, {W: 'Z', Arg: 0}}
	heat := Block{{W: 'M', Arg: 104}, {W: 'S', Arg: 205}, {W: 'T', Arg: 1}}
	r := &BlocksReader{Blocks: []Block{home, heat}}

	var got []Block
	for {
		b, err := r.Read()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, []Block{home, heat}, got)

	// stays at the end
	_, err := r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestLines(t *testing.T) {
	lines := Lines([]Block{
		{{W: 'G', Arg: 91}},
		{{W: 'G', Arg: 1}, {W: 'X', Arg: -0.05}, {W: 'F', Arg: 5000}},
	})
	assert.Equal(t, []string{"G91\n", "G1 X-0.05 F5000\n"}, lines)
	assert.Empty(t, Lines(nil))
}
