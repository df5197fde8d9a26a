package machine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const dualProfile = `
name: Dual Head
axes:
  - id: z
    length: 150
    maxFeedRate: 300
    endstops: {max: true}
  - id: X
    length: 220
    maxFeedRate: 6000
    endstops: {min: true}
  - id: Y
    length: 220
    maxFeedRate: 6000
    endstops: {min: true, max: true}
tools:
  - index: 0
    name: Left
    type: extruder
  - index: 1
    name: Right
  - index: 2
    name: Router
    type: spindle
`

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(dualProfile))
	assert.NoError(t, err)
	assert.Equal(t, "Dual Head", p.Name)
	assert.Equal(t, AxisZ, p.Axes[0].ID)
	assert.Equal(t, Endstops{HasMax: true}, p.Axes[0].Endstops)

	m := p.Model()
	// canonical order
	assert.Equal(t, AxisX, m.Axes[0].ID)
	assert.Equal(t, AxisY, m.Axes[1].ID)
	assert.Equal(t, AxisZ, m.Axes[2].ID)
	assert.Len(t, m.Tools, 3)
	assert.Equal(t, 0, m.CurrentTool)
	assert.Equal(t, ToolExtruder, m.Tools[1].Type)
	assert.Equal(t, "spindle", m.Tools[2].Type)
}

func TestParseProfile_Invalid(t *testing.T) {
	_, err := ParseProfile([]byte("name: x\naxes: []\n"))
	assert.Error(t, err)

	_, err = ParseProfile([]byte("axes:\n  - id: Q\n"))
	assert.Error(t, err)

	_, err = ParseProfile([]byte("axes:\n  - id: X\n  - id: x\n"))
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "dual.yaml")
	assert.NoError(t, os.WriteFile(name, []byte(dualProfile), 0644))

	p, err := LoadProfile(name)
	assert.NoError(t, err)
	assert.Len(t, p.Tools, 3)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
