package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/store"
	"github.com/ayusman/posetris/internal/tetris"
)

func TestDefault(t *testing.T) {
	entries := Default()
	require.Len(t, entries, 19)
	assert.Equal(t, "I_0", entries[0].ID)
	assert.Equal(t, "Z_90", entries[len(entries)-1].ID)

	c, err := Build(entries)
	require.NoError(t, err)
	assert.Equal(t, 19, c.Len())

	i0, ok := c.Get("I_0")
	require.True(t, ok)
	assert.True(t, i0.Shape.Equal(tetris.ParseShape([][]int{{1, 1, 1, 1}})))
	assert.Equal(t, 90.0, i0.Angles[pose.RightBody])
	assert.Equal(t, 270.0, i0.Angles[pose.LeftBody])
	assert.Equal(t, tetris.Empty, i0.Color)
	assert.Equal(t, "I Block 0°", i0.Name)

	for _, tpl := range c.Templates() {
		assert.Len(t, tpl.Angles, 6, "template %s", tpl.ID)
		assert.Equal(t, 4, tpl.Shape.Cells(), "template %s", tpl.ID)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
templates:
  - id: X
    shape: [[1]]
    angles: {right_arm: 10}
    extra: true
`,
		"unknown limb": `
templates:
  - id: X
    shape: [[1]]
    angles: {tail: 10}
`,
		"angle out of range": `
templates:
  - id: X
    shape: [[1]]
    angles: {right_arm: 360}
`,
		"ragged shape": `
templates:
  - id: X
    shape: [[1, 1], [1]]
    angles: {right_arm: 10}
`,
		"empty shape": `
templates:
  - id: X
    shape: [[0, 0]]
    angles: {right_arm: 10}
`,
		"bad cell": `
templates:
  - id: X
    shape: [[2]]
    angles: {right_arm: 10}
`,
		"unknown color": `
templates:
  - id: X
    shape: [[1]]
    angles: {right_arm: 10}
    color: magenta
`,
		"missing id": `
templates:
  - shape: [[1]]
    angles: {right_arm: 10}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("templates:\n  - id: X\n    shape: [[1]]\n    angles: {tail: 1}\n"))
	assert.True(t, errors.Is(err, ErrInvalidTemplate))
}

func TestParse_Color(t *testing.T) {
	entries, err := Parse([]byte(`
templates:
  - id: dot
    name: Dot
    shape: [[1]]
    angles: {right_arm: 10, left_arm: 20}
    color: purple
`))
	require.NoError(t, err)

	tpl, err := entries[0].Template()
	require.NoError(t, err)
	assert.Equal(t, tetris.Purple, tpl.Color)
	assert.Len(t, tpl.Angles, 2)
}

func TestEncode_RoundTrip(t *testing.T) {
	entries := Default()

	data, err := Encode(entries)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, entries, parsed)
}

func TestFromTemplate(t *testing.T) {
	c, err := Build(Default())
	require.NoError(t, err)

	tpl, _ := c.Get("T_0")
	e := FromTemplate(tpl)

	back, err := e.Template()
	require.NoError(t, err)
	assert.Equal(t, tpl, back)
}

func TestMerge(t *testing.T) {
	a := []Entry{{ID: "one", Name: "a1"}, {ID: "two", Name: "a2"}}
	b := []Entry{{ID: "three", Name: "b3"}, {ID: "one", Name: "b1"}}

	merged := Merge(a, b)

	require.Len(t, merged, 3)
	assert.Equal(t, "b1", merged[0].Name, "override keeps position")
	assert.Equal(t, "a2", merged[1].Name)
	assert.Equal(t, "b3", merged[2].Name)
}

func TestBuild_Duplicate(t *testing.T) {
	e := Default()[0]
	_, err := Build([]Entry{e, e})
	assert.True(t, errors.Is(err, ErrInvalidTemplate))
}

type fakeLister []*store.Template

func (f fakeLister) List() ([]*store.Template, error) { return f, nil }

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - id: I_0
    name: Flat I
    shape: [[1, 1, 1, 1]]
    angles: {right_arm: 170, left_arm: 190, right_leg: 180, left_leg: 180, right_body: 90, left_body: 270}
    color: cyan
  - id: dot
    shape: [[1]]
    angles: {right_arm: 10}
`), 0o644))

	l := &Loader{
		Path: path,
		Stored: fakeLister{
			{ID: "rec-1", Name: "recorded", Shape: [][]int{{1, 1}}, Angles: map[string]float64{"left_arm": 45}},
			{ID: "rec-2", Name: "untrained", Shape: [][]int{{1}}},
		},
	}

	c, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 21, c.Len())
	i0 := c.At(0)
	assert.Equal(t, "Flat I", i0.Name)
	assert.Equal(t, tetris.Cyan, i0.Color)
	assert.Equal(t, "dot", c.At(19).ID)
	assert.Equal(t, "rec-1", c.At(20).ID)
	_, ok := c.Get("rec-2")
	assert.False(t, ok, "untrained templates are not playable")
}

func TestLoader_MissingFile(t *testing.T) {
	l := &Loader{Path: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := l.Load()
	assert.Error(t, err)
}
