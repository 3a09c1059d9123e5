package geom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadObj = `# unit quad
v 0 0 0
v 0 0 2
v 2 1 2
v 2 0 0
vn 0 1 0
vt 0 0
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestParseObj(t *testing.T) {
	g, err := ParseObj(strings.NewReader(quadObj), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, g.VertCount())
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, g.Tris)

	bmin, bmax := g.Bounds()
	assert.Equal(t, [3]float64{0, 0, 0}, bmin)
	assert.Equal(t, [3]float64{2, 1, 2}, bmax)
}

func TestParseObjNegativeIndicesAndScale(t *testing.T) {
	data := "v 1 0 0\nv 0 0 1\nv 1 0 1\nf -3 -2 -1\n"
	g, err := ParseObj(strings.NewReader(data), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, g.Tris)
	assert.Equal(t, []float64{2, 0, 0}, g.Vert(0))
}

func TestParseObjSkipsOutOfRangeFaces(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 1 0 1\nf 1 2 3\nf 1 2 9\n"
	g, err := ParseObj(strings.NewReader(data), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, g.TriCount())
}

func TestParseObjErrors(t *testing.T) {
	_, err := ParseObj(strings.NewReader("v 0 0\n"), 1)
	assert.ErrorIs(t, err, ErrBadGeometry)

	_, err = ParseObj(strings.NewReader("v 0 0 zero\n"), 1)
	assert.ErrorIs(t, err, ErrBadGeometry)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadObj(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadObj), 0o644))
	g, err := LoadObj(path, 1)
	require.NoError(t, err)
	assert.Equal(t, "quad.obj", g.Name)
	assert.Equal(t, 2, g.TriCount())

	_, err = LoadObj(filepath.Join(t.TempDir(), "missing.obj"), 1)
	assert.Error(t, err)
}

func TestNewInputGeom(t *testing.T) {
	g, err := NewInputGeom([]float64{0, 0, 0, 1, 0, 0, 0, 0, 1}, []int{0, 2, 1})
	require.NoError(t, err)
	assert.False(t, g.Empty())

	_, err = NewInputGeom([]float64{0, 0}, nil)
	assert.ErrorIs(t, err, ErrBadGeometry)
	_, err = NewInputGeom([]float64{0, 0, 0}, []int{0, 0, 1})
	assert.ErrorIs(t, err, ErrBadGeometry)
	_, err = NewInputGeom([]float64{0, 0, 0}, []int{0, 0})
	assert.ErrorIs(t, err, ErrBadGeometry)

	empty, err := NewInputGeom(nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestFromTriangles(t *testing.T) {
	g := FromTriangles([][3]mgl32.Vec3{
		{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}},
		{{1, 0, 0}, {0, 0, 1}, {1, 3, 1}},
	})
	assert.Equal(t, 6, g.VertCount())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, g.Tris)
	_, bmax := g.Bounds()
	assert.Equal(t, [3]float64{1, 3, 1}, bmax)
}
