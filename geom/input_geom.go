package geom

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gorustyt/navcore/common"
	"github.com/gorustyt/navcore/recast"
)

var ErrBadGeometry = errors.New("geom: bad input geometry")

// InputGeom is an indexed triangle mesh used as build input.
type InputGeom struct {
	Name  string
	Verts []float64 // x, y, z per vertex
	Tris  []int     // three vertex indices per triangle

	bmin [3]float64
	bmax [3]float64
}

// NewInputGeom wraps vertex and index arrays. The arrays are not copied.
func NewInputGeom(verts []float64, tris []int) (*InputGeom, error) {
	if len(verts)%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertex components", ErrBadGeometry, len(verts))
	}
	if len(tris)%3 != 0 {
		return nil, fmt.Errorf("%w: %d triangle indices", ErrBadGeometry, len(tris))
	}
	nverts := len(verts) / 3
	for i, t := range tris {
		if t < 0 || t >= nverts {
			return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrBadGeometry, i/3, t, nverts)
		}
	}
	g := &InputGeom{Verts: verts, Tris: tris}
	g.calcBounds()
	return g, nil
}

// FromTriangles builds an InputGeom from a triangle soup. Shared corners are
// not welded.
func FromTriangles(tris [][3]mgl32.Vec3) *InputGeom {
	g := &InputGeom{
		Verts: make([]float64, 0, len(tris)*9),
		Tris:  make([]int, 0, len(tris)*3),
	}
	for i, t := range tris {
		for _, v := range t {
			g.Verts = append(g.Verts, float64(v[0]), float64(v[1]), float64(v[2]))
		}
		g.Tris = append(g.Tris, i*3, i*3+1, i*3+2)
	}
	g.calcBounds()
	return g
}

func (g *InputGeom) calcBounds() {
	g.bmin, g.bmax = [3]float64{}, [3]float64{}
	recast.RcCalcBounds(g.Verts, g.VertCount(), g.bmin[:], g.bmax[:])
}

func (g *InputGeom) VertCount() int { return len(g.Verts) / 3 }
func (g *InputGeom) TriCount() int  { return len(g.Tris) / 3 }
func (g *InputGeom) Empty() bool    { return g.TriCount() == 0 }

// Bounds returns the axis aligned bounds of all vertices.
func (g *InputGeom) Bounds() (bmin, bmax [3]float64) {
	return g.bmin, g.bmax
}

// Vert returns vertex i.
func (g *InputGeom) Vert(i int) []float64 {
	return common.GetVert3(g.Verts, i)
}
