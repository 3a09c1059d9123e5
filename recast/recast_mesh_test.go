package recast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navcore/common"
)

// gridVerts lays out (x, z) pairs at y = 0 with the stride triangulate uses.
func gridVerts(xz ...int) []int {
	verts := make([]int, 0, len(xz)*2)
	for i := 0; i < len(xz); i += 2 {
		verts = append(verts, xz[i], 0, xz[i+1], 0)
	}
	return verts
}

func TestTriangulateCollinearOutline(t *testing.T) {
	// No strict ear exists; the loose diagonal test still splits it.
	verts := gridVerts(0, 0, 0, 1, 0, 2, 0, 3)
	indices := []int{0, 1, 2, 3}
	tris := make([]int, 4*3)
	ntris := triangulate(4, verts, indices, tris)
	require.Equal(t, 2, ntris)
	assert.Equal(t, []int{0, 1, 2}, tris[:3])
	assert.Equal(t, []int{0, 2, 3}, tris[3:6])
}

func TestTriangulateInvertedOutline(t *testing.T) {
	// A square wound the wrong way with one notch. The notch is the only
	// ear; what remains has no diagonal even under the loose test.
	verts := gridVerts(0, 0, 2, 2, 4, 0, 4, 4, 0, 4)
	indices := []int{0, 1, 2, 3, 4}
	tris := make([]int, 5*3)
	ntris := triangulate(5, verts, indices, tris)
	assert.Equal(t, -1, ntris)
	assert.Equal(t, []int{0, 1, 2}, tris[:3])

	// Nothing clipped at all reports zero.
	verts = gridVerts(0, 0, 4, 0, 4, 4, 0, 4)
	indices = []int{0, 1, 2, 3}
	assert.Equal(t, 0, triangulate(4, verts, indices, make([]int, 4*3)))
}

// testPolyMesh builds a mesh from grid vertices (x, z at y = 0) and
// polygons given as vertex index lists. Every polygon gets region 1.
func testPolyMesh(nvp int, xz []int, polys ...[]int) *RcPolyMesh {
	maxPolys := len(polys) * 4
	mesh := &RcPolyMesh{
		Polys:    make([]int, maxPolys*nvp*2),
		Regs:     make([]int, maxPolys),
		Areas:    make([]int, maxPolys),
		Flags:    make([]int, maxPolys),
		Nverts:   len(xz) / 2,
		Npolys:   len(polys),
		Maxpolys: maxPolys,
		Nvp:      nvp,
	}
	for i := 0; i < len(xz); i += 2 {
		mesh.Verts = append(mesh.Verts, xz[i], 0, xz[i+1])
	}
	for i := range mesh.Polys {
		mesh.Polys[i] = RC_MESH_NULL_IDX
	}
	for i, p := range polys {
		copy(mesh.Poly(i), p)
		mesh.Regs[i] = 1
		mesh.Areas[i] = RC_WALKABLE_AREA
	}
	return mesh
}

func polyArea2(mesh *RcPolyMesh, i int) int {
	p := mesh.Poly(i)
	nv := mesh.PolyVertCount(i)
	area := 0
	for j := 2; j < nv; j++ {
		area += common.Area2(common.GetVert3(mesh.Verts, p[0]), common.GetVert3(mesh.Verts, p[j-1]), common.GetVert3(mesh.Verts, p[j]))
	}
	return area
}

func TestCanRemoveVertex(t *testing.T) {
	t.Run("border vertex between two polygons", func(t *testing.T) {
		mesh := testPolyMesh(6,
			[]int{0, 0, 0, 4, 2, 4, 2, 0, 4, 4, 4, 0},
			[]int{0, 1, 2, 3},
			[]int{3, 2, 4, 5},
		)
		assert.True(t, canRemoveVertex(mesh, 3))
	})

	t.Run("tip of a lone triangle", func(t *testing.T) {
		// Only one edge would be left.
		mesh := testPolyMesh(6, []int{0, 0, 0, 4, 4, 0}, []int{0, 1, 2})
		assert.False(t, canRemoveVertex(mesh, 1))
	})

	t.Run("vertex shared by polygons without a common edge", func(t *testing.T) {
		// Four open edges meet at the shared corner.
		mesh := testPolyMesh(6,
			[]int{0, 0, 0, 2, 2, 2, 2, 0, 2, 4, 4, 4, 4, 2},
			[]int{0, 1, 2, 3},
			[]int{2, 4, 5, 6},
		)
		assert.False(t, canRemoveVertex(mesh, 2))
	})
}

func TestRemoveVertex(t *testing.T) {
	mesh := testPolyMesh(6,
		[]int{0, 0, 0, 4, 2, 4, 2, 0, 4, 4, 4, 0},
		[]int{0, 1, 2, 3},
		[]int{3, 2, 4, 5},
	)
	area := polyArea2(mesh, 0) + polyArea2(mesh, 1)
	require.True(t, canRemoveVertex(mesh, 3))
	require.NoError(t, removeVertex(NewRcContext(nil), mesh, 3, mesh.Maxpolys))

	assert.Equal(t, 5, mesh.Nverts)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 4, 2, 0, 4, 4, 0, 4, 4, 0, 0}, mesh.Verts[:mesh.Nverts*3])
	require.Positive(t, mesh.Npolys)

	// The hole is filled again: same footprint, no dangling indices.
	filled := 0
	used := map[int]bool{}
	for i := 0; i < mesh.Npolys; i++ {
		nv := mesh.PolyVertCount(i)
		require.GreaterOrEqual(t, nv, 3)
		for _, v := range mesh.Poly(i)[:nv] {
			require.Less(t, v, mesh.Nverts)
			used[v] = true
		}
		filled += polyArea2(mesh, i)
		assert.Equal(t, 1, mesh.Regs[i])
		assert.Equal(t, RC_WALKABLE_AREA, mesh.Areas[i])
	}
	assert.Equal(t, area, filled)
	assert.Len(t, used, 5)
	assertConvexPolys(t, mesh)
}
