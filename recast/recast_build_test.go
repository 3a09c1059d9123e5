package recast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/eapache/queue.v1"

	"github.com/gorustyt/navcore/common"
)

type testGeom struct {
	verts []float64
	tris  []int
}

// addQuad appends an upward facing axis aligned quad at height y.
func (g *testGeom) addQuad(x0, z0, x1, z1, y float64) {
	base := len(g.verts) / 3
	g.verts = append(g.verts,
		x0, y, z0,
		x1, y, z0,
		x1, y, z1,
		x0, y, z1,
	)
	g.tris = append(g.tris, base, base+3, base+1, base+1, base+3, base+2)
}

func testConfig(radius int) RcConfig {
	return RcConfig{
		Cs:                     0.3,
		Ch:                     0.2,
		WalkableSlopeAngle:     45,
		WalkableHeight:         10,
		WalkableClimb:          4,
		WalkableRadius:         radius,
		MaxEdgeLen:             40,
		MaxSimplificationError: 1.3,
		MinRegionArea:          64,
		MergeRegionArea:        400,
		MaxVertsPerPoly:        6,
		DetailSampleDist:       1.8,
		DetailSampleMaxError:   0.2,
		BuildFlags:             RC_CONTOUR_TESS_WALL_EDGES | RC_CONTOUR_TESS_AREA_EDGES,
	}
}

func allFilters() RcBuildFilters {
	return RcBuildFilters{LowHangingObstacles: true, LedgeSpans: true, WalkableLowHeightSpans: true}
}

func buildGeom(t *testing.T, g *testGeom, cfg RcConfig) (*RcBuildResult, *RcContext) {
	t.Helper()
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(g.verts, len(g.verts)/3, bmin, bmax)
	cfg.SetBounds(bmin, bmax)
	ctx := NewRcContext(nil)
	res, err := RcBuild(ctx, cfg, allFilters(), g.verts, g.tris, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Pmesh)
	require.NotNil(t, res.Dmesh)
	return res, ctx
}

func assertConvexPolys(t *testing.T, mesh *RcPolyMesh) {
	t.Helper()
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := mesh.PolyVertCount(i)
		require.GreaterOrEqual(t, nv, 3)
		require.LessOrEqual(t, nv, mesh.Nvp)
		pos, neg := 0, 0
		for j := 0; j < nv; j++ {
			a := common.GetVert3(mesh.Verts, p[j])
			b := common.GetVert3(mesh.Verts, p[(j+1)%nv])
			c := common.GetVert3(mesh.Verts, p[(j+2)%nv])
			switch area := common.Area2(a, b, c); {
			case area > 0:
				pos++
			case area < 0:
				neg++
			}
		}
		assert.False(t, pos > 0 && neg > 0, "poly %d is not convex", i)
	}
}

func assertSymmetricAdjacency(t *testing.T, mesh *RcPolyMesh) {
	t.Helper()
	nvp := mesh.Nvp
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := mesh.PolyVertCount(i)
		for j := 0; j < nv; j++ {
			nei := p[nvp+j]
			if nei == RC_MESH_NULL_IDX || nei&0x8000 != 0 {
				continue
			}
			require.Less(t, nei, mesh.Npolys)
			va, vb := p[j], p[(j+1)%nv]
			q := mesh.Poly(nei)
			qn := mesh.PolyVertCount(nei)
			found := false
			for k := 0; k < qn; k++ {
				if q[nvp+k] == i && q[k] == vb && q[(k+1)%qn] == va {
					found = true
				}
			}
			assert.True(t, found, "poly %d edge %d links to %d without a reverse link", i, j, nei)
		}
	}
}

// polyComponents counts the groups of polygons connected through shared edges.
func polyComponents(mesh *RcPolyMesh) int {
	seen := make([]bool, mesh.Npolys)
	components := 0
	for start := 0; start < mesh.Npolys; start++ {
		if seen[start] {
			continue
		}
		components++
		seen[start] = true
		q := queue.New()
		q.Add(start)
		for q.Length() > 0 {
			i := q.Remove().(int)
			p := mesh.Poly(i)
			for j := 0; j < mesh.PolyVertCount(i); j++ {
				nei := p[mesh.Nvp+j]
				if nei == RC_MESH_NULL_IDX || nei&0x8000 != 0 || seen[nei] {
					continue
				}
				seen[nei] = true
				q.Add(nei)
			}
		}
	}
	return components
}

func TestBuildFlatQuad(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 20, 20, 0)

	res, ctx := buildGeom(t, g, testConfig(1))
	assert.Equal(t, 1, res.Chf.MaxRegions)
	require.Len(t, res.Cset.Valid(), 1)

	mesh := res.Pmesh
	assert.GreaterOrEqual(t, mesh.Npolys, 1)
	assert.LessOrEqual(t, mesh.Npolys, 6)
	assert.Len(t, mesh.Polys, mesh.Npolys*mesh.Nvp*2)
	assert.Len(t, mesh.Areas, mesh.Npolys)
	assert.Len(t, mesh.Flags, mesh.Npolys)
	assertConvexPolys(t, mesh)
	assertSymmetricAdjacency(t, mesh)
	assert.Equal(t, 1, polyComponents(mesh))
	for i := 0; i < mesh.Npolys; i++ {
		assert.Equal(t, RC_WALKABLE_AREA, mesh.Areas[i])
		assert.Equal(t, 1, mesh.Regs[i])
	}

	// The eroded footprint stays inside the input quad.
	for i := 0; i < mesh.Nverts; i++ {
		v := common.GetVert3(mesh.Verts, i)
		x := mesh.Bmin[0] + float64(v[0])*mesh.Cs
		z := mesh.Bmin[2] + float64(v[2])*mesh.Cs
		assert.True(t, x > 0 && x < 20, "x %v", x)
		assert.True(t, z > 0 && z < 20, "z %v", z)
	}

	assert.Equal(t, mesh.Npolys, res.Dmesh.Nmeshes)
	assert.NotEmpty(t, ctx.Timings())
}

// assertContourDeviation measures every raw vertex against the simplified
// segment that spans it. Portals between regions keep their traced shape.
func assertContourDeviation(t *testing.T, cont *RcContour, maxErr float64) {
	t.Helper()
	rawIndex := func(v []int) int {
		for k := 0; k < cont.Nrverts; k++ {
			if r := common.GetVert4(cont.Rverts, k); r[0] == v[0] && r[2] == v[2] {
				return k
			}
		}
		return -1
	}
	for j := 0; j < cont.Nverts; j++ {
		a := common.GetVert4(cont.Verts, j)
		b := common.GetVert4(cont.Verts, (j+1)%cont.Nverts)
		ia, ib := rawIndex(a), rawIndex(b)
		require.NotEqual(t, -1, ia, "vertex %d is not on the raw contour", j)
		require.NotEqual(t, -1, ib)
		if a[3]&RC_CONTOUR_REG_MASK != 0 && a[3]&RC_AREA_BORDER == 0 {
			continue
		}
		for k := (ia + 1) % cont.Nrverts; k != ib; k = (k + 1) % cont.Nrverts {
			r := common.GetVert4(cont.Rverts, k)
			d := common.DistancePtSeg2d(r[0], r[2], a[0], a[2], b[0], b[2])
			assert.LessOrEqual(t, d, maxErr*maxErr+1e-9, "raw vertex %d strays from segment %d", k, j)
		}
	}
}

func TestBuildContourDeviation(t *testing.T) {
	t.Run("wall outline", func(t *testing.T) {
		g := &testGeom{}
		g.addQuad(0, 0, 20, 20, 0)
		res, _ := buildGeom(t, g, testConfig(1))

		for _, cont := range res.Cset.Valid() {
			require.GreaterOrEqual(t, cont.Nrverts, cont.Nverts)
			assertContourDeviation(t, cont, res.Config.MaxSimplificationError)
			// Tessellated wall edges respect the edge length limit.
			for j := 0; j < cont.Nverts; j++ {
				a := common.GetVert4(cont.Verts, j)
				b := common.GetVert4(cont.Verts, (j+1)%cont.Nverts)
				dx, dz := b[0]-a[0], b[2]-a[2]
				assert.LessOrEqual(t, dx*dx+dz*dz, res.Config.MaxEdgeLen*res.Config.MaxEdgeLen)
			}
		}
	})

	t.Run("area transitions", func(t *testing.T) {
		g := &testGeom{}
		g.addQuad(0, 0, 20, 20, 0)
		cfg := testConfig(1)
		bmin := make([]float64, 3)
		bmax := make([]float64, 3)
		RcCalcBounds(g.verts, len(g.verts)/3, bmin, bmax)
		cfg.SetBounds(bmin, bmax)

		// A corner cut off along a diagonal, so the area border is a
		// staircase that has to be simplified.
		vol := RcConvexVolume{
			Verts: []float64{
				0, 0, 0,
				0, 0, 8,
				8, 0, 0,
			},
			Hmin: -1,
			Hmax: 1,
			Area: 5,
		}
		res, err := RcBuild(NewRcContext(nil), cfg, allFilters(), g.verts, g.tris, []RcConvexVolume{vol})
		require.NoError(t, err)

		transitions := 0
		for _, cont := range res.Cset.Valid() {
			for j := 0; j < cont.Nverts; j++ {
				if cont.Verts[j*4+3]&RC_AREA_BORDER != 0 {
					transitions++
				}
			}
			assertContourDeviation(t, cont, res.Config.MaxSimplificationError)
		}
		assert.Positive(t, transitions)
	})
}

func TestBuildCompactLinks(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 10, 4, 0)
	g.addQuad(0, 4, 4, 10, 0)
	// A step within climbing reach and a ledge beyond it.
	g.addQuad(4, 4, 7, 7, 0.6)
	g.addQuad(7, 4, 10, 7, 2)

	res, _ := buildGeom(t, g, testConfig(1))
	chf := res.Chf
	walkable := func(s, n RcCompactSpan) bool {
		gap := min(s.Y+s.H, n.Y+n.H) - max(s.Y, n.Y)
		return gap >= chf.WalkableHeight && common.Abs(n.Y-s.Y) <= chf.WalkableClimb
	}

	climbs := 0
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			c := chf.Cells[x+z*chf.Width]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					ni := chf.Neighbor(x, z, i, dir)
					if ni >= 0 {
						n := chf.Spans[ni]
						assert.True(t, walkable(s, n), "span %d links to %d in dir %d", i, ni, dir)
						if n.Y != s.Y {
							climbs++
						}
						continue
					}
					// Unlinked: nothing next door is reachable.
					nx, nz := x+common.GetDirOffsetX(dir), z+common.GetDirOffsetY(dir)
					if nx < 0 || nz < 0 || nx >= chf.Width || nz >= chf.Height {
						continue
					}
					nc := chf.Cells[nx+nz*chf.Width]
					for k := nc.Index; k < nc.Index+nc.Count; k++ {
						assert.False(t, walkable(s, chf.Spans[k]), "span %d misses a link to %d", i, k)
					}
				}
			}
		}
	}
	assert.Positive(t, climbs)
}

func TestBuildRemovesSmallIslands(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 10, 10, 0)
	g.addQuad(14, 0, 15.5, 1.5, 0)

	res, _ := buildGeom(t, g, testConfig(1))

	sizes := map[int]int{}
	for i := range res.Chf.Spans {
		if reg := res.Chf.Spans[i].Reg; reg != 0 && reg&RC_BORDER_REG == 0 {
			sizes[reg]++
		}
	}
	require.NotEmpty(t, sizes)
	for reg, n := range sizes {
		assert.GreaterOrEqual(t, n, res.Config.MinRegionArea, "region %d", reg)
	}
	// Nothing of the mesh reaches the island.
	mesh := res.Pmesh
	for i := 0; i < mesh.Nverts; i++ {
		x := mesh.Bmin[0] + float64(mesh.Verts[i*3])*mesh.Cs
		assert.Less(t, x, 10.5)
	}
}

func TestBuildErodedBridgeSplitsMesh(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 10, 10, 0)
	g.addQuad(20, 0, 30, 10, 0)
	g.addQuad(10, 4.55, 20, 5.45, 0)

	cfg := testConfig(2)
	res, _ := buildGeom(t, g, cfg)

	assert.GreaterOrEqual(t, res.Chf.MaxRegions, 2)
	assertConvexPolys(t, res.Pmesh)
	assertSymmetricAdjacency(t, res.Pmesh)
	assert.Equal(t, 2, polyComponents(res.Pmesh))
}

func TestBuildDeterministic(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 10, 10, 0)
	g.addQuad(20, 0, 30, 10, 0)
	g.addQuad(10, 4, 20, 6, 0)

	a, _ := buildGeom(t, g, testConfig(1))
	b, _ := buildGeom(t, g, testConfig(1))
	assert.Equal(t, a.Pmesh, b.Pmesh)
	assert.Equal(t, a.Dmesh, b.Dmesh)
}

func TestBuildBorderSizeFlagsPortals(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 20, 20, 0)
	cfg := testConfig(0)
	cfg.BorderSize = 3
	// The tile sits inside the geometry so the ground runs across its edges.
	cfg.SetBounds([]float64{5, -0.1, 5}, []float64{15, 0.1, 15})

	res, err := RcBuild(NewRcContext(nil), cfg, allFilters(), g.verts, g.tris, nil)
	require.NoError(t, err)
	mesh := res.Pmesh
	require.Positive(t, mesh.Npolys)
	assert.Equal(t, 3, mesh.BorderSize)

	portals := 0
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		for j := 0; j < mesh.PolyVertCount(i); j++ {
			if nei := p[mesh.Nvp+j]; nei != RC_MESH_NULL_IDX && nei&0x8000 != 0 {
				portals++
				assert.Less(t, nei&0xf, 4)
			}
		}
	}
	assert.Positive(t, portals)
}

func TestBuildEmptyGeometry(t *testing.T) {
	cfg := testConfig(1)
	cfg.SetBounds([]float64{0, 0, 0}, []float64{0, 0, 0})
	res, err := RcBuild(NewRcContext(nil), cfg, allFilters(), nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Pmesh.Npolys)
	assert.Zero(t, res.Dmesh.Nmeshes)
}

func TestBuildRejectsBadInput(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 5, 5, 0)
	cfg := testConfig(1)
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(g.verts, 4, bmin, bmax)
	cfg.SetBounds(bmin, bmax)

	_, err := RcBuild(NewRcContext(nil), cfg, allFilters(), g.verts, []int{0, 1, 9}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.MaxVertsPerPoly = 2
	_, err = RcBuild(NewRcContext(nil), cfg, allFilters(), g.verts, g.tris, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildConvexVolumeArea(t *testing.T) {
	g := &testGeom{}
	g.addQuad(0, 0, 20, 20, 0)
	cfg := testConfig(1)
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(g.verts, len(g.verts)/3, bmin, bmax)
	cfg.SetBounds(bmin, bmax)

	vol := RcConvexVolume{
		Verts: []float64{
			5, 0, 5,
			5, 0, 15,
			15, 0, 15,
			15, 0, 5,
		},
		Hmin: -1,
		Hmax: 1,
		Area: 5,
	}
	res, err := RcBuild(NewRcContext(nil), cfg, allFilters(), g.verts, g.tris, []RcConvexVolume{vol})
	require.NoError(t, err)

	areas := map[int]bool{}
	for i := 0; i < res.Pmesh.Npolys; i++ {
		areas[res.Pmesh.Areas[i]] = true
	}
	assert.True(t, areas[5])
	assert.True(t, areas[RC_WALKABLE_AREA])
	assertConvexPolys(t, res.Pmesh)
	assertSymmetricAdjacency(t, res.Pmesh)
}
