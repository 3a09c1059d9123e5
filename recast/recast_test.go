package recast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcBounds(t *testing.T) {
	t.Run("bounds of one vector", func(t *testing.T) {
		verts := []float64{1, 2, 3}
		bmin := make([]float64, 3)
		bmax := make([]float64, 3)
		RcCalcBounds(verts, 1, bmin, bmax)
		assert.Equal(t, []float64{1, 2, 3}, bmin)
		assert.Equal(t, []float64{1, 2, 3}, bmax)
	})

	t.Run("bounds of more than one vector", func(t *testing.T) {
		verts := []float64{
			1, 2, 3,
			0, 2, 5,
		}
		bmin := make([]float64, 3)
		bmax := make([]float64, 3)
		RcCalcBounds(verts, 2, bmin, bmax)
		assert.Equal(t, []float64{0, 2, 3}, bmin)
		assert.Equal(t, []float64{1, 2, 5}, bmax)
	})
}

func TestCalcGridSize(t *testing.T) {
	verts := []float64{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, 2, bmin, bmax)

	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	assert.Equal(t, 1, width)
	assert.Equal(t, 2, height)
}

func TestCreateHeightfield(t *testing.T) {
	verts := []float64{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, 2, bmin, bmax)
	cellSize := 1.5
	cellHeight := 2.0
	width, height := RcCalcGridSize(bmin, bmax, cellSize)

	hf := RcCreateHeightfield(width, height, bmin, bmax, cellSize, cellHeight)
	assert.Equal(t, width, hf.Width)
	assert.Equal(t, height, hf.Height)
	assert.Equal(t, bmin, hf.Bmin[:])
	assert.Equal(t, bmax, hf.Bmax[:])
	assert.Equal(t, cellSize, hf.Cs)
	assert.Equal(t, cellHeight, hf.Ch)
	assert.Len(t, hf.Spans, width*height)
	assert.Nil(t, hf.Pools)
	assert.Nil(t, hf.Freelist)
}

func TestMarkWalkableTriangles(t *testing.T) {
	verts := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	t.Run("one walkable triangle", func(t *testing.T) {
		areas := []int{RC_NULL_AREA}
		RcMarkWalkableTriangles(45, verts, walkableTri, 1, areas)
		assert.Equal(t, RC_WALKABLE_AREA, areas[0])
	})
	t.Run("one non-walkable triangle", func(t *testing.T) {
		areas := []int{RC_NULL_AREA}
		RcMarkWalkableTriangles(45, verts, unwalkableTri, 1, areas)
		assert.Equal(t, RC_NULL_AREA, areas[0])
	})
	t.Run("non-walkable triangle area ids are not modified", func(t *testing.T) {
		areas := []int{42}
		RcMarkWalkableTriangles(45, verts, unwalkableTri, 1, areas)
		assert.Equal(t, 42, areas[0])
	})
	t.Run("slopes equal to the max slope are considered unwalkable", func(t *testing.T) {
		areas := []int{RC_NULL_AREA}
		RcMarkWalkableTriangles(0, verts, walkableTri, 1, areas)
		assert.Equal(t, RC_NULL_AREA, areas[0])
	})
}

func TestClearUnwalkableTriangles(t *testing.T) {
	verts := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	t.Run("sets area id of unwalkable triangle to RC_NULL_AREA", func(t *testing.T) {
		areas := []int{42}
		RcClearUnwalkableTriangles(45, verts, unwalkableTri, 1, areas)
		assert.Equal(t, RC_NULL_AREA, areas[0])
	})
	t.Run("does not modify walkable triangle area ids", func(t *testing.T) {
		areas := []int{42}
		RcClearUnwalkableTriangles(45, verts, walkableTri, 1, areas)
		assert.Equal(t, 42, areas[0])
	})
	t.Run("slopes equal to the max slope are considered unwalkable", func(t *testing.T) {
		areas := []int{42}
		RcClearUnwalkableTriangles(0, verts, walkableTri, 1, areas)
		assert.Equal(t, RC_NULL_AREA, areas[0])
	})
}

func newAddSpanField(t *testing.T) *RcHeightfield {
	t.Helper()
	verts := []float64{
		1, 2, 3,
		0, 2, 6,
	}
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, 2, bmin, bmax)
	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	return RcCreateHeightfield(width, height, bmin, bmax, 1.5, 2.0)
}

func TestAddSpan(t *testing.T) {
	const area = 42
	const flagMergeThr = 1

	t.Run("add a span to an empty heightfield", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 1, hf.Spans[0].Smax)
		assert.Equal(t, area, hf.Spans[0].Area)
	})

	t.Run("add a span that gets merged with an existing span", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		RcAddSpan(hf, 0, 0, 1, 2, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 2, hf.Spans[0].Smax)
		assert.Equal(t, area, hf.Spans[0].Area)
		assert.Nil(t, hf.Spans[0].Next)
	})

	t.Run("add a span that merges with two spans above and below", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 1, area, flagMergeThr)
		RcAddSpan(hf, 0, 0, 2, 3, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0].Next)
		assert.Equal(t, 2, hf.Spans[0].Next.Smin)
		assert.Equal(t, 3, hf.Spans[0].Next.Smax)

		RcAddSpan(hf, 0, 0, 1, 2, area, flagMergeThr)
		require.NotNil(t, hf.Spans[0])
		assert.Equal(t, 0, hf.Spans[0].Smin)
		assert.Equal(t, 3, hf.Spans[0].Smax)
		assert.Equal(t, area, hf.Spans[0].Area)
		assert.Nil(t, hf.Spans[0].Next)
	})

	t.Run("merged area keeps the highest id when tops are close", func(t *testing.T) {
		hf := newAddSpanField(t)
		RcAddSpan(hf, 0, 0, 0, 4, 10, flagMergeThr)
		RcAddSpan(hf, 0, 0, 2, 5, 1, flagMergeThr)
		assert.Equal(t, 10, hf.Spans[0].Area)

		// The new top is far above the old one, its area wins.
		RcAddSpan(hf, 0, 0, 3, 9, 2, flagMergeThr)
		assert.Equal(t, 2, hf.Spans[0].Area)
		assert.Equal(t, 9, hf.Spans[0].Smax)
	})
}

func TestRasterizeTriangle(t *testing.T) {
	verts := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, 3, bmin, bmax)
	width, height := RcCalcGridSize(bmin, bmax, 0.5)
	solid := RcCreateHeightfield(width, height, bmin, bmax, 0.5, 0.5)

	area := 42
	RcRasterizeTriangle(NewRcContext(nil), verts[0:3], verts[3:6], verts[6:9], area, solid, 1)

	assert.NotNil(t, solid.Spans[0+0*width])
	assert.Nil(t, solid.Spans[1+0*width])
	assert.NotNil(t, solid.Spans[0+1*width])
	assert.NotNil(t, solid.Spans[1+1*width])

	for _, idx := range []int{0 + 0*width, 0 + 1*width, 1 + 1*width} {
		s := solid.Spans[idx]
		require.NotNil(t, s)
		assert.Equal(t, 0, s.Smin)
		assert.Equal(t, 1, s.Smax)
		assert.Equal(t, area, s.Area)
		assert.Nil(t, s.Next)
	}
}

func TestRasterizeTriangleOutsideField(t *testing.T) {
	// The triangle bounding box overlaps the field but the triangle does not.
	bmin := []float64{0, 0, 0}
	bmax := []float64{10, 10, 10}
	hf := RcCreateHeightfield(10, 10, bmin, bmax, 1, 1)

	verts := []float64{
		-10.0, 5.5, -10.0,
		-10.0, 5.5, 3,
		3.0, 5.5, -10.0,
	}
	RcRasterizeTriangle(NewRcContext(nil), verts[0:3], verts[3:6], verts[6:9], 42, hf, 1)
	assert.Zero(t, hf.SpanCount())
}

func TestRasterizeSkinnyTriangles(t *testing.T) {
	cases := map[string][]float64{
		"skinny triangle along x axis": {
			5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, 0.005,

			-5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, -0.005,
		},
		"skinny triangle along z axis": {
			0.005, 0, 5,
			-0.005, 0, 5,
			0.005, 0, -5,

			0.005, 0, -5,
			-0.005, 0, 5,
			-0.005, 0, -5,
		},
	}
	for name, verts := range cases {
		t.Run(name, func(t *testing.T) {
			bmin := make([]float64, 3)
			bmax := make([]float64, 3)
			RcCalcBounds(verts, 6, bmin, bmax)
			width, height := RcCalcGridSize(bmin, bmax, 1)
			solid := RcCreateHeightfield(width, height, bmin, bmax, 1, 1)
			assert.NotPanics(t, func() {
				RcRasterizeTriangles(NewRcContext(nil), verts, []int{0, 1, 2, 3, 4, 5}, []int{42, 42}, 2, solid, 1)
			})
		})
	}
}

func TestRasterizeTriangles(t *testing.T) {
	verts := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
		0, 0, 1,
	}
	tris := []int{
		0, 1, 2,
		0, 3, 1,
	}
	areas := []int{1, 2}
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, 4, bmin, bmax)
	width, height := RcCalcGridSize(bmin, bmax, 0.5)
	solid := RcCreateHeightfield(width, height, bmin, bmax, 0.5, 0.5)

	RcRasterizeTriangles(NewRcContext(nil), verts, tris, areas, 2, solid, 1)

	assert.NotNil(t, solid.Spans[0+0*width])
	assert.NotNil(t, solid.Spans[0+1*width])
	assert.NotNil(t, solid.Spans[0+2*width])
	assert.NotNil(t, solid.Spans[0+3*width])
	assert.Nil(t, solid.Spans[1+0*width])
	assert.NotNil(t, solid.Spans[1+1*width])
	assert.NotNil(t, solid.Spans[1+2*width])
	assert.Nil(t, solid.Spans[1+3*width])

	expectArea := map[int]int{
		0 + 0*width: 1,
		0 + 1*width: 1,
		0 + 2*width: 2,
		0 + 3*width: 2,
		1 + 1*width: 1,
		1 + 2*width: 2,
	}
	for idx, want := range expectArea {
		s := solid.Spans[idx]
		require.NotNil(t, s)
		assert.Equal(t, 0, s.Smin)
		assert.Equal(t, 1, s.Smax)
		assert.Equal(t, want, s.Area)
		assert.Nil(t, s.Next)
	}
}

func TestRasterizeTrianglesSkipsDegenerate(t *testing.T) {
	verts := []float64{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
	}
	bmin := []float64{0, 0, -1}
	bmax := []float64{2, 1, 1}
	hf := RcCreateHeightfield(4, 4, bmin, bmax, 0.5, 0.5)
	ctx := NewRcContext(nil)
	RcRasterizeTriangles(ctx, verts, []int{0, 1, 2}, []int{RC_WALKABLE_AREA}, 1, hf, 1)
	assert.Zero(t, hf.SpanCount())
	assert.Equal(t, 1, ctx.Warnings())
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(1)
	require.NoError(t, cfg.Validate())

	cfg.Cs = 0
	cfg.WalkableHeight = 2
	cfg.MaxVertsPerPoly = 13
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "cell size")
	assert.Contains(t, err.Error(), "walkable height")
	assert.Contains(t, err.Error(), "verts per poly")
}

func newFlatField(w, h int) *RcHeightfield {
	hf := RcCreateHeightfield(w, h, []float64{0, 0, 0}, []float64{float64(w), 10, float64(h)}, 1, 1)
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			RcAddSpan(hf, x, z, 0, 1, RC_WALKABLE_AREA, 1)
		}
	}
	return hf
}

func TestBuildCompactHeightfield(t *testing.T) {
	hf := newFlatField(5, 5)
	RcAddSpan(hf, 2, 2, 5, 6, RC_NULL_AREA, 1)

	chf, err := RcBuildCompactHeightfield(NewRcContext(nil), 3, 1, hf)
	require.NoError(t, err)
	assert.Equal(t, 25, chf.SpanCount)

	for i := range chf.Spans {
		assert.Equal(t, 1, chf.Spans[i].Y)
	}
	// The null span above the centre bounds its clearance.
	center := chf.Cells[2+2*5]
	assert.Equal(t, 4, chf.Spans[center.Index].H)
	corner := chf.Cells[0]
	assert.Equal(t, RC_SPAN_OPEN_HEIGHT-1, chf.Spans[corner.Index].H)

	// Corner spans link to two neighbours, inner spans to four.
	links := func(x, z int) int {
		c := chf.Cells[x+z*5]
		n := 0
		for dir := 0; dir < 4; dir++ {
			if chf.Neighbor(x, z, c.Index, dir) >= 0 {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 2, links(0, 0))
	assert.Equal(t, 3, links(2, 0))
	assert.Equal(t, 4, links(1, 1))
	assert.Equal(t, 4, links(2, 2))
}

func TestBuildCompactHeightfieldClimb(t *testing.T) {
	hf := newFlatField(2, 1)
	// Raise the second column beyond the climb limit.
	RcAddSpan(hf, 1, 0, 1, 5, RC_WALKABLE_AREA, 1)

	chf, err := RcBuildCompactHeightfield(NewRcContext(nil), 3, 2, hf)
	require.NoError(t, err)
	assert.Equal(t, -1, chf.Neighbor(0, 0, chf.Cells[0].Index, 2))
}

func TestErodeWalkableArea(t *testing.T) {
	hf := newFlatField(7, 7)
	chf, err := RcBuildCompactHeightfield(NewRcContext(nil), 3, 1, hf)
	require.NoError(t, err)

	RcErodeWalkableArea(NewRcContext(nil), 1, chf)

	walkable := 0
	for z := 0; z < 7; z++ {
		for x := 0; x < 7; x++ {
			c := chf.Cells[x+z*7]
			onEdge := x == 0 || z == 0 || x == 6 || z == 6
			for i := c.Index; i < c.Index+c.Count; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					walkable++
					assert.False(t, onEdge, "edge span (%d,%d) should be eroded", x, z)
				}
			}
		}
	}
	assert.Equal(t, 25, walkable)
}

func TestMarkConvexPolyArea(t *testing.T) {
	hf := newFlatField(6, 6)
	chf, err := RcBuildCompactHeightfield(NewRcContext(nil), 3, 1, hf)
	require.NoError(t, err)

	vol := []float64{
		0, 0, 0,
		0, 0, 3,
		3, 0, 3,
		3, 0, 0,
	}
	RcMarkConvexPolyArea(NewRcContext(nil), vol, 4, -1, 5, 7, chf)

	c := chf.Cells[1+1*6]
	assert.Equal(t, 7, chf.Areas[c.Index])
	c = chf.Cells[4+4*6]
	assert.Equal(t, RC_WALKABLE_AREA, chf.Areas[c.Index])
}

func TestTriangulateSquare(t *testing.T) {
	verts := []int{
		0, 0, 0, 0,
		0, 0, 4, 0,
		4, 0, 4, 0,
		4, 0, 0, 0,
	}
	indices := []int{0, 1, 2, 3}
	tris := make([]int, 4*3)
	ntris := triangulate(4, verts, indices, tris)
	assert.Equal(t, 2, ntris)
	seen := map[int]bool{}
	for _, v := range tris[:ntris*3] {
		seen[v] = true
	}
	assert.Len(t, seen, 4)
}

func TestRemoveDegenerateSegments(t *testing.T) {
	simplified := []int{
		0, 0, 0, 0,
		0, 3, 0, 0, // same xz as the previous vertex
		0, 0, 4, 0,
		4, 0, 4, 0,
	}
	simplified = removeDegenerateSegments(simplified)
	assert.Len(t, simplified, 12)
}

func TestMergeContours(t *testing.T) {
	outline := &RcContour{
		Verts:  []int{0, 0, 0, 0, 0, 0, 10, 0, 10, 0, 10, 0, 10, 0, 0, 0},
		Nverts: 4,
	}
	hole := &RcContour{
		Verts:  []int{4, 0, 4, 0, 6, 0, 4, 0, 6, 0, 6, 0},
		Nverts: 3,
	}
	mergeContours(outline, hole, 0, 0)
	assert.Equal(t, 4+3+2, outline.Nverts)
	assert.Zero(t, hole.Nverts)
	assert.Nil(t, hole.Verts)
	// The hole is spliced in behind the duplicated junction vertex.
	assert.Equal(t, []int{4, 0, 4, 0}, outline.Verts[5*4:5*4+4])
}

// regionField builds a flat field with one span per cell and region ids
// taken from layout, one rune per cell and one row per z. Runes are
// numbered in order of first appearance.
func regionField(t *testing.T, layout ...string) (*RcCompactHeightfield, []int, map[rune]int) {
	t.Helper()
	w, h := len(layout[0]), len(layout)
	chf, err := RcBuildCompactHeightfield(NewRcContext(nil), 3, 1, newFlatField(w, h))
	require.NoError(t, err)

	ids := map[rune]int{}
	srcReg := make([]int, chf.SpanCount)
	for z, row := range layout {
		for x, r := range row {
			if _, ok := ids[r]; !ok {
				ids[r] = len(ids) + 1
			}
			srcReg[chf.Cells[x+z*w].Index] = ids[r]
		}
	}
	return chf, srcReg, ids
}

func TestMergeRegionsLongestBoundary(t *testing.T) {
	t.Run("longest shared boundary wins", func(t *testing.T) {
		// s shares six edges with the larger a and two with b.
		chf, srcReg, ids := regionField(t,
			"aaaaabbb",
			"aaaaabbb",
			"aaassbbb",
			"aaassbbb",
			"aaaaabbb",
			"aaaaabbb",
		)
		maxID := len(ids)
		overlaps := mergeAndFilterRegions(NewRcContext(nil), 2, 8, &maxID, chf, srcReg)
		assert.Empty(t, overlaps)
		assert.Equal(t, 2, maxID)

		a := srcReg[chf.Cells[0].Index]
		b := srcReg[chf.Cells[7].Index]
		assert.NotEqual(t, a, b)
		for _, x := range []int{3, 4} {
			for _, z := range []int{2, 3} {
				assert.Equal(t, a, srcReg[chf.Cells[x+z*8].Index], "cell (%d,%d)", x, z)
			}
		}
	})

	t.Run("ties go to the smaller neighbour", func(t *testing.T) {
		// s shares four edges each with a (22 spans) and b (28 spans).
		chf, srcReg, ids := regionField(t,
			"aaaabbbbb",
			"aaaabbbbb",
			"aaassbbbb",
			"aaassbbbb",
			"aaaabbbbb",
			"aaaabbbbb",
		)
		maxID := len(ids)
		mergeAndFilterRegions(NewRcContext(nil), 2, 8, &maxID, chf, srcReg)
		assert.Equal(t, 2, maxID)

		a := srcReg[chf.Cells[0].Index]
		assert.Equal(t, a, srcReg[chf.Cells[4+2*9].Index])
		assert.Equal(t, a, srcReg[chf.Cells[3+3*9].Index])
	})

	t.Run("large border regions stay apart", func(t *testing.T) {
		chf, srcReg, ids := regionField(t,
			"aaaabbbb",
			"aaaabbbb",
			"aaaabbbb",
		)
		maxID := len(ids)
		mergeAndFilterRegions(NewRcContext(nil), 2, 8, &maxID, chf, srcReg)
		assert.Equal(t, 2, maxID)
		assert.NotEqual(t, srcReg[chf.Cells[0].Index], srcReg[chf.Cells[7].Index])
	})
}

// contourPoints lays out raw contour points (x, z at y = 0) with the
// given neighbour region per point.
func contourPoints(xz []int, regs []int) []int {
	points := make([]int, 0, len(regs)*4)
	for i, r := range regs {
		points = append(points, xz[i*2], 0, xz[i*2+1], r)
	}
	return points
}

func TestSimplifyContour(t *testing.T) {
	// The boundary of a 4x4 square, one point per unit.
	square := []int{
		0, 0, 0, 1, 0, 2, 0, 3, 0, 4, 1, 4, 2, 4, 3, 4,
		4, 4, 4, 3, 4, 2, 4, 1, 4, 0, 3, 0, 2, 0, 1, 0,
	}

	t.Run("seeded at the extreme corners", func(t *testing.T) {
		points := contourPoints(square, make([]int, 16))
		simplified := simplifyContour(points, nil, 1, 0, RC_CONTOUR_TESS_WALL_EDGES)
		assert.Equal(t, []int{
			0, 0, 0, 0,
			0, 0, 4, 0,
			4, 0, 4, 0,
			4, 0, 0, 0,
		}, simplified)
	})

	t.Run("seeded at region transitions", func(t *testing.T) {
		// Points 8..15 face region 2; the rest are wall.
		regs := make([]int, 16)
		for i := 8; i < 16; i++ {
			regs[i] = 2
		}
		points := contourPoints(square, regs)
		simplified := simplifyContour(points, nil, 1, 0, RC_CONTOUR_TESS_WALL_EDGES)
		// The portal side is kept as one segment, the wall side gets the
		// corner that strays furthest.
		assert.Equal(t, []int{
			3, 0, 4, 2,
			1, 0, 0, 0,
			0, 0, 4, 0,
		}, simplified)
	})
}
