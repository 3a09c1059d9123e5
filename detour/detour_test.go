package detour

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const null = 0xffff

// testParams describes an L shaped floor of three 4x4 squares:
// A at x,z in [0,4], B at x [4,8] z [0,4] and C at x [4,8] z [4,8].
// A and C only touch at the corner (4, 4).
func testParams() *DtNavMeshCreateParams {
	return &DtNavMeshCreateParams{
		Verts: []int{
			0, 0, 0,
			0, 0, 4,
			4, 0, 4,
			4, 0, 0,
			8, 0, 4,
			8, 0, 0,
			4, 0, 8,
			8, 0, 8,
		},
		VertCount: 8,
		Polys: []int{
			0, 1, 2, 3, null, null, null, null, 1, null, null, null,
			3, 2, 4, 5, null, null, 0, 2, null, null, null, null,
			2, 6, 7, 4, null, null, null, null, null, 1, null, null,
		},
		PolyFlags:      []int{1, 1, 1},
		PolyAreas:      []int{63, 63, 63},
		PolyCount:      3,
		Nvp:            6,
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  0.9,
		Bmax:           [3]float64{8, 1, 8},
		Cs:             1,
		Ch:             1,
	}
}

// withDetail adds a fan detail mesh per polygon; A is tilted so that y = x/2.
func withDetail(p *DtNavMeshCreateParams) *DtNavMeshCreateParams {
	p.DetailMeshes = []int{
		0, 4, 0, 2,
		4, 4, 2, 2,
		8, 4, 4, 2,
	}
	p.DetailVerts = []float64{
		0, 0, 0, 0, 0, 4, 4, 2, 4, 4, 2, 0,
		4, 0, 0, 4, 0, 4, 8, 0, 4, 8, 0, 0,
		4, 0, 4, 4, 0, 8, 8, 0, 8, 8, 0, 4,
	}
	p.DetailVertsCount = 12
	p.DetailTris = []int{
		0, 1, 2, 0, 0, 2, 3, 0,
		0, 1, 2, 0, 0, 2, 3, 0,
		0, 1, 2, 0, 0, 2, 3, 0,
	}
	p.DetailTriCount = 6
	return p
}

func newTestQuery(t *testing.T, p *DtNavMeshCreateParams, maxNodes int) *DtNavMeshQuery {
	t.Helper()
	nav, err := NewDtNavMesh(p)
	require.NoError(t, err)
	q, err := NewDtNavMeshQuery(nav, maxNodes)
	require.NoError(t, err)
	return q
}

func TestNewDtNavMesh(t *testing.T) {
	p := testParams()
	p.Bmin = [3]float64{10, 1, 20}
	p.Cs = 0.5
	p.Ch = 0.25
	p.Verts[1*3+1] = 4
	nav, err := NewDtNavMesh(p)
	require.NoError(t, err)

	assert.Equal(t, 3, nav.PolyCount())
	assert.Equal(t, mgl32.Vec3{10, 2, 22}, nav.vert(1))
	assert.Equal(t, uint8(4), nav.Polys[0].VertCount)
	assert.Equal(t, [DT_VERTS_PER_POLYGON]uint16{DT_NULL_LINK, DT_NULL_LINK, 1, DT_NULL_LINK, DT_NULL_LINK, DT_NULL_LINK}, nav.Polys[0].Neis)
	assert.Equal(t, uint8(63), nav.Polys[2].Area)
	assert.Equal(t, uint16(1), nav.Polys[2].Flags)
}

func TestNewDtNavMeshRejectsBadParams(t *testing.T) {
	p := testParams()
	p.Nvp = 7
	_, err := NewDtNavMesh(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = testParams()
	p.Polys[2] = 42
	_, err = NewDtNavMesh(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = withDetail(testParams())
	p.DetailTris[0] = 9
	_, err = NewDtNavMesh(p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestNavMeshBorderLinks(t *testing.T) {
	p := testParams()
	p.Polys[0*12+6+0] = 0x8000 | 0
	nav, err := NewDtNavMesh(p)
	require.NoError(t, err)
	assert.Equal(t, uint16(DT_EXT_LINK), nav.Polys[0].Neis[0])

	// Border links are not graph edges.
	nodes := nav.Nodes()
	assert.Equal(t, []DtPolyRef{2}, nodes[0].Neighbours)
}

func TestNodes(t *testing.T) {
	nav, err := NewDtNavMesh(testParams())
	require.NoError(t, err)

	nodes := nav.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, DtPolyRef(1), nodes[0].Ref)
	assert.Equal(t, mgl32.Vec3{2, 0, 2}, nodes[0].Center)
	assert.Equal(t, []DtPolyRef{1, 3}, nodes[1].Neighbours)
	assert.Equal(t, []DtPolyRef{2}, nodes[2].Neighbours)
	assert.Len(t, nodes[2].Verts, 4)

	// The view is a copy.
	nodes[0].Verts[0] = mgl32.Vec3{99, 99, 99}
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, nav.vert(0))
}

func TestFindNearestPoly(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	filter := NewDtQueryFilter()
	ext := mgl32.Vec3{2, 1, 2}

	ref, pt, status := q.FindNearestPoly(mgl32.Vec3{2, 0.5, 1}, ext, filter)
	assert.True(t, status.Succeed())
	assert.Equal(t, DtPolyRef(1), ref)
	assert.Equal(t, mgl32.Vec3{2, 0, 1}, pt)

	ref, pt, _ = q.FindNearestPoly(mgl32.Vec3{6, 0, 7}, ext, filter)
	assert.Equal(t, DtPolyRef(3), ref)
	assert.Equal(t, mgl32.Vec3{6, 0, 7}, pt)

	// Off the mesh but within the extents snaps to the boundary.
	ref, pt, _ = q.FindNearestPoly(mgl32.Vec3{-1, 0, 2}, ext, filter)
	assert.Equal(t, DtPolyRef(1), ref)
	assert.InDelta(t, 0, pt[0], 1e-6)
	assert.InDelta(t, 2, pt[2], 1e-6)

	ref, _, status = q.FindNearestPoly(mgl32.Vec3{-5, 0, 2}, ext, filter)
	assert.True(t, status.Succeed())
	assert.Zero(t, ref)

	_, _, status = q.FindNearestPoly(mgl32.Vec3{}, mgl32.Vec3{-1, 1, 1}, filter)
	assert.True(t, status.Failed())
	assert.True(t, status.Detail(DT_INVALID_PARAM))
}

func TestFindNearestPolyRespectsFilter(t *testing.T) {
	p := testParams()
	p.PolyFlags = []int{2, 1, 1}
	q := newTestQuery(t, p, DefaultMaxNodes)
	filter := NewDtQueryFilter()
	filter.SetExcludeFlags(2)

	ref, _, _ := q.FindNearestPoly(mgl32.Vec3{3, 0, 2}, mgl32.Vec3{2, 1, 2}, filter)
	assert.Equal(t, DtPolyRef(2), ref)
}

func TestGetPolyHeight(t *testing.T) {
	q := newTestQuery(t, withDetail(testParams()), DefaultMaxNodes)

	h, status := q.GetPolyHeight(1, mgl32.Vec3{2, 10, 1})
	require.True(t, status.Succeed())
	assert.InDelta(t, 1.0, h, 1e-5)

	h, status = q.GetPolyHeight(2, mgl32.Vec3{6, 10, 1})
	require.True(t, status.Succeed())
	assert.InDelta(t, 0.0, h, 1e-5)

	_, status = q.GetPolyHeight(1, mgl32.Vec3{6, 0, 1})
	assert.True(t, status.Failed())
	_, status = q.GetPolyHeight(9, mgl32.Vec3{2, 0, 1})
	assert.True(t, status.Detail(DT_INVALID_PARAM))
}

func TestClosestPointOnPoly(t *testing.T) {
	q := newTestQuery(t, withDetail(testParams()), DefaultMaxNodes)

	pt, over, status := q.ClosestPointOnPoly(1, mgl32.Vec3{3, 5, 1})
	require.True(t, status.Succeed())
	assert.True(t, over)
	assert.InDelta(t, 1.5, pt[1], 1e-5)

	pt, over, _ = q.ClosestPointOnPoly(1, mgl32.Vec3{2, 0, -3})
	assert.False(t, over)
	assert.InDelta(t, 2, pt[0], 1e-6)
	assert.InDelta(t, 0, pt[2], 1e-6)

	pt, status = q.ClosestPointOnPolyBoundary(1, mgl32.Vec3{1, 3, 1})
	require.True(t, status.Succeed())
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, pt)
}

func TestIsWalkable(t *testing.T) {
	q := newTestQuery(t, withDetail(testParams()), DefaultMaxNodes)
	filter := NewDtQueryFilter()
	ext := mgl32.Vec3{2, 1, 2}

	ok, pt, status := q.IsWalkable(mgl32.Vec3{1, 0.5, 1}, ext, filter)
	assert.True(t, status.Succeed())
	assert.True(t, ok)
	assert.InDelta(t, 0.5, pt[1], 1e-5)

	ok, pt, _ = q.IsWalkable(mgl32.Vec3{6, 0, -1}, ext, filter)
	assert.False(t, ok)
	assert.InDelta(t, 6, pt[0], 1e-6)
	assert.InDelta(t, 0, pt[2], 1e-6)

	ok, _, status = q.IsWalkable(mgl32.Vec3{6, 5, 2}, ext, filter)
	assert.False(t, ok)
	assert.True(t, status.Failed())
}

func TestFindPathAroundCorner(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	filter := NewDtQueryFilter()
	assert.Equal(t, DtQueryUnstarted, q.State())

	start := mgl32.Vec3{1, 0, 1}
	end := mgl32.Vec3{5, 0, 7}
	path, status := q.FindPath(1, 3, start, end, filter)
	require.True(t, status.Succeed())
	assert.False(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{1, 2, 3}, path)
	assert.Equal(t, DtQueryPathFound, q.State())

	points, flags, refs, status := q.FindStraightPath(start, end, path, 0)
	require.True(t, status.Succeed())
	require.Len(t, points, 3)
	assert.Equal(t, start, points[0])
	assert.Equal(t, mgl32.Vec3{4, 0, 4}, points[1])
	assert.Equal(t, end, points[2])
	assert.Equal(t, []uint8{DT_STRAIGHTPATH_START, 0, DT_STRAIGHTPATH_END}, flags)
	assert.Equal(t, DtPolyRef(1), refs[0])
	assert.Equal(t, DtPolyRef(0), refs[2])
}

func TestFindStraightPathDirect(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	start := mgl32.Vec3{1, 0, 2}
	end := mgl32.Vec3{7, 0, 2}
	path, status := q.FindPath(1, 2, start, end, NewDtQueryFilter())
	require.True(t, status.Succeed())

	points, _, _, status := q.FindStraightPath(start, end, path, 0)
	require.True(t, status.Succeed())
	assert.Equal(t, []mgl32.Vec3{start, end}, points)

	points, _, _, status = q.FindStraightPath(start, end, path, 1)
	assert.True(t, status.Detail(DT_BUFFER_TOO_SMALL))
	assert.Len(t, points, 1)
}

func TestFindStraightPathClampsEnd(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	points, _, _, status := q.FindStraightPath(mgl32.Vec3{1, 0, 1}, mgl32.Vec3{-3, 0, 1}, []DtPolyRef{1}, 0)
	require.True(t, status.Succeed())
	require.Len(t, points, 2)
	assert.InDelta(t, 0, points[1][0], 1e-6)

	_, _, _, status = q.FindStraightPath(mgl32.Vec3{}, mgl32.Vec3{}, nil, 0)
	assert.True(t, status.Failed())
}

func TestFindPathSamePoly(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	path, status := q.FindPath(2, 2, mgl32.Vec3{5, 0, 1}, mgl32.Vec3{7, 0, 3}, NewDtQueryFilter())
	assert.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{2}, path)
	assert.Equal(t, DtQueryPathFound, q.State())
}

func TestFindPathDisconnected(t *testing.T) {
	p := testParams()
	// Cut the link between B and C.
	p.Polys[1*12+6+1] = null
	p.Polys[2*12+6+3] = null
	q := newTestQuery(t, p, DefaultMaxNodes)

	path, status := q.FindPath(1, 3, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{5, 0, 7}, NewDtQueryFilter())
	assert.True(t, status.Succeed())
	assert.True(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{1, 2}, path)
	assert.Equal(t, DtQueryExhausted, q.State())
}

func TestFindPathExcludedPoly(t *testing.T) {
	p := testParams()
	p.PolyFlags = []int{1, 2, 1}
	q := newTestQuery(t, p, DefaultMaxNodes)
	filter := NewDtQueryFilter()
	filter.SetExcludeFlags(2)

	path, status := q.FindPath(1, 3, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{5, 0, 7}, filter)
	assert.True(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{1}, path)
	assert.Equal(t, DtQueryExhausted, q.State())
}

func TestFindPathOutOfNodes(t *testing.T) {
	q := newTestQuery(t, testParams(), 1)
	path, status := q.FindPath(1, 3, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{5, 0, 7}, NewDtQueryFilter())
	assert.True(t, status.Detail(DT_OUT_OF_NODES))
	assert.True(t, status.Detail(DT_PARTIAL_RESULT))
	assert.Equal(t, []DtPolyRef{1}, path)
}

func TestFindPathInvalidRefs(t *testing.T) {
	q := newTestQuery(t, testParams(), DefaultMaxNodes)
	path, status := q.FindPath(0, 1, mgl32.Vec3{}, mgl32.Vec3{}, NewDtQueryFilter())
	assert.Nil(t, path)
	assert.True(t, status.Failed())
	assert.Equal(t, DtQueryExhausted, q.State())

	_, err := NewDtNavMeshQuery(q.GetAttachedNavMesh(), 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestQueryFilter(t *testing.T) {
	f := NewDtQueryFilter()
	poly := &DtPoly{Flags: 0x3, Area: 5}
	assert.True(t, f.PassFilter(poly))
	f.SetExcludeFlags(0x2)
	assert.False(t, f.PassFilter(poly))
	f.SetExcludeFlags(0)
	f.SetIncludeFlags(0x4)
	assert.False(t, f.PassFilter(poly))

	f.SetAreaCost(5, 3)
	assert.Equal(t, float32(3), f.GetAreaCost(5))
	assert.InDelta(t, 15, f.GetCost(mgl32.Vec3{}, mgl32.Vec3{3, 0, 4}, poly), 1e-5)
}

func TestAreaCostSteersSearch(t *testing.T) {
	// Two routes from A to C: through B, or a detour through D which is
	// cheap to cross when B is expensive.
	p := testParams()
	p.Verts = append(p.Verts,
		0, 0, 8,
	)
	p.VertCount = 9
	// D at x [0,4] z [4,8], touching A along z=4 and C along x=4.
	p.Polys = append(p.Polys, 1, 8, 6, 2, null, null, null, null, 2, null, null, null)
	p.Polys[0*12+6+1] = 3 // A edge 1-2 links D
	p.Polys[2*12+6+0] = 3 // C edge 2-6 links D
	p.Polys[3*12+6+0] = null
	p.Polys[3*12+6+1] = null
	p.Polys[3*12+6+2] = 2
	p.Polys[3*12+6+3] = 0
	p.PolyFlags = append(p.PolyFlags, 1)
	p.PolyAreas = []int{1, 2, 1, 1}
	p.PolyCount = 4

	q := newTestQuery(t, p, DefaultMaxNodes)
	filter := NewDtQueryFilter()
	filter.SetAreaCost(2, 100)
	path, status := q.FindPath(1, 3, mgl32.Vec3{2, 0, 2}, mgl32.Vec3{6, 0, 6}, filter)
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{1, 4, 3}, path)

	filter.SetAreaCost(2, 0.5)
	path, _ = q.FindPath(1, 3, mgl32.Vec3{2, 0, 2}, mgl32.Vec3{6, 0, 6}, filter)
	assert.Equal(t, []DtPolyRef{1, 2, 3}, path)
}

func TestNodeQueueOrder(t *testing.T) {
	q := NewDtNodeQueue(4)
	nodes := []*DtNode{
		{Id: 3, Total: 2},
		{Id: 2, Total: 1},
		{Id: 1, Total: 2},
		{Id: 4, Total: 5},
	}
	for _, n := range nodes {
		q.PushNode(n)
	}
	nodes[3].Total = 0
	q.ModifyNode(nodes[3])

	var order []DtPolyRef
	for !q.Empty() {
		order = append(order, q.PopNode().Id)
	}
	assert.Equal(t, []DtPolyRef{4, 2, 1, 3}, order)
}

func TestNodePool(t *testing.T) {
	p := NewDtNodePool(2, 4)
	a := p.GetNode(10)
	require.NotNil(t, a)
	assert.Same(t, a, p.GetNode(10))
	assert.Same(t, a, p.FindNode(10))
	assert.Equal(t, 1, p.GetNodeIdx(a))
	assert.Same(t, a, p.GetNodeAtIdx(1))

	require.NotNil(t, p.GetNode(11))
	assert.Nil(t, p.GetNode(12))
	assert.Equal(t, 2, p.GetNodeCount())

	p.Clear()
	assert.Nil(t, p.FindNode(10))
	assert.Zero(t, p.GetNodeCount())
}

func TestSnapshotRoundTrip(t *testing.T) {
	nav, err := NewDtNavMesh(withDetail(testParams()))
	require.NoError(t, err)

	data, err := nav.MarshalBinary()
	require.NoError(t, err)
	got, err := UnmarshalDtNavMesh(data)
	require.NoError(t, err)
	assert.Equal(t, nav, got)

	q, err := NewDtNavMeshQuery(got, DefaultMaxNodes)
	require.NoError(t, err)
	path, status := q.FindPath(1, 3, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{5, 0, 7}, NewDtQueryFilter())
	require.True(t, status.Succeed())
	assert.Equal(t, []DtPolyRef{1, 2, 3}, path)
}

func TestSnapshotWithoutDetail(t *testing.T) {
	nav, err := NewDtNavMesh(testParams())
	require.NoError(t, err)
	data, err := nav.MarshalBinary()
	require.NoError(t, err)
	got, err := UnmarshalDtNavMesh(data)
	require.NoError(t, err)
	assert.Nil(t, got.DetailMeshes)
	assert.Equal(t, nav.Polys, got.Polys)
	assert.Equal(t, nav.Verts, got.Verts)
}

func TestSnapshotRejectsCorruptData(t *testing.T) {
	nav, err := NewDtNavMesh(testParams())
	require.NoError(t, err)
	data, err := nav.MarshalBinary()
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	_, err = UnmarshalDtNavMesh(bad)
	assert.ErrorIs(t, err, ErrBadSnapshot)

	_, err = UnmarshalDtNavMesh(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrBadSnapshot)

	_, err = UnmarshalDtNavMesh(nil)
	assert.ErrorIs(t, err, ErrBadSnapshot)
}
