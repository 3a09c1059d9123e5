package detour

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Search heuristic scale.
	H_SCALE = 0.999

	DT_STRAIGHTPATH_START = 0x01 ///< The vertex is the start position in the path.
	DT_STRAIGHTPATH_END   = 0x02 ///< The vertex is the end position in the path.

	// DefaultMaxNodes bounds the A* search of a pooled query.
	DefaultMaxNodes = 2048
)

// DtQueryState tracks one path search.
type DtQueryState int

const (
	DtQueryUnstarted DtQueryState = iota
	DtQuerySearching
	DtQueryPathFound
	DtQueryExhausted
)

func (s DtQueryState) String() string {
	switch s {
	case DtQueryUnstarted:
		return "unstarted"
	case DtQuerySearching:
		return "searching"
	case DtQueryPathFound:
		return "path-found"
	case DtQueryExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("DtQueryState(%d)", int(s))
}

// / Provides the ability to perform pathfinding related queries against
// / a navigation mesh. A query keeps its own search state and must not be
// / used from more than one goroutine at a time.
type DtNavMeshQuery struct {
	nav      *DtNavMesh
	nodePool *DtNodePool
	openList *DtNodeQueue
	state    DtQueryState
}

func NewDtNavMeshQuery(nav *DtNavMesh, maxNodes int) (*DtNavMeshQuery, error) {
	if nav == nil {
		return nil, fmt.Errorf("%w: nil navmesh", ErrInvalidParams)
	}
	if maxNodes <= 0 || maxNodes > 0xffff {
		return nil, fmt.Errorf("%w: max nodes %d out of (0, %d]", ErrInvalidParams, maxNodes, 0xffff)
	}
	return &DtNavMeshQuery{
		nav:      nav,
		nodePool: NewDtNodePool(maxNodes, nextPow2(maxNodes/4)),
		openList: NewDtNodeQueue(maxNodes),
	}, nil
}

func (q *DtNavMeshQuery) GetAttachedNavMesh() *DtNavMesh { return q.nav }
func (q *DtNavMeshQuery) GetNodePool() *DtNodePool       { return q.nodePool }

// State reports the outcome of the last FindPath call.
func (q *DtNavMeshQuery) State() DtQueryState { return q.state }

// / Finds the polygon nearest to the specified center point.
// / A polygon the point is directly over wins over one that is merely close,
// / as long as the height difference is within the walkable climb.
func (q *DtNavMeshQuery) FindNearestPoly(center, halfExtents mgl32.Vec3, filter *DtQueryFilter) (nearestRef DtPolyRef, nearestPt mgl32.Vec3, status DtStatus) {
	nearestRef, nearestPt, _, status = q.findNearestPoly(center, halfExtents, filter)
	return nearestRef, nearestPt, status
}

func (q *DtNavMeshQuery) findNearestPoly(center, halfExtents mgl32.Vec3, filter *DtQueryFilter) (nearestRef DtPolyRef, nearestPt mgl32.Vec3, overPoly bool, status DtStatus) {
	if filter == nil || halfExtents[0] < 0 || halfExtents[1] < 0 || halfExtents[2] < 0 {
		return 0, center, false, DT_FAILURE | DT_INVALID_PARAM
	}
	qmin := center.Sub(halfExtents)
	qmax := center.Add(halfExtents)
	nearestDistanceSqr := float32(math.MaxFloat32)
	nearestPt = center
	for i := range q.nav.Polys {
		if !dtOverlapBounds(qmin, qmax, q.nav.bmins[i], q.nav.bmaxs[i]) || !filter.PassFilter(&q.nav.Polys[i]) {
			continue
		}
		closestPtPoly, posOverPoly := q.closestPointOnPoly(i, center)

		// If a point is directly over a polygon and closer than
		// climb height, favor that instead of straight line nearest point.
		var d float32
		if posOverPoly {
			d = float32(math.Abs(float64(center[1]-closestPtPoly[1]))) - q.nav.Header.WalkableClimb
			if d > 0 {
				d = d * d
			} else {
				d = 0
			}
		} else {
			d = center.Sub(closestPtPoly).LenSqr()
		}
		if d < nearestDistanceSqr {
			nearestDistanceSqr = d
			nearestPt = closestPtPoly
			nearestRef = indexToRef(i)
			overPoly = posOverPoly
		}
	}
	return nearestRef, nearestPt, overPoly, DT_SUCCESS
}

// polyHeight returns the height of polygon i under pos when pos is inside it.
func (q *DtNavMeshQuery) polyHeight(i int, pos mgl32.Vec3) (float32, bool) {
	verts := q.nav.polyVerts(i)
	if !dtPointInPolygon(pos, verts) {
		return 0, false
	}

	if q.nav.DetailMeshes != nil {
		pd := q.nav.DetailMeshes[i]
		dv := func(k uint8) mgl32.Vec3 {
			o := (int(pd.VertBase) + int(k)) * 3
			return mgl32.Vec3{q.nav.DetailVerts[o], q.nav.DetailVerts[o+1], q.nav.DetailVerts[o+2]}
		}
		for j := 0; j < int(pd.TriCount); j++ {
			t := q.nav.DetailTris[(int(pd.TriBase)+j)*4:]
			if h, ok := dtClosestHeightPointTriangle(pos, dv(t[0]), dv(t[1]), dv(t[2])); ok {
				return h, true
			}
		}
	} else {
		for j := 1; j+1 < len(verts); j++ {
			if h, ok := dtClosestHeightPointTriangle(pos, verts[0], verts[j], verts[j+1]); ok {
				return h, true
			}
		}
	}

	// The point is on an edge and missed every triangle numerically, use the
	// height of the nearest boundary point.
	closest := closestPointOnEdges(pos, verts)
	return closest[1], true
}

func closestPointOnEdges(pos mgl32.Vec3, verts []mgl32.Vec3) mgl32.Vec3 {
	dmin := float32(math.MaxFloat32)
	var closest mgl32.Vec3
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		t, d := DtDistancePtSegSqr2D(pos, verts[j], verts[i])
		if d < dmin {
			dmin = d
			closest = verts[j].Add(verts[i].Sub(verts[j]).Mul(t))
		}
	}
	return closest
}

func (q *DtNavMeshQuery) closestPointOnPoly(i int, pos mgl32.Vec3) (closest mgl32.Vec3, posOverPoly bool) {
	if h, ok := q.polyHeight(i, pos); ok {
		return mgl32.Vec3{pos[0], h, pos[2]}, true
	}
	return closestPointOnEdges(pos, q.nav.polyVerts(i)), false
}

// / Finds the closest point on the specified polygon.
func (q *DtNavMeshQuery) ClosestPointOnPoly(ref DtPolyRef, pos mgl32.Vec3) (closest mgl32.Vec3, posOverPoly bool, status DtStatus) {
	if !q.nav.IsValidPolyRef(ref) {
		return pos, false, DT_FAILURE | DT_INVALID_PARAM
	}
	closest, posOverPoly = q.closestPointOnPoly(refToIndex(ref), pos)
	return closest, posOverPoly, DT_SUCCESS
}

// / Returns a point on the boundary closest to the source point if the source point is outside the
// / polygon's xz-bounds. Inside points are returned unchanged.
func (q *DtNavMeshQuery) ClosestPointOnPolyBoundary(ref DtPolyRef, pos mgl32.Vec3) (mgl32.Vec3, DtStatus) {
	if !q.nav.IsValidPolyRef(ref) {
		return pos, DT_FAILURE | DT_INVALID_PARAM
	}
	verts := q.nav.polyVerts(refToIndex(ref))
	if dtPointInPolygon(pos, verts) {
		return pos, DT_SUCCESS
	}
	return closestPointOnEdges(pos, verts), DT_SUCCESS
}

// / Gets the height of the polygon at the provided position using the height detail.
func (q *DtNavMeshQuery) GetPolyHeight(ref DtPolyRef, pos mgl32.Vec3) (float32, DtStatus) {
	if !q.nav.IsValidPolyRef(ref) {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	h, ok := q.polyHeight(refToIndex(ref), pos)
	if !ok {
		return 0, DT_FAILURE | DT_INVALID_PARAM
	}
	return h, DT_SUCCESS
}

// IsWalkable reports whether pos stands on a polygon within the vertical
// half extent, along with the nearest point on the mesh. The status fails
// when no polygon lies within the extents.
func (q *DtNavMeshQuery) IsWalkable(pos, halfExtents mgl32.Vec3, filter *DtQueryFilter) (bool, mgl32.Vec3, DtStatus) {
	ref, nearest, over, status := q.findNearestPoly(pos, halfExtents, filter)
	if status.Failed() {
		return false, pos, status
	}
	if ref == 0 {
		return false, pos, DT_FAILURE
	}
	walkable := over && float32(math.Abs(float64(nearest[1]-pos[1]))) <= halfExtents[1]
	return walkable, nearest, DT_SUCCESS
}

func (q *DtNavMeshQuery) getPortalPoints(from, to DtPolyRef) (left, right mgl32.Vec3, status DtStatus) {
	fromPoly := q.nav.GetPoly(from)
	if fromPoly == nil || !q.nav.IsValidPolyRef(to) {
		return left, right, DT_FAILURE | DT_INVALID_PARAM
	}
	toIdx := uint16(refToIndex(to))
	nv := int(fromPoly.VertCount)
	for j := 0; j < nv; j++ {
		if fromPoly.Neis[j] == toIdx {
			left = q.nav.vert(fromPoly.Verts[j])
			right = q.nav.vert(fromPoly.Verts[(j+1)%nv])
			return left, right, DT_SUCCESS
		}
	}
	return left, right, DT_FAILURE | DT_INVALID_PARAM
}

func (q *DtNavMeshQuery) getEdgeMidPoint(poly *DtPoly, edge int) mgl32.Vec3 {
	left := q.nav.vert(poly.Verts[edge])
	right := q.nav.vert(poly.Verts[(edge+1)%int(poly.VertCount)])
	return left.Add(right).Mul(0.5)
}

// / Finds a path from the start polygon to the end polygon.
// / If the end polygon cannot be reached the path to the polygon nearest to
// / it is returned with #DT_PARTIAL_RESULT and the state is Exhausted.
func (q *DtNavMeshQuery) FindPath(startRef, endRef DtPolyRef, startPos, endPos mgl32.Vec3, filter *DtQueryFilter) ([]DtPolyRef, DtStatus) {
	q.state = DtQueryUnstarted
	if filter == nil || !q.nav.IsValidPolyRef(startRef) || !q.nav.IsValidPolyRef(endRef) {
		q.state = DtQueryExhausted
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	q.state = DtQuerySearching

	if startRef == endRef {
		q.state = DtQueryPathFound
		return []DtPolyRef{startRef}, DT_SUCCESS
	}

	q.nodePool.Clear()
	q.openList.Clear()

	startNode := q.nodePool.GetNode(startRef)
	startNode.Pos = startPos
	startNode.Pidx = 0
	startNode.Cost = 0
	startNode.Total = dtVdist(startPos, endPos) * H_SCALE
	startNode.Flags = DT_NODE_OPEN
	q.openList.PushNode(startNode)

	lastBestNode := startNode
	lastBestNodeCost := startNode.Total
	outOfNodes := false

	for !q.openList.Empty() {
		// Remove node from open list and put it in closed list.
		bestNode := q.openList.PopNode()
		bestNode.Flags &^= DT_NODE_OPEN
		bestNode.Flags |= DT_NODE_CLOSED

		// Reached the goal, stop searching.
		if bestNode.Id == endRef {
			lastBestNode = bestNode
			break
		}

		bestPoly := &q.nav.Polys[refToIndex(bestNode.Id)]
		var parentRef DtPolyRef
		if parent := q.nodePool.GetNodeAtIdx(bestNode.Pidx); parent != nil {
			parentRef = parent.Id
		}

		for j := 0; j < int(bestPoly.VertCount); j++ {
			nei := bestPoly.Neis[j]
			if nei == DT_NULL_LINK || nei&DT_EXT_LINK != 0 {
				continue
			}
			neighbourRef := indexToRef(int(nei))
			// Do not expand back to where we came from.
			if neighbourRef == parentRef {
				continue
			}
			neighbourPoly := &q.nav.Polys[nei]
			if !filter.PassFilter(neighbourPoly) {
				continue
			}

			neighbourNode := q.nodePool.GetNode(neighbourRef)
			if neighbourNode == nil {
				outOfNodes = true
				continue
			}

			// If the node is visited the first time, calculate node position.
			if neighbourNode.Flags == 0 {
				neighbourNode.Pos = q.getEdgeMidPoint(bestPoly, j)
			}

			// Calculate cost and heuristic.
			var cost, heuristic float32
			curCost := filter.GetCost(bestNode.Pos, neighbourNode.Pos, bestPoly)
			if neighbourRef == endRef {
				// Special case for last node.
				endCost := filter.GetCost(neighbourNode.Pos, endPos, neighbourPoly)
				cost = bestNode.Cost + curCost + endCost
				heuristic = 0
			} else {
				cost = bestNode.Cost + curCost
				heuristic = dtVdist(neighbourNode.Pos, endPos) * H_SCALE
			}
			total := cost + heuristic

			// The node is already in open list and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_OPEN != 0 && total >= neighbourNode.Total {
				continue
			}
			// The node is already visited and process, and the new result is worse, skip.
			if neighbourNode.Flags&DT_NODE_CLOSED != 0 && total >= neighbourNode.Total {
				continue
			}

			// Add or update the node.
			neighbourNode.Pidx = q.nodePool.GetNodeIdx(bestNode)
			neighbourNode.Flags &^= DT_NODE_CLOSED
			neighbourNode.Cost = cost
			neighbourNode.Total = total

			if neighbourNode.Flags&DT_NODE_OPEN != 0 {
				// Already in open, update node location.
				q.openList.ModifyNode(neighbourNode)
			} else {
				// Put the node in open list.
				neighbourNode.Flags |= DT_NODE_OPEN
				q.openList.PushNode(neighbourNode)
			}

			// Update nearest node to target so far.
			if heuristic < lastBestNodeCost {
				lastBestNodeCost = heuristic
				lastBestNode = neighbourNode
			}
		}
	}

	path := q.getPathToNode(lastBestNode)
	status := DT_SUCCESS
	if lastBestNode.Id != endRef {
		status |= DT_PARTIAL_RESULT
		q.state = DtQueryExhausted
	} else {
		q.state = DtQueryPathFound
	}
	if outOfNodes {
		status |= DT_OUT_OF_NODES
	}
	return path, status
}

func (q *DtNavMeshQuery) getPathToNode(endNode *DtNode) []DtPolyRef {
	var path []DtPolyRef
	for node := endNode; node != nil; node = q.nodePool.GetNodeAtIdx(node.Pidx) {
		path = append(path, node.Id)
	}
	slices.Reverse(path)
	return path
}

type straightPath struct {
	points   []mgl32.Vec3
	flags    []uint8
	refs     []DtPolyRef
	maxPoint int
}

func (sp *straightPath) appendVertex(pos mgl32.Vec3, flags uint8, ref DtPolyRef) DtStatus {
	if n := len(sp.points); n > 0 && dtVequal(sp.points[n-1], pos) {
		// The vertices are equal, update flags and poly.
		sp.flags[n-1] = flags
		sp.refs[n-1] = ref
		return DT_IN_PROGRESS
	}
	sp.points = append(sp.points, pos)
	sp.flags = append(sp.flags, flags)
	sp.refs = append(sp.refs, ref)

	// If there is no space to append more vertices, return.
	if sp.maxPoint > 0 && len(sp.points) >= sp.maxPoint {
		return DT_SUCCESS | DT_BUFFER_TOO_SMALL
	}
	// If reached end of path, return.
	if flags == DT_STRAIGHTPATH_END {
		return DT_SUCCESS
	}
	return DT_IN_PROGRESS
}

// / Finds the straight path from the start to the end position within the polygon corridor.
// / maxStraightPath <= 0 means unbounded. The returned slices are parallel.
func (q *DtNavMeshQuery) FindStraightPath(startPos, endPos mgl32.Vec3, path []DtPolyRef, maxStraightPath int) (points []mgl32.Vec3, flags []uint8, refs []DtPolyRef, status DtStatus) {
	if len(path) == 0 {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	closestStartPos, st := q.ClosestPointOnPolyBoundary(path[0], startPos)
	if st.Failed() {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}
	closestEndPos, st := q.ClosestPointOnPolyBoundary(path[len(path)-1], endPos)
	if st.Failed() {
		return nil, nil, nil, DT_FAILURE | DT_INVALID_PARAM
	}

	sp := &straightPath{maxPoint: maxStraightPath}
	done := func(stat DtStatus) ([]mgl32.Vec3, []uint8, []DtPolyRef, DtStatus) {
		return sp.points, sp.flags, sp.refs, stat
	}

	// Add start point.
	if stat := sp.appendVertex(closestStartPos, DT_STRAIGHTPATH_START, path[0]); stat != DT_IN_PROGRESS {
		return done(stat)
	}

	if len(path) > 1 {
		portalApex := closestStartPos
		portalLeft := portalApex
		portalRight := portalApex
		apexIndex := 0
		leftIndex := 0
		rightIndex := 0
		leftPolyRef := path[0]
		rightPolyRef := path[0]

		for i := 0; i < len(path); i++ {
			var left, right mgl32.Vec3
			var toRef DtPolyRef
			if i+1 < len(path) {
				toRef = path[i+1]
				// Next portal.
				var pst DtStatus
				left, right, pst = q.getPortalPoints(path[i], path[i+1])
				if pst.Failed() {
					// The corridor is broken, end the path on the last valid polygon.
					closestEndPos, _ = q.ClosestPointOnPolyBoundary(path[i], endPos)
					stat := sp.appendVertex(closestEndPos, 0, path[i])
					return done(DT_SUCCESS | DT_PARTIAL_RESULT | (stat & DT_BUFFER_TOO_SMALL))
				}

				// If starting really close the portal, advance.
				if i == 0 {
					if _, d := DtDistancePtSegSqr2D(portalApex, left, right); d < 0.001*0.001 {
						continue
					}
				}
			} else {
				// End of the path.
				left = closestEndPos
				right = closestEndPos
			}

			// Right vertex.
			if DtTriArea2D(portalApex, portalRight, right) <= 0 {
				if dtVequal(portalApex, portalRight) || DtTriArea2D(portalApex, portalLeft, right) > 0 {
					portalRight = right
					rightPolyRef = toRef
					rightIndex = i
				} else {
					portalApex = portalLeft
					apexIndex = leftIndex

					if stat := sp.appendVertex(portalApex, 0, leftPolyRef); stat != DT_IN_PROGRESS {
						return done(stat)
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}

			// Left vertex.
			if DtTriArea2D(portalApex, portalLeft, left) >= 0 {
				if dtVequal(portalApex, portalLeft) || DtTriArea2D(portalApex, portalRight, left) < 0 {
					portalLeft = left
					leftPolyRef = toRef
					leftIndex = i
				} else {
					portalApex = portalRight
					apexIndex = rightIndex

					if stat := sp.appendVertex(portalApex, 0, rightPolyRef); stat != DT_IN_PROGRESS {
						return done(stat)
					}

					portalLeft = portalApex
					portalRight = portalApex
					leftIndex = apexIndex
					rightIndex = apexIndex

					// Restart
					i = apexIndex
					continue
				}
			}
		}
	}

	// Ignore status return value as we're just about to return anyway.
	stat := sp.appendVertex(closestEndPos, DT_STRAIGHTPATH_END, 0)
	return done(DT_SUCCESS | (stat & DT_BUFFER_TOO_SMALL))
}
