package recast

import (
	"fmt"
	"slices"

	"github.com/gorustyt/navcore/common"
)

const vertexBucketCount = 1 << 12

// / Represents a polygon mesh suitable for use in building a navigation mesh.
type RcPolyMesh struct {
	Verts        []int      ///< The mesh vertices. [Form: (x, y, z) * #nverts]
	Polys        []int      ///< Polygon and neighbor data. [Length: #npolys * 2 * #nvp]
	Regs         []int      ///< The region id assigned to each polygon. [Length: #npolys]
	Flags        []int      ///< The user defined flags for each polygon. [Length: #npolys]
	Areas        []int      ///< The area id assigned to each polygon. [Length: #npolys]
	Nverts       int        ///< The number of vertices.
	Npolys       int        ///< The number of polygons.
	Maxpolys     int        ///< The number of allocated polygons during the build.
	Nvp          int        ///< The maximum number of vertices per polygon.
	Bmin         [3]float64 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax         [3]float64 ///< The maximum bounds in world space. [(x, y, z)]
	Cs           float64    ///< The size of each cell. (On the xz-plane.)
	Ch           float64    ///< The height of each cell. (The minimum increment along the y-axis.)
	BorderSize   int        ///< The AABB border size used to generate the source data from which the mesh was derived.
	MaxEdgeError float64    ///< The max error of the polygon edges in the mesh.
}

// Poly returns the vertex and neighbour slots of polygon i.
func (mesh *RcPolyMesh) Poly(i int) []int {
	return mesh.Polys[i*mesh.Nvp*2 : (i+1)*mesh.Nvp*2]
}

// PolyVertCount returns the number of used vertex slots of polygon i.
func (mesh *RcPolyMesh) PolyVertCount(i int) int {
	return countPolyVerts(mesh.Poly(i), mesh.Nvp)
}

type rcEdge struct {
	vert     [2]int
	polyEdge [2]int
	poly     [2]int
}

func buildMeshAdjacency(polys []int, npolys, nverts, vertsPerPoly int) {
	// Based on code by Eric Lengyel from:
	// https://web.archive.org/web/20080704083314/http://www.terathon.com/code/edges.php
	maxEdgeCount := npolys * vertsPerPoly
	firstEdge := make([]int, nverts)
	nextEdge := make([]int, maxEdgeCount)
	edges := make([]rcEdge, 0, maxEdgeCount)
	for i := range firstEdge {
		firstEdge[i] = RC_MESH_NULL_IDX
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0 := t[j]
			v1 := t[0]
			if j+1 < vertsPerPoly && t[j+1] != RC_MESH_NULL_IDX {
				v1 = t[j+1]
			}
			if v0 < v1 {
				// Insert edge
				nextEdge[len(edges)] = firstEdge[v0]
				firstEdge[v0] = len(edges)
				edges = append(edges, rcEdge{
					vert:     [2]int{v0, v1},
					poly:     [2]int{i, i},
					polyEdge: [2]int{j, 0},
				})
			}
		}
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0 := t[j]
			v1 := t[0]
			if j+1 < vertsPerPoly && t[j+1] != RC_MESH_NULL_IDX {
				v1 = t[j+1]
			}
			if v0 > v1 {
				for e := firstEdge[v1]; e != RC_MESH_NULL_IDX; e = nextEdge[e] {
					edge := &edges[e]
					if edge.vert[1] == v0 && edge.poly[0] == edge.poly[1] {
						edge.poly[1] = i
						edge.polyEdge[1] = j
						break
					}
				}
			}
		}
	}

	// Store adjacency
	for _, e := range edges {
		if e.poly[0] != e.poly[1] {
			p0 := polys[e.poly[0]*vertsPerPoly*2:]
			p1 := polys[e.poly[1]*vertsPerPoly*2:]
			p0[vertsPerPoly+e.polyEdge[0]] = e.poly[1]
			p1[vertsPerPoly+e.polyEdge[1]] = e.poly[0]
		}
	}
}

func computeVertexHash(x, y, z int) int {
	const h1 uint32 = 0x8da6b343 // Large multiplicative constants;
	const h2 uint32 = 0xd8163841 // here arbitrarily chosen primes
	const h3 uint32 = 0xcb1ab31f
	n := h1*uint32(int32(x)) + h2*uint32(int32(y)) + h3*uint32(int32(z))
	return int(n & (vertexBucketCount - 1))
}

// vertexWelder merges grid vertices sharing x and z whose heights differ by
// at most two cells.
type vertexWelder struct {
	verts     []int
	firstVert [vertexBucketCount]int
	nextVert  []int
}

func newVertexWelder(capacity int) *vertexWelder {
	w := &vertexWelder{
		verts:    make([]int, 0, capacity*3),
		nextVert: make([]int, 0, capacity),
	}
	for i := range w.firstVert {
		w.firstVert[i] = -1
	}
	return w
}

func (w *vertexWelder) add(x, y, z int) int {
	bucket := computeVertexHash(x, 0, z)
	for i := w.firstVert[bucket]; i != -1; i = w.nextVert[i] {
		v := w.verts[i*3:]
		if v[0] == x && common.Abs(v[1]-y) <= 2 && v[2] == z {
			return i
		}
	}
	// Could not find, create new.
	i := len(w.nextVert)
	w.verts = append(w.verts, x, y, z)
	w.nextVert = append(w.nextVert, w.firstVert[bucket])
	w.firstVert[bucket] = i
	return i
}

const (
	triFlagRemovable = 0x80000000
	triIndexMask     = 0x0fffffff
)

func triVert(verts, indices []int, i int) []int {
	return common.GetVert4(verts, indices[i]&triIndexMask)
}

// diagonalie reports whether (v_i, v_j) is a proper internal *or* external
// diagonal of P, *ignoring edges incident to v_i and v_j*.
func diagonalie(i, j, n int, verts, indices []int, loose bool) bool {
	d0 := triVert(verts, indices, i)
	d1 := triVert(verts, indices, j)

	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := common.Next(k, n)
		// Skip edges incident to i or j
		if k == i || k1 == i || k == j || k1 == j {
			continue
		}
		p0 := triVert(verts, indices, k)
		p1 := triVert(verts, indices, k1)
		if common.Vequal2D(d0, p0) || common.Vequal2D(d1, p0) || common.Vequal2D(d0, p1) || common.Vequal2D(d1, p1) {
			continue
		}
		if loose {
			if common.IntersectProp(d0, d1, p0, p1) {
				return false
			}
		} else if common.Intersect(d0, d1, p0, p1) {
			return false
		}
	}
	return true
}

// inCone reports whether the diagonal (i,j) is strictly internal to the
// polygon in the neighborhood of the i endpoint.
func inCone(i, j, n int, verts, indices []int, loose bool) bool {
	pi := triVert(verts, indices, i)
	pj := triVert(verts, indices, j)
	pi1 := triVert(verts, indices, common.Next(i, n))
	pin1 := triVert(verts, indices, common.Prev(i, n))

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if common.LeftOn(pin1, pi, pi1) {
		if loose {
			return common.LeftOn(pi, pj, pin1) && common.LeftOn(pj, pi, pi1)
		}
		return common.Left(pi, pj, pin1) && common.Left(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(common.LeftOn(pi, pj, pi1) && common.LeftOn(pj, pi, pin1))
}

func diagonal(i, j, n int, verts, indices []int, loose bool) bool {
	return inCone(i, j, n, verts, indices, loose) && diagonalie(i, j, n, verts, indices, loose)
}

// triangulate ear-clips the polygon given by indices into verts (stride 4).
// Triangles go to tris; the count is negated when the outline had to be
// abandoned part way.
func triangulate(n int, verts []int, indices []int, tris []int) int {
	ntris := 0
	emit := func(a, b, c int) {
		tris[ntris*3+0] = a & triIndexMask
		tris[ntris*3+1] = b & triIndexMask
		tris[ntris*3+2] = c & triIndexMask
		ntris++
	}

	// The last bit of the index is used to indicate if the vertex can be removed.
	for i := 0; i < n; i++ {
		i1 := common.Next(i, n)
		i2 := common.Next(i1, n)
		if diagonal(i, i2, n, verts, indices, false) {
			indices[i1] |= triFlagRemovable
		}
	}

	earLen := func(i, j int) int {
		p0 := triVert(verts, indices, i)
		p2 := triVert(verts, indices, j)
		dx := p2[0] - p0[0]
		dy := p2[2] - p0[2]
		return dx*dx + dy*dy
	}

	for n > 3 {
		minLen := -1
		mini := -1
		for i := 0; i < n; i++ {
			i1 := common.Next(i, n)
			if indices[i1]&triFlagRemovable != 0 {
				l := earLen(i, common.Next(i1, n))
				if minLen < 0 || l < minLen {
					minLen = l
					mini = i
				}
			}
		}

		if mini == -1 {
			// We might get here because the contour has overlapping segments.
			// Try to recover by loosing up the inCone test a bit so that a
			// diagonal across the overlap can be found and we can continue.
			minLen = -1
			for i := 0; i < n; i++ {
				i1 := common.Next(i, n)
				i2 := common.Next(i1, n)
				if diagonal(i, i2, n, verts, indices, true) {
					l := earLen(i, i2)
					if minLen < 0 || l < minLen {
						minLen = l
						mini = i
					}
				}
			}
			if mini == -1 {
				// The contour is messed up. This sometimes happens
				// if the contour simplification is too aggressive.
				return -ntris
			}
		}

		i := mini
		i1 := common.Next(i, n)
		i2 := common.Next(i1, n)

		emit(indices[i], indices[i1], indices[i2])

		// Removes P[i1] by copying P[i+1]...P[n-1] left one index.
		n--
		copy(indices[i1:n], indices[i1+1:n+1])

		if i1 >= n {
			i1 = 0
		}
		i = common.Prev(i1, n)
		// Update diagonal flags.
		if diagonal(common.Prev(i, n), i1, n, verts, indices, false) {
			indices[i] |= triFlagRemovable
		} else {
			indices[i] &= triIndexMask
		}
		if diagonal(i, common.Next(i1, n), n, verts, indices, false) {
			indices[i1] |= triFlagRemovable
		} else {
			indices[i1] &= triIndexMask
		}
	}

	// Append the remaining triangle.
	emit(indices[0], indices[1], indices[2])
	return ntris
}

func countPolyVerts(p []int, nvp int) int {
	for i := 0; i < nvp; i++ {
		if p[i] == RC_MESH_NULL_IDX {
			return i
		}
	}
	return nvp
}

func polyVert(verts []int, i int) []int {
	return verts[i*3 : i*3+3]
}

// getPolyMergeValue returns the squared length of the single edge shared by
// pa and pb when merging them keeps the result convex and within nvp
// vertices, and -1 otherwise.
func getPolyMergeValue(pa, pb []int, verts []int, nvp int) (val, ea, eb int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// If the merged polygon would be too big, do not merge.
	if na+nb-2 > nvp {
		return -1, -1, -1
	}

	// Check if the polygons share an edge.
	ea, eb = -1, -1
	shared := 0
	for i := 0; i < na; i++ {
		va0 := pa[i]
		va1 := pa[(i+1)%na]
		if va0 > va1 {
			va0, va1 = va1, va0
		}
		for j := 0; j < nb; j++ {
			vb0 := pb[j]
			vb1 := pb[(j+1)%nb]
			if vb0 > vb1 {
				vb0, vb1 = vb1, vb0
			}
			if va0 == vb0 && va1 == vb1 {
				ea = i
				eb = j
				shared++
			}
		}
	}

	// No common edge, cannot merge.
	if shared != 1 {
		return -1, -1, -1
	}

	// Check to see if the merged polygon would be convex.
	va := pa[(ea+na-1)%na]
	vb := pa[ea]
	vc := pb[(eb+2)%nb]
	if !common.Uleft(polyVert(verts, va), polyVert(verts, vb), polyVert(verts, vc)) {
		return -1, -1, -1
	}

	va = pb[(eb+nb-1)%nb]
	vb = pb[eb]
	vc = pa[(ea+2)%na]
	if !common.Uleft(polyVert(verts, va), polyVert(verts, vb), polyVert(verts, vc)) {
		return -1, -1, -1
	}

	va = pa[ea]
	vb = pa[(ea+1)%na]

	dx := verts[va*3+0] - verts[vb*3+0]
	dy := verts[va*3+2] - verts[vb*3+2]
	return dx*dx + dy*dy, ea, eb
}

func mergePolyVerts(pa, pb []int, ea, eb int, tmp []int, nvp int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// Merge polygons.
	for i := range tmp[:nvp] {
		tmp[i] = RC_MESH_NULL_IDX
	}
	n := 0
	// Add pa
	for i := 0; i < na-1; i++ {
		tmp[n] = pa[(ea+1+i)%na]
		n++
	}
	// Add pb
	for i := 0; i < nb-1; i++ {
		tmp[n] = pb[(eb+1+i)%nb]
		n++
	}
	copy(pa[:nvp], tmp[:nvp])
}

// mergeConvexPolys greedily merges the pair with the longest shared edge
// until no merge is possible. onMerge sees the surviving and removed
// polygon indices before the last polygon is moved into the removed slot.
func mergeConvexPolys(polys []int, npolys int, verts []int, nvp int, onMerge func(pa, pb, last int)) int {
	tmp := make([]int, nvp)
	for {
		// Find best polygons to merge.
		bestMergeVal := 0
		bestPa, bestPb, bestEa, bestEb := 0, 0, 0, 0

		for j := 0; j < npolys-1; j++ {
			pj := polys[j*nvp : (j+1)*nvp]
			for k := j + 1; k < npolys; k++ {
				pk := polys[k*nvp : (k+1)*nvp]
				v, ea, eb := getPolyMergeValue(pj, pk, verts, nvp)
				if v > bestMergeVal {
					bestMergeVal = v
					bestPa = j
					bestPb = k
					bestEa = ea
					bestEb = eb
				}
			}
		}

		if bestMergeVal <= 0 {
			return npolys
		}
		// Found best, merge.
		pa := polys[bestPa*nvp : (bestPa+1)*nvp]
		pb := polys[bestPb*nvp : (bestPb+1)*nvp]
		mergePolyVerts(pa, pb, bestEa, bestEb, tmp, nvp)
		if onMerge != nil {
			onMerge(bestPa, bestPb, npolys-1)
		}
		if bestPb != npolys-1 {
			copy(pb, polys[(npolys-1)*nvp:npolys*nvp])
		}
		npolys--
	}
}

func canRemoveVertex(mesh *RcPolyMesh, rem int) bool {
	nvp := mesh.Nvp

	// Count number of polygons to remove.
	numTouchedVerts := 0
	numRemainingEdges := 0
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		numRemoved := 0
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				numTouchedVerts++
				numRemoved++
			}
		}
		if numRemoved > 0 {
			numRemainingEdges += nv - (numRemoved + 1)
		}
	}

	// There would be too few edges remaining to create a polygon.
	// This can happen for example when a tip of a triangle is marked
	// as deletion, but there are no other polys that share the vertex.
	// In this case, the vertex should not be removed.
	if numRemainingEdges <= 2 {
		return false
	}

	// Find edges which share the removed vertex.
	edges := make([][3]int, 0, numTouchedVerts*2)
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)

		// Collect edges which touches the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				continue
			}
			// Arrange edge so that a=rem.
			a, b := p[j], p[k]
			if b == rem {
				a, b = b, a
			}
			// Check if the edge exists
			exists := false
			for m := range edges {
				if edges[m][1] == b {
					// Exists, increment vertex share count.
					edges[m][2]++
					exists = true
				}
			}
			// Add new edge.
			if !exists {
				edges = append(edges, [3]int{a, b, 1})
			}
		}
	}

	// There should be no more than 2 open edges.
	// This catches the case that two non-adjacent polygons
	// share the removed vertex. In that case, do not remove the vertex.
	numOpenEdges := 0
	for _, e := range edges {
		if e[2] < 2 {
			numOpenEdges++
		}
	}
	return numOpenEdges <= 2
}

func removeVertex(ctx *RcContext, mesh *RcPolyMesh, rem, maxTris int) error {
	nvp := mesh.Nvp

	type holeEdge struct{ a, b, reg, area int }
	var edges []holeEdge

	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		if !slices.Contains(p[:nv], rem) {
			continue
		}
		// Collect edges which does not touch the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				edges = append(edges, holeEdge{p[k], p[j], mesh.Regs[i], mesh.Areas[i]})
			}
		}
		// Remove the polygon.
		last := mesh.Npolys - 1
		if i != last {
			copy(p[:nvp], mesh.Poly(last)[:nvp])
		}
		for j := nvp; j < nvp*2; j++ {
			p[j] = RC_MESH_NULL_IDX
		}
		mesh.Regs[i] = mesh.Regs[last]
		mesh.Areas[i] = mesh.Areas[last]
		mesh.Npolys--
		i--
	}

	// Remove vertex.
	copy(mesh.Verts[rem*3:], mesh.Verts[(rem+1)*3:mesh.Nverts*3])
	mesh.Nverts--

	// Adjust indices to match the removed vertex layout.
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)
		for j := 0; j < nv; j++ {
			if p[j] > rem {
				p[j]--
			}
		}
	}
	for i := range edges {
		if edges[i].a > rem {
			edges[i].a--
		}
		if edges[i].b > rem {
			edges[i].b--
		}
	}

	if len(edges) == 0 {
		return nil
	}

	// Start with one vertex, keep appending connected
	// segments to the start and end of the hole.
	hole := []int{edges[0].a}
	hreg := []int{edges[0].reg}
	harea := []int{edges[0].area}

	for len(edges) > 0 {
		match := false
		for i := 0; i < len(edges); i++ {
			e := edges[i]
			add := false
			if hole[0] == e.b {
				// The segment matches the beginning of the hole boundary.
				hole = slices.Insert(hole, 0, e.a)
				hreg = slices.Insert(hreg, 0, e.reg)
				harea = slices.Insert(harea, 0, e.area)
				add = true
			} else if hole[len(hole)-1] == e.a {
				// The segment matches the end of the hole boundary.
				hole = append(hole, e.b)
				hreg = append(hreg, e.reg)
				harea = append(harea, e.area)
				add = true
			}
			if add {
				// The edge segment was added, remove it.
				edges[i] = edges[len(edges)-1]
				edges = edges[:len(edges)-1]
				match = true
				i--
			}
		}
		if !match {
			break
		}
	}

	nhole := len(hole)
	tris := make([]int, nhole*3)
	tverts := make([]int, nhole*4)
	thole := make([]int, nhole)

	// Generate temp vertex array for triangulation.
	for i, pi := range hole {
		copy(tverts[i*4:i*4+3], mesh.Verts[pi*3:pi*3+3])
		thole[i] = i
	}

	// Triangulate the hole.
	ntris := triangulate(nhole, tverts, thole, tris)
	if ntris < 0 {
		ntris = -ntris
		ctx.Warnf("removeVertex: triangulate() returned bad results")
	}

	// Merge the hole triangles back to polygons.
	polys := make([]int, ntris*nvp)
	pregs := make([]int, 0, ntris)
	pareas := make([]int, 0, ntris)
	for i := range polys {
		polys[i] = RC_MESH_NULL_IDX
	}

	// Build initial polygons.
	npolys := 0
	for j := 0; j < ntris; j++ {
		t := tris[j*3:]
		if t[0] == t[1] || t[0] == t[2] || t[1] == t[2] {
			continue
		}
		polys[npolys*nvp+0] = hole[t[0]]
		polys[npolys*nvp+1] = hole[t[1]]
		polys[npolys*nvp+2] = hole[t[2]]
		// If this polygon covers multiple region types then
		// mark it as such
		if hreg[t[0]] != hreg[t[1]] || hreg[t[1]] != hreg[t[2]] {
			pregs = append(pregs, RC_MULTIPLE_REGS)
		} else {
			pregs = append(pregs, hreg[t[0]])
		}
		pareas = append(pareas, harea[t[0]])
		npolys++
	}
	if npolys == 0 {
		return nil
	}

	// Merge polygons.
	if nvp > 3 {
		npolys = mergeConvexPolys(polys, npolys, mesh.Verts, nvp, func(pa, pb, last int) {
			if pregs[pa] != pregs[pb] {
				pregs[pa] = RC_MULTIPLE_REGS
			}
			pregs[pb] = pregs[last]
			pareas[pb] = pareas[last]
		})
	}

	// Store polygons.
	for i := 0; i < npolys; i++ {
		if mesh.Npolys >= maxTris {
			break
		}
		p := mesh.Poly(mesh.Npolys)
		for j := range p {
			p[j] = RC_MESH_NULL_IDX
		}
		copy(p[:nvp], polys[i*nvp:(i+1)*nvp])
		mesh.Regs[mesh.Npolys] = pregs[i]
		mesh.Areas[mesh.Npolys] = pareas[i]
		mesh.Npolys++
		if mesh.Npolys > maxTris {
			return fmt.Errorf("%w: %d (max %d)", ErrTooManyPolygons, mesh.Npolys, maxTris)
		}
	}
	return nil
}

// / Builds a polygon mesh from the provided contours.
// /
// / Each contour is triangulated, triangles are greedily merged into convex
// / polygons of at most @p nvp vertices, vertices flagged on the tile border
// / are removed where possible and edge adjacency is computed last.
func RcBuildPolyMesh(ctx *RcContext, cset *RcContourSet, nvp int) (*RcPolyMesh, error) {
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESH)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESH)

	if nvp < 3 || nvp > RC_MAX_VERTS_PER_POLY {
		return nil, fmt.Errorf("%w: verts per poly %d out of [3, %d]", ErrInvalidConfig, nvp, RC_MAX_VERTS_PER_POLY)
	}

	mesh := &RcPolyMesh{
		Bmin:         cset.Bmin,
		Bmax:         cset.Bmax,
		Cs:           cset.Cs,
		Ch:           cset.Ch,
		BorderSize:   cset.BorderSize,
		MaxEdgeError: cset.MaxError,
		Nvp:          nvp,
	}

	maxVertices := 0
	maxTris := 0
	maxVertsPerCont := 0
	for _, c := range cset.Conts {
		// Skip null contours.
		if c.Nverts < 3 {
			continue
		}
		maxVertices += c.Nverts
		maxTris += c.Nverts - 2
		maxVertsPerCont = max(maxVertsPerCont, c.Nverts)
	}

	if maxVertices >= 0xfffe {
		ctx.Errorf("rcBuildPolyMesh: Too many vertices %d", maxVertices)
		return nil, fmt.Errorf("%w: %d", ErrTooManyVertices, maxVertices)
	}

	vflags := make([]bool, maxVertices)
	mesh.Polys = make([]int, maxTris*nvp*2)
	for i := range mesh.Polys {
		mesh.Polys[i] = RC_MESH_NULL_IDX
	}
	mesh.Regs = make([]int, maxTris)
	mesh.Areas = make([]int, maxTris)
	mesh.Maxpolys = maxTris

	welder := newVertexWelder(maxVertices)
	indices := make([]int, maxVertsPerCont)
	tris := make([]int, maxVertsPerCont*3)
	polys := make([]int, maxVertsPerCont*nvp)

	for ci, cont := range cset.Conts {
		// Skip null contours.
		if cont.Nverts < 3 {
			continue
		}

		// Triangulate contour
		for j := 0; j < cont.Nverts; j++ {
			indices[j] = j
		}
		ntris := triangulate(cont.Nverts, cont.Verts, indices[:cont.Nverts], tris)
		if ntris <= 0 {
			ctx.Warnf("rcBuildPolyMesh: Bad triangulation Contour %d, skipped", ci)
			continue
		}

		// Add and merge vertices.
		for j := 0; j < cont.Nverts; j++ {
			v := common.GetVert4(cont.Verts, j)
			indices[j] = welder.add(v[0], v[1], v[2])
			if v[3]&RC_BORDER_VERTEX != 0 {
				// This vertex should be removed.
				vflags[indices[j]] = true
			}
		}

		// Build initial polygons.
		npolys := 0
		for j := range polys {
			polys[j] = RC_MESH_NULL_IDX
		}
		for j := 0; j < ntris; j++ {
			t := tris[j*3:]
			if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
				polys[npolys*nvp+0] = indices[t[0]]
				polys[npolys*nvp+1] = indices[t[1]]
				polys[npolys*nvp+2] = indices[t[2]]
				npolys++
			}
		}
		if npolys == 0 {
			continue
		}

		// Merge polygons.
		if nvp > 3 {
			npolys = mergeConvexPolys(polys, npolys, welder.verts, nvp, nil)
		}

		// Store polygons.
		for j := 0; j < npolys; j++ {
			if mesh.Npolys >= maxTris {
				ctx.Errorf("rcBuildPolyMesh: Too many polygons %d (max:%d)", mesh.Npolys+1, maxTris)
				return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyPolygons, mesh.Npolys+1, maxTris)
			}
			p := mesh.Poly(mesh.Npolys)
			copy(p[:nvp], polys[j*nvp:(j+1)*nvp])
			mesh.Regs[mesh.Npolys] = cont.Reg
			mesh.Areas[mesh.Npolys] = cont.Area
			mesh.Npolys++
		}
	}
	mesh.Verts = welder.verts
	mesh.Nverts = len(welder.verts) / 3

	// Remove edge vertices.
	for i := 0; i < mesh.Nverts; i++ {
		if !vflags[i] {
			continue
		}
		if !canRemoveVertex(mesh, i) {
			continue
		}
		if err := removeVertex(ctx, mesh, i, maxTris); err != nil {
			// Failed to remove vertex
			ctx.Errorf("rcBuildPolyMesh: Failed to remove edge vertex %d", i)
			return nil, err
		}
		// Remove vertex
		// Note: mesh.nverts is already decremented inside removeVertex()!
		// Fixup vertex flags
		copy(vflags[i:], vflags[i+1:mesh.Nverts+1])
		i--
	}
	mesh.Verts = mesh.Verts[:mesh.Nverts*3]
	mesh.Polys = mesh.Polys[:mesh.Npolys*nvp*2]
	mesh.Regs = mesh.Regs[:mesh.Npolys]
	mesh.Areas = mesh.Areas[:mesh.Npolys]

	// Calculate adjacency.
	buildMeshAdjacency(mesh.Polys, mesh.Npolys, mesh.Nverts, nvp)

	// Find portal edges
	if mesh.BorderSize > 0 {
		w := cset.Width
		h := cset.Height
		for i := 0; i < mesh.Npolys; i++ {
			p := mesh.Poly(i)
			for j := 0; j < nvp; j++ {
				if p[j] == RC_MESH_NULL_IDX {
					break
				}
				// Skip connected edges.
				if p[nvp+j] != RC_MESH_NULL_IDX {
					continue
				}
				nj := j + 1
				if nj >= nvp || p[nj] == RC_MESH_NULL_IDX {
					nj = 0
				}
				va := polyVert(mesh.Verts, p[j])
				vb := polyVert(mesh.Verts, p[nj])

				if va[0] == 0 && vb[0] == 0 {
					p[nvp+j] = 0x8000 | 0
				} else if va[2] == h && vb[2] == h {
					p[nvp+j] = 0x8000 | 1
				} else if va[0] == w && vb[0] == w {
					p[nvp+j] = 0x8000 | 2
				} else if va[2] == 0 && vb[2] == 0 {
					p[nvp+j] = 0x8000 | 3
				}
			}
		}
	}

	// Just allocate the mesh flags array. The user is resposible to fill it.
	mesh.Flags = make([]int, mesh.Npolys)

	if mesh.Nverts > 0xffff {
		ctx.Errorf("rcBuildPolyMesh: The resulting mesh has too many vertices %d (max %d). Data can be corrupted", mesh.Nverts, 0xffff)
		return nil, fmt.Errorf("%w: %d", ErrTooManyVertices, mesh.Nverts)
	}
	if mesh.Npolys > 0xffff {
		ctx.Errorf("rcBuildPolyMesh: The resulting mesh has too many polygons %d (max %d). Data can be corrupted", mesh.Npolys, 0xffff)
		return nil, fmt.Errorf("%w: %d", ErrTooManyPolygons, mesh.Npolys)
	}
	return mesh, nil
}
