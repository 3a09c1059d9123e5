package recast

import (
	"fmt"

	"github.com/gorustyt/navcore/common"
	"gopkg.in/eapache/queue.v1"
)

func calculateDistanceField(chf *RcCompactHeightfield, src []int) (maxDist int) {
	w := chf.Width
	h := chf.Height

	// Init distance and points.
	for i := 0; i < chf.SpanCount; i++ {
		src[i] = 0xffff
	}

	// Mark boundary cells.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				area := chf.Areas[i]
				nc := 0
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(s, dir) != RC_NOT_CONNECTED {
						ax := x + common.GetDirOffsetX(dir)
						ay := y + common.GetDirOffsetY(dir)
						ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, dir)
						if area == chf.Areas[ai] {
							nc++
						}
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}

	relax := func(i, ai, step int) {
		if src[ai]+step < src[i] {
			src[i] = src[ai] + step
		}
	}

	// Pass 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if rcGetCon(s, 0) != RC_NOT_CONNECTED {
					// (-1,0)
					ax := x + common.GetDirOffsetX(0)
					ay := y + common.GetDirOffsetY(0)
					ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, 0)
					as := &chf.Spans[ai]
					relax(i, ai, 2)
					// (-1,-1)
					if rcGetCon(as, 3) != RC_NOT_CONNECTED {
						aax := ax + common.GetDirOffsetX(3)
						aay := ay + common.GetDirOffsetY(3)
						aai := chf.Cells[aax+aay*w].Index + rcGetCon(as, 3)
						relax(i, aai, 3)
					}
				}
				if rcGetCon(s, 3) != RC_NOT_CONNECTED {
					// (0,-1)
					ax := x + common.GetDirOffsetX(3)
					ay := y + common.GetDirOffsetY(3)
					ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, 3)
					as := &chf.Spans[ai]
					relax(i, ai, 2)
					// (1,-1)
					if rcGetCon(as, 2) != RC_NOT_CONNECTED {
						aax := ax + common.GetDirOffsetX(2)
						aay := ay + common.GetDirOffsetY(2)
						aai := chf.Cells[aax+aay*w].Index + rcGetCon(as, 2)
						relax(i, aai, 3)
					}
				}
			}
		}
	}

	// Pass 2
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				if rcGetCon(s, 2) != RC_NOT_CONNECTED {
					// (1,0)
					ax := x + common.GetDirOffsetX(2)
					ay := y + common.GetDirOffsetY(2)
					ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, 2)
					as := &chf.Spans[ai]
					relax(i, ai, 2)
					// (1,1)
					if rcGetCon(as, 1) != RC_NOT_CONNECTED {
						aax := ax + common.GetDirOffsetX(1)
						aay := ay + common.GetDirOffsetY(1)
						aai := chf.Cells[aax+aay*w].Index + rcGetCon(as, 1)
						relax(i, aai, 3)
					}
				}
				if rcGetCon(s, 1) != RC_NOT_CONNECTED {
					// (0,1)
					ax := x + common.GetDirOffsetX(1)
					ay := y + common.GetDirOffsetY(1)
					ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, 1)
					as := &chf.Spans[ai]
					relax(i, ai, 2)
					// (-1,1)
					if rcGetCon(as, 0) != RC_NOT_CONNECTED {
						aax := ax + common.GetDirOffsetX(0)
						aay := ay + common.GetDirOffsetY(0)
						aai := chf.Cells[aax+aay*w].Index + rcGetCon(as, 0)
						relax(i, aai, 3)
					}
				}
			}
		}
	}

	for i := 0; i < chf.SpanCount; i++ {
		maxDist = max(src[i], maxDist)
	}
	return maxDist
}

func boxBlur(chf *RcCompactHeightfield, thr int, src, dst []int) []int {
	w := chf.Width
	h := chf.Height
	thr *= 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				s := &chf.Spans[i]
				cd := src[i]
				if cd <= thr {
					dst[i] = cd
					continue
				}
				d := cd
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(s, dir) == RC_NOT_CONNECTED {
						d += cd * 2
						continue
					}
					ax := x + common.GetDirOffsetX(dir)
					ay := y + common.GetDirOffsetY(dir)
					ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, dir)
					d += src[ai]

					as := &chf.Spans[ai]
					dir2 := (dir + 1) & 0x3
					if rcGetCon(as, dir2) != RC_NOT_CONNECTED {
						ax2 := ax + common.GetDirOffsetX(dir2)
						ay2 := ay + common.GetDirOffsetY(dir2)
						ai2 := chf.Cells[ax2+ay2*w].Index + rcGetCon(as, dir2)
						d += src[ai2]
					} else {
						d += cd
					}
				}
				dst[i] = (d + 5) / 9
			}
		}
	}
	return dst
}

// / Builds the distance field for the specified compact heightfield.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD)

	src := make([]int, chf.SpanCount)
	dst := make([]int, chf.SpanCount)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)
	chf.MaxDistance = calculateDistanceField(chf, src)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	// Blur
	chf.Dist = boxBlur(chf, 1, src, dst)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
}

func paintRectRegion(minx, maxx, miny, maxy, regID int, chf *RcCompactHeightfield, srcReg []int) {
	w := chf.Width
	for y := miny; y < maxy; y++ {
		for x := minx; x < maxx; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					srcReg[i] = regID
				}
			}
		}
	}
}

type levelStackEntry struct {
	x, y, index int
}

func floodRegion(x, y, i, level, r int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *Stack[levelStackEntry]) bool {
	w := chf.Width
	area := chf.Areas[i]

	// Flood fill mark region.
	stack.Clear()
	stack.Push(levelStackEntry{x, y, i})
	srcReg[i] = r
	srcDist[i] = 0

	lev := 0
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for stack.Len() > 0 {
		back := stack.Pop()
		cx, cy, ci := back.x, back.y, back.index
		cs := &chf.Spans[ci]

		// Check if any of the neighbours already have a valid region set.
		ar := 0
		for dir := 0; dir < 4; dir++ {
			// 8 connected
			if rcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax := cx + common.GetDirOffsetX(dir)
			ay := cy + common.GetDirOffsetY(dir)
			ai := chf.Cells[ax+ay*w].Index + rcGetCon(cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&RC_BORDER_REG != 0 { // Do not take borders into account.
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			as := &chf.Spans[ai]
			dir2 := (dir + 1) & 0x3
			if rcGetCon(as, dir2) != RC_NOT_CONNECTED {
				ax2 := ax + common.GetDirOffsetX(dir2)
				ay2 := ay + common.GetDirOffsetY(dir2)
				ai2 := chf.Cells[ax2+ay2*w].Index + rcGetCon(as, dir2)
				if chf.Areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}
		count++

		// Expand neighbours.
		for dir := 0; dir < 4; dir++ {
			if rcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax := cx + common.GetDirOffsetX(dir)
			ay := cy + common.GetDirOffsetY(dir)
			ai := chf.Cells[ax+ay*w].Index + rcGetCon(cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			if chf.Dist[ai] >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				stack.Push(levelStackEntry{ax, ay, ai})
			}
		}
	}
	return count > 0
}

type dirtyEntry struct {
	index, region, distance2 int
}

func expandRegions(maxIter, level int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *Stack[levelStackEntry], fillStack bool) {
	w := chf.Width
	h := chf.Height

	if fillStack {
		// Find cells revealed by the raised level.
		stack.Clear()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := chf.Cells[x+y*w]
				for i := c.Index; i < c.Index+c.Count; i++ {
					if chf.Dist[i] >= level && srcReg[i] == 0 && chf.Areas[i] != RC_NULL_AREA {
						stack.Push(levelStackEntry{x, y, i})
					}
				}
			}
		}
	} else {
		// use cells in the input stack
		// mark all cells which already have a region
		for j := 0; j < stack.Len(); j++ {
			e := stack.At(j)
			if srcReg[e.index] != 0 {
				e.index = -1
			}
		}
	}

	var dirtyEntries []dirtyEntry
	iter := 0
	for stack.Len() > 0 {
		failed := 0
		dirtyEntries = dirtyEntries[:0]

		for j := 0; j < stack.Len(); j++ {
			e := stack.At(j)
			x, y, i := e.x, e.y, e.index
			if i < 0 {
				failed++
				continue
			}

			r := srcReg[i]
			d2 := 0xffff
			area := chf.Areas[i]
			s := &chf.Spans[i]
			for dir := 0; dir < 4; dir++ {
				if rcGetCon(s, dir) == RC_NOT_CONNECTED {
					continue
				}
				ax := x + common.GetDirOffsetX(dir)
				ay := y + common.GetDirOffsetY(dir)
				ai := chf.Cells[ax+ay*w].Index + rcGetCon(s, dir)
				if chf.Areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && (srcReg[ai]&RC_BORDER_REG) == 0 {
					if srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				e.index = -1 // mark as used
				dirtyEntries = append(dirtyEntries, dirtyEntry{i, r, d2})
			} else {
				failed++
			}
		}

		// Copy entries that differ between src and dst to keep them in sync.
		for _, d := range dirtyEntries {
			srcReg[d.index] = d.region
			srcDist[d.index] = d.distance2
		}

		if failed == stack.Len() {
			break
		}
		if level > 0 {
			iter++
			if iter >= maxIter {
				break
			}
		}
	}
}

func sortCellsByLevel(startLevel int, chf *RcCompactHeightfield, srcReg []int, nbStacks int, stacks []*Stack[levelStackEntry], loglevelsPerStack uint) {
	w := chf.Width
	h := chf.Height
	startLevel = startLevel >> loglevelsPerStack

	for j := 0; j < nbStacks; j++ {
		stacks[j].Clear()
	}

	// put all cells in the level range into the appropriate stacks
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				if chf.Areas[i] == RC_NULL_AREA || srcReg[i] != 0 {
					continue
				}
				level := chf.Dist[i] >> loglevelsPerStack
				sID := startLevel - level
				if sID >= nbStacks {
					continue
				}
				if sID < 0 {
					sID = 0
				}
				stacks[sID].Push(levelStackEntry{x, y, i})
			}
		}
	}
}

func appendStacks(srcStack, dstStack *Stack[levelStackEntry], srcReg []int) {
	for j := 0; j < srcStack.Len(); j++ {
		e := srcStack.Index(j)
		if e.index < 0 || srcReg[e.index] != 0 {
			continue
		}
		dstStack.Push(e)
	}
}

type rcRegion struct {
	spanCount        int // Number of spans belonging to this region
	id               int // ID of the region
	areaType         int // Are type.
	remap            bool
	visited          bool
	overlap          bool
	connectsToBorder bool
	connections      []int
	floors           []int
	boundary         map[int]int // neighbour id -> number of shared span edges
}

func newRcRegion(i int) *rcRegion {
	return &rcRegion{id: i, boundary: map[int]int{}}
}

func removeAdjacentNeighbours(reg *rcRegion) {
	// Remove adjacent duplicates.
	for i := 0; i < len(reg.connections) && len(reg.connections) > 1; {
		ni := (i + 1) % len(reg.connections)
		if reg.connections[i] == reg.connections[ni] {
			// Remove duplicate
			reg.connections = append(reg.connections[:i], reg.connections[i+1:]...)
		} else {
			i++
		}
	}
}

func replaceNeighbour(reg *rcRegion, oldID, newID int) {
	neiChanged := false
	for i := range reg.connections {
		if reg.connections[i] == oldID {
			reg.connections[i] = newID
			neiChanged = true
		}
	}
	for i := range reg.floors {
		if reg.floors[i] == oldID {
			reg.floors[i] = newID
		}
	}
	if n, ok := reg.boundary[oldID]; ok {
		delete(reg.boundary, oldID)
		if reg.id != newID {
			reg.boundary[newID] += n
		}
	}
	if neiChanged {
		removeAdjacentNeighbours(reg)
	}
}

// canMergeWithRegion requires the same area type and a single contiguous
// shared boundary, so the merged outline stays one loop.
func canMergeWithRegion(rega, regb *rcRegion) bool {
	if rega.areaType != regb.areaType {
		return false
	}
	n := 0
	for _, c := range rega.connections {
		if c == regb.id {
			n++
		}
	}
	if n > 1 {
		return false
	}
	for _, f := range rega.floors {
		if f == regb.id {
			return false
		}
	}
	return true
}

func addUniqueFloorRegion(reg *rcRegion, n int) {
	for _, f := range reg.floors {
		if f == n {
			return
		}
	}
	reg.floors = append(reg.floors, n)
}

func mergeRegions(rega, regb *rcRegion) bool {
	aid := rega.id
	bid := regb.id

	// Duplicate current neighbourhood.
	acon := append([]int(nil), rega.connections...)
	bcon := regb.connections

	// Find insertion point on A.
	insa := -1
	for i, c := range acon {
		if c == bid {
			insa = i
			break
		}
	}
	if insa == -1 {
		return false
	}

	// Find insertion point on B.
	insb := -1
	for i, c := range bcon {
		if c == aid {
			insb = i
			break
		}
	}
	if insb == -1 {
		return false
	}

	// Merge neighbours.
	rega.connections = rega.connections[:0]
	for i, ni := 0, len(acon); i < ni-1; i++ {
		rega.connections = append(rega.connections, acon[(insa+1+i)%ni])
	}
	for i, ni := 0, len(bcon); i < ni-1; i++ {
		rega.connections = append(rega.connections, bcon[(insb+1+i)%ni])
	}
	removeAdjacentNeighbours(rega)

	for _, f := range regb.floors {
		addUniqueFloorRegion(rega, f)
	}
	for k, n := range regb.boundary {
		if k != aid {
			rega.boundary[k] += n
		}
	}
	delete(rega.boundary, bid)

	rega.spanCount += regb.spanCount
	rega.connectsToBorder = rega.connectsToBorder || regb.connectsToBorder
	regb.spanCount = 0
	regb.connections = regb.connections[:0]
	regb.boundary = map[int]int{}
	return true
}

func isRegionConnectedToBorder(reg *rcRegion) bool {
	// Region is connected to border if
	// one of the neighbours is null id.
	for _, c := range reg.connections {
		if c == 0 {
			return true
		}
	}
	return false
}

func isSolidEdge(chf *RcCompactHeightfield, srcReg []int, x, y, i, dir int) bool {
	s := &chf.Spans[i]
	r := 0
	if rcGetCon(s, dir) != RC_NOT_CONNECTED {
		ax := x + common.GetDirOffsetX(dir)
		ay := y + common.GetDirOffsetY(dir)
		ai := chf.Cells[ax+ay*chf.Width].Index + rcGetCon(s, dir)
		r = srcReg[ai]
	}
	return r != srcReg[i]
}

func walkRegionContour(x, y, i, dir int, chf *RcCompactHeightfield, srcReg []int) []int {
	startDir := dir
	starti := i

	ss := &chf.Spans[i]
	curReg := 0
	if rcGetCon(ss, dir) != RC_NOT_CONNECTED {
		ax := x + common.GetDirOffsetX(dir)
		ay := y + common.GetDirOffsetY(dir)
		ai := chf.Cells[ax+ay*chf.Width].Index + rcGetCon(ss, dir)
		curReg = srcReg[ai]
	}
	cont := []int{curReg}

	for iter := 1; iter < 40000; iter++ {
		s := &chf.Spans[i]
		if isSolidEdge(chf, srcReg, x, y, i, dir) {
			// Choose the edge corner
			r := 0
			if rcGetCon(s, dir) != RC_NOT_CONNECTED {
				ax := x + common.GetDirOffsetX(dir)
				ay := y + common.GetDirOffsetY(dir)
				ai := chf.Cells[ax+ay*chf.Width].Index + rcGetCon(s, dir)
				r = srcReg[ai]
			}
			if r != curReg {
				curReg = r
				cont = append(cont, curReg)
			}
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			ni := -1
			nx := x + common.GetDirOffsetX(dir)
			ny := y + common.GetDirOffsetY(dir)
			if rcGetCon(s, dir) != RC_NOT_CONNECTED {
				nc := chf.Cells[nx+ny*chf.Width]
				ni = nc.Index + rcGetCon(s, dir)
			}
			if ni == -1 {
				// Should not happen.
				return cont
			}
			x = nx
			y = ny
			i = ni
			dir = (dir + 3) & 0x3 // Rotate CCW
		}
		if starti == i && startDir == dir {
			break
		}
	}

	// Remove adjacent duplicates.
	if len(cont) > 1 {
		for j := 0; j < len(cont); {
			nj := (j + 1) % len(cont)
			if cont[j] == cont[nj] {
				cont = append(cont[:j], cont[j+1:]...)
			} else {
				j++
			}
		}
	}
	return cont
}

func killRegion(regions []*rcRegion, id int) {
	for _, reg := range regions {
		if reg.id == id {
			reg.id = 0
			reg.spanCount = 0
		}
	}
}

func mergeAndFilterRegions(ctx *RcContext, minRegionArea, mergeRegionSize int, maxRegionID *int,
	chf *RcCompactHeightfield, srcReg []int) (overlaps []int) {
	w := chf.Width
	h := chf.Height

	nreg := *maxRegionID + 1
	regions := make([]*rcRegion, nreg)
	// Construct regions
	for i := 0; i < nreg; i++ {
		regions[i] = newRcRegion(i)
	}

	// Find edge of a region and find connections around the contour.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i := c.Index; i < c.Index+c.Count; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}
				reg := regions[r]
				reg.spanCount++

				// Update floors.
				for j := c.Index; j < c.Index+c.Count; j++ {
					if i == j {
						continue
					}
					floorID := srcReg[j]
					if floorID == 0 || floorID >= nreg {
						continue
					}
					if floorID == r {
						reg.overlap = true
					}
					addUniqueFloorRegion(reg, floorID)
				}

				// Count shared boundary with each neighbour.
				s := &chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					nr := 0
					if rcGetCon(s, dir) != RC_NOT_CONNECTED {
						ax := x + common.GetDirOffsetX(dir)
						ay := y + common.GetDirOffsetY(dir)
						nr = srcReg[chf.Cells[ax+ay*w].Index+rcGetCon(s, dir)]
					}
					if nr != r {
						reg.boundary[nr]++
					}
				}

				// Have found contour
				if len(reg.connections) > 0 {
					continue
				}
				reg.areaType = chf.Areas[i]

				// Check if this cell is next to a border.
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, y, i, dir) {
						ndir = dir
						break
					}
				}
				if ndir != -1 {
					// The cell is at border.
					// Walk around the contour to find all the neighbours.
					reg.connections = walkRegionContour(x, y, i, ndir, chf, srcReg)
				}
			}
		}
	}

	for _, reg := range regions {
		for _, c := range reg.connections {
			if c&RC_BORDER_REG != 0 {
				reg.connectsToBorder = true
			}
		}
	}

	// Remove too small regions.
	trace := make([]int, 0, 32)
	for i := 0; i < nreg; i++ {
		reg := regions[i]
		if reg.id == 0 || (reg.id&RC_BORDER_REG) != 0 {
			continue
		}
		if reg.spanCount == 0 {
			continue
		}
		if reg.visited {
			continue
		}

		// Count the total size of all the connected regions.
		// Also keep track of the regions connects to a tile border.
		connectsToBorder := false
		spanCount := 0
		trace = trace[:0]

		reg.visited = true
		q := queue.New()
		q.Add(i)
		for q.Length() > 0 {
			ri := q.Peek().(int)
			q.Remove()

			creg := regions[ri]
			spanCount += creg.spanCount
			trace = append(trace, ri)

			for _, c := range creg.connections {
				if c&RC_BORDER_REG != 0 {
					connectsToBorder = true
					continue
				}
				neireg := regions[c]
				if neireg.visited {
					continue
				}
				if neireg.id == 0 || (neireg.id&RC_BORDER_REG) != 0 {
					continue
				}
				// Visit
				q.Add(neireg.id)
				neireg.visited = true
			}
		}

		// If the accumulated regions size is too small, remove it.
		// Do not remove areas which connect to tile borders
		// as their size cannot be estimated correctly and removing them
		// can potentially remove necessary areas.
		if spanCount < minRegionArea && !connectsToBorder {
			// Kill all visited regions.
			for _, t := range trace {
				regions[t].spanCount = 0
				regions[t].id = 0
			}
		}
	}

	// Merge too small regions to neighbour regions.
	for {
		mergeCount := 0
		for i := 0; i < nreg; i++ {
			reg := regions[i]
			if reg.id == 0 || (reg.id&RC_BORDER_REG) != 0 {
				continue
			}
			if reg.overlap {
				continue
			}
			if reg.spanCount == 0 {
				continue
			}

			// Check to see if the region should be merged.
			if reg.spanCount > mergeRegionSize && isRegionConnectedToBorder(reg) {
				continue
			}

			// Small region with more than 1 connection.
			// Or region which is not connected to a border at all.
			// Pick the neighbour sharing the longest boundary.
			longest := -1
			smallest := 0
			mergeID := reg.id
			for _, c := range reg.connections {
				if c&RC_BORDER_REG != 0 {
					continue
				}
				mreg := regions[c]
				if mreg.id == 0 || (mreg.id&RC_BORDER_REG) != 0 || mreg.overlap || mreg.id == reg.id {
					continue
				}
				shared := reg.boundary[mreg.id]
				if shared < longest || (shared == longest && mreg.spanCount >= smallest) {
					continue
				}
				if canMergeWithRegion(reg, mreg) && canMergeWithRegion(mreg, reg) {
					longest = shared
					smallest = mreg.spanCount
					mergeID = mreg.id
				}
			}

			// Found new id.
			if mergeID != reg.id {
				oldID := reg.id
				target := regions[mergeID]

				// Merge neighbours.
				if mergeRegions(target, reg) {
					// Fixup regions pointing to current region.
					for j := 0; j < nreg; j++ {
						if regions[j].id == 0 || (regions[j].id&RC_BORDER_REG) != 0 {
							continue
						}
						// If another region was already merged into current region
						// change the nid of the previous region too.
						if regions[j].id == oldID {
							regions[j].id = mergeID
						}
						// Replace the current region with the new one if the
						// current regions is neighbour.
						replaceNeighbour(regions[j], oldID, mergeID)
					}
					mergeCount++
				}
			}
		}
		if mergeCount == 0 {
			break
		}
	}

	// Anything still under the minimum could not be absorbed; drop it.
	for i := 0; i < nreg; i++ {
		reg := regions[i]
		if reg.id == 0 || (reg.id&RC_BORDER_REG) != 0 || reg.spanCount == 0 {
			continue
		}
		if reg.spanCount < minRegionArea && !reg.connectsToBorder {
			killRegion(regions, reg.id)
		}
	}

	// Ids that own no spans and were not merged anywhere have nothing to
	// remap.
	for i := 0; i < nreg; i++ {
		if regions[i].spanCount == 0 && regions[i].id == i {
			regions[i].id = 0
		}
	}

	// Compress region Ids.
	for i := 0; i < nreg; i++ {
		regions[i].remap = false
		if regions[i].id == 0 {
			continue // Skip nil regions.
		}
		if regions[i].id&RC_BORDER_REG != 0 {
			continue // Skip external regions.
		}
		regions[i].remap = true
	}

	regIDGen := 0
	for i := 0; i < nreg; i++ {
		if !regions[i].remap {
			continue
		}
		oldID := regions[i].id
		regIDGen++
		newID := regIDGen
		for j := i; j < nreg; j++ {
			if regions[j].id == oldID {
				regions[j].id = newID
				regions[j].remap = false
			}
		}
	}
	*maxRegionID = regIDGen

	// Remap regions.
	for i := 0; i < chf.SpanCount; i++ {
		if (srcReg[i] & RC_BORDER_REG) == 0 {
			srcReg[i] = regions[srcReg[i]].id
		}
	}

	// Return regions that we found to be overlapping.
	for i := 0; i < nreg; i++ {
		if regions[i].overlap && regions[i].id != 0 {
			overlaps = append(overlaps, regions[i].id)
		}
	}
	return overlaps
}

// / Builds region data for the heightfield using watershed partitioning.
// /
// / Spans are claimed in order of decreasing distance to the border: on
// / every level the existing regions expand first and only the remaining
// / spans seed new regions. Regions smaller than @p minRegionArea are
// / removed and regions up to @p mergeRegionArea are merged into the
// / neighbour sharing the longest boundary.
func RcBuildRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
	ctx.StartTimer(RC_TIMER_BUILD_REGIONS)
	defer ctx.StopTimer(RC_TIMER_BUILD_REGIONS)

	w := chf.Width
	h := chf.Height
	srcReg := make([]int, chf.SpanCount)
	srcDist := make([]int, chf.SpanCount)

	const logNbStacks = 3
	const nbStacks = 1 << logNbStacks
	lvlStacks := make([]*Stack[levelStackEntry], nbStacks)
	for i := range lvlStacks {
		lvlStacks[i] = NewStack[levelStackEntry](256)
	}
	stack := NewStack[levelStackEntry](256)

	regionID := 1
	level := (chf.MaxDistance + 1) & ^1

	const expandIters = 8

	if borderSize > 0 {
		// Make sure border will not overflow.
		bw := min(w, borderSize)
		bh := min(h, borderSize)

		// Paint regions
		paintRectRegion(0, bw, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(w-bw, w, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(0, w, 0, bh, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(0, w, h-bh, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
	}
	chf.BorderSize = borderSize

	sID := -1
	for level > 0 {
		if level >= 2 {
			level -= 2
		} else {
			level = 0
		}
		sID = (sID + 1) & (nbStacks - 1)

		if sID == 0 {
			sortCellsByLevel(level, chf, srcReg, nbStacks, lvlStacks, 1)
		} else {
			appendStacks(lvlStacks[sID-1], lvlStacks[sID], srcReg) // copy left overs from last level
		}

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_EXPAND)
		// Expand current regions until no empty connected cells found.
		expandRegions(expandIters, level, chf, srcReg, srcDist, lvlStacks[sID], false)
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_EXPAND)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		// Mark new regions with IDs.
		for j := 0; j < lvlStacks[sID].Len(); j++ {
			current := lvlStacks[sID].Index(j)
			if current.index >= 0 && srcReg[current.index] == 0 {
				if floodRegion(current.x, current.y, current.index, level, regionID, chf, srcReg, srcDist, stack) {
					if regionID == 0xFFFF {
						ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
						ctx.Errorf("rcBuildRegions: Region ID overflow")
						return fmt.Errorf("%w: more than %d regions", ErrRegionOverflow, 0xFFFE)
					}
					regionID++
				}
			}
		}
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
	}

	// Expand current regions until no empty connected cells found.
	expandRegions(expandIters*8, 0, chf, srcReg, srcDist, stack, true)

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	chf.MaxRegions = regionID
	overlaps := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, &chf.MaxRegions, chf, srcReg)
	// If overlapping regions were found during merging, warn.
	if len(overlaps) > 0 {
		ctx.Warnf("rcBuildRegions: %d overlapping regions", len(overlaps))
	}
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Write the result out.
	for i := 0; i < chf.SpanCount; i++ {
		chf.Spans[i].Reg = srcReg[i]
	}
	return nil
}
