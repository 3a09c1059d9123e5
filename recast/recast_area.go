package recast

import (
	"slices"

	"github.com/gorustyt/navcore/common"
)

// / Erodes the walkable area within the heightfield by the specified radius.
// /
// / The distance to the nearest boundary is computed with a two pass chamfer
// / transform (2 for straight steps, 3 for diagonal ones), so a radius of r
// / cells keeps spans whose distance is at least 2*r.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_ERODE_AREA)
	defer ctx.StopTimer(RC_TIMER_ERODE_AREA)

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize

	distanceToBoundary := make([]int, chf.SpanCount)
	for i := range distanceToBoundary {
		distanceToBoundary[i] = 0xff
	}

	// Mark boundary cells.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex := cell.Index; spanIndex < cell.Index+cell.Count; spanIndex++ {
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					distanceToBoundary[spanIndex] = 0
					continue
				}
				span := &chf.Spans[spanIndex]

				// Check that there is a non-null adjacent span in each of the 4 cardinal directions.
				neighborCount := 0
				for direction := 0; direction < 4; direction++ {
					neighborConnection := rcGetCon(span, direction)
					if neighborConnection == RC_NOT_CONNECTED {
						break
					}
					neighborX := x + common.GetDirOffsetX(direction)
					neighborZ := z + common.GetDirOffsetY(direction)
					neighborSpanIndex := chf.Cells[neighborX+neighborZ*zStride].Index + neighborConnection
					if chf.Areas[neighborSpanIndex] == RC_NULL_AREA {
						break
					}
					neighborCount++
				}
				// At least one missing neighbour, so this is a boundary cell.
				if neighborCount != 4 {
					distanceToBoundary[spanIndex] = 0
				}
			}
		}
	}

	relax := func(spanIndex, neighborIndex, step int) {
		newDistance := min(distanceToBoundary[neighborIndex]+step, 255)
		if newDistance < distanceToBoundary[spanIndex] {
			distanceToBoundary[spanIndex] = newDistance
		}
	}

	// Pass 1
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex := cell.Index; spanIndex < cell.Index+cell.Count; spanIndex++ {
				span := &chf.Spans[spanIndex]
				if rcGetCon(span, 0) != RC_NOT_CONNECTED {
					// (-1,0)
					aX := x + common.GetDirOffsetX(0)
					aY := z + common.GetDirOffsetY(0)
					aIndex := chf.Cells[aX+aY*xSize].Index + rcGetCon(span, 0)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (-1,-1)
					if rcGetCon(aSpan, 3) != RC_NOT_CONNECTED {
						bX := aX + common.GetDirOffsetX(3)
						bY := aY + common.GetDirOffsetY(3)
						bIndex := chf.Cells[bX+bY*xSize].Index + rcGetCon(aSpan, 3)
						relax(spanIndex, bIndex, 3)
					}
				}
				if rcGetCon(span, 3) != RC_NOT_CONNECTED {
					// (0,-1)
					aX := x + common.GetDirOffsetX(3)
					aY := z + common.GetDirOffsetY(3)
					aIndex := chf.Cells[aX+aY*xSize].Index + rcGetCon(span, 3)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (1,-1)
					if rcGetCon(aSpan, 2) != RC_NOT_CONNECTED {
						bX := aX + common.GetDirOffsetX(2)
						bY := aY + common.GetDirOffsetY(2)
						bIndex := chf.Cells[bX+bY*xSize].Index + rcGetCon(aSpan, 2)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	// Pass 2
	for z := zSize - 1; z >= 0; z-- {
		for x := xSize - 1; x >= 0; x-- {
			cell := chf.Cells[x+z*zStride]
			for spanIndex := cell.Index; spanIndex < cell.Index+cell.Count; spanIndex++ {
				span := &chf.Spans[spanIndex]
				if rcGetCon(span, 2) != RC_NOT_CONNECTED {
					// (1,0)
					aX := x + common.GetDirOffsetX(2)
					aY := z + common.GetDirOffsetY(2)
					aIndex := chf.Cells[aX+aY*xSize].Index + rcGetCon(span, 2)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (1,1)
					if rcGetCon(aSpan, 1) != RC_NOT_CONNECTED {
						bX := aX + common.GetDirOffsetX(1)
						bY := aY + common.GetDirOffsetY(1)
						bIndex := chf.Cells[bX+bY*xSize].Index + rcGetCon(aSpan, 1)
						relax(spanIndex, bIndex, 3)
					}
				}
				if rcGetCon(span, 1) != RC_NOT_CONNECTED {
					// (0,1)
					aX := x + common.GetDirOffsetX(1)
					aY := z + common.GetDirOffsetY(1)
					aIndex := chf.Cells[aX+aY*xSize].Index + rcGetCon(span, 1)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (-1,1)
					if rcGetCon(aSpan, 0) != RC_NOT_CONNECTED {
						bX := aX + common.GetDirOffsetX(0)
						bY := aY + common.GetDirOffsetY(0)
						bIndex := chf.Cells[bX+bY*xSize].Index + rcGetCon(aSpan, 0)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	minBoundaryDistance := erosionRadius * 2
	for spanIndex := 0; spanIndex < chf.SpanCount; spanIndex++ {
		if distanceToBoundary[spanIndex] < minBoundaryDistance {
			chf.Areas[spanIndex] = RC_NULL_AREA
		}
	}
}

// / Applies a median filter to walkable area types (based on area id), removing noise.
func RcMedianFilterWalkableArea(ctx *RcContext, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_MEDIAN_AREA)
	defer ctx.StopTimer(RC_TIMER_MEDIAN_AREA)

	xSize := chf.Width
	zSize := chf.Height
	areas := make([]int, chf.SpanCount)
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*xSize]
			for spanIndex := cell.Index; spanIndex < cell.Index+cell.Count; spanIndex++ {
				span := &chf.Spans[spanIndex]
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					areas[spanIndex] = chf.Areas[spanIndex]
					continue
				}

				var neighborAreas [9]int
				for i := range neighborAreas {
					neighborAreas[i] = chf.Areas[spanIndex]
				}
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(span, dir) == RC_NOT_CONNECTED {
						continue
					}
					aX := x + common.GetDirOffsetX(dir)
					aZ := z + common.GetDirOffsetY(dir)
					aIndex := chf.Cells[aX+aZ*xSize].Index + rcGetCon(span, dir)
					if chf.Areas[aIndex] != RC_NULL_AREA {
						neighborAreas[dir*2+0] = chf.Areas[aIndex]
					}

					aSpan := &chf.Spans[aIndex]
					dir2 := (dir + 1) & 0x3
					if con2 := rcGetCon(aSpan, dir2); con2 != RC_NOT_CONNECTED {
						bX := aX + common.GetDirOffsetX(dir2)
						bZ := aZ + common.GetDirOffsetY(dir2)
						bIndex := chf.Cells[bX+bZ*xSize].Index + con2
						if chf.Areas[bIndex] != RC_NULL_AREA {
							neighborAreas[dir*2+1] = chf.Areas[bIndex]
						}
					}
				}
				slices.Sort(neighborAreas[:])
				areas[spanIndex] = neighborAreas[4]
			}
		}
	}
	chf.Areas = areas
}

// / Applies the area id to all spans within the specified convex polygon.
// /
// / The y-values of the polygon vertices are ignored; the polygon is
// / projected onto the xz-plane and extruded from @p minY to @p maxY.
func RcMarkConvexPolyArea(ctx *RcContext, verts []float64, numVerts int, minY, maxY float64, areaID int, chf *RcCompactHeightfield) {
	ctx.StartTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)
	defer ctx.StopTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)

	if numVerts < 3 {
		return
	}
	xSize := chf.Width
	zSize := chf.Height

	// Compute the bounding box of the polygon
	bmin := make([]float64, 3)
	bmax := make([]float64, 3)
	RcCalcBounds(verts, numVerts, bmin, bmax)
	bmin[1] = minY
	bmax[1] = maxY

	// Compute the grid footprint of the polygon
	minx := int((bmin[0] - chf.Bmin[0]) / chf.Cs)
	miny := int((bmin[1] - chf.Bmin[1]) / chf.Ch)
	minz := int((bmin[2] - chf.Bmin[2]) / chf.Cs)
	maxx := int((bmax[0] - chf.Bmin[0]) / chf.Cs)
	maxy := int((bmax[1] - chf.Bmin[1]) / chf.Ch)
	maxz := int((bmax[2] - chf.Bmin[2]) / chf.Cs)

	// Early-out if the polygon lies entirely outside the grid.
	if maxx < 0 || minx >= xSize || maxz < 0 || minz >= zSize {
		return
	}

	// Clamp the polygon footprint to the grid
	minx = max(minx, 0)
	maxx = min(maxx, xSize-1)
	minz = max(minz, 0)
	maxz = min(maxz, zSize-1)

	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.Cells[x+z*xSize]
			for spanIndex := cell.Index; spanIndex < cell.Index+cell.Count; spanIndex++ {
				// Skip if span is removed.
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					continue
				}
				// Skip if y extents don't overlap.
				span := &chf.Spans[spanIndex]
				if span.Y < miny || span.Y > maxy {
					continue
				}
				px := chf.Bmin[0] + (float64(x)+0.5)*chf.Cs
				pz := chf.Bmin[2] + (float64(z)+0.5)*chf.Cs
				if common.PointInPoly(numVerts, verts, px, pz) {
					chf.Areas[spanIndex] = areaID
				}
			}
		}
	}
}
