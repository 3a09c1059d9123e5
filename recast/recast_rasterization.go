package recast

import (
	"math"

	"github.com/gorustyt/navcore/common"
)

const (
	rcAxisX = 0
	rcAxisY = 1
	rcAxisZ = 2
)

func allocSpan(hf *RcHeightfield) *RcSpan {
	// If necessary, allocate new page and update the freelist.
	if hf.Freelist == nil {
		pool := &RcSpanPool{next: hf.Pools}
		hf.Pools = pool
		// Add new spans to the free list.
		var freeList *RcSpan
		for i := RC_SPANS_PER_POOL - 1; i >= 0; i-- {
			pool.items[i].Next = freeList
			freeList = &pool.items[i]
		}
		hf.Freelist = freeList
	}
	// Pop item from the front of the free list.
	span := hf.Freelist
	hf.Freelist = span.Next
	*span = RcSpan{}
	return span
}

func freeSpan(hf *RcHeightfield, span *RcSpan) {
	// Add the span to the front of the free list.
	span.Next = hf.Freelist
	hf.Freelist = span
}

// addSpan inserts [smin, smax] into column (x, z), merging it with every
// span it overlaps or touches.
func addSpan(hf *RcHeightfield, x, z, smin, smax, areaID, flagMergeThreshold int) {
	newSpan := allocSpan(hf)
	newSpan.Smin = smin
	newSpan.Smax = smax
	newSpan.Area = areaID

	columnIndex := x + z*hf.Width
	var previousSpan *RcSpan
	currentSpan := hf.Spans[columnIndex]

	// Insert the new span, possibly merging it with existing spans.
	for currentSpan != nil {
		if currentSpan.Smin > newSpan.Smax {
			// Current span is completely after the new span, break.
			break
		}
		if currentSpan.Smax < newSpan.Smin {
			// Current span is completely before the new span.  Keep going.
			previousSpan = currentSpan
			currentSpan = currentSpan.Next
			continue
		}
		// The new span overlaps with an existing span.  Merge them.
		newSpan.Smin = min(newSpan.Smin, currentSpan.Smin)
		newSpan.Smax = max(newSpan.Smax, currentSpan.Smax)

		// Merge flags.
		if common.Abs(newSpan.Smax-currentSpan.Smax) <= flagMergeThreshold {
			// Higher area ID numbers indicate higher resolution priority.
			newSpan.Area = max(newSpan.Area, currentSpan.Area)
		}

		// Remove the current span since it's now merged with newSpan.
		next := currentSpan.Next
		freeSpan(hf, currentSpan)
		if previousSpan != nil {
			previousSpan.Next = next
		} else {
			hf.Spans[columnIndex] = next
		}
		currentSpan = next
	}

	// Insert new span after prev
	if previousSpan != nil {
		newSpan.Next = previousSpan.Next
		previousSpan.Next = newSpan
	} else {
		// This span should go before the others in the list
		newSpan.Next = hf.Spans[columnIndex]
		hf.Spans[columnIndex] = newSpan
	}
}

// RcAddSpan adds a span to the column at (x, z). Spans that overlap or touch
// are merged.
func RcAddSpan(hf *RcHeightfield, x, z, spanMin, spanMax, areaID, flagMergeThreshold int) {
	addSpan(hf, x, z, spanMin, spanMax, areaID, flagMergeThreshold)
}

// dividePoly splits a convex polygon along the axis-aligned line
// axis == axisOffset. The part at or below the line goes to outVerts1, the
// rest to outVerts2.
func dividePoly(inVerts []float64, inVertsCount int,
	outVerts1 []float64, outVerts2 []float64,
	axisOffset float64, axis int) (outVerts1Count, outVerts2Count int) {
	// How far positive or negative away from the separating axis is each vertex.
	var inVertAxisDelta [12]float64
	for inVert := 0; inVert < inVertsCount; inVert++ {
		inVertAxisDelta[inVert] = axisOffset - inVerts[inVert*3+axis]
	}

	poly1Vert := 0
	poly2Vert := 0
	for inVertA, inVertB := 0, inVertsCount-1; inVertA < inVertsCount; inVertB, inVertA = inVertA, inVertA+1 {
		// If the two vertices are on the same side of the separating axis
		sameSide := (inVertAxisDelta[inVertA] >= 0) == (inVertAxisDelta[inVertB] >= 0)
		if !sameSide {
			s := inVertAxisDelta[inVertB] / (inVertAxisDelta[inVertB] - inVertAxisDelta[inVertA])
			outVerts1[poly1Vert*3+0] = inVerts[inVertB*3+0] + (inVerts[inVertA*3+0]-inVerts[inVertB*3+0])*s
			outVerts1[poly1Vert*3+1] = inVerts[inVertB*3+1] + (inVerts[inVertA*3+1]-inVerts[inVertB*3+1])*s
			outVerts1[poly1Vert*3+2] = inVerts[inVertB*3+2] + (inVerts[inVertA*3+2]-inVerts[inVertB*3+2])*s
			copy(outVerts2[poly2Vert*3:poly2Vert*3+3], outVerts1[poly1Vert*3:poly1Vert*3+3])
			poly1Vert++
			poly2Vert++

			// add the inVertA point to the right polygon. Do NOT add points that are on the dividing line
			// since these were already added above
			if inVertAxisDelta[inVertA] > 0 {
				copy(outVerts1[poly1Vert*3:poly1Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
				poly1Vert++
			} else if inVertAxisDelta[inVertA] < 0 {
				copy(outVerts2[poly2Vert*3:poly2Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
				poly2Vert++
			}
			continue
		}
		// add the inVertA point to the right polygon. Addition is done even for points on the dividing line
		if inVertAxisDelta[inVertA] >= 0 {
			copy(outVerts1[poly1Vert*3:poly1Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
			poly1Vert++
			if inVertAxisDelta[inVertA] != 0 {
				continue
			}
		}
		copy(outVerts2[poly2Vert*3:poly2Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
		poly2Vert++
	}
	return poly1Vert, poly2Vert
}

func overlapBounds(aMin, aMax, bMin, bMax []float64) bool {
	return aMin[0] <= bMax[0] && aMax[0] >= bMin[0] &&
		aMin[1] <= bMax[1] && aMax[1] >= bMin[1] &&
		aMin[2] <= bMax[2] && aMax[2] >= bMin[2]
}

// rasterizeTri clips the triangle against every overlapped cell and adds a
// span for the clipped part.
func rasterizeTri(v0, v1, v2 []float64, areaID int, hf *RcHeightfield,
	hfBBMin, hfBBMax []float64, cellSize, inverseCellSize, inverseCellHeight float64,
	flagMergeThreshold int) {
	// Calculate the bounding box of the triangle.
	triBBMin := make([]float64, 3)
	triBBMax := make([]float64, 3)
	copy(triBBMin, v0)
	common.Vmin(triBBMin, v1)
	common.Vmin(triBBMin, v2)
	copy(triBBMax, v0)
	common.Vmax(triBBMax, v1)
	common.Vmax(triBBMax, v2)

	// If the triangle does not touch the bounding box of the heightfield, skip the triangle.
	if !overlapBounds(triBBMin, triBBMax, hfBBMin, hfBBMax) {
		return
	}

	w := hf.Width
	h := hf.Height
	by := hfBBMax[1] - hfBBMin[1]

	// Calculate the footprint of the triangle on the grid's z-axis
	z0 := int((triBBMin[2] - hfBBMin[2]) * inverseCellSize)
	z1 := int((triBBMax[2] - hfBBMin[2]) * inverseCellSize)

	// use -1 rather than 0 to cut the polygon properly at the start of the tile
	z0 = common.Clamp(z0, -1, h-1)
	z1 = common.Clamp(z1, 0, h-1)

	// Clip the triangle into all grid cells it touches.
	var buf [12 * 3 * 4]float64
	in := buf[0 : 12*3]
	inRow := buf[12*3 : 12*3*2]
	p1 := buf[12*3*2 : 12*3*3]
	p2 := buf[12*3*3 : 12*3*4]

	copy(in[0:3], v0)
	copy(in[3:6], v1)
	copy(in[6:9], v2)
	nvIn := 3
	nvRow := 0

	for z := z0; z <= z1; z++ {
		// Clip polygon to row. Store the remaining polygon as well
		cellZ := hfBBMin[2] + float64(z)*cellSize
		nvRow, nvIn = dividePoly(in, nvIn, inRow, p1, cellZ+cellSize, rcAxisZ)
		in, p1 = p1, in

		if nvRow < 3 {
			continue
		}
		if z < 0 {
			continue
		}

		// find X-axis bounds of the row
		minX := inRow[0]
		maxX := inRow[0]
		for vert := 1; vert < nvRow; vert++ {
			minX = min(minX, inRow[vert*3])
			maxX = max(maxX, inRow[vert*3])
		}
		x0 := int((minX - hfBBMin[0]) * inverseCellSize)
		x1 := int((maxX - hfBBMin[0]) * inverseCellSize)
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = common.Clamp(x0, -1, w-1)
		x1 = common.Clamp(x1, 0, w-1)

		nv := 0
		nv2 := nvRow
		for x := x0; x <= x1; x++ {
			// Clip polygon to column. store the remaining polygon as well
			cx := hfBBMin[0] + float64(x)*cellSize
			nv, nv2 = dividePoly(inRow, nv2, p1, p2, cx+cellSize, rcAxisX)
			inRow, p2 = p2, inRow

			if nv < 3 {
				continue
			}
			if x < 0 {
				continue
			}

			// Calculate min and max of the span.
			spanMin := p1[1]
			spanMax := p1[1]
			for vert := 1; vert < nv; vert++ {
				spanMin = min(spanMin, p1[vert*3+1])
				spanMax = max(spanMax, p1[vert*3+1])
			}
			spanMin -= hfBBMin[1]
			spanMax -= hfBBMin[1]

			// Skip the span if it's completely outside the heightfield bounding box
			if spanMax < 0.0 {
				continue
			}
			if spanMin > by {
				continue
			}

			// Clamp the span to the heightfield bounding box.
			if spanMin < 0.0 {
				spanMin = 0
			}
			if spanMax > by {
				spanMax = by
			}

			// Snap the span to the heightfield height grid.
			spanMinCellIndex := common.Clamp(int(math.Floor(spanMin*inverseCellHeight)), 0, RC_SPAN_MAX_HEIGHT)
			spanMaxCellIndex := common.Clamp(int(math.Ceil(spanMax*inverseCellHeight)), spanMinCellIndex+1, RC_SPAN_MAX_HEIGHT)

			addSpan(hf, x, z, spanMinCellIndex, spanMaxCellIndex, areaID, flagMergeThreshold)
		}
	}
}

// RcRasterizeTriangle rasterizes a single triangle into the heightfield.
func RcRasterizeTriangle(ctx *RcContext, v0, v1, v2 []float64, areaID int, hf *RcHeightfield, flagMergeThreshold int) {
	ctx.StartTimer(RC_TIMER_RASTERIZE_TRIANGLES)
	defer ctx.StopTimer(RC_TIMER_RASTERIZE_TRIANGLES)

	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	rasterizeTri(v0, v1, v2, areaID, hf, hf.Bmin[:], hf.Bmax[:], hf.Cs, inverseCellSize, inverseCellHeight, flagMergeThreshold)
}

// RcRasterizeTriangles rasterizes indexed triangles into the heightfield.
// Zero-area triangles are skipped.
func RcRasterizeTriangles(ctx *RcContext, verts []float64, tris []int, triAreaIDs []int, numTris int,
	hf *RcHeightfield, flagMergeThreshold int) {
	ctx.StartTimer(RC_TIMER_RASTERIZE_TRIANGLES)
	defer ctx.StopTimer(RC_TIMER_RASTERIZE_TRIANGLES)

	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	norm := make([]float64, 3)
	skipped := 0
	for triIndex := 0; triIndex < numTris; triIndex++ {
		v0 := common.GetVert3(verts, tris[triIndex*3+0])
		v1 := common.GetVert3(verts, tris[triIndex*3+1])
		v2 := common.GetVert3(verts, tris[triIndex*3+2])
		if !calcTriNormal(v0, v1, v2, norm) {
			skipped++
			continue
		}
		rasterizeTri(v0, v1, v2, triAreaIDs[triIndex], hf, hf.Bmin[:], hf.Bmax[:], hf.Cs, inverseCellSize, inverseCellHeight, flagMergeThreshold)
	}
	if skipped > 0 {
		ctx.Warnf("rasterizeTriangles: skipped %d degenerate triangles", skipped)
	}
}
