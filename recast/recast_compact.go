package recast

import (
	"fmt"

	"github.com/gorustyt/navcore/common"
)

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index int ///< Index to the first span in the column.
	Count int ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   int ///< The lower extent of the span. (Measured from the heightfield's base.)
	Reg int ///< The id of the region the span belongs to. (Or zero if not in a region.)
	Con int ///< Packed neighbor connection data, 6 bits per direction.
	H   int ///< The height of the span. (Measured from #y.) #RC_SPAN_OPEN_HEIGHT when nothing is above.
}

// / A compact, static heightfield representing unobstructed space.
type RcCompactHeightfield struct {
	Width          int ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height         int ///< The height of the heightfield. (Along the z-axis in cell units.)
	SpanCount      int ///< The number of spans in the heightfield.
	WalkableHeight int ///< The walkable height used during the build of the field.
	WalkableClimb  int ///< The walkable climb used during the build of the field.
	BorderSize     int ///< The AABB border size used during the build of the field.
	MaxDistance    int ///< The maximum distance value of any span within the field.
	MaxRegions     int ///< The maximum region id of any span within the field.
	Bmin           [3]float64
	Bmax           [3]float64
	Cs             float64
	Ch             float64
	Cells          []RcCompactCell ///< Array of cells. [Size: #width*#height]
	Spans          []RcCompactSpan ///< Array of spans. [Size: #spanCount]
	Dist           []int           ///< Array containing border distance data. [Size: #spanCount]
	Areas          []int           ///< Array containing area id data. [Size: #spanCount]
}

// / Sets the neighbor connection data for the specified direction.
func rcSetCon(span *RcCompactSpan, direction, neighborIndex int) {
	shift := uint(direction) * 6
	span.Con = (span.Con &^ (0x3f << shift)) | ((neighborIndex & 0x3f) << shift)
}

// / Gets neighbor connection data for the specified direction.
// / Returns #RC_NOT_CONNECTED if there is no connection.
func rcGetCon(span *RcCompactSpan, direction int) int {
	shift := uint(direction) * 6
	return (span.Con >> shift) & 0x3f
}

// Neighbor returns the index of the span connected in the given direction, or -1.
func (chf *RcCompactHeightfield) Neighbor(x, z, i, dir int) int {
	con := rcGetCon(&chf.Spans[i], dir)
	if con == RC_NOT_CONNECTED {
		return -1
	}
	ax := x + common.GetDirOffsetX(dir)
	az := z + common.GetDirOffsetY(dir)
	return chf.Cells[ax+az*chf.Width].Index + con
}

// / Builds a compact heightfield representing open space, from a heightfield
// / representing solid space.
// /
// / A span index in a neighbouring column that does not fit the 6 bit
// / connection field is a configuration error: the voxel resolution stacks
// / more walkable layers than the compact representation can address.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) (*RcCompactHeightfield, error) {
	ctx.StartTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)
	defer ctx.StopTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)

	xSize := hf.Width
	zSize := hf.Height
	spanCount := 0
	for _, s := range hf.Spans {
		for ; s != nil; s = s.Next {
			if s.Area != RC_NULL_AREA {
				spanCount++
			}
		}
	}

	// Fill in header.
	chf := &RcCompactHeightfield{
		Width:          xSize,
		Height:         zSize,
		SpanCount:      spanCount,
		WalkableHeight: walkableHeight,
		WalkableClimb:  walkableClimb,
		Bmin:           hf.Bmin,
		Bmax:           hf.Bmax,
		Cs:             hf.Cs,
		Ch:             hf.Ch,
		Cells:          make([]RcCompactCell, xSize*zSize),
		Spans:          make([]RcCompactSpan, spanCount),
		Areas:          make([]int, spanCount),
	}
	chf.Bmax[1] += float64(walkableHeight) * hf.Ch

	// Fill in cells and spans.
	currentCellIndex := 0
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			span := hf.Spans[x+z*xSize]
			// If there are no spans at this cell, just leave the data to index=0, count=0.
			if span == nil {
				continue
			}
			cell := &chf.Cells[x+z*xSize]
			cell.Index = currentCellIndex
			cell.Count = 0
			for ; span != nil; span = span.Next {
				if span.Area == RC_NULL_AREA {
					continue
				}
				bot := span.Smax
				top := RC_SPAN_OPEN_HEIGHT
				if span.Next != nil {
					top = span.Next.Smin
				}
				chf.Spans[currentCellIndex].Y = common.Clamp(bot, 0, 0xffff)
				// H keeps the whole open gap; links compare it to walkableHeight.
				chf.Spans[currentCellIndex].H = common.Clamp(top-bot, 0, RC_SPAN_OPEN_HEIGHT)
				chf.Areas[currentCellIndex] = span.Area
				currentCellIndex++
				cell.Count++
			}
		}
	}

	// Find neighbour connections.
	const maxLayers = RC_NOT_CONNECTED - 1
	maxLayerIndex := 0
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*xSize]
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				span := &chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					rcSetCon(span, dir, RC_NOT_CONNECTED)
					neighborX := x + common.GetDirOffsetX(dir)
					neighborZ := z + common.GetDirOffsetY(dir)
					// First check that the neighbour cell is in bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						continue
					}

					// Iterate over all neighbour spans and check if any of the is
					// accessible from current cell.
					neighborCell := chf.Cells[neighborX+neighborZ*xSize]
					for k := neighborCell.Index; k < neighborCell.Index+neighborCell.Count; k++ {
						neighborSpan := &chf.Spans[k]
						bot := max(span.Y, neighborSpan.Y)
						top := min(span.Y+span.H, neighborSpan.Y+neighborSpan.H)

						// Check that the gap between the spans is walkable,
						// and that the climb height between the gaps is not too high.
						if (top-bot) >= walkableHeight && common.Abs(neighborSpan.Y-span.Y) <= walkableClimb {
							// Mark direction as walkable.
							layerIndex := k - neighborCell.Index
							if layerIndex > maxLayers {
								maxLayerIndex = max(maxLayerIndex, layerIndex)
								continue
							}
							rcSetCon(span, dir, layerIndex)
							break
						}
					}
				}
			}
		}
	}

	if maxLayerIndex > maxLayers {
		ctx.Errorf("rcBuildCompactHeightfield: Heightfield has too many layers %d (max: %d)", maxLayerIndex, maxLayers)
		return nil, fmt.Errorf("%w: layer index %d exceeds %d", ErrTooManyLayers, maxLayerIndex, maxLayers)
	}
	return chf, nil
}
