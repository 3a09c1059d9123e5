package recast

import "github.com/gorustyt/navcore/common"

type RcSpan struct {
	Smin int     ///< The lower limit of the span. [Limit: < #smax]
	Smax int     ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area int     ///< The area id assigned to the span.
	Next *RcSpan ///< The next span higher up in column.
}

// / A memory pool used for quick allocation of spans within a heightfield.
type RcSpanPool struct {
	next  *RcSpanPool
	items [RC_SPANS_PER_POOL]RcSpan
}

// / A dynamic heightfield representing obstructed space.
type RcHeightfield struct {
	Width    int        ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height   int        ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin     [3]float64 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax     [3]float64 ///< The maximum bounds in world space. [(x, y, z)]
	Cs       float64    ///< The size of each cell. (On the xz-plane.)
	Ch       float64    ///< The height of each cell. (The minimum increment along the y-axis.)
	Spans    []*RcSpan  ///< Heightfield of spans (width*height).
	Pools    *RcSpanPool
	Freelist *RcSpan
}

// SpanCount returns the number of spans in the field.
func (hf *RcHeightfield) SpanCount() int {
	n := 0
	for _, s := range hf.Spans {
		for ; s != nil; s = s.Next {
			n++
		}
	}
	return n
}

// / Marks non-walkable spans as walkable if their maximum is within
// / @p walkableClimb of a walkable neighbor below.
func RcFilterLowHangingWalkableObstacles(ctx *RcContext, walkableClimb int, heightfield *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_LOW_OBSTACLES)
	defer ctx.StopTimer(RC_TIMER_FILTER_LOW_OBSTACLES)

	xSize := heightfield.Width
	zSize := heightfield.Height
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			var previousSpan *RcSpan
			previousWasWalkable := false
			previousArea := RC_NULL_AREA
			for span := heightfield.Spans[x+z*xSize]; span != nil; span = span.Next {
				walkable := span.Area != RC_NULL_AREA
				// If current span is not walkable, but there is walkable
				// span just below it, mark the span above it walkable too.
				if !walkable && previousWasWalkable && span.Smax-previousSpan.Smax <= walkableClimb {
					span.Area = previousArea
				}
				// Copy the original walkable flag so that it cannot propagate
				// past multiple non-walkable objects.
				previousWasWalkable = walkable
				previousArea = span.Area
				previousSpan = span
			}
		}
	}
}

// / Marks spans that are ledges as not-walkable.
// /
// / A ledge is a span with one or more neighbors whose maximum is further away
// / than @p walkableClimb from the current span's maximum. Spans on the edge
// / of the field count as ledges.
func RcFilterLedgeSpans(ctx *RcContext, walkableHeight, walkableClimb int, heightfield *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_BORDER)
	defer ctx.StopTimer(RC_TIMER_FILTER_BORDER)

	const maxHeight = 0xffff
	xSize := heightfield.Width
	zSize := heightfield.Height
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			for span := heightfield.Spans[x+z*xSize]; span != nil; span = span.Next {
				// Skip non-walkable spans.
				if span.Area == RC_NULL_AREA {
					continue
				}
				floor := span.Smax
				ceiling := maxHeight
				if span.Next != nil {
					ceiling = span.Next.Smin
				}

				// The difference between this walkable area and the lowest neighbor walkable area.
				lowestNeighborFloorDifference := maxHeight
				// Min and max height of accessible neighbours.
				lowestTraversableNeighborFloor := span.Smax
				highestTraversableNeighborFloor := span.Smax

				for direction := 0; direction < 4; direction++ {
					neighborX := x + common.GetDirOffsetX(direction)
					neighborZ := z + common.GetDirOffsetY(direction)
					// Skip neighbours which are out of bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					neighborSpan := heightfield.Spans[neighborX+neighborZ*xSize]
					neighborCeiling := maxHeight
					if neighborSpan != nil {
						neighborCeiling = neighborSpan.Smin
					}
					// Open space below the neighbor column's first span is an unbounded drop.
					if min(ceiling, neighborCeiling)-floor >= walkableHeight {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					// For each span in the neighboring column...
					for ; neighborSpan != nil; neighborSpan = neighborSpan.Next {
						neighborFloor := neighborSpan.Smax
						neighborCeiling = maxHeight
						if neighborSpan.Next != nil {
							neighborCeiling = neighborSpan.Next.Smin
						}
						// Only consider neighboring areas that have enough overlap to be potentially traversable.
						if min(ceiling, neighborCeiling)-max(floor, neighborFloor) < walkableHeight {
							// No space to traverse between them.
							continue
						}
						neighborFloorDifference := neighborFloor - floor
						lowestNeighborFloorDifference = min(lowestNeighborFloorDifference, neighborFloorDifference)

						// Find min/max accessible neighbor height.
						// Only consider neighbors that are at most walkableClimb away.
						if common.Abs(neighborFloorDifference) <= walkableClimb {
							// There is space to move to the neighbor cell and the slope isn't too much.
							lowestTraversableNeighborFloor = min(lowestTraversableNeighborFloor, neighborFloor)
							highestTraversableNeighborFloor = max(highestTraversableNeighborFloor, neighborFloor)
						} else if neighborFloorDifference < -walkableClimb {
							// We already know this will be considered a ledge span so we can early-out
							break
						}
					}
				}

				// The current span is close to a ledge if the magnitude of the drop to any neighbour span is greater than the walkableClimb distance.
				// That is, there is a gap that is large enough to let an agent move between them, but the drop (surface slope) is too large to allow it.
				if lowestNeighborFloorDifference < -walkableClimb {
					span.Area = RC_NULL_AREA
				} else if highestTraversableNeighborFloor-lowestTraversableNeighborFloor > walkableClimb {
					// If the difference between all neighbor floors is too large, this is a steep slope.
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}

// / Marks walkable spans as not walkable if the clearance above the span is
// / less than the specified walkableHeight.
func RcFilterWalkableLowHeightSpans(ctx *RcContext, walkableHeight int, heightfield *RcHeightfield) {
	ctx.StartTimer(RC_TIMER_FILTER_WALKABLE)
	defer ctx.StopTimer(RC_TIMER_FILTER_WALKABLE)

	const maxHeight = 0xffff
	xSize := heightfield.Width
	zSize := heightfield.Height
	// Remove walkable flag from spans which do not have enough
	// space above them for the agent to stand there.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			for span := heightfield.Spans[x+z*xSize]; span != nil; span = span.Next {
				floor := span.Smax
				ceiling := maxHeight
				if span.Next != nil {
					ceiling = span.Next.Smin
				}
				if ceiling-floor < walkableHeight {
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}
