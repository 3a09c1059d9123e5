package detour

import "github.com/go-gl/mathgl/mgl32"

// / Defines polygon filtering and traversal costs for navigation mesh query operations.
type DtQueryFilter struct {
	areaCost     [DT_MAX_AREAS]float32 ///< Cost per area type. (Used by default implementation.)
	includeFlags uint16                ///< Flags for polygons that can be visited. (Used by default implementation.)
	excludeFlags uint16                ///< Flags for polygons that should not be visited. (Used by default implementation.)
}

// NewDtQueryFilter returns a filter that accepts every polygon with any flag
// set at unit cost.
func NewDtQueryFilter() *DtQueryFilter {
	f := &DtQueryFilter{includeFlags: 0xffff}
	for i := range f.areaCost {
		f.areaCost[i] = 1.0
	}
	return f
}

// / Returns the traversal cost of the area.
func (filter *DtQueryFilter) GetAreaCost(i int) float32 { return filter.areaCost[i] }

// / Sets the traversal cost of the area.
func (filter *DtQueryFilter) SetAreaCost(i int, cost float32) { filter.areaCost[i] = cost }

// / Returns the include flags for the filter.
// / Any polygons that include one or more of these flags will be
// / included in the operation.
func (filter *DtQueryFilter) GetIncludeFlags() uint16 { return filter.includeFlags }

func (filter *DtQueryFilter) SetIncludeFlags(flags uint16) { filter.includeFlags = flags }

// / Returns the exclude flags for the filter.
// / Any polygons that include one ore more of these flags will be
// / excluded from the operation.
func (filter *DtQueryFilter) GetExcludeFlags() uint16 { return filter.excludeFlags }

func (filter *DtQueryFilter) SetExcludeFlags(flags uint16) { filter.excludeFlags = flags }

// PassFilter returns true if the polygon can be visited.
func (filter *DtQueryFilter) PassFilter(poly *DtPoly) bool {
	return (poly.Flags&filter.includeFlags) != 0 && (poly.Flags&filter.excludeFlags) == 0
}

// GetCost returns the cost to move from pa to pb across curPoly.
func (filter *DtQueryFilter) GetCost(pa, pb mgl32.Vec3, curPoly *DtPoly) float32 {
	return dtVdist(pa, pb) * filter.areaCost[curPoly.Area]
}
