package recast

import (
	"fmt"
)

// RcConvexVolume marks the walkable surface inside a vertical prism with an area id.
type RcConvexVolume struct {
	Verts []float64 // xz outline as packed xyz, y ignored
	Hmin  float64
	Hmax  float64
	Area  int
}

// RcBuildFilters toggles the optional heightfield passes.
type RcBuildFilters struct {
	LowHangingObstacles    bool
	LedgeSpans             bool
	WalkableLowHeightSpans bool
	MedianArea             bool
}

// RcBuildResult keeps every intermediate stage of a build.
type RcBuildResult struct {
	Config RcConfig
	Solid  *RcHeightfield
	Chf    *RcCompactHeightfield
	Cset   *RcContourSet
	Pmesh  *RcPolyMesh
	Dmesh  *RcPolyMeshDetail
}

// SetBounds sets the build area, padded by RC_BOUNDS_EPSILON and grown by
// BorderSize cells on each side, and derives the grid size from it.
func (cfg *RcConfig) SetBounds(bmin, bmax []float64) {
	copy(cfg.Bmin[:], bmin)
	copy(cfg.Bmax[:], bmax)
	for i := 0; i < 3; i++ {
		cfg.Bmin[i] -= RC_BOUNDS_EPSILON
		cfg.Bmax[i] += RC_BOUNDS_EPSILON
	}
	cfg.Width, cfg.Height = RcCalcGridSize(cfg.Bmin[:], cfg.Bmax[:], cfg.Cs)
	if cfg.BorderSize > 0 {
		pad := float64(cfg.BorderSize) * cfg.Cs
		cfg.Width += cfg.BorderSize * 2
		cfg.Height += cfg.BorderSize * 2
		cfg.Bmin[0] -= pad
		cfg.Bmin[2] -= pad
		cfg.Bmax[0] += pad
		cfg.Bmax[2] += pad
	}
}

// RcBuild runs the whole pipeline over an indexed triangle mesh: voxelize,
// filter, compact, erode, mark volumes, partition, trace contours and build
// the polygon and detail meshes. cfg must have its bounds set.
func RcBuild(ctx *RcContext, cfg RcConfig, filters RcBuildFilters, verts []float64, tris []int, volumes []RcConvexVolume) (*RcBuildResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ntris := len(tris) / 3
	nverts := len(verts) / 3
	for _, t := range tris {
		if t < 0 || t >= nverts {
			return nil, fmt.Errorf("%w: triangle index %d out of %d vertices", ErrInvalidConfig, t, nverts)
		}
	}

	ctx.ResetTimers()
	ctx.StartTimer(RC_TIMER_TOTAL)
	defer func() {
		ctx.StopTimer(RC_TIMER_TOTAL)
		ctx.LogBuildTimes()
	}()

	res := &RcBuildResult{Config: cfg}
	ctx.Progressf("Building navigation:")
	ctx.Progressf(" - %d x %d cells", cfg.Width, cfg.Height)
	ctx.Progressf(" - %.1fK verts, %.1fK tris", float64(nverts)/1000.0, float64(ntris)/1000.0)

	//
	// Step 2. Rasterize input polygon soup.
	//
	res.Solid = RcCreateHeightfield(cfg.Width, cfg.Height, cfg.Bmin[:], cfg.Bmax[:], cfg.Cs, cfg.Ch)
	triAreas := make([]int, ntris)
	RcMarkWalkableTriangles(cfg.WalkableSlopeAngle, verts, tris, ntris, triAreas)
	RcRasterizeTriangles(ctx, verts, tris, triAreas, ntris, res.Solid, cfg.WalkableClimb)

	//
	// Step 3. Filter walkable surfaces.
	//
	if filters.LowHangingObstacles {
		RcFilterLowHangingWalkableObstacles(ctx, cfg.WalkableClimb, res.Solid)
	}
	if filters.LedgeSpans {
		RcFilterLedgeSpans(ctx, cfg.WalkableHeight, cfg.WalkableClimb, res.Solid)
	}
	if filters.WalkableLowHeightSpans {
		RcFilterWalkableLowHeightSpans(ctx, cfg.WalkableHeight, res.Solid)
	}

	//
	// Step 4. Partition walkable surface to simple regions.
	//
	chf, err := RcBuildCompactHeightfield(ctx, cfg.WalkableHeight, cfg.WalkableClimb, res.Solid)
	if err != nil {
		return nil, fmt.Errorf("buildNavigation: could not build compact data: %w", err)
	}
	res.Chf = chf

	// Erode the walkable area by agent radius.
	RcErodeWalkableArea(ctx, cfg.WalkableRadius, chf)
	if filters.MedianArea {
		RcMedianFilterWalkableArea(ctx, chf)
	}

	// (Optional) Mark areas.
	for _, vol := range volumes {
		RcMarkConvexPolyArea(ctx, vol.Verts, len(vol.Verts)/3, vol.Hmin, vol.Hmax, vol.Area, chf)
	}

	// Prepare for region partitioning, by calculating distance field along the walkable surface.
	RcBuildDistanceField(ctx, chf)
	// Partition the walkable surface into simple regions without holes.
	if err := RcBuildRegions(ctx, chf, cfg.BorderSize, cfg.MinRegionArea, cfg.MergeRegionArea); err != nil {
		return nil, fmt.Errorf("buildNavigation: could not build watershed regions: %w", err)
	}

	//
	// Step 5. Trace and simplify region contours.
	//
	cset, err := RcBuildContours(ctx, chf, cfg.MaxSimplificationError, cfg.MaxEdgeLen, cfg.BuildFlags)
	if err != nil {
		return nil, fmt.Errorf("buildNavigation: could not create contours: %w", err)
	}
	res.Cset = cset

	//
	// Step 6. Build polygons mesh from contours.
	//
	pmesh, err := RcBuildPolyMesh(ctx, cset, cfg.MaxVertsPerPoly)
	if err != nil {
		return nil, fmt.Errorf("buildNavigation: could not triangulate contours: %w", err)
	}
	res.Pmesh = pmesh

	//
	// Step 7. Create detail mesh which allows to access approximate height on each polygon.
	//
	dmesh, err := RcBuildPolyMeshDetail(ctx, pmesh, chf, cfg.DetailSampleDist, cfg.DetailSampleMaxError)
	if err != nil {
		return nil, fmt.Errorf("buildNavigation: could not build detail mesh: %w", err)
	}
	res.Dmesh = dmesh

	ctx.Progressf(">> Polymesh: %d vertices  %d polygons", pmesh.Nverts, pmesh.Npolys)
	return res, nil
}
