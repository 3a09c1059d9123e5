package navigation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gorustyt/navcore/common"
	"github.com/gorustyt/navcore/config"
	"github.com/gorustyt/navcore/recast"
)

// Polygon flag set on every walkable polygon.
const POLYFLAGS_WALK = 0x01

// AgentProfile identifies one navmesh. Two profiles with equal fields share
// a mesh.
type AgentProfile struct {
	Name     string
	Height   float64
	Radius   float64
	MaxClimb float64
	MaxSlope float64
}

func ProfileOf(a config.AgentConfig) AgentProfile {
	return AgentProfile{
		Name:     a.Name,
		Height:   a.Height,
		Radius:   a.Radius,
		MaxClimb: a.MaxClimb,
		MaxSlope: a.MaxSlope,
	}
}

// ProfilesFrom returns the profiles of every configured agent.
func ProfilesFrom(s *config.Settings) []AgentProfile {
	res := make([]AgentProfile, 0, len(s.Agents))
	for _, a := range s.Agents {
		res = append(res, ProfileOf(a))
	}
	return res
}

// queryExtents is the half size of the box searched around query points.
func (p AgentProfile) queryExtents(s *config.Settings) mgl32.Vec3 {
	if len(s.QueryExtents) == 3 {
		return mgl32.Vec3{float32(s.QueryExtents[0]), float32(s.QueryExtents[1]), float32(s.QueryExtents[2])}
	}
	xz := float32(max(2, 4*p.Radius))
	return mgl32.Vec3{xz, float32(p.Height), xz}
}

// rcConfig converts world unit settings into the voxel units of the builder.
func (p AgentProfile) rcConfig(s *config.Settings) recast.RcConfig {
	cfg := recast.RcConfig{
		Cs:                     s.CellSize,
		Ch:                     s.CellHeight,
		WalkableSlopeAngle:     p.MaxSlope,
		WalkableHeight:         int(math.Ceil(p.Height / s.CellHeight)),
		WalkableClimb:          int(math.Floor(p.MaxClimb / s.CellHeight)),
		WalkableRadius:         int(math.Ceil(p.Radius / s.CellSize)),
		MaxEdgeLen:             int(s.MaxEdgeLength / s.CellSize),
		MaxSimplificationError: s.MaxEdgeError,
		MinRegionArea:          int(common.Sqr(s.MinRegionArea)),   // Note: area = size*size
		MergeRegionArea:        int(common.Sqr(s.MergeRegionArea)), // Note: area = size*size
		MaxVertsPerPoly:        s.VertsPerPoly,
		BorderSize:             s.BorderSize,
		DetailSampleDist:       s.CellSize * s.SampleDistance,
		DetailSampleMaxError:   s.CellHeight * s.SampleMaxError,
	}
	if s.SampleDistance < 0.9 {
		cfg.DetailSampleDist = 0
	}
	if s.ContourBuildFlags.TessellateWallEdges {
		cfg.BuildFlags |= recast.RC_CONTOUR_TESS_WALL_EDGES
	}
	if s.ContourBuildFlags.TessellateAreaEdges {
		cfg.BuildFlags |= recast.RC_CONTOUR_TESS_AREA_EDGES
	}
	return cfg
}

func buildFilters(s *config.Settings) recast.RcBuildFilters {
	return recast.RcBuildFilters{
		LowHangingObstacles:    s.Filters.LowHangingObstacles,
		LedgeSpans:             s.Filters.LedgeSpans,
		WalkableLowHeightSpans: s.Filters.WalkableLowHeightSpans,
		MedianArea:             s.Filters.MedianArea,
	}
}

func convexVolumes(s *config.Settings) []recast.RcConvexVolume {
	res := make([]recast.RcConvexVolume, 0, len(s.ConvexVolumes))
	for _, v := range s.ConvexVolumes {
		vol := recast.RcConvexVolume{Hmin: v.Hmin, Hmax: v.Hmax, Area: v.Area}
		for _, pt := range v.Points {
			vol.Verts = append(vol.Verts, pt[0], pt[1], pt[2])
		}
		res = append(res, vol)
	}
	return res
}
