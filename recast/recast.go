package recast

import (
	"errors"
	"fmt"
	"math"

	"github.com/gorustyt/navcore/common"
	"go.uber.org/multierr"
)

// / Specifies a configuration to use when performing Recast builds.
type RcConfig struct {
	/// The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
	Width int

	/// The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
	Height int

	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int

	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float64

	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float64

	/// The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmin [3]float64

	/// The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmax [3]float64

	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float64

	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int

	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int

	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int

	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float64

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int

	/// The maximum number of vertices allowed for polygons generated during the
	/// contour to polygon conversion process. [Limit: >= 3]
	MaxVertsPerPoly int

	/// Sets the sampling distance to use when generating the detail mesh.
	/// [Limits: 0 or >= 0.9] [Units: wu]
	DetailSampleDist float64

	/// The maximum distance the detail mesh surface should deviate from heightfield
	/// data. [Limit: >=0] [Units: wu]
	DetailSampleMaxError float64

	/// Contour tessellation flags. (See: #RC_CONTOUR_TESS_WALL_EDGES)
	BuildFlags int
}

const (
	// / The default area id used to indicate a walkable polygon.
	RC_WALKABLE_AREA = 63
	// / Represents the null area. A span with this area id is not walkable.
	RC_NULL_AREA = 0

	// / Defines the number of bits allocated to rcSpan::smin and rcSpan::smax.
	RC_SPAN_HEIGHT_BITS = 13
	// / Defines the maximum value for rcSpan::smin and rcSpan::smax.
	RC_SPAN_MAX_HEIGHT = (1 << RC_SPAN_HEIGHT_BITS) - 1
	// / The number of spans allocated per span spool.
	RC_SPANS_PER_POOL = 2048

	// Compact span height of a column with nothing above it.
	RC_SPAN_OPEN_HEIGHT = 0xffff

	// / The value returned by #rcGetCon if the specified direction is not connected.
	RC_NOT_CONNECTED = 0x3f
	// / Heightfield border flag. Marks the painted tile border regions.
	RC_BORDER_REG = 0x8000
	// / Polygon touches multiple regions.
	RC_MULTIPLE_REGS = 0

	// / Border vertex flag.
	RC_BORDER_VERTEX = 0x10000
	// / Area border flag.
	RC_AREA_BORDER = 0x20000
	// / Applied to the region id field of contour vertices to extract the region id.
	RC_CONTOUR_REG_MASK = 0xffff

	// / Tessellate solid (impassable) edges during contour simplification.
	RC_CONTOUR_TESS_WALL_EDGES = 0x01
	// / Tessellate edges between areas during contour simplification.
	RC_CONTOUR_TESS_AREA_EDGES = 0x02

	// / An value which indicates an invalid index within a mesh.
	RC_MESH_NULL_IDX = 0xffff
	// / Upper limit for vertices per polygon accepted by the mesh builder.
	RC_MAX_VERTS_PER_POLY = 12

	// Padding applied to geometry bounds before the grid is computed.
	RC_BOUNDS_EPSILON = 1e-3
)

var (
	ErrInvalidConfig   = errors.New("recast: invalid config")
	ErrTooManyLayers   = errors.New("recast: too many layers in heightfield column")
	ErrRegionOverflow  = errors.New("recast: region id overflow")
	ErrTooManyVertices = errors.New("recast: too many vertices")
	ErrTooManyPolygons = errors.New("recast: too many polygons")
)

// Validate rejects settings the pipeline cannot represent.
func (cfg *RcConfig) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}
	check(cfg.Cs > 0, "cell size %v must be > 0", cfg.Cs)
	check(cfg.Ch > 0, "cell height %v must be > 0", cfg.Ch)
	check(cfg.WalkableSlopeAngle >= 0 && cfg.WalkableSlopeAngle < 90, "walkable slope %v out of [0, 90)", cfg.WalkableSlopeAngle)
	check(cfg.WalkableHeight >= 3, "walkable height %d vx must be >= 3", cfg.WalkableHeight)
	check(cfg.WalkableClimb >= 0, "walkable climb %d vx must be >= 0", cfg.WalkableClimb)
	check(cfg.WalkableRadius >= 0, "walkable radius %d vx must be >= 0", cfg.WalkableRadius)
	check(cfg.BorderSize >= 0, "border size %d must be >= 0", cfg.BorderSize)
	check(cfg.MaxEdgeLen >= 0, "max edge length %d must be >= 0", cfg.MaxEdgeLen)
	check(cfg.MaxSimplificationError >= 0, "max simplification error %v must be >= 0", cfg.MaxSimplificationError)
	check(cfg.MinRegionArea >= 0, "min region area %d must be >= 0", cfg.MinRegionArea)
	check(cfg.MergeRegionArea >= 0, "merge region area %d must be >= 0", cfg.MergeRegionArea)
	check(cfg.MaxVertsPerPoly >= 3 && cfg.MaxVertsPerPoly <= RC_MAX_VERTS_PER_POLY,
		"verts per poly %d out of [3, %d]", cfg.MaxVertsPerPoly, RC_MAX_VERTS_PER_POLY)
	check(cfg.Width >= 0 && cfg.Height >= 0, "grid size %dx%d must be >= 0", cfg.Width, cfg.Height)
	check(cfg.Width < RC_MESH_NULL_IDX && cfg.Height < RC_MESH_NULL_IDX, "grid size %dx%d exceeds %d", cfg.Width, cfg.Height, RC_MESH_NULL_IDX-1)
	if cfg.Ch > 0 {
		check((cfg.Bmax[1]-cfg.Bmin[1])/cfg.Ch <= RC_SPAN_MAX_HEIGHT,
			"height range %v needs more than %d cells of %v", cfg.Bmax[1]-cfg.Bmin[1], RC_SPAN_MAX_HEIGHT, cfg.Ch)
	}
	return err
}

func RcCalcBounds(verts []float64, numVerts int, minBounds []float64, maxBounds []float64) {
	if numVerts == 0 {
		return
	}
	copy(minBounds, verts[:3])
	copy(maxBounds, verts[:3])
	for i := 1; i < numVerts; i++ {
		v := common.GetVert3(verts, i)
		common.Vmin(minBounds, v)
		common.Vmax(maxBounds, v)
	}
}

func RcCalcGridSize(minBounds, maxBounds []float64, cellSize float64) (sizeX, sizeZ int) {
	sizeX = int((maxBounds[0]-minBounds[0])/cellSize + 0.5)
	sizeZ = int((maxBounds[2]-minBounds[2])/cellSize + 0.5)
	return sizeX, sizeZ
}

func RcCreateHeightfield(sizeX, sizeZ int, minBounds, maxBounds []float64, cellSize, cellHeight float64) *RcHeightfield {
	hf := &RcHeightfield{
		Width:  sizeX,
		Height: sizeZ,
		Cs:     cellSize,
		Ch:     cellHeight,
		Spans:  make([]*RcSpan, sizeX*sizeZ),
	}
	copy(hf.Bmin[:], minBounds)
	copy(hf.Bmax[:], maxBounds)
	return hf
}

// calcTriNormal reports false for zero-area triangles.
func calcTriNormal(v0, v1, v2 []float64, faceNormal []float64) bool {
	e0 := make([]float64, 3)
	e1 := make([]float64, 3)
	common.Vsub(e0, v1, v0)
	common.Vsub(e1, v2, v0)
	common.Vcross(faceNormal, e0, e1)
	return common.Vnormalize(faceNormal)
}

// / Sets the area id of all triangles with a slope below the specified value
// / to #RC_WALKABLE_AREA.
func RcMarkWalkableTriangles(walkableSlopeAngle float64, verts []float64, tris []int, numTris int, triAreaIDs []int) {
	walkableThr := math.Cos(walkableSlopeAngle / 180.0 * math.Pi)
	norm := make([]float64, 3)
	for i := 0; i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		if !calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm) {
			continue
		}
		if norm[1] > walkableThr {
			triAreaIDs[i] = RC_WALKABLE_AREA
		}
	}
}

// / Sets the area id of all triangles with a slope greater than or equal to
// / the specified value to #RC_NULL_AREA.
func RcClearUnwalkableTriangles(walkableSlopeAngle float64, verts []float64, tris []int, numTris int, triAreaIDs []int) {
	walkableThr := math.Cos(walkableSlopeAngle / 180.0 * math.Pi)
	norm := make([]float64, 3)
	for i := 0; i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		if !calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm) ||
			norm[1] <= walkableThr {
			triAreaIDs[i] = RC_NULL_AREA
		}
	}
}
