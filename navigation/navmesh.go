package navigation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gorustyt/navcore/config"
	"github.com/gorustyt/navcore/detour"
	"github.com/gorustyt/navcore/geom"
	"github.com/gorustyt/navcore/recast"
)

// NavMesh is one built navigation mesh and everything needed to query it.
// It is immutable once published; rebuilding produces a new NavMesh.
type NavMesh struct {
	ID       uuid.UUID
	Profile  AgentProfile
	Settings *config.Settings
	Mesh     *detour.DtNavMesh
	BuiltAt  time.Time
	Timings  map[string]time.Duration

	// Intermediate stages, nil for meshes loaded from a snapshot.
	Build *recast.RcBuildResult

	filter  *detour.DtQueryFilter
	extents mgl32.Vec3
	queries sync.Pool
}

func newNavMesh(p AgentProfile, s *config.Settings, mesh *detour.DtNavMesh) *NavMesh {
	nm := &NavMesh{
		ID:       uuid.New(),
		Profile:  p,
		Settings: s,
		Mesh:     mesh,
		BuiltAt:  time.Now(),
		filter:   detour.NewDtQueryFilter(),
		extents:  p.queryExtents(s),
	}
	for area, cost := range s.AreaCostTable() {
		nm.filter.SetAreaCost(area, float32(cost))
	}
	nm.queries.New = func() any {
		q, err := detour.NewDtNavMeshQuery(mesh, detour.DefaultMaxNodes)
		if err != nil {
			panic(err)
		}
		return q
	}
	return nm
}

// BuildNavMesh runs the whole pipeline for one agent profile.
func BuildNavMesh(ctx context.Context, logger *zap.Logger, g *geom.InputGeom, s *config.Settings, p AgentProfile) (*NavMesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s = s.Clone()
	cfg := p.rcConfig(s)
	bmin, bmax := g.Bounds()
	cfg.SetBounds(bmin[:], bmax[:])

	rc := recast.NewRcContext(logger.With(zap.String("agent", p.Name)))
	res, err := recast.RcBuild(rc, cfg, buildFilters(s), g.Verts, g.Tris, convexVolumes(s))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pmesh, dmesh := res.Pmesh, res.Dmesh
	flags := make([]int, pmesh.Npolys)
	for i := range flags {
		if pmesh.Areas[i] != recast.RC_NULL_AREA {
			flags[i] = POLYFLAGS_WALK
		}
	}
	mesh, err := detour.NewDtNavMesh(&detour.DtNavMeshCreateParams{
		Verts:            pmesh.Verts,
		VertCount:        pmesh.Nverts,
		Polys:            pmesh.Polys,
		PolyFlags:        flags,
		PolyAreas:        pmesh.Areas,
		PolyCount:        pmesh.Npolys,
		Nvp:              pmesh.Nvp,
		DetailMeshes:     dmesh.Meshes,
		DetailVerts:      dmesh.Verts,
		DetailVertsCount: dmesh.Nverts,
		DetailTris:       dmesh.Tris,
		DetailTriCount:   dmesh.Ntris,
		WalkableHeight:   float32(p.Height),
		WalkableRadius:   float32(p.Radius),
		WalkableClimb:    float32(p.MaxClimb),
		Bmin:             pmesh.Bmin,
		Bmax:             pmesh.Bmax,
		Cs:               pmesh.Cs,
		Ch:               pmesh.Ch,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build Detour navmesh: %w", err)
	}

	nm := newNavMesh(p, s, mesh)
	nm.Build = res
	nm.Timings = rc.Timings()
	logger.Info("navmesh built",
		zap.String("agent", p.Name),
		zap.Stringer("id", nm.ID),
		zap.Int("polys", mesh.PolyCount()),
		zap.Int("warnings", rc.Warnings()),
		zap.Duration("total", rc.GetAccumulatedTime(recast.RC_TIMER_TOTAL)))
	return nm, nil
}

// LoadSnapshot restores a mesh written by MarshalBinary.
func LoadSnapshot(p AgentProfile, s *config.Settings, data []byte) (*NavMesh, error) {
	mesh, err := detour.UnmarshalDtNavMesh(data)
	if err != nil {
		return nil, err
	}
	return newNavMesh(p, s.Clone(), mesh), nil
}

func (nm *NavMesh) MarshalBinary() ([]byte, error) {
	return nm.Mesh.MarshalBinary()
}

func (nm *NavMesh) acquire() *detour.DtNavMeshQuery {
	return nm.queries.Get().(*detour.DtNavMeshQuery)
}

func (nm *NavMesh) release(q *detour.DtNavMeshQuery) {
	nm.queries.Put(q)
}

// Nodes returns the polygon graph.
func (nm *NavMesh) Nodes() []detour.DtGraphNode {
	return nm.Mesh.Nodes()
}

// IsWalkable reports whether pos stands on the mesh and the nearest point
// on it. pos is returned unchanged when no polygon is in reach.
func (nm *NavMesh) IsWalkable(pos mgl32.Vec3) (bool, mgl32.Vec3) {
	if nm.Mesh.PolyCount() == 0 {
		return false, pos
	}
	q := nm.acquire()
	defer nm.release(q)
	ok, nearest, status := q.IsWalkable(pos, nm.extents, nm.filter)
	if status.Failed() {
		return false, pos
	}
	return ok, nearest
}

// FindPath returns the waypoints from one point to another, both snapped to
// the mesh first. It reports false when either point is off the mesh or the
// two are not connected.
func (nm *NavMesh) FindPath(from, to mgl32.Vec3) ([]mgl32.Vec3, bool) {
	if nm.Mesh.PolyCount() == 0 {
		return nil, false
	}
	q := nm.acquire()
	defer nm.release(q)

	startRef, startPos, status := q.FindNearestPoly(from, nm.extents, nm.filter)
	if status.Failed() || startRef == 0 {
		return nil, false
	}
	endRef, endPos, status := q.FindNearestPoly(to, nm.extents, nm.filter)
	if status.Failed() || endRef == 0 {
		return nil, false
	}
	path, status := q.FindPath(startRef, endRef, startPos, endPos, nm.filter)
	if status.Failed() || status.Detail(detour.DT_PARTIAL_RESULT) || q.State() != detour.DtQueryPathFound {
		return nil, false
	}
	points, _, _, status := q.FindStraightPath(startPos, endPos, path, 0)
	if status.Failed() || len(points) == 0 {
		return nil, false
	}
	return points, true
}
