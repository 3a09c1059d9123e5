package navigation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gorustyt/navcore/config"
	"github.com/gorustyt/navcore/detour"
	"github.com/gorustyt/navcore/geom"
)

// ErrDuplicateProfile is returned by Build when two profiles share a name.
var ErrDuplicateProfile = errors.New("duplicate agent profile")

// Manager keeps one navmesh per agent profile. Queries may run from any
// number of goroutines while meshes are rebuilt and swapped. At most one
// profile per agent name is published at a time.
type Manager struct {
	logger *zap.Logger

	mu     sync.RWMutex
	meshes map[AgentProfile]*atomic.Pointer[NavMesh]
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger: logger,
		meshes: map[AgentProfile]*atomic.Pointer[NavMesh]{},
	}
}

// Build builds a mesh for every profile concurrently, defaulting to the
// agents of s, and publishes each one as soon as it is ready. Failed
// profiles keep their previous mesh; their errors are combined.
func (m *Manager) Build(ctx context.Context, g *geom.InputGeom, s *config.Settings, profiles ...AgentProfile) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if len(profiles) == 0 {
		profiles = ProfilesFrom(s)
	}
	names := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if names[p.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateProfile, p.Name)
		}
		names[p.Name] = true
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, p := range profiles {
		wg.Add(1)
		go func(p AgentProfile) {
			defer wg.Done()
			nm, err := BuildNavMesh(ctx, m.logger, g, s, p)
			if err != nil {
				m.logger.Error("navmesh build failed", zap.String("agent", p.Name), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("agent %q: %w", p.Name, err))
				mu.Unlock()
				return
			}
			m.Swap(p, nm)
		}(p)
	}
	wg.Wait()
	return errs
}

func (m *Manager) slot(p AgentProfile) *atomic.Pointer[NavMesh] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meshes[p]
}

// Swap publishes nm for p and returns the mesh it replaced, if any.
// A published profile with the same name but other dimensions is retired
// and its mesh returned instead. In-flight queries finish on the old mesh.
func (m *Manager) Swap(p AgentProfile, nm *NavMesh) *NavMesh {
	m.mu.Lock()
	defer m.mu.Unlock()
	var old *NavMesh
	for q, ptr := range m.meshes {
		if q.Name == p.Name && q != p {
			old = ptr.Load()
			delete(m.meshes, q)
		}
	}
	ptr := m.meshes[p]
	if ptr == nil {
		ptr = &atomic.Pointer[NavMesh]{}
		m.meshes[p] = ptr
	}
	if prev := ptr.Swap(nm); prev != nil {
		old = prev
	}
	return old
}

// Remove drops the mesh of p. It reports whether there was one.
func (m *Manager) Remove(p AgentProfile) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ptr, ok := m.meshes[p]
	delete(m.meshes, p)
	return ok && ptr.Load() != nil
}

// Profiles lists the profiles with a published mesh, sorted by name.
func (m *Manager) Profiles() []AgentProfile {
	m.mu.RLock()
	res := make([]AgentProfile, 0, len(m.meshes))
	for p, ptr := range m.meshes {
		if ptr.Load() != nil {
			res = append(res, p)
		}
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].Radius < res[j].Radius
	})
	return res
}

// Profile finds the published profile of the named agent.
func (m *Manager) Profile(name string) (AgentProfile, bool) {
	for _, p := range m.Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return AgentProfile{}, false
}

// Mesh returns the current mesh of p or nil.
func (m *Manager) Mesh(p AgentProfile) *NavMesh {
	if ptr := m.slot(p); ptr != nil {
		return ptr.Load()
	}
	return nil
}

// GetNodes returns the polygon graph of p, nil when p has no mesh.
func (m *Manager) GetNodes(p AgentProfile) []detour.DtGraphNode {
	nm := m.Mesh(p)
	if nm == nil {
		return nil
	}
	return nm.Nodes()
}

func (m *Manager) FindPath(p AgentProfile, from, to mgl32.Vec3) ([]mgl32.Vec3, bool) {
	nm := m.Mesh(p)
	if nm == nil {
		return nil, false
	}
	return nm.FindPath(from, to)
}

func (m *Manager) IsWalkable(p AgentProfile, pos mgl32.Vec3) (bool, mgl32.Vec3) {
	nm := m.Mesh(p)
	if nm == nil {
		return false, pos
	}
	return nm.IsWalkable(pos)
}
