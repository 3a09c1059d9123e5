package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hjson/hjson-go/v4"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/gorustyt/navcore/common"
	"github.com/gorustyt/navcore/detour"
)

var ErrInvalidSettings = errors.New("config: invalid settings")

type AgentConfig struct {
	Name     string  `json:"name" yaml:"name" toml:"name"`
	Height   float64 `json:"height" yaml:"height" toml:"height"`
	Radius   float64 `json:"radius" yaml:"radius" toml:"radius"`
	MaxClimb float64 `json:"maxClimb" yaml:"maxClimb" toml:"maxClimb"`
	MaxSlope float64 `json:"maxSlope" yaml:"maxSlope" toml:"maxSlope"` // degrees
}

type ContourBuildFlags struct {
	TessellateWallEdges bool `json:"tessellateWallEdges" yaml:"tessellateWallEdges" toml:"tessellateWallEdges"`
	TessellateAreaEdges bool `json:"tessellateAreaEdges" yaml:"tessellateAreaEdges" toml:"tessellateAreaEdges"`
}

type Filters struct {
	LowHangingObstacles    bool `json:"lowHangingObstacles" yaml:"lowHangingObstacles" toml:"lowHangingObstacles"`
	LedgeSpans             bool `json:"ledgeSpans" yaml:"ledgeSpans" toml:"ledgeSpans"`
	WalkableLowHeightSpans bool `json:"walkableLowHeightSpans" yaml:"walkableLowHeightSpans" toml:"walkableLowHeightSpans"`
	MedianArea             bool `json:"medianArea" yaml:"medianArea" toml:"medianArea"`
}

// ConvexVolume assigns Area to the walkable surface inside the xz outline
// Points between Hmin and Hmax.
type ConvexVolume struct {
	Area   int          `json:"area" yaml:"area" toml:"area"`
	Hmin   float64      `json:"hmin" yaml:"hmin" toml:"hmin"`
	Hmax   float64      `json:"hmax" yaml:"hmax" toml:"hmax"`
	Points [][3]float64 `json:"points" yaml:"points" toml:"points"`
}

// Settings drive a navmesh build. Lengths are in world units unless noted.
type Settings struct {
	CellSize   float64       `json:"cellSize" yaml:"cellSize" toml:"cellSize"`
	CellHeight float64       `json:"cellHeight" yaml:"cellHeight" toml:"cellHeight"`
	Agents     []AgentConfig `json:"agents" yaml:"agents" toml:"agents"`

	// Side lengths in cells, the builder works with their squares.
	MinRegionArea   float64 `json:"minRegionArea" yaml:"minRegionArea" toml:"minRegionArea"`
	MergeRegionArea float64 `json:"mergeRegionArea" yaml:"mergeRegionArea" toml:"mergeRegionArea"`

	MaxEdgeLength  float64 `json:"maxEdgeLength" yaml:"maxEdgeLength" toml:"maxEdgeLength"`
	MaxEdgeError   float64 `json:"maxEdgeError" yaml:"maxEdgeError" toml:"maxEdgeError"` // cells
	VertsPerPoly   int     `json:"vertsPerPoly" yaml:"vertsPerPoly" toml:"vertsPerPoly"`
	SampleDistance float64 `json:"sampleDistance" yaml:"sampleDistance" toml:"sampleDistance"` // cells
	SampleMaxError float64 `json:"sampleMaxError" yaml:"sampleMaxError" toml:"sampleMaxError"` // cell heights

	ContourBuildFlags ContourBuildFlags `json:"contourBuildFlags" yaml:"contourBuildFlags" toml:"contourBuildFlags"`
	BorderSize        int               `json:"borderSize" yaml:"borderSize" toml:"borderSize"` // cells
	Filters           Filters           `json:"filters" yaml:"filters" toml:"filters"`
	ConvexVolumes     []ConvexVolume    `json:"convexVolumes" yaml:"convexVolumes" toml:"convexVolumes"`

	// Traversal cost multiplier keyed by area id.
	AreaCosts map[string]float64 `json:"areaCosts" yaml:"areaCosts" toml:"areaCosts"`
	// Half extents of the box searched when snapping query points. Empty
	// means derived from the agent.
	QueryExtents []float64 `json:"queryExtents" yaml:"queryExtents" toml:"queryExtents"`

	Log common.LogConfig `json:"log" yaml:"log" toml:"log"`
}

func Default() *Settings {
	return &Settings{
		CellSize:   0.3,
		CellHeight: 0.2,
		Agents: []AgentConfig{
			{Name: "default", Height: 2, Radius: 0.6, MaxClimb: 0.9, MaxSlope: 45},
		},
		MinRegionArea:   8,
		MergeRegionArea: 20,
		MaxEdgeLength:   12,
		MaxEdgeError:    1.3,
		VertsPerPoly:    6,
		SampleDistance:  6,
		SampleMaxError:  1,
		ContourBuildFlags: ContourBuildFlags{
			TessellateWallEdges: true,
			TessellateAreaEdges: true,
		},
		Filters: Filters{
			LowHangingObstacles:    true,
			LedgeSpans:             true,
			WalkableLowHeightSpans: true,
		},
		Log: common.LogConfig{Level: "info"},
	}
}

// Load reads settings on top of Default. The format follows the file
// extension: .hjson and .json are read as hjson, .yaml and .yml as yaml,
// .toml as toml.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hjson", ".json":
		err = hjson.Unmarshal(data, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	case ".toml":
		_, err = toml.Decode(string(data), s)
	default:
		return nil, fmt.Errorf("%w: unknown settings format %q", ErrInvalidSettings, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports every problem found, each wrapping ErrInvalidSettings.
func (s *Settings) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...))
		}
	}
	check(s.CellSize > 0, "cellSize %v must be > 0", s.CellSize)
	check(s.CellHeight > 0, "cellHeight %v must be > 0", s.CellHeight)
	check(len(s.Agents) > 0, "no agents")
	names := map[string]bool{}
	for i, a := range s.Agents {
		check(a.Name != "", "agent %d has no name", i)
		check(!names[a.Name], "agent %q defined twice", a.Name)
		names[a.Name] = true
		check(a.Height > 0, "agent %q height %v must be > 0", a.Name, a.Height)
		check(a.Radius >= 0, "agent %q radius %v must be >= 0", a.Name, a.Radius)
		check(a.MaxClimb >= 0, "agent %q maxClimb %v must be >= 0", a.Name, a.MaxClimb)
		check(a.MaxSlope >= 0 && a.MaxSlope < 90, "agent %q maxSlope %v out of [0, 90)", a.Name, a.MaxSlope)
	}
	check(s.MinRegionArea >= 0, "minRegionArea %v must be >= 0", s.MinRegionArea)
	check(s.MergeRegionArea >= 0, "mergeRegionArea %v must be >= 0", s.MergeRegionArea)
	check(s.MaxEdgeLength >= 0, "maxEdgeLength %v must be >= 0", s.MaxEdgeLength)
	check(s.MaxEdgeError >= 0, "maxEdgeError %v must be >= 0", s.MaxEdgeError)
	check(s.VertsPerPoly >= 3 && s.VertsPerPoly <= detour.DT_VERTS_PER_POLYGON,
		"vertsPerPoly %d out of [3, %d]", s.VertsPerPoly, detour.DT_VERTS_PER_POLYGON)
	check(s.SampleDistance >= 0, "sampleDistance %v must be >= 0", s.SampleDistance)
	check(s.SampleMaxError >= 0, "sampleMaxError %v must be >= 0", s.SampleMaxError)
	check(s.BorderSize >= 0, "borderSize %d must be >= 0", s.BorderSize)
	for i, v := range s.ConvexVolumes {
		check(v.Area > 0 && v.Area < detour.DT_MAX_AREAS, "convex volume %d area %d out of [1, %d)", i, v.Area, detour.DT_MAX_AREAS)
		check(len(v.Points) >= 3, "convex volume %d needs 3 points, got %d", i, len(v.Points))
		check(v.Hmin < v.Hmax, "convex volume %d hmin %v must be below hmax %v", i, v.Hmin, v.Hmax)
	}
	for k, cost := range s.AreaCosts {
		id, perr := strconv.Atoi(k)
		check(perr == nil && id >= 0 && id < detour.DT_MAX_AREAS, "area cost key %q is not an area id", k)
		check(cost >= 0, "area %s cost %v must be >= 0", k, cost)
	}
	check(len(s.QueryExtents) == 0 || len(s.QueryExtents) == 3, "queryExtents needs 3 values, got %d", len(s.QueryExtents))
	for _, e := range s.QueryExtents {
		check(e > 0, "queryExtents %v must be > 0", s.QueryExtents)
	}
	return err
}

// Agent returns the agent named name.
func (s *Settings) Agent(name string) (AgentConfig, bool) {
	for _, a := range s.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// AreaCostTable returns the costs by area id; ids without a configured
// cost are absent. Call Validate first.
func (s *Settings) AreaCostTable() map[int]float64 {
	res := make(map[int]float64, len(s.AreaCosts))
	for k, cost := range s.AreaCosts {
		if id, err := strconv.Atoi(k); err == nil {
			res[id] = cost
		}
	}
	return res
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Agents = append([]AgentConfig(nil), s.Agents...)
	if s.ConvexVolumes != nil {
		c.ConvexVolumes = make([]ConvexVolume, len(s.ConvexVolumes))
		for i, v := range s.ConvexVolumes {
			v.Points = append([][3]float64(nil), v.Points...)
			c.ConvexVolumes[i] = v
		}
	}
	if s.AreaCosts != nil {
		c.AreaCosts = make(map[string]float64, len(s.AreaCosts))
		for k, v := range s.AreaCosts {
			c.AreaCosts[k] = v
		}
	}
	c.QueryExtents = append([]float64(nil), s.QueryExtents...)
	return &c
}
