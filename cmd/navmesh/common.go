package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/navcore/common"
	"github.com/gorustyt/navcore/config"
	"github.com/gorustyt/navcore/geom"
)

type inputFlags struct {
	configFile string
	objFile    string
	scale      float64
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.configFile, "config", "", "settings file (.hjson, .json, .yaml)")
	c.Flags().StringVar(&f.objFile, "obj", "", "input geometry (.obj)")
	c.Flags().Float64Var(&f.scale, "scale", 1, "scale applied to the input geometry")
	c.MarkFlagRequired("obj")
}

// load reads settings, geometry and sets up the logger. Settings fall back
// to the defaults when no config file is given.
func (f *inputFlags) load() (*config.Settings, *geom.InputGeom, *zap.Logger, error) {
	s := config.Default()
	if f.configFile != "" {
		var err error
		if s, err = config.Load(f.configFile); err != nil {
			return nil, nil, nil, err
		}
	}
	logger, err := common.NewLogger(s.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := geom.LoadObj(f.objFile, f.scale)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("geometry loaded",
		zap.String("name", g.Name),
		zap.Int("verts", g.VertCount()),
		zap.Int("tris", g.TriCount()))
	return s, g, logger, nil
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("bad position %q, want x,y,z", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, fmt.Errorf("bad position %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
