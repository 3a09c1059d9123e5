package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorustyt/navcore/common/rw"
	"github.com/gorustyt/navcore/debug_utils"
	"github.com/gorustyt/navcore/navigation"
)

func BuildCmd() *cobra.Command {
	var (
		in      inputFlags
		outDir  string
		dumpObj bool
	)
	c := &cobra.Command{
		Use:   "build",
		Short: "build a navmesh per agent and write snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, g, logger, err := in.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			mgr := navigation.NewManager(logger)
			buildErr := mgr.Build(context.Background(), g, s)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, p := range mgr.Profiles() {
				nm := mgr.Mesh(p)
				if err := writeMesh(outDir, nm, dumpObj); err != nil {
					return err
				}
				logger.Info("navmesh written",
					zap.String("agent", p.Name),
					zap.Stringer("id", nm.ID),
					zap.String("dir", outDir))
			}
			return buildErr
		},
	}
	in.register(c)
	c.Flags().StringVar(&outDir, "out", ".", "output directory")
	c.Flags().BoolVar(&dumpObj, "dump-obj", false, "also write the intermediate meshes as .obj")
	return c
}

type meshDump struct {
	suffix string
	dump   func(w *rw.ReaderWriter) error
}

func writeMesh(dir string, nm *navigation.NavMesh, dumpObj bool) error {
	base := filepath.Join(dir, nm.Profile.Name)
	data, err := nm.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".navmesh", data, 0o644); err != nil {
		return err
	}
	if !dumpObj {
		return nil
	}

	dumps := []meshDump{
		{".nav.obj", func(w *rw.ReaderWriter) error { return debug_utils.DuDumpNavMeshToObj(nm.Mesh, w) }},
	}
	if res := nm.Build; res != nil {
		dumps = append(dumps,
			meshDump{".pmesh.obj", func(w *rw.ReaderWriter) error { return debug_utils.DuDumpPolyMeshToObj(res.Pmesh, w) }},
			meshDump{".dmesh.obj", func(w *rw.ReaderWriter) error { return debug_utils.DuDumpPolyMeshDetailToObj(res.Dmesh, w) }},
			meshDump{".cset.txt", func(w *rw.ReaderWriter) error { return debug_utils.DuDumpContourSet(res.Cset, w) }},
		)
	}
	for _, d := range dumps {
		w := rw.NewWriter()
		if err := d.dump(w); err != nil {
			return err
		}
		if err := os.WriteFile(base+d.suffix, w.GetWriteBytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
