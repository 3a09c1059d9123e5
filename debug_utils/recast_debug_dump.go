package debug_utils

import (
	"errors"

	"github.com/gorustyt/navcore/common/rw"
	"github.com/gorustyt/navcore/detour"
	"github.com/gorustyt/navcore/recast"
)

var errNilWriter = errors.New("debug_utils: input IO is null")

// DuDumpPolyMeshToObj writes the polygon mesh as a Wavefront OBJ, fanning
// each polygon. Vertices are lifted slightly above the walkable surface.
func DuDumpPolyMeshToObj(pmesh *recast.RcPolyMesh, w *rw.ReaderWriter) error {
	if w == nil {
		return errNilWriter
	}
	nvp := pmesh.Nvp
	cs := pmesh.Cs
	ch := pmesh.Ch
	orig := pmesh.Bmin

	w.WriteString("# Recast Navmesh\n")
	w.WriteString("o NavMesh\n")
	w.WriteString("\n")

	for i := 0; i < pmesh.Nverts; i++ {
		v := pmesh.Verts[i*3:]
		x := orig[0] + float64(v[0])*cs
		y := orig[1] + float64(v[1]+1)*ch + 0.1
		z := orig[2] + float64(v[2])*cs
		w.Printf("v %f %f %f\n", x, y, z)
	}

	w.WriteString("\n")

	for i := 0; i < pmesh.Npolys; i++ {
		p := pmesh.Poly(i)
		for j := 2; j < nvp; j++ {
			if p[j] == recast.RC_MESH_NULL_IDX {
				break
			}
			w.Printf("f %d %d %d\n", p[0]+1, p[j-1]+1, p[j]+1)
		}
	}
	return nil
}

// DuDumpPolyMeshDetailToObj writes the detail triangles as a Wavefront OBJ.
func DuDumpPolyMeshDetailToObj(dmesh *recast.RcPolyMeshDetail, w *rw.ReaderWriter) error {
	if w == nil {
		return errNilWriter
	}
	w.WriteString("# Recast Navmesh\n")
	w.WriteString("o NavMesh\n")
	w.WriteString("\n")

	for i := 0; i < dmesh.Nverts; i++ {
		v := dmesh.Verts[i*3:]
		w.Printf("v %f %f %f\n", v[0], v[1], v[2])
	}

	w.WriteString("\n")

	for i := 0; i < dmesh.Nmeshes; i++ {
		m := dmesh.Meshes[i*4:]
		bverts := m[0]
		btris := m[2]
		ntris := m[3]
		tris := dmesh.Tris[btris*4:]
		for j := 0; j < ntris; j++ {
			w.Printf("f %d %d %d\n",
				bverts+tris[j*4+0]+1,
				bverts+tris[j*4+1]+1,
				bverts+tris[j*4+2]+1)
		}
	}
	return nil
}

// DuDumpNavMeshToObj writes the polygons of a runtime mesh as a Wavefront
// OBJ, one object per mesh, fanning each polygon.
func DuDumpNavMeshToObj(nav *detour.DtNavMesh, w *rw.ReaderWriter) error {
	if w == nil {
		return errNilWriter
	}
	w.WriteString("# Detour Navmesh\n")
	w.WriteString("o NavMesh\n")
	w.WriteString("\n")

	for i := 0; i < nav.Header.VertCount; i++ {
		v := nav.Verts[i*3:]
		w.Printf("v %f %f %f\n", v[0], v[1], v[2])
	}

	w.WriteString("\n")

	for i := range nav.Polys {
		p := &nav.Polys[i]
		for j := 2; j < int(p.VertCount); j++ {
			w.Printf("f %d %d %d\n", int(p.Verts[0])+1, int(p.Verts[j-1])+1, int(p.Verts[j])+1)
		}
	}
	return nil
}

// DuDumpContourSet writes a readable listing of every contour: header,
// then per contour its region, area and simplified and raw vertices in
// voxel coordinates with their flags.
func DuDumpContourSet(cset *recast.RcContourSet, w *rw.ReaderWriter) error {
	if w == nil {
		return errNilWriter
	}
	w.Printf("cset %d %d %d %d %f %f\n", len(cset.Conts), cset.Width, cset.Height, cset.BorderSize, cset.Cs, cset.Ch)
	w.Printf("bmin %f %f %f\n", cset.Bmin[0], cset.Bmin[1], cset.Bmin[2])
	w.Printf("bmax %f %f %f\n", cset.Bmax[0], cset.Bmax[1], cset.Bmax[2])
	for i, cont := range cset.Conts {
		w.Printf("contour %d reg %d area %d verts %d raw %d\n", i, cont.Reg, cont.Area, cont.Nverts, cont.Nrverts)
		dumpContourVerts(w, "v", cont.Verts, cont.Nverts)
		dumpContourVerts(w, "r", cont.Rverts, cont.Nrverts)
	}
	return nil
}

func dumpContourVerts(w *rw.ReaderWriter, tag string, verts []int, n int) {
	for j := 0; j < n; j++ {
		v := verts[j*4:]
		w.Printf("%s %d %d %d", tag, v[0], v[1], v[2])
		if v[3]&recast.RC_BORDER_VERTEX != 0 {
			w.WriteString(" border")
		}
		if v[3]&recast.RC_AREA_BORDER != 0 {
			w.WriteString(" area-border")
		}
		w.Printf(" reg %d\n", v[3]&recast.RC_CONTOUR_REG_MASK)
	}
}
