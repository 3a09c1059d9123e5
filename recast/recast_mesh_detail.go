package recast

import "fmt"

// Detail triangle edge flag: the edge lies on the polygon boundary.
const RC_DETAIL_EDGE_BOUNDARY = 0x01

// / Contains triangle meshes that represent detailed height data associated
// / with the polygons in its associated polygon mesh object.
type RcPolyMeshDetail struct {
	Meshes  []int     ///< The sub-mesh data. [Size: 4*#nmeshes]
	Verts   []float64 ///< The mesh vertices. [Size: 3*#nverts]
	Tris    []int     ///< The mesh triangles. [Size: 4*#ntris]
	Nmeshes int       ///< The number of sub-meshes defined by #meshes.
	Nverts  int       ///< The number of vertices in #verts.
	Ntris   int       ///< The number of triangles in #tris.

	SampleDist     float64
	SampleMaxError float64
}

func fanTriFlags(j, nv int) int {
	flags := RC_DETAIL_EDGE_BOUNDARY << 2 // j -> j+1
	if j == 1 {
		flags |= RC_DETAIL_EDGE_BOUNDARY // 0 -> j
	}
	if j+1 == nv-1 {
		flags |= RC_DETAIL_EDGE_BOUNDARY << 4 // j+1 -> 0
	}
	return flags
}

// / Builds a detail mesh from the provided polygon mesh.
// /
// / Heights are not resampled: every polygon is fanned from its first vertex
// / at the polygon vertex heights. @p sampleDist and @p sampleMaxError are
// / recorded on the result.
func RcBuildPolyMeshDetail(ctx *RcContext, mesh *RcPolyMesh, chf *RcCompactHeightfield, sampleDist, sampleMaxError float64) (*RcPolyMeshDetail, error) {
	ctx.StartTimer(RC_TIMER_BUILD_POLYMESHDETAIL)
	defer ctx.StopTimer(RC_TIMER_BUILD_POLYMESHDETAIL)

	dmesh := &RcPolyMeshDetail{
		SampleDist:     sampleDist,
		SampleMaxError: sampleMaxError,
	}
	if mesh.Nverts == 0 || mesh.Npolys == 0 {
		return dmesh, nil
	}
	if chf != nil && (chf.Cs != mesh.Cs || chf.Ch != mesh.Ch) {
		return nil, fmt.Errorf("%w: detail cell size %v/%v differs from mesh %v/%v", ErrInvalidConfig, chf.Cs, chf.Ch, mesh.Cs, mesh.Ch)
	}

	nvp := mesh.Nvp
	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin

	dmesh.Meshes = make([]int, 0, mesh.Npolys*4)
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		nv := countPolyVerts(p, nvp)

		vbase := dmesh.Nverts
		tbase := dmesh.Ntris
		for j := 0; j < nv; j++ {
			v := polyVert(mesh.Verts, p[j])
			dmesh.Verts = append(dmesh.Verts,
				orig[0]+float64(v[0])*cs,
				orig[1]+float64(v[1])*ch,
				orig[2]+float64(v[2])*cs)
		}
		dmesh.Nverts += nv
		for j := 1; j < nv-1; j++ {
			dmesh.Tris = append(dmesh.Tris, 0, j, j+1, fanTriFlags(j, nv))
		}
		dmesh.Ntris += nv - 2
		dmesh.Meshes = append(dmesh.Meshes, vbase, nv, tbase, nv-2)
		dmesh.Nmeshes++
	}
	ctx.Progressf("rcBuildPolyMeshDetail: %d meshes, %d verts, %d tris", dmesh.Nmeshes, dmesh.Nverts, dmesh.Ntris)
	return dmesh, nil
}
