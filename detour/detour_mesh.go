package detour

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	/// The maximum number of vertices per navigation polygon.
	DT_VERTS_PER_POLYGON = 6

	/// Marks a polygon edge without a neighbour.
	DT_NULL_LINK = 0xffff

	/// A flag that indicates that an entity links to an external entity.
	/// (E.g. A polygon edge is a portal that links to another tile.)
	DT_EXT_LINK = 0x8000

	/// The maximum number of user defined area ids.
	DT_MAX_AREAS = 64

	DT_DETAIL_EDGE_BOUNDARY = 0x01 ///< Detail triangle edge is part of the poly boundary

	/// A magic number used to detect compatibility of navigation mesh data.
	DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

	/// A version number used to detect compatibility of navigation mesh data.
	DT_NAVMESH_VERSION = 1

	// recast polygon edges on the build extent, see RC_MESH_NULL_IDX.
	rcMeshNullIdx = 0xffff
)

var (
	ErrInvalidParams = errors.New("detour: invalid navmesh params")
	ErrBadSnapshot   = errors.New("detour: bad navmesh snapshot")
)

// DtPolyRef references a polygon of a DtNavMesh. The zero ref is invalid.
type DtPolyRef uint32

func refToIndex(ref DtPolyRef) int { return int(ref) - 1 }
func indexToRef(i int) DtPolyRef   { return DtPolyRef(i + 1) }

// / Defines a polygon within a DtNavMesh.
type DtPoly struct {
	/// The indices of the polygon's vertices.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Neighbour polygon index per edge, #DT_NULL_LINK for a wall or
	/// #DT_EXT_LINK | side for an edge on the tile border.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	/// The area id of the polygon.
	Area uint8
}

// / Defines the location of detail sub-mesh data within a DtNavMesh.
type DtPolyDetail struct {
	VertBase  uint32 ///< The offset of the vertices in the DtNavMesh::DetailVerts array.
	TriBase   uint32 ///< The offset of the triangles in the DtNavMesh::DetailTris array.
	VertCount uint8  ///< The number of vertices in the sub-mesh.
	TriCount  uint8  ///< The number of triangles in the sub-mesh.
}

// / Provides information about a navigation mesh.
type DtMeshHeader struct {
	PolyCount       int
	VertCount       int
	DetailMeshCount int
	DetailVertCount int
	DetailTriCount  int
	WalkableHeight  float32
	WalkableRadius  float32
	WalkableClimb   float32
	Bmin            mgl32.Vec3
	Bmax            mgl32.Vec3
}

// / Represents the source data used to build a navigation mesh.
// / Polygon data is in the voxel space of the recast poly mesh.
type DtNavMeshCreateParams struct {
	Verts     []int ///< The polygon mesh vertices. [(x, y, z) * #VertCount]
	VertCount int
	Polys     []int ///< The polygon data. [Size: #PolyCount * 2 * #Nvp]
	PolyFlags []int
	PolyAreas []int
	PolyCount int
	Nvp       int

	DetailMeshes     []int     ///< (vertBase, vertCount, triBase, triCount) per polygon, optional.
	DetailVerts      []float64 ///< World space detail vertices.
	DetailVertsCount int
	DetailTris       []int ///< (v0, v1, v2, flags) per triangle, indices local to the sub-mesh.
	DetailTriCount   int

	WalkableHeight float32
	WalkableRadius float32
	WalkableClimb  float32
	Bmin           [3]float64
	Bmax           [3]float64
	Cs             float64
	Ch             float64
}

// DtNavMesh is a single tile polygon navigation mesh. It is never modified
// after construction and may be shared by any number of queries.
type DtNavMesh struct {
	Header       DtMeshHeader
	Verts        []float32
	Polys        []DtPoly
	DetailMeshes []DtPolyDetail
	DetailVerts  []float32
	DetailTris   []uint8

	centers []mgl32.Vec3
	bmins   []mgl32.Vec3
	bmaxs   []mgl32.Vec3
}

// NewDtNavMesh converts a recast poly mesh into world space.
func NewDtNavMesh(params *DtNavMeshCreateParams) (*DtNavMesh, error) {
	if params.Nvp > DT_VERTS_PER_POLYGON || params.Nvp < 3 {
		return nil, fmt.Errorf("%w: %d verts per poly, want [3, %d]", ErrInvalidParams, params.Nvp, DT_VERTS_PER_POLYGON)
	}
	if params.VertCount >= 0xffff {
		return nil, fmt.Errorf("%w: %d vertices", ErrInvalidParams, params.VertCount)
	}
	if params.PolyCount >= DT_EXT_LINK {
		return nil, fmt.Errorf("%w: %d polygons", ErrInvalidParams, params.PolyCount)
	}
	if len(params.Verts) < params.VertCount*3 || len(params.Polys) < params.PolyCount*params.Nvp*2 {
		return nil, fmt.Errorf("%w: short vertex or polygon data", ErrInvalidParams)
	}
	if params.DetailMeshes != nil && len(params.DetailMeshes) < params.PolyCount*4 {
		return nil, fmt.Errorf("%w: %d detail meshes for %d polygons", ErrInvalidParams, len(params.DetailMeshes)/4, params.PolyCount)
	}

	nvp := params.Nvp
	nav := &DtNavMesh{
		Verts: make([]float32, params.VertCount*3),
		Polys: make([]DtPoly, params.PolyCount),
	}
	nav.Header = DtMeshHeader{
		PolyCount:      params.PolyCount,
		VertCount:      params.VertCount,
		WalkableHeight: params.WalkableHeight,
		WalkableRadius: params.WalkableRadius,
		WalkableClimb:  params.WalkableClimb,
		Bmin:           mgl32.Vec3{float32(params.Bmin[0]), float32(params.Bmin[1]), float32(params.Bmin[2])},
		Bmax:           mgl32.Vec3{float32(params.Bmax[0]), float32(params.Bmax[1]), float32(params.Bmax[2])},
	}

	// Store vertices
	for i := 0; i < params.VertCount; i++ {
		iv := params.Verts[i*3:]
		v := nav.Verts[i*3:]
		v[0] = float32(params.Bmin[0] + float64(iv[0])*params.Cs)
		v[1] = float32(params.Bmin[1] + float64(iv[1])*params.Ch)
		v[2] = float32(params.Bmin[2] + float64(iv[2])*params.Cs)
	}

	// Store polygons
	for i := 0; i < params.PolyCount; i++ {
		src := params.Polys[i*2*nvp:]
		p := &nav.Polys[i]
		if params.PolyFlags != nil {
			p.Flags = uint16(params.PolyFlags[i])
		}
		if params.PolyAreas != nil {
			p.Area = uint8(params.PolyAreas[i])
		}
		for j := 0; j < nvp; j++ {
			if src[j] == rcMeshNullIdx {
				break
			}
			if src[j] < 0 || src[j] >= params.VertCount {
				return nil, fmt.Errorf("%w: polygon %d references vertex %d", ErrInvalidParams, i, src[j])
			}
			p.Verts[j] = uint16(src[j])
			switch nei := src[nvp+j]; {
			case nei == rcMeshNullIdx:
				p.Neis[j] = DT_NULL_LINK
			case nei&0x8000 != 0:
				// Border edge, keep the side for stitching.
				p.Neis[j] = uint16(DT_EXT_LINK | nei&0xf)
			default:
				p.Neis[j] = uint16(nei)
			}
			p.VertCount++
		}
		for j := int(p.VertCount); j < DT_VERTS_PER_POLYGON; j++ {
			p.Neis[j] = DT_NULL_LINK
		}
		if p.VertCount < 3 {
			return nil, fmt.Errorf("%w: polygon %d has %d vertices", ErrInvalidParams, i, p.VertCount)
		}
	}

	// Store detail meshes and vertices.
	if params.DetailMeshes != nil {
		nav.DetailMeshes = make([]DtPolyDetail, params.PolyCount)
		for i := range nav.DetailMeshes {
			m := params.DetailMeshes[i*4:]
			nav.DetailMeshes[i] = DtPolyDetail{
				VertBase:  uint32(m[0]),
				VertCount: uint8(m[1]),
				TriBase:   uint32(m[2]),
				TriCount:  uint8(m[3]),
			}
		}
		nav.DetailVerts = make([]float32, params.DetailVertsCount*3)
		for i := range nav.DetailVerts {
			nav.DetailVerts[i] = float32(params.DetailVerts[i])
		}
		nav.DetailTris = make([]uint8, params.DetailTriCount*4)
		for i := range nav.DetailTris {
			nav.DetailTris[i] = uint8(params.DetailTris[i])
		}
		nav.Header.DetailMeshCount = params.PolyCount
		nav.Header.DetailVertCount = params.DetailVertsCount
		nav.Header.DetailTriCount = params.DetailTriCount
	}

	if err := nav.init(); err != nil {
		return nil, err
	}
	return nav, nil
}

// init derives the per polygon centers and bounds and checks the detail
// mesh references.
func (nav *DtNavMesh) init() error {
	n := len(nav.Polys)
	nav.centers = make([]mgl32.Vec3, n)
	nav.bmins = make([]mgl32.Vec3, n)
	nav.bmaxs = make([]mgl32.Vec3, n)
	for i := range nav.Polys {
		verts := nav.polyVerts(i)
		nav.centers[i] = dtCalcPolyCenter(verts)
		bmin, bmax := verts[0], verts[0]
		for _, v := range verts[1:] {
			for k := 0; k < 3; k++ {
				bmin[k] = min(bmin[k], v[k])
				bmax[k] = max(bmax[k], v[k])
			}
		}
		nav.bmins[i] = bmin
		nav.bmaxs[i] = bmax
	}
	for i, pd := range nav.DetailMeshes {
		if int(pd.VertBase)+int(pd.VertCount) > len(nav.DetailVerts)/3 ||
			int(pd.TriBase)+int(pd.TriCount) > len(nav.DetailTris)/4 {
			return fmt.Errorf("%w: detail mesh %d out of range", ErrInvalidParams, i)
		}
		for t := 0; t < int(pd.TriCount)*4; t++ {
			if t%4 != 3 && int(nav.DetailTris[int(pd.TriBase)*4+t]) >= int(pd.VertCount) {
				return fmt.Errorf("%w: detail mesh %d triangle vertex out of range", ErrInvalidParams, i)
			}
		}
		// Detail heights may leave the polygon's own y range.
		for k := int(pd.VertBase); k < int(pd.VertBase)+int(pd.VertCount); k++ {
			y := nav.DetailVerts[k*3+1]
			nav.bmins[i][1] = min(nav.bmins[i][1], y)
			nav.bmaxs[i][1] = max(nav.bmaxs[i][1], y)
		}
	}
	return nil
}

func (nav *DtNavMesh) vert(i uint16) mgl32.Vec3 {
	return mgl32.Vec3{nav.Verts[int(i)*3], nav.Verts[int(i)*3+1], nav.Verts[int(i)*3+2]}
}

// polyVerts returns the world space corners of polygon i.
func (nav *DtNavMesh) polyVerts(i int) []mgl32.Vec3 {
	p := &nav.Polys[i]
	res := make([]mgl32.Vec3, p.VertCount)
	for j := range res {
		res[j] = nav.vert(p.Verts[j])
	}
	return res
}

// PolyCount returns the number of polygons in the mesh.
func (nav *DtNavMesh) PolyCount() int { return len(nav.Polys) }

// GetPoly returns the polygon for ref, or nil for an invalid ref.
func (nav *DtNavMesh) GetPoly(ref DtPolyRef) *DtPoly {
	i := refToIndex(ref)
	if i < 0 || i >= len(nav.Polys) {
		return nil
	}
	return &nav.Polys[i]
}

// IsValidPolyRef reports whether ref addresses a polygon of the mesh.
func (nav *DtNavMesh) IsValidPolyRef(ref DtPolyRef) bool {
	return nav.GetPoly(ref) != nil
}

// PolyRef returns the ref of polygon index i.
func (nav *DtNavMesh) PolyRef(i int) DtPolyRef { return indexToRef(i) }

// DtGraphNode is a read only view of one polygon as a graph node.
type DtGraphNode struct {
	Ref        DtPolyRef
	Center     mgl32.Vec3
	Verts      []mgl32.Vec3
	Neighbours []DtPolyRef
	Area       uint8
	Flags      uint16
}

// Nodes returns a copy of the polygon graph.
func (nav *DtNavMesh) Nodes() []DtGraphNode {
	res := make([]DtGraphNode, len(nav.Polys))
	for i := range nav.Polys {
		p := &nav.Polys[i]
		node := DtGraphNode{
			Ref:    indexToRef(i),
			Center: nav.centers[i],
			Verts:  nav.polyVerts(i),
			Area:   p.Area,
			Flags:  p.Flags,
		}
		for j := 0; j < int(p.VertCount); j++ {
			if nei := p.Neis[j]; nei != DT_NULL_LINK && nei&DT_EXT_LINK == 0 {
				node.Neighbours = append(node.Neighbours, indexToRef(int(nei)))
			}
		}
		res[i] = node
	}
	return res
}
