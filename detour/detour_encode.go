package detour

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gorustyt/navcore/common/message"
	"github.com/gorustyt/navcore/common/rw"
)

// Snapshot body field numbers. Never renumber.
const (
	fieldPolyCount      protowire.Number = 1
	fieldVertCount      protowire.Number = 2
	fieldBmin           protowire.Number = 3
	fieldBmax           protowire.Number = 4
	fieldWalkableHeight protowire.Number = 5
	fieldWalkableRadius protowire.Number = 6
	fieldWalkableClimb  protowire.Number = 7
	fieldVerts          protowire.Number = 8
	fieldPolyVerts      protowire.Number = 9
	fieldPolyNeis       protowire.Number = 10
	fieldPolyFlags      protowire.Number = 11
	fieldPolyAreas      protowire.Number = 12
	fieldPolyVertCounts protowire.Number = 13
	fieldDetailMeshes   protowire.Number = 14
	fieldDetailVerts    protowire.Number = 15
	fieldDetailTris     protowire.Number = 16
)

// MarshalBinary encodes the mesh as a magic/version/length envelope around
// a protobuf wire body.
func (nav *DtNavMesh) MarshalBinary() ([]byte, error) {
	var body []byte
	body = message.AppendVarint(body, fieldPolyCount, uint64(len(nav.Polys)))
	body = message.AppendVarint(body, fieldVertCount, uint64(len(nav.Verts)/3))
	body = message.AppendPackedFloat32s(body, fieldBmin, nav.Header.Bmin[:])
	body = message.AppendPackedFloat32s(body, fieldBmax, nav.Header.Bmax[:])
	body = message.AppendFloat32(body, fieldWalkableHeight, nav.Header.WalkableHeight)
	body = message.AppendFloat32(body, fieldWalkableRadius, nav.Header.WalkableRadius)
	body = message.AppendFloat32(body, fieldWalkableClimb, nav.Header.WalkableClimb)
	body = message.AppendPackedFloat32s(body, fieldVerts, nav.Verts)

	polyVerts := make([]uint16, 0, len(nav.Polys)*DT_VERTS_PER_POLYGON)
	polyNeis := make([]uint16, 0, len(nav.Polys)*DT_VERTS_PER_POLYGON)
	polyFlags := make([]uint16, 0, len(nav.Polys))
	polyAreas := make([]uint8, 0, len(nav.Polys))
	polyVertCounts := make([]uint8, 0, len(nav.Polys))
	for i := range nav.Polys {
		p := &nav.Polys[i]
		polyVerts = append(polyVerts, p.Verts[:]...)
		polyNeis = append(polyNeis, p.Neis[:]...)
		polyFlags = append(polyFlags, p.Flags)
		polyAreas = append(polyAreas, p.Area)
		polyVertCounts = append(polyVertCounts, p.VertCount)
	}
	body = message.AppendPackedVarints(body, fieldPolyVerts, polyVerts)
	body = message.AppendPackedVarints(body, fieldPolyNeis, polyNeis)
	body = message.AppendPackedVarints(body, fieldPolyFlags, polyFlags)
	body = message.AppendPackedVarints(body, fieldPolyAreas, polyAreas)
	body = message.AppendPackedVarints(body, fieldPolyVertCounts, polyVertCounts)

	if nav.DetailMeshes != nil {
		meshes := make([]uint32, 0, len(nav.DetailMeshes)*4)
		for _, pd := range nav.DetailMeshes {
			meshes = append(meshes, pd.VertBase, uint32(pd.VertCount), pd.TriBase, uint32(pd.TriCount))
		}
		body = message.AppendPackedVarints(body, fieldDetailMeshes, meshes)
		body = message.AppendPackedFloat32s(body, fieldDetailVerts, nav.DetailVerts)
		body = message.AppendPackedVarints(body, fieldDetailTris, nav.DetailTris)
	}

	w := rw.NewWriter()
	w.WriteUInt32(DT_NAVMESH_MAGIC)
	w.WriteUInt32(DT_NAVMESH_VERSION)
	w.WriteUInt32(uint32(len(body)))
	w.WriteBytes(body)
	return w.GetWriteBytes(), nil
}

// UnmarshalDtNavMesh decodes a mesh written by MarshalBinary.
func UnmarshalDtNavMesh(data []byte) (*DtNavMesh, error) {
	r := rw.NewReader(data)
	magic, err := r.ReadUInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if magic != DT_NAVMESH_MAGIC {
		return nil, fmt.Errorf("%w: wrong magic %#x", ErrBadSnapshot, magic)
	}
	version, err := r.ReadUInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if version != DT_NAVMESH_VERSION {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadSnapshot, version, DT_NAVMESH_VERSION)
	}
	size, err := r.ReadUInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	body, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	fields, err := message.Fields(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	nav := &DtNavMesh{}
	var (
		polyCount, vertCount                   int
		polyVerts, polyNeis, polyFlags         []int
		polyAreas, polyVertCounts, detailMeshes []int
		detailTris                             []int
		hasDetail                              bool
	)
	packedInts := func(f message.Field) []int {
		if err != nil {
			return nil
		}
		var vs []int
		vs, err = f.PackedVarints()
		return vs
	}
	packedFloats := func(f message.Field) []float32 {
		if err != nil {
			return nil
		}
		var vs []float32
		vs, err = f.PackedFloat32s()
		return vs
	}
	vec3 := func(f message.Field) mgl32.Vec3 {
		var v mgl32.Vec3
		vs := packedFloats(f)
		if err == nil && len(vs) != 3 {
			err = fmt.Errorf("field %d holds %d floats", f.Num, len(vs))
		}
		copy(v[:], vs)
		return v
	}
	for _, f := range fields {
		switch f.Num {
		case fieldPolyCount:
			polyCount = int(f.Varint)
		case fieldVertCount:
			vertCount = int(f.Varint)
		case fieldBmin:
			nav.Header.Bmin = vec3(f)
		case fieldBmax:
			nav.Header.Bmax = vec3(f)
		case fieldWalkableHeight:
			nav.Header.WalkableHeight = f.Float32()
		case fieldWalkableRadius:
			nav.Header.WalkableRadius = f.Float32()
		case fieldWalkableClimb:
			nav.Header.WalkableClimb = f.Float32()
		case fieldVerts:
			nav.Verts = packedFloats(f)
		case fieldPolyVerts:
			polyVerts = packedInts(f)
		case fieldPolyNeis:
			polyNeis = packedInts(f)
		case fieldPolyFlags:
			polyFlags = packedInts(f)
		case fieldPolyAreas:
			polyAreas = packedInts(f)
		case fieldPolyVertCounts:
			polyVertCounts = packedInts(f)
		case fieldDetailMeshes:
			detailMeshes = packedInts(f)
			hasDetail = true
		case fieldDetailVerts:
			nav.DetailVerts = packedFloats(f)
		case fieldDetailTris:
			detailTris = packedInts(f)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	if len(nav.Verts) != vertCount*3 ||
		len(polyVerts) != polyCount*DT_VERTS_PER_POLYGON ||
		len(polyNeis) != polyCount*DT_VERTS_PER_POLYGON ||
		len(polyFlags) != polyCount || len(polyAreas) != polyCount || len(polyVertCounts) != polyCount {
		return nil, fmt.Errorf("%w: inconsistent polygon data", ErrBadSnapshot)
	}
	nav.Polys = make([]DtPoly, polyCount)
	for i := range nav.Polys {
		p := &nav.Polys[i]
		p.Flags = uint16(polyFlags[i])
		p.Area = uint8(polyAreas[i])
		p.VertCount = uint8(polyVertCounts[i])
		if p.VertCount < 3 || p.VertCount > DT_VERTS_PER_POLYGON {
			return nil, fmt.Errorf("%w: polygon %d has %d vertices", ErrBadSnapshot, i, p.VertCount)
		}
		for j := 0; j < DT_VERTS_PER_POLYGON; j++ {
			p.Verts[j] = uint16(polyVerts[i*DT_VERTS_PER_POLYGON+j])
			p.Neis[j] = uint16(polyNeis[i*DT_VERTS_PER_POLYGON+j])
			if j >= int(p.VertCount) {
				continue
			}
			if int(p.Verts[j]) >= vertCount {
				return nil, fmt.Errorf("%w: polygon %d references vertex %d", ErrBadSnapshot, i, p.Verts[j])
			}
			if nei := p.Neis[j]; nei != DT_NULL_LINK && nei&DT_EXT_LINK == 0 && int(nei) >= polyCount {
				return nil, fmt.Errorf("%w: polygon %d links to %d", ErrBadSnapshot, i, nei)
			}
		}
	}

	if hasDetail {
		if len(detailMeshes) != polyCount*4 || len(nav.DetailVerts)%3 != 0 || len(detailTris)%4 != 0 {
			return nil, fmt.Errorf("%w: inconsistent detail data", ErrBadSnapshot)
		}
		nav.DetailMeshes = make([]DtPolyDetail, polyCount)
		for i := range nav.DetailMeshes {
			m := detailMeshes[i*4:]
			nav.DetailMeshes[i] = DtPolyDetail{
				VertBase:  uint32(m[0]),
				VertCount: uint8(m[1]),
				TriBase:   uint32(m[2]),
				TriCount:  uint8(m[3]),
			}
		}
		nav.DetailTris = make([]uint8, len(detailTris))
		for i, v := range detailTris {
			nav.DetailTris[i] = uint8(v)
		}
		nav.Header.DetailMeshCount = polyCount
		nav.Header.DetailVertCount = len(nav.DetailVerts) / 3
		nav.Header.DetailTriCount = len(detailTris) / 4
	}
	nav.Header.PolyCount = polyCount
	nav.Header.VertCount = vertCount

	if err := nav.init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return nav, nil
}
