package detour

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DtDistancePtSegSqr2D returns the squared xz distance from pt to segment pq
// and the parameter of the closest point along pq.
func DtDistancePtSegSqr2D(pt, p, q mgl32.Vec3) (t float32, distSqr float32) {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t = pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return t, dx*dx + dz*dz
}

// DtTriArea2D returns the signed xz area of triangle abc times two.
func DtTriArea2D(a, b, c mgl32.Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return acx*abz - abx*acz
}

func dtCalcPolyCenter(verts []mgl32.Vec3) mgl32.Vec3 {
	var tc mgl32.Vec3
	for _, v := range verts {
		tc = tc.Add(v)
	}
	return tc.Mul(1.0 / float32(len(verts)))
}

// dtClosestHeightPointTriangle interpolates the height of p over triangle abc
// when p lies inside it on the xz-plane.
func dtClosestHeightPointTriangle(p, a, b, c mgl32.Vec3) (h float32, ok bool) {
	const eps = 1e-6

	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	// Compute scaled barycentric coordinates
	denom := v0[0]*v1[2] - v0[2]*v1[0]
	if float32(math.Abs(float64(denom))) < eps {
		return 0, false
	}
	u := v1[2]*v2[0] - v1[0]*v2[2]
	v := v0[0]*v2[2] - v0[2]*v2[0]
	if denom < 0 {
		denom = -denom
		u = -u
		v = -v
	}

	// If point lies inside the triangle, return interpolated ycoord.
	if u >= 0 && v >= 0 && (u+v) <= denom {
		return a[1] + (v0[1]*u+v1[1]*v)/denom, true
	}
	return 0, false
}

func dtPointInPolygon(pt mgl32.Vec3, verts []mgl32.Vec3) bool {
	c := false
	for i, j := 0, len(verts)-1; i < len(verts); j, i = i, i+1 {
		vi := verts[i]
		vj := verts[j]
		if ((vi[2] > pt[2]) != (vj[2] > pt[2])) &&
			(pt[0] < (vj[0]-vi[0])*(pt[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
	}
	return c
}

func dtOverlapBounds(amin, amax, bmin, bmax mgl32.Vec3) bool {
	return !(amin[0] > bmax[0] || amax[0] < bmin[0] ||
		amin[1] > bmax[1] || amax[1] < bmin[1] ||
		amin[2] > bmax[2] || amax[2] < bmin[2])
}

func dtVequal(p0, p1 mgl32.Vec3) bool {
	const thr = 1.0 / 16384.0 * (1.0 / 16384.0)
	return p0.Sub(p1).LenSqr() < thr
}

func dtVdist(a, b mgl32.Vec3) float32 {
	return b.Sub(a).Len()
}
