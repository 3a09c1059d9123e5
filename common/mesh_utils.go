package common

// Integer predicates on the xz-plane. Vertices are slices whose first and
// third elements are x and z; y is ignored.

func Prev(i, n int) int {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

func Next(i, n int) int {
	if i+1 < n {
		return i + 1
	}
	return 0
}

func Area2(a, b, c []int) int {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}

// Left reports whether c is strictly to the left of the directed line a->b.
func Left(a, b, c []int) bool {
	return Area2(a, b, c) < 0
}

func LeftOn(a, b, c []int) bool {
	return Area2(a, b, c) <= 0
}

func Collinear(a, b, c []int) bool {
	return Area2(a, b, c) == 0
}

// IntersectProp reports whether ab properly intersects cd: they share a
// point interior to both segments.
func IntersectProp(a, b, c, d []int) bool {
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return (Left(a, b, c) != Left(a, b, d)) && (Left(c, d, a) != Left(c, d, b))
}

// Between reports whether a, b, c are collinear and c lies on the closed
// segment ab.
func Between(a, b, c []int) bool {
	if !Collinear(a, b, c) {
		return false
	}
	// If ab not vertical, check betweenness on x; else on z.
	if a[0] != b[0] {
		return ((a[0] <= c[0]) && (c[0] <= b[0])) || ((a[0] >= c[0]) && (c[0] >= b[0]))
	}
	return ((a[2] <= c[2]) && (c[2] <= b[2])) || ((a[2] >= c[2]) && (c[2] >= b[2]))
}

// Intersect reports whether segments ab and cd intersect, properly or improperly.
func Intersect(a, b, c, d []int) bool {
	if IntersectProp(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) || Between(c, d, a) || Between(c, d, b)
}

// Vequal2D compares two grid vertices on the xz-plane.
func Vequal2D(a, b []int) bool {
	return a[0] == b[0] && a[2] == b[2]
}

// Uleft reports whether c is strictly left of a->b, for 3-component vertices.
func Uleft(a, b, c []int) bool {
	return (b[0]-a[0])*(c[2]-a[2])-(c[0]-a[0])*(b[2]-a[2]) < 0
}

// DistancePtSeg2d returns the squared distance from (x, z) to the segment
// (px, pz)-(qx, qz).
func DistancePtSeg2d(x, z, px, pz, qx, qz int) float64 {
	pqx := float64(qx - px)
	pqz := float64(qz - pz)
	dx := float64(x - px)
	dz := float64(z - pz)
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = float64(px) + t*pqx - float64(x)
	dz = float64(pz) + t*pqz - float64(z)
	return dx*dx + dz*dz
}

// PointInPoly tests an xz point against a polygon stored as packed xyz floats.
func PointInPoly(numVerts int, verts []float64, px, pz float64) bool {
	inPoly := false
	for i, j := 0, numVerts-1; i < numVerts; j, i = i, i+1 {
		vi := verts[i*3 : i*3+3]
		vj := verts[j*3 : j*3+3]
		if (vi[2] > pz) == (vj[2] > pz) {
			continue
		}
		if px >= (vj[0]-vi[0])*(pz-vi[2])/(vj[2]-vi[2])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}
