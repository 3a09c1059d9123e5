package geom

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Faces with more corners are truncated.
const maxFaceVerts = 32

// LoadObj reads a Wavefront OBJ file. Only positions and faces are used,
// polygonal faces are fanned into triangles.
func LoadObj(path string, scale float64) (*InputGeom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := ParseObj(f, scale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.Name = filepath.Base(path)
	return g, nil
}

// ParseObj reads OBJ data from r, scaling every position by scale.
func ParseObj(r io.Reader, scale float64) (*InputGeom, error) {
	if scale == 0 {
		scale = 1
	}
	l := &objLoader{scale: scale}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		row := strings.TrimSpace(sc.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		if err := l.parseRow(strings.Fields(row)); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadGeometry, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	g := &InputGeom{Verts: l.verts, Tris: l.tris}
	g.calcBounds()
	return g, nil
}

type objLoader struct {
	scale float64
	verts []float64
	tris  []int
}

func (l *objLoader) vertCount() int { return len(l.verts) / 3 }

func (l *objLoader) parseRow(ss []string) error {
	switch ss[0] {
	case "v":
		return l.parseVertex(ss[1:])
	case "f":
		return l.parseFace(ss[1:])
	}
	// vn, vt, groups, materials
	return nil
}

func (l *objLoader) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("vertex needs 3 coordinates, got %d", len(ss))
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(ss[i], 64)
		if err != nil {
			return err
		}
		v[i] = f * l.scale
	}
	l.verts = append(l.verts, v[0], v[1], v[2])
	return nil
}

func (l *objLoader) parseFace(ss []string) error {
	nv := l.vertCount()
	face := make([]int, 0, len(ss))
	for _, s := range ss {
		if len(face) >= maxFaceVerts {
			break
		}
		// v, v/vt, v//vn or v/vt/vn
		vs := strings.SplitN(s, "/", 2)
		vi, err := strconv.Atoi(vs[0])
		if err != nil {
			return err
		}
		if vi < 0 {
			vi += nv
		} else {
			vi--
		}
		face = append(face, vi)
	}
	for i := 2; i < len(face); i++ {
		a, b, c := face[0], face[i-1], face[i]
		if a < 0 || a >= nv || b < 0 || b >= nv || c < 0 || c >= nv {
			continue
		}
		l.tris = append(l.tris, a, b, c)
	}
	return nil
}
