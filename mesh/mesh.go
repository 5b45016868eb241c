// Package mesh provides the triangulated surface the simulation grows on.
//
// Vertex identifiers are stable and append-only: a vertex created at index i
// keeps ID i for the lifetime of the mesh, which lets callers co-index dense
// per-vertex arrays with the topology.
package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vert is a mesh vertex.
type Vert struct {
	ID        int
	P         r3.Vec
	Normal    r3.Vec
	Curvature float64

	neighbors []*Vert
}

// Neighbors returns the one-ring neighbor vertices.
// The returned slice is owned by the mesh and must not be modified.
func (v *Vert) Neighbors() []*Vert {
	return v.neighbors
}

// Face is a triangle. Vertices are stored in counter-clockwise winding
// as seen from the outside of the surface.
type Face struct {
	ID int
	V  [3]*Vert
}

// EdgeLengths returns the lengths of edges V0-V1, V1-V2 and V2-V0.
func (f *Face) EdgeLengths() (l0, l1, l2 float64) {
	l0 = r3.Norm(r3.Sub(f.V[1].P, f.V[0].P))
	l1 = r3.Norm(r3.Sub(f.V[2].P, f.V[1].P))
	l2 = r3.Norm(r3.Sub(f.V[0].P, f.V[2].P))
	return l0, l1, l2
}

// Area returns the triangle area.
func (f *Face) Area() float64 {
	c := r3.Cross(r3.Sub(f.V[1].P, f.V[0].P), r3.Sub(f.V[2].P, f.V[0].P))
	return 0.5 * r3.Norm(c)
}

// Normal returns the (unnormalized) face normal. Its length is twice the
// face area, which makes it directly usable as an area weight.
func (f *Face) Normal() r3.Vec {
	return r3.Cross(r3.Sub(f.V[1].P, f.V[0].P), r3.Sub(f.V[2].P, f.V[0].P))
}

// Centroid returns the triangle centroid.
func (f *Face) Centroid() r3.Vec {
	s := r3.Add(r3.Add(f.V[0].P, f.V[1].P), f.V[2].P)
	return r3.Scale(1.0/3.0, s)
}

// Mesh is a mutable triangle mesh.
type Mesh struct {
	Verts []*Vert
	Faces []*Face
}

// New builds a mesh from vertex positions and triangle index triples.
func New(positions []r3.Vec, faces [][3]int) (*Mesh, error) {
	m := &Mesh{}
	for _, p := range positions {
		m.addVert(p)
	}
	for _, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Verts) {
				return nil, fmt.Errorf("mesh: face references vertex %d, have %d vertices", idx, len(m.Verts))
			}
		}
		m.addFace(m.Verts[f[0]], m.Verts[f[1]], m.Verts[f[2]])
	}
	return m, nil
}

// addVert appends a vertex; its ID is its index in Verts.
func (m *Mesh) addVert(p r3.Vec) *Vert {
	v := &Vert{ID: len(m.Verts), P: p}
	m.Verts = append(m.Verts, v)
	return v
}

// addFace appends a face and links the one-ring adjacency of its corners.
func (m *Mesh) addFace(a, b, c *Vert) *Face {
	f := &Face{ID: len(m.Faces), V: [3]*Vert{a, b, c}}
	m.Faces = append(m.Faces, f)
	link(a, b)
	link(b, c)
	link(c, a)
	return f
}

// link records u and v as one-ring neighbors (idempotent).
func link(u, v *Vert) {
	if !adjacent(u, v) {
		u.neighbors = append(u.neighbors, v)
		v.neighbors = append(v.neighbors, u)
	}
}

// unlink removes u and v from each other's one-ring.
func unlink(u, v *Vert) {
	u.neighbors = remove(u.neighbors, v)
	v.neighbors = remove(v.neighbors, u)
}

func adjacent(u, v *Vert) bool {
	for _, n := range u.neighbors {
		if n == v {
			return true
		}
	}
	return false
}

func remove(verts []*Vert, v *Vert) []*Vert {
	for i, n := range verts {
		if n == v {
			verts[i] = verts[len(verts)-1]
			return verts[:len(verts)-1]
		}
	}
	return verts
}

// MeanEdgeLength returns the mean length over unique edges.
func (m *Mesh) MeanEdgeLength() float64 {
	var sum float64
	var count int
	for _, v := range m.Verts {
		for _, n := range v.neighbors {
			if n.ID > v.ID {
				sum += r3.Norm(r3.Sub(n.P, v.P))
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// MeanFaceArea returns the mean triangle area.
func (m *Mesh) MeanFaceArea() float64 {
	if len(m.Faces) == 0 {
		return 0
	}
	var sum float64
	for _, f := range m.Faces {
		sum += f.Area()
	}
	return sum / float64(len(m.Faces))
}

// CalculateNormals recomputes area-weighted vertex normals.
func (m *Mesh) CalculateNormals() {
	for _, v := range m.Verts {
		v.Normal = r3.Vec{}
	}
	for _, f := range m.Faces {
		// Face normal length encodes area, so summing weights by area.
		n := f.Normal()
		for _, v := range f.V {
			v.Normal = r3.Add(v.Normal, n)
		}
	}
	for _, v := range m.Verts {
		if l := r3.Norm(v.Normal); l > 1e-12 {
			v.Normal = r3.Scale(1/l, v.Normal)
		}
	}
}

// CalculateCurvature recomputes per-vertex curvature as the normalized
// angle defect: 0 on flat regions, positive on convex caps, negative on
// saddles. Clamped to [-1, 1] so it can feed the decision network directly.
func (m *Mesh) CalculateCurvature() {
	angleSum := make([]float64, len(m.Verts))
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			v := f.V[i]
			a := f.V[(i+1)%3]
			b := f.V[(i+2)%3]
			angleSum[v.ID] += angleAt(v.P, a.P, b.P)
		}
	}
	for _, v := range m.Verts {
		defect := 2*math.Pi - angleSum[v.ID]
		c := defect / (2 * math.Pi)
		if c > 1 {
			c = 1
		} else if c < -1 {
			c = -1
		}
		v.Curvature = c
	}
}

// angleAt returns the interior angle at p in the triangle (p, a, b).
func angleAt(p, a, b r3.Vec) float64 {
	u := r3.Sub(a, p)
	w := r3.Sub(b, p)
	lu := r3.Norm(u)
	lw := r3.Norm(w)
	if lu < 1e-12 || lw < 1e-12 {
		return 0
	}
	cos := r3.Dot(u, w) / (lu * lw)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// BoundingBox returns the axis-aligned bounds of all vertices.
func (m *Mesh) BoundingBox() (min, max r3.Vec) {
	if len(m.Verts) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min = m.Verts[0].P
	max = m.Verts[0].P
	for _, v := range m.Verts[1:] {
		min.X = math.Min(min.X, v.P.X)
		min.Y = math.Min(min.Y, v.P.Y)
		min.Z = math.Min(min.Z, v.P.Z)
		max.X = math.Max(max.X, v.P.X)
		max.Y = math.Max(max.Y, v.P.Y)
		max.Z = math.Max(max.Z, v.P.Z)
	}
	return min, max
}
