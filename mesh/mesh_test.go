package mesh

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestIcosahedron(t *testing.T) {
	m := NewIcosahedron(1)

	if len(m.Verts) != 12 {
		t.Fatalf("vertices = %d, want 12", len(m.Verts))
	}
	if len(m.Faces) != 20 {
		t.Fatalf("faces = %d, want 20", len(m.Faces))
	}

	for i, v := range m.Verts {
		if v.ID != i {
			t.Errorf("vertex %d has ID %d", i, v.ID)
		}
		if r := r3.Norm(v.P); math.Abs(r-1) > 1e-9 {
			t.Errorf("vertex %d at radius %v, want 1", i, r)
		}
		// Every icosahedron vertex has exactly 5 neighbors.
		if got := len(v.Neighbors()); got != 5 {
			t.Errorf("vertex %d has %d neighbors, want 5", i, got)
		}
	}
}

func TestNewRejectsBadIndices(t *testing.T) {
	positions := []r3.Vec{{}, {X: 1}, {Y: 1}}
	_, err := New(positions, [][3]int{{0, 1, 3}})
	if err == nil {
		t.Fatal("expected error for out-of-range face index")
	}
}

func TestMeanEdgeLength(t *testing.T) {
	// Unit right triangle: edges 1, 1, sqrt(2).
	positions := []r3.Vec{{}, {X: 1}, {Y: 1}}
	m, err := New(positions, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}

	want := (1 + 1 + math.Sqrt2) / 3
	if got := m.MeanEdgeLength(); math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanEdgeLength() = %v, want %v", got, want)
	}
	if got := m.MeanFaceArea(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("MeanFaceArea() = %v, want 0.5", got)
	}
}

func TestCalculateNormals(t *testing.T) {
	// Flat triangle in the XZ plane, counter-clockwise seen from +Y.
	positions := []r3.Vec{{}, {Z: -1}, {X: 1}}
	m, err := New(positions, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}

	m.CalculateNormals()
	for _, v := range m.Verts {
		if math.Abs(v.Normal.Y-1) > 1e-9 {
			t.Errorf("vertex %d normal = %+v, want +Y", v.ID, v.Normal)
		}
	}
}

func TestCalculateCurvature(t *testing.T) {
	m := NewIcosahedron(1)
	m.CalculateCurvature()

	// A closed convex surface has positive curvature everywhere; the
	// icosahedron's angle defect is the same at every vertex.
	first := m.Verts[0].Curvature
	if first <= 0 {
		t.Fatalf("curvature = %v, want positive", first)
	}
	for _, v := range m.Verts[1:] {
		if math.Abs(v.Curvature-first) > 1e-9 {
			t.Errorf("vertex %d curvature = %v, want %v", v.ID, v.Curvature, first)
		}
	}
}

func TestSplitFace(t *testing.T) {
	m := NewIcosahedron(1)
	f := m.Faces[0]

	nv, nf := len(m.Verts), len(m.Faces)
	if !m.SplitFace(f, 100) {
		t.Fatal("SplitFace returned false")
	}

	if len(m.Verts) != nv+1 {
		t.Errorf("vertices = %d, want %d", len(m.Verts), nv+1)
	}
	// The split face and its edge neighbor each gain one half.
	if len(m.Faces) != nf+2 {
		t.Errorf("faces = %d, want %d", len(m.Faces), nf+2)
	}

	mid := m.Verts[nv]
	if mid.ID != nv {
		t.Errorf("new vertex ID = %d, want %d", mid.ID, nv)
	}
	// The midpoint joins both split faces, so it has 4 neighbors.
	if got := len(mid.Neighbors()); got != 4 {
		t.Errorf("midpoint has %d neighbors, want 4", got)
	}

	// Every face must still be a triangle of linked vertices.
	for _, face := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := face.V[i], face.V[(i+1)%3]
			if !adjacent(a, b) {
				t.Errorf("face %d edge %d-%d not in adjacency", face.ID, a.ID, b.ID)
			}
		}
	}
}

func TestSplitFaceAtCapacity(t *testing.T) {
	m := NewIcosahedron(1)
	if m.SplitFace(m.Faces[0], len(m.Verts)) {
		t.Error("SplitFace split at vertex capacity")
	}
	if len(m.Verts) != 12 {
		t.Errorf("vertices = %d, want 12", len(m.Verts))
	}
}

func TestBoundingBox(t *testing.T) {
	m := NewIcosahedron(2)
	min, max := m.BoundingBox()
	for _, v := range []float64{min.X, min.Y, min.Z} {
		if v > -1 {
			t.Errorf("min component %v, want <= -1", v)
		}
	}
	for _, v := range []float64{max.X, max.Y, max.Z} {
		if v < 1 {
			t.Errorf("max component %v, want >= 1", v)
		}
	}
}
