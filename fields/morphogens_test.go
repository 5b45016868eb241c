package fields

import (
	"testing"

	"github.com/pthm-cable/reef/mesh"
)

func testParams(n int) []SpeciesParams {
	params := make([]SpeciesParams, n)
	for i := range params {
		params[i] = SpeciesParams{Feed: 0.0367, Kill: 0.0649, DiffU: 0.16, DiffV: 0.08}
	}
	return params
}

func TestMorphogensInitSlot(t *testing.T) {
	m := NewMorphogens(testParams(2), 10)

	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}

	m.InitSlot(3)
	for s := 0; s < 2; s++ {
		if m.U[s][3] != 1 {
			t.Errorf("species %d U = %v, want 1", s, m.U[s][3])
		}
		if m.V[s][3] != 0 {
			t.Errorf("species %d V = %v, want 0", s, m.V[s][3])
		}
	}

	m.Seed(1, 3)
	if m.V[0][3] != 0 {
		t.Error("seeding species 1 touched species 0")
	}
	if m.V[1][3] != 1 {
		t.Errorf("V = %v after seed, want 1", m.V[1][3])
	}
}

func TestMorphogensUniformStateIsStable(t *testing.T) {
	msh := mesh.NewIcosahedron(1)
	m := NewMorphogens(testParams(1), len(msh.Verts))
	for i := range msh.Verts {
		m.InitSlot(i)
	}

	// U=1, V=0 everywhere is the Gray-Scott trivial steady state: the
	// reaction term is zero and so is every laplacian.
	m.Update(msh, len(msh.Verts), 50)
	for i := range msh.Verts {
		if m.U[0][i] != 1 || m.V[0][i] != 0 {
			t.Fatalf("vertex %d drifted to U=%v V=%v", i, m.U[0][i], m.V[0][i])
		}
	}
}

func TestMorphogensSeedSpreads(t *testing.T) {
	msh := mesh.NewIcosahedron(1)
	m := NewMorphogens(testParams(1), len(msh.Verts))
	for i := range msh.Verts {
		m.InitSlot(i)
	}
	m.Seed(0, 0)

	m.Update(msh, len(msh.Verts), 100)

	// The activator must deplete substrate at the seed and diffuse into
	// its one-ring, and everything must stay clamped to [0, 1].
	if m.U[0][0] >= 1 {
		t.Errorf("seed substrate U = %v, want < 1", m.U[0][0])
	}
	neighborTouched := false
	for _, nb := range msh.Verts[0].Neighbors() {
		if m.V[0][nb.ID] > 0 {
			neighborTouched = true
		}
	}
	if !neighborTouched {
		t.Error("activator did not diffuse to any neighbor")
	}
	for i := range msh.Verts {
		if m.U[0][i] < 0 || m.U[0][i] > 1 || m.V[0][i] < 0 || m.V[0][i] > 1 {
			t.Fatalf("vertex %d out of range: U=%v V=%v", i, m.U[0][i], m.V[0][i])
		}
	}
}

func TestMorphogensIgnoreUnboundVerts(t *testing.T) {
	msh := mesh.NewIcosahedron(1)
	n := 6 // only the first 6 vertices are bound
	m := NewMorphogens(testParams(1), len(msh.Verts))
	for i := 0; i < n; i++ {
		m.InitSlot(i)
	}
	m.Seed(0, 0)

	m.Update(msh, n, 50)

	for i := n; i < len(msh.Verts); i++ {
		if m.U[0][i] != 0 || m.V[0][i] != 0 {
			t.Errorf("unbound vertex %d was written: U=%v V=%v", i, m.U[0][i], m.V[0][i])
		}
	}
}
