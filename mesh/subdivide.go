package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// SplitFace splits f's longest edge at its midpoint, dividing f (and the
// neighboring face sharing that edge, if any) in two. One vertex is appended;
// existing vertex and face IDs are untouched, so callers holding dense
// per-vertex arrays stay consistent.
//
// Returns false without modifying the mesh if adding a vertex would exceed
// maxVerts. Degenerate faces that cannot legally split are also a no-op.
func (m *Mesh) SplitFace(f *Face, maxVerts int) bool {
	if len(m.Verts) >= maxVerts {
		return false
	}

	l0, l1, l2 := f.EdgeLengths()
	if l0 <= 1e-12 && l1 <= 1e-12 && l2 <= 1e-12 {
		return false
	}

	// Longest edge runs a-b; c is the opposite corner.
	i := 0
	if l1 > l0 && l1 >= l2 {
		i = 1
	} else if l2 > l0 && l2 > l1 {
		i = 2
	}
	a := f.V[i]
	b := f.V[(i+1)%3]

	g := m.faceSharing(a, b, f)

	mid := r3.Scale(0.5, r3.Add(a.P, b.P))
	w := m.addVert(mid)

	// Splitting preserves winding: replacing one endpoint of the split edge
	// with the midpoint keeps the cyclic order of the remaining corners.
	fHalf := withReplaced(f.V, a, w)
	replaceVert(f, b, w)
	relink(f)
	m.addFace(fHalf[0], fHalf[1], fHalf[2])

	if g != nil {
		gHalf := withReplaced(g.V, a, w)
		replaceVert(g, b, w)
		relink(g)
		m.addFace(gHalf[0], gHalf[1], gHalf[2])
	}

	// The split edge no longer exists unless another face still uses it.
	if m.faceSharing(a, b, nil) == nil {
		unlink(a, b)
	}
	return true
}

// faceSharing returns a face containing both a and b, excluding skip.
func (m *Mesh) faceSharing(a, b *Vert, skip *Face) *Face {
	for _, f := range m.Faces {
		if f == skip {
			continue
		}
		var hasA, hasB bool
		for _, v := range f.V {
			if v == a {
				hasA = true
			}
			if v == b {
				hasB = true
			}
		}
		if hasA && hasB {
			return f
		}
	}
	return nil
}

// withReplaced returns a copy of corners with old swapped for repl.
func withReplaced(corners [3]*Vert, old, repl *Vert) [3]*Vert {
	for j := range corners {
		if corners[j] == old {
			corners[j] = repl
		}
	}
	return corners
}

// replaceVert swaps old for repl in f's corner list.
func replaceVert(f *Face, old, repl *Vert) {
	for j := range f.V {
		if f.V[j] == old {
			f.V[j] = repl
		}
	}
}

// relink records adjacency for a face modified in place.
func relink(f *Face) {
	link(f.V[0], f.V[1])
	link(f.V[1], f.V[2])
	link(f.V[2], f.V[0])
}
