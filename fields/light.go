// Package fields implements the per-polyp environment calculators: light,
// flow/collection, gravity and the morphogen reaction-diffusion solver.
// Each calculator owns exactly one output array per polyp and reads only
// positions, normals and topology.
package fields

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Light computes per-polyp light exposure under a directly overhead sun.
//
// Polyps are binned into an overhead (x, z) grid; within each column only
// tissue near the top surface is lit, everything beneath it reads exactly 0.
// Lit polyps read 0.5 + 0.5*(normal Y), so raw values are either 0 or in
// [0.5, 1]. Callers remap that range; zero must survive any remap.
type Light struct {
	CellSize float64
}

// NewLight creates a light calculator with the given overhead cell size,
// typically the initial mean edge length of the seed mesh.
func NewLight(cellSize float64) *Light {
	return &Light{CellSize: cellSize}
}

// Calculate fills out[:n] with raw light readings for pos[:n].
func (l *Light) Calculate(pos []r3.Vec, normal []r3.Vec, out []float64, n int) {
	type cell struct{ x, z int }
	top := make(map[cell]float64, n)

	for i := 0; i < n; i++ {
		c := cell{x: floorDiv(pos[i].X, l.CellSize), z: floorDiv(pos[i].Z, l.CellSize)}
		if y, ok := top[c]; !ok || pos[i].Y > y {
			top[c] = pos[i].Y
		}
	}

	// Tissue within half a cell of the column top counts as exposed.
	margin := l.CellSize * 0.5
	for i := 0; i < n; i++ {
		c := cell{x: floorDiv(pos[i].X, l.CellSize), z: floorDiv(pos[i].Z, l.CellSize)}
		if pos[i].Y < top[c]-margin {
			out[i] = 0
			continue
		}
		up := normal[i].Y
		if up < 0 {
			up = 0
		}
		out[i] = 0.5 + 0.5*up
	}
}

func floorDiv(x, size float64) int {
	q := x / size
	i := int(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}
