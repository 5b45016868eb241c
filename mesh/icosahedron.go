package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NewIcosahedron returns a regular icosahedron with 12 vertices and 20 faces,
// scaled so every vertex lies at distance radius from the origin. It is the
// default seed surface for growth runs and tests.
func NewIcosahedron(radius float64) *Mesh {
	t := (1 + math.Sqrt(5)) / 2

	positions := []r3.Vec{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	scale := radius / math.Sqrt(1+t*t)
	for i := range positions {
		positions[i] = r3.Scale(scale, positions[i])
	}

	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	m, err := New(positions, faces)
	if err != nil {
		// The table above is fixed; a failure here is a programming error.
		panic(err)
	}
	return m
}
