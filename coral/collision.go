package coral

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/mesh"
)

// collisionGrid is a uniform spatial hash over polyp centers. Cells are one
// polyp diameter wide, so any sphere overlap is confined to the 27-cell
// neighborhood of a query point.
type collisionGrid struct {
	cellSize float64
	cells    map[gridCell][]int
	pos      []r3.Vec
}

type gridCell struct{ x, y, z int }

func newCollisionGrid(cellSize float64) *collisionGrid {
	return &collisionGrid{
		cellSize: cellSize,
		cells:    make(map[gridCell][]int),
	}
}

// rebuild re-hashes the first n positions. The grid keeps its own copy so
// queries see one consistent snapshot even while the caller mutates the
// source array between them.
func (g *collisionGrid) rebuild(pos []r3.Vec, n int) {
	for k := range g.cells {
		delete(g.cells, k)
	}
	g.pos = append(g.pos[:0], pos[:n]...)
	for i := 0; i < n; i++ {
		c := g.cellOf(pos[i])
		g.cells[c] = append(g.cells[c], i)
	}
}

// collides reports whether a sphere of the given diameter at p would
// overlap any polyp other than self and self's one-ring mesh neighbors.
// Adjacent polyps are exempt: connected tissue is allowed to touch.
func (g *collisionGrid) collides(p r3.Vec, self int, vert *mesh.Vert, diameter float64) bool {
	home := g.cellOf(p)
	limit := diameter * diameter

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				cell := gridCell{home.x + dx, home.y + dy, home.z + dz}
				for _, j := range g.cells[cell] {
					if j == self || isNeighbor(vert, j) {
						continue
					}
					d := r3.Sub(p, g.pos[j])
					if r3.Dot(d, d) < limit {
						return true
					}
				}
			}
		}
	}
	return false
}

func isNeighbor(vert *mesh.Vert, id int) bool {
	for _, n := range vert.Neighbors() {
		if n.ID == id {
			return true
		}
	}
	return false
}

func (g *collisionGrid) cellOf(p r3.Vec) gridCell {
	return gridCell{
		x: floorDiv(p.X, g.cellSize),
		y: floorDiv(p.Y, g.cellSize),
		z: floorDiv(p.Z, g.cellSize),
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
