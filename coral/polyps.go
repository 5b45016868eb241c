package coral

import (
	"fmt"

	"github.com/pthm-cable/reef/mesh"
)

// createPolyp binds vert to the next free polyp slot. Already-bound
// vertices and calls at capacity are no-ops. The binding is positional:
// slot index and vertex ID must coincide, so vertices have to be bound in
// creation order.
func (c *Coral) createPolyp(vert *mesh.Vert) {
	if vert.ID < c.nPolyps {
		return
	}
	if c.nPolyps >= c.cfg.World.MaxPolyps {
		return
	}
	if vert.ID != c.nPolyps {
		panic(fmt.Sprintf("coral: binding vertex %d to slot %d", vert.ID, c.nPolyps))
	}

	idx := c.nPolyps
	c.nPolyps++

	c.position[idx] = vert.P
	c.nextPosition[idx] = vert.P
	c.normal[idx] = vert.Normal
	c.lightVals[idx] = 0
	c.flowVals[idx] = 0
	c.gravityVals[idx] = 0
	c.collection[idx] = 0
	c.collided[idx] = false
	c.morphogens.InitSlot(idx)

	c.memory[idx] = inheritMemory(c.boundNeighborMemories(vert, idx), c.cfg.Polyp.Memory)
}

// boundNeighborMemories collects the memory words of vert's one-ring
// neighbors already bound to a slot below idx.
func (c *Coral) boundNeighborMemories(vert *mesh.Vert, idx int) []uint32 {
	var mems []uint32
	for _, n := range vert.Neighbors() {
		if n.ID < idx {
			mems = append(mems, c.memory[n.ID])
		}
	}
	return mems
}

// inheritMemory votes each of the low nMemory bits across the neighbor
// memory words. A bit is set in the result only when strictly more than
// half of the neighbors have it set; ties and empty neighborhoods leave
// the bit unset.
func inheritMemory(neighborMems []uint32, nMemory int) uint32 {
	half := len(neighborMems) / 2
	var mem uint32
	for bit := 0; bit < nMemory; bit++ {
		count := 0
		for _, m := range neighborMems {
			if m&(1<<uint(bit)) != 0 {
				count++
			}
		}
		if count > half {
			mem |= 1 << uint(bit)
		}
	}
	return mem
}
