package coral

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Output thresholds for the non-growth decision channels. Memory writes use
// hysteresis so a channel hovering near 0.5 leaves the bit alone.
const (
	memorySetThreshold   = 0.66
	memoryClearThreshold = 0.33
	morphogenSeedLevel   = 0.5
)

// growPolyps evaluates the decision network for every polyp and applies its
// outputs: outward growth along the vertex normal, memory writes and
// morphogen seeding. Proposed positions that would collide with non-adjacent
// tissue are rejected and the polyp keeps its place.
func (c *Coral) growPolyps() error {
	n := c.nPolyps
	for i := 0; i < n; i++ {
		c.buildInputs(i)
		if err := c.net.Activate(c.inputs, c.outputs); err != nil {
			return fmt.Errorf("polyp %d: %w", i, err)
		}
		c.applyOutputs(i)
	}

	c.grid.rebuild(c.position, n)
	for i := 0; i < n; i++ {
		if c.grid.collides(c.nextPosition[i], i, c.msh.Verts[i], c.polypSize) {
			c.collided[i] = true
			c.nextPosition[i] = c.position[i]
			continue
		}
		c.collided[i] = false
		c.position[i] = c.nextPosition[i]
	}

	// Division reads mesh geometry, so accepted moves must be visible on the
	// vertices before the split pass measures edges and faces.
	for i := 0; i < n; i++ {
		c.msh.Verts[i].P = c.position[i]
	}
	return nil
}

// buildInputs assembles the sensor vector for polyp i:
// [light, curvature, gravity, collection, bias, memory bits, morphogen bins].
func (c *Coral) buildInputs(i int) {
	in := c.inputs
	for k := range in {
		in[k] = 0
	}

	in[0] = c.lightVals[i]
	in[1] = c.msh.Verts[i].Curvature
	in[2] = c.gravityVals[i]
	in[3] = c.collection[i]
	in[4] = 1 // bias

	nMem := c.cfg.Polyp.Memory
	for bit := 0; bit < nMem; bit++ {
		if c.memory[i]&(1<<uint(bit)) != 0 {
			in[5+bit] = 1
		}
	}

	// Each species contributes thresholds-1 one-hot bins; concentration in
	// the lowest bin activates none of them.
	nt := c.cfg.Morphogen.Thresholds
	base := 5 + nMem
	for s := 0; s < c.morphogens.Count(); s++ {
		bin := int(c.morphogens.U[s][i] * float64(nt))
		if bin > nt-1 {
			bin = nt - 1
		}
		if bin > 0 {
			in[base+s*(nt-1)+(bin-1)] = 1
		}
	}
}

// applyOutputs turns the network outputs for polyp i into a proposed
// position, memory writes and morphogen seeding.
func (c *Coral) applyOutputs(i int) {
	out := c.outputs

	growth := clamp01(out[0]) * c.cfg.Polyp.MaxGrowth * c.polypSize
	c.nextPosition[i] = r3.Add(c.position[i], r3.Scale(growth, c.normal[i]))

	nMem := c.cfg.Polyp.Memory
	for bit := 0; bit < nMem; bit++ {
		switch v := out[1+bit]; {
		case v > memorySetThreshold:
			c.memory[i] |= 1 << uint(bit)
		case v < memoryClearThreshold:
			c.memory[i] &^= 1 << uint(bit)
		}
	}

	for s := 0; s < c.morphogens.Count(); s++ {
		if out[1+nMem+s] > morphogenSeedLevel {
			c.morphogens.Seed(s, i)
		}
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
