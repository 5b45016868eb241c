package coral

import "github.com/pthm-cable/reef/fields"

// updateAttributes runs the full attribute pipeline in its fixed order:
// geometry first, then the fields that read geometry, then the energy
// integral over the refreshed fields. Every calculator writes only its own
// array and reads only arrays refreshed before it.
func (c *Coral) updateAttributes() {
	n := c.nPolyps

	// Polyp positions are authoritative; push them into the mesh before any
	// geometry is derived from it.
	for i := 0; i < n; i++ {
		c.msh.Verts[i].P = c.position[i]
	}
	c.msh.CalculateNormals()
	c.msh.CalculateCurvature()
	for i := 0; i < n; i++ {
		c.normal[i] = c.msh.Verts[i].Normal
	}

	c.light.Calculate(c.position, c.normal, c.lightVals, n)
	remapLight(c.lightVals, n)

	c.flow.Calculate(c.position, c.flowVals, c.collection, n, flowResolution)
	fields.Gravity(c.normal, c.gravityVals, n)

	c.morphogens.Update(c.msh, n, c.cfg.Morphogen.Steps)

	c.calculateEnergy()
}

// remapLight stretches nonzero raw readings from [0.5, 1] onto [0, 1].
// Shaded polyps read exactly 0 and must stay at exactly 0.
func remapLight(light []float64, n int) {
	for i := 0; i < n; i++ {
		if light[i] != 0 {
			light[i] = (light[i] - 0.5) * 2
		}
	}
}
