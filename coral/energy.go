package coral

// calculateEnergy integrates light and collection over the colony surface
// with per-face three-vertex-mean quadrature, then blends the two totals by
// the configured light weight.
func (c *Coral) calculateEnergy() {
	var lightTotal, collectionTotal float64
	for _, f := range c.msh.Faces {
		area := f.Area()
		var light, collection float64
		for _, v := range f.V {
			light += c.lightVals[v.ID]
			collection += c.collection[v.ID]
		}
		lightTotal += area * light / 3
		collectionTotal += area * collection / 3
	}

	c.lightTotal = lightTotal
	c.collectionTotal = collectionTotal

	w := c.cfg.World.LightAmount
	c.energy = lightTotal*w + collectionTotal*(1-w)
}
