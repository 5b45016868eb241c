package coral

import "math"

// polypDivision splits every face that has outgrown the thresholds derived
// from the seed mesh, then binds the vertices the splits created.
//
// The trigger pass stops as soon as the vertex count reaches capacity;
// remaining overgrown faces simply wait. The bind pass runs regardless, so
// a vertex created by an earlier step that could not be bound at the time
// gets its polyp as soon as capacity allows.
func (c *Coral) polypDivision() {
	faces := c.msh.Faces
	for _, f := range faces {
		if len(c.msh.Verts) >= c.cfg.World.MaxPolyps {
			break
		}
		e0, e1, e2 := f.EdgeLengths()
		longest := math.Max(e0, math.Max(e1, e2))
		if longest > c.maxEdgeLen || f.Area() > c.maxFaceArea {
			c.msh.SplitFace(f, c.cfg.World.MaxPolyps)
		}
	}

	start := c.nPolyps
	for _, v := range c.msh.Verts[start:] {
		c.createPolyp(v)
	}
}
