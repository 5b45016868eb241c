package coral

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// The .coral.obj format is an OBJ superset: a "#coral" header line naming
// the per-vertex attributes, "v" lines carrying position plus a morphogen
// color, one "c" line per vertex with the attribute values in header order,
// then standard "f" lines.

// WriteObj exports the colony to path in .coral.obj format.
func (c *Coral) WriteObj(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("coral: creating export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "#coral %s\n", strings.Join(c.attribNames(), " "))

	n := c.nPolyps
	for i := 0; i < n; i++ {
		p := c.position[i]
		r, g, b := c.vertexColor(i)
		fmt.Fprintf(w, "v %g %g %g %g %g %g\n", p.X, p.Y, p.Z, r, g, b)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "c %s\n", joinFloats(c.attribValues(i)))
	}
	for _, face := range c.msh.Faces {
		fmt.Fprintf(w, "f %d %d %d\n", face.V[0].ID+1, face.V[1].ID+1, face.V[2].ID+1)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("coral: writing export file: %w", err)
	}
	return nil
}

func (c *Coral) attribNames() []string {
	names := []string{"light", "collection", "gravity", "curvature", "memory", "collided"}
	for s := 0; s < c.morphogens.Count(); s++ {
		names = append(names, fmt.Sprintf("u%d", s))
	}
	return names
}

func (c *Coral) attribValues(i int) []float64 {
	vals := []float64{
		c.lightVals[i],
		c.collection[i],
		c.gravityVals[i],
		c.msh.Verts[i].Curvature,
		float64(c.memory[i]),
		boolToFloat(c.collided[i]),
	}
	for s := 0; s < c.morphogens.Count(); s++ {
		vals = append(vals, c.morphogens.U[s][i])
	}
	return vals
}

// vertexColor maps up to three morphogen substrates onto RGB.
func (c *Coral) vertexColor(i int) (r, g, b float64) {
	rgb := [3]float64{}
	for s := 0; s < c.morphogens.Count() && s < 3; s++ {
		rgb[s] = c.morphogens.U[s][i]
	}
	return rgb[0], rgb[1], rgb[2]
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Export is a parsed .coral.obj file.
type Export struct {
	AttribNames []string
	Positions   []r3.Vec
	Colors      []r3.Vec
	Attribs     [][]float64 // per vertex, in AttribNames order
	Faces       [][3]int
}

// Attrib returns the named per-vertex attribute column, or nil if the
// export does not carry it.
func (e *Export) Attrib(name string) []float64 {
	for k, n := range e.AttribNames {
		if n != name {
			continue
		}
		col := make([]float64, len(e.Attribs))
		for i, row := range e.Attribs {
			col[i] = row[k]
		}
		return col
	}
	return nil
}

// ReadObj parses a .coral.obj export.
func ReadObj(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("coral: opening export file: %w", err)
	}
	defer f.Close()

	e := &Export{}
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "#coral":
			e.AttribNames = fields[1:]
		case "v":
			if len(fields) < 7 {
				return nil, fmt.Errorf("coral: line %d: vertex needs position and color", lineNum)
			}
			vals, err := parseFloats(fields[1:7])
			if err != nil {
				return nil, fmt.Errorf("coral: line %d: %w", lineNum, err)
			}
			e.Positions = append(e.Positions, r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]})
			e.Colors = append(e.Colors, r3.Vec{X: vals[3], Y: vals[4], Z: vals[5]})
		case "c":
			vals, err := parseFloats(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("coral: line %d: %w", lineNum, err)
			}
			if len(vals) != len(e.AttribNames) {
				return nil, fmt.Errorf("coral: line %d: %d attribute values, header names %d", lineNum, len(vals), len(e.AttribNames))
			}
			e.Attribs = append(e.Attribs, vals)
		case "f":
			if len(fields) != 4 {
				return nil, fmt.Errorf("coral: line %d: only triangles are supported", lineNum)
			}
			var face [3]int
			for k := 0; k < 3; k++ {
				idx, err := strconv.Atoi(fields[k+1])
				if err != nil {
					return nil, fmt.Errorf("coral: line %d: %w", lineNum, err)
				}
				if idx < 1 || idx > len(e.Positions) {
					return nil, fmt.Errorf("coral: line %d: face references vertex %d", lineNum, idx)
				}
				face[k] = idx - 1
			}
			e.Faces = append(e.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("coral: reading export file: %w", err)
	}
	if len(e.Positions) == 0 {
		return nil, fmt.Errorf("coral: export file has no vertices")
	}
	return e, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, err)
		}
		vals[i] = v
	}
	return vals, nil
}
