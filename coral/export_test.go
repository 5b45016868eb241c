package coral

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
)

func TestExportRoundTrip(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, func(inputs, outputs []float64) {
		outputs[0] = 1
	})
	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "colony.coral.obj")
	if err := c.WriteObj(path); err != nil {
		t.Fatal(err)
	}

	exp, err := ReadObj(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(exp.Positions) != c.NumPolyps() {
		t.Errorf("positions = %d, want %d", len(exp.Positions), c.NumPolyps())
	}
	if len(exp.Attribs) != c.NumPolyps() {
		t.Errorf("attribute rows = %d, want %d", len(exp.Attribs), c.NumPolyps())
	}
	if len(exp.Faces) != len(c.msh.Faces) {
		t.Errorf("faces = %d, want %d", len(exp.Faces), len(c.msh.Faces))
	}

	wantNames := []string{"light", "collection", "gravity", "curvature", "memory", "collided"}
	for s := 0; s < cfg.Morphogen.Count; s++ {
		wantNames = append(wantNames, fmt.Sprintf("u%d", s))
	}
	if len(exp.AttribNames) != len(wantNames) {
		t.Fatalf("attribute names = %v, want %v", exp.AttribNames, wantNames)
	}
	for i, name := range wantNames {
		if exp.AttribNames[i] != name {
			t.Errorf("attribute %d = %q, want %q", i, exp.AttribNames[i], name)
		}
	}

	light := exp.Attrib("light")
	if light == nil {
		t.Fatal("light column missing")
	}
	for i, v := range light {
		if math.Abs(v-c.lightVals[i]) > 1e-12 {
			t.Errorf("light[%d] = %v, want %v", i, v, c.lightVals[i])
		}
	}

	for i, p := range exp.Positions {
		d := p
		d.X -= c.position[i].X
		d.Y -= c.position[i].Y
		d.Z -= c.position[i].Z
		if math.Abs(d.X)+math.Abs(d.Y)+math.Abs(d.Z) > 1e-9 {
			t.Errorf("position %d = %+v, want %+v", i, p, c.position[i])
		}
	}

	if exp.Attrib("no_such_attrib") != nil {
		t.Error("unknown attribute should return nil")
	}
}

func TestReadObjErrors(t *testing.T) {
	if _, err := ReadObj(filepath.Join(t.TempDir(), "missing.coral.obj")); err == nil {
		t.Error("expected error for missing file")
	}
}
