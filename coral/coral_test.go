package coral

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/mesh"
)

// stubNetwork is a deterministic decision function for engine tests.
type stubNetwork struct {
	in, out int
	fn      func(inputs, outputs []float64)
}

func (s *stubNetwork) NumInputs() int  { return s.in }
func (s *stubNetwork) NumOutputs() int { return s.out }

func (s *stubNetwork) Activate(inputs, outputs []float64) error {
	for i := range outputs {
		outputs[i] = 0
	}
	if s.fn != nil {
		s.fn(inputs, outputs)
	}
	return nil
}

// testConfig loads defaults overridden by the given YAML fragment.
func testConfig(t *testing.T, overrides string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(overrides), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testNetwork(cfg *config.Config, fn func(inputs, outputs []float64)) *stubNetwork {
	return &stubNetwork{in: cfg.Derived.NumInputs, out: cfg.Derived.NumOutputs, fn: fn}
}

func newTestCoral(t *testing.T, cfg *config.Config, fn func(inputs, outputs []float64)) *Coral {
	t.Helper()
	c, err := New(cfg, mesh.NewIcosahedron(1), testNetwork(cfg, fn), DefaultTraits(cfg.Morphogen.Count), 42)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewValidatesNetworkShape(t *testing.T) {
	cfg := testConfig(t, "")
	seed := mesh.NewIcosahedron(1)
	traits := DefaultTraits(cfg.Morphogen.Count)

	tests := []struct {
		name    string
		in, out int
	}{
		{"too few inputs", cfg.Derived.NumInputs - 1, cfg.Derived.NumOutputs},
		{"too many inputs", cfg.Derived.NumInputs + 3, cfg.Derived.NumOutputs},
		{"wrong outputs", cfg.Derived.NumInputs, cfg.Derived.NumOutputs + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(cfg, seed, &stubNetwork{in: tt.in, out: tt.out}, traits, 42)
			if err == nil {
				t.Error("expected shape mismatch error")
			}
		})
	}
}

func TestNewValidatesTraits(t *testing.T) {
	cfg := testConfig(t, "")
	net := testNetwork(cfg, nil)
	_, err := New(cfg, mesh.NewIcosahedron(1), net, DefaultTraits(cfg.Morphogen.Count+1), 42)
	if err == nil {
		t.Error("expected traits mismatch error")
	}
}

func TestNewRejectsOversizedSeed(t *testing.T) {
	cfg := testConfig(t, "world:\n  max_polyps: 8\n")
	net := testNetwork(cfg, nil)
	_, err := New(cfg, mesh.NewIcosahedron(1), net, DefaultTraits(cfg.Morphogen.Count), 42)
	if err == nil {
		t.Error("expected capacity error for 12-vertex seed with capacity 8")
	}
}

func TestNewBindsSeedAndRunsAttributes(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, nil)

	if c.NumPolyps() != 12 {
		t.Fatalf("NumPolyps() = %d, want 12", c.NumPolyps())
	}
	if c.Age() != 0 {
		t.Errorf("Age() = %d, want 0", c.Age())
	}
	// The construction attribute pass must populate energy.
	if c.Energy() <= 0 {
		t.Errorf("Energy() = %v, want positive for an exposed seed", c.Energy())
	}
}

func TestZeroGrowthKeepsPopulation(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, nil)

	for step := 0; step < 5; step++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if c.NumPolyps() != 12 {
			t.Fatalf("step %d: NumPolyps() = %d, want 12", step, c.NumPolyps())
		}
		if c.Energy() < 0 {
			t.Errorf("step %d: Energy() = %v, want non-negative", step, c.Energy())
		}
	}
	if c.Age() != 5 {
		t.Errorf("Age() = %d, want 5", c.Age())
	}

	// With zero growth the seed geometry must not move.
	for _, v := range c.Mesh().Verts {
		if r := r3.Norm(v.P); math.Abs(r-1) > 1e-9 {
			t.Errorf("vertex %d drifted to radius %v", v.ID, r)
		}
	}
}

func TestGrowthExpandsColony(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, func(inputs, outputs []float64) {
		outputs[0] = 1 // grow flat out every step
	})

	prev := c.NumPolyps()
	for step := 0; step < 30; step++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if c.NumPolyps() < prev {
			t.Fatalf("step %d: population shrank %d -> %d", step, prev, c.NumPolyps())
		}
		prev = c.NumPolyps()

		// Slot/vertex identity must hold at every step.
		if c.NumPolyps() != len(c.Mesh().Verts) {
			t.Fatalf("step %d: %d polyps, %d vertices", step, c.NumPolyps(), len(c.Mesh().Verts))
		}
		for i, v := range c.Mesh().Verts {
			if v.ID != i {
				t.Fatalf("step %d: vertex %d has ID %d", step, i, v.ID)
			}
		}
	}

	if c.NumPolyps() <= 12 {
		t.Errorf("NumPolyps() = %d, want growth beyond the seed", c.NumPolyps())
	}
	if c.NumPolyps() > cfg.World.MaxPolyps {
		t.Errorf("NumPolyps() = %d exceeds capacity %d", c.NumPolyps(), cfg.World.MaxPolyps)
	}
}

func TestCapacityBoundary(t *testing.T) {
	cfg := testConfig(t, "world:\n  max_polyps: 12\n")
	c := newTestCoral(t, cfg, func(inputs, outputs []float64) {
		outputs[0] = 1
	})

	// A full step at capacity is not an error; it just adds no polyps.
	for step := 0; step < 3; step++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if c.NumPolyps() != 12 {
			t.Fatalf("step %d: NumPolyps() = %d, want 12", step, c.NumPolyps())
		}
	}
}

func TestStepLatchesFatalError(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, func(inputs, outputs []float64) {
		outputs[0] = math.NaN()
	})

	err := c.Step()
	if err == nil {
		t.Fatal("expected NaN position error")
	}
	if again := c.Step(); again != err {
		t.Errorf("second Step() = %v, want latched %v", again, err)
	}
	if c.Age() != 0 {
		t.Errorf("Age() = %d after fatal step, want 0", c.Age())
	}
}

func TestRemapLight(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"shaded stays zero", 0, 0},
		{"threshold maps to zero", 0.5, 0},
		{"midrange", 0.75, 0.5},
		{"full exposure", 1, 1},
		{"below threshold stretches negative", 0.3, -0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := []float64{tt.raw}
			remapLight(light, 1)
			if math.Abs(light[0]-tt.want) > 1e-12 {
				t.Errorf("remapLight(%v) = %v, want %v", tt.raw, light[0], tt.want)
			}
		})
	}
}

func TestEnergyBlend(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, nil)

	w := cfg.World.LightAmount
	want := c.LightTotal()*w + c.CollectionTotal()*(1-w)
	if math.Abs(c.Energy()-want) > 1e-9 {
		t.Errorf("Energy() = %v, want %v", c.Energy(), want)
	}
}

func TestEnergyMonotonicInInputs(t *testing.T) {
	cfg := testConfig(t, "")
	c := newTestCoral(t, cfg, nil)
	base := c.Energy()

	// More light on the same surface means more energy.
	for i := 0; i < c.nPolyps; i++ {
		c.lightVals[i] += 0.1
	}
	c.calculateEnergy()
	withLight := c.Energy()
	if withLight <= base {
		t.Errorf("energy %v after raising light, want > %v", withLight, base)
	}

	// Same for collection, holding light fixed.
	for i := 0; i < c.nPolyps; i++ {
		c.collection[i] += 0.1
	}
	c.calculateEnergy()
	if c.Energy() <= withLight {
		t.Errorf("energy %v after raising collection, want > %v", c.Energy(), withLight)
	}
}
