package evo

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/coral"
	"github.com/pthm-cable/reef/neural"
)

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

func TestNewPopulation(t *testing.T) {
	cfg := testConfig(t, "evolution:\n  population_size: 8\n")
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(1)))

	if len(pop.Individuals) != 8 {
		t.Fatalf("population = %d, want 8", len(pop.Individuals))
	}
	seen := make(map[int]bool)
	for _, ind := range pop.Individuals {
		if seen[ind.Genome.Id] {
			t.Errorf("duplicate genome ID %d", ind.Genome.Id)
		}
		seen[ind.Genome.Id] = true
		if len(ind.Traits.Morphogens) != cfg.Morphogen.Count {
			t.Errorf("genome %d has %d morphogen traits, want %d",
				ind.Genome.Id, len(ind.Traits.Morphogens), cfg.Morphogen.Count)
		}
	}
}

func TestEvaluateZeroesFatalRuns(t *testing.T) {
	cfg := testConfig(t, "evolution:\n  population_size: 4\n")
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(2)))

	pop.Evaluate(func(ind *Individual) (float64, []float64, error) {
		if ind == pop.Individuals[2] {
			return 99, []float64{1}, fmt.Errorf("simulated fatal error")
		}
		return 1.5, []float64{0.1, 0.2, 0.3}, nil
	})

	for i, ind := range pop.Individuals {
		if i == 2 {
			if ind.Fitness != 0 || ind.Features != nil {
				t.Errorf("failed individual fitness = %v features = %v, want zeroed", ind.Fitness, ind.Features)
			}
			continue
		}
		if ind.Fitness != 1.5 {
			t.Errorf("individual %d fitness = %v, want 1.5", i, ind.Fitness)
		}
	}
}

func TestEpochKeepsElitesAndSize(t *testing.T) {
	cfg := testConfig(t, "evolution:\n  population_size: 10\n  elites: 2\n  tournament_size: 3\n  crossover_prob: 0.5\n")
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(3)))

	for i, ind := range pop.Individuals {
		ind.Fitness = float64(i)
	}
	best := pop.Best(ByFitness)

	if err := pop.Epoch(ByFitness); err != nil {
		t.Fatal(err)
	}

	if len(pop.Individuals) != 10 {
		t.Fatalf("population = %d after epoch, want 10", len(pop.Individuals))
	}
	if pop.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", pop.Generation())
	}
	if pop.Individuals[0] != best {
		t.Error("best individual not retained as elite")
	}
}

func TestMutateTraitsStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	traits := coral.DefaultTraits(2)

	for i := 0; i < 1000; i++ {
		MutateTraits(&traits, rng)
	}
	for s, m := range traits.Morphogens {
		if m.Feed < feedBound.lo || m.Feed > feedBound.hi {
			t.Errorf("species %d feed = %v outside [%v, %v]", s, m.Feed, feedBound.lo, feedBound.hi)
		}
		if m.Kill < killBound.lo || m.Kill > killBound.hi {
			t.Errorf("species %d kill = %v outside [%v, %v]", s, m.Kill, killBound.lo, killBound.hi)
		}
		if m.DiffU < diffUBound.lo || m.DiffU > diffUBound.hi {
			t.Errorf("species %d diffU = %v outside bounds", s, m.DiffU)
		}
		if m.DiffV < diffVBound.lo || m.DiffV > diffVBound.hi {
			t.Errorf("species %d diffV = %v outside bounds", s, m.DiffV)
		}
	}
}

func TestArchiveScoresSparseness(t *testing.T) {
	cfg := testConfig(t, `evolution:
  population_size: 4
  novelty_threshold: 0.5
  novelty_k: 2
  archive_stagnation: 3
`)
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(5)))

	// Three clustered individuals and one far outlier.
	pop.Individuals[0].Features = []float64{0, 0, 0}
	pop.Individuals[1].Features = []float64{0.01, 0, 0}
	pop.Individuals[2].Features = []float64{0, 0.01, 0}
	pop.Individuals[3].Features = []float64{5, 5, 5}

	archive := NewArchive(cfg)
	archive.ScorePopulation(pop)

	outlier := pop.Individuals[3]
	for i, ind := range pop.Individuals[:3] {
		if outlier.Novelty <= ind.Novelty {
			t.Errorf("outlier novelty %v not above clustered individual %d (%v)", outlier.Novelty, i, ind.Novelty)
		}
	}
	// Only the outlier clears the admission threshold.
	if archive.Size() != 1 {
		t.Errorf("archive size = %d, want 1", archive.Size())
	}
}

func TestArchiveThresholdAdapts(t *testing.T) {
	cfg := testConfig(t, `evolution:
  population_size: 4
  novelty_threshold: 100
  novelty_k: 2
  archive_stagnation: 2
`)
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(6)))
	for i, ind := range pop.Individuals {
		ind.Features = []float64{float64(i), 0, 0}
	}

	archive := NewArchive(cfg)
	start := archive.Threshold()

	// Nothing clears a threshold of 100. The threshold holds through the
	// stagnation window and relaxes only once the window is exceeded.
	archive.ScorePopulation(pop)
	archive.ScorePopulation(pop)
	if got := archive.Threshold(); got != start {
		t.Errorf("threshold = %v inside stagnation window, want %v", got, start)
	}
	archive.ScorePopulation(pop)
	if got := archive.Threshold(); math.Abs(got-start*0.9) > 1e-9 {
		t.Errorf("threshold = %v after stagnation, want %v", got, start*0.9)
	}
	// With nothing admitted it keeps relaxing every generation.
	archive.ScorePopulation(pop)
	if got := archive.Threshold(); math.Abs(got-start*0.81) > 1e-9 {
		t.Errorf("threshold = %v after continued stagnation, want %v", got, start*0.81)
	}
}

func TestArchiveSeedPopulation(t *testing.T) {
	cfg := testConfig(t, `evolution:
  population_size: 4
  novelty_threshold: 0.5
  novelty_k: 2
`)
	pop := NewPopulation(cfg, neural.NewIDGenerator(), rand.New(rand.NewSource(8)))
	for i, ind := range pop.Individuals {
		ind.Features = []float64{float64(i), 0, 0}
	}
	pop.Individuals[3].Features = nil

	archive := NewArchive(cfg)
	archive.SeedPopulation(pop)

	// Every evaluated descriptor enters unconditionally; unevaluated
	// individuals are skipped.
	if archive.Size() != 3 {
		t.Errorf("archive size = %d after seeding, want 3", archive.Size())
	}
}

func TestFeaturesNormalization(t *testing.T) {
	cfg := testConfig(t, `world:
  max_polyps: 200
  max_steps: 5
morphogen:
  steps: 10
`)
	ind := &Individual{
		Genome: neural.NewGenome(1, cfg.Derived.NumInputs, cfg.Derived.NumOutputs, 0.5, rand.New(rand.NewSource(7))),
		Traits: coral.DefaultTraits(cfg.Morphogen.Count),
	}

	energy, features, err := RunGrowth(cfg, ind, 42)
	if err != nil {
		t.Fatal(err)
	}
	if energy < 0 {
		t.Errorf("energy = %v, want non-negative", energy)
	}
	if len(features) != 3 {
		t.Fatalf("features = %v, want 3 dimensions", features)
	}
	if features[0] <= 0 || features[0] > 1 {
		t.Errorf("population feature = %v, want in (0, 1]", features[0])
	}
	for i, f := range features {
		if math.IsNaN(f) {
			t.Errorf("feature %d is NaN", i)
		}
	}
}
