package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/coral"
	"github.com/pthm-cable/reef/mesh"
	"github.com/pthm-cable/reef/neural"
	"github.com/pthm-cable/reef/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	meshPath := flag.String("mesh", "", "Seed mesh OBJ file (empty = built-in icosahedron)")
	genomePath := flag.String("genome", "", "Decision genome JSON file (empty = random genome)")
	steps := flag.Int("steps", 0, "Growth steps (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	exportDir := flag.String("export-dir", "", "Directory for per-step .coral.obj exports")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	maxSteps := cfg.World.MaxSteps
	if *steps > 0 {
		maxSteps = *steps
	}

	seedMesh, err := loadMesh(*meshPath)
	if err != nil {
		slog.Error("failed to load seed mesh", "path", *meshPath, "error", err)
		os.Exit(1)
	}

	net, err := loadNetwork(cfg, *genomePath, rng)
	if err != nil {
		slog.Error("failed to build decision network", "error", err)
		os.Exit(1)
	}

	c, err := coral.New(cfg, seedMesh, net, coral.DefaultTraits(cfg.Morphogen.Count), rngSeed)
	if err != nil {
		slog.Error("failed to build coral", "error", err)
		os.Exit(1)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	if *exportDir != "" {
		if err := os.MkdirAll(*exportDir, 0755); err != nil {
			slog.Error("failed to create export directory", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("starting growth",
		"seed", rngSeed,
		"steps", maxSteps,
		"polyps", c.NumPolyps(),
		"max_polyps", cfg.World.MaxPolyps,
	)

	logEvery := cfg.Telemetry.LogEverySteps
	if logEvery < 1 {
		logEvery = 1
	}

	for step := 0; step < maxSteps; step++ {
		if err := c.Step(); err != nil {
			slog.Error("growth step failed", "step", step, "error", err)
			os.Exit(1)
		}

		stats := telemetry.Collect(c)
		if err := om.WriteGrowth(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
			os.Exit(1)
		}
		if c.Age()%logEvery == 0 {
			stats.LogStats()
		}

		if *exportDir != "" {
			path := filepath.Join(*exportDir, fmt.Sprintf("%06d.coral.obj", c.Age()))
			if err := c.WriteObj(path); err != nil {
				slog.Error("failed to export coral", "path", path, "error", err)
				os.Exit(1)
			}
		}

		if c.NumPolyps() >= cfg.World.MaxPolyps {
			slog.Info("colony reached capacity", "step", c.Age(), "polyps", c.NumPolyps())
			break
		}
	}

	slog.Info("growth finished",
		"steps", c.Age(),
		"polyps", c.NumPolyps(),
		"energy", c.Energy(),
	)
}

func loadMesh(path string) (*mesh.Mesh, error) {
	if path == "" {
		return mesh.NewIcosahedron(1), nil
	}
	return mesh.FromOBJ(path)
}

func loadNetwork(cfg *config.Config, genomePath string, rng *rand.Rand) (*neural.NEATNetwork, error) {
	if genomePath == "" {
		ids := neural.NewIDGenerator()
		g := neural.NewGenome(ids.NextID(), cfg.Derived.NumInputs, cfg.Derived.NumOutputs, 0.5, rng)
		return neural.NewNEATNetwork(g)
	}
	g, err := neural.LoadGenome(genomePath)
	if err != nil {
		return nil, err
	}
	return neural.NewNEATNetwork(g)
}
