// Package main runs the outer evolutionary search: populations of decision
// genomes and growth traits scored by grown-colony energy or by morphological
// novelty, plus a CMA-ES calibration mode for the growth traits alone.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/evo"
	"github.com/pthm-cable/reef/neural"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "fitness", "Search mode: fitness, novelty or calibrate")
	outputDir := flag.String("output", "", "Output directory for logs and best individuals")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxEvals := flag.Int("max-evals", 200, "Maximum evaluations (calibrate mode)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	var err error
	switch *mode {
	case "fitness", "novelty":
		err = runSearch(cfg, *mode, *outputDir, rngSeed, rng)
	case "calibrate":
		err = runCalibrate(cfg, *outputDir, rngSeed, rng, *maxEvals)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		slog.Error("search failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

// runSearch runs population search in fitness or novelty mode.
func runSearch(cfg *config.Config, mode, outputDir string, rngSeed int64, rng *rand.Rand) error {
	ids := neural.NewIDGenerator()
	pop := evo.NewPopulation(cfg, ids, rng)

	score := evo.ByFitness
	var archive *evo.Archive
	if mode == "novelty" {
		score = evo.ByNovelty
		archive = evo.NewArchive(cfg)

		// Seed the archive with the initial population's morphologies so
		// generation-zero sparseness has real reference points.
		pop.Evaluate(func(ind *evo.Individual) (float64, []float64, error) {
			return evo.RunGrowth(cfg, ind, rngSeed)
		})
		archive.SeedPopulation(pop)
	}

	logFile, err := os.Create(filepath.Join(outputDir, "evolve_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()
	logWriter.Write([]string{"generation", "best_fitness", "mean_fitness", "best_novelty", "archive_size", "archive_threshold"})

	bestFitness := -1.0
	startTime := time.Now()

	for gen := 0; gen < cfg.Evolution.Generations; gen++ {
		// Per-generation evaluation seed keeps comparisons within a
		// generation fair while varying the environment across generations.
		evalSeed := rngSeed + int64(gen)
		pop.Evaluate(func(ind *evo.Individual) (float64, []float64, error) {
			return evo.RunGrowth(cfg, ind, evalSeed)
		})
		if archive != nil {
			archive.ScorePopulation(pop)
		}

		bestByFitness := pop.Best(evo.ByFitness)
		var meanFitness float64
		for _, ind := range pop.Individuals {
			meanFitness += ind.Fitness
		}
		meanFitness /= float64(len(pop.Individuals))

		row := []string{
			strconv.Itoa(gen),
			fmt.Sprintf("%.6f", bestByFitness.Fitness),
			fmt.Sprintf("%.6f", meanFitness),
		}
		archiveSize, archiveThreshold := 0, 0.0
		bestNovelty := 0.0
		if archive != nil {
			bestNovelty = pop.Best(evo.ByNovelty).Novelty
			archiveSize = archive.Size()
			archiveThreshold = archive.Threshold()
		}
		row = append(row,
			fmt.Sprintf("%.6f", bestNovelty),
			strconv.Itoa(archiveSize),
			fmt.Sprintf("%.6f", archiveThreshold),
		)
		logWriter.Write(row)
		logWriter.Flush()

		slog.Info("generation complete",
			"generation", gen,
			"best_fitness", bestByFitness.Fitness,
			"mean_fitness", meanFitness,
			"elapsed", time.Since(startTime).Round(time.Second).String(),
		)

		if bestByFitness.Fitness > bestFitness {
			bestFitness = bestByFitness.Fitness
			if err := saveBest(outputDir, bestByFitness); err != nil {
				return err
			}
			slog.Info("new best individual",
				"generation", gen,
				"fitness", bestFitness,
				"genome", bestByFitness.Genome.Id,
			)
		}

		if gen < cfg.Evolution.Generations-1 {
			if err := pop.Epoch(score); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveBest writes the genome and traits of the best individual so far.
func saveBest(outputDir string, ind *evo.Individual) error {
	if err := neural.SaveGenome(ind.Genome, filepath.Join(outputDir, "best_genome.json")); err != nil {
		return fmt.Errorf("saving best genome: %w", err)
	}
	data, err := json.MarshalIndent(ind.Traits, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling best traits: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "best_traits.json"), data, 0644); err != nil {
		return fmt.Errorf("saving best traits: %w", err)
	}
	return nil
}
