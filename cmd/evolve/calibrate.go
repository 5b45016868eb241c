package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/coral"
	"github.com/pthm-cable/reef/evo"
	"github.com/pthm-cable/reef/neural"
)

// paramSpec describes one calibrated Gray-Scott coefficient.
type paramSpec struct {
	Name string
	Lo   float64
	Hi   float64
}

// paramVector maps the flat CMA-ES search space onto per-species morphogen
// coefficients. All parameters are normalized to [0, 1] for the optimizer.
type paramVector struct {
	Specs []paramSpec
}

func newParamVector(species int) *paramVector {
	pv := &paramVector{}
	for s := 0; s < species; s++ {
		pv.Specs = append(pv.Specs,
			paramSpec{fmt.Sprintf("feed_%d", s), 0.01, 0.12},
			paramSpec{fmt.Sprintf("kill_%d", s), 0.04, 0.08},
			paramSpec{fmt.Sprintf("diff_u_%d", s), 0.08, 0.30},
			paramSpec{fmt.Sprintf("diff_v_%d", s), 0.03, 0.16},
		)
	}
	return pv
}

func (pv *paramVector) Dim() int { return len(pv.Specs) }

// Normalize maps raw coefficient values onto [0, 1] per spec bounds.
func (pv *paramVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Lo) / (spec.Hi - spec.Lo)
	}
	return out
}

// Denormalize maps optimizer values back to clamped coefficient values.
func (pv *paramVector) Denormalize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, spec := range pv.Specs {
		v := spec.Lo + x[i]*(spec.Hi-spec.Lo)
		if v < spec.Lo {
			v = spec.Lo
		} else if v > spec.Hi {
			v = spec.Hi
		}
		out[i] = v
	}
	return out
}

// DefaultVector returns the raw values of the default traits.
func (pv *paramVector) DefaultVector(species int) []float64 {
	t := coral.DefaultTraits(species)
	out := make([]float64, 0, pv.Dim())
	for _, m := range t.Morphogens {
		out = append(out, m.Feed, m.Kill, m.DiffU, m.DiffV)
	}
	return out
}

// ToTraits rebuilds a Traits value from raw coefficient values.
func (pv *paramVector) ToTraits(raw []float64, species int) coral.Traits {
	t := coral.DefaultTraits(species)
	for s := 0; s < species; s++ {
		t.Morphogens[s].Feed = raw[s*4]
		t.Morphogens[s].Kill = raw[s*4+1]
		t.Morphogens[s].DiffU = raw[s*4+2]
		t.Morphogens[s].DiffV = raw[s*4+3]
	}
	return t
}

// runCalibrate searches the morphogen coefficient space with CMA-ES while
// the decision genome stays fixed, so trait effects are isolated from
// network effects. The optimizer minimizes negated colony energy.
func runCalibrate(cfg *config.Config, outputDir string, rngSeed int64, rng *rand.Rand, maxEvals int) error {
	species := cfg.Morphogen.Count
	if species == 0 {
		return fmt.Errorf("calibrate mode needs morphogen.count > 0")
	}
	pv := newParamVector(species)

	ids := neural.NewIDGenerator()
	genome := neural.NewGenome(ids.NextID(), cfg.Derived.NumInputs, cfg.Derived.NumOutputs, 0.5, rng)

	logFile, err := os.Create(filepath.Join(outputDir, "calibrate_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "energy"}
	for _, spec := range pv.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestEnergy := -1.0
	var bestRaw []float64

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := pv.Denormalize(x)
			ind := &evo.Individual{Genome: genome, Traits: pv.ToTraits(raw, species)}
			energy, _, err := evo.RunGrowth(cfg, ind, rngSeed)
			if err != nil {
				slog.Warn("calibration run failed", "error", err)
				energy = 0
			}

			evalCount++
			if energy > bestEnergy {
				bestEnergy = energy
				bestRaw = raw
			}

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", energy)}
			for _, v := range raw {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			// CMA-ES minimizes.
			return -energy
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Sequential evaluation
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   4 + 3*pv.Dim()/2,
	}

	initX := pv.Normalize(pv.DefaultVector(species))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil && result == nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	if bestRaw != nil {
		traits := pv.ToTraits(bestRaw, species)
		data, err := json.MarshalIndent(traits, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling calibrated traits: %w", err)
		}
		if err := os.WriteFile(filepath.Join(outputDir, "calibrated_traits.json"), data, 0644); err != nil {
			return fmt.Errorf("saving calibrated traits: %w", err)
		}
	}

	slog.Info("calibration complete", "evals", evalCount, "best_energy", bestEnergy)
	return nil
}
