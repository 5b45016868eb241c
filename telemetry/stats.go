// Package telemetry aggregates per-step colony statistics and writes them
// as CSV experiment output.
package telemetry

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/reef/coral"
)

// GrowthStats holds one growth step's aggregated colony statistics.
type GrowthStats struct {
	Step    int `csv:"step"`
	Polyps  int `csv:"polyps"`
	Faces   int `csv:"faces"`

	Energy          float64 `csv:"energy"`
	LightTotal      float64 `csv:"light_total"`
	CollectionTotal float64 `csv:"collection_total"`

	// Attribute distributions (sampled after the step's attribute pass)
	LightMean float64 `csv:"light_mean"`
	LightP10  float64 `csv:"light_p10"`
	LightP50  float64 `csv:"light_p50"`
	LightP90  float64 `csv:"light_p90"`

	CollectionMean float64 `csv:"collection_mean"`
	CollectionP10  float64 `csv:"collection_p10"`
	CollectionP50  float64 `csv:"collection_p50"`
	CollectionP90  float64 `csv:"collection_p90"`

	GravityMean float64 `csv:"gravity_mean"`
}

// Collect samples the colony after a completed step.
func Collect(c *coral.Coral) GrowthStats {
	s := GrowthStats{
		Step:            c.Age(),
		Polyps:          c.NumPolyps(),
		Faces:           len(c.Mesh().Faces),
		Energy:          c.Energy(),
		LightTotal:      c.LightTotal(),
		CollectionTotal: c.CollectionTotal(),
	}

	s.LightMean, s.LightP10, s.LightP50, s.LightP90 = ComputeFieldStats(c.LightValues())
	s.CollectionMean, s.CollectionP10, s.CollectionP50, s.CollectionP90 = ComputeFieldStats(c.CollectionValues())
	s.GravityMean, _, _, _ = ComputeFieldStats(c.GravityValues())

	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFieldStats calculates mean and percentiles from attribute values.
func ComputeFieldStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s GrowthStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Int("polyps", s.Polyps),
		slog.Int("faces", s.Faces),
		slog.Float64("energy", s.Energy),
		slog.Float64("light_total", s.LightTotal),
		slog.Float64("collection_total", s.CollectionTotal),
		slog.Float64("light_mean", s.LightMean),
		slog.Float64("light_p10", s.LightP10),
		slog.Float64("light_p50", s.LightP50),
		slog.Float64("light_p90", s.LightP90),
		slog.Float64("collection_mean", s.CollectionMean),
		slog.Float64("collection_p10", s.CollectionP10),
		slog.Float64("collection_p50", s.CollectionP50),
		slog.Float64("collection_p90", s.CollectionP90),
		slog.Float64("gravity_mean", s.GravityMean),
	)
}

// LogStats logs the growth stats using slog.
func (s GrowthStats) LogStats() {
	slog.Info("stats",
		"step", s.Step,
		"polyps", s.Polyps,
		"faces", s.Faces,
		"energy", s.Energy,
		"light_total", s.LightTotal,
		"collection_total", s.CollectionTotal,
		"light_mean", s.LightMean,
		"collection_mean", s.CollectionMean,
		"gravity_mean", s.GravityMean,
	)
}
