package evo

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pthm-cable/reef/config"
)

// archiveGrowthLimit triggers threshold tightening: more than this many
// archive additions in one generation means the bar is too low.
const archiveGrowthLimit = 4

// Archive is the novelty-search archive of morphology descriptors.
// Sparseness is the mean distance to the k nearest neighbors among the
// archive and the current population; individuals sparser than the
// adaptive threshold enter the archive.
type Archive struct {
	cfg       *config.Config
	threshold float64
	points    []kdtree.Point

	stagnation int
}

// NewArchive creates an empty archive with the configured initial threshold.
func NewArchive(cfg *config.Config) *Archive {
	return &Archive{
		cfg:       cfg,
		threshold: cfg.Evolution.NoveltyThreshold,
	}
}

// SeedPopulation admits every evaluated descriptor unconditionally. The
// archive is seeded from the initial population so first-generation
// sparseness is measured against real morphologies, not an empty set.
func (a *Archive) SeedPopulation(pop *Population) {
	for _, ind := range pop.Individuals {
		if ind.Features != nil {
			a.points = append(a.points, kdtree.Point(ind.Features))
		}
	}
}

// Size returns the number of archived descriptors.
func (a *Archive) Size() int { return len(a.points) }

// Threshold returns the current admission threshold.
func (a *Archive) Threshold() float64 { return a.threshold }

// ScorePopulation assigns Novelty to every evaluated individual and admits
// sufficiently sparse descriptors to the archive. The threshold adapts:
// it relaxes after a stagnation window with no admissions and tightens
// when a single generation admits too many.
func (a *Archive) ScorePopulation(pop *Population) {
	var pts []kdtree.Point
	pts = append(pts, a.points...)
	for _, ind := range pop.Individuals {
		if ind.Features != nil {
			pts = append(pts, kdtree.Point(ind.Features))
		}
	}
	if len(pts) == 0 {
		return
	}
	tree := kdtree.New(kdtree.Points(pts), false)

	added := 0
	for _, ind := range pop.Individuals {
		if ind.Features == nil {
			ind.Novelty = 0
			continue
		}
		ind.Novelty = a.sparseness(tree, kdtree.Point(ind.Features))
		if ind.Novelty > a.threshold {
			a.points = append(a.points, kdtree.Point(ind.Features))
			added++
		}
	}

	if added == 0 {
		a.stagnation++
		// Keeps relaxing every generation once the window is exceeded,
		// until something is admitted again.
		if a.stagnation > a.cfg.Evolution.ArchiveStagnation {
			a.threshold *= 0.9
		}
	} else {
		a.stagnation = 0
		if added > archiveGrowthLimit {
			a.threshold *= 1.1
		}
	}
}

// sparseness is the mean distance from q to its k nearest neighbors in the
// tree. q itself is in the tree, so k+1 neighbors are fetched and the
// zero-distance self match dropped.
func (a *Archive) sparseness(tree *kdtree.Tree, q kdtree.Point) float64 {
	k := a.cfg.Evolution.NoveltyK
	if k < 1 {
		k = 1
	}
	keeper := kdtree.NewNKeeper(k + 1)
	tree.NearestSet(keeper, q)

	var sum float64
	count := 0
	self := true
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil || math.IsInf(cd.Dist, 1) {
			continue
		}
		if self && cd.Dist == 0 {
			// Drop one zero-distance match for q itself.
			self = false
			continue
		}
		sum += math.Sqrt(cd.Dist)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
