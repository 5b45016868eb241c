package evo

import (
	"math/rand"

	"github.com/pthm-cable/reef/coral"
)

// traitMutProb is the per-coefficient mutation probability.
const traitMutProb = 0.25

// traitBound keeps a Gray-Scott coefficient inside its viable range.
// Outside these ranges the reaction either dies out or saturates.
type traitBound struct{ lo, hi, power float64 }

var (
	feedBound  = traitBound{0.01, 0.12, 0.01}
	killBound  = traitBound{0.04, 0.08, 0.005}
	diffUBound = traitBound{0.08, 0.30, 0.02}
	diffVBound = traitBound{0.03, 0.16, 0.01}
)

// MutateTraits perturbs each morphogen coefficient with probability
// traitMutProb, clamped to its viable range.
func MutateTraits(t *coral.Traits, rng *rand.Rand) {
	for i := range t.Morphogens {
		m := &t.Morphogens[i]
		m.Feed = feedBound.mutate(m.Feed, rng)
		m.Kill = killBound.mutate(m.Kill, rng)
		m.DiffU = diffUBound.mutate(m.DiffU, rng)
		m.DiffV = diffVBound.mutate(m.DiffV, rng)
	}
}

func (b traitBound) mutate(v float64, rng *rand.Rand) float64 {
	if rng.Float64() >= traitMutProb {
		return v
	}
	v += (rng.Float64()*2 - 1) * b.power
	if v < b.lo {
		return b.lo
	}
	if v > b.hi {
		return b.hi
	}
	return v
}
