// Package evo implements the outer evolutionary search over decision
// genomes and growth traits. Fitness is the energy of the grown colony;
// novelty mode scores morphological sparseness instead.
package evo

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/coral"
	"github.com/pthm-cable/reef/fields"
	"github.com/pthm-cable/reef/neural"
)

// initialLinkProb is the connection density of generation-zero genomes.
const initialLinkProb = 0.5

// addLinkProb is the per-child probability of a structural mutation.
const addLinkProb = 0.1

// Individual pairs a decision genome with the growth traits it evolved
// alongside.
type Individual struct {
	Genome  *genetics.Genome
	Traits  coral.Traits
	Fitness float64
	Novelty float64

	// Features is the morphology descriptor from the last evaluation,
	// used by novelty search.
	Features []float64
}

// Population is one generation of individuals plus the machinery to breed
// the next.
type Population struct {
	Individuals []*Individual

	cfg *config.Config
	ids *neural.IDGenerator
	rng *rand.Rand

	generation int
}

// NewPopulation seeds a random population.
func NewPopulation(cfg *config.Config, ids *neural.IDGenerator, rng *rand.Rand) *Population {
	p := &Population{
		cfg: cfg,
		ids: ids,
		rng: rng,
	}
	for i := 0; i < cfg.Evolution.PopulationSize; i++ {
		ind := &Individual{
			Genome: neural.NewGenome(ids.NextID(), cfg.Derived.NumInputs, cfg.Derived.NumOutputs, initialLinkProb, rng),
			Traits: coral.DefaultTraits(cfg.Morphogen.Count),
		}
		MutateTraits(&ind.Traits, rng)
		p.Individuals = append(p.Individuals, ind)
	}
	return p
}

// Generation returns the number of completed epochs.
func (p *Population) Generation() int { return p.generation }

// Evaluate scores every individual. A fatal simulation error zeroes the
// individual's fitness instead of aborting the run.
func (p *Population) Evaluate(eval func(*Individual) (float64, []float64, error)) {
	for i, ind := range p.Individuals {
		fitness, features, err := eval(ind)
		if err != nil {
			slog.Warn("evaluation failed", "individual", i, "genome", ind.Genome.Id, "err", err)
			ind.Fitness = 0
			ind.Features = nil
			continue
		}
		ind.Fitness = fitness
		ind.Features = features
	}
}

// Best returns the highest-scoring individual by the given score accessor.
func (p *Population) Best(score func(*Individual) float64) *Individual {
	best := p.Individuals[0]
	for _, ind := range p.Individuals[1:] {
		if score(ind) > score(best) {
			best = ind
		}
	}
	return best
}

// Epoch breeds the next generation from the current scores: elites survive
// unchanged, the rest are bred by tournament selection with crossover and
// mutation. score selects between fitness and novelty ranking.
func (p *Population) Epoch(score func(*Individual) float64) error {
	ec := p.cfg.Evolution

	ranked := make([]*Individual, len(p.Individuals))
	copy(ranked, p.Individuals)
	sort.Slice(ranked, func(i, j int) bool { return score(ranked[i]) > score(ranked[j]) })

	next := make([]*Individual, 0, len(ranked))
	for i := 0; i < ec.Elites && i < len(ranked); i++ {
		next = append(next, ranked[i])
	}

	for len(next) < ec.PopulationSize {
		child, err := p.breed(score)
		if err != nil {
			return fmt.Errorf("breeding generation %d: %w", p.generation+1, err)
		}
		next = append(next, child)
	}

	p.Individuals = next
	p.generation++
	return nil
}

// breed produces one child from tournament-selected parents.
func (p *Population) breed(score func(*Individual) float64) (*Individual, error) {
	ec := p.cfg.Evolution

	mother := p.tournament(score)
	child := &Individual{Traits: copyTraits(mother.Traits)}

	if p.rng.Float64() < ec.CrossoverProb {
		father := p.tournament(score)
		genome, err := neural.Crossover(mother.Genome, father.Genome,
			score(mother), score(father), p.ids.NextID(), p.rng)
		if err != nil {
			return nil, err
		}
		child.Genome = genome
	} else {
		clone, err := neural.Crossover(mother.Genome, mother.Genome,
			score(mother), score(mother), p.ids.NextID(), p.rng)
		if err != nil {
			return nil, err
		}
		child.Genome = clone
	}

	neural.MutateWeights(child.Genome, ec.WeightMutPower, p.rng)
	if p.rng.Float64() < addLinkProb {
		neural.MutateAddLink(child.Genome, p.ids, p.rng)
	}
	MutateTraits(&child.Traits, p.rng)

	return child, nil
}

// tournament returns the best of TournamentSize random individuals.
func (p *Population) tournament(score func(*Individual) float64) *Individual {
	size := p.cfg.Evolution.TournamentSize
	if size < 1 {
		size = 1
	}
	best := p.Individuals[p.rng.Intn(len(p.Individuals))]
	for i := 1; i < size; i++ {
		c := p.Individuals[p.rng.Intn(len(p.Individuals))]
		if score(c) > score(best) {
			best = c
		}
	}
	return best
}

// ByFitness is the score accessor for plain fitness search.
func ByFitness(ind *Individual) float64 { return ind.Fitness }

// ByNovelty is the score accessor for novelty search.
func ByNovelty(ind *Individual) float64 { return ind.Novelty }

func copyTraits(t coral.Traits) coral.Traits {
	out := coral.Traits{Morphogens: make([]fields.SpeciesParams, len(t.Morphogens))}
	copy(out.Morphogens, t.Morphogens)
	return out
}
