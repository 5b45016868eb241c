package evo

import (
	"fmt"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/coral"
	"github.com/pthm-cable/reef/mesh"
	"github.com/pthm-cable/reef/neural"
)

// seedRadius is the icosahedron seed size used for every evaluation, so
// fitness is comparable across individuals.
const seedRadius = 1.0

// RunGrowth grows one colony from an icosahedron seed and returns its final
// energy and morphology features. The run stops early once the colony
// reaches capacity.
func RunGrowth(cfg *config.Config, ind *Individual, seed int64) (energy float64, features []float64, err error) {
	net, err := neural.NewNEATNetwork(ind.Genome)
	if err != nil {
		return 0, nil, fmt.Errorf("genome %d: %w", ind.Genome.Id, err)
	}

	c, err := coral.New(cfg, mesh.NewIcosahedron(seedRadius), net, ind.Traits, seed)
	if err != nil {
		return 0, nil, fmt.Errorf("genome %d: %w", ind.Genome.Id, err)
	}

	for step := 0; step < cfg.World.MaxSteps; step++ {
		if err := c.Step(); err != nil {
			return 0, nil, fmt.Errorf("genome %d: %w", ind.Genome.Id, err)
		}
		if c.NumPolyps() >= cfg.World.MaxPolyps {
			break
		}
	}

	return c.Energy(), Features(cfg, c), nil
}

// Features builds the morphology descriptor used by novelty search:
// normalized polyp count, colony height and mean horizontal extent.
func Features(cfg *config.Config, c *coral.Coral) []float64 {
	min, max := c.Mesh().BoundingBox()
	extentX := max.X - min.X
	extentZ := max.Z - min.Z
	return []float64{
		float64(c.NumPolyps()) / float64(cfg.World.MaxPolyps),
		(max.Y - min.Y) / (2 * seedRadius),
		(extentX + extentZ) / (4 * seedRadius),
	}
}
