// Package coral implements the colony growth engine: polyps bound to mesh
// vertices, per-step decision evaluation, growth-driven mesh subdivision and
// energy accounting.
package coral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/fields"
	"github.com/pthm-cable/reef/mesh"
	"github.com/pthm-cable/reef/neural"
)

// flowResolution scales the upstream march of the flow field. The attribute
// pipeline always voxelizes at resolution 2.
const flowResolution = 2

// Traits are the evolved growth parameters that live outside the decision
// network. They travel with a genome through the outer search.
type Traits struct {
	Morphogens []fields.SpeciesParams `json:"morphogens" yaml:"morphogens"`
}

// DefaultTraits returns mitosis-regime Gray-Scott coefficients for count
// species, a stable starting point for evolution.
func DefaultTraits(count int) Traits {
	t := Traits{Morphogens: make([]fields.SpeciesParams, count)}
	for i := range t.Morphogens {
		t.Morphogens[i] = fields.SpeciesParams{
			Feed:  0.0367,
			Kill:  0.0649,
			DiffU: 0.16,
			DiffV: 0.08,
		}
	}
	return t
}

// Coral is one growing colony. Per-polyp state lives in dense parallel
// arrays co-indexed with mesh vertex IDs: the polyp in slot i is bound to
// the vertex with ID i, for the lifetime of the colony.
type Coral struct {
	cfg    *config.Config
	msh    *mesh.Mesh
	net    neural.Network
	traits Traits

	// Derived from the seed mesh at construction.
	polypSize   float64
	maxEdgeLen  float64
	maxFaceArea float64

	light      *fields.Light
	flow       *fields.Flow
	morphogens *fields.Morphogens
	grid       *collisionGrid

	nPolyps int
	age     int

	position     []r3.Vec
	nextPosition []r3.Vec
	normal       []r3.Vec
	lightVals    []float64
	flowVals     []float64
	gravityVals  []float64
	collection   []float64
	memory       []uint32
	collided     []bool

	inputs  []float64
	outputs []float64

	lightTotal      float64
	collectionTotal float64
	energy          float64

	fatal error
}

// New builds a colony on the seed mesh and runs the initial attribute pass.
// The decision network shape must match the configured input and output
// layout exactly.
func New(cfg *config.Config, msh *mesh.Mesh, net neural.Network, traits Traits, seed int64) (*Coral, error) {
	if net.NumInputs() != cfg.Derived.NumInputs {
		return nil, fmt.Errorf("coral: network has %d inputs, config requires %d", net.NumInputs(), cfg.Derived.NumInputs)
	}
	if net.NumOutputs() != cfg.Derived.NumOutputs {
		return nil, fmt.Errorf("coral: network has %d outputs, config requires %d", net.NumOutputs(), cfg.Derived.NumOutputs)
	}
	if len(traits.Morphogens) != cfg.Morphogen.Count {
		return nil, fmt.Errorf("coral: traits carry %d morphogen species, config requires %d", len(traits.Morphogens), cfg.Morphogen.Count)
	}
	capacity := cfg.World.MaxPolyps
	if len(msh.Verts) > capacity {
		return nil, fmt.Errorf("coral: seed mesh has %d vertices, capacity is %d", len(msh.Verts), capacity)
	}
	if len(msh.Verts) == 0 || len(msh.Faces) == 0 {
		return nil, fmt.Errorf("coral: seed mesh is empty")
	}

	meanEdge := stat.Mean(edgeLengths(msh), nil)
	meanArea := stat.Mean(faceAreas(msh), nil)

	c := &Coral{
		cfg:    cfg,
		msh:    msh,
		net:    net,
		traits: traits,

		polypSize:   meanEdge * cfg.Polyp.SizeRatio,
		maxEdgeLen:  meanEdge * cfg.World.MaxFaceGrowth,
		maxFaceArea: meanArea * cfg.World.MaxFaceGrowth,

		light:      fields.NewLight(meanEdge),
		flow:       fields.NewFlow(meanEdge*cfg.Flow.VoxelRatio, cfg.Flow.Decay, cfg.Flow.NoiseScale, seed),
		morphogens: fields.NewMorphogens(traits.Morphogens, capacity),

		position:     make([]r3.Vec, capacity),
		nextPosition: make([]r3.Vec, capacity),
		normal:       make([]r3.Vec, capacity),
		lightVals:    make([]float64, capacity),
		flowVals:     make([]float64, capacity),
		gravityVals:  make([]float64, capacity),
		collection:   make([]float64, capacity),
		memory:       make([]uint32, capacity),
		collided:     make([]bool, capacity),

		inputs:  make([]float64, cfg.Derived.NumInputs),
		outputs: make([]float64, cfg.Derived.NumOutputs),
	}
	c.grid = newCollisionGrid(c.polypSize)

	for _, v := range msh.Verts {
		c.createPolyp(v)
	}
	c.updateAttributes()

	return c, nil
}

// Step advances the colony one growth step: decision evaluation and
// movement, division of overgrown faces, then the full attribute pass.
// A fatal error (non-finite positions) is latched; every later call returns it.
func (c *Coral) Step() error {
	if c.fatal != nil {
		return c.fatal
	}

	if err := c.growPolyps(); err != nil {
		c.fatal = fmt.Errorf("step %d: %w", c.age, err)
		return c.fatal
	}
	if err := c.checkPositions(); err != nil {
		c.fatal = fmt.Errorf("step %d: %w", c.age, err)
		return c.fatal
	}
	c.polypDivision()
	c.updateAttributes()
	c.age++
	return nil
}

// checkPositions latches corrupted geometry before it propagates through
// the mesh and the fields.
func (c *Coral) checkPositions() error {
	for i := 0; i < c.nPolyps; i++ {
		p := c.position[i]
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(p.Z) {
			return fmt.Errorf("polyp %d position is not finite", i)
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// NumPolyps returns the number of bound polyps.
func (c *Coral) NumPolyps() int { return c.nPolyps }

// Age returns the number of completed growth steps.
func (c *Coral) Age() int { return c.age }

// Energy returns the colony energy from the last attribute pass.
func (c *Coral) Energy() float64 { return c.energy }

// LightTotal returns the area-weighted light integral.
func (c *Coral) LightTotal() float64 { return c.lightTotal }

// CollectionTotal returns the area-weighted collection integral.
func (c *Coral) CollectionTotal() float64 { return c.collectionTotal }

// PolypSize returns the collision sphere diameter.
func (c *Coral) PolypSize() float64 { return c.polypSize }

// Mesh returns the underlying mesh.
func (c *Coral) Mesh() *mesh.Mesh { return c.msh }

// LightValues returns the per-polyp light readings after remap.
// The returned slice is owned by the colony.
func (c *Coral) LightValues() []float64 { return c.lightVals[:c.nPolyps] }

// CollectionValues returns the per-polyp collection readings.
func (c *Coral) CollectionValues() []float64 { return c.collection[:c.nPolyps] }

// GravityValues returns the per-polyp gravity readings.
func (c *Coral) GravityValues() []float64 { return c.gravityVals[:c.nPolyps] }

// FlowValues returns the per-polyp flow readings.
func (c *Coral) FlowValues() []float64 { return c.flowVals[:c.nPolyps] }

// edgeLengths gathers every unique edge length of m.
func edgeLengths(m *mesh.Mesh) []float64 {
	var lens []float64
	for _, v := range m.Verts {
		for _, n := range v.Neighbors() {
			if n.ID > v.ID {
				lens = append(lens, r3.Norm(r3.Sub(n.P, v.P)))
			}
		}
	}
	return lens
}

func faceAreas(m *mesh.Mesh) []float64 {
	areas := make([]float64, len(m.Faces))
	for i, f := range m.Faces {
		areas[i] = f.Area()
	}
	return areas
}
