// Package neural provides the per-polyp decision networks.
//
// The growth engine only sees the Network interface; concrete networks are
// built from NEAT genomes so the outer evolutionary search can mutate and
// recombine them.
package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// defaultDepth is used when a network's activation depth cannot be computed
// (e.g. for genomes with no hidden nodes).
const defaultDepth = 4

// Network is the decision function evaluated once per polyp per step.
// Implementations must be deterministic for fixed inputs.
type Network interface {
	NumInputs() int
	NumOutputs() int
	// Activate runs the network on inputs and writes into outputs.
	// len(inputs) must equal NumInputs and len(outputs) NumOutputs.
	Activate(inputs, outputs []float64) error
}

// NEATNetwork adapts a goNEAT phenotype to the Network interface.
type NEATNetwork struct {
	net    *network.Network
	depth  int
	numIn  int
	numOut int
}

// NewNEATNetwork builds the phenotype for a genome.
func NewNEATNetwork(g *genetics.Genome) (*NEATNetwork, error) {
	net, err := g.Genesis(g.Id)
	if err != nil {
		return nil, fmt.Errorf("building network from genome %d: %w", g.Id, err)
	}

	numIn, numOut := 0, 0
	for _, node := range g.Nodes {
		switch node.NeuronType {
		case network.InputNeuron:
			numIn++
		case network.OutputNeuron:
			numOut++
		}
	}

	depth, err := net.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = defaultDepth
	}

	return &NEATNetwork{net: net, depth: depth, numIn: numIn, numOut: numOut}, nil
}

// NumInputs returns the sensor count.
func (n *NEATNetwork) NumInputs() int { return n.numIn }

// NumOutputs returns the output count.
func (n *NEATNetwork) NumOutputs() int { return n.numOut }

// Activate evaluates the network. The phenotype is flushed first so each
// polyp's evaluation is independent of the previous one.
func (n *NEATNetwork) Activate(inputs, outputs []float64) error {
	if len(inputs) != n.numIn {
		return fmt.Errorf("network expects %d inputs, got %d", n.numIn, len(inputs))
	}
	if len(outputs) != n.numOut {
		return fmt.Errorf("network expects %d outputs, got %d", n.numOut, len(outputs))
	}

	if _, err := n.net.Flush(); err != nil {
		return fmt.Errorf("flushing network: %w", err)
	}
	if err := n.net.LoadSensors(inputs); err != nil {
		return fmt.Errorf("loading sensors: %w", err)
	}
	if ok, err := n.net.ActivateSteps(n.depth); err != nil {
		return fmt.Errorf("activating network: %w", err)
	} else if !ok {
		return fmt.Errorf("network failed to activate within depth %d", n.depth)
	}

	copy(outputs, n.net.ReadOutputs())
	return nil
}
