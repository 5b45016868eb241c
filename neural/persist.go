package neural

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// genomeJSON is the on-disk genome representation.
type genomeJSON struct {
	ID    int        `json:"id"`
	Nodes []nodeJSON `json:"nodes"`
	Genes []geneJSON `json:"genes"`
}

type nodeJSON struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

type geneJSON struct {
	In      int     `json:"in"`
	Out     int     `json:"out"`
	Weight  float64 `json:"weight"`
	Innov   int64   `json:"innov"`
	Enabled bool    `json:"enabled"`
}

// SaveGenome writes g to path as JSON.
func SaveGenome(g *genetics.Genome, path string) error {
	doc := genomeJSON{ID: g.Id}

	for _, node := range g.Nodes {
		t, err := nodeTypeName(node.NeuronType)
		if err != nil {
			return fmt.Errorf("genome %d node %d: %w", g.Id, node.Id, err)
		}
		doc.Nodes = append(doc.Nodes, nodeJSON{ID: node.Id, Type: t})
	}
	for _, gene := range g.Genes {
		doc.Genes = append(doc.Genes, geneJSON{
			In:      gene.Link.InNode.Id,
			Out:     gene.Link.OutNode.Id,
			Weight:  gene.Link.ConnectionWeight,
			Innov:   gene.InnovationNum,
			Enabled: gene.IsEnabled,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling genome %d: %w", g.Id, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genome file: %w", err)
	}
	return nil
}

// LoadGenome reads a JSON genome from path.
func LoadGenome(path string) (*genetics.Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genome file: %w", err)
	}

	var doc genomeJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing genome file: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("genome file %s has no nodes", path)
	}

	byID := make(map[int]*network.NNode, len(doc.Nodes))
	nodes := make([]*network.NNode, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		t, activation, err := nodeTypeFromName(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		node := network.NewNNode(n.ID, t)
		node.ActivationType = activation
		byID[n.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(doc.Genes))
	for _, g := range doc.Genes {
		in, ok := byID[g.In]
		if !ok {
			return nil, fmt.Errorf("gene references unknown node %d", g.In)
		}
		out, ok := byID[g.Out]
		if !ok {
			return nil, fmt.Errorf("gene references unknown node %d", g.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, g.Weight, in, out, false, g.Innov, 0)
		gene.IsEnabled = g.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(doc.ID, nil, nodes, genes), nil
}

func nodeTypeName(t network.NodeNeuronType) (string, error) {
	switch t {
	case network.InputNeuron:
		return "input", nil
	case network.HiddenNeuron:
		return "hidden", nil
	case network.OutputNeuron:
		return "output", nil
	case network.BiasNeuron:
		return "bias", nil
	}
	return "", fmt.Errorf("unknown neuron type %v", t)
}

func nodeTypeFromName(name string) (network.NodeNeuronType, neatmath.NodeActivationType, error) {
	switch name {
	case "input":
		return network.InputNeuron, neatmath.LinearActivation, nil
	case "hidden":
		return network.HiddenNeuron, neatmath.SigmoidSteepenedActivation, nil
	case "output":
		return network.OutputNeuron, neatmath.SigmoidSteepenedActivation, nil
	case "bias":
		return network.BiasNeuron, neatmath.LinearActivation, nil
	}
	return 0, 0, fmt.Errorf("unknown neuron type %q", name)
}
