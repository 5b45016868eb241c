package neural

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9  // Probability of perturbing vs replacing a weight
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Attempts to find an unconnected pair
	initialInnovNum     = 1000 // Starting innovation number for structural mutations
)

// IDGenerator hands out unique genome IDs and innovation numbers.
type IDGenerator struct {
	nextID       int
	nextInnovNum int64
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{nextID: 1, nextInnovNum: initialInnovNum}
}

// NextID returns the next unique genome ID.
func (g *IDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *IDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// NewGenome builds a random genome with numIn sensors and numOut outputs.
// Each input-output pair is connected with probability linkProb; every
// output is guaranteed at least one incoming connection so all decision
// channels are expressible from generation zero.
func NewGenome(id, numIn, numOut int, linkProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := make([]*network.NNode, 0, numIn+numOut)

	inputs := make([]*network.NNode, numIn)
	for i := 0; i < numIn; i++ {
		node := network.NewNNode(i+1, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		inputs[i] = node
		nodes = append(nodes, node)
	}

	outputs := make([]*network.NNode, numOut)
	for i := 0; i < numOut; i++ {
		node := network.NewNNode(numIn+i+1, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		outputs[i] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, numIn*numOut)
	var innov int64 = 1
	connected := make([]int, numOut)

	for _, in := range inputs {
		for j, out := range outputs {
			if rng.Float64() < linkProb {
				gene := genetics.NewGeneWithTrait(nil, rng.Float64()*2-1, in, out, false, innov, 0)
				genes = append(genes, gene)
				connected[j]++
			}
			innov++
		}
	}

	for j, count := range connected {
		if count == 0 {
			in := inputs[rng.Intn(numIn)]
			gene := genetics.NewGeneWithTrait(nil, rng.Float64()*2-1, in, outputs[j], false, innov, 0)
			genes = append(genes, gene)
			innov++
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// MutateWeights perturbs or replaces every connection weight.
func MutateWeights(g *genetics.Genome, power float64, rng *rand.Rand) {
	for _, gene := range g.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// MutateAddLink attempts to connect a currently unconnected node pair.
// Returns false if no free pair was found within the attempt budget.
func MutateAddLink(g *genetics.Genome, ids *IDGenerator, rng *rand.Rand) bool {
	existing := make(map[[2]int]bool, len(g.Genes))
	for _, gene := range g.Genes {
		existing[[2]int{gene.Link.InNode.Id, gene.Link.OutNode.Id}] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		in := g.Nodes[rng.Intn(len(g.Nodes))]
		out := g.Nodes[rng.Intn(len(g.Nodes))]

		// Links never terminate at a sensor and never start at an output,
		// which keeps the phenotype feed-forward.
		if out.NeuronType == network.InputNeuron || in.NeuronType == network.OutputNeuron {
			continue
		}
		if in == out || existing[[2]int{in.Id, out.Id}] {
			continue
		}

		gene := genetics.NewGeneWithTrait(nil, rng.Float64()*2-1, in, out, false, ids.NextInnovation(), 0)
		g.Genes = append(g.Genes, gene)
		return true
	}
	return false
}

// Crossover recombines two parents, aligning genes by innovation number.
// Matching genes are picked randomly; disjoint and excess genes come from
// the fitter parent (both parents at equal fitness).
func Crossover(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	primary, secondary := parent1, parent2
	if fitness2 > fitness1 {
		primary, secondary = parent2, parent1
	}

	primaryGenes := genesByInnovation(primary)
	secondaryGenes := genesByInnovation(secondary)

	innovations := make([]int64, 0, len(primaryGenes)+len(secondaryGenes))
	for innov := range primaryGenes {
		innovations = append(innovations, innov)
	}
	for innov := range secondaryGenes {
		if _, dup := primaryGenes[innov]; !dup {
			innovations = append(innovations, innov)
		}
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	// Child nodes: primary's set plus anything only the secondary carries.
	nodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		nodeMap[node.Id] = copyNode(node)
	}
	for _, node := range secondary.Nodes {
		if _, ok := nodeMap[node.Id]; !ok {
			nodeMap[node.Id] = copyNode(node)
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))
	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var picked *genetics.Gene
		switch {
		case pGene != nil && sGene != nil:
			if rng.Float64() < 0.5 {
				picked = pGene
			} else {
				picked = sGene
			}
		case pGene != nil:
			picked = pGene
		case fitness1 == fitness2 && rng.Float64() < 0.5:
			picked = sGene
		}
		if picked == nil {
			continue
		}

		in := nodeMap[picked.Link.InNode.Id]
		out := nodeMap[picked.Link.OutNode.Id]
		if in == nil || out == nil {
			continue
		}
		child := genetics.NewGeneWithTrait(nil, picked.Link.ConnectionWeight, in, out,
			picked.Link.IsRecurrent, picked.InnovationNum, picked.MutationNum)
		child.IsEnabled = picked.IsEnabled
		childGenes = append(childGenes, child)
	}

	childNodes := make([]*network.NNode, 0, len(nodeMap))
	for _, node := range nodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	return genetics.NewGenome(childID, nil, childNodes, childGenes), nil
}

func genesByInnovation(g *genetics.Genome) map[int64]*genetics.Gene {
	byInnov := make(map[int64]*genetics.Gene, len(g.Genes))
	for _, gene := range g.Genes {
		byInnov[gene.InnovationNum] = gene
	}
	return byInnov
}

func copyNode(node *network.NNode) *network.NNode {
	copied := network.NewNNode(node.Id, node.NeuronType)
	copied.ActivationType = node.ActivationType
	return copied
}

func clampWeight(w float64) float64 {
	if w > maxConnectionWeight {
		return maxConnectionWeight
	}
	if w < -maxConnectionWeight {
		return -maxConnectionWeight
	}
	return w
}
