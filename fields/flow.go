package fields

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxUpstreamSteps bounds the voxel march per polyp per resolution unit.
const maxUpstreamSteps = 8

// Flow computes per-polyp water flow and particle collection.
//
// Polyp positions are voxelized; the ambient current runs along +X with its
// heading perturbed by coherent noise, and each polyp's flow reading decays
// by a fixed factor per occupied voxel upstream of it. Collection is the
// attenuated flow further reduced by local crowding, so dense tissue in a
// shadowed wake collects almost nothing.
type Flow struct {
	VoxelSize  float64
	Decay      float64
	NoiseScale float64

	noise opensimplex.Noise
}

// NewFlow creates a flow calculator. voxelSize is typically derived from the
// initial mean edge length of the seed mesh.
func NewFlow(voxelSize, decay, noiseScale float64, seed int64) *Flow {
	return &Flow{
		VoxelSize:  voxelSize,
		Decay:      decay,
		NoiseScale: noiseScale,
		noise:      opensimplex.New(seed),
	}
}

type voxel struct{ x, y, z int }

// Calculate fills flowOut[:n] and collectionOut[:n] for pos[:n].
// res scales the upstream march distance; the growth pipeline fixes it at 2.
func (f *Flow) Calculate(pos []r3.Vec, flowOut, collectionOut []float64, n, res int) {
	occupied := make(map[voxel]bool, n)
	for i := 0; i < n; i++ {
		occupied[f.voxelOf(pos[i])] = true
	}

	steps := maxUpstreamSteps * res
	for i := 0; i < n; i++ {
		dir := f.currentAt(pos[i])
		home := f.voxelOf(pos[i])

		// March upstream counting occupied voxels that shadow this polyp.
		blockers := 0
		p := pos[i]
		for s := 0; s < steps; s++ {
			p = r3.Sub(p, r3.Scale(f.VoxelSize, dir))
			v := f.voxelOf(p)
			if v != home && occupied[v] {
				blockers++
			}
		}

		flow := math.Pow(f.Decay, float64(blockers))
		flowOut[i] = flow

		crowding := f.occupiedNeighbors(occupied, home)
		collectionOut[i] = flow / (1 + float64(crowding))
	}
}

// currentAt returns the unit current direction at p: +X rotated in the
// horizontal plane by a noise-driven heading.
func (f *Flow) currentAt(p r3.Vec) r3.Vec {
	theta := (math.Pi / 4) * f.noise.Eval2(p.Y*f.NoiseScale, p.Z*f.NoiseScale)
	return r3.Vec{X: math.Cos(theta), Y: 0, Z: math.Sin(theta)}
}

// occupiedNeighbors counts occupied voxels among the six face-adjacent cells.
func (f *Flow) occupiedNeighbors(occupied map[voxel]bool, v voxel) int {
	count := 0
	for _, d := range [6]voxel{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	} {
		if occupied[voxel{v.x + d.x, v.y + d.y, v.z + d.z}] {
			count++
		}
	}
	return count
}

func (f *Flow) voxelOf(p r3.Vec) voxel {
	return voxel{
		x: floorDiv(p.X, f.VoxelSize),
		y: floorDiv(p.Y, f.VoxelSize),
		z: floorDiv(p.Z, f.VoxelSize),
	}
}
