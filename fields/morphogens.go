package fields

import (
	"github.com/pthm-cable/reef/mesh"
)

// SpeciesParams holds the Gray-Scott coefficients for one morphogen species.
// These are evolved traits, not global configuration.
type SpeciesParams struct {
	Feed  float64 `json:"feed" yaml:"feed"`
	Kill  float64 `json:"kill" yaml:"kill"`
	DiffU float64 `json:"diff_u" yaml:"diff_u"`
	DiffV float64 `json:"diff_v" yaml:"diff_v"`
}

// Morphogens advances Gray-Scott reaction-diffusion over the mesh one-ring
// graph. State is double-buffered per species and sized to the polyp
// capacity up front, so mid-run growth never reallocates.
//
// U is the substrate concentration read by the decision network and export;
// V is the activator, injected at polyps the network marks as sources.
type Morphogens struct {
	U [][]float64
	V [][]float64

	params     []SpeciesParams
	bufU, bufV []float64
}

// NewMorphogens creates a solver for len(params) species with the given
// polyp capacity.
func NewMorphogens(params []SpeciesParams, capacity int) *Morphogens {
	m := &Morphogens{
		U:      make([][]float64, len(params)),
		V:      make([][]float64, len(params)),
		params: params,
		bufU:   make([]float64, capacity),
		bufV:   make([]float64, capacity),
	}
	for s := range params {
		m.U[s] = make([]float64, capacity)
		m.V[s] = make([]float64, capacity)
	}
	return m
}

// Count returns the number of morphogen species.
func (m *Morphogens) Count() int {
	return len(m.params)
}

// InitSlot resets concentrations for a newly created polyp slot.
func (m *Morphogens) InitSlot(idx int) {
	for s := range m.params {
		m.U[s][idx] = 1
		m.V[s][idx] = 0
	}
}

// Seed marks polyp idx as an activator source for species s.
func (m *Morphogens) Seed(s, idx int) {
	m.V[s][idx] = 1
}

// Update advances all species by the given number of solver sub-steps over
// the first n vertices of msh. Concentrations outside [0, 1] are clamped.
func (m *Morphogens) Update(msh *mesh.Mesh, n, steps int) {
	for s := range m.params {
		p := m.params[s]
		u := m.U[s]
		v := m.V[s]

		for step := 0; step < steps; step++ {
			for i := 0; i < n; i++ {
				lapU, lapV := graphLaplacian(msh.Verts[i], u, v, n)
				uv2 := u[i] * v[i] * v[i]
				m.bufU[i] = clamp01(u[i] + p.DiffU*lapU - uv2 + p.Feed*(1-u[i]))
				m.bufV[i] = clamp01(v[i] + p.DiffV*lapV + uv2 - (p.Feed+p.Kill)*v[i])
			}
			copy(u[:n], m.bufU[:n])
			copy(v[:n], m.bufV[:n])
		}
	}
}

// graphLaplacian returns the uniform one-ring laplacian of u and v at vert,
// considering only neighbors bound to a polyp slot (ID < n).
func graphLaplacian(vert *mesh.Vert, u, v []float64, n int) (lapU, lapV float64) {
	var sumU, sumV float64
	count := 0
	for _, nb := range vert.Neighbors() {
		if nb.ID >= n {
			continue
		}
		sumU += u[nb.ID]
		sumV += v[nb.ID]
		count++
	}
	if count == 0 {
		return 0, 0
	}
	k := float64(count)
	return sumU/k - u[vert.ID], sumV/k - v[vert.ID]
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
