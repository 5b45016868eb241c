package fields

import "gonum.org/v1/gonum/spatial/r3"

// Gravity fills out[:n] with the gravity response of each polyp: 0 for
// tissue facing straight up, 1 for tissue facing straight down. It is a
// pure function of the vertex normal.
func Gravity(normal []r3.Vec, out []float64, n int) {
	for i := 0; i < n; i++ {
		g := 0.5 * (1 - normal[i].Y)
		if g < 0 {
			g = 0
		} else if g > 1 {
			g = 1
		}
		out[i] = g
	}
}
