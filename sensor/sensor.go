// Package sensor produces three-axis feature vectors for the learner.
//
// There is no real sensor hardware here: readings are simulated with
// uniform random values, matching the toy nature of the system. A real
// deployment would replace Simulate with a plugin-backed source.
package sensor

import "math/rand"

// Axes is the dimensionality of a reading: X, Y, and Z.
const Axes = 3

// Simulate returns n random three-axis readings in [0, 1) with random
// binary labels. Features and labels are uncorrelated.
func Simulate(n int) (features [][]float64, labels []int) {
	features = make([][]float64, n)
	labels = make([]int, n)
	for i := range features {
		vec := make([]float64, Axes)
		for j := range vec {
			vec[j] = rand.Float64()
		}
		features[i] = vec
		labels[i] = rand.Intn(2)
	}
	return features, labels
}
