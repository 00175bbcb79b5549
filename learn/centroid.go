package learn

import (
	"context"
	"fmt"
	"sync"

	"github.com/mindloop/cortex/logger"
)

// CentroidLearner is the built-in Learner: nearest-centroid
// classification over the training vectors. It is deliberately small;
// swapping in a real model only requires satisfying the Learner
// interface.
type CentroidLearner struct {
	log       *logger.Logger
	mu        sync.RWMutex
	centroids map[int][]float64
}

// NewCentroidLearner creates an unfitted learner.
func NewCentroidLearner(log *logger.Logger) *CentroidLearner {
	return &CentroidLearner{log: log}
}

// Fit computes one centroid per label class.
func (l *CentroidLearner) Fit(ctx context.Context, features [][]float64, labels []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(features) == 0 {
		return fmt.Errorf("fit: no training data")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("fit: %d feature vectors but %d labels", len(features), len(labels))
	}

	dims := len(features[0])
	sums := make(map[int][]float64)
	counts := make(map[int]int)
	for i, vec := range features {
		if len(vec) != dims {
			return fmt.Errorf("fit: vector %d has %d dims, want %d", i, len(vec), dims)
		}
		label := labels[i]
		if sums[label] == nil {
			sums[label] = make([]float64, dims)
		}
		for j, v := range vec {
			sums[label][j] += v
		}
		counts[label]++
	}

	centroids := make(map[int][]float64, len(sums))
	for label, sum := range sums {
		centroid := make([]float64, dims)
		for j, v := range sum {
			centroid[j] = v / float64(counts[label])
		}
		centroids[label] = centroid
	}

	l.mu.Lock()
	l.centroids = centroids
	l.mu.Unlock()

	l.log.Infof("[LEARN] fitted on %d samples across %d classes", len(features), len(centroids))
	return nil
}

// Predict assigns each vector the label of its nearest centroid.
func (l *CentroidLearner) Predict(ctx context.Context, features [][]float64) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	centroids := l.centroids
	l.mu.RUnlock()
	if len(centroids) == 0 {
		return nil, fmt.Errorf("predict: learner is not fitted")
	}

	labels := make([]int, len(features))
	for i, vec := range features {
		best := 0
		bestDist := -1.0
		for label, centroid := range centroids {
			d := squaredDistance(vec, centroid)
			if bestDist < 0 || d < bestDist {
				best = label
				bestDist = d
			}
		}
		labels[i] = best
	}
	return labels, nil
}

func squaredDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
