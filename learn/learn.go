// Package learn defines the classifier capability and the Z-axis
// calibration step applied to sensor data before fitting.
package learn

import (
	"context"

	"github.com/mindloop/cortex/logger"
)

// Learner is the opaque classifier capability. The runtime only needs
// fit and predict; implementations decide everything else.
type Learner interface {
	// Fit trains on parallel slices of feature vectors and labels.
	Fit(ctx context.Context, features [][]float64, labels []int) error

	// Predict returns a label per feature vector.
	Predict(ctx context.Context, features [][]float64) ([]int, error)
}

// zAxis is the coordinate the calibration offset applies to.
const zAxis = 2

// Calibrate applies an additive offset to the Z coordinate of every
// feature vector, in place. The X and Y coordinates are never touched.
// A zero offset leaves the raw Z data as-is.
func Calibrate(features [][]float64, offset float64, log *logger.Logger) {
	if offset == 0 {
		log.Infof("[LEARN] no Z-axis calibration provided, using raw Z data")
		return
	}
	log.Infof("[LEARN] applying Z-axis calibration: %+g", offset)
	for _, vec := range features {
		if len(vec) > zAxis {
			vec[zAxis] += offset
		}
	}
}
