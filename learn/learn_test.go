package learn_test

import (
	"context"
	"math"
	"testing"

	"github.com/mindloop/cortex/learn"
)

func TestCalibrate_AppliesOffsetToZOnly(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
		{0.7, 0.8, 0.9},
	}
	original := make([][]float64, len(features))
	for i, vec := range features {
		original[i] = append([]float64(nil), vec...)
	}

	const offset = 0.2
	learn.Calibrate(features, offset, nil)

	for i, vec := range features {
		if vec[0] != original[i][0] || vec[1] != original[i][1] {
			t.Errorf("vector %d: X/Y changed: got %v, want %v", i, vec[:2], original[i][:2])
		}
		want := original[i][2] + offset
		if math.Abs(vec[2]-want) > 1e-12 {
			t.Errorf("vector %d: Z = %v, want %v", i, vec[2], want)
		}
	}
}

func TestCalibrate_ZeroOffsetIsNoop(t *testing.T) {
	features := [][]float64{{0.1, 0.2, 0.3}}
	learn.Calibrate(features, 0, nil)
	if features[0][2] != 0.3 {
		t.Errorf("zero offset mutated Z: got %v", features[0][2])
	}
}

func TestCentroidLearner_FitPredict(t *testing.T) {
	ctx := context.Background()
	l := learn.NewCentroidLearner(nil)

	// Two well-separated clusters.
	features := [][]float64{
		{0, 0, 0}, {0.1, 0, 0}, {0, 0.1, 0},
		{1, 1, 1}, {0.9, 1, 1}, {1, 0.9, 1},
	}
	labels := []int{0, 0, 0, 1, 1, 1}

	if err := l.Fit(ctx, features, labels); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := l.Predict(ctx, [][]float64{{0.05, 0.05, 0}, {0.95, 0.95, 1}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("got labels %v, want [0 1]", got)
	}
}

func TestCentroidLearner_PredictBeforeFit(t *testing.T) {
	l := learn.NewCentroidLearner(nil)
	if _, err := l.Predict(context.Background(), [][]float64{{0, 0, 0}}); err == nil {
		t.Error("expected error predicting before fit")
	}
}

func TestCentroidLearner_MismatchedInput(t *testing.T) {
	l := learn.NewCentroidLearner(nil)
	err := l.Fit(context.Background(), [][]float64{{0, 0, 0}}, []int{0, 1})
	if err == nil {
		t.Error("expected error for mismatched features/labels")
	}
	if err := l.Fit(context.Background(), nil, nil); err == nil {
		t.Error("expected error for empty training data")
	}
}
