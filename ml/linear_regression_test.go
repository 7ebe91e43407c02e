package ml

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestLinearRegressionRecoversExactCoefficients(t *testing.T) {
	var features [][]float64
	var targets []float64
	for i := 0; i < 20; i++ {
		x1 := float64(i)
		x2 := float64((i * i) % 7)
		features = append(features, []float64{x1, x2})
		targets = append(targets, 5+2*x1-3*x2)
	}

	model := &LinearRegression{}
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{2, -3}
	for i, coef := range model.Coefficients {
		if math.Abs(coef-want[i]) > 1e-9 {
			t.Fatalf("coefficient %d: expected %f, got %f", i, want[i], coef)
		}
	}
	if math.Abs(model.Intercept-5) > 1e-9 {
		t.Fatalf("expected intercept 5, got %f", model.Intercept)
	}

	score, err := model.Predict([]float64{10, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-22) > 1e-9 {
		t.Fatalf("expected 22, got %f", score)
	}
}

func TestLinearRegressionRankDeficientUsesMinimumNorm(t *testing.T) {
	features := [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	targets := []float64{5, 9, 13, 17}

	model := &LinearRegression{}
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, coef := range model.Coefficients {
		if math.Abs(coef-2) > 1e-9 {
			t.Fatalf("coefficient %d: expected 2, got %f", i, coef)
		}
	}
	if math.Abs(model.Intercept-1) > 1e-9 {
		t.Fatalf("expected intercept 1, got %f", model.Intercept)
	}
}

func TestLinearRegressionConstantFeatures(t *testing.T) {
	features := [][]float64{{3}, {3}, {3}}
	targets := []float64{0, 1, 1}

	model := &LinearRegression{}
	if err := model.Train(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	score, err := model.Predict([]float64{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-2.0/3.0) > 1e-12 {
		t.Fatalf("expected mean target, got %f", score)
	}
}

func TestLinearRegressionTrainValidation(t *testing.T) {
	tests := []struct {
		name     string
		features [][]float64
		targets  []float64
	}{
		{name: "empty", features: nil, targets: nil},
		{name: "size mismatch", features: [][]float64{{1}, {2}}, targets: []float64{1}},
		{name: "ragged rows", features: [][]float64{{1, 2}, {2}}, targets: []float64{1, 2}},
		{name: "nan feature", features: [][]float64{{math.NaN()}, {2}}, targets: []float64{1, 2}},
		{name: "inf target", features: [][]float64{{1}, {2}}, targets: []float64{1, math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &LinearRegression{}
			if err := model.Train(tt.features, tt.targets); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLinearRegressionPredictErrors(t *testing.T) {
	untrained := &LinearRegression{}
	if _, err := untrained.Predict([]float64{1}); !errors.Is(err, ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}

	model := &LinearRegression{Coefficients: []float64{1, 2}, Intercept: 0.5}
	if _, err := model.Predict([]float64{1}); !errors.Is(err, ErrFeatureCount) {
		t.Fatalf("expected ErrFeatureCount, got %v", err)
	}
	if _, err := model.Predict([]float64{1, math.Inf(-1)}); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}

func TestLinearRegressionSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heart.model")
	model := NewLinearRegression()
	model.Coefficients = []float64{
		0.1 + 0.2, -1.0 / 3.0, 1e-300, 7.0 / 11.0, math.Pi, -math.E,
		3.4e-7, 123456789.123456789, -0.000123, math.SmallestNonzeroFloat64, math.MaxFloat64 / 2,
	}
	model.Intercept = 1.0 / 7.0
	model.Metrics = &Metrics{RMSE: 0.4, Samples: 60}

	if err := model.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := &LinearRegression{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Intercept != model.Intercept {
		t.Fatalf("intercept changed: %v != %v", loaded.Intercept, model.Intercept)
	}
	for i := range model.Coefficients {
		if loaded.Coefficients[i] != model.Coefficients[i] {
			t.Fatalf("coefficient %d changed: %v != %v", i, loaded.Coefficients[i], model.Coefficients[i])
		}
	}
	if loaded.Metrics == nil || loaded.Metrics.Samples != 60 {
		t.Fatalf("expected metrics to round-trip, got %+v", loaded.Metrics)
	}
}

func TestLinearRegressionSaveUntrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heart.model")
	if err := NewLinearRegression().Save(path); !errors.Is(err, ErrModelNotTrained) {
		t.Fatalf("expected ErrModelNotTrained, got %v", err)
	}
}
