package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is an ordinary least squares model with an intercept.
type LinearRegression struct {
	FeatureNames []string
	Coefficients []float64
	Intercept    float64
	TrainedAt    time.Time
	Metrics      *Metrics
	FeatureStats []ColumnStats
}

type linearArtifact struct {
	ModelType    string    `json:"model_type"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	TrainedAt    time.Time `json:"trained_at"`
	Metrics      *Metrics  `json:"metrics,omitempty"`

	FeatureStats []ColumnStats `json:"feature_stats,omitempty"`
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{FeatureNames: FeatureNames()}
}

// Train fits the model on centered columns and solves the least squares
// problem through a thin SVD, giving the minimum-norm solution when the design
// is rank deficient.
func (lr *LinearRegression) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	cols := len(features[0])
	if cols == 0 {
		return errors.New("feature vectors are empty")
	}
	rows := len(features)
	for i, row := range features {
		if len(row) != cols {
			return fmt.Errorf("row %d: %w: got %d want %d", i, ErrFeatureCount, len(row), cols)
		}
		if !allFinite(row) || !allFinite(targets[i:i+1]) {
			return fmt.Errorf("row %d: %w", i, ErrNonFinite)
		}
	}

	means := make([]float64, cols)
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := range features {
			column[i] = features[i][j]
		}
		means[j] = stat.Mean(column, nil)
	}
	yMean := stat.Mean(targets, nil)

	centered := mat.NewDense(rows, cols, nil)
	yc := mat.NewDense(rows, 1, nil)
	for i, row := range features {
		for j, v := range row {
			centered.Set(i, j, v-means[j])
		}
		yc.Set(i, 0, targets[i]-yMean)
	}

	coefficients := make([]float64, cols)
	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return errors.New("svd factorization failed")
	}
	rcond := float64(max(rows, cols)) * eps
	if rank := svd.Rank(rcond); rank > 0 {
		var beta mat.Dense
		svd.SolveTo(&beta, yc, rank)
		mat.Col(coefficients, 0, &beta)
	}
	if !allFinite(coefficients) {
		return fmt.Errorf("solve: %w", ErrNonFinite)
	}

	if len(lr.FeatureNames) != cols {
		lr.FeatureNames = defaultNames(cols)
	}
	lr.Coefficients = coefficients
	lr.Intercept = yMean - floats.Dot(coefficients, means)
	lr.TrainedAt = time.Now().UTC()
	return nil
}

func (lr *LinearRegression) Predict(features []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, ErrModelNotTrained
	}
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("%w: got %d want %d", ErrFeatureCount, len(features), len(lr.Coefficients))
	}
	if !allFinite(features) {
		return 0, ErrNonFinite
	}
	score := lr.Intercept + floats.Dot(lr.Coefficients, features)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNonFinite
	}
	return score, nil
}

// Save replaces the artifact at path atomically.
func (lr *LinearRegression) Save(path string) error {
	if len(lr.Coefficients) == 0 {
		return ErrModelNotTrained
	}
	payload, err := json.MarshalIndent(linearArtifact{
		ModelType:    ModelTypeLinearRegression,
		FeatureNames: lr.FeatureNames,
		Coefficients: lr.Coefficients,
		Intercept:    lr.Intercept,
		TrainedAt:    lr.TrainedAt,
		Metrics:      lr.Metrics,
		FeatureStats: lr.FeatureStats,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (lr *LinearRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact linearArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("corrupt artifact: %w", err)
	}
	if artifact.ModelType != ModelTypeLinearRegression {
		return fmt.Errorf("%w: %q", ErrUnsupportedModel, artifact.ModelType)
	}
	if len(artifact.Coefficients) == 0 {
		return fmt.Errorf("corrupt artifact: %w", ErrModelNotTrained)
	}
	if len(artifact.FeatureNames) != len(artifact.Coefficients) {
		return fmt.Errorf("corrupt artifact: %d feature names for %d coefficients",
			len(artifact.FeatureNames), len(artifact.Coefficients))
	}
	if !allFinite(artifact.Coefficients) || !allFinite([]float64{artifact.Intercept}) {
		return fmt.Errorf("corrupt artifact: %w", ErrNonFinite)
	}

	lr.FeatureNames = slices.Clone(artifact.FeatureNames)
	lr.Coefficients = artifact.Coefficients
	lr.Intercept = artifact.Intercept
	lr.TrainedAt = artifact.TrainedAt
	lr.Metrics = artifact.Metrics
	lr.FeatureStats = artifact.FeatureStats
	return nil
}

var eps = math.Nextafter(1, 2) - 1

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func defaultNames(n int) []string {
	if n == len(FeatureNames()) {
		return FeatureNames()
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}
