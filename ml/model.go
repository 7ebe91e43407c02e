package ml

import (
	"errors"
	"fmt"
)

// Predictor scores a single feature vector.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

type MLModel interface {
	Predictor
	Train(features [][]float64, targets []float64) error
	Save(path string) error
	Load(path string) error
}

var (
	ErrModelNotTrained  = errors.New("model not trained")
	ErrFeatureCount     = errors.New("feature count mismatch")
	ErrNonFinite        = errors.New("non-finite value")
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrFeatureOrder     = errors.New("artifact feature order differs from inference order")
)

// ModelLoadError reports an artifact that could not be turned into a usable model.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("error loading the model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// PredictionError reports a failure while scoring a feature vector.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("error making the prediction: %v", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
