package ml

import (
	"fmt"
	"math"
	"slices"
)

const ModelTypeLinearRegression = "linear_regression"

// LoadModel reads the artifact at path. Every failure is reported as *ModelLoadError.
func LoadModel(modelType, path string) (MLModel, error) {
	switch modelType {
	case ModelTypeLinearRegression, "":
		model := &LinearRegression{}
		if err := model.Load(path); err != nil {
			return nil, &ModelLoadError{Path: path, Err: err}
		}
		if !slices.Equal(model.FeatureNames, FeatureNames()) {
			return nil, &ModelLoadError{Path: path, Err: ErrFeatureOrder}
		}
		return model, nil
	default:
		return nil, &ModelLoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)}
	}
}

// Score runs model on the feature vector assembled from features. It returns a
// finite score or a *PredictionError.
func Score(model Predictor, features ClinicalFeatures) (score float64, err error) {
	if model == nil {
		return 0, &PredictionError{Err: ErrModelNotTrained}
	}
	defer func() {
		if r := recover(); r != nil {
			score = 0
			err = &PredictionError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	score, err = model.Predict(FeatureVector(features))
	if err != nil {
		return 0, &PredictionError{Err: err}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, &PredictionError{Err: ErrNonFinite}
	}
	return score, nil
}
