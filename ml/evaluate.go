package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics are computed on the held-out split. Classification metrics treat a
// clamped score of at least 0.5 as a predicted event.
type Metrics struct {
	RMSE      float64 `json:"rmse"`
	MAE       float64 `json:"mae"`
	R2        float64 `json:"r2"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Samples   int     `json:"samples"`
}

func Evaluate(model Predictor, features [][]float64, targets []float64) (Metrics, error) {
	if len(features) == 0 {
		return Metrics{}, errors.New("no samples to evaluate")
	}
	if len(features) != len(targets) {
		return Metrics{}, errors.New("features and targets size mismatch")
	}

	estimates := make([]float64, len(features))
	var squared, absolute float64
	var correct, truePositive, predictedPositive, actualPositive int
	for i, feature := range features {
		score, err := model.Predict(feature)
		if err != nil {
			return Metrics{}, &PredictionError{Err: err}
		}
		estimates[i] = score
		diff := score - targets[i]
		squared += diff * diff
		absolute += math.Abs(diff)

		predicted := Clamp(score) >= 0.5
		actual := targets[i] >= 0.5
		if predicted == actual {
			correct++
		}
		if predicted {
			predictedPositive++
		}
		if actual {
			actualPositive++
			if predicted {
				truePositive++
			}
		}
	}

	n := float64(len(features))
	metrics := Metrics{
		RMSE:     math.Sqrt(squared / n),
		MAE:      absolute / n,
		Accuracy: float64(correct) / n,
		Samples:  len(features),
	}
	if len(features) > 1 {
		// undefined when every target is equal
		if r2 := stat.RSquaredFrom(estimates, targets, nil); !math.IsNaN(r2) && !math.IsInf(r2, 0) {
			metrics.R2 = r2
		}
	}
	if predictedPositive > 0 {
		metrics.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		metrics.Recall = float64(truePositive) / float64(actualPositive)
	}
	return metrics, nil
}
