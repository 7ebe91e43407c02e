package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats summarizes one feature column of the training data.
type ColumnStats struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// DataPreprocessor profiles the dataset before fitting.
type DataPreprocessor struct {
	featureStats []ColumnStats
}

func (p *DataPreprocessor) ComputeStats(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	names := FeatureNames()
	column := make([]float64, len(features))
	stats := make([]ColumnStats, len(names))
	for j, name := range names {
		for i, row := range features {
			if len(row) != len(names) {
				return fmt.Errorf("%w: row %d has %d values", ErrFeatureCount, i, len(row))
			}
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if len(column) < 2 {
			std = 0
		}
		stats[j] = ColumnStats{
			Name:   name,
			Min:    floats.Min(column),
			Max:    floats.Max(column),
			Mean:   mean,
			StdDev: std,
		}
	}
	p.featureStats = stats
	return nil
}

// FeatureStats returns the stats in training column order, or nil before
// ComputeStats.
func (p *DataPreprocessor) FeatureStats() []ColumnStats {
	if p.featureStats == nil {
		return nil
	}
	out := make([]ColumnStats, len(p.featureStats))
	copy(out, p.featureStats)
	return out
}

// Preprocessor rebuilds a profile from stats stored with a model.
func Preprocessor(stats []ColumnStats) *DataPreprocessor {
	return &DataPreprocessor{featureStats: stats}
}

// OutOfRange reports the features of f that fall outside the ranges seen in
// training. The linear model extrapolates there.
func (p *DataPreprocessor) OutOfRange(f ClinicalFeatures) []string {
	var names []string
	for i, v := range FeatureVector(f) {
		if i >= len(p.featureStats) {
			break
		}
		if s := p.featureStats[i]; v < s.Min || v > s.Max {
			names = append(names, s.Name)
		}
	}
	return names
}
