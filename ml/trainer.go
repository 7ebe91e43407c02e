package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"heartrisk/pipeline"
)

var ErrDatasetQuality = errors.New("dataset failed quality checks")

type TrainingConfig struct {
	DatasetPath string
	ModelPath   string
	TestRatio   float64
	Seed        int64
}

type TrainingReport struct {
	ModelPath string
	TrainRows int
	TestRows  int
	Metrics   Metrics
	Model     *LinearRegression
}

// TrainModel fits a LinearRegression on the dataset, evaluates it on the
// held-out split and writes the artifact.
func TrainModel(config TrainingConfig, logger *zap.Logger) (*TrainingReport, error) {
	if config.DatasetPath == "" {
		return nil, errors.New("dataset path is required")
	}
	if config.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dataset, err := LoadDataset(config.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("dataset loaded",
		zap.String("path", config.DatasetPath),
		zap.Int("rows", dataset.Len()),
		zap.Strings("features", FeatureNames()))

	if err := checkQuality(dataset, logger); err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY := SplitDataset(dataset.Features, dataset.Targets, config.TestRatio, config.Seed)

	var preprocessor DataPreprocessor
	if err := preprocessor.ComputeStats(trainX); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	for _, s := range preprocessor.FeatureStats() {
		logger.Debug("feature profile",
			zap.String("feature", s.Name),
			zap.Float64("min", s.Min),
			zap.Float64("max", s.Max),
			zap.Float64("mean", s.Mean),
			zap.Float64("std_dev", s.StdDev))
	}

	model := NewLinearRegression()
	if err := model.Train(trainX, trainY); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	model.FeatureStats = preprocessor.FeatureStats()
	logger.Info("model fitted",
		zap.Int("train_rows", len(trainX)),
		zap.Float64s("coefficients", model.Coefficients),
		zap.Float64("intercept", model.Intercept))

	report := &TrainingReport{
		ModelPath: config.ModelPath,
		TrainRows: len(trainX),
		TestRows:  len(testX),
		Model:     model,
	}
	if len(testX) > 0 {
		metrics, err := Evaluate(model, testX, testY)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		report.Metrics = metrics
		model.Metrics = &metrics
		logger.Info("held-out evaluation",
			zap.Int("test_rows", metrics.Samples),
			zap.Float64("rmse", metrics.RMSE),
			zap.Float64("mae", metrics.MAE),
			zap.Float64("r2", metrics.R2),
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Float64("precision", metrics.Precision),
			zap.Float64("recall", metrics.Recall))
	} else {
		logger.Warn("no held-out rows, skipping evaluation")
	}

	if err := os.MkdirAll(filepath.Dir(config.ModelPath), 0o755); err != nil {
		return nil, err
	}
	if err := model.Save(config.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	logger.Info("model saved", zap.String("path", config.ModelPath))
	return report, nil
}

// checkQuality rejects the dataset if any row breaks a high severity rule.
// Duplicates and other low severity issues are only logged.
func checkQuality(dataset *Dataset, logger *zap.Logger) error {
	cleaner := pipeline.NewDataCleaner(FeatureNames(), BinaryFeatureNames())
	_, issues := cleaner.Clean(pipeline.RowsFrom(dataset.Features, dataset.Targets))
	if len(issues) == 0 {
		return nil
	}

	stats := cleaner.GetStats()
	logger.Warn("dataset quality issues",
		zap.Int64("rows", stats.TotalProcessed),
		zap.Int64("rejected", stats.Rejected),
		zap.Strings("issues", pipeline.SummarizeIssues(issues)))
	if stats.Rejected == 0 {
		return nil
	}
	for _, issue := range issues {
		if issue.Severity == pipeline.SeverityHigh {
			return fmt.Errorf("%w: %d of %d rows rejected, first: %s",
				ErrDatasetQuality, stats.Rejected, stats.TotalProcessed, issue)
		}
	}
	return ErrDatasetQuality
}
