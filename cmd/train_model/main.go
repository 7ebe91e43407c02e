package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/db"
	"heartrisk/logging"
	"heartrisk/ml"
)

type options struct {
	dataset   string
	modelPath string
	testRatio float64
	seed      int64
}

func main() {
	var opts options
	configPath := flag.String("config", "config.yaml", "config file")
	flag.StringVar(&opts.dataset, "dataset", "", "training CSV (overrides ml.training.dataset_path)")
	flag.StringVar(&opts.modelPath, "model_path", "", "model output path (overrides ml.model_path)")
	flag.Float64Var(&opts.testRatio, "test_ratio", 0, "held-out fraction (overrides ml.training.test_ratio)")
	flag.Int64Var(&opts.seed, "seed", 0, "split seed (overrides ml.training.seed)")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(config.Resolve(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	report, err := ml.TrainModel(trainingConfig(cfg, opts, set), logger)
	if err != nil {
		logger.Fatal("failed to train model", zap.Error(err))
	}

	if cfg.Database.Path != "" {
		if err := recordRun(cfg.Database.Path, report); err != nil {
			logger.Warn("failed to record training run", zap.Error(err))
		}
	}

	fmt.Printf("model saved to %s\n", report.ModelPath)
}

// loadConfig falls back to defaults and environment overrides when the file
// cannot be read.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	log.Printf("config not loaded, using defaults: %v", err)
	return config.FromEnv()
}

// trainingConfig applies only the flags given on the command line, so an
// explicit -seed 0 is honored.
func trainingConfig(cfg *config.Config, opts options, set map[string]bool) ml.TrainingConfig {
	training := ml.TrainingConfig{
		DatasetPath: cfg.ML.Training.DatasetPath,
		ModelPath:   cfg.ML.ModelPath,
		TestRatio:   cfg.ML.Training.TestRatio,
		Seed:        cfg.ML.Training.Seed,
	}
	if set["dataset"] {
		training.DatasetPath = opts.dataset
	}
	if set["model_path"] {
		training.ModelPath = opts.modelPath
	}
	if set["test_ratio"] {
		training.TestRatio = opts.testRatio
	}
	if set["seed"] {
		training.Seed = opts.seed
	}
	return training
}

func recordRun(path string, report *ml.TrainingReport) error {
	if err := db.InitDB(path); err != nil {
		return err
	}
	defer db.Close()

	trainedAt := time.Now().UTC()
	if report.Model != nil && !report.Model.TrainedAt.IsZero() {
		trainedAt = report.Model.TrainedAt
	}
	return db.SaveTrainingLog(db.TrainingLog{
		ModelName: ml.ModelTypeLinearRegression,
		ModelPath: report.ModelPath,
		RMSE:      report.Metrics.RMSE,
		MAE:       report.Metrics.MAE,
		R2:        report.Metrics.R2,
		Accuracy:  report.Metrics.Accuracy,
		Precision: report.Metrics.Precision,
		Recall:    report.Metrics.Recall,
		TrainRows: report.TrainRows,
		TestRows:  report.TestRows,
		TrainedAt: trainedAt,
	})
}
