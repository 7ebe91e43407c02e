package monitoring

import (
	"strings"
	"testing"
	"time"
)

func TestIncrCounterAccumulates(t *testing.T) {
	mc := NewMetricsCollector()
	labels := map[string]string{"tier": "Strong"}

	mc.IncrCounter("predictions", 1, labels)
	mc.IncrCounter("predictions", 1, labels)
	mc.IncrCounter("predictions", 1, map[string]string{"tier": "Low"})

	summary, err := mc.GetMetricSummary("predictions", labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Latest != 2 {
		t.Fatalf("expected cumulative value 2, got %v", summary.Latest)
	}
	if _, err := mc.GetMetric("predictions", nil); err == nil {
		t.Fatal("expected unlabeled series to be missing")
	}
}

func TestHistogramSummary(t *testing.T) {
	mc := NewMetricsCollector()
	for _, v := range []float64{0.2, 0.4, 0.9} {
		mc.RecordHistogram("fraction", v, nil)
	}

	summary, err := mc.GetMetricSummary("fraction", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Count != 3 || summary.Min != 0.2 || summary.Max != 0.9 || summary.Latest != 0.9 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Average < 0.4999 || summary.Average > 0.5001 {
		t.Fatalf("expected average 0.5, got %v", summary.Average)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	mc := NewMetricsCollector()
	mc.historySize = 10
	for i := 0; i < 25; i++ {
		mc.SetGauge("g", float64(i), nil)
	}

	series, err := mc.GetMetric("g", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 10 || series[9].Value != 24 || series[0].Value != 15 {
		t.Fatalf("unexpected series len=%d first=%v last=%v", len(series), series[0].Value, series[len(series)-1].Value)
	}
}

func TestExportPrometheusCountsBeyondHistory(t *testing.T) {
	pm := NewPredictionMetrics()
	const total = defaultHistorySize + 500
	for i := 0; i < total; i++ {
		pm.RecordPrediction("Low", 0.5, time.Second)
	}

	out := pm.Collector().ExportPrometheus()
	for _, want := range []string{
		"heartrisk_prediction_duration_seconds_count 1500",
		"heartrisk_prediction_duration_seconds_sum 1500",
		"heartrisk_prediction_fraction_sum 750",
		`heartrisk_predictions_total{tier="Low"} 1500`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in export:\n%s", want, out)
		}
	}

	series, err := pm.Collector().GetMetric(durationMetric, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != defaultHistorySize {
		t.Fatalf("expected history bounded at %d, got %d", defaultHistorySize, len(series))
	}
}

func TestModelAvailableGauge(t *testing.T) {
	pm := NewPredictionMetrics()
	pm.SetModelAvailable(false)
	pm.SetModelAvailable(true)

	summary, err := pm.Collector().GetMetricSummary(availableMetric, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Latest != 1 || summary.Min != 0 {
		t.Fatalf("unexpected gauge summary %+v", summary)
	}
}

func TestExportPrometheus(t *testing.T) {
	pm := NewPredictionMetrics()
	pm.RecordPrediction("Strong", 0.85, 2*time.Millisecond)
	pm.RecordPrediction("Strong", 0.9, time.Millisecond)
	pm.RecordError("model_load")

	out := pm.Collector().ExportPrometheus()
	for _, want := range []string{
		"# TYPE heartrisk_predictions_total counter",
		`heartrisk_predictions_total{tier="Strong"} 2`,
		`heartrisk_prediction_errors_total{kind="model_load"} 1`,
		"# TYPE heartrisk_prediction_duration_seconds summary",
		"heartrisk_prediction_duration_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in export:\n%s", want, out)
		}
	}
}

func TestPredictionStats(t *testing.T) {
	pm := NewPredictionMetrics()
	pm.RecordPrediction("Low", 0.2, time.Millisecond)
	pm.RecordPrediction("Medium", 0.6, time.Millisecond)
	pm.RecordError("invalid_input")
	pm.RecordError("invalid_input")

	stats := pm.Stats()
	if stats.Predictions != 2 {
		t.Fatalf("expected 2 predictions, got %d", stats.Predictions)
	}
	if stats.Tiers["Low"] != 1 || stats.Tiers["Medium"] != 1 {
		t.Fatalf("unexpected tiers %v", stats.Tiers)
	}
	if stats.Errors["invalid_input"] != 2 {
		t.Fatalf("unexpected errors %v", stats.Errors)
	}
	if stats.AverageFraction < 0.3999 || stats.AverageFraction > 0.4001 {
		t.Fatalf("expected average 0.4, got %v", stats.AverageFraction)
	}

	stats.Tiers["Low"] = 100
	if pm.Stats().Tiers["Low"] != 1 {
		t.Fatal("Stats should return a copy")
	}
}
