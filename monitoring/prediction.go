package monitoring

import (
	"sync"
	"time"
)

const (
	predictionsMetric = "heartrisk_predictions_total"
	errorsMetric      = "heartrisk_prediction_errors_total"
	durationMetric    = "heartrisk_prediction_duration_seconds"
	fractionMetric    = "heartrisk_prediction_fraction"
	availableMetric   = "heartrisk_model_available"
)

// PredictionMetrics 预测指标。只记录层级、耗时和错误类别，不记录输入值。
type PredictionMetrics struct {
	collector *MetricsCollector

	mu          sync.RWMutex
	predictions int64
	fractionSum float64
	tiers       map[string]int64
	errors      map[string]int64
}

// PredictionStats is the JSON view of PredictionMetrics.
type PredictionStats struct {
	Predictions     int64            `json:"predictions"`
	AverageFraction float64          `json:"average_fraction"`
	Tiers           map[string]int64 `json:"tiers"`
	Errors          map[string]int64 `json:"errors"`
	Uptime          string           `json:"uptime"`
}

func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{
		collector: NewMetricsCollector(),
		tiers:     make(map[string]int64),
		errors:    make(map[string]int64),
	}
}

// Collector exposes the underlying series, e.g. for Prometheus export.
func (pm *PredictionMetrics) Collector() *MetricsCollector {
	return pm.collector
}

// RecordPrediction 记录一次成功的预测
func (pm *PredictionMetrics) RecordPrediction(tier string, fraction float64, duration time.Duration) {
	pm.mu.Lock()
	pm.predictions++
	pm.fractionSum += fraction
	pm.tiers[tier]++
	pm.mu.Unlock()

	pm.collector.IncrCounter(predictionsMetric, 1, map[string]string{"tier": tier})
	pm.collector.RecordHistogram(durationMetric, duration.Seconds(), nil)
	pm.collector.RecordHistogram(fractionMetric, fraction, nil)
}

// RecordError 记录一次失败的请求
func (pm *PredictionMetrics) RecordError(kind string) {
	pm.mu.Lock()
	pm.errors[kind]++
	pm.mu.Unlock()

	pm.collector.IncrCounter(errorsMetric, 1, map[string]string{"kind": kind})
}

// SetModelAvailable 记录最近一次加载模型是否成功
func (pm *PredictionMetrics) SetModelAvailable(available bool) {
	value := 0.0
	if available {
		value = 1
	}
	pm.collector.SetGauge(availableMetric, value, nil)
}

// Stats 获取预测统计
func (pm *PredictionMetrics) Stats() PredictionStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	stats := PredictionStats{
		Predictions: pm.predictions,
		Tiers:       make(map[string]int64, len(pm.tiers)),
		Errors:      make(map[string]int64, len(pm.errors)),
		Uptime:      pm.collector.GetUptime().Round(time.Second).String(),
	}
	if pm.predictions > 0 {
		stats.AverageFraction = pm.fractionSum / float64(pm.predictions)
	}
	for k, v := range pm.tiers {
		stats.Tiers[k] = v
	}
	for k, v := range pm.errors {
		stats.Errors[k] = v
	}
	return stats
}
