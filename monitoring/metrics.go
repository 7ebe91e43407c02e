// Package monitoring 提供进程内指标收集
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

const defaultHistorySize = 1000

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Help      string            `json:"help,omitempty"`
}

// seriesTotal 序列的累计观测数与总和，不受历史长度限制
type seriesTotal struct {
	count int64
	sum   float64
}

// MetricsCollector 指标收集器，按名称和标签区分序列
type MetricsCollector struct {
	metrics     map[string][]*Metric
	totals      map[string]*seriesTotal
	metricsLock sync.RWMutex

	historySize int
	startTime   time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:     make(map[string][]*Metric),
		totals:      make(map[string]*seriesTotal),
		historySize: defaultHistorySize,
		startTime:   time.Now(),
	}
}

func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	return name + "{" + formatLabels(labels) + "}"
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return strings.Join(pairs, ",")
}

// RecordMetric 记录指标
func (mc *MetricsCollector) RecordMetric(metric *Metric) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()
	mc.record(metric)
}

func (mc *MetricsCollector) record(metric *Metric) {
	metric.Timestamp = time.Now()
	key := seriesKey(metric.Name, metric.Labels)
	series := append(mc.metrics[key], metric)

	total, ok := mc.totals[key]
	if !ok {
		total = &seriesTotal{}
		mc.totals[key] = total
	}
	total.count++
	total.sum += metric.Value

	// 限制历史大小
	if len(series) > mc.historySize {
		series = series[len(series)-mc.historySize:]
	}
	mc.metrics[key] = series
}

// IncrCounter 增加计数器，值为累计值
func (mc *MetricsCollector) IncrCounter(name string, delta float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	value := delta
	if series := mc.metrics[seriesKey(name, labels)]; len(series) > 0 {
		value += series[len(series)-1].Value
	}
	mc.record(&Metric{Name: name, Type: MetricTypeCounter, Value: value, Labels: labels})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{Name: name, Type: MetricTypeGauge, Value: value, Labels: labels})
}

// RecordHistogram 记录一次观测值
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{Name: name, Type: MetricTypeHistogram, Value: value, Labels: labels})
}

// GetMetric 获取一个序列的副本
func (mc *MetricsCollector) GetMetric(name string, labels map[string]string) ([]Metric, error) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	series, ok := mc.metrics[seriesKey(name, labels)]
	if !ok {
		return nil, fmt.Errorf("metric %s not found", seriesKey(name, labels))
	}
	result := make([]Metric, len(series))
	for i, m := range series {
		result[i] = *m
	}
	return result, nil
}

// MetricSummary 序列摘要，只覆盖保留的历史
type MetricSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Latest  float64 `json:"latest"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	Sum     float64 `json:"sum"`
}

// GetMetricSummary 获取指标摘要
func (mc *MetricsCollector) GetMetricSummary(name string, labels map[string]string) (MetricSummary, error) {
	series, err := mc.GetMetric(name, labels)
	if err != nil {
		return MetricSummary{}, err
	}
	return summarize(seriesKey(name, labels), series), nil
}

func summarize(key string, series []Metric) MetricSummary {
	summary := MetricSummary{Name: key, Count: len(series)}
	if len(series) == 0 {
		return summary
	}
	summary.Latest = series[len(series)-1].Value
	summary.Min = series[0].Value
	summary.Max = series[0].Value
	for _, m := range series {
		summary.Sum += m.Value
		if m.Value < summary.Min {
			summary.Min = m.Value
		}
		if m.Value > summary.Max {
			summary.Max = m.Value
		}
	}
	summary.Average = summary.Sum / float64(len(series))
	return summary
}

// ExportPrometheus 导出Prometheus文本格式。直方图按summary导出自启动以来的_count和_sum。
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	keys := make([]string, 0, len(mc.metrics))
	for key := range mc.metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out strings.Builder
	described := make(map[string]bool)
	for _, key := range keys {
		series := mc.metrics[key]
		if len(series) == 0 {
			continue
		}
		latest := series[len(series)-1]
		labels := ""
		if len(latest.Labels) > 0 {
			labels = "{" + formatLabels(latest.Labels) + "}"
		}

		if !described[latest.Name] {
			described[latest.Name] = true
			help := latest.Help
			if help == "" {
				help = fmt.Sprintf("Metric %s", latest.Name)
			}
			typ := string(latest.Type)
			if latest.Type == MetricTypeHistogram {
				typ = "summary"
			}
			fmt.Fprintf(&out, "# HELP %s %s\n", latest.Name, help)
			fmt.Fprintf(&out, "# TYPE %s %s\n", latest.Name, typ)
		}

		if latest.Type == MetricTypeHistogram {
			total := mc.totals[key]
			fmt.Fprintf(&out, "%s_count%s %d\n", latest.Name, labels, total.count)
			fmt.Fprintf(&out, "%s_sum%s %g\n", latest.Name, labels, total.sum)
			continue
		}
		fmt.Fprintf(&out, "%s%s %g\n", latest.Name, labels, latest.Value)
	}
	return out.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":      m.Alloc,
			"heap_alloc": m.HeapAlloc,
			"heap_sys":   m.HeapSys,
			"gc_count":   m.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}
