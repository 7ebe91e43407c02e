// Package pipeline checks training rows before they reach the fitter.
package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	SeverityHigh = "high"
	SeverityLow  = "low"
)

// Row is one dataset record: feature values in column order plus the label.
// Index is the 1-based data row, the header excluded.
type Row struct {
	Index  int
	Values []float64
	Label  float64
}

// CleaningRule 清洗规则。返回错误表示该行存在问题，Severity决定是否拒绝该行。
type CleaningRule interface {
	Apply(*Row) error
	Name() string
	Severity() string
}

// QualityIssue 质量问题
type QualityIssue struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Row       int       `json:"row"`
	Timestamp time.Time `json:"timestamp"`
}

func (i QualityIssue) String() string {
	return fmt.Sprintf("row %d: %s: %s", i.Row, i.Type, i.Message)
}

// CleaningStats 清洗统计
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// DataCleaner 数据清洗器
type DataCleaner struct {
	rules []CleaningRule

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewDataCleaner 创建带默认规则的清洗器。binary列与标签只允许0或1。
func NewDataCleaner(columns, binary []string) *DataCleaner {
	cleaner := &DataCleaner{
		stats: CleaningStats{Issues: make(map[string]int64)},
	}
	cleaner.AddRule(NewNonNegativeRule(columns))
	cleaner.AddRule(NewBinaryColumnRule(columns, binary))
	cleaner.AddRule(NewBinaryLabelRule())
	cleaner.AddRule(NewDuplicateDetectionRule())
	return cleaner
}

// AddRule 添加清洗规则
func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
}

// Clean 应用所有规则。存在高严重度问题的行被拒绝，低严重度问题只报告。
func (dc *DataCleaner) Clean(rows []*Row) ([]*Row, []QualityIssue) {
	var cleaned []*Row
	var issues []QualityIssue

	dc.statsLock.Lock()
	defer dc.statsLock.Unlock()

	for _, row := range rows {
		dc.stats.TotalProcessed++

		rejected := false
		for _, rule := range dc.rules {
			if err := rule.Apply(row); err != nil {
				issues = append(issues, QualityIssue{
					Type:      rule.Name(),
					Severity:  rule.Severity(),
					Message:   err.Error(),
					Row:       row.Index,
					Timestamp: time.Now(),
				})
				dc.stats.Issues[rule.Name()]++
				if rule.Severity() == SeverityHigh {
					rejected = true
				}
			}
		}

		if rejected {
			dc.stats.Rejected++
			continue
		}
		dc.stats.Passed++
		cleaned = append(cleaned, row)
	}

	dc.stats.LastClean = time.Now()
	return cleaned, issues
}

// GetStats 获取统计信息
func (dc *DataCleaner) GetStats() CleaningStats {
	dc.statsLock.RLock()
	defer dc.statsLock.RUnlock()

	stats := dc.stats
	stats.Issues = make(map[string]int64, len(dc.stats.Issues))
	for k, v := range dc.stats.Issues {
		stats.Issues[k] = v
	}
	return stats
}

// RowsFrom pairs feature rows with their labels.
func RowsFrom(features [][]float64, labels []float64) []*Row {
	rows := make([]*Row, len(features))
	for i := range features {
		rows[i] = &Row{Index: i + 1, Values: features[i], Label: labels[i]}
	}
	return rows
}

// ============ 清洗规则实现 ============

// NonNegativeRule 临床测量值不能为负
type NonNegativeRule struct {
	columns []string
}

func NewNonNegativeRule(columns []string) *NonNegativeRule {
	return &NonNegativeRule{columns: columns}
}

func (r *NonNegativeRule) Name() string     { return "non_negative" }
func (r *NonNegativeRule) Severity() string { return SeverityHigh }

func (r *NonNegativeRule) Apply(row *Row) error {
	for i, v := range row.Values {
		if v < 0 {
			return fmt.Errorf("%s is negative: %g", columnName(r.columns, i), v)
		}
	}
	return nil
}

// BinaryColumnRule 二值列只允许0或1
type BinaryColumnRule struct {
	columns []string
	indices []int
}

func NewBinaryColumnRule(columns, binary []string) *BinaryColumnRule {
	rule := &BinaryColumnRule{columns: columns}
	for _, name := range binary {
		for i, column := range columns {
			if column == name {
				rule.indices = append(rule.indices, i)
			}
		}
	}
	return rule
}

func (r *BinaryColumnRule) Name() string     { return "binary_column" }
func (r *BinaryColumnRule) Severity() string { return SeverityHigh }

func (r *BinaryColumnRule) Apply(row *Row) error {
	for _, i := range r.indices {
		if i >= len(row.Values) {
			return fmt.Errorf("row has %d values, want at least %d", len(row.Values), i+1)
		}
		if v := row.Values[i]; v != 0 && v != 1 {
			return fmt.Errorf("%s must be 0 or 1, got %g", r.columns[i], v)
		}
	}
	return nil
}

// BinaryLabelRule 标签只允许0或1
type BinaryLabelRule struct{}

func NewBinaryLabelRule() *BinaryLabelRule { return &BinaryLabelRule{} }

func (r *BinaryLabelRule) Name() string     { return "binary_label" }
func (r *BinaryLabelRule) Severity() string { return SeverityHigh }

func (r *BinaryLabelRule) Apply(row *Row) error {
	if row.Label != 0 && row.Label != 1 {
		return fmt.Errorf("label must be 0 or 1, got %g", row.Label)
	}
	return nil
}

// DuplicateDetectionRule 重复行检测，只报告不拒绝
type DuplicateDetectionRule struct {
	seen map[string]int
}

func NewDuplicateDetectionRule() *DuplicateDetectionRule {
	return &DuplicateDetectionRule{seen: make(map[string]int)}
}

func (r *DuplicateDetectionRule) Name() string     { return "duplicate" }
func (r *DuplicateDetectionRule) Severity() string { return SeverityLow }

func (r *DuplicateDetectionRule) Apply(row *Row) error {
	parts := make([]string, 0, len(row.Values)+1)
	for _, v := range row.Values {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	parts = append(parts, strconv.FormatFloat(row.Label, 'g', -1, 64))
	key := strings.Join(parts, ",")

	if first, ok := r.seen[key]; ok {
		return fmt.Errorf("duplicate of row %d", first)
	}
	r.seen[key] = row.Index
	return nil
}

// SummarizeIssues counts issues per rule, sorted by rule name.
func SummarizeIssues(issues []QualityIssue) []string {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	summary := make([]string, len(names))
	for i, name := range names {
		summary[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	return summary
}

func columnName(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return fmt.Sprintf("column %d", i)
}
