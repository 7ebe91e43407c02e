package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// Dataset holds feature vectors in FeatureNames order and their outcome labels.
type Dataset struct {
	Features [][]float64
	Targets  []float64
}

func (d *Dataset) Len() int { return len(d.Targets) }

func LoadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dataset, err := ReadDataset(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dataset, nil
}

// ReadDataset parses a clinical records CSV. Columns are located by header
// name, so extra columns and any column order are accepted.
func ReadDataset(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}
	names := append(FeatureNames(), OutcomeColumn)
	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		indices[i] = idx
	}

	dataset := &Dataset{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		values := make([]float64, len(names))
		for i, idx := range indices {
			cell := strings.TrimSpace(record[idx])
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, names[i], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d column %s: %w", line, names[i], ErrNonFinite)
			}
			values[i] = v
		}
		last := len(values) - 1
		dataset.Features = append(dataset.Features, values[:last])
		dataset.Targets = append(dataset.Targets, values[last])
	}

	if dataset.Len() == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return dataset, nil
}

// SplitDataset shuffles with a fixed seed and holds out ceil(n*testRatio) rows.
func SplitDataset(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = DefaultTestRatio
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(features))

	testSize := int(math.Ceil(float64(len(features)) * testRatio))
	split := len(features) - testSize
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY
}
