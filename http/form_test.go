package http

import (
	"errors"
	"net/url"
	"testing"

	"heartrisk/ml"
)

var errMissing = errors.New("no such file or directory")

func TestParseFeaturesAssemblesTrainingOrder(t *testing.T) {
	features, _, err := parseFeatures(exampleForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vector := ml.FeatureVector(features)
	want := []float64{60, 0, 500, 0, 38, 0, 250000, 1.1, 136, 1, 0}
	for i := range want {
		if vector[i] != want[i] {
			t.Fatalf("position %d (%s): expected %v, got %v", i, ml.FeatureNames()[i], want[i], vector[i])
		}
	}
}

func TestParseFeaturesEncodesChoices(t *testing.T) {
	values := exampleForm()
	values.Set("anaemia", "Yes")
	values.Set("diabetes", "Yes")
	values.Set("high_blood_pressure", "Yes")
	values.Set("smoking", "Yes")
	values.Set("sex", "Male")

	features, _, err := parseFeatures(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features.Anaemia != 1 || features.Diabetes != 1 || features.HighBloodPressure != 1 || features.Smoking != 1 {
		t.Fatalf("expected Yes -> 1, got %+v", features)
	}
	if features.Sex != 0 {
		t.Fatalf("expected Male -> 0, got %v", features.Sex)
	}
}

func TestParseFeaturesRangeBoundaries(t *testing.T) {
	for _, field := range formFields {
		if field.IsChoice() {
			continue
		}
		for _, v := range []float64{field.Min, field.Max} {
			values := exampleForm()
			values.Set(field.Name, formatNumber(v))
			if _, _, err := parseFeatures(values); err != nil {
				t.Fatalf("%s=%v should be accepted: %v", field.Name, v, err)
			}
		}
	}
}

func TestParseFeaturesReportsEveryProblem(t *testing.T) {
	_, echo, err := parseFeatures(url.Values{"age": {"500"}})
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if len(inputErr.Problems) != len(formFields) {
		t.Fatalf("expected %d problems, got %d: %v", len(formFields), len(inputErr.Problems), inputErr.Problems)
	}
	if echo["age"] != "500" {
		t.Fatalf("expected submitted value to be echoed, got %q", echo["age"])
	}
}

func TestDefaultFormValues(t *testing.T) {
	values := defaultFormValues()
	want := map[string]string{
		"age":                      "100",
		"creatinine_phosphokinase": "1000",
		"ejection_fraction":        "70",
		"serum_creatinine":         "8",
		"serum_sodium":             "100",
		"platelets":                "1000000",
		"anaemia":                  "Yes",
		"sex":                      "Male",
	}
	for name, v := range want {
		if values[name] != v {
			t.Fatalf("%s: expected default %s, got %s", name, v, values[name])
		}
	}
}
