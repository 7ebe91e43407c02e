package http

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"heartrisk/ml"
)

// formField describes one input of the prediction form. Sliders carry a
// range, binary choices carry their options with the default first.
type formField struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Default float64
	Step    float64
	Options []string

	encode func(string) (float64, error)
	assign func(*ml.ClinicalFeatures, float64)
}

func (f formField) IsChoice() bool { return len(f.Options) > 0 }

func (f formField) MinValue() string  { return formatNumber(f.Min) }
func (f formField) MaxValue() string  { return formatNumber(f.Max) }
func (f formField) StepValue() string { return formatNumber(f.Step) }

func (f formField) DefaultValue() string {
	if f.IsChoice() {
		return f.Options[0]
	}
	return formatNumber(f.Default)
}

// formFields is the display order of the form, not the feature order.
var formFields = []formField{
	{Name: "age", Label: "Age", Min: 0, Max: 120, Default: 100, Step: 1,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Age = v }},
	{Name: "creatinine_phosphokinase", Label: "Creatinine Phosphokinase", Min: 0, Max: 1200, Default: 1000, Step: 1,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.CreatininePhosphokinase = v }},
	{Name: "ejection_fraction", Label: "Ejection Fraction", Min: 1, Max: 100, Default: 70, Step: 1,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.EjectionFraction = v }},
	{Name: "anaemia", Label: "Anaemia", Options: []string{ml.ChoiceYes, ml.ChoiceNo}, encode: ml.EncodeYesNo,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Anaemia = v }},
	{Name: "diabetes", Label: "Diabetes", Options: []string{ml.ChoiceYes, ml.ChoiceNo}, encode: ml.EncodeYesNo,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Diabetes = v }},
	{Name: "sex", Label: "Sex", Options: []string{ml.ChoiceMale, ml.ChoiceFemale}, encode: ml.EncodeSex,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Sex = v }},
	{Name: "smoking", Label: "Smoking", Options: []string{ml.ChoiceYes, ml.ChoiceNo}, encode: ml.EncodeYesNo,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Smoking = v }},
	{Name: "high_blood_pressure", Label: "High Blood Pressure", Options: []string{ml.ChoiceYes, ml.ChoiceNo}, encode: ml.EncodeYesNo,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.HighBloodPressure = v }},
	{Name: "serum_creatinine", Label: "Serum Creatinine", Min: 0, Max: 10, Default: 8, Step: 0.1,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.SerumCreatinine = v }},
	{Name: "serum_sodium", Label: "Serum Sodium", Min: 40, Max: 160, Default: 100, Step: 1,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.SerumSodium = v }},
	{Name: "platelets", Label: "Platelets", Min: 10000, Max: 1200000, Default: 1000000, Step: 1000,
		assign: func(c *ml.ClinicalFeatures, v float64) { c.Platelets = v }},
}

// defaultFormValues returns the values the form starts with.
func defaultFormValues() map[string]string {
	values := make(map[string]string, len(formFields))
	for _, field := range formFields {
		values[field.Name] = field.DefaultValue()
	}
	return values
}

// parseFeatures validates submitted values against the widget ranges and
// choices. The returned map echoes what was submitted for re-rendering.
func parseFeatures(values url.Values) (ml.ClinicalFeatures, map[string]string, error) {
	var features ml.ClinicalFeatures
	echo := defaultFormValues()
	var problems []string

	for _, field := range formFields {
		raw := strings.TrimSpace(values.Get(field.Name))
		if raw == "" {
			problems = append(problems, fmt.Sprintf("%s is required", field.Label))
			continue
		}
		echo[field.Name] = raw

		if field.IsChoice() {
			v, err := field.encode(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", field.Label, err))
				continue
			}
			field.assign(&features, v)
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			problems = append(problems, fmt.Sprintf("%s must be a number", field.Label))
			continue
		}
		if v < field.Min || v > field.Max {
			problems = append(problems, fmt.Sprintf("%s must be between %s and %s",
				field.Label, formatNumber(field.Min), formatNumber(field.Max)))
			continue
		}
		field.assign(&features, v)
	}

	if len(problems) > 0 {
		return ml.ClinicalFeatures{}, echo, &InputError{Problems: problems}
	}
	return features, echo, nil
}

// InputError lists every form value that failed validation.
type InputError struct {
	Problems []string
}

func (e *InputError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
