package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"heartrisk/ml"
)

type pageData struct {
	Fields []formField
	Values map[string]string
	Result *ml.Assessment
	Error  string
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageData{Fields: formFields, Values: defaultFormValues()})
}

func (h *Handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	data := pageData{Fields: formFields, Values: defaultFormValues()}
	if err := r.ParseForm(); err != nil {
		data.Error = "invalid form submission"
		h.render(w, http.StatusBadRequest, data)
		return
	}

	features, values, err := parseFeatures(r.PostForm)
	data.Values = values
	var assessment ml.Assessment
	if err == nil {
		assessment, err = h.predict(features)
	}
	if err != nil {
		status, kind, message := classifyError(err)
		h.metrics.RecordError(kind)
		data.Error = message
		h.render(w, status, data)
		return
	}
	data.Result = &assessment
	h.render(w, http.StatusOK, data)
}

// predictRequest mirrors the form: numbers for sliders, option labels for
// binary choices.
type predictRequest struct {
	Age                     *float64 `json:"age"`
	Anaemia                 string   `json:"anaemia"`
	CreatininePhosphokinase *float64 `json:"creatinine_phosphokinase"`
	Diabetes                string   `json:"diabetes"`
	EjectionFraction        *float64 `json:"ejection_fraction"`
	HighBloodPressure       string   `json:"high_blood_pressure"`
	Platelets               *float64 `json:"platelets"`
	SerumCreatinine         *float64 `json:"serum_creatinine"`
	SerumSodium             *float64 `json:"serum_sodium"`
	Sex                     string   `json:"sex"`
	Smoking                 string   `json:"smoking"`
}

func (p predictRequest) values() url.Values {
	values := url.Values{}
	numbers := map[string]*float64{
		"age":                      p.Age,
		"creatinine_phosphokinase": p.CreatininePhosphokinase,
		"ejection_fraction":        p.EjectionFraction,
		"platelets":                p.Platelets,
		"serum_creatinine":         p.SerumCreatinine,
		"serum_sodium":             p.SerumSodium,
	}
	for name, v := range numbers {
		if v != nil {
			values.Set(name, formatNumber(*v))
		}
	}
	choices := map[string]string{
		"anaemia":             p.Anaemia,
		"diabetes":            p.Diabetes,
		"high_blood_pressure": p.HighBloodPressure,
		"sex":                 p.Sex,
		"smoking":             p.Smoking,
	}
	for name, v := range choices {
		if v != "" {
			values.Set(name, v)
		}
	}
	return values
}

func (h *Handlers) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.metrics.RecordError("invalid_input")
		respondError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}

	features, _, err := parseFeatures(req.values())
	if err == nil {
		var assessment ml.Assessment
		if assessment, err = h.predict(features); err == nil {
			respondJSON(w, assessment)
			return
		}
	}
	status, kind, message := classifyError(err)
	h.metrics.RecordError(kind)
	respondError(w, status, kind, errors.New(message))
}

// predict loads the model for this request and scores one feature vector.
func (h *Handlers) predict(features ml.ClinicalFeatures) (ml.Assessment, error) {
	start := time.Now()
	model, err := h.models.Model()
	h.metrics.SetModelAvailable(err == nil)
	if err != nil {
		var loadErr *ml.ModelLoadError
		if !errors.As(err, &loadErr) {
			err = &ml.ModelLoadError{Err: err}
		}
		return ml.Assessment{}, err
	}

	if lr, ok := model.(*ml.LinearRegression); ok && len(lr.FeatureStats) > 0 {
		if names := ml.Preprocessor(lr.FeatureStats).OutOfRange(features); len(names) > 0 {
			h.logger.Debug("input outside training range", zap.Strings("features", names))
		}
	}

	score, err := ml.Score(model, features)
	if err != nil {
		h.logger.Error("Error Making the prediction", zap.Error(err))
		return ml.Assessment{}, err
	}
	assessment := ml.Assess(score)
	h.metrics.RecordPrediction(string(assessment.Tier), assessment.Fraction, time.Since(start))
	h.logger.Info("prediction",
		zap.Float64("score", score),
		zap.String("percentage", assessment.Percentage),
		zap.String("tier", string(assessment.Tier)))
	return assessment, nil
}

func classifyError(err error) (status int, kind string, message string) {
	var inputErr *InputError
	var loadErr *ml.ModelLoadError
	var predErr *ml.PredictionError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, "invalid_input", inputErr.Error()
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, "model_load", "Error Loading the model: " + loadErr.Err.Error()
	case errors.As(err, &predErr):
		return http.StatusInternalServerError, "prediction", "Error Making the prediction: " + predErr.Err.Error()
	default:
		return http.StatusInternalServerError, "internal", err.Error()
	}
}

func (h *Handlers) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.page.Execute(w, data); err != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}
