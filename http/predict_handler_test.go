package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"heartrisk/db"
	"heartrisk/ml"
)

type fakeSource struct {
	model ml.MLModel
	err   error
}

func (f *fakeSource) Model() (ml.MLModel, error) {
	return f.model, f.err
}

func zapNop() *zap.Logger { return zap.NewNop() }

// ageOnlyModel scores the example patient (age 60) at 0.85.
func ageOnlyModel() *ml.LinearRegression {
	model := ml.NewLinearRegression()
	model.Coefficients = make([]float64, len(ml.FeatureNames()))
	model.Coefficients[0] = 0.01
	model.Intercept = 0.25
	return model
}

func newTestMux(source ModelSource, trainingLog func(int) ([]db.TrainingLog, error)) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterHandlers(mux, NewHandlers(source, trainingLog, nil))
	return mux
}

func exampleForm() url.Values {
	return url.Values{
		"age":                      {"60"},
		"anaemia":                  {"No"},
		"creatinine_phosphokinase": {"500"},
		"diabetes":                 {"No"},
		"ejection_fraction":        {"38"},
		"high_blood_pressure":      {"No"},
		"platelets":                {"250000"},
		"serum_creatinine":         {"1.1"},
		"serum_sodium":             {"136"},
		"sex":                      {"Female"},
		"smoking":                  {"No"},
	}
}

func postForm(mux http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleForm(t *testing.T) {
	mux := newTestMux(&fakeSource{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Heart Failure Chance Predictor",
		`name="platelets" min="10000" max="1200000" step="1000" value="1000000"`,
		`name="age" min="0" max="120" step="1" value="100"`,
		`name="sex" value="Male" checked`,
		`name="anaemia" value="Yes" checked`,
		"Predict Heart Failure Chance",
		`<output for="age">100</output>`,
		`<script src="/static/form.js" defer></script>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "Your prediction") {
		t.Fatal("form page should not show a prediction")
	}
}

func TestHandlePredictForm(t *testing.T) {
	mux := newTestMux(&fakeSource{model: ageOnlyModel()}, nil)

	w := postForm(mux, exampleForm())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		"Your prediction Chance of Heart Failure is 85.00%",
		"Strong chances of Heart Failure",
		"Disclaimer:",
		`name="sex" value="Female" checked`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestHandlePredictFormMissingModel(t *testing.T) {
	store, err := ml.NewModelStore(ml.ModelTypeLinearRegression, filepath.Join(t.TempDir(), "heart.model"), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	mux := newTestMux(store, nil)

	w := postForm(mux, exampleForm())

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Error Loading the model") {
		t.Fatalf("expected model load message, got %s", body)
	}
	if strings.Contains(body, "Your prediction") {
		t.Fatal("no prediction should be shown")
	}
}

func TestHandlePredictFormPredictionError(t *testing.T) {
	broken := &ml.LinearRegression{Coefficients: []float64{1, 2}}
	mux := newTestMux(&fakeSource{model: broken}, nil)

	w := postForm(mux, exampleForm())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error Making the prediction") {
		t.Fatalf("expected prediction error message, got %s", w.Body.String())
	}
}

func TestHandlePredictFormInvalidInput(t *testing.T) {
	mux := newTestMux(&fakeSource{model: ageOnlyModel()}, nil)

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{name: "age above range", field: "age", value: "130", want: "Age must be between 0 and 120"},
		{name: "platelets below range", field: "platelets", value: "5000", want: "Platelets must be between 10000 and 1200000"},
		{name: "not a number", field: "serum_sodium", value: "abc", want: "Serum Sodium must be a number"},
		{name: "third sex state", field: "sex", value: "Other", want: "Sex: invalid choice"},
		{name: "lowercase yes", field: "smoking", value: "yes", want: "Smoking: invalid choice"},
		{name: "missing", field: "diabetes", value: "", want: "Diabetes is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := exampleForm()
			values.Set(tt.field, tt.value)

			w := postForm(mux, values)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("expected %q in body", tt.want)
			}
		})
	}
}

func TestHandlePredictJSON(t *testing.T) {
	mux := newTestMux(&fakeSource{model: ageOnlyModel()}, nil)

	body := `{"age":60,"anaemia":"No","creatinine_phosphokinase":500,"diabetes":"No","ejection_fraction":38,
		"high_blood_pressure":"No","platelets":250000,"serum_creatinine":1.1,"serum_sodium":136,"sex":"Female","smoking":"No"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload ml.Assessment
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Percentage != "85.00%" || payload.Tier != ml.TierStrong {
		t.Fatalf("unexpected assessment %+v", payload)
	}
	if payload.Message != "Strong chances of Heart Failure" {
		t.Fatalf("unexpected message %q", payload.Message)
	}
}

func TestHandlePredictJSONErrors(t *testing.T) {
	valid := `{"age":60,"anaemia":"No","creatinine_phosphokinase":500,"diabetes":"No","ejection_fraction":38,
		"high_blood_pressure":"No","platelets":250000,"serum_creatinine":1.1,"serum_sodium":136,"sex":"Female","smoking":"No"}`

	tests := []struct {
		name   string
		source ModelSource
		body   string
		status int
		kind   string
	}{
		{name: "missing model", source: &fakeSource{err: &ml.ModelLoadError{Path: "heart.model", Err: errMissing}}, body: valid, status: http.StatusServiceUnavailable, kind: "model_load"},
		{name: "prediction failure", source: &fakeSource{model: &ml.LinearRegression{Coefficients: []float64{1}}}, body: valid, status: http.StatusInternalServerError, kind: "prediction"},
		{name: "unknown field", source: &fakeSource{model: ageOnlyModel()}, body: `{"cholesterol":200}`, status: http.StatusBadRequest, kind: "invalid_input"},
		{name: "missing fields", source: &fakeSource{model: ageOnlyModel()}, body: `{"age":60}`, status: http.StatusBadRequest, kind: "invalid_input"},
		{name: "malformed", source: &fakeSource{model: ageOnlyModel()}, body: `{`, status: http.StatusBadRequest, kind: "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(tt.source, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			var payload map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if payload["kind"] != tt.kind {
				t.Fatalf("expected kind %s, got %s (%s)", tt.kind, payload["kind"], payload["error"])
			}
		})
	}
}
