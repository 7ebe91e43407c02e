package http

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

//go:embed templates/*.html static/*
var assets embed.FS

// ModelSource hands out the model used for a request.
type ModelSource interface {
	Model() (ml.MLModel, error)
}

// TrainingLogFunc lists recorded training runs, newest first.
type TrainingLogFunc func(limit int) ([]db.TrainingLog, error)

type Handlers struct {
	models      ModelSource
	trainingLog TrainingLogFunc
	metrics     *monitoring.PredictionMetrics
	logger      *zap.Logger
	page        *template.Template
}

// NewHandlers wires the request handlers. trainingLog may be nil when no
// database is configured.
func NewHandlers(models ModelSource, trainingLog TrainingLogFunc, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		models:      models,
		trainingLog: trainingLog,
		metrics:     monitoring.NewPredictionMetrics(),
		logger:      logger,
		page:        template.Must(template.ParseFS(assets, "templates/index.html")),
	}
}

func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handlePredictForm)

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", h.handlePredictJSON)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("GET /api/training/log", h.handleTrainingLog)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /metrics", h.handlePrometheus)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

type modelInfo struct {
	ModelType    string      `json:"model_type"`
	FeatureNames []string    `json:"feature_names"`
	Coefficients []float64   `json:"coefficients"`
	Intercept    float64     `json:"intercept"`
	TrainedAt    string      `json:"trained_at,omitempty"`
	Metrics      *ml.Metrics `json:"metrics,omitempty"`

	FeatureStats []ml.ColumnStats `json:"feature_stats,omitempty"`
}

func (h *Handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.models.Model()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "model_load", err)
		return
	}
	lr, ok := model.(*ml.LinearRegression)
	if !ok {
		respondError(w, http.StatusNotImplemented, "model_load", errors.New("model does not expose coefficients"))
		return
	}

	info := modelInfo{
		ModelType:    ml.ModelTypeLinearRegression,
		FeatureNames: lr.FeatureNames,
		Coefficients: lr.Coefficients,
		Intercept:    lr.Intercept,
		Metrics:      lr.Metrics,
		FeatureStats: lr.FeatureStats,
	}
	if !lr.TrainedAt.IsZero() {
		info.TrainedAt = lr.TrainedAt.Format(time.RFC3339)
	}
	respondJSON(w, info)
}

func (h *Handlers) handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	if h.trainingLog == nil {
		respondJSON(w, map[string]interface{}{"runs": []db.TrainingLog{}})
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	runs, err := h.trainingLog(limit)
	if err != nil {
		h.logger.Error("load training log", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	respondJSON(w, map[string]interface{}{"runs": runs})
}

func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"predictions": h.metrics.Stats(),
		"system":      h.metrics.Collector().GetSystemStats(),
	})
}

func (h *Handlers) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.Collector().ExportPrometheus()))
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, kind string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "kind": kind})
}
