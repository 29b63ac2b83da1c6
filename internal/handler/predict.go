package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospital-portal/internal/metrics"
	"github.com/iliyamo/hospital-portal/internal/model"
	"github.com/iliyamo/hospital-portal/internal/predict"
	"github.com/iliyamo/hospital-portal/internal/service"
)

// RiskPredictor is satisfied by *predict.Predictor.
type RiskPredictor interface {
	Predict(data map[string]interface{}) (predict.Result, error)
}

// RecordStore appends and lists medical records.
type RecordStore interface {
	Create(ctx context.Context, rec *model.MedicalRecord) error
	List(ctx context.Context, limit int) ([]model.MedicalRecord, error)
}

// PredictHandler serves stroke risk predictions and the record log.
type PredictHandler struct {
	Predictor RiskPredictor
	Store     RecordStore
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

func NewPredictHandler(p RiskPredictor, records RecordStore, m *metrics.Metrics, log *slog.Logger) *PredictHandler {
	return &PredictHandler{Predictor: p, Store: records, Metrics: m, Log: log}
}

// Predict runs the model on the posted features and stores the outcome.
func (h *PredictHandler) Predict(c echo.Context) error {
	var data map[string]interface{}
	if err := c.Bind(&data); err != nil || data == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Predictor.Predict(data)
	if err != nil {
		_, _, code := statusFor(err)
		h.Metrics.Prediction(code)
		return writeError(c, h.Log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec := res.Record()
	if err := h.Store.Create(ctx, &rec); err != nil {
		h.Metrics.Prediction("persistence_error")
		return writeError(c, h.Log, fmt.Errorf("%w: %v", service.ErrPersistence, err))
	}
	h.Metrics.Prediction(res.Risk)
	return c.JSON(http.StatusOK, echo.Map{
		"stroke_risk": res.Risk,
		"prediction":  res.Prediction,
		"probability": res.Probability,
		"record_id":   rec.ID,
	})
}

// Records lists the most recent predictions, newest first.
func (h *PredictHandler) Records(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit > 1000 {
		limit = 1000
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Store.List(ctx, limit)
	if err != nil {
		h.Log.Error("list records failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(recs), "records": recs})
}
