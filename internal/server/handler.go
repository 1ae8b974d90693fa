package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"PricePulse/internal/logger"
	"PricePulse/internal/model"
	"PricePulse/internal/store"
)

// Runner produces a dashboard; *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*model.Dashboard, error)
}

// Handler serves the prediction and dashboard API.
type Handler struct {
	store  store.PredictionStore
	runner Runner
	log    *logger.Logger
}

// NewHandler creates a Handler. runner may be nil, in which case dashboard
// routes are not registered.
func NewHandler(st store.PredictionStore, runner Runner, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{store: st, runner: runner, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/bitcoin", h.savePrediction)
	api.GET("/bitcoin", h.listPredictions)
	if h.runner != nil {
		api.GET("/dashboard", h.runPipeline)
		api.POST("/forecast/run", h.runPipeline)
	}
	e.GET("/healthz", h.health)
}

type saveRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

type listQuery struct {
	Order string `query:"order" default:"asc" validate:"oneof=asc desc"`
	Limit int    `query:"limit" validate:"gte=0,lte=100000"`
}

// predictionDTO is a stored row on the wire.
type predictionDTO struct {
	ID        int64   `json:"id"`
	Value     float64 `json:"value"`
	CreatedAt string  `json:"created_at"`
}

func toDTO(p model.Prediction) predictionDTO {
	return predictionDTO{
		ID:        p.ID,
		Value:     p.Value,
		CreatedAt: p.CreatedAt.UTC().Format(model.CreatedAtLayout),
	}
}

type saveResponse struct {
	Success bool          `json:"success"`
	Value   float64       `json:"value"`
	Data    predictionDTO `json:"data"`
}

type listResponse struct {
	Success bool            `json:"success"`
	Data    []predictionDTO `json:"data"`
}

func (h *Handler) savePrediction(c echo.Context) error {
	var req saveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return InvalidValueError().WithError(err)
	}

	p, err := h.store.Save(c.Request().Context(), *req.Value)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, saveResponse{Success: true, Value: p.Value, Data: toDTO(p)})
}

func (h *Handler) listPredictions(c echo.Context) error {
	var q listQuery
	if err := bindAndValidate(c, &q); err != nil {
		return BadRequestError(err.Error()).WithError(err)
	}

	preds, err := h.store.ListAll(c.Request().Context())
	if err != nil {
		return storeError(err)
	}

	if q.Limit > 0 && len(preds) > q.Limit {
		preds = preds[len(preds)-q.Limit:]
	}
	data := make([]predictionDTO, len(preds))
	for i, p := range preds {
		data[i] = toDTO(p)
	}
	if q.Order == "desc" {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	return c.JSON(http.StatusOK, listResponse{Success: true, Data: data})
}

func (h *Handler) runPipeline(c echo.Context) error {
	d, err := h.runner.Run(c.Request().Context())
	if err != nil {
		if model.IsStructural(err) {
			return UnprocessableError(err)
		}
		return InternalError("forecast run failed").WithError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
