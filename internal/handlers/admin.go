package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/models"
	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/utils"
)

type AdminHandler struct {
	engine           *recommend.Engine
	trainingService  *services.TrainingService
	analyticsService *services.AnalyticsService
	ratePublisher    *services.RatePublisher
}

func NewAdminHandler(engine *recommend.Engine, trainingService *services.TrainingService,
	analyticsService *services.AnalyticsService, ratePublisher *services.RatePublisher) *AdminHandler {
	return &AdminHandler{
		engine:           engine,
		trainingService:  trainingService,
		analyticsService: analyticsService,
		ratePublisher:    ratePublisher,
	}
}

func (h *AdminHandler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, utils.SuccessResponse("Model info retrieved", h.engine.Info()))
}

func (h *AdminHandler) TrainModel(c *gin.Context) {
	info, err := h.trainingService.Train(c.Request.Context())
	if err != nil {
		respondError(c, "Model training failed", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Model trained", info))
}

func (h *AdminHandler) ABReport(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid since parameter, expected RFC3339", err.Error()))
			return
		}
		since = parsed
	}

	report, err := h.analyticsService.ABReport(c.Request.Context(), since)
	if err != nil {
		respondError(c, "Failed to build A/B report", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("A/B report generated", report))
}

// PublishRates defaults to tomorrow's rates when no date is given.
func (h *AdminHandler) PublishRates(c *gin.Context) {
	var req models.RatePublishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
			return
		}
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC().AddDate(0, 0, 1)
	}

	result, err := h.ratePublisher.Publish(c.Request.Context(), req.Date)
	if err != nil {
		respondError(c, "Failed to publish rates", err)
		return
	}
	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, utils.SuccessResponse("Rates published", result))
}
