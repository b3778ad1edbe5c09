package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/middleware"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/utils"
)

type RecommendationHandler struct {
	recommendationService *services.RecommendationService
}

func NewRecommendationHandler(recommendationService *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	resp, err := h.recommendationService.Recommend(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, "Failed to build recommendations", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Recommendations generated", resp))
}
