package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/middleware"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/utils"
)

type PricingHandler struct {
	pricingService *services.PricingService
}

func NewPricingHandler(pricingService *services.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

func (h *PricingHandler) CreateQuote(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		respondError(c, "Failed to create quote", err)
		return
	}
	c.JSON(http.StatusCreated, utils.SuccessResponse("Quote created", quote))
}

// GetQuote only shows guests their own quotes; admins see all.
func (h *PricingHandler) GetQuote(c *gin.Context) {
	quoteID := c.Param("id")
	if quoteID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Quote ID is required", ""))
		return
	}

	var (
		quote *models.PriceQuote
		err   error
	)
	if claims := middleware.CurrentClaims(c); claims != nil && claims.Role == middleware.RoleAdmin {
		quote, err = h.pricingService.GetQuote(c.Request.Context(), quoteID)
	} else {
		quote, err = h.pricingService.GetQuoteForUser(c.Request.Context(), quoteID, middleware.CurrentUserID(c))
	}
	if err != nil {
		respondError(c, "Failed to retrieve quote", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Quote retrieved", quote))
}
