package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/abtest"
	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/utils"
)

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrRoomTypeNotFound),
		errors.Is(err, services.ErrQuoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrQuoteExpired):
		status = http.StatusGone
	case errors.Is(err, services.ErrInvalidRoomType),
		errors.Is(err, services.ErrInvalidCurrency),
		errors.Is(err, services.ErrInvalidBasePrice),
		errors.Is(err, services.ErrInvalidCheckIn),
		errors.Is(err, abtest.ErrInvalidGroup),
		errors.Is(err, recommend.ErrNoCandidates):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrTrainingInProgress):
		status = http.StatusConflict
	case errors.Is(err, recommend.ErrInsufficientData),
		errors.Is(err, recommend.ErrSingularMatrix):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRatePublisherDisabled):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, utils.ErrorResponse(message, err.Error()))
}
