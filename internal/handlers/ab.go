package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/abtest"
	"booking-intelligence/internal/middleware"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/utils"
)

type ABHandler struct {
	assigner *abtest.Assigner
}

func NewABHandler(assigner *abtest.Assigner) *ABHandler {
	return &ABHandler{assigner: assigner}
}

func (h *ABHandler) Me(c *gin.Context) {
	assignment := h.assigner.Assign(c.Request.Context(), middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, utils.SuccessResponse("A/B group retrieved", assignment))
}

func (h *ABHandler) Override(c *gin.Context) {
	var req models.ABOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	userID := c.Param("userId")
	if err := h.assigner.Override(c.Request.Context(), userID, req.Group); err != nil {
		respondError(c, "Failed to override A/B group", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("A/B group updated", models.ABAssignment{
		UserID: userID,
		Group:  req.Group,
		Sticky: true,
	}))
}
