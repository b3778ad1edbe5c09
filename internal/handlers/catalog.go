package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/models"
	"booking-intelligence/internal/services"
	"booking-intelligence/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) ListRoomTypes(c *gin.Context) {
	roomTypes, err := h.catalogService.ListRoomTypes(c.Request.Context(), false)
	if err != nil {
		respondError(c, "Failed to list room types", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Room types retrieved", roomTypes))
}

func (h *CatalogHandler) UpsertRoomType(c *gin.Context) {
	var req models.RoomTypeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	roomType, err := h.catalogService.UpsertRoomType(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		respondError(c, "Failed to update room type", err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Room type updated", roomType))
}
