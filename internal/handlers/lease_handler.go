package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/rentals/api/internal/errors"
	"github.com/stwalsh4118/rentals/api/internal/services"
)

// LeaseHandler handles lease HTTP requests.
type LeaseHandler struct {
	service services.LeaseService
}

// NewLeaseHandler creates a new LeaseHandler instance.
func NewLeaseHandler(service services.LeaseService) *LeaseHandler {
	return &LeaseHandler{service: service}
}

// GetPropertyLeases handles GET /properties/:id/leases.
func (h *LeaseHandler) GetPropertyLeases(c *gin.Context) {
	id, err := services.ParsePropertyID(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid property ID", map[string]interface{}{
			"id": c.Param("id"),
		})
		return
	}

	leases, err := h.service.GetLeasesByPropertyID(c.Request.Context(), id)
	if err != nil {
		apierrors.InternalServerError(c, "Error retrieving property leases", err)
		return
	}

	c.JSON(http.StatusOK, leases)
}
