package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/rentals/api/internal/middleware"
)

// Routes bundles the handlers mounted by RegisterRoutes.
type Routes struct {
	Health     *HealthHandler
	Properties *PropertyHandler
	Leases     *LeaseHandler
	Auth       *middleware.Authenticator
}

// RegisterRoutes mounts every endpoint on r. Listing reads are public;
// creating a listing and reading its leases need a manager token.
func RegisterRoutes(r gin.IRouter, h Routes) {
	r.GET("/health", h.Health.Health)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/info", h.Health.Info)

	managerOnly := h.Auth.RequireRole(middleware.RoleManager)

	properties := r.Group("/properties")
	{
		properties.GET("", h.Properties.ListProperties)
		properties.GET("/:id", h.Properties.GetProperty)
		properties.POST("", managerOnly, h.Properties.CreateProperty)
		properties.GET("/:id/leases", managerOnly, h.Leases.GetPropertyLeases)
	}
}
