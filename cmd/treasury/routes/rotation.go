package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/mtaadao/treasury/cmd/treasury/container"
	"github.com/mtaadao/treasury/cmd/treasury/handlers"
	"github.com/mtaadao/treasury/common/middleware"
)

// RegisterRotationRoutes registers all rotation-related routes
func RegisterRotationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewRotationHandler(c.RotationService)

	rotation := e.Group("/api/v1/funds/:fundId/rotation")
	if c.RateLimiter != nil {
		rotation.Use(middleware.FundRateLimitMiddleware(
			c.RateLimiter,
			c.Components.Config.RateLimit.FundMutationsPerMin,
		))
	}
	{
		rotation.GET("/status", h.GetStatus)              // GET  /api/v1/funds/:fundId/rotation/status
		rotation.POST("/process", h.Process)              // POST /api/v1/funds/:fundId/rotation/process
		rotation.GET("/next-recipient", h.NextRecipient)  // GET  /api/v1/funds/:fundId/rotation/next-recipient
	}
}
