package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/mtaadao/treasury/cmd/treasury/container"
	"github.com/mtaadao/treasury/cmd/treasury/handlers"
	"github.com/mtaadao/treasury/common/middleware"
)

// RegisterMultisigRoutes registers all withdrawal-approval routes
func RegisterMultisigRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewMultisigHandler(c.MultisigService)

	multisig := e.Group("/api/v1/funds/:fundId/multisig")
	if c.RateLimiter != nil {
		multisig.Use(middleware.FundRateLimitMiddleware(
			c.RateLimiter,
			c.Components.Config.RateLimit.FundMutationsPerMin,
		))
	}
	{
		multisig.POST("/propose", h.Propose)             // POST /api/v1/funds/:fundId/multisig/propose
		multisig.POST("/:proposalId/sign", h.Sign)       // POST /api/v1/funds/:fundId/multisig/:proposalId/sign
		multisig.POST("/:proposalId/reject", h.Reject)   // POST /api/v1/funds/:fundId/multisig/:proposalId/reject
		multisig.GET("/pending", h.ListPending)          // GET  /api/v1/funds/:fundId/multisig/pending
	}
}
