package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mtaadao/treasury/cmd/treasury/container"
	"github.com/mtaadao/treasury/cmd/treasury/routes"
	"github.com/mtaadao/treasury/cmd/treasury/scheduler"
	"github.com/mtaadao/treasury/common/bootstrap"
	custommw "github.com/mtaadao/treasury/common/middleware"
	"github.com/mtaadao/treasury/common/migrate"
	"github.com/mtaadao/treasury/common/server"
)

func main() {
	ctx := context.Background()

	// Optional .env for local development
	_ = godotenv.Load()

	// Bootstrap common components (config, logger, DB, redis, telemetry)
	components, err := bootstrap.Setup(ctx, "treasury")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap treasury: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Apply pending schema migrations before serving traffic
	runner, err := migrate.New(
		components.Config.DatabaseURL(),
		components.Config.Database.MigrationsDir,
		components.Logger,
	)
	if err != nil {
		components.Logger.Error("Failed to configure migrations", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		components.Logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Start the rotation poller and proposal expiry sweep
	sched := scheduler.New(
		serviceContainer.RotationService,
		serviceContainer.MultisigService,
		components.Redis,
		components.Logger,
		components.Config,
	)
	if err := sched.Start(); err != nil {
		components.Logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)
	if serviceContainer.RateLimiter != nil {
		e.Use(custommw.GlobalRateLimitMiddleware(
			serviceContainer.RateLimiter,
			components.Config.RateLimit.GlobalPerMin,
		))
	}

	// Setup health check
	setupHealthCheck(e)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "treasury",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterRotationRoutes(e, serviceContainer)
	routes.RegisterMultisigRoutes(e, serviceContainer)
}

// startServer serves the Echo handler with graceful shutdown on SIGTERM
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("treasury", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
