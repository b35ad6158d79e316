package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Collect     *handlers.CollectHandler
	Metrics     *handlers.MetricsHandler
	Alerts      *handlers.AlertsHandler
	Incidents   *handlers.IncidentsHandler
	Deployments *handlers.DeploymentsHandler
	Sprints     *handlers.SprintsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	collect := app.Group("/collect")
	collect.Get("/status", cfg.Collect.Status)
	collect.Post("/tickets", cfg.Collect.Tickets)
	collect.Post("/sprints", cfg.Collect.Sprints)
	collect.Post("/commits", cfg.Collect.Commits)
	collect.Post("/merge-requests", cfg.Collect.MergeRequests)
	collect.Post("/infrastructure", cfg.Collect.Infrastructure)
	collect.Post("/costs", cfg.Collect.Costs)

	metrics := app.Group("/metrics")
	metrics.Get("/sprints/:id", cfg.Metrics.SprintMetrics)
	metrics.Get("/teams/:id/velocity", cfg.Metrics.TeamVelocity)
	metrics.Get("/timeseries", cfg.Metrics.TimeSeries)
	metrics.Get("/dora", cfg.Metrics.Dora)

	alerts := app.Group("/alerts")
	alerts.Get("", cfg.Alerts.ListUnresolved)
	alerts.Post("/:id/acknowledge", cfg.Alerts.Acknowledge)
	alerts.Post("/:id/resolve", cfg.Alerts.Resolve)

	incidents := app.Group("/incidents")
	incidents.Post("", cfg.Incidents.Create)
	incidents.Get("/metrics", cfg.Incidents.Metrics)
	incidents.Patch("/:id/status", cfg.Incidents.UpdateStatus)
	incidents.Patch("/:id/resolved-at", cfg.Incidents.AdjustResolvedAt)

	app.Post("/deployments", cfg.Deployments.Create)

	sprints := app.Group("/sprints")
	sprints.Post("/:id/start", cfg.Sprints.Start)
	sprints.Post("/:id/complete", cfg.Sprints.Complete)
}
