package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/service/processor"
	apperrors "github.com/spec-kit/delivery-insights/pkg/util"
)

// MetricsHandler exposes derived-metric query endpoints.
type MetricsHandler struct {
	processor *processor.MetricsProcessor
	dora      *processor.DoraService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metricsProcessor *processor.MetricsProcessor, dora *processor.DoraService) *MetricsHandler {
	return &MetricsHandler{processor: metricsProcessor, dora: dora}
}

// SprintMetrics GET /metrics/sprints/:id.
func (h *MetricsHandler) SprintMetrics(c *fiber.Ctx) error {
	metrics, err := h.processor.SprintMetrics(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// TeamVelocity GET /metrics/teams/:id/velocity.
func (h *MetricsHandler) TeamVelocity(c *fiber.Ctx) error {
	sprintCount := parseInt(c.Query("sprints"), 6)
	velocity, err := h.processor.TeamVelocity(c.UserContext(), c.Params("id"), sprintCount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": velocity})
}

// TimeSeries GET /metrics/timeseries.
func (h *MetricsHandler) TimeSeries(c *fiber.Ctx) error {
	metricType := domain.MetricType(c.Query("type"))
	if metricType == "" {
		return apperrors.NewValidationError("type required", nil)
	}
	rng, err := parseRange(c, 7)
	if err != nil {
		return err
	}
	granularity := c.Query("granularity", processor.GranularityDaily)
	series, err := h.processor.TimeSeries(c.UserContext(), metricType, rng, granularity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": series})
}

// Dora GET /metrics/dora.
func (h *MetricsHandler) Dora(c *fiber.Ctx) error {
	rng, err := parseRange(c, 30)
	if err != nil {
		return err
	}
	report, err := h.dora.Calculate(c.UserContext(), rng)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func parseRange(c *fiber.Ctx, defaultDays int) (domain.DateRange, error) {
	from := parseTime(c.Query("from"))
	to := parseTime(c.Query("to"))
	if from != nil && to != nil {
		if !from.Before(*to) {
			return domain.DateRange{}, apperrors.NewValidationError("from must precede to", nil)
		}
		return domain.DateRange{Start: *from, End: *to}, nil
	}
	days := parseInt(c.Query("days"), defaultDays)
	return domain.LastDays(days, time.Now()), nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
