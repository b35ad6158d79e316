package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/integration/cloudwatch"
	"github.com/spec-kit/delivery-insights/internal/repository"
)

// InfraClient is the fetch surface the infra-metrics collector depends on.
type InfraClient interface {
	GetMetricStatistics(ctx context.Context, namespace, metricName, dimensionName, dimensionValue string, rng domain.DateRange) (*cloudwatch.MetricSeries, error)
	GetDailyCosts(ctx context.Context, start, end time.Time) ([]cloudwatch.CostPoint, error)
}

// resourceKind describes which metrics to pull for one AWS resource type.
type resourceKind struct {
	namespace     string
	dimensionName string
	metricNames   []string
}

var (
	kindEC2 = resourceKind{
		namespace:     "AWS/EC2",
		dimensionName: "InstanceId",
		metricNames:   []string{"CPUUtilization", "NetworkIn", "NetworkOut"},
	}
	kindRDS = resourceKind{
		namespace:     "AWS/RDS",
		dimensionName: "DBInstanceIdentifier",
		metricNames:   []string{"CPUUtilization", "DatabaseConnections", "ReadLatency"},
	}
	kindECS = resourceKind{
		namespace:     "AWS/ECS",
		dimensionName: "ServiceName",
		metricNames:   []string{"CPUUtilization", "MemoryUtilization"},
	}
	kindLambda = resourceKind{
		namespace:     "AWS/Lambda",
		dimensionName: "FunctionName",
		metricNames:   []string{"Invocations", "Errors", "Duration"},
	}
	kindELB = resourceKind{
		namespace:     "AWS/ApplicationELB",
		dimensionName: "LoadBalancer",
		metricNames:   []string{"RequestCount", "HTTPCode_Target_5XX_Count", "TargetResponseTime"},
	}
)

// CloudWatchCollector ingests infrastructure metrics and cost data. Metric
// rows are append-only; repeated collection of the same window produces
// additional rows, so callers must keep cursor discipline.
type CloudWatchCollector struct {
	client  InfraClient
	metrics repository.MetricRepository
	logger  *zap.Logger
}

// NewCloudWatchCollector constructs the collector.
func NewCloudWatchCollector(client InfraClient, metrics repository.MetricRepository, logger *zap.Logger) *CloudWatchCollector {
	return &CloudWatchCollector{client: client, metrics: metrics, logger: logger}
}

// CollectInstanceMetrics pulls compute instance statistics for one resource.
func (c *CloudWatchCollector) CollectInstanceMetrics(ctx context.Context, resourceID string, teamID *string, rng domain.DateRange) (CollectionResult, error) {
	return c.collectResource(ctx, kindEC2, resourceID, teamID, rng), nil
}

// CollectDatabaseMetrics pulls managed database statistics for one resource.
func (c *CloudWatchCollector) CollectDatabaseMetrics(ctx context.Context, resourceID string, teamID *string, rng domain.DateRange) (CollectionResult, error) {
	return c.collectResource(ctx, kindRDS, resourceID, teamID, rng), nil
}

// CollectContainerMetrics pulls container service statistics for one resource.
func (c *CloudWatchCollector) CollectContainerMetrics(ctx context.Context, resourceID string, teamID *string, rng domain.DateRange) (CollectionResult, error) {
	return c.collectResource(ctx, kindECS, resourceID, teamID, rng), nil
}

// CollectFunctionMetrics pulls function statistics for one resource.
func (c *CloudWatchCollector) CollectFunctionMetrics(ctx context.Context, resourceID string, teamID *string, rng domain.DateRange) (CollectionResult, error) {
	return c.collectResource(ctx, kindLambda, resourceID, teamID, rng), nil
}

// CollectLoadBalancerMetrics pulls load balancer statistics for one resource.
func (c *CloudWatchCollector) CollectLoadBalancerMetrics(ctx context.Context, resourceID string, teamID *string, rng domain.DateRange) (CollectionResult, error) {
	return c.collectResource(ctx, kindELB, resourceID, teamID, rng), nil
}

// CollectCostMetrics pulls daily cost buckets for an explicit date range.
func (c *CloudWatchCollector) CollectCostMetrics(ctx context.Context, teamID *string, start, end time.Time) (CollectionResult, error) {
	points, err := c.client.GetDailyCosts(ctx, start, end)
	if err != nil {
		return CollectionResult{}, err
	}
	var result CollectionResult
	for _, point := range points {
		metric := cloudwatch.MapCostPoint(point, teamID)
		if err := c.metrics.Create(ctx, &metric); err != nil {
			result.ErrorCount++
			c.logger.Warn("cost metric insert failed", zap.Time("date", point.Date), zap.Error(err))
			continue
		}
		result.Count++
	}
	return result, nil
}

// CollectForTeam walks the team's configured resource groups. Each
// resource's outcome is independent; one failure never aborts the siblings.
func (c *CloudWatchCollector) CollectForTeam(ctx context.Context, team *domain.Team, rng domain.DateRange) CollectionResult {
	var result CollectionResult
	groups := []struct {
		key  string
		kind resourceKind
	}{
		{domain.AWSResourceEC2Instances, kindEC2},
		{domain.AWSResourceRDSInstances, kindRDS},
		{domain.AWSResourceECSServices, kindECS},
		{domain.AWSResourceLambdaFunctions, kindLambda},
		{domain.AWSResourceLoadBalancers, kindELB},
	}
	teamID := &team.ID
	for _, group := range groups {
		for _, resourceID := range team.ResourceIDs(group.key) {
			result = result.add(c.collectResource(ctx, group.kind, resourceID, teamID, rng))
		}
	}
	c.logger.Info("infra collection finished",
		zap.String("team", team.ID),
		zap.Int("count", result.Count),
		zap.Int("errors", result.ErrorCount),
	)
	return result
}

func (c *CloudWatchCollector) collectResource(ctx context.Context, kind resourceKind, resourceID string, teamID *string, rng domain.DateRange) CollectionResult {
	var result CollectionResult
	for _, metricName := range kind.metricNames {
		series, err := c.client.GetMetricStatistics(ctx, kind.namespace, metricName, kind.dimensionName, resourceID, rng)
		if err != nil {
			result.ErrorCount++
			c.logger.Warn("metric fetch failed",
				zap.String("namespace", kind.namespace),
				zap.String("metric", metricName),
				zap.String("resource", resourceID),
				zap.Error(err),
			)
			continue
		}
		for _, metric := range cloudwatch.MapSeries(series, teamID) {
			row := metric
			if err := c.metrics.Create(ctx, &row); err != nil {
				result.ErrorCount++
				c.logger.Warn("metric insert failed",
					zap.String("metric", metricName),
					zap.String("resource", resourceID),
					zap.Error(err),
				)
				continue
			}
			result.Count++
		}
	}
	return result
}
