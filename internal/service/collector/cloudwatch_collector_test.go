package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/integration/cloudwatch"
)

type fakeInfraClient struct {
	series   map[string]*cloudwatch.MetricSeries
	costs    []cloudwatch.CostPoint
	failFor  map[string]error
	requests []string
}

func (f *fakeInfraClient) GetMetricStatistics(_ context.Context, namespace, metricName, dimensionName, dimensionValue string, _ domain.DateRange) (*cloudwatch.MetricSeries, error) {
	f.requests = append(f.requests, namespace+"/"+metricName)
	if err, ok := f.failFor[metricName]; ok {
		return nil, err
	}
	if series, ok := f.series[metricName]; ok {
		return series, nil
	}
	return &cloudwatch.MetricSeries{
		Namespace:      namespace,
		MetricName:     metricName,
		DimensionName:  dimensionName,
		DimensionValue: dimensionValue,
	}, nil
}

func (f *fakeInfraClient) GetDailyCosts(_ context.Context, _, _ time.Time) ([]cloudwatch.CostPoint, error) {
	return f.costs, nil
}

func seriesOf(namespace, metricName string, values ...float64) *cloudwatch.MetricSeries {
	series := &cloudwatch.MetricSeries{
		Namespace:      namespace,
		MetricName:     metricName,
		DimensionValue: "resource-1",
		Unit:           "Percent",
	}
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		series.Points = append(series.Points, cloudwatch.MetricPoint{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Average:   v,
		})
	}
	return series
}

func TestCollectInstanceMetrics(t *testing.T) {
	client := &fakeInfraClient{series: map[string]*cloudwatch.MetricSeries{
		"CPUUtilization": seriesOf("AWS/EC2", "CPUUtilization", 40, 60, 80),
	}}
	metricRepo := &fakeMetricSink{}
	collector := NewCloudWatchCollector(client, metricRepo, zap.NewNop())

	result, err := collector.CollectInstanceMetrics(context.Background(), "i-1234", nil, domain.LastDays(1, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 0, result.ErrorCount)

	// EC2 pulls three metric names per resource.
	assert.Len(t, client.requests, 3)
	for _, metric := range metricRepo.created {
		assert.Equal(t, "CLOUDWATCH", metric.Source)
	}
}

func TestCollectResourceIndependentFailures(t *testing.T) {
	client := &fakeInfraClient{
		series: map[string]*cloudwatch.MetricSeries{
			"CPUUtilization": seriesOf("AWS/RDS", "CPUUtilization", 55),
		},
		failFor: map[string]error{"DatabaseConnections": errors.New("throttled")},
	}
	metricRepo := &fakeMetricSink{}
	collector := NewCloudWatchCollector(client, metricRepo, zap.NewNop())

	result, err := collector.CollectDatabaseMetrics(context.Background(), "db-1", nil, domain.LastDays(1, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	// CPUUtilization and ReadLatency still landed.
	assert.GreaterOrEqual(t, result.Count, 1)
}

func TestCollectForTeamWalksConfiguredGroups(t *testing.T) {
	client := &fakeInfraClient{}
	metricRepo := &fakeMetricSink{}
	collector := NewCloudWatchCollector(client, metricRepo, zap.NewNop())

	team := &domain.Team{
		ID: "team-1",
		AWSResources: map[string][]string{
			domain.AWSResourceEC2Instances:    {"i-1", "i-2"},
			domain.AWSResourceLambdaFunctions: {"fn-1"},
		},
	}
	collector.CollectForTeam(context.Background(), team, domain.LastDays(1, time.Now()))

	// 2 EC2 instances x 3 metrics + 1 Lambda x 3 metrics.
	assert.Len(t, client.requests, 9)
}

func TestCollectCostMetrics(t *testing.T) {
	client := &fakeInfraClient{costs: []cloudwatch.CostPoint{
		{Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Amount: 12.5, Unit: "USD"},
		{Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), Amount: 14.0, Unit: "USD"},
	}}
	metricRepo := &fakeMetricSink{}
	collector := NewCloudWatchCollector(client, metricRepo, zap.NewNop())

	teamID := "team-1"
	result, err := collector.CollectCostMetrics(context.Background(), &teamID, time.Now().AddDate(0, 0, -2), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	require.Len(t, metricRepo.created, 2)
	assert.Equal(t, domain.MetricTypeCost, metricRepo.created[0].Type)
	assert.Equal(t, "COST_EXPLORER", metricRepo.created[0].Source)
	assert.Equal(t, 12.5, metricRepo.created[0].Value)
}

// fakeMetricSink records created metrics and satisfies the metric repository.
type fakeMetricSink struct {
	created []domain.Metric
	failing bool
}

func (f *fakeMetricSink) Create(_ context.Context, metric *domain.Metric) error {
	if f.failing {
		return errors.New("insert failed")
	}
	f.created = append(f.created, *metric)
	return nil
}

func (f *fakeMetricSink) ListByTypeInRange(_ context.Context, _ domain.MetricType, _ domain.DateRange) ([]domain.Metric, error) {
	return nil, nil
}

func (f *fakeMetricSink) AverageValueForTeam(_ context.Context, _ domain.MetricType, _ string, _ domain.DateRange) (*float64, error) {
	return nil, nil
}

func (f *fakeMetricSink) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
