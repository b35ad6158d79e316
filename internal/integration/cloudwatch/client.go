package cloudwatch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
)

// Client wraps the CloudWatch and Cost Explorer APIs behind the fetch
// operations the infra collector needs.
type Client struct {
	cw     *cloudwatch.Client
	ce     *costexplorer.Client
	period int32
	logger *zap.Logger
}

// NewClient loads the default AWS credential chain for the configured region.
func NewClient(ctx context.Context, cfg config.AWSConfig, logger *zap.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{
		cw:     cloudwatch.NewFromConfig(awsCfg),
		ce:     costexplorer.NewFromConfig(awsCfg),
		period: cfg.PeriodSeconds,
		logger: logger,
	}, nil
}

// GetMetricStatistics fetches average/maximum/minimum statistic buckets for
// one metric of one resource over the given range.
func (c *Client) GetMetricStatistics(ctx context.Context, namespace, metricName, dimensionName, dimensionValue string, rng domain.DateRange) (*MetricSeries, error) {
	out, err := c.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespace),
		MetricName: aws.String(metricName),
		StartTime:  aws.Time(rng.Start),
		EndTime:    aws.Time(rng.End),
		Period:     aws.Int32(c.period),
		Statistics: []cwtypes.Statistic{
			cwtypes.StatisticAverage,
			cwtypes.StatisticMaximum,
			cwtypes.StatisticMinimum,
			cwtypes.StatisticSampleCount,
		},
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dimensionName), Value: aws.String(dimensionValue)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get metric statistics %s/%s: %w", namespace, metricName, err)
	}

	series := &MetricSeries{
		Namespace:      namespace,
		MetricName:     metricName,
		DimensionName:  dimensionName,
		DimensionValue: dimensionValue,
	}
	for _, dp := range out.Datapoints {
		point := MetricPoint{
			Average:     aws.ToFloat64(dp.Average),
			Maximum:     aws.ToFloat64(dp.Maximum),
			Minimum:     aws.ToFloat64(dp.Minimum),
			SampleCount: aws.ToFloat64(dp.SampleCount),
		}
		if dp.Timestamp != nil {
			point.Timestamp = *dp.Timestamp
		}
		if series.Unit == "" {
			series.Unit = string(dp.Unit)
		}
		series.Points = append(series.Points, point)
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Timestamp.Before(series.Points[j].Timestamp)
	})
	return series, nil
}

// GetDailyCosts fetches daily unblended cost buckets for [start, end).
func (c *Client) GetDailyCosts(ctx context.Context, start, end time.Time) ([]CostPoint, error) {
	out, err := c.ce.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
	})
	if err != nil {
		return nil, fmt.Errorf("get cost and usage: %w", err)
	}

	var points []CostPoint
	for _, result := range out.ResultsByTime {
		cost, ok := result.Total["UnblendedCost"]
		if !ok || cost.Amount == nil {
			continue
		}
		amount, err := strconv.ParseFloat(*cost.Amount, 64)
		if err != nil {
			c.logger.Warn("unparseable cost amount", zap.String("amount", *cost.Amount))
			continue
		}
		point := CostPoint{Amount: amount, Unit: aws.ToString(cost.Unit)}
		if result.TimePeriod != nil && result.TimePeriod.Start != nil {
			date, err := time.Parse("2006-01-02", *result.TimePeriod.Start)
			if err == nil {
				point.Date = date
			}
		}
		points = append(points, point)
	}
	return points, nil
}
