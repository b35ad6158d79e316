package cloudwatch

import "time"

// MetricSeries is one metric's statistic datapoints for a single resource.
type MetricSeries struct {
	Namespace      string
	MetricName     string
	DimensionName  string
	DimensionValue string
	Unit           string
	Points         []MetricPoint
}

// MetricPoint is one aggregated statistic bucket.
type MetricPoint struct {
	Timestamp   time.Time
	Average     float64
	Maximum     float64
	Minimum     float64
	SampleCount float64
}

// CostPoint is one daily cost bucket.
type CostPoint struct {
	Date   time.Time
	Amount float64
	Unit   string
}
