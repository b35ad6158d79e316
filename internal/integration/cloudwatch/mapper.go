package cloudwatch

import (
	"strconv"
	"strings"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// classificationRule maps a metric-name substring to a canonical type.
// Rules are evaluated top to bottom; the first match wins.
type classificationRule struct {
	substring  string
	metricType domain.MetricType
}

var classificationRules = []classificationRule{
	{"cpu", domain.MetricTypeCPUUtilization},
	{"memory", domain.MetricTypeMemoryUtilization},
	{"network", domain.MetricTypeNetworkThroughput},
	{"error", domain.MetricTypeErrorRate},
	{"latency", domain.MetricTypeLatency},
	{"duration", domain.MetricTypeLatency},
	{"request", domain.MetricTypeRequestCount},
	{"invocation", domain.MetricTypeRequestCount},
}

// namespaceDefaults is the fallback when no name rule matches. Heuristic,
// not authoritative.
var namespaceDefaults = map[string]domain.MetricType{
	"AWS/EC2":            domain.MetricTypeCPUUtilization,
	"AWS/ECS":            domain.MetricTypeCPUUtilization,
	"AWS/Lambda":         domain.MetricTypeCPUUtilization,
	"AWS/RDS":            domain.MetricTypeDatabaseConnections,
	"AWS/ApplicationELB": domain.MetricTypeRequestCount,
}

// ClassifyMetricType resolves a canonical metric type from a raw
// (namespace, metric name) pair.
func ClassifyMetricType(namespace, metricName string) domain.MetricType {
	name := strings.ToLower(metricName)
	for _, rule := range classificationRules {
		if strings.Contains(name, rule.substring) {
			return rule.metricType
		}
	}
	if fallback, ok := namespaceDefaults[namespace]; ok {
		return fallback
	}
	return domain.MetricTypeCustom
}

// MapSeries expands a statistic series into one metric row per datapoint,
// tagged with the resource identity and raw namespace as metadata.
func MapSeries(series *MetricSeries, teamID *string) []domain.Metric {
	metricType := ClassifyMetricType(series.Namespace, series.MetricName)
	metrics := make([]domain.Metric, 0, len(series.Points))
	for _, point := range series.Points {
		metrics = append(metrics, domain.Metric{
			Type:      metricType,
			Name:      series.MetricName,
			Value:     point.Average,
			Unit:      series.Unit,
			Source:    "CLOUDWATCH",
			TeamID:    teamID,
			Timestamp: point.Timestamp,
			Metadata: map[string]string{
				"namespace":        series.Namespace,
				"resource_id":      series.DimensionValue,
				"dimension_name":   series.DimensionName,
				"dimension_value":  series.DimensionValue,
				"max_value":        formatFloat(point.Maximum),
				"min_value":        formatFloat(point.Minimum),
				"data_point_count": formatFloat(point.SampleCount),
			},
		})
	}
	return metrics
}

// MapCostPoint builds one cost metric row from a daily cost bucket.
func MapCostPoint(point CostPoint, teamID *string) domain.Metric {
	unit := point.Unit
	if unit == "" {
		unit = "USD"
	}
	return domain.Metric{
		Type:      domain.MetricTypeCost,
		Name:      "DailyCost",
		Value:     point.Amount,
		Unit:      unit,
		Source:    "COST_EXPLORER",
		TeamID:    teamID,
		Timestamp: point.Date,
		Metadata:  map[string]string{"granularity": "DAILY"},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
