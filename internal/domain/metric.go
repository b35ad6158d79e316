package domain

import "time"

// MetricType enumerates canonical time-series categories.
type MetricType string

const (
	MetricTypeCPUUtilization      MetricType = "CPU_UTILIZATION"
	MetricTypeMemoryUtilization   MetricType = "MEMORY_UTILIZATION"
	MetricTypeNetworkThroughput   MetricType = "NETWORK_THROUGHPUT"
	MetricTypeErrorRate           MetricType = "ERROR_RATE"
	MetricTypeLatency             MetricType = "LATENCY"
	MetricTypeRequestCount        MetricType = "REQUEST_COUNT"
	MetricTypeDatabaseConnections MetricType = "DATABASE_CONNECTIONS"
	MetricTypeCost                MetricType = "COST"
	MetricTypeVelocity            MetricType = "VELOCITY"
	MetricTypeCustom              MetricType = "CUSTOM"
)

// Metric is an append-only time-series row. Rows are only inserted and aged
// out, never updated; there is no dedup key.
type Metric struct {
	ID        string
	Type      MetricType
	Name      string
	Value     float64
	Unit      string
	Source    string
	TeamID    *string
	Timestamp time.Time
	Metadata  map[string]string
	CreatedAt time.Time
}
