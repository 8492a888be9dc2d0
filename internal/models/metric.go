package models

import (
	"encoding/json"
	"time"
)

// SystemMetric is a free-form operational telemetry sample, append-only.
type SystemMetric struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	MetricName     string          `json:"metric_name"`
	MetricValue    float64         `json:"metric_value"`
	MetricUnit     string          `json:"metric_unit,omitempty"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty"`
}
