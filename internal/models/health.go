package models

import "time"

type HealthState string

const (
	HealthStatusHealthy   HealthState = "healthy"
	HealthStatusUnhealthy HealthState = "unhealthy"
	HealthStatusUnknown   HealthState = "unknown"
)

// UpstreamHealth is the last result of polling the platform's /healthz.
type UpstreamHealth struct {
	Host      string      `json:"host"`
	State     HealthState `json:"state"`
	CheckedAt time.Time   `json:"checked_at,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    HealthState    `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Upstream  UpstreamHealth `json:"upstream"`
}
