package api

import (
	umetrics "github.com/userdeck/userdeck/pkg/metrics"
)

// LoginForm carries the form-encoded login credentials
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// HealthStatus represents the health check payload
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// MetricsReport represents the metrics endpoint payload
type MetricsReport struct {
	Timestamp string                         `json:"timestamp"`
	Uptime    string                         `json:"uptime"`
	Counters  map[string]float64             `json:"counters"`
	Gauges    map[string]float64             `json:"gauges"`
	Timers    map[string]umetrics.TimerStats `json:"timers"`
}
