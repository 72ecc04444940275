// Package health exposes liveness of the node connection and journal,
// together with the prometheus metrics endpoint.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Name   string       `json:"name"`
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Report is the full health report.
type Report struct {
	Status     SystemStatus               `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}
