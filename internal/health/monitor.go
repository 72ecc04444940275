package health

import (
	"context"
	"sync"
	"time"
)

// Check probes one component. Critical checks make the whole system
// critical on failure; the rest only degrade it.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// Monitor runs checks and caches the report for a short interval.
type Monitor struct {
	checks   []Check
	interval time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *Report
}

// NewMonitor creates a monitor. A zero interval disables caching.
func NewMonitor(interval time.Duration, checks ...Check) *Monitor {
	return &Monitor{checks: checks, interval: interval}
}

// CheckHealth runs every check, or returns the cached report.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.interval {
		return m.lastReport
	}

	report := &Report{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentHealth, len(m.checks)),
	}

	for _, c := range m.checks {
		h := ComponentHealth{Name: c.Name, Status: StatusHealthy}
		if err := c.Probe(ctx); err != nil {
			h.Error = err.Error()
			h.Status = StatusDegraded
			if c.Critical {
				h.Status = StatusCritical
			}
		}
		report.Components[c.Name] = h

		// Worst case wins.
		switch {
		case h.Status == StatusCritical:
			report.Status = StatusCritical
		case h.Status == StatusDegraded && report.Status == StatusHealthy:
			report.Status = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
