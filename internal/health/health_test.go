package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(ctx context.Context) error   { return nil }
func fail(ctx context.Context) error { return errors.New("down") }

func TestMonitor_Aggregates(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   SystemStatus
	}{
		{"all healthy", []Check{{Name: "node", Critical: true, Probe: ok}, {Name: "journal", Probe: ok}}, StatusHealthy},
		{"optional failing", []Check{{Name: "node", Critical: true, Probe: ok}, {Name: "journal", Probe: fail}}, StatusDegraded},
		{"critical failing", []Check{{Name: "node", Critical: true, Probe: fail}, {Name: "journal", Probe: ok}}, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewMonitor(0, tt.checks...).CheckHealth(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, len(tt.checks))
		})
	}
}

func TestMonitor_CachesReport(t *testing.T) {
	var calls atomic.Int32
	m := NewMonitor(time.Minute, Check{Name: "node", Probe: func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}})

	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

func TestServer_Endpoints(t *testing.T) {
	m := NewMonitor(0, Check{Name: "node", Critical: true, Probe: fail})
	srv := httptest.NewServer(NewServer(m, ":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "critical", body["status"])

	detailed, err := http.Get(srv.URL + "/health/detailed")
	require.NoError(t, err)
	defer detailed.Body.Close()
	var report Report
	require.NoError(t, json.NewDecoder(detailed.Body).Decode(&report))
	assert.Equal(t, "down", report.Components["node"].Error)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}
