package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordDecision(t *testing.T) {
	m := NewMetrics()

	m.RecordDecision("ALLOWED")
	m.RecordDecision("ALLOWED")
	m.RecordDecision("DENIED_NO_TOKEN")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("ALLOWED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("DENIED_NO_TOKEN")))
}

func TestMetrics_BackendAndRequests(t *testing.T) {
	m := NewMetrics()

	m.RecordBackendCall("/api/auth/login", 200)
	m.RecordRequest("/home", "GET", 303, 5*time.Millisecond)
	m.RecordError("/home", "GET", "BAD_GATEWAY")
	m.RecordValidation("valid", 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues("/api/auth/login", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/home", "GET", "303")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/home", "GET", "BAD_GATEWAY")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDecision("ALLOWED")
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordValidation("valid", time.Millisecond)
		m.RecordBackendCall("/x", 200)
	})
	assert.Nil(t, m.Registry())
}
