package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCounterVecReusesRegistered(t *testing.T) {
	SetupMetricsManager("eds", "test", prometheus.NewRegistry())

	a := NewCounterVec("task-finished", []string{"type"})
	b := NewCounterVec("task-finished", []string{"type"})

	a.WithLabelValues("pdf-processing").Inc()
	b.WithLabelValues("pdf-processing").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(a.WithLabelValues("pdf-processing")))
}

func TestFmtFixer(t *testing.T) {
	assert.Equal(t, "api_response_time", FmtFixer("api.response-time"))
}
