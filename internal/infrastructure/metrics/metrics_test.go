package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGeneration_ObserveRun(t *testing.T) {
	m := NewGeneration(prometheus.NewRegistry())

	m.ObserveRun(ResultOK, 3, 10*time.Millisecond)
	m.ObserveRun(ResultNoop, 0, time.Millisecond)
	m.ObserveRun(ResultOK, 2, time.Millisecond)
	m.Conflicts.Inc()

	assert.Equal(t, float64(5), testutil.ToFloat64(m.InstancesCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Runs.WithLabelValues(ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues(ResultNoop)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Runs.WithLabelValues(ResultError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Conflicts))
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	NewGeneration(reg)
	NewHTTP(reg)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.Panics(t, func() { NewGeneration(reg) }, "metrics register once per registry")
}
