package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "onedim")
	require.NoError(t, err)

	c.ObserveEval("flame", time.Millisecond)
	c.ObserveEval("flame", time.Millisecond)
	c.ObserveJacobian(time.Millisecond)
	c.ObserveTimeStep(false)
	c.ObserveSolve(true, time.Second)
	c.SetGridPoints("flame", 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.evaluations.WithLabelValues("flame")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jacobians))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.timeSteps.WithLabelValues("failure")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.gridPoints.WithLabelValues("flame")))

	_, err = New(reg, "onedim")
	assert.Error(t, err, "重复注册应失败")
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveEval("x", 0)
		c.ObserveJacobian(0)
		c.ObserveNewton(true)
		c.ObserveTimeStep(true)
		c.ObserveSolve(false, 0)
		c.SetGridPoints("x", 1)
	})
}
