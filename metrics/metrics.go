package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector 求解过程的 Prometheus 指标，nil 接收者为空操作
type Collector struct {
	evaluations   *prometheus.CounterVec
	evalDuration  *prometheus.HistogramVec
	jacobians     prometheus.Counter
	jacDuration   prometheus.Histogram
	newtonIters   *prometheus.CounterVec
	timeSteps     *prometheus.CounterVec
	solves        *prometheus.CounterVec
	solveDuration prometheus.Histogram
	gridPoints    *prometheus.GaugeVec
}

// New 创建指标并注册到 reg
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "residual_evaluations_total",
			Help:      "Total number of charged residual evaluations per domain",
		}, []string{"domain"}),
		evalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "residual_evaluation_seconds",
			Help:      "Duration of residual evaluation per domain",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"domain"}),
		jacobians: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jacobian_evaluations_total",
			Help:      "Total number of Jacobian evaluations",
		}),
		jacDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "jacobian_evaluation_seconds",
			Help:      "Duration of Jacobian evaluation and factorization",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		newtonIters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newton_iterations_total",
			Help:      "Total number of Newton iterations",
		}, []string{"mode"}),
		timeSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "time_steps_total",
			Help:      "Total number of pseudo-time steps",
		}, []string{"status"}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Total number of solves",
		}, []string{"status"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Duration of solves in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		gridPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_points",
			Help:      "Current number of grid points per domain",
		}, []string{"domain"}),
	}
	for _, col := range []prometheus.Collector{
		c.evaluations, c.evalDuration, c.jacobians, c.jacDuration,
		c.newtonIters, c.timeSteps, c.solves, c.solveDuration, c.gridPoints,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveEval 记录一次残差计算
func (c *Collector) ObserveEval(domain string, d time.Duration) {
	if c == nil {
		return
	}
	c.evaluations.WithLabelValues(domain).Inc()
	c.evalDuration.WithLabelValues(domain).Observe(d.Seconds())
}

// ObserveJacobian 记录一次雅可比计算
func (c *Collector) ObserveJacobian(d time.Duration) {
	if c == nil {
		return
	}
	c.jacobians.Inc()
	c.jacDuration.Observe(d.Seconds())
}

// ObserveNewton 记录牛顿迭代
func (c *Collector) ObserveNewton(transient bool) {
	if c == nil {
		return
	}
	mode := "steady"
	if transient {
		mode = "transient"
	}
	c.newtonIters.WithLabelValues(mode).Inc()
}

// ObserveTimeStep 记录伪时间步
func (c *Collector) ObserveTimeStep(ok bool) {
	if c == nil {
		return
	}
	c.timeSteps.WithLabelValues(status(ok)).Inc()
}

// ObserveSolve 记录一次求解
func (c *Collector) ObserveSolve(ok bool, d time.Duration) {
	if c == nil {
		return
	}
	c.solves.WithLabelValues(status(ok)).Inc()
	c.solveDuration.Observe(d.Seconds())
}

// SetGridPoints 记录区域网格点数
func (c *Collector) SetGridPoints(domain string, n int) {
	if c == nil {
		return
	}
	c.gridPoints.WithLabelValues(domain).Set(float64(n))
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
