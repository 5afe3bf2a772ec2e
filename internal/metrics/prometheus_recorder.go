package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compileDuration  prom.Histogram
	compileResults   *prom.CounterVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	buildConcurrency prom.Gauge
	watchRebuilds    prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "stylebuilder",
			Name:      "compile_duration_seconds",
			Help:      "Duration of individual sass compiler runs",
			Buckets:   prom.DefBuckets,
		}),
		compileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stylebuilder",
			Name:      "compile_results_total",
			Help:      "Compiler run results by outcome",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "stylebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stylebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		buildConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: "stylebuilder",
			Name:      "build_concurrency",
			Help:      "Configured compiler concurrency for the last build",
		}),
		watchRebuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: "stylebuilder",
			Name:      "watch_rebuilds_total",
			Help:      "Rebuilds triggered by file changes",
		}),
	}
	reg.MustRegister(pr.compileDuration, pr.compileResults, pr.buildDuration, pr.buildOutcome, pr.buildConcurrency, pr.watchRebuilds)
	return pr
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.compileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.compileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetBuildConcurrency(n int) {
	if p == nil {
		return
	}
	p.buildConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) IncWatchRebuild() {
	if p == nil {
		return
	}
	p.watchRebuilds.Inc()
}
