// Package metrics records the outcome of one run in Prometheus text format,
// suitable for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/MeKo-Tech/isbnx/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds per-run gauges on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	success   prometheus.Gauge
	timestamp prometheus.Gauge
	found     prometheus.Gauge
	stage     *prometheus.GaugeVec
	failures  *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		success: f.NewGauge(prometheus.GaugeOpts{
			Name: "isbnx_last_run_success",
			Help: "1 if the last run completed, 0 if it failed",
		}),
		timestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "isbnx_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		found: f.NewGauge(prometheus.GaugeOpts{
			Name: "isbnx_isbns_found",
			Help: "Number of ISBN-13 symbols decoded in the last run",
		}),
		stage: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isbnx_stage_duration_seconds",
			Help: "Duration of each pipeline stage in the last run",
		}, []string{"stage"}), // stage: load, scan, total
		failures: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isbnx_last_run_failure",
			Help: "1 for the stage that failed the last run",
		}, []string{"stage"}), // stage: init, open, decode, copy, scan
	}
}

// ObserveResult records a completed run.
func (r *Recorder) ObserveResult(res *pipeline.Result) {
	r.success.Set(1)
	r.timestamp.Set(float64(time.Now().Unix()))
	r.found.Set(float64(res.Found()))
	r.stage.WithLabelValues("load").Set(time.Duration(res.Processing.LoadNs).Seconds())
	r.stage.WithLabelValues("scan").Set(time.Duration(res.Processing.ScanNs).Seconds())
	r.stage.WithLabelValues("total").Set(time.Duration(res.Processing.TotalNs).Seconds())
}

// ObserveFailure records a run that stopped at stage.
func (r *Recorder) ObserveFailure(stage string) {
	r.success.Set(0)
	r.timestamp.Set(float64(time.Now().Unix()))
	r.failures.WithLabelValues(stage).Set(1)
}

// WriteTextfile atomically writes the registry to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
