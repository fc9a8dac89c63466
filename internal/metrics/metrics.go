// Package metrics exposes a job's runner.Stats as Prometheus gauges,
// generalizing the teacher's atomic Metrics/Snapshot/RequestsPerSecond
// counters (metrics/metrics.go) from a fixed "total/success/failed" trio
// into the full terminal-status breakdown spec.md §4.F names.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZeraTS/ironbullet-sub001/internal/runner"
)

// Exporter mirrors one runner.Stats onto its own Prometheus registry — a
// registry per job rather than the package-global default, since a single
// process may run more than one job (dashboard-driven runs) and the
// teacher's own global-counter approach doesn't survive that.
type Exporter struct {
	registry *prometheus.Registry

	attempted     prometheus.Gauge
	success       prometheus.Gauge
	fail          prometheus.Gauge
	retry         prometheus.Gauge
	ban           prometheus.Gauge
	custom        prometheus.Gauge
	errorCount    prometheus.Gauge
	cpm           prometheus.Gauge
	elapsedMs     prometheus.Gauge
	threadsActive prometheus.Gauge
}

// NewExporter builds an Exporter with its own registry and registers every
// gauge on it.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		attempted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_attempted_total", Help: "Records pulled from the data pool.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_success_total", Help: "Records classified Success.",
		}),
		fail: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_fail_total", Help: "Records classified Fail.",
		}),
		retry: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_retry_total", Help: "Retry attempts recorded before a terminal classification.",
		}),
		ban: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_ban_total", Help: "Records classified Ban.",
		}),
		custom: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_custom_total", Help: "Records classified Custom.",
		}),
		errorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_error_total", Help: "Records classified Error.",
		}),
		cpm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_cpm", Help: "Hits (Success+Custom) in the trailing 60 seconds.",
		}),
		elapsedMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_elapsed_ms", Help: "Milliseconds since the job started.",
		}),
		threadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ironbullet_threads_active", Help: "Worker goroutines currently running.",
		}),
	}
	e.registry.MustRegister(
		e.attempted, e.success, e.fail, e.retry, e.ban,
		e.custom, e.errorCount, e.cpm, e.elapsedMs, e.threadsActive,
	)
	return e
}

// Update sets every gauge from one runner.Stats snapshot. Call on whatever
// cadence the dashboard or CLI summary line polls at; gauges (not
// counters) because a job's stats can be read at any point in its life,
// not just monotonically.
func (e *Exporter) Update(snap runner.Snapshot) {
	e.attempted.Set(float64(snap.Attempted))
	e.success.Set(float64(snap.SuccessCount))
	e.fail.Set(float64(snap.FailCount))
	e.retry.Set(float64(snap.RetryCount))
	e.ban.Set(float64(snap.BanCount))
	e.custom.Set(float64(snap.CustomCount))
	e.errorCount.Set(float64(snap.ErrorCount))
	e.cpm.Set(float64(snap.CPM))
	e.elapsedMs.Set(float64(snap.ElapsedMs))
	e.threadsActive.Set(float64(snap.ThreadsActive))
}

// Handler returns the /metrics HTTP handler for this Exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
