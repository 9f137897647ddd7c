// Package metrics exposes gowsd's internal counters and gauges as
// Prometheus metrics via client_golang, mirroring the teacher daemon's
// collector layout: one struct holding pre-registered vectors, wired into
// an HTTP handler at startup rather than constructed ad hoc per call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every metric gowsd exports. Callers obtain one via
// NewCollector and register it with a prometheus.Registerer once at
// startup.
type Collector struct {
	FTAttemptsTotal   *prometheus.CounterVec
	FTAttemptDuration *prometheus.HistogramVec
	FTPendingGauge    prometheus.Gauge

	DPPExchangesTotal *prometheus.CounterVec
	DPPWrapFailures   *prometheus.CounterVec

	RateEstimations *prometheus.CounterVec

	NetlinkRequestsTotal *prometheus.CounterVec
	NetlinkErrorsTotal   *prometheus.CounterVec
}

// NewCollector builds a Collector with all vectors initialized but not yet
// registered.
func NewCollector() *Collector {
	return &Collector{
		FTAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "ft",
			Name:      "attempts_total",
			Help:      "Total number of Fast BSS Transition roaming attempts by outcome.",
		}, []string{"outcome"}),
		FTAttemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gowsd",
			Subsystem: "ft",
			Name:      "attempt_duration_seconds",
			Help:      "Time from authentication request to final outcome for an FT attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		FTPendingGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gowsd",
			Subsystem: "ft",
			Name:      "pending_attempts",
			Help:      "Number of FT roaming attempts currently awaiting a response.",
		}),
		DPPExchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "dpp",
			Name:      "exchanges_total",
			Help:      "Total number of DPP authentication exchanges by outcome.",
		}, []string{"role", "outcome"}),
		DPPWrapFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "dpp",
			Name:      "wrap_failures_total",
			Help:      "Wrapped-data attribute seal/open failures by direction.",
		}, []string{"direction"}),
		RateEstimations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "band",
			Name:      "rate_estimations_total",
			Help:      "PHY rate estimations performed, by band class.",
		}, []string{"class"}),
		NetlinkRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "netlink",
			Name:      "requests_total",
			Help:      "nl80211 generic-netlink requests sent, by command.",
		}, []string{"command"}),
		NetlinkErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gowsd",
			Subsystem: "netlink",
			Name:      "errors_total",
			Help:      "nl80211 generic-netlink requests that returned an error, by command.",
		}, []string{"command"}),
	}
}

// MustRegister registers every vector in c with reg, panicking on a
// duplicate-registration collision (a programming error, not a runtime
// condition).
func (c *Collector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.FTAttemptsTotal,
		c.FTAttemptDuration,
		c.FTPendingGauge,
		c.DPPExchangesTotal,
		c.DPPWrapFailures,
		c.RateEstimations,
		c.NetlinkRequestsTotal,
		c.NetlinkErrorsTotal,
	)
}
