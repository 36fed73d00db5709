package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

const namespace = "premium_monitor"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycles_total",
			Help:      "Refresh cycles by result.",
		},
		[]string{"result"},
	)

	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of refresh cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	records = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "records",
			Help:      "Spread records in the latest published snapshot.",
		},
	)

	exchangeRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "exchange_rate",
			Help:      "Rate used by the latest published snapshot.",
		},
	)

	rateFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rate",
			Name:      "fallbacks_total",
			Help:      "Snapshots built with the fallback exchange rate.",
		},
	)

	droppedAssets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "dropped_assets_total",
			Help:      "Assets skipped because of malformed or unusable data.",
		},
	)

	sourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "failures_total",
			Help:      "Upstream source failures by source and kind.",
		},
		[]string{"source", "kind"},
	)

	alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "events_total",
			Help:      "Alert events by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	Registry.MustRegister(
		cycles,
		cycleDuration,
		records,
		exchangeRate,
		rateFallbacks,
		droppedAssets,
		sourceFailures,
		alerts,
		httpRequests,
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordCycle records one refresh cycle outcome.
func RecordCycle(snap *domain.RankedSnapshot, err error, took time.Duration) {
	cycleDuration.Observe(took.Seconds())
	if err != nil {
		cycles.WithLabelValues("failure").Inc()
		recordSourceErrors(err)
		return
	}
	cycles.WithLabelValues("success").Inc()
	if snap == nil {
		return
	}
	records.Set(float64(len(snap.Records)))
	exchangeRate.Set(snap.Rate.Value)
	if snap.Health.RateFallback {
		rateFallbacks.Inc()
	}
	if !snap.Health.StatusAvailable {
		sourceFailures.WithLabelValues(string(application.SourceStatus), string(application.FailureUnavailable)).Inc()
	}
	droppedAssets.Add(float64(snap.Health.DroppedAssets))
}

// RecordAlerts records the outcome of one alert poll.
func RecordAlerts(rep application.AlertReport, err error) {
	if err != nil {
		alerts.WithLabelValues("poll_failed").Inc()
		recordSourceErrors(err)
		return
	}
	result := "sent"
	if rep.DeliveryErr != nil {
		result = "send_failed"
	}
	alerts.WithLabelValues(result).Add(float64(len(rep.Sent)))
	alerts.WithLabelValues("suppressed").Add(float64(len(rep.Suppressed)))
	alerts.WithLabelValues("recovered").Add(float64(len(rep.Recovered)))
}

// RecordHTTP counts a served request.
func RecordHTTP(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// recordSourceErrors counts every SourceError inside err, including joined ones.
func recordSourceErrors(err error) {
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if se, ok := e.(*application.SourceError); ok {
			sourceFailures.WithLabelValues(string(se.Source), string(se.Kind)).Inc()
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
}
