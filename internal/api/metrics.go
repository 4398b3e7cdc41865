package api

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/playback"
	"github.com/AaronLay10/chaintour/internal/version"
)

const metricsNamespace = "chaintour"

var statusValues = []playback.Status{
	playback.StatusIdle,
	playback.StatusRunning,
	playback.StatusPaused,
	playback.StatusCompleted,
}

// newRegistry builds the registry behind /metrics. Every value is read on
// scrape, so nothing has to be updated from the hot path.
func newRegistry(s *Server) *prometheus.Registry {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	labels := prometheus.Labels{
		"instance": hostname,
		"version":  version.Version,
	}

	gauge := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, fn)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gauge("uptime_seconds", "Number of seconds since the server started",
			func() float64 { return time.Since(s.startTime).Seconds() }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "events_total",
			Help:        "Total number of events emitted since startup",
			ConstLabels: labels,
		}, func() float64 { return float64(events.TotalCount()) }),
		gauge("ws_clients", "Number of active WebSocket viewer connections",
			func() float64 { return float64(events.SubscriberCount()) }),
		gauge("playback_step", "Index of the current step (-1 when idle)",
			func() float64 { return float64(s.controls.State().CurrentStepIndex) }),
		gauge("playback_speed", "Current speed multiplier",
			func() float64 { return s.controls.State().Speed }),
		&statusCollector{
			s: s,
			desc: prometheus.NewDesc(
				prometheus.BuildFQName(metricsNamespace, "playback", "status"),
				"Playback status (1 for the current status, 0 otherwise)",
				[]string{"status"}, labels),
		},
	)
	return reg
}

// statusCollector reports the playback status as one gauge per status.
type statusCollector struct {
	s    *Server
	desc *prometheus.Desc
}

func (c *statusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *statusCollector) Collect(ch chan<- prometheus.Metric) {
	current := c.s.controls.State().Playback.Status
	for _, st := range statusValues {
		v := 0.0
		if st == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v, string(st))
	}
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
