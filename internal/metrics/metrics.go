// Package metrics exposes a Prometheus registry for the scheduler's pulse
// loop, adapted from oriys-nova's internal/metrics/prometheus.go pattern
// (one namespaced registry, counters/histograms/gauges built up front and
// served via promhttp) and scoped down to what a single-process MUD core
// actually needs to watch: pulse timing, connection/player counts, saves,
// and crashes.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	pulseDuration   *prometheus.HistogramVec
	pulseOverruns   prometheus.Counter
	connections     prometheus.Gauge
	playersOnline   prometheus.Gauge
	savesTotal      *prometheus.CounterVec
	crashesTotal    prometheus.Counter
	copyoversTotal  prometheus.Counter
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		pulseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pulse_phase_seconds",
			Help:      "Wall time spent in each scheduler phase per pulse.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"phase"}),
		pulseOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulse_overruns_total",
			Help:      "Pulses whose total duration exceeded the configured budget.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Currently open descriptors.",
		}),
		playersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_online",
			Help:      "Players past login into PlayingMode.",
		}),
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Completed background saves by kind.",
		}, []string{"kind"}),
		crashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crashes_total",
			Help:      "Pulses that panicked and were recovered at the top level.",
		}),
		copyoversTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "copyovers_total",
			Help:      "Hot-restart copyovers performed.",
		}),
	}
	registry.MustRegister(m.pulseDuration, m.pulseOverruns, m.connections,
		m.playersOnline, m.savesTotal, m.crashesTotal, m.copyoversTotal)
	return m
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.pulseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) IncOverrun()               { m.pulseOverruns.Inc() }
func (m *Metrics) SetConnections(n int)      { m.connections.Set(float64(n)) }
func (m *Metrics) SetPlayersOnline(n int)    { m.playersOnline.Set(float64(n)) }
func (m *Metrics) IncSave(kind string)       { m.savesTotal.WithLabelValues(kind).Inc() }
func (m *Metrics) IncCrash()                 { m.crashesTotal.Inc() }
func (m *Metrics) IncCopyover()              { m.copyoversTotal.Inc() }

// Serve starts a loopback-only HTTP server exposing /metrics. Binding to a
// non-loopback address is rejected: this endpoint carries no auth and is
// meant for an in-cluster scraper, not the public telnet port.
func Serve(ctx context.Context, bindAddr string, m *Metrics) (*http.Server, error) {
	host, _, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return nil, err
	}
	if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		return nil, fmt.Errorf("metrics bind address %s is not loopback", bindAddr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: bindAddr, Handler: mux}

	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	go srv.Serve(ln)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv, nil
}
