package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/netsim/fabric-sim/internal/metrics"
)

var (
	droppedPacketsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fabric_sim_dropped_packets_total",
		Help: "Packets dropped by TTL exhaustion, no route, or a failed link.",
	})
	peakPortDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fabric_sim_peak_port_depth",
		Help: "Highest single-port queue occupancy observed across the fabric.",
	})
	stalledGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fabric_sim_stalled",
		Help: "1 if the run ended with unfinished flows, 0 otherwise.",
	})
)

// startMetricsServer serves the Prometheus registry on addr. This is
// additive to the structured metrics record (§6), not a replacement —
// the core runs the whole simulation in one synchronous call, so these
// gauges reflect the run's final state rather than a live trickle.
func startMetricsServer(addr string) (stop func(), err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.Warnf("metrics server shutdown: %v", err)
		}
	}, nil
}

// publishMetrics copies a finished run's record onto the live gauges.
func publishMetrics(rec *metrics.Record) {
	droppedPacketsGauge.Set(float64(rec.DroppedPackets))
	peak := 0
	for _, pd := range rec.PortDepths {
		if pd.PeakDepth > peak {
			peak = pd.PeakDepth
		}
	}
	peakPortDepthGauge.Set(float64(peak))
	if rec.Stalled {
		stalledGauge.Set(1)
	} else {
		stalledGauge.Set(0)
	}
}
