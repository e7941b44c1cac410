// Copyright 2024 The shadowgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shadowgc

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors a Collector's health as Prometheus series: live bytes,
// the collection threshold, the number of collections run, the cumulative
// bytes freed across them, and a pause-duration histogram. This is purely
// ambient observability,
// grounded on aistore's stats package, which wires prometheus/client_golang
// throughout for exactly this kind of runtime-health telemetry.
type Metrics struct {
	liveBytes  prometheus.Gauge
	threshold  prometheus.Gauge
	collected  prometheus.Counter
	freedBytes prometheus.Counter
	pause      prometheus.Histogram
}

// NewMetrics builds a Metrics instance. Callers register it with their own
// prometheus.Registerer via Collectors(); shadowgc never reaches for a
// global registry itself.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		liveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "gc_live_bytes",
			Help: "Bytes currently live in the shadowgc heap.",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "gc_threshold_bytes",
			Help: "Live-byte total that will trigger the next collection.",
		}),
		collected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "gc_collections_total",
			Help: "Number of mark-sweep cycles run.",
		}),
		freedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "gc_freed_bytes_total",
			Help: "Cumulative bytes reclaimed across all collections.",
		}),
		pause: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "gc_pause_seconds",
			Help:    "Wall-clock duration of each mark-sweep cycle.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}
}

// Collectors returns every series for registration, e.g.
// registerer.MustRegister(m.Collectors()...).
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.liveBytes, m.threshold, m.collected, m.freedBytes, m.pause}
}

func (m *Metrics) observe(c *Collector, stats collectionStats) {
	m.liveBytes.Set(float64(stats.survivedBytes))
	m.threshold.Set(float64(c.threshold))
	m.collected.Inc()
	m.freedBytes.Add(float64(stats.freedBytes))
	m.pause.Observe(stats.duration.Seconds())
}
