// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msglisten

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "msglisten"

// Metrics holds the prometheus collectors of one or more listeners.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	pushed             prometheus.Counter
	dropped            prometheus.Counter
	received           prometheus.Counter
	processed          prometheus.Counter
	failures           *prometheus.CounterVec
	queueDepth         prometheus.Gauge
	processingDuration prometheus.Histogram
}

// NewMetrics creates the collectors under the given subsystem and registers
// them with reg.
func NewMetrics(reg prometheus.Registerer, subsystem string) (*Metrics, error) {
	m := &Metrics{
		pushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "pushed_total",
			Help:      "Total messages accepted by PushMessage",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "dropped_total",
			Help:      "Total messages pushed after the queue was closed",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "received_total",
			Help:      "Total messages taken from the queue",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "processed_total",
			Help:      "Total messages processed without error",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total consumer-side failures by kind",
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Number of messages waiting in the queue",
		}),
		processingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystem,
			Name:      "processing_duration_seconds",
			Help:      "Time spent in the processing routine per message",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}

	collectors := []prometheus.Collector{
		m.pushed,
		m.dropped,
		m.received,
		m.processed,
		m.failures,
		m.queueDepth,
		m.processingDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) onPush() {
	if m == nil {
		return
	}
	m.pushed.Inc()
	m.queueDepth.Inc()
}

func (m *Metrics) onDrop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) onReceive() {
	if m == nil {
		return
	}
	m.received.Inc()
	m.queueDepth.Dec()
}

func (m *Metrics) onProcess(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.processingDuration.Observe(d.Seconds())
	if err == nil {
		m.processed.Inc()
	}
}

func (m *Metrics) onFailure(k FailureKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(k.String()).Inc()
}
