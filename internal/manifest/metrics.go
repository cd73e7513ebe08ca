// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// handlerMetrics tracks per-verb request counts and latency through
// promauto.NewCounterVec/NewHistogramVec.
type handlerMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHandlerMetrics(reg prometheus.Registerer) *handlerMetrics {
	m := &handlerMetrics{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "wadm",
			Subsystem: "handler",
			Name:      "requests_total",
			Help:      "Total requests handled per verb and result.",
		}, []string{"verb", "result"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wadm",
			Subsystem: "handler",
			Name:      "request_duration_seconds",
			Help:      "Request handling latency per verb.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb"}),
	}
	return m
}

func (m *handlerMetrics) observe(verb, result string, start time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(verb, result).Inc()
	m.duration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
}
