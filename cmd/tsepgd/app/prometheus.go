// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tsepg/tsepg/pkg/epg/collect"
)

const service = "tsepgd"

var defaultBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 900}

// passMetrics exposes Collection Coordinator pass outcomes, the
// domain-level counterpart to requestMetrics' per-request metrics.
type passMetrics struct {
	passesTotal       *prometheus.CounterVec
	passDuration      prometheus.Histogram
	servicesDiscovered prometheus.Gauge
	sectionsCollected prometheus.Counter
	programsPublished prometheus.Gauge
}

func newPassMetrics() *passMetrics {
	m := &passMetrics{
		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "passes_total",
			Help:        "Collection passes, partitioned by outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "pass_duration_seconds",
			Help:        "Collection pass duration.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     defaultBuckets,
		}),
		servicesDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "services_discovered",
			Help:        "Services discovered during the most recent pass.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		sectionsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "sections_collected_total",
			Help:        "EIT sections collected, cumulative.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		programsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "programs_published",
			Help:        "Programs in the most recently published snapshot.",
			ConstLabels: prometheus.Labels{"service": service},
		}),
	}
	prometheus.MustRegister(m.passesTotal, m.passDuration, m.servicesDiscovered,
		m.sectionsCollected, m.programsPublished)
	return m
}

func (m *passMetrics) Observe(stats collect.PassStats) {
	outcome := "success"
	if stats.Failed {
		outcome = "failure"
	}
	m.passesTotal.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(stats.Elapsed.Seconds())
	m.servicesDiscovered.Set(float64(stats.ServicesFound))
	m.sectionsCollected.Add(float64(stats.SectionsCollected))
	m.programsPublished.Set(float64(stats.ProgramsPublished))
}

// requestMetrics exposes per-route HTTP request counts and latency for
// the handful of API routes this daemon serves.
type requestMetrics struct {
	reqs    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newRequestMetrics() *requestMetrics {
	m := &requestMetrics{
		reqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests processed, partitioned by route and status code.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP response latency, partitioned by route.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     []float64{5, 10, 20, 50, 100, 200, 500, 1000},
		}, []string{"route"}),
	}
	prometheus.MustRegister(m.reqs, m.latency)
	return m
}

func (m *requestMetrics) middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := strconv.Itoa(ww.Status())
		latencyMS := float64(time.Since(start).Nanoseconds()) * 1e-6
		m.reqs.WithLabelValues(route, status).Inc()
		m.latency.WithLabelValues(route).Observe(latencyMS)
	}
	return http.HandlerFunc(fn)
}
