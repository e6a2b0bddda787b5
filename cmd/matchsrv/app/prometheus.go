// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultBuckets = []float64{5, 10, 20, 50, 100, 200, 500, 1000}
	prometheusMW   prometheusMiddleware
)

const (
	ingestReqsName    = "ingest_requests_total"
	ingestLatencyName = "ingest_request_duration_milliseconds"
	queryReqsName     = "query_requests_total"
	queryLatencyName  = "query_request_duration_milliseconds"
	service           = "matchsrv"
)

// prometheusMiddleware exposes prometheus metrics for ingest and query requests.
type prometheusMiddleware struct {
	ingestReqs    *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec
	queryReqs     *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
}

func init() {
	prometheusMW.ingestReqs = newCounter(ingestReqsName,
		"Number of ingest requests processed, partitioned by status code.", service)
	prometheusMW.ingestLatency = newHistogram(ingestLatencyName,
		"Ingest response latency.", service, defaultBuckets)
	prometheusMW.queryReqs = newCounter(queryReqsName,
		"Number of query requests processed, partitioned by status code.", service)
	prometheusMW.queryLatency = newHistogram(queryLatencyName,
		"Query response latency.", service, defaultBuckets)
}

// NewPrometheusMiddleware returns a new prometheus Middleware handler.
func NewPrometheusMiddleware() func(next http.Handler) http.Handler {
	return prometheusMW.handler
}

func (mw prometheusMiddleware) handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := strconv.Itoa(ww.Status())
		latencyMS := float64(time.Since(start).Nanoseconds()) * 1e-6

		switch {
		case strings.HasPrefix(path, "/ingest"):
			mw.ingestReqs.WithLabelValues(status).Inc()
			mw.ingestLatency.WithLabelValues(status).Observe(latencyMS)
		case strings.HasPrefix(path, "/query"):
			mw.queryReqs.WithLabelValues(status).Inc()
			mw.queryLatency.WithLabelValues(status).Observe(latencyMS)
		}
	}
	return http.HandlerFunc(fn)
}

func newCounter(counterName, help, serviceName string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        counterName,
			Help:        help,
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		[]string{"code"},
	)
	prometheus.MustRegister(cv)
	return cv
}

func newHistogram(histogramName, help, serviceName string, buckets []float64) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        histogramName,
		Help:        help,
		ConstLabels: prometheus.Labels{"service": serviceName},
		Buckets:     buckets,
	},
		[]string{"code"},
	)
	prometheus.MustRegister(h)
	return h
}
