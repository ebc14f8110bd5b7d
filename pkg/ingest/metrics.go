// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngest holds Prometheus metrics for the ingestion subsystem.
type metricsIngest struct {
	once sync.Once

	filesProcessed prometheus.Counter
	filesSkipped   prometheus.Counter
	filesFailed    prometheus.Counter
	messagesAdded  prometheus.Counter
	linesParsed    prometheus.Counter

	fingerprintDuration prometheus.Histogram
	parseDuration       prometheus.Histogram
	storeDuration       prometheus.Histogram
	totalDuration       prometheus.Histogram
}

var ingMetrics metricsIngest

func (m *metricsIngest) init() {
	m.once.Do(func() {
		m.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_ingest_files_processed_total", Help: "Log files fully re-ingested"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_ingest_files_skipped_total", Help: "Log files skipped as unchanged"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_ingest_files_failed_total", Help: "Log files that failed ingestion"})
		m.messagesAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_ingest_messages_added_total", Help: "Messages written to the store"})
		m.linesParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_ingest_lines_parsed_total", Help: "Raw JSONL lines scanned"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.fingerprintDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "loglens_ingest_fingerprint_seconds", Help: "Change detection duration per file", Buckets: buckets})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "loglens_ingest_parse_seconds", Help: "Parse duration per file", Buckets: buckets})
		m.storeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "loglens_ingest_store_seconds", Help: "Store write duration per file", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "loglens_ingest_total_seconds", Help: "Total ingestion run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesProcessed, m.filesSkipped, m.filesFailed,
			m.messagesAdded, m.linesParsed,
			m.fingerprintDuration, m.parseDuration, m.storeDuration, m.totalDuration,
		)
	})
}

// record helpers - used by the pipeline for metrics tracking
func recordFileProcessed()           { ingMetrics.init(); ingMetrics.filesProcessed.Inc() }
func recordFileSkipped()             { ingMetrics.init(); ingMetrics.filesSkipped.Inc() }
func recordFileFailed()              { ingMetrics.init(); ingMetrics.filesFailed.Inc() }
func recordMessagesAdded(n int)      { ingMetrics.init(); ingMetrics.messagesAdded.Add(float64(n)) }
func recordLinesParsed(n int)        { ingMetrics.init(); ingMetrics.linesParsed.Add(float64(n)) }
func observeFingerprint(sec float64) { ingMetrics.init(); ingMetrics.fingerprintDuration.Observe(sec) }
func observeParse(sec float64)       { ingMetrics.init(); ingMetrics.parseDuration.Observe(sec) }
func observeStore(sec float64)       { ingMetrics.init(); ingMetrics.storeDuration.Observe(sec) }
func observeTotal(sec float64)       { ingMetrics.init(); ingMetrics.totalDuration.Observe(sec) }
