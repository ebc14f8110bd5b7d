// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tail

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsTail holds Prometheus metrics for the live tail subsystem.
type metricsTail struct {
	once sync.Once

	notifications prometheus.Counter
	eventsDropped prometheus.Counter
	reads         prometheus.Counter
	messagesRead  prometheus.Counter
}

var tailMetrics metricsTail

func (m *metricsTail) init() {
	m.once.Do(func() {
		m.notifications = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_tail_notifications_total", Help: "Debounced file change notifications delivered"})
		m.eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_tail_events_dropped_total", Help: "Filesystem events dropped on queue overflow"})
		m.reads = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_tail_reads_total", Help: "Incremental file reads"})
		m.messagesRead = prometheus.NewCounter(prometheus.CounterOpts{Name: "loglens_tail_messages_read_total", Help: "Messages parsed from incremental reads"})

		prometheus.MustRegister(m.notifications, m.eventsDropped, m.reads, m.messagesRead)
	})
}

// record helpers - used by the reader and notifier for metrics tracking
func recordNotification()      { tailMetrics.init(); tailMetrics.notifications.Inc() }
func recordEventDropped()      { tailMetrics.init(); tailMetrics.eventsDropped.Inc() }
func recordRead()              { tailMetrics.init(); tailMetrics.reads.Inc() }
func recordMessagesRead(n int) { tailMetrics.init(); tailMetrics.messagesRead.Add(float64(n)) }
