/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/redline-team/redline/api/types/events"
	"github.com/redline-team/redline/internal/version"
)

const (
	namespace         = "redline"
	hostnameLabel     = "hostname"
	methodLabel       = "method"
	taskTypeLabel     = "task_type"
	docEventTypeLabel = "doc_event_type"
)

// Metrics manages the metric information that Redline is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	operationResponseSeconds *prometheus.HistogramVec

	activeSessionsTotal   *prometheus.GaugeVec
	sessionsReapedTotal   *prometheus.CounterVec
	watchStreamConnsTotal *prometheus.GaugeVec

	docEventsPublishedTotal   *prometheus.CounterVec
	docEventPayloadBytesTotal *prometheus.CounterVec

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "server_handled_total",
			Help:      "Total number of RPCs completed on the server, regardless of success or failure.",
		}, []string{methodLabel, "code"}),
		operationResponseSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "response_seconds",
			Help:      "The response time of collaboration operations.",
		}, []string{methodLabel}),
		activeSessionsTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active_total",
			Help:      "The total number of active editing sessions on this server.",
		}, []string{hostnameLabel}),
		sessionsReapedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reaped_total",
			Help:      "The total number of sessions removed by the liveness reaper.",
		}, []string{hostnameLabel}),
		watchStreamConnsTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "watch_document_stream_connections_total",
			Help:      "The total number of document watch stream connections.",
		}, []string{hostnameLabel}),
		docEventsPublishedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "doc_events_published_total",
			Help:      "The total number of events published to document topics.",
		}, []string{hostnameLabel, docEventTypeLabel}),
		docEventPayloadBytesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "doc_event_payload_bytes_total",
			Help:      "The total bytes of event payloads published to document topics.",
		}, []string{hostnameLabel, docEventTypeLabel}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by a particular background task.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddServerHandledCounter adds the number of RPCs completed on the server.
func (m *Metrics) AddServerHandledCounter(method, code string) {
	m.serverHandledCounter.With(prometheus.Labels{
		methodLabel: method,
		"code":      code,
	}).Inc()
}

// ObserveOperationResponseSeconds adds an observation for the response time
// of the given operation.
func (m *Metrics) ObserveOperationResponseSeconds(method string, seconds float64) {
	m.operationResponseSeconds.With(prometheus.Labels{
		methodLabel: method,
	}).Observe(seconds)
}

// AddActiveSessions adds the number of active sessions.
func (m *Metrics) AddActiveSessions(hostname string) {
	m.activeSessionsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// RemoveActiveSessions removes the number of active sessions.
func (m *Metrics) RemoveActiveSessions(hostname string, count int) {
	m.activeSessionsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Sub(float64(count))
}

// AddReapedSessions adds the number of sessions collected by the reaper.
func (m *Metrics) AddReapedSessions(hostname string, count int) {
	m.sessionsReapedTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Add(float64(count))
}

// AddWatchStreamConnections adds the number of document watch stream connections.
func (m *Metrics) AddWatchStreamConnections(hostname string) {
	m.watchStreamConnsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// RemoveWatchStreamConnections removes the number of document watch stream connections.
func (m *Metrics) RemoveWatchStreamConnections(hostname string) {
	m.watchStreamConnsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Dec()
}

// AddDocEventsPublished adds the number of events published to a document
// topic, along with the payload size.
func (m *Metrics) AddDocEventsPublished(hostname string, eventType events.DocEventType, payloadBytes int) {
	m.docEventsPublishedTotal.With(prometheus.Labels{
		hostnameLabel:     hostname,
		docEventTypeLabel: string(eventType),
	}).Inc()

	m.docEventPayloadBytesTotal.With(prometheus.Labels{
		hostnameLabel:     hostname,
		docEventTypeLabel: string(eventType),
	}).Add(float64(payloadBytes))
}

// AddBackgroundGoroutines adds the number of goroutines attached by a particular background task.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by a particular background task.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
