// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus instrumentation for rflink.
//
// All helpers are safe to call on a nil *Metrics, so components can take an
// optional instance without guarding every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for rflink.
type Metrics struct {
	// Simulator metrics
	SOAPRequests  *prometheus.CounterVec
	SOAPDuration  *prometheus.HistogramVec
	ConnectErrors *prometheus.CounterVec
	PoolReady     *prometheus.GaugeVec

	// Tunnel metrics
	ActiveConnections *prometheus.GaugeVec
	TotalConnections  *prometheus.CounterVec
	TunnelRequests    *prometheus.CounterVec
	TunnelDuration    *prometheus.HistogramVec
	MalformedFrames   *prometheus.CounterVec
	BytesTransferred  *prometheus.CounterVec
}

// New creates a new Metrics instance registered on reg. A nil reg gets a
// private registry, which keeps tests from colliding on the default one.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "rflink"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		SOAPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "soap_requests_total",
				Help:      "Total number of SOAP requests sent to the simulator",
			},
			[]string{"action", "status"},
		),
		SOAPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "soap_request_duration_seconds",
				Help:      "SOAP round trip duration in seconds",
				Buckets:   []float64{.0005, .001, .002, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"action"},
		),
		ConnectErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_errors_total",
				Help:      "Total number of failed connection attempts to the simulator",
			},
			[]string{"model"},
		),
		PoolReady: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_ready_connections",
				Help:      "Number of pre-established connections waiting in the pool",
			},
			[]string{"model"},
		),
		ActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tunnel_active_connections",
				Help:      "Number of currently connected tunnel clients",
			},
			[]string{"transport"},
		),
		TotalConnections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tunnel_connections_total",
				Help:      "Total number of tunnel client connections",
			},
			[]string{"transport"},
		),
		TunnelRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tunnel_requests_total",
				Help:      "Total number of tunnel requests processed",
			},
			[]string{"op", "status"},
		),
		TunnelDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tunnel_request_duration_seconds",
				Help:      "Tunnel request handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		MalformedFrames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tunnel_malformed_frames_total",
				Help:      "Total number of tunnel frames that could not be decoded",
			},
			[]string{"transport"},
		),
		BytesTransferred: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tunnel_bytes_total",
				Help:      "Total number of tunnel bytes by direction",
			},
			[]string{"transport", "direction"},
		),
	}

	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveSOAP tracks one simulator round trip.
func (m *Metrics) ObserveSOAP(action string, f func() (int, error)) (int, error) {
	start := time.Now()
	code, err := f()
	if m == nil {
		return code, err
	}

	label := status(err)
	if err == nil && code != 200 {
		label = "fault"
	}
	m.SOAPRequests.WithLabelValues(action, label).Inc()
	m.SOAPDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	return code, err
}

// ConnectFailed counts one failed connection attempt.
func (m *Metrics) ConnectFailed(model string) {
	if m == nil {
		return
	}
	m.ConnectErrors.WithLabelValues(model).Inc()
}

// SetReady records the ready queue length.
func (m *Metrics) SetReady(model string, n int) {
	if m == nil {
		return
	}
	m.PoolReady.WithLabelValues(model).Set(float64(n))
}

// ObserveConnection tracks a tunnel connection lifecycle.
func (m *Metrics) ObserveConnection(transport string, f func() error) error {
	if m == nil {
		return f()
	}
	m.TotalConnections.WithLabelValues(transport).Inc()
	m.ActiveConnections.WithLabelValues(transport).Inc()
	defer m.ActiveConnections.WithLabelValues(transport).Dec()

	return f()
}

// ObserveRequest tracks a tunnel request lifecycle.
func (m *Metrics) ObserveRequest(op string, f func() error) error {
	start := time.Now()
	err := f()
	if m == nil {
		return err
	}

	m.TunnelRequests.WithLabelValues(op, status(err)).Inc()
	m.TunnelDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	return err
}

// FrameMalformed counts one undecodable tunnel frame.
func (m *Metrics) FrameMalformed(transport string) {
	if m == nil {
		return
	}
	m.MalformedFrames.WithLabelValues(transport).Inc()
}

// AddBytes records traffic for one tunnel connection.
func (m *Metrics) AddBytes(transport string, in, out int64) {
	if m == nil {
		return
	}
	m.BytesTransferred.WithLabelValues(transport, "in").Add(float64(in))
	m.BytesTransferred.WithLabelValues(transport, "out").Add(float64(out))
}
