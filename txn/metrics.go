// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	submitted *prometheus.CounterVec
	confirmed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_submitted_count",
				Help: "Number of transactions broadcast",
			},
			[]string{"method"},
		),
		confirmed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_confirmed_count",
				Help: "Number of transactions mined with success status",
			},
			[]string{"method"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txn_failed_count",
				Help: "Number of transactions that failed to submit or reverted",
			},
			[]string{"method", "failure_reason"},
		),
	}

	registerer.MustRegister(m.submitted)
	registerer.MustRegister(m.confirmed)
	registerer.MustRegister(m.failed)

	return &m
}

func (m *Metrics) incSubmitted(method string) {
	if m != nil {
		m.submitted.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) incConfirmed(method string) {
	if m != nil {
		m.confirmed.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) incFailed(method, reason string) {
	if m != nil {
		m.failed.WithLabelValues(method, reason).Inc()
	}
}
