// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package keys

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	fetchErrors prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "key_cache_hits",
				Help: "Number of public key lookups served from cache",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "key_cache_misses",
				Help: "Number of public key lookups that required a fetch",
			},
		),
		fetchErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "key_fetch_errors",
				Help: "Number of failed public key fetches",
			},
		),
	}

	registerer.MustRegister(m.cacheHits)
	registerer.MustRegister(m.cacheMisses)
	registerer.MustRegister(m.fetchErrors)

	return &m
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) fetchError() {
	if m != nil {
		m.fetchErrors.Inc()
	}
}
