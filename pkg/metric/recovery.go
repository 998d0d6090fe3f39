// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aprecover"

// Recovery holds the collectors updated by a recovery run
type Recovery struct {
	Runs          *prometheus.CounterVec
	Transactions  *prometheus.CounterVec
	ErasePolls    *prometheus.CounterVec
	EraseDuration *prometheus.HistogramVec
	Protection    *prometheus.GaugeVec
}

// NewRecovery creates the recovery collectors and registers them with reg
func NewRecovery(reg prometheus.Registerer) *Recovery {
	return &Recovery{
		Runs: Counter(reg, MetricOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Recovery runs by result.",
		}, []string{"result"}),
		Transactions: Counter(reg, MetricOpts{
			Namespace: namespace,
			Subsystem: "ap",
			Name:      "transactions_total",
			Help:      "Raw access port register transactions by direction and result.",
		}, []string{"op", "result"}),
		ErasePolls: Counter(reg, MetricOpts{
			Namespace: namespace,
			Subsystem: "erase",
			Name:      "polls_total",
			Help:      "ERASEALLSTATUS reads issued while waiting for a mass erase.",
		}, []string{"port"}),
		EraseDuration: Histogram(reg, MetricOpts{
			Namespace: namespace,
			Subsystem: "erase",
			Name:      "duration_seconds",
			Help:      "Time from ERASEALL until ERASEALLSTATUS reads 0.",
		}, []string{"port"}, prometheus.ExponentialBuckets(0.01, 2, 12)),
		Protection: Gauge(reg, MetricOpts{
			Namespace: namespace,
			Name:      "protection_disable_value",
			Help:      "Last value read from the protection disable registers.",
		}, []string{"port", "register"}),
	}
}
