// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricOpts contains naming pieces of the exposed metric
type MetricOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

// Counter creates a prometheus.CounterVec and registers it with reg
func Counter(reg prometheus.Registerer, opts MetricOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      help(opts),
	}, labels)
	reg.MustRegister(c)
	return c
}

// Gauge creates a prometheus.GaugeVec and registers it with reg
func Gauge(reg prometheus.Registerer, opts MetricOpts, labels []string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      help(opts),
	}, labels)
	reg.MustRegister(g)
	return g
}

// Histogram creates a prometheus.HistogramVec and registers it with reg
func Histogram(reg prometheus.Registerer, opts MetricOpts, labels []string, buckets []float64) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Subsystem: opts.Subsystem,
		Name:      opts.Name,
		Help:      help(opts),
		Buckets:   buckets,
	}, labels)
	reg.MustRegister(h)
	return h
}

// WriteTextfile dumps everything gathered by g into path in the text
// exposition format, for pickup by the node exporter textfile collector
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}

func help(opts MetricOpts) string {
	if opts.Help != "" {
		return opts.Help
	}
	return strings.ReplaceAll(opts.Name, "_", " ")
}
