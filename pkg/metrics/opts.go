// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package metrics

import "github.com/prometheus/client_golang/prometheus"

const DefaultMetricsNamespace = "crashwise"

type OptsFunc func(*mOpts)

// mOpts collects the shared knobs the typed constructors translate into
// prometheus option structs. Metric names get a per-type suffix unless
// withoutSuffix is set.
type mOpts struct {
	name          string
	help          string
	namespace     *string
	labels        map[string]string
	buckets       []float64
	quantile      map[float64]float64
	withoutSuffix bool
}

func WithNamespace(namespace string) OptsFunc {
	return func(o *mOpts) {
		o.namespace = &namespace
	}
}

func WithBuckets(buckets []float64) OptsFunc {
	return func(o *mOpts) {
		o.buckets = buckets
	}
}

func WithLabels(labels map[string]string) OptsFunc {
	return func(o *mOpts) {
		o.labels = labels
	}
}

func WithQuantile(quantile map[float64]float64) OptsFunc {
	return func(o *mOpts) {
		o.quantile = quantile
	}
}

func WithoutSuffix() OptsFunc {
	return func(o *mOpts) {
		o.withoutSuffix = true
	}
}

func (o *mOpts) metricName(suffix string) string {
	if o.withoutSuffix {
		return o.name
	}
	return o.name + suffix
}

func (o *mOpts) metricHelp(typeName string) string {
	help := o.help
	if help == "" {
		help = o.name
	}
	return help + " (" + typeName + ")"
}

func (o *mOpts) metricNamespace() string {
	if o.namespace != nil {
		return *o.namespace
	}
	return DefaultMetricsNamespace
}

func (o *mOpts) constLabels() prometheus.Labels {
	if o.labels == nil {
		return nil
	}
	return prometheus.Labels(o.labels)
}

func (o *mOpts) GetCounterOpts() prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_c"),
		Help:        o.metricHelp("counters"),
		ConstLabels: o.constLabels(),
	}
}

func (o *mOpts) GetGaugeOpts() prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_g"),
		Help:        o.metricHelp("gauge"),
		ConstLabels: o.constLabels(),
	}
}

func (o *mOpts) GetHistogramOpts() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_h"),
		Help:        o.metricHelp("histogram"),
		ConstLabels: o.constLabels(),
		Buckets:     o.buckets,
	}
}

func (o *mOpts) GetSummaryOpts() prometheus.SummaryOpts {
	return prometheus.SummaryOpts{
		Namespace:   o.metricNamespace(),
		Name:        o.metricName("_s"),
		Help:        o.metricHelp("summary"),
		ConstLabels: o.constLabels(),
		Objectives:  o.quantile,
	}
}
