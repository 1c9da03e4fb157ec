// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package report // import "github.com/newrelic/nrdot-perftracking-components/internal/report"

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

var _ prometheus.Collector = (*Collector)(nil)

// Collector exposes a tracker snapshot as Prometheus gauges. The snapshot
// func is called on every scrape and must be safe to call from the scrape
// goroutine.
type Collector struct {
	snapshot func() []tracker.Record

	samples *prometheus.Desc
	peak    *prometheus.Desc
	avg     *prometheus.Desc
	total   *prometheus.Desc
	usage   *prometheus.Desc
}

func NewCollector(snapshot func() []tracker.Record) *Collector {
	labels := []string{"tracker"}
	return &Collector{
		snapshot: snapshot,
		samples:  prometheus.NewDesc("perftracker_samples", "Number of samples recorded by the tracker.", labels, nil),
		peak:     prometheus.NewDesc("perftracker_peak_seconds", "Slowest sample recorded by the tracker.", labels, nil),
		avg:      prometheus.NewDesc("perftracker_avg_seconds", "Average sample time of the tracker.", labels, nil),
		total:    prometheus.NewDesc("perftracker_total_seconds", "Accumulated time of the tracker.", labels, nil),
		usage:    prometheus.NewDesc("perftracker_usage_percent", "Share of all tracked time spent in the tracker.", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.samples
	ch <- c.peak
	ch <- c.avg
	ch <- c.total
	ch <- c.usage
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, r := range c.snapshot() {
		ch <- prometheus.MustNewConstMetric(c.samples, prometheus.GaugeValue, float64(r.SampleCount), r.Name)
		ch <- prometheus.MustNewConstMetric(c.peak, prometheus.GaugeValue, r.PeakTime, r.Name)
		ch <- prometheus.MustNewConstMetric(c.avg, prometheus.GaugeValue, r.AvgTime, r.Name)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, r.TotalTime, r.Name)
		ch <- prometheus.MustNewConstMetric(c.usage, prometheus.GaugeValue, r.Usage, r.Name)
	}
}
