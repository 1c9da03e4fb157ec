// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package report // import "github.com/newrelic/nrdot-perftracking-components/internal/report"

import (
	"sort"
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pmetric"
)

const (
	ScopeName = "github.com/newrelic/nrdot-perftracking-components/receiver/perftrackerreceiver"

	MetricSamples   = "perftracker.samples"
	MetricPeakTime  = "perftracker.time.peak"
	MetricAvgTime   = "perftracker.time.avg"
	MetricTotalTime = "perftracker.time.total"

	AttributeTrackerName = "tracker.name"
)

// ToMetrics converts rep into one gauge per value with a data point per tracker.
func ToMetrics(rep Report, resourceAttrs map[string]string, ts time.Time) pmetric.Metrics {
	md := pmetric.NewMetrics()
	rm := md.ResourceMetrics().AppendEmpty()

	keys := make([]string, 0, len(resourceAttrs))
	for k := range resourceAttrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rm.Resource().Attributes().PutStr(k, resourceAttrs[k])
	}

	sm := rm.ScopeMetrics().AppendEmpty()
	sm.Scope().SetName(ScopeName)
	stamp := pcommon.NewTimestampFromTime(ts)

	samples := newGauge(sm, MetricSamples, "Number of samples recorded by the tracker.", "{sample}")
	peak := newGauge(sm, MetricPeakTime, "Slowest sample recorded by the tracker.", "s")
	avg := newGauge(sm, MetricAvgTime, "Average sample time of the tracker.", "s")
	total := newGauge(sm, MetricTotalTime, "Accumulated time of the tracker.", "s")

	for _, info := range rep.Trackers {
		dp := samples.DataPoints().AppendEmpty()
		dp.SetIntValue(int64(info.Samples))
		setPoint(dp, info.Name, stamp)

		for _, v := range []struct {
			g pmetric.Gauge
			x float64
		}{{peak, info.PeakTime}, {avg, info.AvgTime}, {total, info.TotalTime}} {
			dp := v.g.DataPoints().AppendEmpty()
			dp.SetDoubleValue(v.x)
			setPoint(dp, info.Name, stamp)
		}
	}
	return md
}

func newGauge(sm pmetric.ScopeMetrics, name, description, unit string) pmetric.Gauge {
	m := sm.Metrics().AppendEmpty()
	m.SetName(name)
	m.SetDescription(description)
	m.SetUnit(unit)
	return m.SetEmptyGauge()
}

func setPoint(dp pmetric.NumberDataPoint, trackerName string, ts pcommon.Timestamp) {
	dp.SetTimestamp(ts)
	dp.Attributes().PutStr(AttributeTrackerName, trackerName)
}
