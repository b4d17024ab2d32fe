package svc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zeromicro/go-zero/core/metric"
)

const (
	metricsNamespace = "tracker_probe"
	metricsSubsystem = "announcer"

	announceMetricName = metricsNamespace + "_" + metricsSubsystem + "_announce"
)

const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
	OutcomeLoadError    = "load_error"
)

var (
	metricAnnounceCounter  metric.CounterVec
	metricAnnounceDuration metric.HistogramVec
)

func init() {
	metricAnnounceCounter = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "announce",
		Labels:    []string{"result"},
	})
	metricAnnounceDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "announce_duration_ms",
		Labels:    []string{"result"},
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
	})
}

// AnnounceCounts reads the announce counter back from g, keyed by outcome.
// Counts stay empty unless the Prometheus agent was started.
func AnnounceCounts(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, errors.Trace(err)
	}
	counts := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != announceMetricName {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" {
					counts[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return counts, nil
}

// FormatCounts renders counts as "outcome=n" pairs sorted by outcome.
func FormatCounts(counts map[string]float64) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, int64(counts[k])))
	}
	return strings.Join(parts, " ")
}
