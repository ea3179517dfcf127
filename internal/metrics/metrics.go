// Package metrics defines the in-process Prometheus metrics of the viewer.
// They are registered with the default registry and can be dumped with
// `ttv --stats`.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "ttv"

// RemoteCallsTotal counts Toggl API calls.
// Labels:
//   - scope: workspaces, projects, clients or time_entries
//   - outcome: ok, unauthorized, rate_limited, server or network
var RemoteCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Total number of Toggl API calls, by scope and outcome.",
	},
	[]string{"scope", "outcome"},
)

// RemoteCallDuration measures Toggl API latency.
var RemoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of Toggl API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"scope"},
)

// CacheLookupsTotal counts cache reads.
// Labels:
//   - scope: cache scope
//   - result: hit, miss or error
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of cache lookups, by scope and result.",
	},
	[]string{"scope", "result"},
)

// ResultsTotal counts orchestrator results by provenance.
var ResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_results_total",
		Help:      "Total number of sync results, by scope and provenance.",
	},
	[]string{"scope", "provenance"},
)

// QuotaRemaining is the number of time-entry calls left today.
var QuotaRemaining = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "quota_remaining",
		Help:      "Time-entry API calls remaining for the current reference day.",
	},
)

// QuotaRefusedTotal counts calls refused by the daily quota.
var QuotaRefusedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_refused_total",
		Help:      "Total number of time-entry fetches refused by the daily quota.",
	},
)

// Write dumps the viewer's metric families from g in the Prometheus text
// format. Go runtime and process collectors are skipped.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
