package metrics_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/metrics"
)

func TestCountersIncrement(t *testing.T) {
	c := metrics.RemoteCallsTotal.WithLabelValues("time_entries", "ok")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}

	metrics.QuotaRemaining.Set(7)
	if got := testutil.ToFloat64(metrics.QuotaRemaining); got != 7 {
		t.Errorf("gauge = %v, want 7", got)
	}
}

func TestWriteOnlyViewerFamilies(t *testing.T) {
	metrics.CacheLookupsTotal.WithLabelValues("projects", "hit").Inc()

	var buf bytes.Buffer
	if err := metrics.Write(&buf, prometheus.DefaultGatherer); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `ttv_cache_lookups_total{result="hit",scope="projects"}`) {
		t.Errorf("missing cache lookup sample in:\n%s", out)
	}
	if strings.Contains(out, "go_goroutines") {
		t.Error("runtime metrics should be skipped")
	}
}
