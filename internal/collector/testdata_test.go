package collector

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/katello-exporter/katello-exporter/internal/katello"
)

const dashboardJSON = `{
  "total_hosts": 10,
  "bad_hosts": 2,
  "bad_hosts_enabled": 1,
  "active_hosts": 7,
  "active_hosts_ok": 5,
  "active_hosts_ok_enabled": 4,
  "ok_hosts": 3,
  "ok_hosts_enabled": 3,
  "out_of_sync_hosts": 0,
  "out_of_sync_hosts_enabled": 0,
  "good_hosts": 6,
  "good_hosts_enabled": 5,
  "pending_hosts": 1,
  "pending_hosts_enabled": 1,
  "reports_missing": 2,
  "disabled_hosts": 1,
  "percentage": 80,
  "puppet_changed_enabled": 4,
  "glossary": "Hosts by status"
}`

const tasksJSON = `[
  {"state": "running", "result": "pending", "count": 3},
  {"state": "running", "result": "error", "count": 2},
  {"state": "paused", "result": "error", "count": 1}
]`

const pingJSON = `{
  "status": "FAIL",
  "services": {
    "candlepin": {"status": "ok", "duration_ms": "12"},
    "pulp": {"status": "FAIL", "message": "Pulp does not appear to be running"},
    "foreman_tasks": {"status": "OK", "duration_ms": "3"}
  }
}`

func hostsJSON(n int) string {
	hosts := make([]string, n)
	for i := range hosts {
		hosts[i] = `{"id": ` + strconv.Itoa(i+1) + `}`
	}
	return `{"total": 42, "subtotal": ` + strconv.Itoa(n) + `, "results": [` + strings.Join(hosts, ",") + `]}`
}

// healthyBodies returns a response for every default endpoint.
func healthyBodies() map[string]string {
	return map[string]string{
		katello.DashboardPath: dashboardJSON,
		katello.TasksPath:     tasksJSON,
		katello.PingPath:      pingJSON,
		"/api/v2/hosts?search=+subscription_status+%3D+partial": hostsJSON(1),
		"/api/v2/hosts?search=+subscription_status+%3D+valid":   hostsJSON(3),
		"/api/v2/hosts?search=+subscription_status+%3D+invalid": hostsJSON(0),
		"/api/v2/hosts?search=+subscription_status+%3D+unknown": hostsJSON(2),
	}
}

// fakeFetcher serves canned bodies and errors by path and records calls.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, errs: make(map[string]error)}
}

func (f *fakeFetcher) Fetch(_ context.Context, path string) (gjson.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return gjson.Result{}, err
	}
	body, ok := f.bodies[path]
	if !ok {
		return gjson.Result{}, &katello.UpstreamError{URL: "https://katello" + path, StatusCode: 404}
	}
	return gjson.Parse(body), nil
}

func (f *fakeFetcher) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func mustTable(t *testing.T) *metricTable {
	t.Helper()
	table, err := newMetricTable(defaultSpecs)
	require.NoError(t, err)
	return table
}

func mustCollector(t *testing.T, f Fetcher, opts ...Option) *Collector {
	t.Helper()
	c, err := New(f, opts...)
	require.NoError(t, err)
	return c
}

// samplesOf returns the samples for name keyed by joined label values.
func samplesOf(samples []Sample, name string) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range samples {
		if s.Name != name {
			continue
		}
		out[strings.Join(s.LabelValues, ",")] = s.Value
	}
	return out
}
