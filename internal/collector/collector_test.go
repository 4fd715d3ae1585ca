package collector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/katello-exporter/katello-exporter/internal/katello"
)

func TestMetricNames_FixedUnion(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(nil))

	want := []string{
		"katello_active_hosts_ok",
		"katello_bad_hosts",
		"katello_ok_hosts",
		"katello_out_of_sync_hosts",
		"katello_good_hosts",
		"katello_pending_hosts",
		"katello_puppet_changed",
		"katello_active_hosts",
		"katello_reports_missing",
		"katello_total_hosts",
		"katello_tasks_status",
		"katello_subscription_status",
		"katello_service_status",
	}
	assert.ElementsMatch(t, want, c.MetricNames())
}

func TestDescribe_EveryMetricOnce(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(nil))

	ch := make(chan *prometheus.Desc, 64)
	c.Describe(ch)
	close(ch)

	var descs []string
	for d := range ch {
		descs = append(descs, d.String())
	}
	assert.Len(t, descs, len(c.MetricNames()))
	for _, name := range c.MetricNames() {
		found := 0
		for _, d := range descs {
			if strings.Contains(d, `fqName: "`+name+`"`) {
				found++
			}
		}
		assert.Equal(t, 1, found, "descriptor for %s", name)
	}
}

func TestNewSampleSet_StartsEmpty(t *testing.T) {
	table := mustTable(t)
	set := newSampleSet(table)

	assert.Len(t, set.samples, len(defaultSpecs))
	for _, name := range table.names() {
		samples, ok := set.samples[name]
		assert.True(t, ok, "no state for %s", name)
		assert.Empty(t, samples, name)
	}
	assert.Empty(t, set.list())
}

func TestSampleSet_DropsUndeclared(t *testing.T) {
	set := newSampleSet(mustTable(t))

	var dropped []string
	onDrop := func(s Sample) { dropped = append(dropped, s.Name) }

	assert.False(t, set.add(Sample{Name: "katello_unknown_metric", Value: 1}, onDrop))
	// Declared name, wrong label arity.
	assert.False(t, set.add(Sample{Name: taskMetric, Value: 1}, onDrop))
	assert.True(t, set.add(Sample{Name: taskMetric, Value: 1, LabelValues: []string{"running"}}, onDrop))

	assert.Equal(t, []string{"katello_unknown_metric", taskMetric}, dropped)
	assert.Len(t, set.list(), 1)
	assert.NotContains(t, set.samples, "katello_unknown_metric")
}

func TestNewMetricTable_Rejects(t *testing.T) {
	tests := map[string][]metricSpec{
		"duplicate name": {
			hostStatusGauge("katello_total_hosts"),
			hostStatusGauge("katello_total_hosts", labelEnabled),
		},
		"invalid name":   {hostStatusGauge("katello-total-hosts")},
		"invalid label":  {hostStatusGauge("katello_total_hosts", "is-enabled")},
		"repeated label": {hostStatusGauge("katello_total_hosts", labelEnabled, labelEnabled)},
	}
	for name, specs := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newMetricTable(specs)
			assert.Error(t, err)
		})
	}
}

func TestNew_RejectsInvalidTable(t *testing.T) {
	_, err := New(newFakeFetcher(nil), func(c *Collector) {
		c.specs = []metricSpec{hostStatusGauge("katello_total_hosts"), hostStatusGauge("katello_total_hosts")}
	})
	assert.Error(t, err)
}

func TestNew_RequiresFetcher(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestScrape_AllGroups(t *testing.T) {
	f := newFakeFetcher(healthyBodies())
	c := mustCollector(t, f)

	res := c.Scrape(context.Background())
	require.NoError(t, res.Err())
	assert.Empty(t, res.Errors)

	assert.Equal(t, map[string]float64{"running": 5, "paused": 1, "stopped": 0, "planned": 0},
		samplesOf(res.Samples, taskMetric))
	assert.Equal(t, map[string]float64{"partial": 1, "valid": 3, "invalid": 0, "unknown": 2},
		samplesOf(res.Samples, subscriptionMetric))
	assert.Equal(t, map[string]float64{"": 10}, samplesOf(res.Samples, "katello_total_hosts"))
	assert.Len(t, samplesOf(res.Samples, serviceMetric), 6)

	// Groups run in order: dashboard, tasks, subscriptions, services.
	assert.Equal(t, []string{
		katello.DashboardPath,
		katello.TasksPath,
		"/api/v2/hosts?search=+subscription_status+%3D+partial",
		"/api/v2/hosts?search=+subscription_status+%3D+valid",
		"/api/v2/hosts?search=+subscription_status+%3D+invalid",
		"/api/v2/hosts?search=+subscription_status+%3D+unknown",
		katello.PingPath,
	}, f.called())
}

func TestScrape_GroupFailureIsolated(t *testing.T) {
	f := newFakeFetcher(healthyBodies())
	f.errs[katello.TasksPath] = &katello.ConnectionError{
		URL: "https://katello" + katello.TasksPath,
		Err: errors.New("connection refused"),
	}
	c := mustCollector(t, f)

	res := c.Scrape(context.Background())

	require.Len(t, res.Errors, 1)
	var connErr *katello.ConnectionError
	assert.ErrorAs(t, res.Errors["tasks"], &connErr)

	assert.Empty(t, samplesOf(res.Samples, taskMetric))
	assert.Equal(t, map[string]float64{"partial": 1, "valid": 3, "invalid": 0, "unknown": 2},
		samplesOf(res.Samples, subscriptionMetric))
	assert.Equal(t, 1.0, samplesOf(res.Samples, serviceMetric)["ok,candlepin"])
	assert.Equal(t, map[string]float64{"true": 4}, samplesOf(res.Samples, "katello_puppet_changed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.self.groupFailures.WithLabelValues("tasks", reasonConnection)))
}

func TestScrape_StopsGroupAtFirstFailure(t *testing.T) {
	f := newFakeFetcher(healthyBodies())
	validPath := "/api/v2/hosts?search=+subscription_status+%3D+valid"
	f.errs[validPath] = &katello.UpstreamError{URL: "https://katello" + validPath, StatusCode: 500}
	c := mustCollector(t, f)

	res := c.Scrape(context.Background())

	assert.Empty(t, samplesOf(res.Samples, subscriptionMetric), "partial group must contribute nothing")
	assert.NotContains(t, f.called(), "/api/v2/hosts?search=+subscription_status+%3D+invalid")
	assert.NotContains(t, f.called(), "/api/v2/hosts?search=+subscription_status+%3D+unknown")
	assert.Contains(t, f.called(), katello.PingPath, "later groups still run")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.self.groupFailures.WithLabelValues("subscriptions", reasonUpstream)))
}

func TestScrape_MappingErrorDropsGroup(t *testing.T) {
	bodies := healthyBodies()
	bodies[katello.PingPath] = `{"status": "ok"}`
	c := mustCollector(t, newFakeFetcher(bodies))

	res := c.Scrape(context.Background())

	var mapErr *MappingError
	require.ErrorAs(t, res.Errors["services"], &mapErr)
	assert.Equal(t, "services", mapErr.Group)
	assert.Empty(t, samplesOf(res.Samples, serviceMetric))
	assert.Len(t, samplesOf(res.Samples, taskMetric), 4)
}

func TestScrape_TotalFailure(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(nil))

	res := c.Scrape(context.Background())

	assert.Len(t, res.Errors, 4)
	assert.Empty(t, res.Samples)
	assert.Len(t, multierr.Errors(res.Err()), 4)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestScrape_LogsUndeclaredOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bogus := func(b *batch, _ []payload) error {
		b.add("katello_not_declared", 1)
		b.add("katello_not_declared", 2)
		b.add(taskMetric, 3, "running")
		return nil
	}
	c := mustCollector(t, newFakeFetcher(nil), WithLogger(logger), func(c *Collector) {
		c.groups = []group{{name: "bogus", mapFn: bogus}}
	})

	for i := 0; i < 3; i++ {
		res := c.Scrape(context.Background())
		require.NoError(t, res.Err())
		assert.Equal(t, []Sample{{Name: taskMetric, Value: 3, LabelValues: []string{"running"}}}, res.Samples)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "katello_not_declared"))
}

func TestScrape_FreshStateEachScrape(t *testing.T) {
	f := newFakeFetcher(healthyBodies())
	c := mustCollector(t, f)

	first := c.Scrape(context.Background())
	second := c.Scrape(context.Background())
	assert.Equal(t, len(first.Samples), len(second.Samples))

	f.errs[katello.DashboardPath] = &katello.UpstreamError{StatusCode: 503}
	third := c.Scrape(context.Background())
	assert.Empty(t, samplesOf(third.Samples, "katello_total_hosts"), "no samples carried over from earlier scrapes")
}

func TestSetFetcher(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(nil))
	require.Len(t, c.Scrape(context.Background()).Errors, 4)

	c.SetFetcher(newFakeFetcher(healthyBodies()))
	assert.Empty(t, c.Scrape(context.Background()).Errors)
}

func TestCollect_Exposition(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(healthyBodies()))

	expected := `
# HELP katello_tasks_status Task status
# TYPE katello_tasks_status gauge
katello_tasks_status{task_status="paused"} 1
katello_tasks_status{task_status="planned"} 0
katello_tasks_status{task_status="running"} 5
katello_tasks_status{task_status="stopped"} 0
# HELP katello_subscription_status Subscription status
# TYPE katello_subscription_status gauge
katello_subscription_status{subscription_status="invalid"} 0
katello_subscription_status{subscription_status="partial"} 1
katello_subscription_status{subscription_status="unknown"} 2
katello_subscription_status{subscription_status="valid"} 3
# HELP katello_service_status Service status
# TYPE katello_service_status gauge
katello_service_status{service="candlepin",service_status="fail"} 0
katello_service_status{service="candlepin",service_status="ok"} 1
katello_service_status{service="foreman_tasks",service_status="fail"} 0
katello_service_status{service="foreman_tasks",service_status="ok"} 1
katello_service_status{service="pulp",service_status="fail"} 1
katello_service_status{service="pulp",service_status="ok"} 0
# HELP katello_total_hosts Number of katello total hosts
# TYPE katello_total_hosts gauge
katello_total_hosts 10
# HELP katello_puppet_changed Number of katello puppet changed
# TYPE katello_puppet_changed gauge
katello_puppet_changed{enabled="true"} 4
# HELP katello_bad_hosts Number of katello bad hosts
# TYPE katello_bad_hosts gauge
katello_bad_hosts{enabled="false"} 2
katello_bad_hosts{enabled="true"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		taskMetric, subscriptionMetric, serviceMetric,
		"katello_total_hosts", "katello_puppet_changed", "katello_bad_hosts"))
}

func TestRegister_PedanticRegistry(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(healthyBodies()))
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, c.Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["katello_collector_collect_seconds"])
	assert.True(t, names[taskMetric])

	// A second registration of the same collector is refused.
	assert.Error(t, c.Register(reg))
}

func TestResult_WriteText(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(healthyBodies()))
	res := c.Scrape(context.Background())

	var buf bytes.Buffer
	require.NoError(t, res.WriteText(&buf))

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(&buf)
	require.NoError(t, err)

	tasks := mfs[taskMetric]
	require.NotNil(t, tasks)
	assert.Equal(t, "Task status", tasks.GetHelp())
	assert.Len(t, tasks.GetMetric(), 4)

	services := mfs[serviceMetric]
	require.NotNil(t, services)
	for _, m := range services.GetMetric() {
		require.Len(t, m.GetLabel(), 2)
		assert.Equal(t, "service", m.GetLabel()[0].GetName())
		assert.Equal(t, "service_status", m.GetLabel()[1].GetName())
	}

	total := mfs["katello_total_hosts"]
	require.NotNil(t, total)
	assert.Equal(t, 10.0, total.GetMetric()[0].GetGauge().GetValue())
}

func TestResult_MetricFamiliesSkipsEmpty(t *testing.T) {
	c := mustCollector(t, newFakeFetcher(map[string]string{
		katello.TasksPath: `[]`,
	}))
	res := c.Scrape(context.Background())

	families := res.MetricFamilies()
	require.Len(t, families, 1)
	assert.Equal(t, taskMetric, families[0].GetName())
	assert.Len(t, families[0].GetMetric(), 4)
}

func TestFailureReason(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"connection": {&katello.ConnectionError{Err: errors.New("refused")}, reasonConnection},
		"upstream":   {&katello.UpstreamError{StatusCode: 401}, reasonUpstream},
		"decode":     {&katello.DecodeError{Err: errors.New("bad")}, reasonDecode},
		"mapping":    {&MappingError{Group: "tasks", Err: errors.New("bad")}, reasonMapping},
		"unknown":    {errors.New("boom"), reasonUnknown},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, failureReason(tc.err))
		})
	}
}

var _ Fetcher = (*katello.Client)(nil)
