package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/katello-exporter/katello-exporter/internal/katello"
)

// Fetcher retrieves one upstream path as parsed JSON.
// *katello.Client is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (gjson.Result, error)
}

// payload is the body of one endpoint, tagged with the endpoint name.
type payload struct {
	endpoint string
	body     gjson.Result
}

// mapFunc turns the payloads of one endpoint group into samples.
type mapFunc func(b *batch, payloads []payload) error

// group is a set of endpoints feeding one mapper.
type group struct {
	name      string
	endpoints []katello.Endpoint
	mapFn     mapFunc
}

// defaultGroups returns the endpoint groups in scrape order.
func defaultGroups() []group {
	return []group{
		{name: string(domainDashboard), endpoints: katello.DashboardEndpoints(), mapFn: mapDashboard},
		{name: string(domainTasks), endpoints: katello.TaskEndpoints(), mapFn: mapTasks},
		{name: string(domainSubscriptions), endpoints: katello.SubscriptionEndpoints(), mapFn: mapSubscriptions},
		{name: string(domainServices), endpoints: katello.ServiceEndpoints(), mapFn: mapServices},
	}
}

// upstream boxes the Fetcher so it can be swapped atomically.
type upstream struct {
	Fetcher
}

// Collector is a prometheus.Collector that fetches every endpoint group from
// Katello on each Collect call and exposes the results as gauges.
//
// Every Collect builds its own sample set, so overlapping scrapes do not
// share metric state. All exported methods are safe for concurrent use.
type Collector struct {
	specs  []metricSpec
	table  *metricTable
	groups []group

	upstream atomic.Pointer[upstream]
	warned   mapset.Set[string]
	self     *selfMetrics
	logger   *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger used for scrape errors. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// New returns a Collector reading from f. The metric table is validated
// here, once; an invalid table is a programming error reported as err.
func New(f Fetcher, opts ...Option) (*Collector, error) {
	if f == nil {
		return nil, errors.New("collector: fetcher is required")
	}
	c := &Collector{
		specs:  defaultSpecs,
		groups: defaultGroups(),
		warned: mapset.NewSet[string](),
		self:   newSelfMetrics(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	table, err := newMetricTable(c.specs)
	if err != nil {
		return nil, fmt.Errorf("collector: %w", err)
	}
	c.table = table
	c.SetFetcher(f)
	return c, nil
}

// SetFetcher replaces the upstream client. Scrapes already running keep the
// client they started with.
func (c *Collector) SetFetcher(f Fetcher) {
	c.upstream.Store(&upstream{Fetcher: f})
}

// MetricNames returns the name of every metric the collector declares, in
// exposition order.
func (c *Collector) MetricNames() []string {
	return c.table.names()
}

// Register registers the collector and its own self-metrics with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range append([]prometheus.Collector{c}, c.self.collectors()...) {
		if err := reg.Register(col); err != nil {
			return fmt.Errorf("collector: register: %w", err)
		}
	}
	return nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.table.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector. It runs one full scrape and sends
// every sample as a constant gauge.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	res := c.Scrape(context.Background())
	for _, s := range res.Samples {
		desc := c.table.descs[c.table.byName[s.Name]]
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.Value, s.LabelValues...)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(desc, err)
			continue
		}
		ch <- m
	}
}

// Result is the outcome of one scrape.
type Result struct {
	// Samples holds every committed sample in table order.
	Samples []Sample

	// Errors maps the name of each failed endpoint group to its error.
	// Failed groups contribute no samples.
	Errors map[string]error

	// Duration is the wall time of the whole scrape.
	Duration time.Duration

	table *metricTable
}

// Err combines the group errors, nil when every group succeeded.
func (r *Result) Err() error {
	names := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	var err error
	for _, name := range names {
		err = multierr.Append(err, r.Errors[name])
	}
	return err
}

// Scrape resets the metric state, fetches and maps every endpoint group in
// order, and returns whatever the groups produced. A failing group is logged
// and skipped; it never aborts the scrape.
func (c *Collector) Scrape(ctx context.Context) *Result {
	start := time.Now()

	up := c.upstream.Load()
	set := newSampleSet(c.table)
	res := &Result{
		Errors: make(map[string]error),
		table:  c.table,
	}

	for _, g := range c.groups {
		if err := c.runGroup(ctx, up, g, set); err != nil {
			res.Errors[g.name] = err
			c.self.groupFailures.WithLabelValues(g.name, failureReason(err)).Inc()
			c.logGroupError(g, err)
		}
	}

	res.Samples = set.list()
	res.Duration = time.Since(start)
	c.self.collectSeconds.Observe(res.Duration.Seconds())
	return res
}

// runGroup fetches every endpoint of g, then maps the payloads. The first
// fetch error abandons the group.
func (c *Collector) runGroup(ctx context.Context, up *upstream, g group, set *sampleSet) error {
	payloads := make([]payload, 0, len(g.endpoints))
	for _, ep := range g.endpoints {
		body, err := up.Fetch(ctx, ep.Path)
		if err != nil {
			return err
		}
		payloads = append(payloads, payload{endpoint: ep.Name, body: body})
	}

	b := newBatch(c.table)
	if err := g.mapFn(b, payloads); err != nil {
		return &MappingError{Group: g.name, Err: err}
	}
	set.commit(b, c.dropped)
	return nil
}

// dropped is called for samples that match no declared metric, either by
// name or by label count. Each distinct name is logged once per collector.
func (c *Collector) dropped(s Sample) {
	if c.warned.Add(s.Name) {
		c.logger.Warn("collector: dropping sample that matches no declared metric",
			"metric", s.Name, "label_values", len(s.LabelValues))
	}
}

func (c *Collector) logGroupError(g group, err error) {
	var connErr *katello.ConnectionError
	if errors.As(err, &connErr) {
		c.logger.Error("collector: error connecting to server",
			"group", g.name, "url", connErr.URL, "err", connErr.Err)
		return
	}
	c.logger.Error("collector: error retrieving data",
		"group", g.name, "err", err)
}
