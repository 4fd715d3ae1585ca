package collector

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"
)

// namespace prefixes every exported metric name.
const namespace = "katello"

// domain identifies the endpoint group whose mapper owns a metric.
type domain string

const (
	domainDashboard     domain = "dashboard"
	domainTasks         domain = "tasks"
	domainSubscriptions domain = "subscriptions"
	domainServices      domain = "services"
)

// Metric names produced by the non-dashboard mappers.
const (
	taskMetric         = namespace + "_tasks_status"
	subscriptionMetric = namespace + "_subscription_status"
	serviceMetric      = namespace + "_service_status"
)

// Label names.
const (
	labelEnabled            = "enabled"
	labelTaskStatus         = "task_status"
	labelSubscriptionStatus = "subscription_status"
	labelServiceStatus      = "service_status"
	labelService            = "service"
)

// metricSpec declares one gauge: its name, help text and ordered label
// names. An empty label list makes a simple unlabeled gauge.
type metricSpec struct {
	name   string
	help   string
	labels []string
	domain domain
}

// hostStatusGauge declares a dashboard gauge. The help text spells out the
// name the way the dashboard does: "Number of katello total hosts".
func hostStatusGauge(name string, labels ...string) metricSpec {
	return metricSpec{
		name:   name,
		help:   "Number of " + strings.ReplaceAll(name, "_", " "),
		labels: labels,
		domain: domainDashboard,
	}
}

// defaultSpecs is the complete, fixed set of metrics the collector exposes.
// Order here is the order of exposition.
var defaultSpecs = []metricSpec{
	hostStatusGauge("katello_active_hosts_ok", labelEnabled),
	hostStatusGauge("katello_bad_hosts", labelEnabled),
	hostStatusGauge("katello_ok_hosts", labelEnabled),
	hostStatusGauge("katello_out_of_sync_hosts", labelEnabled),
	hostStatusGauge("katello_good_hosts", labelEnabled),
	hostStatusGauge("katello_pending_hosts", labelEnabled),
	hostStatusGauge("katello_puppet_changed", labelEnabled),

	hostStatusGauge("katello_active_hosts"),
	hostStatusGauge("katello_reports_missing"),
	hostStatusGauge("katello_total_hosts"),

	{name: taskMetric, help: "Task status", labels: []string{labelTaskStatus}, domain: domainTasks},
	{name: subscriptionMetric, help: "Subscription status", labels: []string{labelSubscriptionStatus}, domain: domainSubscriptions},
	{name: serviceMetric, help: "Service status", labels: []string{labelServiceStatus, labelService}, domain: domainServices},
}

// metricTable is the validated lookup built from a list of specs.
type metricTable struct {
	specs  []metricSpec
	byName map[string]int
	descs  []*prometheus.Desc
}

// newMetricTable validates specs and builds the name index. Names must be
// unique and valid, label names valid and not repeated within a metric.
func newMetricTable(specs []metricSpec) (*metricTable, error) {
	t := &metricTable{
		specs:  specs,
		byName: make(map[string]int, len(specs)),
		descs:  make([]*prometheus.Desc, 0, len(specs)),
	}
	for i, s := range specs {
		if !model.IsValidMetricName(model.LabelValue(s.name)) {
			return nil, fmt.Errorf("metric %q: invalid name", s.name)
		}
		if _, dup := t.byName[s.name]; dup {
			return nil, fmt.Errorf("metric %q: declared more than once", s.name)
		}
		seen := make(map[string]bool, len(s.labels))
		for _, l := range s.labels {
			if !model.LabelName(l).IsValid() {
				return nil, fmt.Errorf("metric %q: invalid label name %q", s.name, l)
			}
			if seen[l] {
				return nil, fmt.Errorf("metric %q: label %q repeated", s.name, l)
			}
			seen[l] = true
		}
		t.byName[s.name] = i
		t.descs = append(t.descs, prometheus.NewDesc(s.name, s.help, s.labels, nil))
	}
	return t, nil
}

// lookup returns the spec registered under name.
func (t *metricTable) lookup(name string) (metricSpec, bool) {
	i, ok := t.byName[name]
	if !ok {
		return metricSpec{}, false
	}
	return t.specs[i], true
}

// names returns every metric name in table order.
func (t *metricTable) names() []string {
	out := make([]string, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.name
	}
	return out
}
