// Package collector turns Katello API payloads into Prometheus gauges.
//
// metrics.go declares the fixed metric table (name, help, label schema,
// owning endpoint group) and validates it once when a Collector is built.
// samples.go holds the per-scrape state: an empty sample list per metric,
// filled from mapper batches. Samples naming an undeclared metric are dropped
// and logged once per name.
//
// One mapper per endpoint group:
//
//	dashboard.go      /api/dashboard → host status gauges, enabled label
//	tasks.go          task summary → katello_tasks_status, summed per state
//	subscriptions.go  host searches → katello_subscription_status
//	services.go       ping → katello_service_status, 0/1 per bucket
//
// Collector (collector.go) implements prometheus.Collector. Every Collect
// runs Scrape: groups are fetched and mapped in order, a failing group is
// logged and contributes no samples, and the others are still exported.
// families.go renders a Result as client_model families or exposition text
// for the one-shot dump command.
package collector
