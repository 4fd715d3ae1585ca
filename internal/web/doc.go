// Package web serves the exporter over HTTP.
//
// New(gatherer, registerer, Options) returns an http.Handler that serves:
//
//	GET <MetricsPath>  Prometheus text exposition (promhttp); every request
//	                   triggers one full scrape of the Katello API
//	GET /healthz       {"status":"ok"} while the process is up
//	GET /              landing page linking to the metrics path
//
// Serve(ctx, addr, handler) runs the server until ctx is cancelled and then
// shuts it down gracefully.
package web
