// Package config loads and watches the exporter configuration.
//
// Top-level types:
//   - Config{Katello, Listen, Debug}: full config tree parsed from YAML
//   - KatelloConfig: server base URL, basic-auth user/password, insecure TLS
//   - ListenConfig: port and metrics path of the exposition server
//
// Load(path, opts...) starts from defaults (https://katello, port 443,
// /metrics), overlays the YAML file when path is non-empty, applies the
// Option overrides built from flags and environment variables, then
// validates the result.
//
// Watch(ctx, path, onChange, opts...) uses fsnotify to detect file changes
// and calls onChange with the newly parsed Config, so rotated credentials
// are picked up without a restart.
package config
