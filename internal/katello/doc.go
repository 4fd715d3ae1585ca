// Package katello is the HTTP client for the Katello / Foreman REST API.
//
// New(config.KatelloConfig, debug) builds a Client whose transport injects
// basic-auth credentials and optionally skips TLS verification. Fetch(ctx,
// path) appends path to the server base URL and returns the body parsed with
// gjson, or one of three typed errors:
//
//   - *ConnectionError: the server could not be reached
//   - *UpstreamError: the server answered with a status other than 200
//   - *DecodeError: the body was not JSON
//
// endpoints.go lists the fixed upstream paths grouped by the data domain
// that consumes them.
package katello
