// Package api implements the dashboard's HTTP JSON API. Handlers read from
// the observation store and the alert engine; log endpoints go through a
// LogReader so the API stays testable without a cluster.
package api
