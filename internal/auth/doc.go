// Package auth provides API key authentication middleware for the dashboard
// HTTP API.
package auth
