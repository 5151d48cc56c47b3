// Package config loads and validates the KubeWatch YAML configuration:
// cluster connection settings, collection cadence, alert thresholds,
// webhook delivery targets, and dashboard options. Secrets (webhook URLs,
// API keys) are resolved from environment variables, never stored inline.
package config
