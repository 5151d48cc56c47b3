// Package alerts implements the rule evaluation engine and webhook
// notification for KubeWatch. A fixed set of rule evaluators scans each
// cluster snapshot (and optional pod metrics) for failed pods, crash loops,
// image pull errors, downed or degraded deployments, restart storms, warning
// events, and resource usage over threshold. The engine runs one evaluation
// cycle at a time and keeps a bounded rolling history of past alerts.
package alerts
