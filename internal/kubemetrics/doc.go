// Package kubemetrics reads live CPU and memory usage from the metrics.k8s.io
// API. Collection degrades gracefully: when the metrics API is unavailable
// the collectors return a single marker entry carrying the error instead of
// failing the whole cycle.
package kubemetrics
