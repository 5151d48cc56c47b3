// Package types defines the shared Go types used across KubeWatch: the
// cluster snapshot the collectors build, the metrics samples the metrics
// API yields, and the alerts and health scores the evaluation engine
// produces. These are the canonical in-memory representations, separate
// from any Kubernetes API wire types.
package types
