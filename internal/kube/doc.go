// Package kube collects cluster state through the Kubernetes API. It turns
// the raw API objects into the snapshot types the rest of KubeWatch consumes
// and provides on-demand pod log access.
package kube
