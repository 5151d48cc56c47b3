package api

import (
	"github.com/kubewatch/kubewatch/internal/promquery"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// StatusResponse is the payload for GET /api/v1/snapshot and the body of
// every websocket status push.
type StatusResponse struct {
	Namespace   string                       `json:"namespace"`
	Cluster     types.ClusterInfo            `json:"cluster"`
	Summary     *types.Summary               `json:"summary,omitempty"`
	Nodes       []types.Node                 `json:"nodes"`
	Pods        []types.Pod                  `json:"pods"`
	Deployments []types.Deployment           `json:"deployments"`
	Services    []types.Service              `json:"services"`
	Events      []types.Event                `json:"events"`
	PodMetrics  []types.PodMetric            `json:"pod_metrics,omitempty"`
	NodeMetrics []types.NodeMetric           `json:"node_metrics,omitempty"`
	Alerts      []types.Alert                `json:"alerts"`
	Scores      map[string]types.HealthScore `json:"scores"`
	PromUsage   *promquery.ClusterUsage      `json:"prom_usage,omitempty"`
	UpdatedAt   string                       `json:"updated_at"` // RFC3339
}

// AlertsResponse is the payload for GET /api/v1/alerts.
type AlertsResponse struct {
	Active  []types.Alert `json:"active"`
	History []types.Alert `json:"history"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	OverallScore    int                          `json:"overall_score"`
	Status          string                       `json:"status"`
	DeploymentCount int                          `json:"deployment_count"`
	HealthyCount    int                          `json:"healthy_count"`
	DegradedCount   int                          `json:"degraded_count"`
	UnhealthyCount  int                          `json:"unhealthy_count"`
	CriticalCount   int                          `json:"critical_count"`
	Scores          map[string]types.HealthScore `json:"scores"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
