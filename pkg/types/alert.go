package types

import "time"

// Alert severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert type taxonomy. Each rule evaluator emits exactly one type (the
// restart check emits high_restarts at either severity).
const (
	AlertPodFailed          = "pod_failed"
	AlertPodPending         = "pod_pending"
	AlertCrashLoop          = "crash_loop"
	AlertImagePullError     = "image_pull_error"
	AlertDeploymentDown     = "deployment_down"
	AlertDeploymentDegraded = "deployment_degraded"
	AlertHighRestarts       = "high_restarts"
	AlertWarningEvent       = "k8s_warning_event"
	AlertHighCPU            = "high_cpu"
	AlertHighMemory         = "high_memory"
)

// Alert is one detected condition from an evaluation cycle. Subject fields
// are filled as applicable for the alert type. Timestamp is assigned by the
// engine at emission time, not inside the evaluators.
type Alert struct {
	Severity   string    `json:"severity"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Pod        string    `json:"pod,omitempty"`
	Deployment string    `json:"deployment,omitempty"`
	Container  string    `json:"container,omitempty"`
	Object     string    `json:"object,omitempty"`
	Namespace  string    `json:"namespace,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Health score status labels, derived from the numeric score.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
	HealthCritical  = "critical"
)

// HealthScore is the derived 0-100 operational score for one deployment.
// Recomputed in full on every scoring pass; never updated incrementally.
type HealthScore struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Score     int    `json:"score"`
	Status    string `json:"status"`
	Replicas  string `json:"replicas"` // "ready/desired"
	Restarts  int32  `json:"restarts"`
}
