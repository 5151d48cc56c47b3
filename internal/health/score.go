package health

import (
	"fmt"
	"strings"

	"github.com/kubewatch/kubewatch/pkg/types"
)

// Deduction weights. Replica deductions are exclusive of each other; the
// restart, failed-pod, and crash-loop deductions all stack.
const (
	deductNoReplicas      = 50
	deductPartialReplicas = 25
	deductPerRestart      = 5
	maxRestartDeduction   = 30
	deductFailedPod       = 10
	deductCrashLoop       = 20
)

// Score breakpoints for the status label.
const (
	thresholdHealthy   = 90
	thresholdDegraded  = 70
	thresholdUnhealthy = 50
)

// Scores computes a HealthScore per deployment in the snapshot, keyed by
// deployment name. Metrics are part of the scoring contract but do not
// currently contribute a deduction.
//
// Pods are attributed to a deployment when the deployment name appears as a
// substring of the pod name. This correlation is a deliberate approximation
// carried over from the original scoring behavior: it over-matches when one
// deployment's name is a prefix of another's (e.g. "api" also collects
// "api-gateway" pods). Switching to owner-reference lookup would change
// existing scores, so the heuristic is kept and documented instead.
func Scores(snap *types.ClusterSnapshot, metrics []types.PodMetric) map[string]types.HealthScore {
	_ = metrics

	scores := make(map[string]types.HealthScore, len(snap.Deployments))
	for _, dep := range snap.Deployments {
		score := 100

		desired, ready := dep.ReplicasDesired, dep.ReplicasReady
		if desired > 0 {
			switch {
			case ready == 0:
				score -= deductNoReplicas
			case ready < desired:
				score -= deductPartialReplicas
			}
		}

		pods := correlatedPods(snap, dep.Name)

		var totalRestarts int32
		for _, p := range pods {
			totalRestarts += p.RestartCount
		}
		score -= min(int(totalRestarts)*deductPerRestart, maxRestartDeduction)

		for _, p := range pods {
			if p.Status == types.PodFailed || p.Status == types.PodPending {
				score -= deductFailedPod
			}
			for _, c := range p.Containers {
				if c.State.Kind == types.ContainerWaiting && c.State.Reason == types.ReasonCrashLoopBackOff {
					score -= deductCrashLoop
				}
			}
		}

		score = clamp(score, 0, 100)
		scores[dep.Name] = types.HealthScore{
			Name:      dep.Name,
			Namespace: dep.Namespace,
			Score:     score,
			Status:    StatusForScore(score),
			Replicas:  fmt.Sprintf("%d/%d", ready, desired),
			Restarts:  totalRestarts,
		}
	}
	return scores
}

// StatusForScore maps a clamped score to its status label.
func StatusForScore(score int) string {
	switch {
	case score >= thresholdHealthy:
		return types.HealthHealthy
	case score >= thresholdDegraded:
		return types.HealthDegraded
	case score >= thresholdUnhealthy:
		return types.HealthUnhealthy
	default:
		return types.HealthCritical
	}
}

// correlatedPods returns the pods attributed to the deployment by the
// name-substring heuristic.
func correlatedPods(snap *types.ClusterSnapshot, deployment string) []types.Pod {
	var out []types.Pod
	for _, p := range snap.Pods {
		if strings.Contains(p.Name, deployment) {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
