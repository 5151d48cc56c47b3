package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/internal/quantity"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// eventMessageMax caps the event message length in the rendered alert text.
// Truncation is presentation only; the full message stays on the Event.
const eventMessageMax = 100

// checkPodStatus flags failed and stuck-pending pods, plus per-container
// crash loops and image pull failures. A pod can emit a pod-level alert and
// container-level alerts in the same cycle; they are not deduplicated.
func checkPodStatus(snap *types.ClusterSnapshot) []types.Alert {
	var out []types.Alert
	for _, pod := range snap.Pods {
		switch pod.Status {
		case types.PodFailed:
			out = append(out, types.Alert{
				Severity:  types.SeverityCritical,
				Type:      types.AlertPodFailed,
				Pod:       pod.Name,
				Namespace: pod.Namespace,
				Message:   fmt.Sprintf("Pod %s has FAILED", pod.Name),
			})
		case types.PodPending:
			out = append(out, types.Alert{
				Severity:  types.SeverityWarning,
				Type:      types.AlertPodPending,
				Pod:       pod.Name,
				Namespace: pod.Namespace,
				Message:   fmt.Sprintf("Pod %s is stuck in Pending state", pod.Name),
			})
		}

		for _, c := range pod.Containers {
			if c.State.Kind != types.ContainerWaiting {
				continue
			}
			switch c.State.Reason {
			case types.ReasonCrashLoopBackOff:
				out = append(out, types.Alert{
					Severity:  types.SeverityCritical,
					Type:      types.AlertCrashLoop,
					Pod:       pod.Name,
					Namespace: pod.Namespace,
					Container: c.Name,
					Message:   fmt.Sprintf("Container %s in %s is in CrashLoopBackOff", c.Name, pod.Name),
				})
			case types.ReasonImagePullBackOff, types.ReasonErrImagePull:
				out = append(out, types.Alert{
					Severity:  types.SeverityCritical,
					Type:      types.AlertImagePullError,
					Pod:       pod.Name,
					Namespace: pod.Namespace,
					Container: c.Name,
					Message:   fmt.Sprintf("Container %s in %s cannot pull image", c.Name, pod.Name),
				})
			}
		}
	}
	return out
}

// checkDeployments flags deployments with zero or partial ready replicas.
// A deployment scaled to zero desired replicas is never alerted.
func checkDeployments(snap *types.ClusterSnapshot) []types.Alert {
	var out []types.Alert
	for _, dep := range snap.Deployments {
		desired, ready := dep.ReplicasDesired, dep.ReplicasReady
		switch {
		case desired > 0 && ready == 0:
			out = append(out, types.Alert{
				Severity:   types.SeverityCritical,
				Type:       types.AlertDeploymentDown,
				Deployment: dep.Name,
				Namespace:  dep.Namespace,
				Message:    fmt.Sprintf("Deployment %s has 0/%d replicas ready - SERVICE DOWN", dep.Name, desired),
			})
		case desired > 0 && ready < desired:
			out = append(out, types.Alert{
				Severity:   types.SeverityWarning,
				Type:       types.AlertDeploymentDegraded,
				Deployment: dep.Name,
				Namespace:  dep.Namespace,
				Message:    fmt.Sprintf("Deployment %s has %d/%d replicas ready - DEGRADED", dep.Name, ready, desired),
			})
		}
	}
	return out
}

// checkRestarts flags pods whose cumulative restart count crosses the warn
// or crit threshold. The two levels are mutually exclusive: crit wins.
func checkRestarts(snap *types.ClusterSnapshot, t config.Thresholds) []types.Alert {
	var out []types.Alert
	for _, pod := range snap.Pods {
		restarts := pod.RestartCount
		switch {
		case restarts >= t.RestartCrit:
			out = append(out, types.Alert{
				Severity:  types.SeverityCritical,
				Type:      types.AlertHighRestarts,
				Pod:       pod.Name,
				Namespace: pod.Namespace,
				Message:   fmt.Sprintf("Pod %s has restarted %d times (critical threshold: %d)", pod.Name, restarts, t.RestartCrit),
			})
		case restarts >= t.RestartWarn:
			out = append(out, types.Alert{
				Severity:  types.SeverityWarning,
				Type:      types.AlertHighRestarts,
				Pod:       pod.Name,
				Namespace: pod.Namespace,
				Message:   fmt.Sprintf("Pod %s has restarted %d times (warning threshold: %d)", pod.Name, restarts, t.RestartWarn),
			})
		}
	}
	return out
}

// checkEvents turns every Warning event into an alert. The event message is
// truncated to 100 characters in the alert text only.
func checkEvents(snap *types.ClusterSnapshot) []types.Alert {
	var out []types.Alert
	for _, ev := range snap.Events {
		if ev.Type != types.EventWarning {
			continue
		}
		out = append(out, types.Alert{
			Severity:  types.SeverityWarning,
			Type:      types.AlertWarningEvent,
			Object:    ev.Object,
			Namespace: ev.Namespace,
			Message:   fmt.Sprintf("K8s Warning: %s - %s", ev.Reason, truncate(ev.Message, eventMessageMax)),
		})
	}
	return out
}

// checkResourceUsage compares per-pod CPU and memory usage against the pod's
// configured limits. Pods without a parseable non-zero limit are skipped —
// unlimited pods are never flagged. Metric entries carrying an error marker
// are skipped rather than read as zero usage.
func checkResourceUsage(snap *types.ClusterSnapshot, metrics []types.PodMetric, t config.Thresholds) []types.Alert {
	var out []types.Alert
	for _, pm := range metrics {
		if pm.Err != "" {
			continue
		}

		pod := findPod(snap, pm.Name)
		if pod == nil {
			continue
		}

		if limit, ok := parseLimit(pod.CPULimit, quantity.ParseCPU); ok {
			pct := float64(pm.CPUMillicores) / float64(limit) * 100
			if a, ok := usageAlert(pct, t.CPUWarn, t.CPUCrit); ok {
				a.Type = types.AlertHighCPU
				a.Pod = pm.Name
				a.Namespace = pm.Namespace
				a.Message = fmt.Sprintf("Pod %s CPU at %.0f%% of limit", pm.Name, pct)
				out = append(out, a)
			}
		}

		if limit, ok := parseLimit(pod.MemLimit, quantity.ParseMemory); ok {
			pct := float64(pm.MemoryBytes) / float64(limit) * 100
			if a, ok := usageAlert(pct, t.MemWarn, t.MemCrit); ok {
				a.Type = types.AlertHighMemory
				a.Pod = pm.Name
				a.Namespace = pm.Namespace
				a.Message = fmt.Sprintf("Pod %s memory at %.0f%% of limit", pm.Name, pct)
				out = append(out, a)
			}
		}
	}
	return out
}

// findPod returns the first pod in the snapshot with the given name, or nil.
// Matching is by name only; the metric's own namespace field is carried onto
// any resulting alert.
func findPod(snap *types.ClusterSnapshot, name string) *types.Pod {
	for i := range snap.Pods {
		if snap.Pods[i].Name == name {
			return &snap.Pods[i]
		}
	}
	return nil
}

// parseLimit parses a resource limit string. Returns ok=false for unset
// limits ("", "0"), for limits that parse to zero, and for malformed limits
// (a parse failure is logged and the pod is treated as unlimited, so one bad
// limit string cannot abort the evaluation cycle).
func parseLimit(s string, parse func(string) (int64, error)) (int64, bool) {
	if s == "" || s == "0" {
		return 0, false
	}
	v, err := parse(s)
	if err != nil {
		var pe *quantity.ParseError
		if errors.As(err, &pe) {
			slog.Warn("alerts: skipping malformed resource limit", "limit", s, "err", err)
		}
		return 0, false
	}
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// usageAlert maps a usage percentage to a warning or critical alert shell.
// Crit takes priority; a reading at or above crit never also emits warn.
func usageAlert(pct, warn, crit float64) (types.Alert, bool) {
	switch {
	case pct >= crit:
		return types.Alert{Severity: types.SeverityCritical}, true
	case pct >= warn:
		return types.Alert{Severity: types.SeverityWarning}, true
	}
	return types.Alert{}, false
}

// truncate keeps at most n characters of s, never splitting a multi-byte
// rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
