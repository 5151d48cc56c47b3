package alerts

import (
	"sync"
	"time"

	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// maxHistoryLen bounds the rolling alert history; oldest entries are
// evicted first when a cycle pushes the history past this length.
const maxHistoryLen = 200

// Engine runs the rule evaluators over cluster snapshots and maintains the
// current-cycle alert list plus a bounded history across cycles.
//
// Engine is safe for concurrent use: Evaluate and the history accessors are
// serialized internally, so overlapping poll cycles cannot interleave their
// writes to the history buffer.
type Engine struct {
	thresholds config.Thresholds

	mu      sync.Mutex
	current []types.Alert
	history []types.Alert
	now     func() time.Time // injectable for deterministic tests
}

// New creates an Engine with the given thresholds. Thresholds are fixed for
// the lifetime of the engine; build a new engine to apply changed config.
func New(thresholds config.Thresholds) *Engine {
	return &Engine{
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate runs every rule evaluator over the snapshot and optional metrics,
// replacing the current-cycle alert list and appending the cycle's alerts to
// the history. Results are ordered evaluator-first, then snapshot order.
// All alerts from one cycle carry the same emission timestamp.
func (e *Engine) Evaluate(snap *types.ClusterSnapshot, metrics []types.PodMetric) []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []types.Alert
	out = append(out, checkPodStatus(snap)...)
	out = append(out, checkDeployments(snap)...)
	out = append(out, checkRestarts(snap, e.thresholds)...)
	out = append(out, checkEvents(snap)...)
	if len(metrics) > 0 {
		out = append(out, checkResourceUsage(snap, metrics, e.thresholds)...)
	}

	stamp := e.now().UTC()
	for i := range out {
		out[i].Timestamp = stamp
	}

	e.current = out
	e.history = append(e.history, out...)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}

	return copyAlerts(out)
}

// Current returns a copy of the most recent cycle's alerts.
func (e *Engine) Current() []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyAlerts(e.current)
}

// History returns a copy of the most recent n alerts across cycles, oldest
// first. n <= 0 returns the full retained history.
func (e *Engine) History(n int) []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n <= 0 || n > len(e.history) {
		n = len(e.history)
	}
	return copyAlerts(e.history[len(e.history)-n:])
}

func copyAlerts(in []types.Alert) []types.Alert {
	out := make([]types.Alert, len(in))
	copy(out, in)
	return out
}
