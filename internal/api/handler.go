package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kubewatch/kubewatch/internal/alerts"
	"github.com/kubewatch/kubewatch/internal/health"
	"github.com/kubewatch/kubewatch/internal/store"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// defaultLogTail is how many lines a log request returns when ?tail is absent.
const defaultLogTail = 50

// LogReader fetches pod logs on demand. Implemented by the kube package;
// stubbed in tests.
type LogReader interface {
	PodLogs(ctx context.Context, namespace, pod, container string, tail int64) (types.PodLogs, error)
	ErrorLogs(ctx context.Context, namespace string) ([]types.LogMatch, error)
}

// Handler is the HTTP handler for /healthz and all /api/v1/* endpoints.
// It reads from the observation store and the alert engine and returns JSON.
type Handler struct {
	store  *store.Store
	engine *alerts.Engine
	logs   LogReader
	mux    *http.ServeMux
}

// New creates a Handler wired to the given store, engine, and log reader,
// and registers all routes. logs may be nil; the log endpoints then return
// 503 Service Unavailable.
func New(st *store.Store, eng *alerts.Engine, logs LogReader) http.Handler {
	h := &Handler{store: st, engine: eng, logs: logs, mux: http.NewServeMux()}

	h.mux.HandleFunc("/healthz", h.healthz)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/pods", h.pods)
	h.mux.HandleFunc("/api/v1/deployments", h.deployments)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/errors", h.errorLogs)
	h.mux.HandleFunc("/api/v1/logs/", h.podLogs) // subtree — extracts {pod}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// healthz returns GET /healthz — process liveness, not cluster health.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"observations": h.store.Count(),
	})
}

// snapshot returns GET /api/v1/snapshot — the latest full observation.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	obs := h.store.Latest()
	if obs == nil {
		jsonErr(w, http.StatusNotFound, "no observation collected yet")
		return
	}
	jsonResp(w, http.StatusOK, BuildStatus(obs))
}

// pods returns GET /api/v1/pods — pods from the latest snapshot.
func (h *Handler) pods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	obs := h.store.Latest()
	if obs == nil {
		jsonResp(w, http.StatusOK, []types.Pod{})
		return
	}
	jsonResp(w, http.StatusOK, obs.Snapshot.Pods)
}

// deployments returns GET /api/v1/deployments — deployments from the latest
// snapshot.
func (h *Handler) deployments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	obs := h.store.Latest()
	if obs == nil {
		jsonResp(w, http.StatusOK, []types.Deployment{})
		return
	}
	jsonResp(w, http.StatusOK, obs.Snapshot.Deployments)
}

// alerts returns GET /api/v1/alerts — the current cycle's alerts plus
// history. ?limit=N caps the history tail; 0 or absent returns all of it.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jsonErr(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	jsonResp(w, http.StatusOK, AlertsResponse{
		Active:  h.engine.Current(),
		History: h.engine.History(limit),
	})
}

// health returns GET /api/v1/health — per-deployment scores plus aggregates
// from the latest observation.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	obs := h.store.Latest()
	if obs == nil {
		jsonResp(w, http.StatusOK, HealthResponse{
			Status: "unknown",
			Scores: map[string]types.HealthScore{},
		})
		return
	}

	resp := HealthResponse{
		DeploymentCount: len(obs.Scores),
		Scores:          obs.Scores,
	}
	var total int
	for _, s := range obs.Scores {
		total += s.Score
		switch s.Status {
		case types.HealthHealthy:
			resp.HealthyCount++
		case types.HealthDegraded:
			resp.DegradedCount++
		case types.HealthUnhealthy:
			resp.UnhealthyCount++
		default:
			resp.CriticalCount++
		}
	}
	if len(obs.Scores) > 0 {
		resp.OverallScore = total / len(obs.Scores)
		resp.Status = health.StatusForScore(resp.OverallScore)
	} else {
		resp.Status = "unknown"
	}
	jsonResp(w, http.StatusOK, resp)
}

// errorLogs returns GET /api/v1/errors — error-keyword matches across pod
// logs in the observed namespace.
func (h *Handler) errorLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.logs == nil {
		jsonErr(w, http.StatusServiceUnavailable, "log access not configured")
		return
	}

	matches, err := h.logs.ErrorLogs(r.Context(), h.requestNamespace(r))
	if err != nil {
		jsonErr(w, http.StatusBadGateway, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, matches)
}

// podLogs returns GET /api/v1/logs/{pod} — the pod's recent log lines.
// Optional query params: container, tail, namespace.
func (h *Handler) podLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.logs == nil {
		jsonErr(w, http.StatusServiceUnavailable, "log access not configured")
		return
	}

	pod := strings.TrimPrefix(r.URL.Path, "/api/v1/logs/")
	if pod == "" || strings.Contains(pod, "/") {
		jsonErr(w, http.StatusBadRequest, "pod name required")
		return
	}

	tail := int64(defaultLogTail)
	if s := r.URL.Query().Get("tail"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			jsonErr(w, http.StatusBadRequest, "tail must be a positive integer")
			return
		}
		tail = n
	}

	logs, err := h.logs.PodLogs(r.Context(), h.requestNamespace(r), pod, r.URL.Query().Get("container"), tail)
	if err != nil {
		jsonErr(w, http.StatusBadGateway, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, logs)
}

// requestNamespace resolves the namespace for a log request: the explicit
// query param wins, then the latest observation's namespace.
func (h *Handler) requestNamespace(r *http.Request) string {
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		return ns
	}
	if obs := h.store.Latest(); obs != nil {
		return obs.Namespace
	}
	return "default"
}

// --- helpers ----------------------------------------------------------------

// BuildStatus maps an observation to its JSON representation. The websocket
// hub uses the same shape for its status pushes.
func BuildStatus(obs *store.Observation) StatusResponse {
	snap := obs.Snapshot
	return StatusResponse{
		Namespace:   obs.Namespace,
		Cluster:     snap.Cluster,
		Summary:     snap.Summary,
		Nodes:       snap.Nodes,
		Pods:        snap.Pods,
		Deployments: snap.Deployments,
		Services:    snap.Services,
		Events:      snap.Events,
		PodMetrics:  obs.PodMetrics,
		NodeMetrics: obs.NodeMetrics,
		Alerts:      obs.Alerts,
		Scores:      obs.Scores,
		PromUsage:   obs.PromUsage,
		UpdatedAt:   obs.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
