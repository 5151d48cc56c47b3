package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kubewatch/kubewatch/internal/alerts"
	"github.com/kubewatch/kubewatch/internal/api"
	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/internal/store"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// --- test helpers -----------------------------------------------------------

func testThresholds() config.Thresholds {
	return config.Thresholds{
		CPUWarn: 70, CPUCrit: 90,
		MemWarn: 75, MemCrit: 90,
		RestartWarn: 3, RestartCrit: 5,
	}
}

func newStore(observations ...*store.Observation) *store.Store {
	st := store.New(5 * time.Minute)
	for _, o := range observations {
		st.Put(o)
	}
	return st
}

func testObservation() *store.Observation {
	return &store.Observation{
		Namespace: "default",
		Snapshot: &types.ClusterSnapshot{
			Pods: []types.Pod{
				{Name: "api-7f", Namespace: "default", Status: types.PodRunning},
				{Name: "web-0", Namespace: "default", Status: types.PodFailed},
			},
			Deployments: []types.Deployment{
				{Name: "api", Namespace: "default", ReplicasDesired: 2, ReplicasReady: 2},
			},
		},
		Alerts: []types.Alert{
			{Severity: types.SeverityCritical, Type: types.AlertPodFailed, Pod: "web-0"},
		},
		Scores: map[string]types.HealthScore{
			"api": {Name: "api", Score: 100, Status: types.HealthHealthy, Replicas: "2/2"},
			"web": {Name: "web", Score: 40, Status: types.HealthCritical, Replicas: "0/1"},
		},
	}
}

// fakeLogReader serves canned log responses.
type fakeLogReader struct {
	logs    types.PodLogs
	matches []types.LogMatch
	err     error

	gotNamespace string
	gotPod       string
	gotTail      int64
}

func (f *fakeLogReader) PodLogs(_ context.Context, namespace, pod, container string, tail int64) (types.PodLogs, error) {
	f.gotNamespace, f.gotPod, f.gotTail = namespace, pod, tail
	return f.logs, f.err
}

func (f *fakeLogReader) ErrorLogs(_ context.Context, namespace string) ([]types.LogMatch, error) {
	f.gotNamespace = namespace
	return f.matches, f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /healthz ---------------------------------------------------------------

func TestHealthz(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/healthz")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status field: got %v, want ok", resp["status"])
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot_Empty(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/snapshot")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestSnapshot(t *testing.T) {
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/snapshot")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.StatusResponse
	decode(t, rr, &resp)

	if resp.Namespace != "default" {
		t.Errorf("namespace: got %q, want default", resp.Namespace)
	}
	if len(resp.Pods) != 2 || len(resp.Deployments) != 1 {
		t.Errorf("got %d pods / %d deployments, want 2 / 1", len(resp.Pods), len(resp.Deployments))
	}
	if len(resp.Alerts) != 1 || resp.Alerts[0].Type != types.AlertPodFailed {
		t.Errorf("alerts: got %+v", resp.Alerts)
	}
	if resp.UpdatedAt == "" {
		t.Error("updated_at missing")
	}
}

// --- /api/v1/pods and /api/v1/deployments -----------------------------------

func TestPods(t *testing.T) {
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/pods")

	var pods []types.Pod
	decode(t, rr, &pods)
	if len(pods) != 2 {
		t.Fatalf("got %d pods, want 2", len(pods))
	}
}

func TestPods_EmptyStore(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/pods")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var pods []types.Pod
	decode(t, rr, &pods)
	if len(pods) != 0 {
		t.Errorf("got %d pods, want 0", len(pods))
	}
}

func TestDeployments(t *testing.T) {
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/deployments")

	var deps []types.Deployment
	decode(t, rr, &deps)
	if len(deps) != 1 || deps[0].Name != "api" {
		t.Fatalf("got %+v, want the api deployment", deps)
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts(t *testing.T) {
	eng := alerts.New(testThresholds())
	eng.Evaluate(&types.ClusterSnapshot{
		Pods: []types.Pod{{Name: "web-0", Status: types.PodFailed}},
	}, nil)

	h := api.New(newStore(), eng, nil)
	rr := get(t, h, "/api/v1/alerts")

	var resp api.AlertsResponse
	decode(t, rr, &resp)
	if len(resp.Active) != 1 || len(resp.History) != 1 {
		t.Fatalf("got %d active / %d history, want 1 / 1", len(resp.Active), len(resp.History))
	}
}

func TestAlerts_Limit(t *testing.T) {
	eng := alerts.New(testThresholds())
	for i := 0; i < 5; i++ {
		eng.Evaluate(&types.ClusterSnapshot{
			Pods: []types.Pod{{Name: "web-0", Status: types.PodFailed}},
		}, nil)
	}

	h := api.New(newStore(), eng, nil)
	rr := get(t, h, "/api/v1/alerts?limit=2")

	var resp api.AlertsResponse
	decode(t, rr, &resp)
	if len(resp.History) != 2 {
		t.Fatalf("got %d history entries, want 2", len(resp.History))
	}
}

func TestAlerts_BadLimit(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/alerts?limit=abc")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_EmptyStore(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "unknown" {
		t.Errorf("status: got %q, want unknown", resp.Status)
	}
}

func TestHealth(t *testing.T) {
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/health")

	var resp api.HealthResponse
	decode(t, rr, &resp)

	if resp.DeploymentCount != 2 {
		t.Errorf("deployment_count: got %d, want 2", resp.DeploymentCount)
	}
	// (100 + 40) / 2 = 70 → degraded.
	if resp.OverallScore != 70 || resp.Status != types.HealthDegraded {
		t.Errorf("overall: got %d/%s, want 70/degraded", resp.OverallScore, resp.Status)
	}
	if resp.HealthyCount != 1 || resp.CriticalCount != 1 {
		t.Errorf("counts: healthy=%d critical=%d, want 1/1", resp.HealthyCount, resp.CriticalCount)
	}
}

// --- /api/v1/logs/{pod} and /api/v1/errors ----------------------------------

func TestPodLogs(t *testing.T) {
	fake := &fakeLogReader{
		logs: types.PodLogs{Pod: "api-7f", Namespace: "default", Lines: []string{"a", "b"}, Count: 2},
	}
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), fake)
	rr := get(t, h, "/api/v1/logs/api-7f?tail=20")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp types.PodLogs
	decode(t, rr, &resp)
	if resp.Count != 2 {
		t.Errorf("count: got %d, want 2", resp.Count)
	}
	if fake.gotPod != "api-7f" || fake.gotTail != 20 {
		t.Errorf("reader called with pod=%q tail=%d", fake.gotPod, fake.gotTail)
	}
	// Namespace falls back to the latest observation's.
	if fake.gotNamespace != "default" {
		t.Errorf("namespace: got %q, want default", fake.gotNamespace)
	}
}

func TestPodLogs_MissingPod(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), &fakeLogReader{})
	rr := get(t, h, "/api/v1/logs/")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestPodLogs_NoReader(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := get(t, h, "/api/v1/logs/api-7f")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
}

func TestErrorLogs(t *testing.T) {
	fake := &fakeLogReader{
		matches: []types.LogMatch{{Pod: "api-7f", Text: "ERROR connection refused"}},
	}
	h := api.New(newStore(testObservation()), alerts.New(testThresholds()), fake)
	rr := get(t, h, "/api/v1/errors")

	var resp []types.LogMatch
	decode(t, rr, &resp)
	if len(resp) != 1 || resp[0].Pod != "api-7f" {
		t.Fatalf("got %+v, want the api-7f match", resp)
	}
}

func TestErrorLogs_ReaderError(t *testing.T) {
	fake := &fakeLogReader{err: errors.New("cluster unreachable")}
	h := api.New(newStore(), alerts.New(testThresholds()), fake)
	rr := get(t, h, "/api/v1/errors")

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
}

// --- method handling --------------------------------------------------------

func TestMethodNotAllowed(t *testing.T) {
	h := api.New(newStore(), alerts.New(testThresholds()), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d, want 405", rr.Code)
	}
}
