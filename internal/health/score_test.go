package health

import (
	"testing"

	"github.com/kubewatch/kubewatch/pkg/types"
)

func crashLooping(name string) types.Container {
	return types.Container{
		Name:  name,
		State: types.ContainerState{Kind: types.ContainerWaiting, Reason: types.ReasonCrashLoopBackOff},
	}
}

func TestScoresHealthy(t *testing.T) {
	snap := &types.ClusterSnapshot{
		Deployments: []types.Deployment{{Name: "api", Namespace: "default", ReplicasDesired: 3, ReplicasReady: 3}},
		Pods: []types.Pod{
			{Name: "api-1", Status: types.PodRunning},
			{Name: "api-2", Status: types.PodRunning},
			{Name: "api-3", Status: types.PodRunning},
		},
	}

	got := Scores(snap, nil)
	s, ok := got["api"]
	if !ok {
		t.Fatal("missing score for api")
	}
	if s.Score != 100 || s.Status != types.HealthHealthy {
		t.Errorf("got %d/%s, want 100/healthy", s.Score, s.Status)
	}
	if s.Replicas != "3/3" {
		t.Errorf("replicas = %q, want 3/3", s.Replicas)
	}
}

func TestScoresDeductions(t *testing.T) {
	tests := []struct {
		name       string
		dep        types.Deployment
		pods       []types.Pod
		wantScore  int
		wantStatus string
	}{
		{
			name:       "no ready replicas",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 3, ReplicasReady: 0},
			wantScore:  50,
			wantStatus: types.HealthUnhealthy,
		},
		{
			name:       "partial replicas",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 3, ReplicasReady: 1},
			wantScore:  75,
			wantStatus: types.HealthDegraded,
		},
		{
			name:       "scaled to zero",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 0, ReplicasReady: 0},
			wantScore:  100,
			wantStatus: types.HealthHealthy,
		},
		{
			name:       "restart deduction",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			pods:       []types.Pod{{Name: "api-1", Status: types.PodRunning, RestartCount: 2}},
			wantScore:  90,
			wantStatus: types.HealthHealthy,
		},
		{
			name:       "restart deduction capped at 30",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			pods:       []types.Pod{{Name: "api-1", Status: types.PodRunning, RestartCount: 40}},
			wantScore:  70,
			wantStatus: types.HealthDegraded,
		},
		{
			name:       "failed pod",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			pods:       []types.Pod{{Name: "api-1", Status: types.PodFailed}},
			wantScore:  90,
			wantStatus: types.HealthHealthy,
		},
		{
			name:       "pending pod",
			dep:        types.Deployment{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			pods:       []types.Pod{{Name: "api-1", Status: types.PodPending}},
			wantScore:  90,
			wantStatus: types.HealthHealthy,
		},
		{
			name: "crash looping container",
			dep:  types.Deployment{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			pods: []types.Pod{{
				Name: "api-1", Status: types.PodRunning,
				Containers: []types.Container{crashLooping("app")},
			}},
			wantScore:  80,
			wantStatus: types.HealthDegraded,
		},
		{
			name: "deductions stack",
			dep:  types.Deployment{Name: "api", ReplicasDesired: 3, ReplicasReady: 1},
			pods: []types.Pod{
				{Name: "api-1", Status: types.PodPending, RestartCount: 2},
				{Name: "api-2", Status: types.PodRunning, Containers: []types.Container{crashLooping("app")}},
			},
			// 100 - 25 (partial) - 10 (restarts) - 10 (pending) - 20 (crash loop)
			wantScore:  35,
			wantStatus: types.HealthCritical,
		},
		{
			name: "clamped at zero",
			dep:  types.Deployment{Name: "api", ReplicasDesired: 3, ReplicasReady: 0},
			pods: []types.Pod{
				{Name: "api-1", Status: types.PodFailed, RestartCount: 10,
					Containers: []types.Container{crashLooping("app")}},
				{Name: "api-2", Status: types.PodFailed,
					Containers: []types.Container{crashLooping("app")}},
			},
			wantScore:  0,
			wantStatus: types.HealthCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &types.ClusterSnapshot{
				Deployments: []types.Deployment{tt.dep},
				Pods:        tt.pods,
			}
			got := Scores(snap, nil)
			s := got[tt.dep.Name]
			if s.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", s.Score, tt.wantScore)
			}
			if s.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", s.Status, tt.wantStatus)
			}
		})
	}
}

func TestScoresIdempotent(t *testing.T) {
	snap := &types.ClusterSnapshot{
		Deployments: []types.Deployment{{Name: "api", ReplicasDesired: 3, ReplicasReady: 1}},
		Pods:        []types.Pod{{Name: "api-1", Status: types.PodPending, RestartCount: 4}},
	}

	first := Scores(snap, nil)["api"]
	for i := 0; i < 5; i++ {
		if again := Scores(snap, nil)["api"]; again != first {
			t.Fatalf("pass %d: score changed on recompute: %+v != %+v", i, again, first)
		}
	}
}

func TestScoresSubstringCorrelation(t *testing.T) {
	// "api" collects the "api-gateway" pods too; the heuristic over-matches
	// on name prefixes and that behavior is intentional.
	snap := &types.ClusterSnapshot{
		Deployments: []types.Deployment{
			{Name: "api", ReplicasDesired: 1, ReplicasReady: 1},
			{Name: "api-gateway", ReplicasDesired: 1, ReplicasReady: 1},
		},
		Pods: []types.Pod{
			{Name: "api-7f9c4-x2lzq", Status: types.PodRunning},
			{Name: "api-gateway-55d-9fkwp", Status: types.PodRunning, RestartCount: 2},
		},
	}

	got := Scores(snap, nil)
	if got["api-gateway"].Score != 90 {
		t.Errorf("api-gateway score = %d, want 90", got["api-gateway"].Score)
	}
	// The gateway pod's restarts bleed into the shorter-named deployment.
	if got["api"].Score != 90 {
		t.Errorf("api score = %d, want 90 (over-matched restarts)", got["api"].Score)
	}
	if got["api"].Restarts != 2 {
		t.Errorf("api restarts = %d, want 2", got["api"].Restarts)
	}
}

func TestStatusForScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, types.HealthHealthy},
		{90, types.HealthHealthy},
		{89, types.HealthDegraded},
		{70, types.HealthDegraded},
		{69, types.HealthUnhealthy},
		{50, types.HealthUnhealthy},
		{49, types.HealthCritical},
		{0, types.HealthCritical},
	}
	for _, tt := range tests {
		if got := StatusForScore(tt.score); got != tt.want {
			t.Errorf("StatusForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
