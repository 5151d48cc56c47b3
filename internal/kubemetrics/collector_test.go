package kubemetrics

import (
	"context"
	"errors"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/kubewatch/kubewatch/internal/config"
)

func podMetrics(name string, containers ...metricsv1beta1.ContainerMetrics) *metricsv1beta1.PodMetrics {
	return &metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default"},
		Containers: containers,
	}
}

func usage(cpu, mem string) corev1.ResourceList {
	return corev1.ResourceList{
		corev1.ResourceCPU:    resource.MustParse(cpu),
		corev1.ResourceMemory: resource.MustParse(mem),
	}
}

func TestPodMetrics(t *testing.T) {
	mc := metricsfake.NewSimpleClientset(
		podMetrics("api-7f",
			metricsv1beta1.ContainerMetrics{Name: "app", Usage: usage("250m", "128Mi")},
			metricsv1beta1.ContainerMetrics{Name: "sidecar", Usage: usage("50m", "64Mi")},
		),
	)

	c := NewCollector(mc, config.KubeConfig{Namespace: "default"})
	got := c.PodMetrics(context.Background())
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}

	pm := got[0]
	if pm.Err != "" {
		t.Fatalf("unexpected error marker: %q", pm.Err)
	}
	if pm.CPUMillicores != 300 {
		t.Errorf("cpu = %d, want 300 (summed)", pm.CPUMillicores)
	}
	if pm.MemoryBytes != 192*1024*1024 {
		t.Errorf("memory bytes = %d, want %d", pm.MemoryBytes, 192*1024*1024)
	}
	if pm.MemoryMB != 192 {
		t.Errorf("memory MB = %d, want 192", pm.MemoryMB)
	}
	if len(pm.Containers) != 2 {
		t.Errorf("got %d container metrics, want 2", len(pm.Containers))
	}
}

func TestPodMetrics_APIDown(t *testing.T) {
	mc := metricsfake.NewSimpleClientset()
	mc.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("the server could not find the requested resource")
	})

	c := NewCollector(mc, config.KubeConfig{Namespace: "default"})
	got := c.PodMetrics(context.Background())

	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1 marker entry", len(got))
	}
	if got[0].Err == "" {
		t.Fatal("marker entry missing error text")
	}
	if got[0].CPUMillicores != 0 || got[0].MemoryBytes != 0 {
		t.Errorf("marker entry must not carry usage values: %+v", got[0])
	}
}

func TestNodeMetrics(t *testing.T) {
	mc := metricsfake.NewSimpleClientset(
		&metricsv1beta1.NodeMetrics{
			ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
			Usage:      usage("1500m", "2Gi"),
		},
	)

	c := NewCollector(mc, config.KubeConfig{})
	got := c.NodeMetrics(context.Background())
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].CPUMillicores != 1500 {
		t.Errorf("cpu = %d, want 1500", got[0].CPUMillicores)
	}
	if got[0].MemoryMB != 2048 {
		t.Errorf("memory MB = %d, want 2048", got[0].MemoryMB)
	}
}

func TestNodeMetrics_APIDown(t *testing.T) {
	mc := metricsfake.NewSimpleClientset()
	mc.PrependReactor("list", "nodes", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	c := NewCollector(mc, config.KubeConfig{})
	got := c.NodeMetrics(context.Background())
	if len(got) != 1 || got[0].Err == "" {
		t.Fatalf("got %+v, want one marker entry", got)
	}
}
