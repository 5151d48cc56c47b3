package kubemetrics

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/internal/kube"
	"github.com/kubewatch/kubewatch/pkg/types"
)

const bytesPerMB = 1024 * 1024

// Collector reads pod and node usage from the metrics API.
type Collector struct {
	mc        metricsclient.Interface
	namespace string
}

// NewCollector wraps an existing metrics clientset. Tests pass a fake here.
func NewCollector(mc metricsclient.Interface, cfg config.KubeConfig) *Collector {
	ns := cfg.Namespace
	if cfg.AllNamespaces {
		ns = ""
	}
	return &Collector{mc: mc, namespace: ns}
}

// Connect builds a metrics clientset for the configured cluster.
func Connect(cfg config.KubeConfig) (*metricsclient.Clientset, error) {
	rc, err := kube.LoadRESTConfig(cfg.Kubeconfig, cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("kubemetrics: load rest config: %w", err)
	}
	mc, err := metricsclient.NewForConfig(rc)
	if err != nil {
		return nil, fmt.Errorf("kubemetrics: build clientset: %w", err)
	}
	return mc, nil
}

// PodMetrics returns per-pod usage summed across containers. When the
// metrics API cannot be reached (metrics-server absent or still warming up)
// the result is a single entry with Err set; consumers skip such entries.
func (c *Collector) PodMetrics(ctx context.Context) []types.PodMetric {
	list, err := c.mc.MetricsV1beta1().PodMetricses(c.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("kubemetrics: pod metrics unavailable", "err", err)
		return []types.PodMetric{{Err: fmt.Sprintf("metrics API unavailable: %v", err)}}
	}

	out := make([]types.PodMetric, 0, len(list.Items))
	for _, m := range list.Items {
		pm := types.PodMetric{
			Name:      m.Name,
			Namespace: m.Namespace,
			Timestamp: m.Timestamp.Time,
		}
		for _, ctr := range m.Containers {
			cpu := ctr.Usage.Cpu().MilliValue()
			memBytes := ctr.Usage.Memory().Value()
			pm.CPUMillicores += cpu
			pm.MemoryBytes += memBytes
			pm.Containers = append(pm.Containers, types.ContainerMetric{
				Name:          ctr.Name,
				CPUMillicores: cpu,
				MemoryMB:      memBytes / bytesPerMB,
			})
		}
		pm.MemoryMB = pm.MemoryBytes / bytesPerMB
		out = append(out, pm)
	}
	return out
}

// NodeMetrics returns per-node usage.
func (c *Collector) NodeMetrics(ctx context.Context) []types.NodeMetric {
	list, err := c.mc.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("kubemetrics: node metrics unavailable", "err", err)
		return []types.NodeMetric{{Err: fmt.Sprintf("metrics API unavailable: %v", err)}}
	}

	out := make([]types.NodeMetric, 0, len(list.Items))
	for _, m := range list.Items {
		nm := types.NodeMetric{
			Name:      m.Name,
			Timestamp: m.Timestamp.Time,
		}
		if q, ok := m.Usage[corev1.ResourceCPU]; ok {
			nm.CPUMillicores = q.MilliValue()
		}
		if q, ok := m.Usage[corev1.ResourceMemory]; ok {
			nm.MemoryMB = q.Value() / bytesPerMB
		}
		out = append(out, nm)
	}
	return out
}
