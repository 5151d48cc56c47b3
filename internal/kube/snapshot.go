package kube

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubewatch/kubewatch/pkg/types"
)

// Snapshot performs one full collection pass and returns a consistent view
// of the scoped cluster state. Events failing to list is tolerated (the
// snapshot ships without them); any other list error aborts the pass.
func (c *Client) Snapshot(ctx context.Context) (*types.ClusterSnapshot, error) {
	snap := &types.ClusterSnapshot{Timestamp: time.Now().UTC()}

	var err error
	if snap.Pods, err = c.Pods(ctx); err != nil {
		return nil, fmt.Errorf("kube: list pods: %w", err)
	}
	if snap.Deployments, err = c.Deployments(ctx); err != nil {
		return nil, fmt.Errorf("kube: list deployments: %w", err)
	}
	if snap.Nodes, err = c.Nodes(ctx); err != nil {
		return nil, fmt.Errorf("kube: list nodes: %w", err)
	}
	if snap.Services, err = c.Services(ctx); err != nil {
		return nil, fmt.Errorf("kube: list services: %w", err)
	}
	if snap.Events, err = c.Events(ctx); err != nil {
		snap.Events = nil
	}
	snap.Cluster = c.ClusterInfo()

	EnrichSummary(snap)
	return snap, nil
}

// Pods lists pods in scope and converts them to snapshot form.
func (c *Client) Pods(ctx context.Context) ([]types.Pod, error) {
	list, err := c.cs.CoreV1().Pods(c.scope()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]types.Pod, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, podFromK8s(&list.Items[i]))
	}
	return out, nil
}

// Deployments lists deployments in scope.
func (c *Client) Deployments(ctx context.Context) ([]types.Deployment, error) {
	list, err := c.cs.AppsV1().Deployments(c.scope()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]types.Deployment, 0, len(list.Items))
	for _, d := range list.Items {
		desired := int32(0)
		if d.Spec.Replicas != nil {
			desired = *d.Spec.Replicas
		}
		out = append(out, types.Deployment{
			Name:              d.Name,
			Namespace:         d.Namespace,
			ReplicasDesired:   desired,
			ReplicasReady:     d.Status.ReadyReplicas,
			ReplicasAvailable: d.Status.AvailableReplicas,
			ReplicasUpdated:   d.Status.UpdatedReplicas,
			Labels:            d.Labels,
			Created:           d.CreationTimestamp.Time,
		})
	}
	return out, nil
}

// Nodes lists cluster nodes. Nodes are cluster-scoped, so the namespace
// scope does not apply.
func (c *Client) Nodes(ctx context.Context) ([]types.Node, error) {
	list, err := c.cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]types.Node, 0, len(list.Items))
	for _, n := range list.Items {
		status := "NotReady"
		for _, cond := range n.Status.Conditions {
			if cond.Type == corev1.NodeReady && cond.Status == corev1.ConditionTrue {
				status = "Ready"
				break
			}
		}
		out = append(out, types.Node{
			Name:              n.Name,
			Status:            status,
			Roles:             nodeRoles(n.Labels),
			CPUCapacity:       n.Status.Capacity.Cpu().String(),
			MemoryCapacity:    n.Status.Capacity.Memory().String(),
			CPUAllocatable:    n.Status.Allocatable.Cpu().String(),
			MemoryAllocatable: n.Status.Allocatable.Memory().String(),
			OSImage:           n.Status.NodeInfo.OSImage,
			KernelVersion:     n.Status.NodeInfo.KernelVersion,
			ContainerRuntime:  n.Status.NodeInfo.ContainerRuntimeVersion,
			KubeletVersion:    n.Status.NodeInfo.KubeletVersion,
			Created:           n.CreationTimestamp.Time,
		})
	}
	return out, nil
}

// Services lists services in scope.
func (c *Client) Services(ctx context.Context) ([]types.Service, error) {
	list, err := c.cs.CoreV1().Services(c.scope()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]types.Service, 0, len(list.Items))
	for _, s := range list.Items {
		ports := make([]types.ServicePort, 0, len(s.Spec.Ports))
		for _, p := range s.Spec.Ports {
			ports = append(ports, types.ServicePort{
				Port:       p.Port,
				TargetPort: p.TargetPort.String(),
				Protocol:   string(p.Protocol),
			})
		}
		out = append(out, types.Service{
			Name:      s.Name,
			Namespace: s.Namespace,
			Type:      string(s.Spec.Type),
			ClusterIP: s.Spec.ClusterIP,
			Ports:     ports,
			Selector:  s.Spec.Selector,
			Created:   s.CreationTimestamp.Time,
		})
	}
	return out, nil
}

// Events lists events in scope, newest first, capped at the configured
// event limit.
func (c *Client) Events(ctx context.Context) ([]types.Event, error) {
	list, err := c.cs.CoreV1().Events(c.scope()).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	events := make([]types.Event, 0, len(list.Items))
	for _, e := range list.Items {
		events = append(events, types.Event{
			Type:      e.Type,
			Reason:    e.Reason,
			Message:   e.Message,
			Object:    fmt.Sprintf("%s/%s", e.InvolvedObject.Kind, e.InvolvedObject.Name),
			Namespace: e.Namespace,
			Count:     e.Count,
			Timestamp: e.LastTimestamp.Time,
		})
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if c.eventLimit > 0 && len(events) > c.eventLimit {
		events = events[:c.eventLimit]
	}
	return events, nil
}

// ClusterInfo returns server version info. Missing discovery data is not an
// error; the fields just stay empty.
func (c *Client) ClusterInfo() types.ClusterInfo {
	v, err := c.cs.Discovery().ServerVersion()
	if err != nil {
		return types.ClusterInfo{}
	}
	return types.ClusterInfo{
		Version:  v.GitVersion,
		Platform: v.Platform,
	}
}

// EnrichSummary computes and attaches the aggregate counts for a snapshot.
func EnrichSummary(snap *types.ClusterSnapshot) {
	s := &types.Summary{
		TotalPods:        len(snap.Pods),
		TotalNodes:       len(snap.Nodes),
		TotalDeployments: len(snap.Deployments),
		TotalServices:    len(snap.Services),
	}
	for _, p := range snap.Pods {
		switch p.Status {
		case types.PodRunning:
			s.RunningPods++
		case types.PodFailed:
			s.FailedPods++
		case types.PodPending:
			s.PendingPods++
		}
		s.TotalRestarts += p.RestartCount
	}
	for _, n := range snap.Nodes {
		if n.Status == "Ready" {
			s.ReadyNodes++
		}
	}
	for _, d := range snap.Deployments {
		if d.ReplicasDesired > 0 && d.ReplicasReady >= d.ReplicasDesired {
			s.HealthyDeployments++
		}
	}
	for _, e := range snap.Events {
		if e.Type == types.EventWarning {
			s.WarningEvents++
		}
	}
	snap.Summary = s
}

// --- conversions ------------------------------------------------------------

func podFromK8s(p *corev1.Pod) types.Pod {
	var restarts int32
	containers := make([]types.Container, 0, len(p.Status.ContainerStatuses))
	for _, cs := range p.Status.ContainerStatuses {
		restarts += cs.RestartCount
		containers = append(containers, types.Container{
			Name:         cs.Name,
			Image:        cs.Image,
			Ready:        cs.Ready,
			RestartCount: cs.RestartCount,
			State:        containerState(cs.State),
		})
	}

	cpuReq, memReq := sumResources(p, func(r corev1.ResourceRequirements) corev1.ResourceList { return r.Requests })
	cpuLim, memLim := sumResources(p, func(r corev1.ResourceRequirements) corev1.ResourceList { return r.Limits })

	return types.Pod{
		Name:         p.Name,
		Namespace:    p.Namespace,
		Status:       string(p.Status.Phase),
		Node:         p.Spec.NodeName,
		IP:           p.Status.PodIP,
		RestartCount: restarts,
		Containers:   containers,
		Labels:       p.Labels,
		CPURequest:   cpuReq,
		MemRequest:   memReq,
		CPULimit:     cpuLim,
		MemLimit:     memLim,
		Created:      p.CreationTimestamp.Time,
	}
}

// containerState maps the Kubernetes container state union onto the tagged
// snapshot representation.
func containerState(s corev1.ContainerState) types.ContainerState {
	switch {
	case s.Running != nil:
		return types.ContainerState{Kind: types.ContainerRunning}
	case s.Waiting != nil:
		return types.ContainerState{Kind: types.ContainerWaiting, Reason: s.Waiting.Reason}
	case s.Terminated != nil:
		return types.ContainerState{Kind: types.ContainerTerminated, Reason: s.Terminated.Reason}
	}
	return types.ContainerState{Kind: types.ContainerUnknown}
}

// sumResources totals one resource-list field (requests or limits) across a
// pod's containers. Returns quantity strings; empty when nothing is set.
func sumResources(p *corev1.Pod, pick func(corev1.ResourceRequirements) corev1.ResourceList) (cpu, mem string) {
	var cpuTotal, memTotal resource.Quantity
	for _, c := range p.Spec.Containers {
		rl := pick(c.Resources)
		if q, ok := rl[corev1.ResourceCPU]; ok {
			cpuTotal.Add(q)
		}
		if q, ok := rl[corev1.ResourceMemory]; ok {
			memTotal.Add(q)
		}
	}
	if !cpuTotal.IsZero() {
		cpu = cpuTotal.String()
	}
	if !memTotal.IsZero() {
		mem = memTotal.String()
	}
	return cpu, mem
}

// nodeRoles extracts role names from node-role.kubernetes.io/* labels.
func nodeRoles(labels map[string]string) string {
	var roles []string
	for k := range labels {
		if role, ok := strings.CutPrefix(k, "node-role.kubernetes.io/"); ok && role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return "<none>"
	}
	sort.Strings(roles)
	return strings.Join(roles, ",")
}
