package types

import "time"

// Pod phase values, matching the Kubernetes pod lifecycle.
const (
	PodRunning   = "Running"
	PodPending   = "Pending"
	PodFailed    = "Failed"
	PodSucceeded = "Succeeded"
	PodUnknown   = "Unknown"
)

// Event types as reported by the Kubernetes API.
const (
	EventNormal  = "Normal"
	EventWarning = "Warning"
)

// ContainerStateKind is the discriminant of a ContainerState.
type ContainerStateKind string

// Container state kinds.
const (
	ContainerRunning    ContainerStateKind = "running"
	ContainerWaiting    ContainerStateKind = "waiting"
	ContainerTerminated ContainerStateKind = "terminated"
	ContainerUnknown    ContainerStateKind = "unknown"
)

// Waiting reasons the alert engine matches on. These are the literal reason
// codes the kubelet sets; matching is by exact code, never by substring.
const (
	ReasonCrashLoopBackOff = "CrashLoopBackOff"
	ReasonImagePullBackOff = "ImagePullBackOff"
	ReasonErrImagePull     = "ErrImagePull"
)

// ContainerState is a tagged representation of a container's lifecycle state.
// Reason is set for waiting and terminated states ("CrashLoopBackOff",
// "OOMKilled", ...) and empty for running containers.
type ContainerState struct {
	Kind   ContainerStateKind `json:"kind"`
	Reason string             `json:"reason,omitempty"`
}

// String renders the state for display, e.g. "waiting (CrashLoopBackOff)".
func (s ContainerState) String() string {
	if s.Reason == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + " (" + s.Reason + ")"
}

// Container is the observed status of one container within a pod.
type Container struct {
	Name         string         `json:"name"`
	Image        string         `json:"image,omitempty"`
	Ready        bool           `json:"ready"`
	RestartCount int32          `json:"restart_count"`
	State        ContainerState `json:"state"`
}

// Pod is a point-in-time view of one pod. Resource requests and limits are
// carried as Kubernetes quantity strings ("250m", "128Mi"); "0" or the empty
// string means unset/unlimited.
type Pod struct {
	Name         string            `json:"name"`
	Namespace    string            `json:"namespace"`
	Status       string            `json:"status"`
	Node         string            `json:"node,omitempty"`
	IP           string            `json:"ip,omitempty"`
	RestartCount int32             `json:"restart_count"`
	Containers   []Container       `json:"containers"`
	Labels       map[string]string `json:"labels,omitempty"`
	CPURequest   string            `json:"cpu_request,omitempty"`
	MemRequest   string            `json:"mem_request,omitempty"`
	CPULimit     string            `json:"cpu_limit,omitempty"`
	MemLimit     string            `json:"mem_limit,omitempty"`
	Created      time.Time         `json:"created,omitempty"`
}

// Deployment is a point-in-time view of one deployment's replica state.
// ReplicasReady can exceed ReplicasDesired during rollout transients.
type Deployment struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	ReplicasDesired   int32             `json:"replicas_desired"`
	ReplicasReady     int32             `json:"replicas_ready"`
	ReplicasAvailable int32             `json:"replicas_available"`
	ReplicasUpdated   int32             `json:"replicas_updated"`
	Labels            map[string]string `json:"labels,omitempty"`
	Created           time.Time         `json:"created,omitempty"`
}

// ServicePort is one exposed port of a Service.
type ServicePort struct {
	Port       int32  `json:"port"`
	TargetPort string `json:"target_port"`
	Protocol   string `json:"protocol"`
}

// Service is a point-in-time view of one service.
type Service struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Type      string            `json:"type"`
	ClusterIP string            `json:"cluster_ip,omitempty"`
	Ports     []ServicePort     `json:"ports,omitempty"`
	Selector  map[string]string `json:"selector,omitempty"`
	Created   time.Time         `json:"created,omitempty"`
}

// Node is a point-in-time view of one cluster node. Capacity and allocatable
// fields are Kubernetes quantity strings.
type Node struct {
	Name              string    `json:"name"`
	Status            string    `json:"status"` // "Ready" | "NotReady"
	Roles             string    `json:"roles"`
	CPUCapacity       string    `json:"cpu_capacity"`
	MemoryCapacity    string    `json:"memory_capacity"`
	CPUAllocatable    string    `json:"cpu_allocatable"`
	MemoryAllocatable string    `json:"memory_allocatable"`
	OSImage           string    `json:"os,omitempty"`
	KernelVersion     string    `json:"kernel,omitempty"`
	ContainerRuntime  string    `json:"container_runtime,omitempty"`
	KubeletVersion    string    `json:"kubelet_version,omitempty"`
	Created           time.Time `json:"created,omitempty"`
}

// Event is one cluster event. Message always carries the full text; any
// truncation for display happens at the presentation layer.
type Event struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Object    string    `json:"object"` // "Kind/name" of the involved object
	Namespace string    `json:"namespace,omitempty"`
	Count     int32     `json:"count"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ClusterInfo is basic version information about the cluster.
type ClusterInfo struct {
	Version  string `json:"version,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// Summary holds aggregate counts derived from a snapshot.
type Summary struct {
	TotalPods          int   `json:"total_pods"`
	RunningPods        int   `json:"running_pods"`
	FailedPods         int   `json:"failed_pods"`
	PendingPods        int   `json:"pending_pods"`
	TotalNodes         int   `json:"total_nodes"`
	ReadyNodes         int   `json:"ready_nodes"`
	TotalDeployments   int   `json:"total_deployments"`
	HealthyDeployments int   `json:"healthy_deployments"`
	TotalServices      int   `json:"total_services"`
	TotalRestarts      int32 `json:"total_restarts"`
	WarningEvents      int   `json:"warning_events"`
}

// ClusterSnapshot is a single consistent point-in-time read of cluster state,
// the input to one evaluation cycle. It is treated as immutable once built.
// Empty slices and a nil Summary are valid; consumers never nil-deref on them.
type ClusterSnapshot struct {
	Timestamp   time.Time    `json:"timestamp"`
	Cluster     ClusterInfo  `json:"cluster"`
	Nodes       []Node       `json:"nodes"`
	Pods        []Pod        `json:"pods"`
	Services    []Service    `json:"services"`
	Deployments []Deployment `json:"deployments"`
	Events      []Event      `json:"events"`
	Summary     *Summary     `json:"summary,omitempty"`
}
