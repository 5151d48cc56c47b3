package types

import "time"

// ContainerMetric is per-container resource usage within a PodMetric.
type ContainerMetric struct {
	Name          string `json:"name"`
	CPUMillicores int64  `json:"cpu_millicores"`
	MemoryMB      int64  `json:"memory_mb"`
}

// PodMetric is one pod's resource usage as reported by the metrics API,
// summed across its containers. A non-empty Err means usage could not be
// collected for this entry; consumers must skip it rather than treat the
// zero-valued usage fields as real readings.
type PodMetric struct {
	Name          string            `json:"name,omitempty"`
	Namespace     string            `json:"namespace,omitempty"`
	CPUMillicores int64             `json:"cpu_usage_millicores"`
	MemoryMB      int64             `json:"memory_usage_mb"`
	MemoryBytes   int64             `json:"memory_usage_bytes"`
	Containers    []ContainerMetric `json:"containers,omitempty"`
	Timestamp     time.Time         `json:"timestamp,omitempty"`
	Err           string            `json:"error,omitempty"`
}

// NodeMetric is one node's resource usage as reported by the metrics API.
type NodeMetric struct {
	Name          string    `json:"name,omitempty"`
	CPUMillicores int64     `json:"cpu_usage_millicores"`
	MemoryMB      int64     `json:"memory_usage_mb"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	Err           string    `json:"error,omitempty"`
}

// PodLogs is the result of tailing one pod's log.
type PodLogs struct {
	Pod       string   `json:"pod"`
	Namespace string   `json:"namespace"`
	Container string   `json:"container,omitempty"`
	Lines     []string `json:"lines"`
	Count     int      `json:"count"`
	Err       string   `json:"error,omitempty"`
}

// LogMatch is one log line that matched a keyword or error scan.
type LogMatch struct {
	Pod       string `json:"pod"`
	Namespace string `json:"namespace"`
	Container string `json:"container,omitempty"`
	Line      int    `json:"line_number,omitempty"`
	Text      string `json:"text"`
}
