package promquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/common/model"
)

const queryTimeout = 10 * time.Second

// Client queries a Prometheus server. A zero base URL disables enrichment;
// every method then returns without contacting anything.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given Prometheus base URL ("" disables).
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: queryTimeout},
	}
}

// Enabled reports whether a Prometheus URL is configured.
func (c *Client) Enabled() bool { return c.base != "" }

// apiResponse is the envelope of every /api/v1/query response.
type apiResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string          `json:"resultType"`
		Result     json.RawMessage `json:"result"`
	} `json:"data"`
	Error string `json:"error"`
}

// Query runs one instant query and returns the resulting vector.
func (c *Client) Query(ctx context.Context, query string) (model.Vector, error) {
	if c.base == "" {
		return nil, fmt.Errorf("promquery: no server configured")
	}

	u := c.base + "/api/v1/query?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("promquery: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("promquery: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("promquery: unexpected status %d", resp.StatusCode)
	}

	var env apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("promquery: decode response: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("promquery: query failed: %s", env.Error)
	}
	if env.Data.ResultType != "vector" {
		return nil, fmt.Errorf("promquery: unexpected result type %q", env.Data.ResultType)
	}

	var vec model.Vector
	if err := json.Unmarshal(env.Data.Result, &vec); err != nil {
		return nil, fmt.Errorf("promquery: decode vector: %w", err)
	}
	return vec, nil
}

// ClusterUsage aggregates the standard usage queries for one namespace.
// Zero-valued maps mean the corresponding query failed; a failure of one
// query never aborts the others. Memory falls back to /federate when the
// query API rejects the request (CPU rates have no federate equivalent).
type ClusterUsage struct {
	CPUCoresByPod map[string]float64 `json:"cpu_cores_by_pod"`
	MemBytesByPod map[string]float64 `json:"mem_bytes_by_pod"`
	NetRxByPod    map[string]float64 `json:"net_rx_bytes_by_pod"`
	NetTxByPod    map[string]float64 `json:"net_tx_bytes_by_pod"`
	ClusterCPU    float64            `json:"cluster_cpu_cores"`
	ClusterMem    float64            `json:"cluster_mem_bytes"`
}

// Usage queries per-pod and cluster-wide usage for the namespace.
func (c *Client) Usage(ctx context.Context, namespace string) (*ClusterUsage, error) {
	if c.base == "" {
		return nil, fmt.Errorf("promquery: no server configured")
	}

	u := &ClusterUsage{}

	u.CPUCoresByPod = c.vectorByPod(ctx,
		fmt.Sprintf(`sum(rate(container_cpu_usage_seconds_total{namespace=%q}[5m])) by (pod)`, namespace))

	u.MemBytesByPod = c.vectorByPod(ctx,
		fmt.Sprintf(`sum(container_memory_working_set_bytes{namespace=%q}) by (pod)`, namespace))
	if u.MemBytesByPod == nil {
		if mem, err := c.FederateMemory(ctx, namespace); err == nil {
			u.MemBytesByPod = mem
		}
	}

	u.NetRxByPod = c.vectorByPod(ctx,
		fmt.Sprintf(`sum(rate(container_network_receive_bytes_total{namespace=%q}[5m])) by (pod)`, namespace))
	u.NetTxByPod = c.vectorByPod(ctx,
		fmt.Sprintf(`sum(rate(container_network_transmit_bytes_total{namespace=%q}[5m])) by (pod)`, namespace))

	u.ClusterCPU = c.scalarSum(ctx, `sum(rate(container_cpu_usage_seconds_total[5m]))`)
	u.ClusterMem = c.scalarSum(ctx, `sum(container_memory_working_set_bytes)`)

	return u, nil
}

// vectorByPod runs a by-pod aggregation query and keys the result on the
// "pod" label. Returns nil when the query fails.
func (c *Client) vectorByPod(ctx context.Context, query string) map[string]float64 {
	vec, err := c.Query(ctx, query)
	if err != nil {
		slog.Warn("promquery: query failed", "query", query, "err", err)
		return nil
	}
	out := make(map[string]float64, len(vec))
	for _, s := range vec {
		pod := string(s.Metric["pod"])
		if pod == "" {
			continue
		}
		out[pod] = float64(s.Value)
	}
	return out
}

// scalarSum runs a query expected to yield a single sample and returns its
// value, or 0 on failure.
func (c *Client) scalarSum(ctx context.Context, query string) float64 {
	vec, err := c.Query(ctx, query)
	if err != nil || len(vec) == 0 {
		return 0
	}
	return float64(vec[0].Value)
}
