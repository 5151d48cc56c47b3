package promquery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// memoryGauge is the working-set gauge pulled through /federate.
const memoryGauge = "container_memory_working_set_bytes"

// FederateMemory pulls per-pod working-set memory through the /federate
// endpoint, summing samples by pod label. This covers plain gauges only;
// rate queries still need the query API.
func (c *Client) FederateMemory(ctx context.Context, namespace string) (map[string]float64, error) {
	if c.base == "" {
		return nil, fmt.Errorf("promquery: no server configured")
	}

	match := fmt.Sprintf(`{__name__=%q,namespace=%q}`, memoryGauge, namespace)
	u := c.base + "/federate?match[]=" + url.QueryEscape(match)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("promquery: build federate request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("promquery: federate get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("promquery: federate status %d", resp.StatusCode)
	}

	mfs, err := parseExposition(resp.Body)
	if err != nil {
		return nil, err
	}
	return sumByPod(mfs[memoryGauge]), nil
}

// parseExposition decodes a Prometheus text exposition into metric families.
// A partial result with a non-fatal parse warning is still returned
// successfully.
func parseExposition(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("promquery: parse exposition: %w", err)
	}
	return mfs, nil
}

// sumByPod totals a family's gauge/untyped samples keyed by the pod label.
// Returns an empty map if mf is nil.
func sumByPod(mf *dto.MetricFamily) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, m := range mf.GetMetric() {
		var pod string
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "pod" {
				pod = lp.GetValue()
				break
			}
		}
		if pod == "" {
			continue
		}
		switch {
		case m.Gauge != nil:
			out[pod] += m.Gauge.GetValue()
		case m.Untyped != nil:
			out[pod] += m.Untyped.GetValue()
		}
	}
	return out
}
