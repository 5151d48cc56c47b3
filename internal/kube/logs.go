package kube

import (
	"context"
	"fmt"
	"io"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubewatch/kubewatch/pkg/types"
)

// errorKeywords are scanned case-insensitively by ErrorLogs.
var errorKeywords = []string{"error", "exception", "fatal", "panic", "traceback", "failed"}

// errorScanTail is how many lines per pod the error scan reads.
const errorScanTail = 100

// PodLogs fetches the last tail lines of one pod's log. An empty container
// selects the pod's single (or first) container.
func (c *Client) PodLogs(ctx context.Context, namespace, pod, container string, tail int64) (types.PodLogs, error) {
	out := types.PodLogs{Pod: pod, Namespace: namespace, Container: container}

	lines, err := c.readLogLines(ctx, namespace, pod, container, tail)
	if err != nil {
		return out, fmt.Errorf("kube: logs for %s/%s: %w", namespace, pod, err)
	}
	out.Lines = lines
	out.Count = len(lines)
	return out, nil
}

// AllPodLogs fetches logs for every pod in the namespace. Per-pod failures
// are recorded on the entry instead of aborting the sweep.
func (c *Client) AllPodLogs(ctx context.Context, namespace string, tail int64) ([]types.PodLogs, error) {
	pods, err := c.cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("kube: list pods for logs: %w", err)
	}

	out := make([]types.PodLogs, 0, len(pods.Items))
	for _, p := range pods.Items {
		entry := types.PodLogs{Pod: p.Name, Namespace: p.Namespace}
		lines, err := c.readLogLines(ctx, p.Namespace, p.Name, "", tail)
		if err != nil {
			entry.Err = err.Error()
		} else {
			entry.Lines = lines
			entry.Count = len(lines)
		}
		out = append(out, entry)
	}
	return out, nil
}

// SearchLogs scans recent log lines of every pod in the namespace for the
// given keyword (case-insensitive).
func (c *Client) SearchLogs(ctx context.Context, namespace, keyword string, tail int64) ([]types.LogMatch, error) {
	return c.scanLogs(ctx, namespace, tail, func(line string) bool {
		return strings.Contains(strings.ToLower(line), strings.ToLower(keyword))
	})
}

// ErrorLogs scans recent log lines of every pod in the namespace for common
// error keywords.
func (c *Client) ErrorLogs(ctx context.Context, namespace string) ([]types.LogMatch, error) {
	return c.scanLogs(ctx, namespace, errorScanTail, func(line string) bool {
		l := strings.ToLower(line)
		for _, kw := range errorKeywords {
			if strings.Contains(l, kw) {
				return true
			}
		}
		return false
	})
}

func (c *Client) scanLogs(ctx context.Context, namespace string, tail int64, match func(string) bool) ([]types.LogMatch, error) {
	pods, err := c.cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("kube: list pods for log scan: %w", err)
	}

	matches := make([]types.LogMatch, 0)
	for _, p := range pods.Items {
		lines, err := c.readLogLines(ctx, p.Namespace, p.Name, "", tail)
		if err != nil {
			// Unreadable pods (terminating, just scheduled) are skipped.
			continue
		}
		for i, line := range lines {
			if match(line) {
				matches = append(matches, types.LogMatch{
					Pod:       p.Name,
					Namespace: p.Namespace,
					Line:      i + 1,
					Text:      line,
				})
			}
		}
	}
	return matches, nil
}

// readLogLines streams one pod's log and splits it into lines.
func (c *Client) readLogLines(ctx context.Context, namespace, pod, container string, tail int64) ([]string, error) {
	opts := &corev1.PodLogOptions{}
	if container != "" {
		opts.Container = container
	}
	if tail > 0 {
		opts.TailLines = &tail
	}

	stream, err := c.cs.CoreV1().Pods(namespace).GetLogs(pod, opts).Stream(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}

	raw := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
