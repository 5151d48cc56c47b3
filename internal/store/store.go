package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kubewatch/kubewatch/internal/promquery"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// Observation is one complete collection cycle's output: the snapshot, the
// usage metrics gathered alongside it, and everything derived from the pair.
type Observation struct {
	Namespace   string                       `json:"namespace"`
	Snapshot    *types.ClusterSnapshot       `json:"snapshot"`
	PodMetrics  []types.PodMetric            `json:"pod_metrics,omitempty"`
	NodeMetrics []types.NodeMetric           `json:"node_metrics,omitempty"`
	Alerts      []types.Alert                `json:"alerts"`
	Scores      map[string]types.HealthScore `json:"scores"`
	PromUsage   *promquery.ClusterUsage      `json:"prom_usage,omitempty"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// Store is a thread-safe in-memory observation store, keyed by namespace.
// A background goroutine (Run) periodically evicts observations that have
// not been refreshed within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Observation
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Observation),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the observation for obs.Namespace, stamping
// UpdatedAt. Callers must not modify obs after calling Put.
func (s *Store) Put(obs *Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs.UpdatedAt = s.now()
	s.data[obs.Namespace] = obs
}

// Get returns the observation for the given namespace and a boolean
// indicating whether one was found. The observation may be stale if TTL has
// elapsed.
func (s *Store) Get(namespace string) (*Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data[namespace]
	return o, ok
}

// List returns all observations whose UpdatedAt is within the TTL. Stale
// observations that have not yet been evicted are excluded.
func (s *Store) List() []*Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Observation, 0, len(s.data))
	for _, o := range s.data {
		if o.UpdatedAt.After(cutoff) {
			out = append(out, o)
		}
	}
	return out
}

// Latest returns the most recently updated live observation, or nil when the
// store holds none. The dashboard watches a single namespace, so this is the
// common read path.
func (s *Store) Latest() *Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	var latest *Observation
	for _, o := range s.data {
		if !o.UpdatedAt.After(cutoff) {
			continue
		}
		if latest == nil || o.UpdatedAt.After(latest.UpdatedAt) {
			latest = o
		}
	}
	return latest
}

// TTL returns the configured observation time-to-live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Count returns the total number of observations currently held, including
// stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes observations whose UpdatedAt is older than now minus TTL.
// It returns the number removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for ns, o := range s.data {
		if !o.UpdatedAt.After(cutoff) {
			delete(s.data, ns)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) so stale observations are removed promptly.
// Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale observations", "count", n)
			}
		}
	}
}
