package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kubewatch/kubewatch/internal/alerts"
	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/internal/health"
	"github.com/kubewatch/kubewatch/internal/kube"
	"github.com/kubewatch/kubewatch/internal/kubemetrics"
	"github.com/kubewatch/kubewatch/internal/store"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// runMonitor performs one collection and evaluation pass and prints the
// result to stdout.
func runMonitor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	namespace := fs.String("namespace", "", "override the configured namespace")
	allNamespaces := fs.Bool("all-namespaces", false, "collect cluster-wide")
	asJSON := fs.Bool("json", false, "print the observation as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, flagPassed(fs, "config"))
	if err != nil {
		return err
	}
	if *namespace != "" {
		cfg.Kube.Namespace = *namespace
	}
	if *allNamespaces {
		cfg.Kube.AllNamespaces = true
	}

	obs, err := collect(ctx, cfg)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(obs)
	}

	render(os.Stdout, obs)
	return nil
}

// collect runs one full collection cycle: snapshot, usage metrics, alert
// evaluation, health scoring.
func collect(ctx context.Context, cfg *config.Config) (*store.Observation, error) {
	cs, err := kube.Connect(cfg.Kube)
	if err != nil {
		return nil, err
	}
	client := kube.New(cs, cfg.Kube, cfg.Collect.EventLimit)

	snap, err := client.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var podMetrics []types.PodMetric
	var nodeMetrics []types.NodeMetric
	if mc, err := kubemetrics.Connect(cfg.Kube); err != nil {
		slog.Warn("metrics client unavailable, skipping usage collection", "err", err)
	} else {
		collector := kubemetrics.NewCollector(mc, cfg.Kube)
		podMetrics = collector.PodMetrics(ctx)
		nodeMetrics = collector.NodeMetrics(ctx)
	}

	engine := alerts.New(cfg.Thresholds)
	return &store.Observation{
		Namespace:   client.Namespace(),
		Snapshot:    snap,
		PodMetrics:  podMetrics,
		NodeMetrics: nodeMetrics,
		Alerts:      engine.Evaluate(snap, podMetrics),
		Scores:      health.Scores(snap, podMetrics),
	}, nil
}

// render prints the observation as aligned text tables.
func render(out *os.File, obs *store.Observation) {
	snap := obs.Snapshot

	if s := snap.Summary; s != nil {
		fmt.Fprintf(out, "Cluster %s — %d/%d pods running, %d/%d nodes ready, %d restarts\n\n",
			snap.Cluster.Version, s.RunningPods, s.TotalPods, s.ReadyNodes, s.TotalNodes, s.TotalRestarts)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "DEPLOYMENT\tREPLICAS\tSCORE\tSTATUS\tRESTARTS")
	for _, name := range sortedScoreNames(obs.Scores) {
		s := obs.Scores[name]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", s.Name, s.Replicas, s.Score, s.Status, s.Restarts)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "POD\tSTATUS\tRESTARTS\tNODE")
	for _, p := range snap.Pods {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Status, p.RestartCount, p.Node)
	}
	w.Flush() //nolint:errcheck

	if len(obs.Alerts) == 0 {
		fmt.Fprintln(out, "\nNo active alerts.")
		return
	}
	fmt.Fprintf(out, "\nAlerts (%d):\n", len(obs.Alerts))
	for _, a := range obs.Alerts {
		fmt.Fprintf(out, "  [%s] %s\n", strings.ToUpper(a.Severity), a.Message)
	}
}

func sortedScoreNames(scores map[string]types.HealthScore) []string {
	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// flagPassed reports whether the named flag was set explicitly.
func flagPassed(fs *flag.FlagSet, name string) bool {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
