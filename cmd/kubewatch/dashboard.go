package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/kubewatch/kubewatch/internal/alerts"
	"github.com/kubewatch/kubewatch/internal/api"
	"github.com/kubewatch/kubewatch/internal/auth"
	"github.com/kubewatch/kubewatch/internal/config"
	"github.com/kubewatch/kubewatch/internal/health"
	"github.com/kubewatch/kubewatch/internal/kube"
	"github.com/kubewatch/kubewatch/internal/kubemetrics"
	"github.com/kubewatch/kubewatch/internal/promquery"
	"github.com/kubewatch/kubewatch/internal/store"
	"github.com/kubewatch/kubewatch/internal/ws"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// runDashboard starts the continuous monitoring loop plus the HTTP dashboard
// (JSON API and WebSocket stream). Blocks until the context is cancelled.
func runDashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, flagPassed(fs, "config"))
	if err != nil {
		return err
	}

	slog.Info("kubewatch dashboard starting",
		"namespace", cfg.Kube.Namespace,
		"all_namespaces", cfg.Kube.AllNamespaces,
		"interval", cfg.Collect.Interval,
		"host", cfg.Dashboard.Host,
		"port", cfg.Dashboard.Port,
		"auth_mode", cfg.Dashboard.Auth.Mode,
	)

	cs, err := kube.Connect(cfg.Kube)
	if err != nil {
		return err
	}
	client := kube.New(cs, cfg.Kube, cfg.Collect.EventLimit)

	var collector *kubemetrics.Collector
	if mc, err := kubemetrics.Connect(cfg.Kube); err != nil {
		slog.Warn("metrics client unavailable, usage alerts disabled", "err", err)
	} else {
		collector = kubemetrics.NewCollector(mc, cfg.Kube)
	}

	prom := promquery.New(cfg.Prometheus.URL)

	// Observation store with background TTL eviction.
	st := store.New(cfg.Collect.SnapshotTTL)
	go st.Run(ctx)

	engine := alerts.New(cfg.Thresholds)

	// Live config holds reloadable settings (webhook target). Alert
	// thresholds stay fixed for the engine's lifetime.
	var liveCfg atomic.Pointer[config.Config]
	liveCfg.Store(cfg)
	if _, err := os.Stat(*configPath); err == nil {
		reloads, err := config.Watch(ctx, *configPath)
		if err != nil {
			slog.Warn("config hot reload unavailable", "err", err)
		} else {
			go func() {
				for next := range reloads {
					liveCfg.Store(next)
				}
			}()
		}
	}

	// WebSocket hub — pushes the latest observation to UI clients.
	hub := ws.New(st, cfg.Collect.Interval)
	go hub.Run(ctx)

	// HTTP server: the API behind optional API-key auth, /healthz open for
	// liveness probes.
	apiHandler := api.New(st, engine, client)
	authed := auth.APIKeyMiddleware(
		cfg.Dashboard.Auth.Mode,
		cfg.Dashboard.Auth.EffectiveHeader(),
		cfg.Dashboard.Auth.Key(),
	)
	mux := http.NewServeMux()
	mux.Handle("/api/", authed(apiHandler))
	mux.Handle("/healthz", apiHandler)
	mux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Dashboard.Host, cfg.Dashboard.Port),
		Handler: mux,
	}
	go func() {
		slog.Info("dashboard listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("dashboard server stopped", "err", err)
		}
	}()

	// Collection loop: first cycle immediately, then on every tick.
	runCycle(ctx, client, collector, prom, engine, st, &liveCfg)
	ticker := time.NewTicker(cfg.Collect.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("kubewatch dashboard shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
			return nil
		case <-ticker.C:
			runCycle(ctx, client, collector, prom, engine, st, &liveCfg)
		}
	}
}

// runCycle performs one collect → evaluate → score → store pass. A failed
// snapshot skips the cycle; the previous observation stays live until its
// TTL expires.
func runCycle(
	ctx context.Context,
	client *kube.Client,
	collector *kubemetrics.Collector,
	prom *promquery.Client,
	engine *alerts.Engine,
	st *store.Store,
	liveCfg *atomic.Pointer[config.Config],
) {
	snap, err := client.Snapshot(ctx)
	if err != nil {
		slog.Error("collection cycle failed", "err", err)
		return
	}

	var podMetrics []types.PodMetric
	var nodeMetrics []types.NodeMetric
	if collector != nil {
		podMetrics = collector.PodMetrics(ctx)
		nodeMetrics = collector.NodeMetrics(ctx)
	}

	obs := &store.Observation{
		Namespace:   client.Namespace(),
		Snapshot:    snap,
		PodMetrics:  podMetrics,
		NodeMetrics: nodeMetrics,
		Alerts:      engine.Evaluate(snap, podMetrics),
		Scores:      health.Scores(snap, podMetrics),
	}

	if prom.Enabled() {
		if usage, err := prom.Usage(ctx, client.Namespace()); err == nil {
			obs.PromUsage = usage
		} else {
			slog.Warn("prometheus enrichment failed", "err", err)
		}
	}

	st.Put(obs)

	if len(obs.Alerts) > 0 {
		slog.Info("cycle complete", "pods", len(snap.Pods), "alerts", len(obs.Alerts))
		notifyAll(liveCfg.Load().Webhook, obs.Alerts)
	}
}

// notifyAll delivers the cycle's alerts to the configured webhook.
// Delivery is fire-and-forget; failures are logged and dropped.
func notifyAll(cfg config.Webhook, cycleAlerts []types.Alert) {
	n := alerts.NewNotifier(cfg)
	if !n.Enabled() {
		return
	}
	for _, a := range cycleAlerts {
		go func(a types.Alert) {
			if err := n.Notify(a); err != nil {
				slog.Error("webhook delivery failed", "type", a.Type, "err", err)
			}
		}(a)
	}
}
