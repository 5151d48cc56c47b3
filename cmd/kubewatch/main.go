package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubewatch/kubewatch/internal/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "monitor":
		err = runMonitor(ctx, os.Args[2:])
	case "dashboard":
		err = runDashboard(ctx, os.Args[2:])
	case "logs":
		err = runLogs(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "kubewatch: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("kubewatch failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `kubewatch — cluster alerting and health scoring

Usage:
  kubewatch monitor    [flags]   one-shot cluster check, printed to stdout
  kubewatch dashboard  [flags]   continuous monitoring with HTTP dashboard
  kubewatch logs       [flags]   fetch or scan pod logs

Run "kubewatch <command> -h" for the command's flags.
`)
}

// loadConfig reads the config file at path. When the caller did not pass an
// explicit -config and the default file is absent, the built-in defaults are
// used instead of failing.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", path)
		return config.Default(), nil
	}
	return nil, err
}
