package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kubewatch/kubewatch/internal/kube"
	"github.com/kubewatch/kubewatch/pkg/types"
)

// runLogs fetches recent pod logs, or scans all pods in the namespace for a
// keyword or error patterns.
func runLogs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	namespace := fs.String("namespace", "", "override the configured namespace")
	pod := fs.String("pod", "", "fetch logs from this pod")
	container := fs.String("container", "", "container within the pod")
	tail := fs.Int64("tail", 50, "number of log lines per pod")
	search := fs.String("search", "", "scan all pods for this keyword")
	errorsOnly := fs.Bool("errors", false, "scan all pods for error patterns")
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

	cs, err := kube.Connect(cfg.Kube)
	if err != nil {
		return err
	}
	client := kube.New(cs, cfg.Kube, cfg.Collect.EventLimit)
	ns := client.Namespace()

	switch {
	case *pod != "":
		logs, err := client.PodLogs(ctx, ns, *pod, *container, *tail)
		if err != nil {
			return err
		}
		for _, line := range logs.Lines {
			fmt.Println(line)
		}
		return nil

	case *search != "":
		matches, err := client.SearchLogs(ctx, ns, *search, *tail)
		if err != nil {
			return err
		}
		return printMatches(matches)

	case *errorsOnly:
		matches, err := client.ErrorLogs(ctx, ns)
		if err != nil {
			return err
		}
		return printMatches(matches)

	default:
		all, err := client.AllPodLogs(ctx, ns, *tail)
		if err != nil {
			return err
		}
		for _, pl := range all {
			fmt.Printf("=== %s/%s", pl.Namespace, pl.Pod)
			if pl.Err != "" {
				fmt.Printf(" (unavailable: %s)\n", pl.Err)
				continue
			}
			fmt.Printf(" (%d lines)\n", pl.Count)
			for _, line := range pl.Lines {
				fmt.Println(line)
			}
		}
		return nil
	}
}

func printMatches(matches []types.LogMatch) error {
	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POD\tLINE\tTEXT")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%d\t%s\n", m.Pod, m.Line, m.Text)
	}
	return w.Flush()
}
