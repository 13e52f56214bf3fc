// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

// crashwise-workerctl drives the per-vertical worker containers from the
// host: inspect, start, stop, or ensure a worker without touching the
// core services.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	logconf "github.com/yahyatoubali/Crashwise-sub001/pkg/logger/conf"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/version"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/workermgr"
)

var (
	backendURL   string
	composeFile  string
	readyTimeout time.Duration
)

func main() {
	if err := log.InitGlobalLogger(logconf.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crashwise-workerctl",
		Short:         "Manage crashwise worker containers",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&backendURL, "backend", "http://localhost:8000",
		"crashwise backend used for install-root discovery")
	root.PersistentFlags().StringVar(&composeFile, "compose-file", "",
		"compose file to operate on (default: discovered)")
	root.PersistentFlags().DurationVar(&readyTimeout, "ready-timeout", 60*time.Second,
		"how long to wait for a started worker to become ready")

	root.AddCommand(newStatusCmd(), newStartCmd(), newStopCmd(), newEnsureCmd())
	return root
}

// manager resolves the compose file (flag, then discovery chain) and
// returns a manager over it.
func manager() (*workermgr.Manager, error) {
	file := composeFile
	if file == "" {
		discovered, err := workermgr.DiscoverComposeFile(backendURL)
		if err != nil {
			return nil, err
		}
		file = discovered
	}
	return workermgr.NewManager(file, nil), nil
}

func descriptor(vertical string) *workermgr.WorkerDescriptor {
	return &workermgr.WorkerDescriptor{Vertical: vertical}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <vertical>",
		Short: "Report whether the vertical's worker container is running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := manager()
			if err != nil {
				return err
			}
			worker := descriptor(args[0])
			if mgr.IsRunning(cmd.Context(), worker.ServiceName()) {
				fmt.Printf("%s: running\n", worker.ServiceName())
				return nil
			}
			fmt.Printf("%s: not running\n", worker.ServiceName())
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <vertical>",
		Short: "Build and start the vertical's worker, then wait for readiness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := manager()
			if err != nil {
				return err
			}
			worker := descriptor(args[0])
			if err := mgr.Start(cmd.Context(), worker); err != nil {
				return err
			}
			if !mgr.WaitReady(cmd.Context(), worker.ServiceName(), readyTimeout) {
				return fmt.Errorf("%s started but did not become ready within %s",
					worker.ServiceName(), readyTimeout)
			}
			fmt.Printf("%s: ready\n", worker.ServiceName())
			return nil
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <vertical> [vertical...]",
		Short: "Stop worker containers, leaving the core services up",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := manager()
			if err != nil {
				return err
			}
			workers := make([]*workermgr.WorkerDescriptor, 0, len(args))
			for _, vertical := range args {
				workers = append(workers, descriptor(vertical))
			}
			failed := 0
			for service, stopErr := range mgr.StopAll(cmd.Context(), workers) {
				if stopErr != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", service, stopErr)
					continue
				}
				fmt.Printf("%s: stopped\n", service)
			}
			if failed > 0 {
				return fmt.Errorf("%d worker(s) failed to stop", failed)
			}
			return nil
		},
	}
}

func newEnsureCmd() *cobra.Command {
	var noStart bool
	cmd := &cobra.Command{
		Use:   "ensure <vertical>",
		Short: "Start the vertical's worker unless it is already running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := manager()
			if err != nil {
				return err
			}
			worker := descriptor(args[0])
			ready, err := mgr.EnsureRunning(cmd.Context(), worker, !noStart, readyTimeout)
			if err != nil {
				return err
			}
			if !ready {
				return fmt.Errorf("%s is not ready", worker.ServiceName())
			}
			fmt.Printf("%s: ready\n", worker.ServiceName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noStart, "no-start", false, "only check, never start the worker")
	return cmd
}
