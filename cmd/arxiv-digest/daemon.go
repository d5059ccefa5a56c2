// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/schedule"
	"github.com/pdiddy/arxiv-digest/internal/workflow"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduler until interrupted",
	Long: `Daemon arms the daily schedule and blocks until SIGINT or SIGTERM.
The workflow fires at the configured business-timezone time on weekdays;
weekend firings are skipped.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().Bool("run-now", false, "run the workflow once immediately, then keep the schedule")

	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Log)

	if !cfg.Schedule.Enabled {
		return fmt.Errorf("schedule is disabled in configuration")
	}

	runner, closeStore, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	job := func(ctx context.Context) error {
		result := runner.RunDaily(ctx, workflow.Options{})
		if !result.Success {
			return fmt.Errorf("workflow errors: %v", result.Errors)
		}
		return nil
	}

	scheduler, err := schedule.New(cfg.Schedule, job, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
		scheduler.RunNow(cmd.Context())
	}

	status := scheduler.Status()
	fmt.Fprintf(os.Stderr, "Scheduler running: %s %s (local %s)\n",
		status.DailyTime, status.Timezone, status.LocalFireTime)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(os.Stderr, "Shutting down")
	return nil
}
