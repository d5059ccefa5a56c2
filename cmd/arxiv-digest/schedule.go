// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show or validate the daily schedule",
	Long: `Schedule prints the configured daily trigger and its host-local fire
time. With --test it reports configuration validity without arming
anything.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().Bool("test", false, "validate the schedule configuration and exit")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := schedule.Validate(cfg.Schedule)

	if test, _ := cmd.Flags().GetBool("test"); test {
		fmt.Printf("Config valid:      %v\n", report.ConfigValid)
		fmt.Printf("Timezone valid:    %v\n", report.TimezoneValid)
		fmt.Printf("Time format valid: %v\n", report.TimeFormatValid)
		for _, e := range report.Errors {
			fmt.Println("error:", e)
		}
		if !report.ConfigValid {
			return fmt.Errorf("schedule configuration is invalid")
		}
		return nil
	}

	fmt.Printf("Enabled:    %v\n", cfg.Schedule.Enabled)
	fmt.Printf("Daily time: %s %s\n", cfg.Schedule.DailyTime, cfg.Schedule.Timezone)
	if report.ConfigValid {
		fire, err := schedule.LocalFireTime(cfg.Schedule.DailyTime, cfg.Schedule.Timezone, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Local time: %s\n", fire.Format("15:04"))
	} else {
		for _, e := range report.Errors {
			fmt.Println("error:", e)
		}
		return fmt.Errorf("schedule configuration is invalid")
	}
	return nil
}
