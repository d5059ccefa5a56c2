// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete records past the retention window",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Int("retention-days", 0, "override configured retention window")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("retention-days")
	if days <= 0 {
		days = cfg.Storage.RetentionDays
	}
	if days <= 0 {
		return fmt.Errorf("retention is disabled; pass --retention-days")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.Sweep(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	fmt.Printf("Swept %d paper(s) and %d summar(ies) older than %d days\n",
		result.Papers, result.Summaries, days)
	return nil
}
