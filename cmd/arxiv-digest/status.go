// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record store statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Papers:      %d (%d translated)\n", stats.Papers, stats.Translated)
	fmt.Printf("Summaries:   %d\n", stats.Summaries)
	if stats.Earliest != "" {
		fmt.Printf("Date range:  %s .. %s\n", stats.Earliest, stats.Latest)
	}
	fmt.Printf("Data dir:    %s\n", cfg.Storage.DataDir)
	return nil
}
