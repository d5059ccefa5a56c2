// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [categories...]",
	Short: "Fetch new papers without translating or emailing",
	Long: `Fetch harvests recent papers for the given categories (the configured
list when none are given), deduplicates against the record store, and
persists a daily summary. No translation or delivery happens.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Log)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline := buildPipeline(cfg, st, log)
	papersByCategory, err := pipeline.FetchDaily(cmd.Context(), args)
	if err != nil {
		return err
	}

	total := 0
	for category, papers := range papersByCategory {
		fmt.Printf("%s: %d papers\n", category, len(papers))
		total += len(papers)
	}
	fmt.Printf("Total: %d papers\n", total)
	return nil
}
