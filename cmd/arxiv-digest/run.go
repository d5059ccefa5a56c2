// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full daily workflow once",
	Long: `Run executes one complete daily cycle: fetch new papers for the
configured categories, translate untranslated titles and abstracts,
deliver the email digest, and sweep records past retention.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSlice("categories", nil, "override configured categories (comma-separated)")
	runCmd.Flags().Bool("force-retranslate", false, "retranslate records that already carry a translation")
	runCmd.Flags().Bool("skip-translation", false, "skip the translation step")
	runCmd.Flags().Bool("skip-email", false, "skip digest delivery")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Log)

	runner, closeStore, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	categories, _ := cmd.Flags().GetStringSlice("categories")
	force, _ := cmd.Flags().GetBool("force-retranslate")
	skipTranslation, _ := cmd.Flags().GetBool("skip-translation")
	skipEmail, _ := cmd.Flags().GetBool("skip-email")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := runner.RunDaily(ctx, workflow.Options{
		Categories:       categories,
		ForceRetranslate: force,
		SkipTranslation:  skipTranslation,
		SkipEmail:        skipEmail,
	})

	fmt.Printf("Fetched: %d  Translated: %d  Failed: %d  Skipped: %d  Email sent: %v\n",
		result.PapersFetched, result.PapersTranslated,
		result.TranslationFailed, result.TranslationSkipped, result.EmailSent)
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, "error:", e)
	}
	if !result.Success {
		return fmt.Errorf("daily workflow finished with errors")
	}
	return nil
}
