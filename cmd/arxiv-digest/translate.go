// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate stored papers",
	Long: `Translate submits stored papers to the translation backend. By default
it takes the papers recorded under a category's recent daily summaries;
already-translated papers are skipped unless --force is given.`,
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().String("category", "", "category whose recent papers to translate (required)")
	translateCmd.Flags().Int("days", 1, "how many recent daily summaries to cover")
	translateCmd.Flags().Bool("force", false, "retranslate papers that already carry a translation")

	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	if category == "" {
		return fmt.Errorf("provide --category")
	}
	days, _ := cmd.Flags().GetInt("days")
	force, _ := cmd.Flags().GetBool("force")

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

	papers, err := st.PapersByCategory(category, days)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Printf("No papers recorded for %s in the last %d day(s)\n", category, days)
		return nil
	}

	orchestrator := translate.New(translate.NewOpenAIBackend(cfg.Translation), st, cfg.Translation, log)
	outcome := orchestrator.TranslateBatch(cmd.Context(), papers, force)

	fmt.Printf("Translated: %d  Failed: %d  Skipped: %d\n",
		outcome.Succeeded, outcome.Failed, outcome.Skipped)
	if outcome.HasFailures() {
		return fmt.Errorf("%d paper(s) failed translation", outcome.Failed)
	}
	return nil
}
