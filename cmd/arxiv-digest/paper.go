// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var paperCmd = &cobra.Command{
	Use:   "paper <arxiv-id>",
	Short: "Look up a single paper by arXiv ID",
	Long: `Paper prints one record, preferring the local store and falling back
to a direct arXiv lookup. A freshly fetched record is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runPaper,
}

func init() {
	rootCmd.AddCommand(paperCmd)
}

func runPaper(cmd *cobra.Command, args []string) error {
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
	paper, err := pipeline.PaperByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("no paper found for %s", args[0])
	}

	fmt.Println(paper.Title)
	if paper.TranslatedTitle != "" {
		fmt.Println(paper.TranslatedTitle)
	}
	fmt.Println("Authors:   ", strings.Join(paper.Authors, ", "))
	fmt.Println("Published: ", paper.Published.Format("2006-01-02"))
	fmt.Println("Categories:", strings.Join(paper.Categories, ", "))
	fmt.Println("URL:       ", paper.URL)
	fmt.Println()
	fmt.Println(paper.Abstract)
	if paper.TranslatedAbstract != "" {
		fmt.Println()
		fmt.Println(paper.TranslatedAbstract)
	}
	return nil
}
