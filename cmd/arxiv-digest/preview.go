// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-digest/internal/digest"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a day's digest without sending it",
	Long: `Preview renders the digest for a stored daily summary to stdout. Useful
for checking layout and translations before the scheduled delivery.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("date", "", "summary date YYYY-MM-DD (default: today)")
	previewCmd.Flags().String("format", "text", "output format: text, html, or yaml")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	format, _ := cmd.Flags().GetString("format")

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

	summary, err := st.GetSummary(date)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("no daily summary stored for %s", date)
	}

	switch format {
	case "yaml":
		out, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
	case "text", "html":
		emailCfg := cfg.Email
		emailCfg.HTMLFormat = format == "html"
		sender := digest.NewSender(nil, emailCfg, log)
		subject, body := sender.Preview(summary.PapersByCategory, date)
		fmt.Println("Subject:", subject)
		fmt.Println(body)
	default:
		return fmt.Errorf("unknown format %q (want text, html, or yaml)", format)
	}
	return nil
}
