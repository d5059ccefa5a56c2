// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-digest/internal/digest"
)

var testEmailCmd = &cobra.Command{
	Use:   "test-email",
	Short: "Send a test message to verify SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := setupLogger(cfg.Log)

		sender := digest.NewSender(digest.NewSMTPMailer(cfg.Email), cfg.Email, log)
		if err := sender.SendTest(); err != nil {
			return err
		}
		fmt.Printf("Test message sent to %d recipient(s)\n", len(cfg.Email.Recipients))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testEmailCmd)
}
