// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-digest/internal/digest"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/store"
	"github.com/pdiddy/arxiv-digest/internal/translate"
	"github.com/pdiddy/arxiv-digest/internal/workflow"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const defaultUserAgent = "arxiv-digest/0.1"

func setConfigDefaults() {
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.categories", []string{"cs.AI", "cs.CL"})
	viper.SetDefault("fetch.max_results", 100)
	viper.SetDefault("fetch.request_delay", "1s")
	viper.SetDefault("fetch.mirror_url_template", "https://hjfy.top/arxiv/{arxiv_id}")

	viper.SetDefault("translation.model", "gpt-4o-mini")
	viper.SetDefault("translation.target_language", "Simplified Chinese")
	viper.SetDefault("translation.max_retries", 3)
	viper.SetDefault("translation.workers", 4)
	viper.SetDefault("translation.retry_delay", "1s")
	viper.SetDefault("translation.timeout", "60s")

	viper.SetDefault("email.smtp_port", 587)
	viper.SetDefault("email.subject_template", "arXiv digest - {date}")
	viper.SetDefault("email.html_format", true)

	viper.SetDefault("storage.data_dir", "data")
	viper.SetDefault("storage.retention_days", 30)

	viper.SetDefault("schedule.daily_time", "09:00")
	viper.SetDefault("schedule.timezone", "Asia/Shanghai")
	viper.SetDefault("schedule.enabled", true)

	viper.SetDefault("log.level", "info")
}

// loadConfig resolves the full configuration from file, environment, and
// the secrets directory.
func loadConfig() (*types.Config, error) {
	setConfigDefaults()

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.Translation.APIKey = secretDefault("openai-api-key", cfg.Translation.APIKey)
	cfg.Email.SenderPassword = secretDefault("smtp-password", cfg.Email.SenderPassword)
	return &cfg, nil
}

// setupLogger builds the process-wide structured logger.
func setupLogger(cfg types.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore opens the record store under the configured data directory.
func openStore(cfg *types.Config) (*store.Store, error) {
	return store.Open(cfg.Storage.DataDir)
}

// buildRunner opens the store and wires the full daily workflow. The
// returned closer releases the store.
func buildRunner(cfg *types.Config, log *slog.Logger) (*workflow.Runner, func() error, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipeline := buildPipeline(cfg, st, log)
	orchestrator := translate.New(translate.NewOpenAIBackend(cfg.Translation), st, cfg.Translation, log)
	sender := digest.NewSender(digest.NewSMTPMailer(cfg.Email), cfg.Email, log)

	retention := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
	runner := workflow.NewRunner(pipeline, orchestrator, sender, st, retention, log)
	return runner, st.Close, nil
}

func buildPipeline(cfg *types.Config, st *store.Store, log *slog.Logger) *fetch.Pipeline {
	source := &fetch.ArxivSource{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Cfg:    cfg.Fetch.HTTPConfig,
	}
	return fetch.NewPipeline(source, st, cfg.Fetch, log)
}
