// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow sequences the daily pipeline: fetch, translate,
// deliver, sweep. Per-step failures are accumulated, never fatal past
// the fetch.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pdiddy/arxiv-digest/internal/store"
	"github.com/pdiddy/arxiv-digest/internal/translate"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Fetcher yields the day's records grouped by category.
type Fetcher interface {
	FetchDaily(ctx context.Context, categories []string) (map[string][]*types.Paper, error)
}

// Translator enriches a batch of records in place.
type Translator interface {
	TranslateBatch(ctx context.Context, papers []*types.Paper, force bool) translate.BatchOutcome
}

// Deliverer sends the rendered digest. Returns false when nothing was
// sent, for whatever reason.
type Deliverer interface {
	Deliver(papersByCategory map[string][]*types.Paper, date string) bool
}

// Sweeper removes records past the retention window.
type Sweeper interface {
	Sweep(olderThan time.Time) (store.SweepResult, error)
}

// Options selects which steps a run performs.
type Options struct {
	// Categories overrides the configured category list when non-empty.
	Categories []string

	// ForceRetranslate resubmits already-translated records.
	ForceRetranslate bool

	SkipTranslation bool
	SkipEmail       bool
}

// Runner drives one daily workflow.
type Runner struct {
	fetcher    Fetcher
	translator Translator
	deliverer  Deliverer
	sweeper    Sweeper
	retention  time.Duration
	log        *slog.Logger

	// now is swapped out by tests.
	now func() time.Time
}

// NewRunner wires a runner from its collaborators. sweeper may be nil
// to disable retention cleanup.
func NewRunner(fetcher Fetcher, translator Translator, deliverer Deliverer,
	sweeper Sweeper, retention time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		fetcher:    fetcher,
		translator: translator,
		deliverer:  deliverer,
		sweeper:    sweeper,
		retention:  retention,
		log:        log,
		now:        time.Now,
	}
}

// RunDaily executes the full pipeline and reports everything that
// happened. Only a fetch that yields zero records stops the run early.
func (r *Runner) RunDaily(ctx context.Context, opts Options) *types.WorkflowResult {
	result := &types.WorkflowResult{StartTime: r.now()}
	r.log.Info("daily workflow starting")

	papersByCategory, err := r.fetcher.FetchDaily(ctx, opts.Categories)
	if err != nil {
		result.AddError(fmt.Sprintf("fetch: %v", err))
	}

	// Cross-listed papers appear under several categories; translate and
	// count each record once.
	union := unionByID(papersByCategory)
	result.PapersFetched = len(union)

	if len(union) == 0 {
		result.AddError("no papers fetched, nothing to do")
		result.EndTime = r.now()
		r.log.Warn("daily workflow finished with no papers")
		return result
	}

	if opts.SkipTranslation {
		r.log.Info("translation step skipped")
	} else {
		outcome := r.translator.TranslateBatch(ctx, union, opts.ForceRetranslate)
		result.PapersTranslated = outcome.Succeeded
		result.TranslationFailed = outcome.Failed
		result.TranslationSkipped = outcome.Skipped
		if outcome.HasFailures() {
			result.AddError(fmt.Sprintf("translation: %d of %d records failed",
				outcome.Failed, outcome.Total()))
		}
	}

	date := result.StartTime.Format("2006-01-02")
	if opts.SkipEmail {
		r.log.Info("email step skipped")
		result.EmailSent = true
	} else {
		result.EmailSent = r.deliverer.Deliver(papersByCategory, date)
		if !result.EmailSent {
			result.AddError("email: digest not delivered")
		}
	}

	if r.sweeper != nil && r.retention > 0 {
		swept, err := r.sweeper.Sweep(r.now().Add(-r.retention))
		if err != nil {
			result.AddError(fmt.Sprintf("sweep: %v", err))
		} else {
			result.PapersSwept = swept.Papers
			result.SummariesSwept = swept.Summaries
		}
	}

	result.EndTime = r.now()
	result.Success = result.PapersFetched > 0 &&
		result.TranslationFailed == 0 && result.EmailSent
	r.log.Info("daily workflow finished",
		"success", result.Success,
		"fetched", result.PapersFetched,
		"translated", result.PapersTranslated,
		"failed", result.TranslationFailed,
		"skipped", result.TranslationSkipped,
		"email_sent", result.EmailSent,
		"duration", result.EndTime.Sub(result.StartTime).String())
	return result
}

// unionByID flattens the per-category map to unique records, keeping
// first-seen order within deterministic category iteration.
func unionByID(papersByCategory map[string][]*types.Paper) []*types.Paper {
	seen := make(map[string]bool)
	var union []*types.Paper
	for _, category := range sortedKeys(papersByCategory) {
		for _, p := range papersByCategory[category] {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			union = append(union, p)
		}
	}
	return union
}

func sortedKeys(m map[string][]*types.Paper) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
