// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate enriches paper records with translated titles and
// abstracts through a bounded worker pool.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Result is the structured two-field response from a translation backend.
type Result struct {
	Title    string `json:"translated_title"`
	Abstract string `json:"translated_abstract"`
}

// Backend abstracts the translation API so tests can supply a mock.
type Backend interface {
	Translate(ctx context.Context, title, abstract string) (Result, error)
}

// Store is the subset of the record store the orchestrator needs.
type Store interface {
	Put(p *types.Paper) error
}

// BatchOutcome holds counts from one translation batch. Succeeded +
// Failed + Skipped always equals the batch size.
type BatchOutcome struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Total returns the number of records in the batch.
func (o BatchOutcome) Total() int {
	return o.Succeeded + o.Failed + o.Skipped
}

// HasFailures reports whether any record exhausted its retries.
func (o BatchOutcome) HasFailures() bool {
	return o.Failed > 0
}

// Orchestrator runs translation batches against a Backend.
type Orchestrator struct {
	backend Backend
	store   Store
	cfg     types.TranslationConfig
	log     *slog.Logger

	// sleep is swapped out by tests to avoid real retry pauses.
	sleep func(time.Duration)
}

// New wires an orchestrator from its collaborators.
func New(backend Backend, st Store, cfg types.TranslationConfig, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		backend: backend,
		store:   st,
		cfg:     cfg,
		log:     log,
		sleep:   time.Sleep,
	}
}

// TranslateBatch submits every untranslated record (all records when
// force is set) to the worker pool and waits for the whole batch.
// Workers report typed outcomes on a channel and the counts are reduced
// after the pool drains, so no shared counter is mutated concurrently.
// One record's failure never cancels its siblings.
func (o *Orchestrator) TranslateBatch(ctx context.Context, papers []*types.Paper, force bool) BatchOutcome {
	var outcome BatchOutcome

	workers := o.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make(chan bool, len(papers))
	g := new(errgroup.Group)
	g.SetLimit(workers)

	submitted := 0
	for _, paper := range papers {
		if paper.Translated() && !force {
			outcome.Skipped++
			continue
		}
		submitted++
		paper := paper
		g.Go(func() error {
			results <- o.translateOne(ctx, paper)
			return nil
		})
	}

	g.Wait()
	close(results)

	for ok := range results {
		if ok {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}

	o.log.Info("translation batch complete",
		"submitted", submitted, "succeeded", outcome.Succeeded,
		"failed", outcome.Failed, "skipped", outcome.Skipped)
	return outcome
}

// translateOne runs up to maxRetries+1 attempts for a single record. The
// record is mutated and persisted only on a validated result; an
// exhausted record is left untouched.
func (o *Orchestrator) translateOne(ctx context.Context, paper *types.Paper) bool {
	maxRetries := o.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := o.cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			o.sleep(retryDelay * time.Duration(attempt+1))
		}
		if ctx.Err() != nil {
			o.log.Warn("translation cancelled", "id", paper.ID)
			return false
		}

		res, err := o.backend.Translate(ctx, paper.Title, paper.Abstract)
		if err != nil {
			o.log.Warn("translation attempt failed",
				"id", paper.ID, "attempt", attempt+1, "err", err)
			continue
		}

		if err := validateTranslation(paper.Title, paper.Abstract, res.Title, res.Abstract); err != nil {
			o.log.Warn("translation rejected",
				"id", paper.ID, "attempt", attempt+1, "err", err)
			continue
		}

		paper.SetTranslation(strings.TrimSpace(res.Title), strings.TrimSpace(res.Abstract))
		if err := o.store.Put(paper); err != nil {
			o.log.Error("persisting translation failed", "id", paper.ID, "err", err)
			return false
		}
		return true
	}

	o.log.Error("translation exhausted retries", "id", paper.ID, "attempts", maxRetries+1)
	return false
}

// validateTranslation rejects results that are too short, still mostly
// ASCII-alphabetic (the "translation" came back in the source language),
// or byte-identical to the source text.
func validateTranslation(srcTitle, srcAbstract, title, abstract string) error {
	title = strings.TrimSpace(title)
	abstract = strings.TrimSpace(abstract)

	if utf8.RuneCountInString(title) < 3 {
		return fmt.Errorf("translated title too short")
	}
	if utf8.RuneCountInString(abstract) < 20 {
		return fmt.Errorf("translated abstract too short")
	}

	if r := asciiLetterRatio(title); r > 0.5 {
		return fmt.Errorf("translated title is %.0f%% ASCII letters", r*100)
	}
	if r := asciiLetterRatio(abstract); r > 0.3 {
		return fmt.Errorf("translated abstract is %.0f%% ASCII letters", r*100)
	}

	if title == strings.TrimSpace(srcTitle) {
		return fmt.Errorf("translated title identical to source")
	}
	if abstract == strings.TrimSpace(srcAbstract) {
		return fmt.Errorf("translated abstract identical to source")
	}
	return nil
}

// asciiLetterRatio returns the fraction of runes that are ASCII letters.
// Technical terms left untranslated are expected; a high ratio is not.
func asciiLetterRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	letters := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return float64(letters) / float64(total)
}
