// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch harvests new arXiv papers and deduplicates them against
// the record store.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// RawRecord is one candidate paper as delivered by a Source, before
// timestamp normalization and dedup.
type RawRecord struct {
	ID         string
	Title      string
	Authors    []string
	Abstract   string
	Published  string
	Categories []string
	URL        string
	PDFURL     string
}

// Source yields candidate records for a category, most recent first, up
// to cap results. Implementations do not deduplicate.
type Source interface {
	Fetch(ctx context.Context, category string, cap int) ([]RawRecord, error)
}

// Store is the subset of the record store the pipeline needs.
type Store interface {
	Exists(id string) (bool, error)
	Get(id string) (*types.Paper, error)
	Put(p *types.Paper) error
	PutSummary(date string, papersByCategory map[string][]*types.Paper) error
}

// Pipeline streams candidates from a Source, applies the recency cutoff,
// substitutes already-stored records (preserving any translation), and
// persists new ones immediately so a later failure cannot lose metadata.
type Pipeline struct {
	source Source
	store  Store
	cfg    types.FetchConfig
	log    *slog.Logger

	// now and sleep are swapped out by tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(source Source, st Store, cfg types.FetchConfig, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		source: source,
		store:  st,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Cutoff computes the earliest acceptable publication instant for a run
// at now: 18:00 UTC on the day lookback(weekday) days back. arXiv posts
// each day's batch at 18:00 UTC, which anchors the boundary.
func (p *Pipeline) Cutoff(now time.Time) time.Time {
	nowUTC := now.UTC()
	days := p.cfg.Lookback.Days(nowUTC.Weekday())
	base := nowUTC.AddDate(0, 0, -days)
	return time.Date(base.Year(), base.Month(), base.Day(), 18, 0, 0, 0, time.UTC)
}

// IngestCategory fetches one category and returns the resolved records in
// delivered order. Candidates older than the cutoff stop the stream
// entirely: the source orders by recency, so everything after the first
// stale item is also stale.
func (p *Pipeline) IngestCategory(ctx context.Context, category string) ([]*types.Paper, error) {
	cutoff := p.Cutoff(p.now())
	p.log.Info("ingesting category",
		"category", category, "cutoff", cutoff.Format(time.RFC3339))

	raws, err := p.source.Fetch(ctx, category, p.cfg.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("fetching category %s: %w", category, err)
	}

	var papers []*types.Paper
	for i, raw := range raws {
		select {
		case <-ctx.Done():
			return papers, ctx.Err()
		default:
		}

		published, err := parsePublished(raw.Published)
		if err != nil {
			p.log.Warn("skipping candidate with unparsable timestamp",
				"id", raw.ID, "published", raw.Published, "err", err)
			continue
		}

		if published.Before(cutoff) {
			p.log.Debug("candidate older than cutoff, stopping stream",
				"id", raw.ID, "published", published.Format(time.RFC3339))
			break
		}

		// Cross-listed results can surface under categories the paper is
		// not actually filed in.
		if !containsCategory(raw.Categories, category) {
			continue
		}

		paper, err := p.resolve(raw, published)
		if err != nil {
			p.log.Warn("skipping candidate", "id", raw.ID, "err", err)
			continue
		}
		papers = append(papers, paper)

		if i < len(raws)-1 && p.cfg.RequestDelay > 0 {
			p.sleep(p.cfg.RequestDelay)
		}
	}

	cached := 0
	for _, paper := range papers {
		if paper.Translated() {
			cached++
		}
	}
	p.log.Info("category ingested",
		"category", category, "papers", len(papers),
		"cached", cached, "new", len(papers)-cached)
	return papers, nil
}

// resolve substitutes the stored record for a known identifier so an
// existing translation is never clobbered by a re-fetch; unknown records
// are persisted immediately.
func (p *Pipeline) resolve(raw RawRecord, published time.Time) (*types.Paper, error) {
	exists, err := p.store.Exists(raw.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		stored, err := p.store.Get(raw.ID)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return stored, nil
		}
		// Exists raced with a delete; fall through and store fresh.
	}

	paper := p.toPaper(raw, published)
	if err := p.store.Put(paper); err != nil {
		return nil, fmt.Errorf("persisting paper %s: %w", raw.ID, err)
	}
	return paper, nil
}

func (p *Pipeline) toPaper(raw RawRecord, published time.Time) *types.Paper {
	paper := &types.Paper{
		ID:         raw.ID,
		Title:      strings.TrimSpace(raw.Title),
		Authors:    raw.Authors,
		Abstract:   strings.TrimSpace(raw.Abstract),
		Published:  published.UTC(),
		Categories: raw.Categories,
		URL:        raw.URL,
		PDFURL:     raw.PDFURL,
		FetchedAt:  p.now().UTC(),
	}
	if p.cfg.MirrorURLTemplate != "" {
		paper.MirrorURL = strings.ReplaceAll(p.cfg.MirrorURLTemplate, "{arxiv_id}", raw.ID)
	}
	return paper
}

// FetchDaily ingests all given categories (the configured list when nil),
// persists one daily summary over the union, and returns the records
// grouped by category. Individual category failures are logged and the
// remaining categories still run.
func (p *Pipeline) FetchDaily(ctx context.Context, categories []string) (map[string][]*types.Paper, error) {
	if len(categories) == 0 {
		categories = p.cfg.Categories
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories configured")
	}

	papersByCategory := make(map[string][]*types.Paper, len(categories))
	total := 0

	for i, category := range categories {
		papers, err := p.IngestCategory(ctx, category)
		if err != nil {
			if ctx.Err() != nil {
				return papersByCategory, err
			}
			p.log.Error("category ingest failed", "category", category, "err", err)
			papersByCategory[category] = nil
			continue
		}
		papersByCategory[category] = papers
		total += len(papers)

		if i < len(categories)-1 && p.cfg.RequestDelay > 0 {
			p.sleep(2 * p.cfg.RequestDelay)
		}
	}

	if total > 0 {
		date := p.now().Format("2006-01-02")
		if err := p.store.PutSummary(date, papersByCategory); err != nil {
			p.log.Error("persisting daily summary failed", "date", date, "err", err)
		}
	}

	p.log.Info("daily fetch complete", "categories", len(categories), "papers", total)
	return papersByCategory, nil
}

// IDSource is implemented by sources that support direct identifier
// lookup in addition to category listing.
type IDSource interface {
	FetchByID(ctx context.Context, id string) (*RawRecord, error)
}

// PaperByID returns a single record, store-first, falling back to a
// direct source lookup when the source supports it. A record found
// nowhere returns (nil, nil).
func (p *Pipeline) PaperByID(ctx context.Context, id string) (*types.Paper, error) {
	stored, err := p.store.Get(id)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return stored, nil
	}

	ids, ok := p.source.(IDSource)
	if !ok {
		return nil, nil
	}
	raw, err := ids.FetchByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching paper %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}

	published, err := parsePublished(raw.Published)
	if err != nil {
		return nil, fmt.Errorf("paper %s has unparsable timestamp %q: %w", id, raw.Published, err)
	}
	paper := p.toPaper(*raw, published)
	if err := p.store.Put(paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// parsePublished normalizes a source timestamp to UTC.
func parsePublished(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func containsCategory(categories []string, category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
