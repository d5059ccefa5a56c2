// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Paper holds metadata and optional translation for a harvested arXiv paper.
type Paper struct {
	// ID is the arXiv identifier (e.g. "2301.07041"), the stable record key.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the submission timestamp, normalized to UTC.
	Published time.Time `json:"published" yaml:"published"`

	// Categories lists the arXiv categories the paper is filed under,
	// primary first.
	Categories []string `json:"categories" yaml:"categories"`

	// URL is the canonical abstract page.
	URL string `json:"url" yaml:"url"`

	// PDFURL is the downloadable document URL.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// MirrorURL is a derived external-mirror link, built from the
	// configured template at fetch time.
	MirrorURL string `json:"mirror_url,omitempty" yaml:"mirror_url,omitempty"`

	// TranslatedTitle and TranslatedAbstract hold the machine translation.
	// Both are set together or not at all.
	TranslatedTitle    string `json:"translated_title,omitempty" yaml:"translated_title,omitempty"`
	TranslatedAbstract string `json:"translated_abstract,omitempty" yaml:"translated_abstract,omitempty"`

	// TranslatedAt records when the translation was applied.
	TranslatedAt *time.Time `json:"translated_at,omitempty" yaml:"translated_at,omitempty"`

	// FetchedAt records when the paper was first observed.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Translated reports whether both translated fields are present.
func (p *Paper) Translated() bool {
	return strings.TrimSpace(p.TranslatedTitle) != "" && strings.TrimSpace(p.TranslatedAbstract) != ""
}

// SetTranslation applies a translation result, stamping TranslatedAt.
// Both fields and the timestamp change together so a record is never
// observed half-translated.
func (p *Paper) SetTranslation(title, abstract string) {
	now := time.Now().UTC()
	p.TranslatedTitle = title
	p.TranslatedAbstract = abstract
	p.TranslatedAt = &now
}

// DailySummary aggregates one day's fetch pass. The Date key is the
// server-local calendar date at pipeline-run time; re-running the pipeline
// the same day overwrites the summary.
type DailySummary struct {
	// Date is the summary key in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// TotalPapers counts all records gathered that day.
	TotalPapers int `json:"total_papers" yaml:"total_papers"`

	// Categories lists the categories represented.
	Categories []string `json:"categories" yaml:"categories"`

	// PapersByCategory maps each category to the full records gathered
	// for it, preserving fetch order.
	PapersByCategory map[string][]*Paper `json:"papers_by_category" yaml:"papers_by_category"`

	// GeneratedAt is the summary creation timestamp.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
