// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists paper records and daily summaries in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const dbFile = "digest.db"

// dateLayout keys daily summaries by calendar date.
const dateLayout = "2006-01-02"

// Store manages the digest SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dataDir/digest.db, creating the
// schema if it does not exist.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			abstract TEXT,
			published TEXT NOT NULL,
			categories TEXT NOT NULL,
			url TEXT,
			pdf_url TEXT,
			mirror_url TEXT,
			translated_title TEXT,
			translated_abstract TEXT,
			translated_at TEXT,
			fetched_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_updated_at ON papers(updated_at)`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			date TEXT PRIMARY KEY,
			total_papers INTEGER NOT NULL,
			categories TEXT NOT NULL,
			papers_by_category TEXT NOT NULL,
			generated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Exists reports whether a paper with the given identifier is stored.
func (s *Store) Exists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM papers WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking paper %s: %w", id, err)
	}
	return n > 0, nil
}

// Get loads a paper by identifier. A missing record returns (nil, nil).
func (s *Store) Get(id string) (*types.Paper, error) {
	row := s.db.QueryRow(
		`SELECT id, title, authors, abstract, published, categories, url,
			pdf_url, mirror_url, translated_title, translated_abstract,
			translated_at, fetched_at
		 FROM papers WHERE id = ?`, id)

	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading paper %s: %w", id, err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*types.Paper, error) {
	var (
		p              types.Paper
		authorsJSON    string
		categoriesJSON string
		published      string
		abstract       sql.NullString
		url, pdfURL    sql.NullString
		mirrorURL      sql.NullString
		trTitle, trAbs sql.NullString
		translatedAt   sql.NullString
		fetchedAt      string
	)

	err := row.Scan(&p.ID, &p.Title, &authorsJSON, &abstract, &published,
		&categoriesJSON, &url, &pdfURL, &mirrorURL, &trTitle, &trAbs,
		&translatedAt, &fetchedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &p.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}

	p.Abstract = abstract.String
	p.URL = url.String
	p.PDFURL = pdfURL.String
	p.MirrorURL = mirrorURL.String
	p.TranslatedTitle = trTitle.String
	p.TranslatedAbstract = trAbs.String

	if p.Published, err = time.Parse(time.RFC3339Nano, published); err != nil {
		return nil, fmt.Errorf("decoding published: %w", err)
	}
	if p.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return nil, fmt.Errorf("decoding fetched_at: %w", err)
	}
	if translatedAt.Valid && translatedAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, translatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decoding translated_at: %w", err)
		}
		p.TranslatedAt = &t
	}
	return &p, nil
}

// Put upserts a paper record, refreshing updated_at. The sweep keys off
// updated_at, so any write extends the record's retention.
func (s *Store) Put(p *types.Paper) error {
	authorsJSON, _ := json.Marshal(p.Authors)
	categoriesJSON, _ := json.Marshal(p.Categories)

	var translatedAt string
	if p.TranslatedAt != nil {
		translatedAt = p.TranslatedAt.UTC().Format(time.RFC3339Nano)
	}
	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO papers (id, title, authors, abstract, published, categories,
			url, pdf_url, mirror_url, translated_title, translated_abstract,
			translated_at, fetched_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors,
			abstract=excluded.abstract, published=excluded.published,
			categories=excluded.categories, url=excluded.url,
			pdf_url=excluded.pdf_url, mirror_url=excluded.mirror_url,
			translated_title=excluded.translated_title,
			translated_abstract=excluded.translated_abstract,
			translated_at=excluded.translated_at,
			updated_at=excluded.updated_at`,
		p.ID, p.Title, string(authorsJSON), p.Abstract,
		p.Published.UTC().Format(time.RFC3339Nano), string(categoriesJSON),
		p.URL, p.PDFURL, p.MirrorURL, p.TranslatedTitle, p.TranslatedAbstract,
		translatedAt, fetchedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ID, err)
	}
	return nil
}

// PutSummary writes the daily summary for date, replacing any earlier
// summary for the same date (same-day re-runs overwrite).
func (s *Store) PutSummary(date string, papersByCategory map[string][]*types.Paper) error {
	total := 0
	categories := make([]string, 0, len(papersByCategory))
	for cat, papers := range papersByCategory {
		categories = append(categories, cat)
		total += len(papers)
	}

	categoriesJSON, _ := json.Marshal(categories)
	papersJSON, err := json.Marshal(papersByCategory)
	if err != nil {
		return fmt.Errorf("encoding summary papers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO daily_summaries (date, total_papers, categories, papers_by_category, generated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			total_papers=excluded.total_papers, categories=excluded.categories,
			papers_by_category=excluded.papers_by_category,
			generated_at=excluded.generated_at`,
		date, total, string(categoriesJSON), string(papersJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting summary %s: %w", date, err)
	}
	return nil
}

// GetSummary loads the summary for date. A missing summary returns (nil, nil).
func (s *Store) GetSummary(date string) (*types.DailySummary, error) {
	var (
		sum            types.DailySummary
		categoriesJSON string
		papersJSON     string
		generatedAt    string
	)
	err := s.db.QueryRow(
		`SELECT date, total_papers, categories, papers_by_category, generated_at
		 FROM daily_summaries WHERE date = ?`, date,
	).Scan(&sum.Date, &sum.TotalPapers, &categoriesJSON, &papersJSON, &generatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading summary %s: %w", date, err)
	}

	if err := json.Unmarshal([]byte(categoriesJSON), &sum.Categories); err != nil {
		return nil, fmt.Errorf("decoding summary categories: %w", err)
	}
	if err := json.Unmarshal([]byte(papersJSON), &sum.PapersByCategory); err != nil {
		return nil, fmt.Errorf("decoding summary papers: %w", err)
	}
	if sum.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return nil, fmt.Errorf("decoding generated_at: %w", err)
	}
	return &sum, nil
}

// PapersByCategory collects the papers recorded for category across the
// last days daily summaries, most recent day first.
func (s *Store) PapersByCategory(category string, days int) ([]*types.Paper, error) {
	if days <= 0 {
		days = 1
	}

	var papers []*types.Paper
	for i := 0; i < days; i++ {
		date := time.Now().AddDate(0, 0, -i).Format(dateLayout)
		sum, err := s.GetSummary(date)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			continue
		}
		papers = append(papers, sum.PapersByCategory[category]...)
	}
	return papers, nil
}

// SweepResult holds delete counts from a retention sweep.
type SweepResult struct {
	Papers    int
	Summaries int
}

// Sweep deletes papers whose last write predates olderThan and summaries
// dated before it.
func (s *Store) Sweep(olderThan time.Time) (SweepResult, error) {
	var result SweepResult

	res, err := s.db.Exec(`DELETE FROM papers WHERE updated_at < ?`,
		olderThan.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return result, fmt.Errorf("sweeping papers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.Papers = int(n)
	}

	res, err = s.db.Exec(`DELETE FROM daily_summaries WHERE date < ?`,
		olderThan.Format(dateLayout))
	if err != nil {
		return result, fmt.Errorf("sweeping summaries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.Summaries = int(n)
	}
	return result, nil
}

// Stats summarizes store contents for status display.
type Stats struct {
	Papers     int
	Summaries  int
	Translated int
	Earliest   string
	Latest     string
}

// GetStats counts stored papers and summaries and reports the summary
// date range.
func (s *Store) GetStats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT count(*) FROM papers`).Scan(&st.Papers); err != nil {
		return st, fmt.Errorf("counting papers: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT count(*) FROM papers WHERE translated_title != '' AND translated_abstract != ''`,
	).Scan(&st.Translated); err != nil {
		return st, fmt.Errorf("counting translated papers: %w", err)
	}
	if err := s.db.QueryRow(`SELECT count(*) FROM daily_summaries`).Scan(&st.Summaries); err != nil {
		return st, fmt.Errorf("counting summaries: %w", err)
	}

	var earliest, latest sql.NullString
	err := s.db.QueryRow(
		`SELECT min(date), max(date) FROM daily_summaries`,
	).Scan(&earliest, &latest)
	if err != nil {
		return st, fmt.Errorf("reading summary range: %w", err)
	}
	st.Earliest = earliest.String
	st.Latest = latest.String
	return st, nil
}
