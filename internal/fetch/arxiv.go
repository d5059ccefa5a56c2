// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-digest/internal/httputil"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource lists recent papers for a category via the arXiv API.
type ArxivSource struct {
	Client *http.Client
	Cfg    types.HTTPConfig

	// MaxRetries bounds rate-limit retries per request.
	MaxRetries int
}

// Fetch queries one category sorted by submission date, newest first.
func (s *ArxivSource) Fetch(ctx context.Context, category string, cap int) ([]RawRecord, error) {
	if category == "" {
		return nil, fmt.Errorf("empty category")
	}
	if cap <= 0 {
		cap = 100
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, url.QueryEscape("cat:"+category), cap)

	feed, err := s.query(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if r, ok := entryToRecord(entry); ok {
			records = append(records, r)
		}
	}
	return records, nil
}

// FetchByID looks up a single paper through the id_list parameter.
// Returns (nil, nil) when arXiv has no entry for the identifier.
func (s *ArxivSource) FetchByID(ctx context.Context, id string) (*RawRecord, error) {
	reqURL := fmt.Sprintf("%s?id_list=%s", arxivAPIBase, url.QueryEscape(id))

	feed, err := s.query(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	for _, entry := range feed.Entries {
		if r, ok := entryToRecord(entry); ok {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *ArxivSource) query(ctx context.Context, reqURL string) (*arxivFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

func entryToRecord(entry arxivEntry) (RawRecord, bool) {
	id := extractArxivID(entry.ID)
	if id == "" {
		return RawRecord{}, false
	}

	r := RawRecord{
		ID:        id,
		Title:     strings.TrimSpace(entry.Title),
		Abstract:  strings.TrimSpace(entry.Summary),
		Published: entry.Published,
		URL:       entry.ID,
		PDFURL:    fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", id),
	}
	for _, a := range entry.Authors {
		r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
	}
	for _, c := range entry.Categories {
		if c.Term != "" {
			r.Categories = append(r.Categories, c.Term)
		}
	}
	for _, l := range entry.Links {
		if l.Title == "pdf" && l.Href != "" {
			r.PDFURL = l.Href
		}
	}
	return r, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
