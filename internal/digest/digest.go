// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest renders the daily paper digest and hands it to the mail
// transport.
package digest

import (
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Mailer abstracts the mail transport so tests can supply a mock.
type Mailer interface {
	Send(subject, body string, html bool, recipients []string) error
}

// Sender renders and delivers daily digests.
type Sender struct {
	mailer Mailer
	cfg    types.EmailConfig
	log    *slog.Logger
}

// NewSender wires a sender from its collaborators.
func NewSender(mailer Mailer, cfg types.EmailConfig, log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}
	return &Sender{mailer: mailer, cfg: cfg, log: log}
}

// Deliver renders the digest for date and sends it. Returns false
// without sending when there is nothing to send or nobody to send to;
// transport errors are logged and converted to false, never propagated.
func (s *Sender) Deliver(papersByCategory map[string][]*types.Paper, date string) bool {
	total := 0
	for _, papers := range papersByCategory {
		total += len(papers)
	}
	if total == 0 {
		s.log.Warn("no papers to deliver, skipping digest")
		return false
	}
	if len(s.cfg.Recipients) == 0 {
		s.log.Error("no recipients configured, skipping digest")
		return false
	}

	subject := s.Subject(date)
	body := s.Render(papersByCategory, date)

	if err := s.mailer.Send(subject, body, s.cfg.HTMLFormat, s.cfg.Recipients); err != nil {
		s.log.Error("digest delivery failed", "recipients", len(s.cfg.Recipients), "err", err)
		return false
	}
	s.log.Info("digest delivered", "recipients", len(s.cfg.Recipients), "papers", total)
	return true
}

// Preview renders the digest without sending anything.
func (s *Sender) Preview(papersByCategory map[string][]*types.Paper, date string) (subject, body string) {
	return s.Subject(date), s.Render(papersByCategory, date)
}

// SendTest delivers a short plain-text message so SMTP settings can be
// verified without waiting for a real digest.
func (s *Sender) SendTest() error {
	if len(s.cfg.Recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	body := fmt.Sprintf("arxiv-digest test message sent at %s.\n",
		time.Now().Format(time.RFC1123))
	return s.mailer.Send("arxiv-digest test message", body, false, s.cfg.Recipients)
}

// Subject renders the subject line from the configured template.
func (s *Sender) Subject(date string) string {
	tmpl := s.cfg.SubjectTemplate
	if tmpl == "" {
		tmpl = "arXiv digest - {date}"
	}
	return strings.ReplaceAll(tmpl, "{date}", date)
}

// Render produces the digest body in the configured format.
func (s *Sender) Render(papersByCategory map[string][]*types.Paper, date string) string {
	if s.cfg.HTMLFormat {
		return renderHTML(papersByCategory, date)
	}
	return renderText(papersByCategory, date)
}

// sortedCategories gives a stable section order.
func sortedCategories(papersByCategory map[string][]*types.Paper) []string {
	categories := make([]string, 0, len(papersByCategory))
	for cat := range papersByCategory {
		if len(papersByCategory[cat]) > 0 {
			categories = append(categories, cat)
		}
	}
	sort.Strings(categories)
	return categories
}

func renderText(papersByCategory map[string][]*types.Paper, date string) string {
	var b strings.Builder
	divider := strings.Repeat("=", 50)

	total, translated := 0, 0
	for _, papers := range papersByCategory {
		total += len(papers)
		for _, p := range papers {
			if p.Translated() {
				translated++
			}
		}
	}

	fmt.Fprintf(&b, "%s\narXiv papers for %s\n%s\n\n", divider, date, divider)
	fmt.Fprintf(&b, "Papers: %d  Categories: %d  Translated: %d\n\n",
		total, len(sortedCategories(papersByCategory)), translated)

	for _, category := range sortedCategories(papersByCategory) {
		papers := papersByCategory[category]
		fmt.Fprintf(&b, "--- %s (%d papers) ---\n\n", category, len(papers))

		for i, p := range papers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
			if p.TranslatedTitle != "" {
				fmt.Fprintf(&b, "   %s\n", p.TranslatedTitle)
			}
			fmt.Fprintf(&b, "   Authors: %s\n\n", strings.Join(p.Authors, ", "))
			fmt.Fprintf(&b, "   %s\n\n", p.Abstract)
			if p.TranslatedAbstract != "" {
				fmt.Fprintf(&b, "   %s\n\n", p.TranslatedAbstract)
			}
			fmt.Fprintf(&b, "   Abstract page: %s\n   PDF: %s\n", p.URL, p.PDFURL)
			if p.MirrorURL != "" {
				fmt.Fprintf(&b, "   Mirror: %s\n", p.MirrorURL)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "%s\nGenerated by arxiv-digest\n%s\n", divider, divider)
	return b.String()
}

var htmlTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; max-width: 800px; margin: 0 auto;">
<h1>arXiv papers for {{.Date}}</h1>
<p>{{.Total}} papers across {{len .Categories}} categories ({{.Translated}} translated)</p>
{{range .Categories}}
<h2>{{.Name}} ({{len .Papers}})</h2>
{{range $i, $p := .Papers}}
<div style="margin-bottom: 1.5em;">
<h3>{{$p.Title}}</h3>
{{if $p.TranslatedTitle}}<h4>{{$p.TranslatedTitle}}</h4>{{end}}
<p><em>{{range $j, $a := $p.Authors}}{{if $j}}, {{end}}{{$a}}{{end}}</em></p>
<p>{{$p.Abstract}}</p>
{{if $p.TranslatedAbstract}}<p>{{$p.TranslatedAbstract}}</p>{{end}}
<p>
<a href="{{$p.URL}}">abs</a> &middot; <a href="{{$p.PDFURL}}">pdf</a>
{{if $p.MirrorURL}} &middot; <a href="{{$p.MirrorURL}}">mirror</a>{{end}}
</p>
</div>
{{end}}
{{end}}
<hr><p style="color: #888;">Generated by arxiv-digest</p>
</body>
</html>`))

type htmlSection struct {
	Name   string
	Papers []*types.Paper
}

type htmlData struct {
	Date       string
	Total      int
	Translated int
	Categories []htmlSection
}

func renderHTML(papersByCategory map[string][]*types.Paper, date string) string {
	data := htmlData{Date: date}
	for _, category := range sortedCategories(papersByCategory) {
		papers := papersByCategory[category]
		data.Categories = append(data.Categories, htmlSection{Name: category, Papers: papers})
		data.Total += len(papers)
		for _, p := range papers {
			if p.Translated() {
				data.Translated++
			}
		}
	}

	var b strings.Builder
	if err := htmlTemplate.Execute(&b, data); err != nil {
		// Template execution over plain structs cannot realistically
		// fail; fall back to text so the digest still goes out.
		return renderText(papersByCategory, date)
	}
	return b.String()
}
