// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAIBackend translates through an OpenAI-compatible chat-completion
// endpoint, asking for a structured two-field JSON object.
type OpenAIBackend struct {
	cfg    types.TranslationConfig
	client *http.Client
}

// NewOpenAIBackend builds a backend from configuration.
func NewOpenAIBackend(cfg types.TranslationConfig) *OpenAIBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Translate posts one chat-completion request and parses the reply.
func (b *OpenAIBackend) Translate(ctx context.Context, title, abstract string) (Result, error) {
	if b.cfg.APIKey == "" {
		return Result{}, fmt.Errorf("translation API key not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"model": b.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": b.buildPrompt(title, abstract)},
		},
		"temperature":     0.3,
		"max_tokens":      2000,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encoding translation request: %w", err)
	}

	base := b.cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading translation response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, fmt.Errorf("translation API error %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 300)])))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("decoding translation response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("translation API returned no choices")
	}

	return parseContent(parsed.Choices[0].Message.Content)
}

func (b *OpenAIBackend) buildPrompt(title, abstract string) string {
	lang := b.cfg.TargetLanguage
	if lang == "" {
		lang = "Simplified Chinese"
	}
	return fmt.Sprintf(`Translate the title and abstract of the following academic paper into %s.

Title: %s

Abstract: %s

Return strictly a JSON object with exactly these two fields and no other text:
{"translated_title": "...", "translated_abstract": "..."}

Keep technical terms accurate and escape LaTeX backslashes correctly.`, lang, title, abstract)
}

// parseContent decodes the model reply as the two-field JSON object,
// falling back to labeled-line parsing when the JSON is malformed.
func parseContent(content string) (Result, error) {
	var res Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &res); err == nil {
		if res.Title != "" && res.Abstract != "" {
			return res, nil
		}
		return Result{}, fmt.Errorf("translation response missing fields")
	}
	return parseLabeledLines(content)
}

// parseLabeledLines scans for "Title:" / "Abstract:" prefixed lines, the
// shape models fall into when they ignore the JSON instruction.
func parseLabeledLines(content string) (Result, error) {
	var res Result
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case res.Title == "" && strings.HasPrefix(lower, "title:"):
			res.Title = strings.TrimSpace(line[len("title:"):])
		case res.Abstract == "" && strings.HasPrefix(lower, "abstract:"):
			res.Abstract = strings.TrimSpace(line[len("abstract:"):])
		}
	}
	if res.Title == "" || res.Abstract == "" {
		return Result{}, fmt.Errorf("unparsable translation response")
	}
	return res, nil
}
