package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OrganicProvider implements Provider against a generic search backend
// whose JSON response shape is {"organic": [{"title","link","snippet"}]}
// (the SerpAPI-style shape spec.md §4.1 describes for WebSearch.Query).
// It is the primary backend for SEARCH_BASE_URL; SearxNG remains available
// as an alternate backend for local/self-hosted deployments.
type OrganicProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
}

func (p *OrganicProvider) Name() string { return "organic" }

func (p *OrganicProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if p.BaseURL == "" {
		return nil, fmt.Errorf("search: missing base url")
	}
	if limit <= 0 {
		limit = 10
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("search: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("num", fmt.Sprintf("%d", limit))
	if p.APIKey != "" {
		q.Set("api_key", p.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	hc := p.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search: backend status %d", resp.StatusCode)
	}

	var body struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	out := make([]Result, 0, len(body.Organic))
	for _, r := range body.Organic {
		title := strings.TrimSpace(r.Title)
		link := strings.TrimSpace(r.Link)
		if title == "" || link == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: strings.TrimSpace(r.Snippet),
			Source:  p.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
