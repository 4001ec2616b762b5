// Package search provides external evidence sources for the producer agents.
// Each client degrades cleanly when its credentials are absent so the
// pipeline can fall back to generative or placeholder tiers.
package search

import (
	"context"
	"strconv"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// WebResult is a single web search hit
type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// WebPage is one page of search results. TotalResults is the engine's
// estimate of the full match count, usable as a crude interest proxy.
type WebPage struct {
	Results      []WebResult `json:"results"`
	TotalResults int64       `json:"total_results"`
}

// WebSearcher finds web pages relevant to a query
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) (*WebPage, error)
	Configured() bool
}

// GoogleClient performs web searches via the Custom Search JSON API
type GoogleClient struct {
	apiKey   string
	engineID string
	log      *logger.Logger
}

var _ WebSearcher = (*GoogleClient)(nil)

// NewGoogleClient creates a Google Custom Search client. Credentials may be
// empty; Search then returns ErrNoProviderConfigured.
func NewGoogleClient(apiKey, engineID string) *GoogleClient {
	return &GoogleClient{
		apiKey:   apiKey,
		engineID: engineID,
		log:      logger.Get().With("component", "google_search"),
	}
}

// Configured reports whether both the API key and engine ID are set
func (c *GoogleClient) Configured() bool {
	return c.apiKey != "" && c.engineID != ""
}

// Search runs a web search and returns up to limit results
func (c *GoogleClient) Search(ctx context.Context, query string, limit int) (*WebPage, error) {
	if !c.Configured() {
		return nil, errors.Wrap(errors.ErrNoProviderConfigured, "google search credentials are not set")
	}
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create customsearch service")
	}

	resp, err := svc.Cse.List().
		Cx(c.engineID).
		Q(query).
		Num(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(errors.ErrExternal, err.Error())
	}

	page := &WebPage{Results: make([]WebResult, 0, len(resp.Items))}
	for _, item := range resp.Items {
		page.Results = append(page.Results, WebResult{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	if resp.SearchInformation != nil {
		if total, err := strconv.ParseInt(resp.SearchInformation.TotalResults, 10, 64); err == nil {
			page.TotalResults = total
		}
	}

	c.log.Debugw("Web search completed",
		"query", query,
		"results", len(page.Results),
		"total", page.TotalResults)
	return page, nil
}
