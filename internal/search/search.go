// Package search queries a web search engine for evidence of duplicated text
// and for the ranking pages of a keyword.
package search

import (
	"context"
	"errors"
)

// MaxResults is the number of results requested per query.
const MaxResults = 10

var ErrNotConfigured = errors.New("search provider is not configured")

// Item is one organic result.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link,omitempty"`
}

// Response holds at most MaxResults items in ranking order.
type Response struct {
	Query string `json:"query"`
	Items []Item `json:"items"`
}

// Searcher runs one query. Implementations must honor ctx cancellation.
type Searcher interface {
	Search(ctx context.Context, query string) (Response, error)
}

// Disabled is the Searcher used when no provider credentials are configured.
type Disabled struct{}

func (Disabled) Search(context.Context, string) (Response, error) {
	return Response{}, ErrNotConfigured
}
