package search

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleConfig holds Programmable Search Engine credentials and locale.
type GoogleConfig struct {
	APIKey   string
	EngineID string
	// Country is an ISO 3166 code used for gl; language is derived from it.
	Country  string
	Language string
}

// Google queries the Custom Search JSON API.
type Google struct {
	service  *customsearch.Service
	engineID string
	country  string
	language string
}

func NewGoogle(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*Google, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	engineID := strings.TrimSpace(cfg.EngineID)
	if apiKey == "" || engineID == "" {
		return nil, ErrNotConfigured
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	country := strings.ToLower(strings.TrimSpace(cfg.Country))
	if country == "" {
		country = "br"
	}
	lang := strings.ToLower(strings.TrimSpace(cfg.Language))
	if lang == "" {
		lang = "pt-br"
	}

	return &Google{
		service:  service,
		engineID: engineID,
		country:  country,
		language: lang,
	}, nil
}

func (g *Google) Search(ctx context.Context, query string) (Response, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Response{Query: q, Items: []Item{}}, nil
	}

	call := g.service.Cse.List().
		Cx(g.engineID).
		Q(q).
		Num(MaxResults).
		Gl(g.country).
		Hl(g.language).
		Context(ctx)

	res, err := call.Do()
	if err != nil {
		return Response{}, fmt.Errorf("custom search %q: %w", q, err)
	}

	out := Response{Query: q, Items: make([]Item, 0, len(res.Items))}
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		out.Items = append(out.Items, Item{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
		if len(out.Items) == MaxResults {
			break
		}
	}
	return out, nil
}
