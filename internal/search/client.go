package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultRequestsPerSecond = 1.0

// Cache stores responses by query.
type Cache interface {
	Get(ctx context.Context, query string) (Response, bool, error)
	Set(ctx context.Context, query string, resp Response) error
}

type ClientOptions struct {
	RequestsPerSecond float64
	Cache             Cache
}

// Client wraps a provider with a rate limit and an optional response cache.
// Cache failures are logged and never fail a search.
type Client struct {
	provider Searcher
	limiter  *rate.Limiter
	cache    Cache
	logger   zerolog.Logger
}

func NewClient(provider Searcher, opts ClientOptions, logger zerolog.Logger) *Client {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Client{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		cache:    opts.Cache,
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

func (c *Client) Search(ctx context.Context, query string) (Response, error) {
	q := strings.Join(strings.Fields(query), " ")

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, q)
		if err != nil {
			c.logger.Warn().Err(err).Str("query", q).Msg("search cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("wait for search rate limit: %w", err)
	}

	started := time.Now()
	resp, err := c.provider.Search(ctx, q)
	if err != nil {
		return Response{}, err
	}
	c.logger.Debug().
		Str("query", q).
		Int("results", len(resp.Items)).
		Dur("took", time.Since(started)).
		Msg("search completed")

	if c.cache != nil {
		if err := c.cache.Set(ctx, q, resp); err != nil {
			c.logger.Warn().Err(err).Str("query", q).Msg("search cache write failed")
		}
	}
	return resp, nil
}
