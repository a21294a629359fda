package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/analysis"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cli"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/config"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/db"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/logging"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

// runtime is everything a command needs after flag parsing.
type runtime struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pool     *db.Pool
	searcher search.Searcher
	closers  []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn().Err(err).Msg("close failed")
		}
	}
}

// service builds the analysis service. Without a database only the
// stateless operations are usable.
func (r *runtime) service() *analysis.Service {
	var (
		corpus analysis.Corpus
		store  reconcile.Store
	)
	if r.pool != nil {
		corpus = r.pool
		store = r.pool.LinkStore()
	}
	return analysis.NewService(corpus, store, r.searcher, analysis.Options{
		SiteURL:         r.cfg.SiteURL,
		AffiliateHints:  r.cfg.AffiliateHints(),
		DefaultLanguage: r.cfg.ContentLanguage,
	}, r.logger)
}

func loadConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// openRuntime loads config, connects to the database and builds the search
// client. connectTimeout bounds only the database connection.
func openRuntime(ctx context.Context, envLoader *cli.EnvLoader, connectTimeout time.Duration) (*runtime, error) {
	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		return nil, err
	}

	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	dbCtx, dbCancel := context.WithTimeout(ctx, connectTimeout)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, pool: pool}
	rt.closers = append(rt.closers, pool.Close)

	if err := rt.openSearch(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// openSearchRuntime is openRuntime without the database.
func openSearchRuntime(ctx context.Context, envLoader *cli.EnvLoader) (*runtime, error) {
	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	if err := rt.openSearch(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *runtime) openSearch(ctx context.Context) error {
	if !r.cfg.SearchEnabled() {
		r.logger.Debug().Msg("search is not configured; external checks are disabled")
		return nil
	}

	provider, err := search.NewGoogle(ctx, search.GoogleConfig{
		APIKey:   r.cfg.SearchAPIKey,
		EngineID: r.cfg.SearchEngineID,
		Country:  r.cfg.SearchCountry,
		Language: r.cfg.ContentLanguage,
	})
	if err != nil {
		return fmt.Errorf("failed to create search provider: %w", err)
	}

	opts := search.ClientOptions{RequestsPerSecond: r.cfg.SearchRPS}
	if redisURL := strings.TrimSpace(r.cfg.SearchCacheRedisURL); redisURL != "" {
		cache, err := search.NewRedisCache(ctx, redisURL, r.cfg.SearchCacheTTL)
		if err != nil {
			// Searching still works without the cache.
			r.logger.Warn().Err(err).Msg("search cache unavailable")
		} else {
			opts.Cache = cache
			r.closers = append(r.closers, cache.Close)
		}
	}

	r.searcher = search.NewClient(provider, opts, r.logger)
	return nil
}

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.Join(strings.Fields(value), " ")
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// render prints value as JSON or as the table built by rows.
func render(format string, value any, headers []string, rows func() [][]string) error {
	if format == outputFormatJSON {
		return printJSON(value)
	}
	return writeTable(headers, rows())
}
