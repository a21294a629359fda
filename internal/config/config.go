package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CI_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CI_DB_MAX_CONNS" default:"8"`

	// DBAutoMigrate is off when the tables belong to the editor's database.
	DBAutoMigrate bool `envconfig:"CI_DB_AUTO_MIGRATE" default:"true"`

	SiteURL            string `envconfig:"SITE_URL" required:"true"`
	AffiliateHostHints string `envconfig:"AFFILIATE_HOST_HINTS" default:"amazon.,amzn.to,amzn.com,amzn.eu"`
	ContentLanguage    string `envconfig:"CONTENT_LANGUAGE" default:"pt-br"`

	SearchAPIKey        string        `envconfig:"SEARCH_API_KEY" default:""`
	SearchEngineID      string        `envconfig:"SEARCH_ENGINE_ID" default:""`
	SearchCountry       string        `envconfig:"SEARCH_COUNTRY" default:"br"`
	SearchRPS           float64       `envconfig:"SEARCH_RPS" default:"1"`
	SearchCacheRedisURL string        `envconfig:"SEARCH_CACHE_REDIS_URL" default:""`
	SearchCacheTTL      time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"72h"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CI_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CI_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CI_DB_MIN_CONNS (%d) cannot exceed CI_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	site, err := url.Parse(strings.TrimSpace(c.SiteURL))
	if err != nil || site.Scheme == "" || site.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL, got %q", c.SiteURL)
	}
	if _, ok := language.Lookup(c.ContentLanguage); !ok {
		return fmt.Errorf("CONTENT_LANGUAGE %q has no language pack", c.ContentLanguage)
	}

	if (strings.TrimSpace(c.SearchAPIKey) == "") != (strings.TrimSpace(c.SearchEngineID) == "") {
		return fmt.Errorf("SEARCH_API_KEY and SEARCH_ENGINE_ID must be set together")
	}
	if c.SearchRPS <= 0 {
		return fmt.Errorf("SEARCH_RPS must be > 0")
	}
	if c.SearchCacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be >= 0")
	}
	return nil
}

// SearchEnabled reports whether search credentials are configured.
func (c *Config) SearchEnabled() bool {
	return c != nil && strings.TrimSpace(c.SearchAPIKey) != "" && strings.TrimSpace(c.SearchEngineID) != ""
}

func (c *Config) AffiliateHints() []string {
	if c == nil {
		return nil
	}
	return splitList(c.AffiliateHostHints)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
