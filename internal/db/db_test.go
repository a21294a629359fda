package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
)

func TestBuildUpsert(t *testing.T) {
	t.Parallel()

	columns := []string{"anchor_text", "href", "id"}
	rows := []reconcile.Row{
		{"id": "a", "href": "/carrinhos/x", "anchor_text": "x"},
		{"id": "b", "href": "https://amzn.to/1", "anchor_text": "oferta"},
	}

	q, args := buildUpsert(columns, rows)

	if !strings.HasPrefix(q, "INSERT INTO content.link_occurrences (anchor_text, href, id)") {
		t.Fatalf("unexpected insert head: %q", q)
	}
	if !strings.Contains(q, "($1, $2, $3),\n\t($4, $5, $6)") {
		t.Fatalf("expected sequential placeholders, got %q", q)
	}
	if strings.Contains(q, "id = EXCLUDED.id") {
		t.Fatalf("id must not be updated on conflict: %q", q)
	}
	if !strings.Contains(q, "href = EXCLUDED.href") || !strings.HasSuffix(q, "updated_at = now()\n") {
		t.Fatalf("unexpected conflict clause: %q", q)
	}

	want := []any{"x", "/carrinhos/x", "a", "oferta", "https://amzn.to/1", "b"}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d", len(want), len(args))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestUndefinedColumn(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "42703", Message: `column "occurrence_key" of relation "link_occurrences" does not exist`}
	column, ok := undefinedColumn(fmt.Errorf("exec: %w", pgErr))
	if !ok || column != "occurrence_key" {
		t.Fatalf("expected occurrence_key, got %q ok=%v", column, ok)
	}

	qualified := &pgconn.PgError{Code: "42703", Message: `column "l.context" does not exist`}
	if column, ok := undefinedColumn(qualified); !ok || column != "context" {
		t.Fatalf("expected table prefix stripped, got %q ok=%v", column, ok)
	}

	if _, ok := undefinedColumn(&pgconn.PgError{Code: "23505", Message: "duplicate key"}); ok {
		t.Fatalf("unique violation must not be treated as unknown column")
	}
	if _, ok := undefinedColumn(errors.New("column \"x\" does not exist")); ok {
		t.Fatalf("plain errors must not be treated as unknown column")
	}
}

func TestPostRecordBodyPrefersJSON(t *testing.T) {
	t.Parallel()

	post := PostRecord{ContentHTML: "<p>html</p>", ContentJSON: []byte(`{"type":"doc"}`)}
	if got := post.Body(); got != `{"type":"doc"}` {
		t.Fatalf("expected JSON body, got %q", got)
	}

	post.ContentJSON = []byte("null")
	if got := post.Body(); got != "<p>html</p>" {
		t.Fatalf("expected HTML fallback for null JSON, got %q", got)
	}

	post.ContentJSON = []byte("  ")
	if got := post.Body(); got != "<p>html</p>" {
		t.Fatalf("expected HTML fallback for blank JSON, got %q", got)
	}
}

func TestResolveGormLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level, env string
		want       logger.LogLevel
	}{
		{"debug", "production", logger.Info},
		{"", "production", logger.Warn},
		{"error", "local", logger.Error},
		{"silent", "local", logger.Silent},
		{"verbose", "local", logger.Warn},
		{"verbose", "production", logger.Error},
	}
	for _, tc := range cases {
		if got := resolveGormLogLevel(tc.level, tc.env); got != tc.want {
			t.Fatalf("resolveGormLogLevel(%q, %q) = %v, want %v", tc.level, tc.env, got, tc.want)
		}
	}
}

func TestGormLoggerTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newGormLogger(zerolog.New(&buf), logger.Warn)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast successful query must not log at warn level: %s", buf.String())
	}

	l.Trace(context.Background(), time.Now().Add(-2*slowQueryThreshold), fc, nil)
	if !strings.Contains(buf.String(), `"message":"slow query"`) {
		t.Fatalf("expected slow query warning, got %s", buf.String())
	}
	buf.Reset()

	l.Trace(context.Background(), time.Now(), fc, ErrNoRows)
	if buf.Len() != 0 {
		t.Fatalf("no-rows must not be logged as failure: %s", buf.String())
	}

	l.Trace(context.Background(), time.Now(), fc, errors.New("connection reset"))
	if !strings.Contains(buf.String(), `"message":"query failed"`) || !strings.Contains(buf.String(), `"component":"db"`) {
		t.Fatalf("expected query failure log, got %s", buf.String())
	}

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode must not log: %s", buf.String())
	}
}

func TestWithOrderFallbackSkipsMissingColumn(t *testing.T) {
	t.Parallel()

	var tried []string
	err := withOrderFallback(linkListOrders, func(order []string) error {
		tried = append(tried, order[0])
		if strings.HasPrefix(order[0], "text_offset") {
			return fmt.Errorf("find: %w", &pgconn.PgError{Code: "42703", Message: `column "text_offset" does not exist`})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected fallback ordering to succeed, got %v", err)
	}
	if len(tried) != 2 || tried[1] != "created_at ASC" {
		t.Fatalf("expected both orderings to be tried, got %v", tried)
	}

	tried = nil
	boom := errors.New("connection reset")
	err = withOrderFallback(linkListOrders, func(order []string) error {
		tried = append(tried, order[0])
		return boom
	})
	if !errors.Is(err, boom) || len(tried) != 1 {
		t.Fatalf("expected other errors to stop immediately, got err=%v tried=%v", err, tried)
	}

	err = withOrderFallback(linkListOrders, func([]string) error {
		return &pgconn.PgError{Code: "42703", Message: `column "created_at" does not exist`}
	})
	if _, ok := undefinedColumn(err); !ok {
		t.Fatalf("expected the last undefined column error, got %v", err)
	}
}
