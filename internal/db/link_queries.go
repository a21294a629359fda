package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
)

const (
	pgUndefinedColumn = "42703"
	upsertBatchRows   = 400
)

var undefinedColumnPattern = regexp.MustCompile(`column "([^"]+)"`)

// LinkStore persists link occurrences for the reconciler.
type LinkStore struct {
	pool *Pool
}

var _ reconcile.Store = (*LinkStore)(nil)

func (p *Pool) LinkStore() *LinkStore {
	return &LinkStore{pool: p}
}

// storedLayout is one generation of the link table, newest first. Older
// tables lack the key column, the oldest also lack context.
type storedLayout struct {
	name        string
	withKey     bool
	withContext bool
}

var storedLayouts = []storedLayout{
	{name: "current", withKey: true, withContext: true},
	{name: "without key", withContext: true},
	{name: "legacy"},
}

// LoadExisting returns the stored occurrences of a post. Missing key or
// context columns are retried with the next older layout.
func (s *LinkStore) LoadExisting(ctx context.Context, sourceDocID string) ([]reconcile.Stored, error) {
	var lastErr error
	for _, layout := range storedLayouts {
		out, err := s.loadStored(ctx, layout, sourceDocID)
		if err == nil {
			return out, nil
		}
		if _, ok := undefinedColumn(err); !ok {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func storedQuery(layout storedLayout) string {
	columns := []string{"o.id::text"}
	if layout.withKey {
		columns = append(columns, "COALESCE(o.occurrence_key, '')")
	}
	columns = append(columns, "o.anchor_text", "o.href")
	if layout.withContext {
		columns = append(columns, "COALESCE(o.context, '')")
	}
	columns = append(columns, "COALESCE(o.target_doc_id::text, '')")

	return "SELECT\n\t" + strings.Join(columns, ",\n\t") + `
FROM content.link_occurrences o
WHERE o.source_doc_id = $1::uuid
ORDER BY o.created_at ASC, o.id ASC
`
}

func (s *LinkStore) loadStored(ctx context.Context, layout storedLayout, sourceDocID string) ([]reconcile.Stored, error) {
	rows, err := s.pool.Query(ctx, storedQuery(layout), strings.TrimSpace(sourceDocID))
	if err != nil {
		return nil, fmt.Errorf("load link occurrences (%s layout): %w", layout.name, err)
	}
	defer rows.Close()

	out := make([]reconcile.Stored, 0, 32)
	for rows.Next() {
		var stored reconcile.Stored
		dest := []any{&stored.ID}
		if layout.withKey {
			dest = append(dest, &stored.Key)
		}
		dest = append(dest, &stored.AnchorText, &stored.Href)
		if layout.withContext {
			dest = append(dest, &stored.Context)
		}
		dest = append(dest, &stored.TargetDocID)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan link occurrence: %w", err)
		}
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link occurrences: %w", err)
	}
	return out, nil
}

func (s *LinkStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
DELETE FROM content.link_occurrences
WHERE id = ANY($1::uuid[])
`
	if _, err := s.pool.Exec(ctx, q, ids); err != nil {
		return fmt.Errorf("delete link occurrences: %w", err)
	}
	return nil
}

// UpsertByKey writes rows in one transaction, updating rows whose id already
// exists. Every row must carry the same columns.
func (s *LinkStore) UpsertByKey(ctx context.Context, rows []reconcile.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for start := 0; start < len(rows); start += upsertBatchRows {
		end := min(start+upsertBatchRows, len(rows))
		q, args := buildUpsert(columns, rows[start:end])
		if _, err := tx.Exec(ctx, q, args...); err != nil {
			if column, ok := undefinedColumn(err); ok {
				return &reconcile.UnknownColumnError{Column: column, Err: err}
			}
			return fmt.Errorf("upsert link occurrences: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func buildUpsert(columns []string, rows []reconcile.Row) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO content.link_occurrences (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(")\nVALUES\n")

	args := make([]any, 0, len(columns)*len(rows))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\t(")
		for j, column := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, row[column])
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteString(")")
	}

	b.WriteString("\nON CONFLICT (id) DO UPDATE SET\n")
	for _, column := range columns {
		if column == reconcile.ColumnID {
			continue
		}
		fmt.Fprintf(&b, "\t%s = EXCLUDED.%s,\n", column, column)
	}
	b.WriteString("\tupdated_at = now()\n")
	return b.String(), args
}

// undefinedColumn extracts the column name from a postgres undefined_column
// error.
func undefinedColumn(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUndefinedColumn {
		return "", false
	}
	match := undefinedColumnPattern.FindStringSubmatch(pgErr.Message)
	if len(match) < 2 {
		return "", true
	}
	column := match[1]
	if idx := strings.LastIndex(column, "."); idx >= 0 {
		column = column[idx+1:]
	}
	return column, true
}

// ListLinkOccurrences returns the stored occurrences of a post in text order.
func (p *Pool) ListLinkOccurrences(ctx context.Context, sourceDocID string) ([]LinkOccurrence, error) {
	trimmed := strings.TrimSpace(sourceDocID)
	if trimmed == "" {
		return nil, fmt.Errorf("source doc id is required")
	}
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var out []LinkOccurrence
	err := withOrderFallback(linkListOrders, func(order []string) error {
		out = nil
		query := p.gdb.WithContext(ctx).Where("source_doc_id = ?", trimmed)
		for _, clause := range order {
			query = query.Order(clause)
		}
		return query.Find(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list link occurrences: %w", err)
	}
	return out, nil
}

// withOrderFallback runs query with each ordering until one does not fail on
// an undefined column.
func withOrderFallback(orders [][]string, query func(order []string) error) error {
	var lastErr error
	for _, order := range orders {
		err := query(order)
		if err == nil {
			return nil
		}
		if _, ok := undefinedColumn(err); !ok {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// linkListOrders lists orderings to try. text_offset may be missing on
// tables written with a reduced column set.
var linkListOrders = [][]string{
	{"text_offset ASC NULLS LAST", "created_at ASC"},
	{"created_at ASC", "id ASC"},
}
