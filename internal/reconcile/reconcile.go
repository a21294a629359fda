// Package reconcile persists extracted links against the previous extraction
// of the same post so that unchanged links keep their stored identity.
package reconcile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/links"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

// Column names written for every occurrence.
const (
	ColumnID             = "id"
	ColumnSourceDocID    = "source_doc_id"
	ColumnTargetDocID    = "target_doc_id"
	ColumnOccurrenceKey  = "occurrence_key"
	ColumnHref           = "href"
	ColumnAnchorText     = "anchor_text"
	ColumnContext        = "context"
	ColumnLinkType       = "link_type"
	ColumnIsInternal     = "is_internal"
	ColumnIsSiloInternal = "is_silo_internal"
	ColumnIsAmazon       = "is_amazon"
	ColumnRelNoFollow    = "rel_nofollow"
	ColumnRelSponsored   = "rel_sponsored"
	ColumnRelUGC         = "rel_ugc"
	ColumnTargetBlank    = "target_blank"
	ColumnPosition       = "position_bucket"
	ColumnTextOffset     = "text_offset"
	ColumnNodeKind       = "node_kind"
)

var ErrSchemaDrift = errors.New("link occurrence schema drift")

// Row is one occurrence keyed by column name.
type Row map[string]any

// Stored is a previously persisted occurrence. Key is empty when the table
// has no key column; matching then composes it from the raw columns.
type Stored struct {
	ID          string
	Key         string
	AnchorText  string
	Href        string
	Context     string
	TargetDocID string
}

type Store interface {
	LoadExisting(ctx context.Context, sourceDocID string) ([]Stored, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	UpsertByKey(ctx context.Context, rows []Row) error
}

// UnknownColumnError is returned by a Store when a written column does not
// exist in the backing table.
type UnknownColumnError struct {
	Column string
	Err    error
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q: %v", e.Column, e.Err)
}

func (e *UnknownColumnError) Unwrap() error {
	return e.Err
}

// RetryPolicy lists the columns that may be dropped when the store reports
// them as unknown. Identity and classification columns are never droppable.
type RetryPolicy struct {
	Droppable []string
}

var DefaultRetryPolicy = RetryPolicy{
	Droppable: []string{
		ColumnOccurrenceKey,
		ColumnContext,
		ColumnIsSiloInternal,
		ColumnRelUGC,
		ColumnTargetBlank,
		ColumnPosition,
		ColumnTextOffset,
		ColumnNodeKind,
	},
}

// Link is an extracted link plus its resolved target post, if any.
type Link struct {
	links.ExtractedLink
	TargetDocID string
}

type Result struct {
	Kept           int      `json:"kept"`
	Inserted       int      `json:"inserted"`
	Deleted        int      `json:"deleted"`
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	IDs            []string `json:"ids"`
}

type Reconciler struct {
	store  Store
	policy RetryPolicy
	logger zerolog.Logger
}

func New(store Store, policy RetryPolicy, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		policy: policy,
		logger: logger.With().Str("component", "reconcile").Logger(),
	}
}

// OccurrenceKey hashes the normalized anchor, href and context of a link.
func OccurrenceKey(anchor, href, context string) string {
	parts := []string{
		textnorm.Normalize(anchor),
		strings.TrimSpace(href),
		textnorm.Normalize(context),
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Reconcile replaces the stored occurrences of sourceDocID with extracted.
// Links matching a prior occurrence by key (first match wins, in order) keep
// its ID and inherit its target when none was resolved now.
func (r *Reconciler) Reconcile(ctx context.Context, sourceDocID string, extracted []Link) (Result, error) {
	existing, err := r.store.LoadExisting(ctx, sourceDocID)
	if err != nil {
		return Result{}, fmt.Errorf("load existing occurrences: %w", err)
	}

	// Rows from tables without key and context columns can only be matched on
	// anchor and href; they live in a separate bucket set so links whose
	// context is known still match precisely first.
	buckets := make(map[string][]Stored, len(existing))
	loose := make(map[string][]Stored)
	for _, prior := range existing {
		switch {
		case prior.Key != "":
			buckets[prior.Key] = append(buckets[prior.Key], prior)
		case prior.Context != "":
			key := OccurrenceKey(prior.AnchorText, prior.Href, prior.Context)
			buckets[key] = append(buckets[key], prior)
		default:
			key := OccurrenceKey(prior.AnchorText, prior.Href, "")
			loose[key] = append(loose[key], prior)
		}
	}

	result := Result{IDs: make([]string, 0, len(extracted))}
	rows := make([]Row, 0, len(extracted))
	for _, link := range extracted {
		key := OccurrenceKey(link.AnchorText, link.Href, link.Context)
		id := ""
		target := link.TargetDocID
		prior, found := takeFirst(buckets, key)
		if !found {
			prior, found = takeFirst(loose, OccurrenceKey(link.AnchorText, link.Href, ""))
		}
		if found {
			id = prior.ID
			if target == "" {
				target = prior.TargetDocID
			}
			result.Kept++
		} else {
			id = uuid.NewString()
			result.Inserted++
		}
		result.IDs = append(result.IDs, id)
		rows = append(rows, buildRow(id, sourceDocID, key, target, link))
	}

	stale := make([]string, 0)
	for _, set := range []map[string][]Stored{buckets, loose} {
		for _, queue := range set {
			for _, prior := range queue {
				stale = append(stale, prior.ID)
			}
		}
	}
	slices.Sort(stale)

	if len(rows) > 0 {
		dropped, err := r.upsert(ctx, rows)
		result.DroppedColumns = dropped
		if err != nil {
			return result, err
		}
	}

	if len(stale) > 0 {
		if err := r.store.DeleteByIDs(ctx, stale); err != nil {
			return result, fmt.Errorf("delete stale occurrences: %w", err)
		}
	}
	result.Deleted = len(stale)

	r.logger.Debug().
		Str("source_doc_id", sourceDocID).
		Int("kept", result.Kept).
		Int("inserted", result.Inserted).
		Int("deleted", result.Deleted).
		Strs("dropped_columns", result.DroppedColumns).
		Msg("link occurrences reconciled")

	return result, nil
}

func takeFirst(buckets map[string][]Stored, key string) (Stored, bool) {
	queue := buckets[key]
	if len(queue) == 0 {
		return Stored{}, false
	}
	buckets[key] = queue[1:]
	return queue[0], true
}

// upsert writes rows, dropping one droppable column per unknown-column
// failure. It gives up after as many attempts as there are columns.
func (r *Reconciler) upsert(ctx context.Context, rows []Row) ([]string, error) {
	var dropped []string
	attempts := len(rows[0])
	for attempt := 0; attempt < attempts; attempt++ {
		err := r.store.UpsertByKey(ctx, rows)
		if err == nil {
			return dropped, nil
		}

		var unknown *UnknownColumnError
		if !errors.As(err, &unknown) {
			return dropped, fmt.Errorf("upsert occurrences: %w", err)
		}
		column := unknown.Column
		if !slices.Contains(r.policy.Droppable, column) {
			return dropped, fmt.Errorf("%w: column %q is required: %v", ErrSchemaDrift, column, err)
		}
		if _, present := rows[0][column]; !present {
			return dropped, fmt.Errorf("%w: column %q reported again after drop: %v", ErrSchemaDrift, column, err)
		}

		r.logger.Warn().Str("column", column).Msg("dropping unknown link occurrence column")
		for _, row := range rows {
			delete(row, column)
		}
		dropped = append(dropped, column)
	}
	return dropped, fmt.Errorf("%w: gave up after %d attempts", ErrSchemaDrift, attempts)
}

func buildRow(id, sourceDocID, key, target string, link Link) Row {
	var targetDocID any
	if target != "" {
		targetDocID = target
	}
	return Row{
		ColumnID:             id,
		ColumnSourceDocID:    sourceDocID,
		ColumnTargetDocID:    targetDocID,
		ColumnOccurrenceKey:  key,
		ColumnHref:           link.Href,
		ColumnAnchorText:     link.AnchorText,
		ColumnContext:        link.Context,
		ColumnLinkType:       string(link.Type),
		ColumnIsInternal:     link.IsInternal,
		ColumnIsSiloInternal: link.IsSiloInternal,
		ColumnIsAmazon:       link.IsAmazon,
		ColumnRelNoFollow:    link.Rel.NoFollow,
		ColumnRelSponsored:   link.Rel.Sponsored,
		ColumnRelUGC:         link.Rel.UGC,
		ColumnTargetBlank:    link.TargetBlank,
		ColumnPosition:       string(link.Position),
		ColumnTextOffset:     link.Offset,
		ColumnNodeKind:       string(link.NodeKind),
	}
}
