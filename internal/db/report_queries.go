package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ReportKindInternal = "internal"
	ReportKindExternal = "external"
)

// UniquenessReportInput is one detector run to persist.
type UniquenessReportInput struct {
	PostID          string
	Kind            string
	UniquenessScore int
	Risk            string
	CheckedChunks   int
	SuspectChunks   int
	HighRiskChunks  int
	ComparedCount   int
	Partial         bool
	Summary         string
	Matches         any
	CreatedAt       time.Time
}

// InsertUniquenessReport stores a report and returns its id.
func (p *Pool) InsertUniquenessReport(ctx context.Context, in UniquenessReportInput) (string, error) {
	if p == nil || p.gdb == nil {
		return "", fmt.Errorf("database pool is not initialized")
	}
	postID := strings.TrimSpace(in.PostID)
	if postID == "" {
		return "", fmt.Errorf("post id is required")
	}
	switch in.Kind {
	case ReportKindInternal, ReportKindExternal:
	default:
		return "", fmt.Errorf("unsupported report kind %q", in.Kind)
	}

	matches := in.Matches
	if matches == nil {
		matches = []any{}
	}
	encoded, err := json.Marshal(matches)
	if err != nil {
		return "", fmt.Errorf("marshal report matches: %w", err)
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := UniquenessReport{
		ID:              uuid.NewString(),
		PostID:          postID,
		Kind:            in.Kind,
		UniquenessScore: in.UniquenessScore,
		Risk:            in.Risk,
		CheckedChunks:   in.CheckedChunks,
		SuspectChunks:   in.SuspectChunks,
		HighRiskChunks:  in.HighRiskChunks,
		ComparedCount:   in.ComparedCount,
		Partial:         in.Partial,
		Summary:         in.Summary,
		Matches:         datatypes.JSON(encoded),
		CreatedAt:       createdAt.UTC(),
	}
	if err := p.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert uniqueness report: %w", err)
	}
	return row.ID, nil
}

// LatestReports returns the newest report of each kind for a post.
func (p *Pool) LatestReports(ctx context.Context, postID string) ([]UniquenessReport, error) {
	trimmed := strings.TrimSpace(postID)
	if trimmed == "" {
		return nil, fmt.Errorf("post id is required")
	}
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	const q = `
SELECT DISTINCT ON (r.kind) r.*
FROM content.uniqueness_reports r
WHERE r.post_id = $1::uuid
ORDER BY r.kind ASC, r.created_at DESC
`
	var out []UniquenessReport
	if err := p.gdb.WithContext(ctx).Raw(q, trimmed).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("latest uniqueness reports: %w", err)
	}
	return out, nil
}
