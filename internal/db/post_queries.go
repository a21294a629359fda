package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PostRecord is the read model used by the analysis service.
type PostRecord struct {
	ID          string
	SiloID      string
	Title       string
	Slug        string
	Keyword     string
	ContentHTML string
	ContentJSON []byte
	Language    string
	Status      string
	UpdatedAt   time.Time
}

// Body returns the stored body, preferring editor JSON over HTML.
func (p PostRecord) Body() string {
	if len(strings.TrimSpace(string(p.ContentJSON))) > 0 && string(p.ContentJSON) != "null" {
		return string(p.ContentJSON)
	}
	return p.ContentHTML
}

// SiloRecord is a silo plus its post count.
type SiloRecord struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}

const postColumns = `
	p.id::text,
	COALESCE(p.silo_id::text, ''),
	p.title,
	p.slug,
	COALESCE(p.keyword, ''),
	COALESCE(p.content_html, ''),
	COALESCE(p.content_json::text, ''),
	COALESCE(p.language, ''),
	p.status,
	p.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (PostRecord, error) {
	var (
		post        PostRecord
		contentJSON string
	)
	if err := row.Scan(
		&post.ID,
		&post.SiloID,
		&post.Title,
		&post.Slug,
		&post.Keyword,
		&post.ContentHTML,
		&contentJSON,
		&post.Language,
		&post.Status,
		&post.UpdatedAt,
	); err != nil {
		return PostRecord{}, err
	}
	if contentJSON != "" {
		post.ContentJSON = []byte(contentJSON)
	}
	return post, nil
}

// GetPost returns ErrNoRows when the post does not exist.
func (p *Pool) GetPost(ctx context.Context, postID string) (PostRecord, error) {
	trimmed := strings.TrimSpace(postID)
	if trimmed == "" {
		return PostRecord{}, fmt.Errorf("post id is required")
	}

	q := `SELECT` + postColumns + `
FROM content.posts p
WHERE p.id = $1::uuid
`
	post, err := scanPost(p.QueryRow(ctx, q, trimmed))
	if err != nil {
		if IsNoRows(err) {
			return PostRecord{}, ErrNoRows
		}
		return PostRecord{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListSiloPosts returns every post of the silo ordered by slug.
func (p *Pool) ListSiloPosts(ctx context.Context, siloID string) ([]PostRecord, error) {
	trimmed := strings.TrimSpace(siloID)
	if trimmed == "" {
		return nil, fmt.Errorf("silo id is required")
	}

	q := `SELECT` + postColumns + `
FROM content.posts p
WHERE p.silo_id = $1::uuid
ORDER BY p.slug ASC, p.id ASC
`
	rows, err := p.Query(ctx, q, trimmed)
	if err != nil {
		return nil, fmt.Errorf("list silo posts: %w", err)
	}
	defer rows.Close()

	out := make([]PostRecord, 0, 32)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan silo post: %w", err)
		}
		out = append(out, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate silo posts: %w", err)
	}
	return out, nil
}

// GetSilo returns ErrNoRows when the silo does not exist.
func (p *Pool) GetSilo(ctx context.Context, siloID string) (SiloRecord, error) {
	trimmed := strings.TrimSpace(siloID)
	if trimmed == "" {
		return SiloRecord{}, fmt.Errorf("silo id is required")
	}

	const q = `
SELECT
	s.id::text,
	s.slug,
	s.name,
	(SELECT COUNT(*)::BIGINT FROM content.posts p WHERE p.silo_id = s.id),
	s.created_at
FROM content.silos s
WHERE s.id = $1::uuid
`
	var silo SiloRecord
	if err := p.QueryRow(ctx, q, trimmed).Scan(&silo.ID, &silo.Slug, &silo.Name, &silo.PostCount, &silo.CreatedAt); err != nil {
		if IsNoRows(err) {
			return SiloRecord{}, ErrNoRows
		}
		return SiloRecord{}, fmt.Errorf("get silo: %w", err)
	}
	return silo, nil
}

func (p *Pool) ListSilos(ctx context.Context) ([]SiloRecord, error) {
	const q = `
SELECT
	s.id::text,
	s.slug,
	s.name,
	COUNT(p.id)::BIGINT,
	s.created_at
FROM content.silos s
LEFT JOIN content.posts p
	ON p.silo_id = s.id
GROUP BY s.id, s.slug, s.name, s.created_at
ORDER BY s.slug ASC
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list silos: %w", err)
	}
	defer rows.Close()

	out := make([]SiloRecord, 0, 8)
	for rows.Next() {
		var silo SiloRecord
		if err := rows.Scan(&silo.ID, &silo.Slug, &silo.Name, &silo.PostCount, &silo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan silo: %w", err)
		}
		out = append(out, silo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate silos: %w", err)
	}
	return out, nil
}

// ResolvePostIDsBySlug maps each known slug to its post id. Unknown slugs are
// absent from the result.
func (p *Pool) ResolvePostIDsBySlug(ctx context.Context, slugs []string) (map[string]string, error) {
	clean := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		value := strings.Trim(strings.TrimSpace(slug), "/")
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		clean = append(clean, value)
	}
	out := make(map[string]string, len(clean))
	if len(clean) == 0 {
		return out, nil
	}

	const q = `
SELECT DISTINCT ON (p.slug) p.slug, p.id::text
FROM content.posts p
WHERE p.slug = ANY($1::text[])
ORDER BY p.slug, p.updated_at DESC
`
	rows, err := p.Query(ctx, q, clean)
	if err != nil {
		return nil, fmt.Errorf("resolve post slugs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slug, id string
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, fmt.Errorf("scan post slug: %w", err)
		}
		out[slug] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post slugs: %w", err)
	}
	return out, nil
}
