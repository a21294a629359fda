// Package analysis runs the content checks against stored posts and persists
// their results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cannibalization"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/content"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/db"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/duplication"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/globaltime"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/langdetect"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/links"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrSiloNotFound = errors.New("silo not found")
)

// Corpus is the stored content the service reads and writes. db.Pool
// implements it.
type Corpus interface {
	GetPost(ctx context.Context, postID string) (db.PostRecord, error)
	ListSiloPosts(ctx context.Context, siloID string) ([]db.PostRecord, error)
	GetSilo(ctx context.Context, siloID string) (db.SiloRecord, error)
	ListSilos(ctx context.Context) ([]db.SiloRecord, error)
	ResolvePostIDsBySlug(ctx context.Context, slugs []string) (map[string]string, error)
	InsertUniquenessReport(ctx context.Context, in db.UniquenessReportInput) (string, error)
	ListLinkOccurrences(ctx context.Context, sourceDocID string) ([]db.LinkOccurrence, error)
	LatestReports(ctx context.Context, postID string) ([]db.UniquenessReport, error)
}

var _ Corpus = (*db.Pool)(nil)

type Options struct {
	SiteURL         string
	AffiliateHints  []string
	DefaultLanguage string
	// MaxMatches and MaxQueries are passed to the detectors; zero keeps
	// their defaults.
	MaxMatches   int
	MaxQueries   int
	SerpMaxPosts int
}

type Service struct {
	corpus   Corpus
	store    reconcile.Store
	searcher search.Searcher
	opts     Options
	logger   zerolog.Logger
}

// NewService wires the service. searcher may be nil, in which case external
// checks report search.ErrNotConfigured and cannibalization skips SERP overlap.
func NewService(corpus Corpus, store reconcile.Store, searcher search.Searcher, opts Options, logger zerolog.Logger) *Service {
	if strings.TrimSpace(opts.DefaultLanguage) == "" {
		opts.DefaultLanguage = language.DefaultTag
	}
	return &Service{
		corpus:   corpus,
		store:    store,
		searcher: searcher,
		opts:     opts,
		logger:   logger.With().Str("component", "analysis").Logger(),
	}
}

// ReportResult is a detector report for one post.
type ReportResult struct {
	PostID   string             `json:"post_id,omitempty"`
	ReportID string             `json:"report_id,omitempty"`
	Language string             `json:"language"`
	Report   duplication.Report `json:"report"`
	// Warning carries the search failure behind a partial report.
	Warning string `json:"warning,omitempty"`
}

type LinkCounts struct {
	Total        int `json:"total"`
	Internal     int `json:"internal"`
	SiloInternal int `json:"silo_internal"`
	External     int `json:"external"`
	Affiliate    int `json:"affiliate"`
	Resolved     int `json:"resolved"`
}

type LinkSyncResult struct {
	PostID string                `json:"post_id"`
	Counts LinkCounts            `json:"counts"`
	Result reconcile.Result      `json:"result"`
	Links  []links.ExtractedLink `json:"links"`
}

// document is a post with its body parsed once.
type document struct {
	post     db.PostRecord
	root     *content.Node
	text     string
	headings []string
	pack     *language.Pack
}

// RunDuplication compares a post with the other posts of its silo and stores
// the report.
func (s *Service) RunDuplication(ctx context.Context, postID string) (ReportResult, error) {
	doc, err := s.loadDocument(ctx, postID)
	if err != nil {
		return ReportResult{}, err
	}

	candidates, err := s.siblingCandidates(ctx, doc.post)
	if err != nil {
		return ReportResult{}, err
	}

	detector := duplication.NewDetector(textnorm.New(doc.pack), s.logger)
	report := detector.Internal(duplication.InternalInput{
		Text:       doc.text,
		Keyword:    doc.post.Keyword,
		Candidates: candidates,
		MaxMatches: s.opts.MaxMatches,
	})

	result := ReportResult{PostID: doc.post.ID, Language: doc.pack.Tag(), Report: report}
	result.ReportID, err = s.persist(ctx, doc.post.ID, db.ReportKindInternal, report)
	if err != nil {
		return ReportResult{}, err
	}
	return result, nil
}

// RunUniqueness searches excerpts of a post on the web and stores the
// report. A search failure after at least one completed query yields a
// stored partial report and a Warning instead of an error.
func (s *Service) RunUniqueness(ctx context.Context, postID string) (ReportResult, error) {
	doc, err := s.loadDocument(ctx, postID)
	if err != nil {
		return ReportResult{}, err
	}

	result, err := s.inspect(ctx, doc.text, doc.pack)
	if err != nil {
		return ReportResult{}, err
	}
	result.PostID = doc.post.ID
	result.ReportID, err = s.persist(ctx, doc.post.ID, db.ReportKindExternal, result.Report)
	if err != nil {
		return ReportResult{}, err
	}
	return result, nil
}

// InspectText runs the external check on free text without storing it.
func (s *Service) InspectText(ctx context.Context, text, languageTag string) (ReportResult, error) {
	pack := langdetect.Pack(languageTag, text, s.opts.DefaultLanguage)
	return s.inspect(ctx, text, pack)
}

func (s *Service) inspect(ctx context.Context, text string, pack *language.Pack) (ReportResult, error) {
	if s.searcher == nil {
		return ReportResult{}, search.ErrNotConfigured
	}
	detector := duplication.NewDetector(textnorm.New(pack), s.logger)
	report, err := detector.External(ctx, s.searcher, duplication.ExternalInput{
		Text:       text,
		MaxQueries: s.opts.MaxQueries,
		MaxMatches: s.opts.MaxMatches,
	})
	result := ReportResult{Language: pack.Tag(), Report: report}
	if err != nil {
		if !report.Partial || report.CheckedChunks == 0 {
			return ReportResult{}, fmt.Errorf("external uniqueness: %w", err)
		}
		result.Warning = err.Error()
	}
	return result, nil
}

// SyncLinks extracts the links of a post, resolves internal targets by slug
// and reconciles them with the stored occurrences.
func (s *Service) SyncLinks(ctx context.Context, postID string) (LinkSyncResult, error) {
	doc, err := s.loadDocument(ctx, postID)
	if err != nil {
		return LinkSyncResult{}, err
	}

	siloSlug, err := s.siloSlug(ctx, doc.post.SiloID)
	if err != nil {
		return LinkSyncResult{}, err
	}

	extracted := links.Extract(doc.root, s.linkOptions(siloSlug))

	slugs := make([]string, 0, len(extracted))
	for _, link := range extracted {
		if slug := slugFromPath(link.Path); link.IsInternal && slug != "" {
			slugs = append(slugs, slug)
		}
	}
	targets, err := s.corpus.ResolvePostIDsBySlug(ctx, slugs)
	if err != nil {
		return LinkSyncResult{}, fmt.Errorf("resolve link targets: %w", err)
	}

	result := LinkSyncResult{PostID: doc.post.ID, Links: extracted}
	withTargets := make([]reconcile.Link, 0, len(extracted))
	for _, link := range extracted {
		entry := reconcile.Link{ExtractedLink: link}
		if link.IsInternal {
			entry.TargetDocID = targets[slugFromPath(link.Path)]
		}
		countLink(&result.Counts, entry)
		withTargets = append(withTargets, entry)
	}

	reconciled, err := reconcile.New(s.store, reconcile.DefaultRetryPolicy, s.logger).Reconcile(ctx, doc.post.ID, withTargets)
	if err != nil {
		return LinkSyncResult{}, fmt.Errorf("reconcile links of post %s: %w", doc.post.ID, err)
	}
	result.Result = reconciled
	return result, nil
}

// ExtractLinks classifies the links of a submitted body without storing them.
func (s *Service) ExtractLinks(raw, siloSlug string) ([]links.ExtractedLink, error) {
	return links.ExtractContent(raw, s.linkOptions(siloSlug))
}

// LinkReport returns the stored link occurrences of a post.
func (s *Service) LinkReport(ctx context.Context, postID string) ([]db.LinkOccurrence, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.corpus.ListLinkOccurrences(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return occurrences, nil
}

// Reports returns the newest stored report of each kind for a post.
func (s *Service) Reports(ctx context.Context, postID string) ([]db.UniquenessReport, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.corpus.LatestReports(ctx, post.ID)
}

// Cannibalization compares every pair of posts in a silo. SERP overlap is
// added when withSerp is set and a searcher is configured.
func (s *Service) Cannibalization(ctx context.Context, siloID string, withSerp bool) (cannibalization.Report, error) {
	if _, err := s.corpus.GetSilo(ctx, siloID); err != nil {
		if db.IsNoRows(err) {
			return cannibalization.Report{}, fmt.Errorf("%w: %s", ErrSiloNotFound, siloID)
		}
		return cannibalization.Report{}, err
	}

	records, err := s.corpus.ListSiloPosts(ctx, siloID)
	if err != nil {
		return cannibalization.Report{}, err
	}

	posts := make([]cannibalization.Post, 0, len(records))
	for _, record := range records {
		doc, err := s.derive(record)
		if err != nil {
			s.logger.Warn().Err(err).Str("post_id", record.ID).Msg("skipping unparsable post")
			continue
		}
		posts = append(posts, cannibalization.Post{
			ID:       record.ID,
			Title:    record.Title,
			Slug:     record.Slug,
			Keyword:  record.Keyword,
			Headings: doc.headings,
			Text:     doc.text,
		})
	}

	opts := cannibalization.Options{SerpMaxPosts: s.opts.SerpMaxPosts}
	if withSerp && s.searcher != nil {
		opts.Searcher = s.searcher
	}
	pack := language.LookupOrDefault(s.opts.DefaultLanguage)
	return cannibalization.NewAnalyzer(textnorm.New(pack), s.logger).Analyze(ctx, posts, opts), nil
}

func (s *Service) getPost(ctx context.Context, postID string) (db.PostRecord, error) {
	post, err := s.corpus.GetPost(ctx, postID)
	if err != nil {
		if db.IsNoRows(err) {
			return db.PostRecord{}, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
		}
		return db.PostRecord{}, err
	}
	return post, nil
}

func (s *Service) loadDocument(ctx context.Context, postID string) (document, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return document{}, err
	}
	return s.derive(post)
}

func (s *Service) derive(post db.PostRecord) (document, error) {
	root, err := content.Parse(post.Body())
	if err != nil {
		return document{}, fmt.Errorf("parse body of post %s: %w", post.ID, err)
	}
	text := content.PlainText(root)
	return document{
		post:     post,
		root:     root,
		text:     text,
		headings: content.Headings(root),
		pack:     langdetect.Pack(post.Language, text, s.opts.DefaultLanguage),
	}, nil
}

func (s *Service) siblingCandidates(ctx context.Context, post db.PostRecord) ([]duplication.Candidate, error) {
	if post.SiloID == "" {
		return nil, nil
	}
	siblings, err := s.corpus.ListSiloPosts(ctx, post.SiloID)
	if err != nil {
		return nil, err
	}
	out := make([]duplication.Candidate, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ID == post.ID {
			continue
		}
		doc, err := s.derive(sibling)
		if err != nil {
			s.logger.Warn().Err(err).Str("post_id", sibling.ID).Msg("skipping unparsable sibling")
			continue
		}
		out = append(out, duplication.Candidate{
			ID:    sibling.ID,
			Title: sibling.Title,
			Slug:  sibling.Slug,
			Text:  doc.text,
		})
	}
	return out, nil
}

func (s *Service) siloSlug(ctx context.Context, siloID string) (string, error) {
	if siloID == "" {
		return "", nil
	}
	silo, err := s.corpus.GetSilo(ctx, siloID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return silo.Slug, nil
}

func (s *Service) linkOptions(siloSlug string) links.Options {
	return links.Options{
		SiteURL:        s.opts.SiteURL,
		SiloSlug:       siloSlug,
		AffiliateHints: s.opts.AffiliateHints,
	}
}

func (s *Service) persist(ctx context.Context, postID, kind string, report duplication.Report) (string, error) {
	id, err := s.corpus.InsertUniquenessReport(ctx, db.UniquenessReportInput{
		PostID:          postID,
		Kind:            kind,
		UniquenessScore: report.UniquenessScore,
		Risk:            string(report.Risk),
		CheckedChunks:   report.CheckedChunks,
		SuspectChunks:   report.SuspectChunks,
		HighRiskChunks:  report.HighRiskChunks,
		ComparedCount:   report.ComparedCount,
		Partial:         report.Partial,
		Summary:         report.Summary,
		Matches:         report.Matches,
		CreatedAt:       globaltime.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("store %s report: %w", kind, err)
	}
	return id, nil
}

// slugFromPath returns the last path segment, which is the post slug on
// this site.
func slugFromPath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.ToLower(trimmed)
}

func countLink(counts *LinkCounts, link reconcile.Link) {
	counts.Total++
	switch link.Type {
	case links.TypeInternal:
		counts.Internal++
	case links.TypeAffiliate:
		counts.Affiliate++
	default:
		counts.External++
	}
	if link.IsSiloInternal {
		counts.SiloInternal++
	}
	if link.TargetDocID != "" {
		counts.Resolved++
	}
}
