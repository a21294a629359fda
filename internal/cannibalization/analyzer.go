// Package cannibalization finds posts of a silo that compete for the same
// search intent.
package cannibalization

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

const (
	fingerprintBodyWords = 600
	maxSharedTerms       = 8

	defaultSerpMaxPosts = 12
	minSerpMaxPosts     = 1
	maxSerpMaxPosts     = 30
)

var fingerprintOptions = textnorm.Options{MinLen: 3, RemoveStopWords: true, Stem: false}

type Post struct {
	ID       string
	Title    string
	Slug     string
	Keyword  string
	Headings []string
	Text     string
}

type Pair struct {
	PostAID     string          `json:"post_a_id"`
	PostATitle  string          `json:"post_a_title"`
	PostBID     string          `json:"post_b_id"`
	PostBTitle  string          `json:"post_b_title"`
	Similarity  float64         `json:"similarity"`
	SerpOverlap *float64        `json:"serp_overlap,omitempty"`
	Risk        similarity.Risk `json:"risk"`
	SharedTerms []string        `json:"shared_terms"`
	// Recommendation is a templated editorial action for the risk tier.
	Recommendation string `json:"recommendation"`
}

type Options struct {
	// Searcher enables SERP overlap when set.
	Searcher search.Searcher
	// SerpMaxPosts caps queried posts; zero means 12, clamped to [1,30].
	SerpMaxPosts int
}

type Report struct {
	Pairs       []Pair `json:"pairs"`
	PostCount   int    `json:"post_count"`
	SerpChecked int    `json:"serp_checked"`
	// SerpError is set when a search failed; pairs computed after the failure
	// fall back to fingerprint similarity only.
	SerpError string `json:"serp_error,omitempty"`
}

type Analyzer struct {
	tokenizer *textnorm.Tokenizer
	logger    zerolog.Logger
}

func NewAnalyzer(tokenizer *textnorm.Tokenizer, logger zerolog.Logger) *Analyzer {
	if tokenizer == nil {
		tokenizer = textnorm.New(nil)
	}
	return &Analyzer{
		tokenizer: tokenizer,
		logger:    logger.With().Str("component", "cannibalization").Logger(),
	}
}

// Fingerprint is the token list of title, headings and the opening body words.
func (a *Analyzer) Fingerprint(p Post) []string {
	parts := make([]string, 0, len(p.Headings)+2)
	parts = append(parts, p.Title)
	parts = append(parts, p.Headings...)
	parts = append(parts, textnorm.FirstWords(p.Text, fingerprintBodyWords))
	return a.tokenizer.Tokenize(strings.Join(parts, " "), fingerprintOptions)
}

// Analyze compares every unordered pair of posts once, in input order.
func (a *Analyzer) Analyze(ctx context.Context, posts []Post, opts Options) Report {
	report := Report{PostCount: len(posts), Pairs: []Pair{}}
	if len(posts) < 2 {
		return report
	}

	fingerprints := make([][]string, len(posts))
	for i, p := range posts {
		fingerprints[i] = a.Fingerprint(p)
	}

	serp := a.collectSerp(ctx, posts, opts, &report)

	for i := 0; i < len(posts); i++ {
		for j := i + 1; j < len(posts); j++ {
			pair := Pair{
				PostAID:     posts[i].ID,
				PostATitle:  posts[i].Title,
				PostBID:     posts[j].ID,
				PostBTitle:  posts[j].Title,
				Similarity:  similarity.Jaccard(fingerprints[i], fingerprints[j]),
				SharedTerms: sharedTerms(fingerprints[i], fingerprints[j]),
			}
			itemsA, okA := serp[i]
			itemsB, okB := serp[j]
			if okA && okB {
				overlap := SerpOverlap(itemsA, itemsB)
				pair.SerpOverlap = &overlap
			}
			pair.Risk = classify(pair.Similarity, pair.SerpOverlap)
			pair.Recommendation = recommend(pair)
			report.Pairs = append(report.Pairs, pair)
		}
	}

	sort.SliceStable(report.Pairs, func(i, j int) bool {
		ri, rj := report.Pairs[i].Risk.Rank(), report.Pairs[j].Risk.Rank()
		if ri != rj {
			return ri > rj
		}
		return report.Pairs[i].Similarity > report.Pairs[j].Similarity
	})

	a.logger.Debug().
		Int("posts", len(posts)).
		Int("pairs", len(report.Pairs)).
		Int("serp_checked", report.SerpChecked).
		Msg("cannibalization analyzed")

	return report
}

func (a *Analyzer) collectSerp(ctx context.Context, posts []Post, opts Options, report *Report) map[int][]search.Item {
	if opts.Searcher == nil {
		return nil
	}
	limit := opts.SerpMaxPosts
	if limit <= 0 {
		limit = defaultSerpMaxPosts
	}
	limit = max(minSerpMaxPosts, min(maxSerpMaxPosts, limit))

	out := make(map[int][]search.Item, min(limit, len(posts)))
	for i, p := range posts {
		if len(out) >= limit {
			break
		}
		query := strings.TrimSpace(p.Keyword)
		if query == "" {
			query = strings.TrimSpace(p.Title)
		}
		if query == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.SerpError = err.Error()
			break
		}
		resp, err := opts.Searcher.Search(ctx, query)
		if err != nil {
			report.SerpError = fmt.Sprintf("search %q: %v", query, err)
			a.logger.Warn().Err(err).Str("post_id", p.ID).Msg("serp lookup failed")
			break
		}
		items := resp.Items
		if len(items) > search.MaxResults {
			items = items[:search.MaxResults]
		}
		out[i] = items
		report.SerpChecked++
	}
	return out
}

func classify(sim float64, serp *float64) similarity.Risk {
	if serp == nil {
		switch {
		case sim >= 0.55:
			return similarity.RiskHigh
		case sim >= 0.35:
			return similarity.RiskMedium
		default:
			return similarity.RiskLow
		}
	}
	switch {
	case sim >= 0.6 && *serp >= 0.35:
		return similarity.RiskHigh
	case sim >= 0.45 || *serp >= 0.3:
		return similarity.RiskMedium
	default:
		return similarity.RiskLow
	}
}

func recommend(p Pair) string {
	switch p.Risk {
	case similarity.RiskHigh:
		return fmt.Sprintf(
			"Alto risco: \"%s\" e \"%s\" disputam a mesma intenção. Reestruture títulos e headings com ângulos distintos ou consolide os conteúdos.",
			p.PostATitle, p.PostBTitle,
		)
	case similarity.RiskMedium:
		return fmt.Sprintf(
			"Risco moderado: refine o ângulo de \"%s\" e \"%s\" e diferencie a intenção principal de cada um.",
			p.PostATitle, p.PostBTitle,
		)
	default:
		return "Baixo risco: apenas monitore as posições das duas páginas."
	}
}

func sharedTerms(a, b []string) []string {
	setB := textnorm.TokenSet(b)
	seen := make(map[string]struct{})
	out := make([]string, 0, maxSharedTerms)
	for _, token := range a {
		if _, ok := setB[token]; !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
		if len(out) == maxSharedTerms {
			break
		}
	}
	return out
}
