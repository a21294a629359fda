package duplication

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

func words(prefix string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

func newTestDetector() *Detector {
	return NewDetector(textnorm.New(nil), zerolog.Nop())
}

func TestInternalShortDocumentIsPerfect(t *testing.T) {
	t.Parallel()

	report := newTestDetector().Internal(InternalInput{
		Text:       words("curto", 50),
		Candidates: []Candidate{{ID: "a", Text: words("curto", 300)}},
	})
	if report.UniquenessScore != 100 || report.Risk != similarity.RiskLow {
		t.Fatalf("expected perfect report, got %d/%s", report.UniquenessScore, report.Risk)
	}
	if report.CheckedChunks != 0 || len(report.Matches) != 0 || report.Matches == nil {
		t.Fatalf("expected no chunks and empty matches, got %+v", report)
	}
}

func TestInternalWithoutUsableCandidates(t *testing.T) {
	t.Parallel()

	report := newTestDetector().Internal(InternalInput{
		Text:       words("texto", 120),
		Candidates: []Candidate{{ID: "a", Text: words("texto", 30)}},
	})
	if report.UniquenessScore != 100 {
		t.Fatalf("expected score 100, got %d", report.UniquenessScore)
	}
	if report.Compared || report.ComparedCount != 0 {
		t.Fatalf("expected no comparison, got compared=%v count=%d", report.Compared, report.ComparedCount)
	}
	if report.Summary == "" {
		t.Fatalf("expected a summary explaining the missing comparison")
	}
}

func TestInternalFindsSharedSentenceAcrossSiblings(t *testing.T) {
	t.Parallel()

	shared := words("frase", 18)
	current := shared + " " + words("atual", 80)

	candidates := make([]Candidate, 0, 5)
	for i := range 5 {
		candidates = append(candidates, Candidate{
			ID:    fmt.Sprintf("post-%d", i),
			Title: fmt.Sprintf("Irmão %d", i),
			Slug:  fmt.Sprintf("irmao-%d", i),
			Text:  shared + " " + words(fmt.Sprintf("irmao%dx", i), 200),
		})
	}

	report := newTestDetector().Internal(InternalInput{
		Text:       current,
		Keyword:    "carrinho de bebê",
		Candidates: candidates,
	})

	if !report.Compared || report.ComparedCount != 5 {
		t.Fatalf("expected 5 compared siblings, got %d", report.ComparedCount)
	}
	if report.CheckedChunks != 9 {
		t.Fatalf("expected 9 checked windows, got %d", report.CheckedChunks)
	}
	if report.SuspectChunks != 1 || report.HighRiskChunks != 1 {
		t.Fatalf("expected one high-risk chunk, got suspect=%d high=%d", report.SuspectChunks, report.HighRiskChunks)
	}
	if report.UniquenessScore != 89 || report.Risk != similarity.RiskLow {
		t.Fatalf("unexpected aggregate %d/%s", report.UniquenessScore, report.Risk)
	}

	match := report.Matches[0]
	if match.SourceID != "post-0" || match.SourceSlug != "irmao-0" {
		t.Fatalf("expected first sibling as source, got %q", match.SourceID)
	}
	if match.Risk != similarity.RiskHigh || match.Score < 0.99 {
		t.Fatalf("expected high risk with full score, got %s %f", match.Risk, match.Score)
	}
	if match.Excerpt != shared {
		t.Fatalf("unexpected excerpt %q", match.Excerpt)
	}
	if match.OverlapTokens != 18 {
		t.Fatalf("expected 18 overlapping tokens, got %d", match.OverlapTokens)
	}
	if len(match.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(match.Suggestions))
	}
	if !strings.Contains(match.Suggestions[1], "carrinho de bebê") {
		t.Fatalf("expected keyword in restructuring prompt, got %q", match.Suggestions[1])
	}
}

func TestDedupeMatchesKeepsHigherScore(t *testing.T) {
	t.Parallel()

	excerpt := words("trecho", 20)
	matches := dedupeMatches([]Match{
		{Score: 0.6, Excerpt: excerpt, SourceID: "a"},
		{Score: 0.9, Excerpt: excerpt, SourceID: "a"},
		{Score: 0.7, Excerpt: excerpt, SourceID: "b"},
	})
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches after dedupe, got %d", len(matches))
	}
	if matches[0].Score != 0.9 {
		t.Fatalf("expected higher score kept, got %f", matches[0].Score)
	}
}

func TestUniquenessScoreIsMonotonic(t *testing.T) {
	t.Parallel()

	previous := 101
	matches := make([]Match, 0)
	for i := range 10 {
		matches = append(matches, Match{Score: 0.55 + float64(i)*0.04, Risk: similarity.RiskMedium})
		score := UniquenessScore(10, matches)
		if score > previous {
			t.Fatalf("score rose from %d to %d after adding a match", previous, score)
		}
		previous = score
	}

	low := UniquenessScore(10, []Match{{Score: 0.55}})
	high := UniquenessScore(10, []Match{{Score: 0.95}})
	if high > low {
		t.Fatalf("higher match score must not raise uniqueness: %d > %d", high, low)
	}
	if got := UniquenessScore(0, nil); got != 100 {
		t.Fatalf("expected 100 without chunks, got %d", got)
	}
	if RiskForScore(45) != similarity.RiskHigh || RiskForScore(70) != similarity.RiskMedium || RiskForScore(71) != similarity.RiskLow {
		t.Fatalf("unexpected risk bands")
	}
}

func sentenceText(sentences, wordsPerSentence int) string {
	var b strings.Builder
	for s := range sentences {
		parts := make([]string, wordsPerSentence)
		for w := range parts {
			parts[w] = fmt.Sprintf("s%dw%d", s, w)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString(". ")
	}
	return b.String()
}

func TestBuildQueriesSpreadsSentences(t *testing.T) {
	t.Parallel()

	queries := BuildQueries(sentenceText(10, 16), 6)
	if len(queries) != 6 {
		t.Fatalf("expected 6 queries, got %d", len(queries))
	}
	if !strings.HasPrefix(queries[0].Excerpt, "s0w0 ") {
		t.Fatalf("expected first sentence first, got %q", queries[0].Excerpt)
	}
	if queries[0].Query != `"`+queries[0].Excerpt+`"` {
		t.Fatalf("expected quoted query, got %q", queries[0].Query)
	}
	for _, q := range queries {
		n := len(strings.Fields(q.Excerpt))
		if n < 8 || n > 16 || len([]rune(q.Excerpt)) > 118 {
			t.Fatalf("excerpt out of bounds: %q", q.Excerpt)
		}
	}
}

func TestBuildQueriesFallsBackToChunks(t *testing.T) {
	t.Parallel()

	queries := BuildQueries(sentenceText(20, 5), 6)
	if len(queries) != 5 {
		t.Fatalf("expected 5 chunk queries, got %d", len(queries))
	}
}

func TestBuildQueriesFillsQuotaWithChunks(t *testing.T) {
	t.Parallel()

	text := sentenceText(1, 16) + strings.ReplaceAll(sentenceText(30, 5), "s", "t")
	queries := BuildQueries(text, 6)
	if len(queries) != 6 {
		t.Fatalf("expected 6 queries, got %d", len(queries))
	}
	if !strings.HasPrefix(queries[0].Excerpt, "s0w0 ") {
		t.Fatalf("expected the long sentence first, got %q", queries[0].Excerpt)
	}
	seen := make(map[string]bool, len(queries))
	for _, q := range queries[1:] {
		if seen[q.Excerpt] || q.Excerpt == queries[0].Excerpt {
			t.Fatalf("duplicate excerpt %q", q.Excerpt)
		}
		seen[q.Excerpt] = true
	}
}

type scriptedSearcher struct {
	responses []search.Response
	failAt    int
	calls     int
}

func (s *scriptedSearcher) Search(_ context.Context, query string) (search.Response, error) {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return search.Response{}, errors.New("quota exceeded")
	}
	if s.calls <= len(s.responses) {
		resp := s.responses[s.calls-1]
		resp.Query = query
		return resp, nil
	}
	return search.Response{Query: query, Items: []search.Item{}}, nil
}

func TestExternalReturnsPartialReportOnError(t *testing.T) {
	t.Parallel()

	text := sentenceText(10, 16)
	first := BuildQueries(text, 6)[0]
	searcher := &scriptedSearcher{
		responses: []search.Response{{Items: []search.Item{
			{Title: "Outro site", Link: "https://outro.com.br/post", Snippet: "sem relação alguma"},
			{Title: "", Link: "https://copia.com.br/post", Snippet: first.Excerpt},
		}}},
		failAt: 2,
	}

	report, err := newTestDetector().External(context.Background(), searcher, ExternalInput{Text: text})
	if err == nil {
		t.Fatalf("expected search error to be returned")
	}
	if !report.Partial {
		t.Fatalf("expected partial report")
	}
	if report.CheckedChunks != 1 || len(report.Matches) != 1 {
		t.Fatalf("expected the first match to survive, got checked=%d matches=%d", report.CheckedChunks, len(report.Matches))
	}
	match := report.Matches[0]
	if match.SourceURL != "https://copia.com.br/post" || match.Risk != similarity.RiskHigh {
		t.Fatalf("unexpected match %+v", match)
	}
	if report.UniquenessScore != 0 || report.Risk != similarity.RiskHigh {
		t.Fatalf("unexpected aggregate %d/%s", report.UniquenessScore, report.Risk)
	}
}

func TestExternalWithoutEvidenceIsUnique(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{}
	report, err := newTestDetector().External(context.Background(), searcher, ExternalInput{
		Text:       sentenceText(10, 16),
		MaxQueries: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.calls != 4 || report.CheckedChunks != 4 {
		t.Fatalf("expected 4 queries, got calls=%d checked=%d", searcher.calls, report.CheckedChunks)
	}
	if report.UniquenessScore != 100 || !report.Compared || report.Partial {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestExternalShortTextSkipsSearch(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{}
	report, err := newTestDetector().External(context.Background(), searcher, ExternalInput{Text: words("curto", 40)})
	if err != nil || searcher.calls != 0 || report.UniquenessScore != 100 {
		t.Fatalf("expected no searches for short text, got calls=%d err=%v", searcher.calls, err)
	}
}
