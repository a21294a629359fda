package duplication

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

const (
	defaultMaxQueries = 6
	minMaxQueries     = 2
	maxMaxQueries     = 12

	minSentenceChars   = 80
	maxExcerptChars    = 118
	maxExcerptWords    = 16
	minExcerptWords    = 8
	fallbackChunkWords = 22
	fallbackChunkStep  = 20
)

type ExternalInput struct {
	Text string
	// MaxQueries caps search calls; zero means 6, clamped to [2,12].
	MaxQueries int
	MaxMatches int
}

// External searches quoted excerpts of input.Text and scores the returned
// snippets. Queries run one at a time; when a search fails the report built
// so far is returned with Partial set, together with the error.
func (d *Detector) External(ctx context.Context, searcher search.Searcher, input ExternalInput) (Report, error) {
	if textnorm.WordCount(input.Text) < similarity.MinDocumentWords {
		return perfectReport("Texto curto demais para verificar unicidade externa."), nil
	}
	if searcher == nil {
		return Report{}, search.ErrNotConfigured
	}

	queries := BuildQueries(input.Text, clampLimit(input.MaxQueries, minMaxQueries, maxMaxQueries, defaultMaxQueries))
	if len(queries) == 0 {
		return perfectReport("Nenhum trecho adequado para busca externa."), nil
	}

	profile := similarity.ExternalProfile
	limit := clampLimit(input.MaxMatches, minMaxMatches, maxMaxMatches, defaultMaxMatches)
	matches := make([]Match, 0)
	report := Report{}

	var searchErr error
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			searchErr = err
			break
		}
		resp, err := searcher.Search(ctx, q.Query)
		if err != nil {
			searchErr = fmt.Errorf("search %q: %w", q.Query, err)
			break
		}
		report.CheckedChunks++
		report.ComparedCount += len(resp.Items)

		excerptText := textnorm.Normalize(q.Excerpt)
		excerptTokens := d.tokenizer.Tokenize(excerptText, textnorm.ScoringOptions)

		var (
			best  Match
			found bool
		)
		for _, item := range resp.Items {
			resultText := textnorm.Normalize(item.Title + " " + item.Snippet)
			resultTokens := d.tokenizer.Tokenize(resultText, textnorm.ScoringOptions)
			score := profile.Score(excerptTokens, resultTokens, excerptText, resultText)
			if found && score <= best.Score {
				continue
			}
			best = Match{
				Score:         score,
				OverlapTokens: similarity.Overlap(excerptTokens, resultTokens),
				Excerpt:       q.Excerpt,
				Query:         q.Query,
				SourceTitle:   item.Title,
				SourceURL:     item.Link,
				SourceExcerpt: item.Snippet,
			}
			found = true
		}
		if !found {
			continue
		}
		risk, emit := profile.Classify(best.Score)
		if !emit {
			continue
		}
		best.Risk = risk
		matches = append(matches, best)
	}

	report.Compared = report.CheckedChunks > 0
	report.Partial = searchErr != nil
	finalize(&report, matches, limit)
	report.Summary = summarize(report, "resultados de busca")
	if report.Partial {
		report.Summary += fmt.Sprintf(" Verificação parcial: %d de %d buscas concluídas.", report.CheckedChunks, len(queries))
	}

	event := d.logger.Debug()
	if searchErr != nil {
		event = d.logger.Warn().Err(searchErr)
	}
	event.
		Int("queries", len(queries)).
		Int("checked", report.CheckedChunks).
		Int("suspect_chunks", report.SuspectChunks).
		Int("uniqueness_score", report.UniquenessScore).
		Msg("external uniqueness inspected")

	return report, searchErr
}

// Query is one quoted search derived from the analyzed text.
type Query struct {
	Excerpt string
	Query   string
}

// BuildQueries picks up to limit distinctive excerpts from text. Long
// sentences come first; when fewer than limit qualify, fixed word chunks not
// already covered fill the rest. Each source is spread evenly across the
// document.
func BuildQueries(text string, limit int) []Query {
	if limit <= 0 {
		return nil
	}

	sentences := dedupeExcerpts(sentenceExcerpts(text))
	candidates := spread(sentences, limit)
	if missing := limit - len(candidates); missing > 0 {
		combined := dedupeExcerpts(append(append([]string{}, sentences...), chunkExcerpts(text)...))
		candidates = append(candidates, spread(combined[len(sentences):], missing)...)
	}

	out := make([]Query, 0, len(candidates))
	for _, excerpt := range candidates {
		out = append(out, Query{Excerpt: excerpt, Query: `"` + excerpt + `"`})
	}
	return out
}

func sentenceExcerpts(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		clean := strings.Join(strings.Fields(sentence), " ")
		if utf8.RuneCountInString(clean) < minSentenceChars {
			continue
		}
		if excerpt, ok := trimExcerpt(strings.Fields(clean)); ok {
			out = append(out, excerpt)
		}
	}
	return out
}

func chunkExcerpts(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words)/fallbackChunkStep+1)
	for start := 0; start < len(words); start += fallbackChunkStep {
		end := min(start+fallbackChunkWords, len(words))
		if excerpt, ok := trimExcerpt(words[start:end]); ok {
			out = append(out, excerpt)
		}
		if end == len(words) {
			break
		}
	}
	return out
}

// trimExcerpt keeps whole words up to maxExcerptWords and maxExcerptChars and
// strips quote characters that would break the exact-phrase query.
func trimExcerpt(words []string) (string, bool) {
	kept := make([]string, 0, maxExcerptWords)
	length := 0
	for _, word := range words {
		word = strings.Trim(word, "\"“”«»")
		if word == "" {
			continue
		}
		add := utf8.RuneCountInString(word)
		if len(kept) > 0 {
			add++
		}
		if len(kept) == maxExcerptWords || length+add > maxExcerptChars {
			break
		}
		kept = append(kept, word)
		length += add
	}
	if len(kept) < minExcerptWords {
		return "", false
	}
	return strings.Join(kept, " "), true
}

func dedupeExcerpts(excerpts []string) []string {
	seen := make(map[string]struct{}, len(excerpts))
	out := make([]string, 0, len(excerpts))
	for _, excerpt := range excerpts {
		key := textnorm.Normalize(excerpt)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, excerpt)
	}
	return out
}

func spread(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	out := make([]string, 0, limit)
	for i := range limit {
		out = append(out, items[i*len(items)/limit])
	}
	return out
}
