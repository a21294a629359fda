package duplication

import (
	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

const (
	defaultMaxMatches = 10
	minMaxMatches     = 3
	maxMaxMatches     = 20
)

// Candidate is one sibling document compared against the analyzed post.
type Candidate struct {
	ID    string
	Title string
	Slug  string
	Text  string
}

type InternalInput struct {
	Text       string
	Keyword    string
	Candidates []Candidate
	// MaxMatches caps the returned matches; zero means 10, clamped to [3,20].
	MaxMatches int
}

// Detector compares post text against siblings and the open web.
type Detector struct {
	tokenizer *textnorm.Tokenizer
	logger    zerolog.Logger
}

func NewDetector(tokenizer *textnorm.Tokenizer, logger zerolog.Logger) *Detector {
	if tokenizer == nil {
		tokenizer = textnorm.New(nil)
	}
	return &Detector{
		tokenizer: tokenizer,
		logger:    logger.With().Str("component", "duplication").Logger(),
	}
}

type candidateWindows struct {
	candidate Candidate
	windows   []similarity.Window
}

// Internal finds the windows of input.Text that repeat sibling documents.
func (d *Detector) Internal(input InternalInput) Report {
	if textnorm.WordCount(input.Text) < similarity.MinDocumentWords {
		return perfectReport("Texto curto demais para verificar duplicação interna.")
	}

	prepared := make([]candidateWindows, 0, len(input.Candidates))
	for _, candidate := range input.Candidates {
		if textnorm.WordCount(candidate.Text) < similarity.MinCandidateWords {
			continue
		}
		windows := similarity.BuildWindows(d.tokenizer, candidate.Text, similarity.CandidateWindows)
		if len(windows) == 0 {
			continue
		}
		prepared = append(prepared, candidateWindows{candidate: candidate, windows: windows})
	}
	if len(prepared) == 0 {
		return perfectReport("Nenhum outro artigo do silo tem texto suficiente para comparação.")
	}

	current := similarity.BuildWindows(d.tokenizer, input.Text, similarity.CurrentWindows)
	report := Report{
		CheckedChunks: len(current),
		ComparedCount: len(prepared),
		Compared:      true,
	}

	profile := similarity.InternalProfile
	matches := make([]Match, 0)
	for _, window := range current {
		var (
			best       Match
			bestWindow similarity.Window
			found      bool
		)
		for _, cw := range prepared {
			for _, other := range cw.windows {
				score := profile.Score(window.Tokens, other.Tokens, window.Text, other.Text)
				if !found || score > best.Score {
					best = Match{
						Score:       score,
						SourceID:    cw.candidate.ID,
						SourceTitle: cw.candidate.Title,
						SourceSlug:  cw.candidate.Slug,
					}
					bestWindow = other
					found = true
				}
			}
		}
		if !found {
			continue
		}
		risk, emit := profile.Classify(best.Score)
		if !emit {
			continue
		}
		best.Risk = risk
		best.Excerpt = window.Text
		best.SourceExcerpt = bestWindow.Text
		best.OverlapTokens = similarity.Overlap(window.Tokens, bestWindow.Tokens)
		best.Suggestions = rewriteSuggestions(d.tokenizer.Pack(), window.Text, input.Keyword, best.SourceTitle)
		matches = append(matches, best)
	}

	finalize(&report, matches, clampLimit(input.MaxMatches, minMaxMatches, maxMaxMatches, defaultMaxMatches))
	report.Summary = summarize(report, "artigos do silo")

	d.logger.Debug().
		Int("checked_chunks", report.CheckedChunks).
		Int("suspect_chunks", report.SuspectChunks).
		Int("compared", report.ComparedCount).
		Int("uniqueness_score", report.UniquenessScore).
		Msg("internal duplication analyzed")

	return report
}
