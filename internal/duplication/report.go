// Package duplication scores how much of a post repeats sibling posts or text
// already indexed on the open web.
package duplication

import (
	"fmt"
	"math"
	"sort"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
)

const (
	suspectRatioWeight = 70
	highRatioWeight    = 20
	avgScoreWeight     = 10

	highRiskMaxScore   = 45
	mediumRiskMaxScore = 70

	dedupKeyChars = 80
)

// Match pairs one chunk of the analyzed post with its best-scoring source.
type Match struct {
	Score         float64         `json:"score"`
	OverlapTokens int             `json:"overlap_tokens"`
	Risk          similarity.Risk `json:"risk"`
	Excerpt       string          `json:"excerpt"`
	Query         string          `json:"query,omitempty"`
	SourceID      string          `json:"source_id,omitempty"`
	SourceTitle   string          `json:"source_title,omitempty"`
	SourceSlug    string          `json:"source_slug,omitempty"`
	SourceURL     string          `json:"source_url,omitempty"`
	SourceExcerpt string          `json:"source_excerpt,omitempty"`
	Suggestions   []string        `json:"suggestions,omitempty"`
}

// Report is the aggregate result for one analyzed post.
type Report struct {
	UniquenessScore int             `json:"uniqueness_score"`
	Risk            similarity.Risk `json:"risk"`
	CheckedChunks   int             `json:"checked_chunks"`
	SuspectChunks   int             `json:"suspect_chunks"`
	HighRiskChunks  int             `json:"high_risk_chunks"`
	ComparedCount   int             `json:"compared_count"`
	// Compared is false when nothing was available to compare against, which
	// callers must not present as verified uniqueness.
	Compared bool    `json:"compared"`
	Partial  bool    `json:"partial,omitempty"`
	Summary  string  `json:"summary"`
	Matches  []Match `json:"matches"`
}

func perfectReport(summary string) Report {
	return Report{
		UniquenessScore: 100,
		Risk:            similarity.RiskLow,
		Summary:         summary,
		Matches:         []Match{},
	}
}

// UniquenessScore is 100 − (suspectRatio·70 + highRatio·20 + avgSuspectScore·10),
// clamped to [0,100]. Ratios and the score term are taken over the checked
// chunk count, which keeps the result non-increasing in match count and score.
func UniquenessScore(checked int, matches []Match) int {
	if checked <= 0 || len(matches) == 0 {
		return 100
	}

	high := 0
	total := 0.0
	for _, m := range matches {
		total += m.Score
		if m.Risk == similarity.RiskHigh {
			high++
		}
	}
	suspectRatio := math.Min(1, float64(len(matches))/float64(checked))
	highRatio := math.Min(1, float64(high)/float64(checked))
	avg := math.Min(1, total/float64(checked))

	penalty := suspectRatio*suspectRatioWeight + highRatio*highRatioWeight + avg*avgScoreWeight
	score := int(math.Round(100 - penalty))
	return max(0, min(100, score))
}

// RiskForScore maps a uniqueness score to the report-level risk.
func RiskForScore(score int) similarity.Risk {
	switch {
	case score <= highRiskMaxScore:
		return similarity.RiskHigh
	case score <= mediumRiskMaxScore:
		return similarity.RiskMedium
	default:
		return similarity.RiskLow
	}
}

// finalize deduplicates, ranks, aggregates and caps matches into r.
func finalize(r *Report, matches []Match, limit int) {
	matches = dedupeMatches(matches)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	r.SuspectChunks = len(matches)
	r.HighRiskChunks = 0
	for _, m := range matches {
		if m.Risk == similarity.RiskHigh {
			r.HighRiskChunks++
		}
	}
	r.UniquenessScore = UniquenessScore(r.CheckedChunks, matches)
	r.Risk = RiskForScore(r.UniquenessScore)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []Match{}
	}
	r.Matches = matches
}

func dedupeMatches(matches []Match) []Match {
	seen := make(map[string]int, len(matches))
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		key := dedupKey(m)
		if idx, exists := seen[key]; exists {
			if m.Score > out[idx].Score {
				out[idx] = m
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, m)
	}
	return out
}

func dedupKey(m Match) string {
	prefix := m.Excerpt
	if runes := []rune(prefix); len(runes) > dedupKeyChars {
		prefix = string(runes[:dedupKeyChars])
	}
	source := m.SourceID
	if source == "" {
		source = m.SourceURL
	}
	return prefix + "\x00" + source
}

func clampLimit(value, lower, upper, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return max(lower, min(upper, value))
}

func summarize(r Report, sourceNoun string) string {
	if r.SuspectChunks == 0 {
		return fmt.Sprintf("Nenhum trecho semelhante encontrado em %d %s.", r.ComparedCount, sourceNoun)
	}
	return fmt.Sprintf(
		"%d de %d trechos com semelhança relevante em %d %s; %d de alto risco. Unicidade estimada: %d/100.",
		r.SuspectChunks, r.CheckedChunks, r.ComparedCount, sourceNoun, r.HighRiskChunks, r.UniquenessScore,
	)
}
