package similarity

import (
	"strings"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Rank orders risks so that high sorts first.
func (r Risk) Rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Profile holds the blend weights and thresholds for one comparison context.
// The values are editorial calibration and are kept as data, not derived.
type Profile struct {
	JaccardWeight   float64
	CoverageWeight  float64
	ProbeWords      int
	ProbeBonus      float64
	EmitThreshold   float64
	MediumThreshold float64
	HighThreshold   float64
}

var (
	// InternalProfile compares windows of sibling documents.
	InternalProfile = Profile{
		JaccardWeight:   0.55,
		CoverageWeight:  0.45,
		ProbeWords:      6,
		ProbeBonus:      0.10,
		EmitThreshold:   0.52,
		MediumThreshold: 0.60,
		HighThreshold:   0.68,
	}
	// ExternalProfile compares query excerpts with search snippets, which are
	// short and noisy, so the high-risk bar sits higher.
	ExternalProfile = Profile{
		JaccardWeight:   0.62,
		CoverageWeight:  0.38,
		ProbeWords:      5,
		ProbeBonus:      0.08,
		EmitThreshold:   0.50,
		MediumThreshold: 0.60,
		HighThreshold:   0.72,
	}
)

// Jaccard is |A∩B| / |A∪B| over the token sets.
func Jaccard(a, b []string) float64 {
	setA := textnorm.TokenSet(a)
	setB := textnorm.TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := intersectionSize(setA, setB)
	union := len(setA) + len(setB) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Coverage is the fraction of a's unique tokens that also appear in b.
func Coverage(a, b []string) float64 {
	setA := textnorm.TokenSet(a)
	setB := textnorm.TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	return float64(intersectionSize(setA, setB)) / float64(len(setA))
}

// Overlap counts the unique tokens shared by a and b.
func Overlap(a, b []string) int {
	return intersectionSize(textnorm.TokenSet(a), textnorm.TokenSet(b))
}

// Score blends Jaccard and coverage of a against b and adds the phrase-probe
// bonus when the opening words of the shorter text occur verbatim in the
// longer one. aText and bText must already be normalized.
func (p Profile) Score(a, b []string, aText, bText string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	score := p.JaccardWeight*Jaccard(a, b) + p.CoverageWeight*Coverage(a, b)
	if p.ProbeBonus > 0 && phraseProbe(aText, bText, p.ProbeWords) {
		score += p.ProbeBonus
	}
	return clamp01(score)
}

// Classify maps a score to a risk. The second result is false when the score
// is below the emit threshold and must not be reported.
func (p Profile) Classify(score float64) (Risk, bool) {
	switch {
	case score < p.EmitThreshold:
		return "", false
	case score >= p.HighThreshold:
		return RiskHigh, true
	case score >= p.MediumThreshold:
		return RiskMedium, true
	default:
		return RiskLow, true
	}
}

func phraseProbe(aText, bText string, probeWords int) bool {
	if probeWords <= 0 {
		return false
	}
	shorter, longer := aText, bText
	if len(strings.Fields(shorter)) > len(strings.Fields(longer)) {
		shorter, longer = longer, shorter
	}
	words := strings.Fields(shorter)
	if len(words) < probeWords {
		return false
	}
	probe := strings.Join(words[:probeWords], " ")
	return strings.Contains(" "+longer+" ", " "+probe+" ")
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for token := range a {
		if _, ok := b[token]; ok {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
