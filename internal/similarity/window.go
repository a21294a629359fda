package similarity

import (
	"strings"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/textnorm"
)

const (
	// MinWindowWords discards trailing windows too short to carry a phrase.
	MinWindowWords = 8
	// MinDocumentWords is the smallest document worth scoring at all.
	MinDocumentWords = 80
	// MinCandidateWords is the smallest sibling document worth comparing against.
	MinCandidateWords = 50
)

// Window is a fixed-size slice of normalized words.
type Window struct {
	Text   string
	Tokens []string
}

type WindowOptions struct {
	Words      int
	Step       int
	MaxWindows int
}

var (
	// CurrentWindows is dense and short to catch small copied fragments.
	CurrentWindows = WindowOptions{Words: 18, Step: 11, MaxWindows: 140}
	// CandidateWindows is wider and sparser so every comparison has context.
	CandidateWindows = WindowOptions{Words: 22, Step: 12, MaxWindows: 180}
)

// BuildWindows slides a window over the normalized words of text.
func BuildWindows(tok *textnorm.Tokenizer, text string, opts WindowOptions) []Window {
	words := textnorm.Words(text)
	if len(words) < MinWindowWords {
		return nil
	}

	size := max(opts.Words, MinWindowWords)
	step := max(opts.Step, 1)
	maxWindows := opts.MaxWindows
	if maxWindows <= 0 {
		maxWindows = len(words)
	}

	windows := make([]Window, 0, min(maxWindows, len(words)/step+1))
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		if end-start < MinWindowWords {
			break
		}
		chunk := strings.Join(words[start:end], " ")
		windows = append(windows, Window{
			Text:   chunk,
			Tokens: tok.Tokenize(chunk, textnorm.ScoringOptions),
		})
		if end == len(words) || len(windows) >= maxWindows {
			break
		}
	}
	return windows
}
