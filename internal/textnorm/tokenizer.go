package textnorm

import (
	"sort"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
)

const defaultMinTokenLen = 3

// Options controls Tokenize. A zero MinLen means the default of 3 runes.
type Options struct {
	MinLen          int
	RemoveStopWords bool
	Stem            bool
}

// ScoringOptions is the token shape used for similarity scoring.
var ScoringOptions = Options{MinLen: defaultMinTokenLen, RemoveStopWords: true, Stem: true}

// Tokenizer applies one language pack. It holds no mutable state and is safe
// for concurrent use.
type Tokenizer struct {
	pack *language.Pack
}

// New returns a tokenizer for pack, falling back to the site language.
func New(pack *language.Pack) *Tokenizer {
	if pack == nil {
		pack = language.PortugueseBR()
	}
	return &Tokenizer{pack: pack}
}

func (t *Tokenizer) Pack() *language.Pack {
	return t.pack
}

// Tokenize splits normalized text into tokens filtered and stemmed per opts.
func (t *Tokenizer) Tokenize(text string, opts Options) []string {
	words := Words(text)
	if len(words) == 0 {
		return nil
	}

	minLen := opts.MinLen
	if minLen <= 0 {
		minLen = defaultMinTokenLen
	}

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if runeCount(word) < minLen {
			continue
		}
		if opts.RemoveStopWords && t.pack.IsStopWord(word) {
			continue
		}
		if opts.Stem {
			word = t.pack.Stem(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

type termCount struct {
	term  string
	count int
}

// ExtractFrequentTerms returns the most repeated bigrams (seen at least twice)
// followed by the most repeated unigrams (seen at least three times).
func (t *Tokenizer) ExtractFrequentTerms(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	tokens := t.Tokenize(text, ScoringOptions)
	if len(tokens) == 0 {
		return nil
	}

	unigrams := make(map[string]int, len(tokens))
	bigrams := make(map[string]int, len(tokens))
	for i, token := range tokens {
		unigrams[token]++
		if i > 0 {
			bigrams[tokens[i-1]+" "+token]++
		}
	}

	ranked := append(rankTerms(bigrams, 2), rankTerms(unigrams, 3)...)

	seen := make(map[string]struct{}, len(ranked))
	out := make([]string, 0, min(limit, len(ranked)))
	for _, tc := range ranked {
		key := Normalize(tc.term)
		if key == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tc.term)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func rankTerms(counts map[string]int, minCount int) []termCount {
	ranked := make([]termCount, 0, len(counts))
	for term, count := range counts {
		if count < minCount {
			continue
		}
		ranked = append(ranked, termCount{term: term, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].term < ranked[j].term
	})
	return ranked
}

// TokenSet collects tokens into a set.
func TokenSet(tokens []string) map[string]struct{} {
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
