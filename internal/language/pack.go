package language

// Ending rewrites a trailing stem fragment left behind by suffix stripping.
type Ending struct {
	From string
	To   string
}

// Synonym is a word-level substitution used to build rewrite suggestions.
type Synonym struct {
	Word        string
	Replacement string
}

// Pack is the immutable word list bundle for one content language.
// All entries are stored in normalized form (lowercase, no diacritics).
type Pack struct {
	tag        string
	stopWords  map[string]struct{}
	suffixes   []string
	endings    []Ending
	synonyms   map[string]string
	minStemLen int
}

// NewPack builds a language pack. Suffixes are tried in the given order.
func NewPack(tag string, stopWords, suffixes []string, endings []Ending, synonyms []Synonym) *Pack {
	p := &Pack{
		tag:        NormalizeTag(tag),
		stopWords:  make(map[string]struct{}, len(stopWords)),
		suffixes:   append([]string(nil), suffixes...),
		endings:    append([]Ending(nil), endings...),
		synonyms:   make(map[string]string, len(synonyms)),
		minStemLen: 3,
	}
	for _, word := range stopWords {
		p.stopWords[word] = struct{}{}
	}
	for _, syn := range synonyms {
		p.synonyms[syn.Word] = syn.Replacement
	}
	return p
}

func (p *Pack) Tag() string {
	if p == nil {
		return ""
	}
	return p.tag
}

func (p *Pack) IsStopWord(token string) bool {
	if p == nil {
		return false
	}
	_, ok := p.stopWords[token]
	return ok
}

// Stem strips the first matching suffix that leaves at least three runes,
// then normalizes irregular plural and nominalization endings.
func (p *Pack) Stem(token string) string {
	if p == nil || token == "" {
		return token
	}

	stem := token
	for _, suffix := range p.suffixes {
		if len(stem) <= len(suffix) {
			continue
		}
		if stem[len(stem)-len(suffix):] != suffix {
			continue
		}
		candidate := stem[:len(stem)-len(suffix)]
		if runeLen(candidate) < p.minStemLen {
			continue
		}
		stem = candidate
		break
	}

	for _, ending := range p.endings {
		if len(stem) <= len(ending.From) {
			continue
		}
		if stem[len(stem)-len(ending.From):] == ending.From {
			stem = stem[:len(stem)-len(ending.From)] + ending.To
			break
		}
	}
	return stem
}

// Synonym returns the replacement registered for a normalized word.
func (p *Pack) Synonym(word string) (string, bool) {
	if p == nil {
		return "", false
	}
	replacement, ok := p.synonyms[word]
	return replacement, ok
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
