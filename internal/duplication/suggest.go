package duplication

import (
	"fmt"
	"strings"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reader"
)

const suggestionQuoteChars = 90

// rewriteSuggestions builds three templated prompts for one offending chunk:
// a synonym-substituted version (or a plain shortened quote when nothing could
// be substituted), a restructuring prompt and a differentiation prompt.
func rewriteSuggestions(pack *language.Pack, chunk, keyword, sourceTitle string) []string {
	quote, _ := reader.TruncateText(chunk, suggestionQuoteChars)

	first := fmt.Sprintf("Reescreva com palavras próprias o trecho \"%s\".", quote)
	if substituted, changed := substituteSynonyms(pack, chunk); changed {
		short, _ := reader.TruncateText(substituted, suggestionQuoteChars)
		first = fmt.Sprintf("Troque termos repetidos, por exemplo: \"%s\".", short)
	}

	second := "Reorganize a ideia começando pelo benefício principal e inclua um exemplo de uso real."
	if kw := strings.TrimSpace(keyword); kw != "" {
		second = fmt.Sprintf(
			"Reorganize a ideia começando pelo benefício principal, mantendo \"%s\" de forma natural.", kw,
		)
	}

	third := "Acrescente dados, testes ou experiência própria que diferenciem este trecho."
	if title := strings.TrimSpace(sourceTitle); title != "" {
		third = fmt.Sprintf(
			"Acrescente dados, testes ou experiência própria que diferenciem este trecho de \"%s\".", title,
		)
	}

	return []string{first, second, third}
}

func substituteSynonyms(pack *language.Pack, chunk string) (string, bool) {
	words := strings.Fields(chunk)
	changed := false
	for i, word := range words {
		if replacement, ok := pack.Synonym(word); ok {
			words[i] = replacement
			changed = true
		}
	}
	return strings.Join(words, " "), changed
}
