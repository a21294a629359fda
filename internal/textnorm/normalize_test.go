package textnorm

import (
	"reflect"
	"testing"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
)

func TestNormalizeStripsDiacriticsAndPunctuation(t *testing.T) {
	t.Parallel()

	got := Normalize("  Carrinho de Bebê: a ESCOLHA   certa, é claro! ")
	want := "carrinho de bebe a escolha certa e claro"
	if got != want {
		t.Fatalf("Normalize mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"Ação, reação & opções — São Paulo!",
		"Kit   3-em-1 (120cm) ÇÃÕ ü",
		"tab\tnew\nline\r\nend",
		"日本語 テキスト",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeBlank(t *testing.T) {
	t.Parallel()

	if got := Normalize(" \n\t "); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
	if got := WordCount("   "); got != 0 {
		t.Fatalf("expected zero words, got %d", got)
	}
	if got := Words(""); got != nil {
		t.Fatalf("expected nil words, got %v", got)
	}
}

func TestFirstWords(t *testing.T) {
	t.Parallel()

	if got := FirstWords("Um dois, três quatro", 3); got != "um dois tres" {
		t.Fatalf("unexpected first words: %q", got)
	}
}

func TestTokenizeOptions(t *testing.T) {
	t.Parallel()

	tok := New(language.PortugueseBR())
	text := "Os melhores carrinhos para bebês com opções de uso"

	plain := tok.Tokenize(text, Options{})
	wantPlain := []string{"melhores", "carrinhos", "para", "bebes", "com", "opcoes", "uso"}
	if !reflect.DeepEqual(plain, wantPlain) {
		t.Fatalf("unexpected plain tokens: %v", plain)
	}

	scored := tok.Tokenize(text, ScoringOptions)
	wantScored := []string{"melhore", "carrinho", "bebe", "opcao", "uso"}
	if !reflect.DeepEqual(scored, wantScored) {
		t.Fatalf("unexpected scoring tokens: %v", scored)
	}

	if got := tok.Tokenize("a o de", Options{MinLen: 1, RemoveStopWords: true}); len(got) != 0 {
		t.Fatalf("expected stop words to be removed, got %v", got)
	}
}

func TestTokenizeWithAlternatePack(t *testing.T) {
	t.Parallel()

	pack := language.NewPack("xx", []string{"skip"}, []string{"zz"}, nil, nil)
	tok := New(pack)
	got := tok.Tokenize("skip alphazz beta", ScoringOptions)
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens with alternate pack: %v", got)
	}
}

func TestExtractFrequentTerms(t *testing.T) {
	t.Parallel()

	tok := New(language.PortugueseBR())
	text := "carrinho compacto leve. carrinho compacto urbano. carrinho de passeio. " +
		"berço portatil e carrinho compacto."

	terms := tok.ExtractFrequentTerms(text, 5)
	if len(terms) == 0 {
		t.Fatalf("expected frequent terms")
	}
	if terms[0] != "carrinho compacto" {
		t.Fatalf("expected top bigram first, got %v", terms)
	}
	found := false
	for _, term := range terms {
		if term == "carrinho" {
			found = true
		}
		if term == "leve" {
			t.Fatalf("did not expect single-use unigram in %v", terms)
		}
	}
	if !found {
		t.Fatalf("expected repeated unigram in %v", terms)
	}

	if got := tok.ExtractFrequentTerms("   ", 5); got != nil {
		t.Fatalf("expected nil terms for blank text, got %v", got)
	}
	if got := tok.ExtractFrequentTerms(text, 1); len(got) != 1 {
		t.Fatalf("expected limit to cap terms, got %v", got)
	}
}
