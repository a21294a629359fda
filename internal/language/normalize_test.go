package language

import "testing"

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	if got := NormalizeTag(" PT_br "); got != "pt-br" {
		t.Fatalf("unexpected normalized tag: %q", got)
	}
	if got := NormalizeTag("pt--BR"); got != "pt-br" {
		t.Fatalf("unexpected collapsed tag: %q", got)
	}
	if got := NormalizeTag("pt_123"); got != "" {
		t.Fatalf("expected invalid tag to normalize to empty string, got %q", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	if got := NormalizeCode(" PT-br "); got != "pt" {
		t.Fatalf("unexpected normalized code: %q", got)
	}
	if got := NormalizeCode(" "); got != "" {
		t.Fatalf("expected empty code for blank input, got %q", got)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	pack, ok := Lookup("pt-PT")
	if !ok || pack.Tag() != "pt-br" {
		t.Fatalf("expected portuguese variants to resolve to pt-br, got ok=%v", ok)
	}
	if _, ok := Lookup("ja"); ok {
		t.Fatalf("did not expect a pack for ja")
	}
	if got := LookupOrDefault("").Tag(); got != DefaultTag {
		t.Fatalf("unexpected default pack tag: %q", got)
	}
}

func TestPortugueseStem(t *testing.T) {
	t.Parallel()

	pack := PortugueseBR()
	cases := map[string]string{
		"kits":          "kit",
		"carrinhos":     "carrinho",
		"opcoes":        "opcao",
		"animais":       "animal",
		"rapidamente":   "rapida",
		"configuracoes": "configur",
		"configuracao":  "configur",
		"gas":           "gas",
	}
	for input, want := range cases {
		if got := pack.Stem(input); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPackStopWordsAndSynonyms(t *testing.T) {
	t.Parallel()

	pack := PortugueseBR()
	if !pack.IsStopWord("para") {
		t.Fatalf("expected para to be a stop word")
	}
	if pack.IsStopWord("carrinho") {
		t.Fatalf("did not expect carrinho to be a stop word")
	}
	if got, ok := pack.Synonym("melhor"); !ok || got != "mais indicado" {
		t.Fatalf("unexpected synonym for melhor: %q ok=%v", got, ok)
	}
}
