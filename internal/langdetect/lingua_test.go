package langdetect

import "testing"

func TestDetectISO6391SkipsShortSamples(t *testing.T) {
	t.Parallel()

	if got := DetectISO6391("  oi  "); got != "" {
		t.Fatalf("expected empty code for short sample, got %q", got)
	}
}

func TestPackPrefersStoredTag(t *testing.T) {
	t.Parallel()

	pack := Pack("en-US", "", "pt-BR")
	if pack.Tag() != "en" {
		t.Fatalf("expected stored tag to win, got %q", pack.Tag())
	}
}

func TestPackFallsBackWithoutDetection(t *testing.T) {
	t.Parallel()

	pack := Pack("", "curto", "pt-BR")
	if pack.Tag() != "pt-br" {
		t.Fatalf("expected fallback pack, got %q", pack.Tag())
	}
}

func TestPackDetectsPortuguese(t *testing.T) {
	t.Parallel()

	text := "O carrinho de bebê compacto é ideal para famílias que viajam bastante e precisam de praticidade no dia a dia."
	pack := Pack("", text, "en")
	if pack.Tag() != "pt-br" {
		t.Fatalf("expected portuguese pack, got %q", pack.Tag())
	}
}
