package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/analysis"
)

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		def     string
		want    string
		wantErr bool
	}{
		{raw: "", def: "table", want: "table"},
		{raw: " JSON ", def: "table", want: "json"},
		{raw: "table", def: "json", want: "table"},
		{raw: "yaml", def: "table", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseOutputFormat(tc.raw, tc.def)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseOutputFormat(%q) expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseOutputFormat(%q) error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parseOutputFormat(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  carrinho \n  de   bebê ", 0); got != "carrinho de bebê" {
		t.Fatalf("unexpected collapse: %q", got)
	}
	if got := truncateForTable("carrinho de bebê", 16); got != "carrinho de bebê" {
		t.Fatalf("expected untouched value, got %q", got)
	}
	if got := truncateForTable("carrinho de bebê compacto", 12); got != "carrinho ..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateForTable("ação", 2); got != "aç" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	if code := Run([]string{"publish"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if code := Run(nil); code != 2 {
		t.Fatalf("expected exit code 2 without args, got %d", code)
	}
}

func TestCommandsValidateFlagsBeforeConnecting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{name: "duplication without post", args: []string{"duplication"}},
		{name: "uniqueness without target", args: []string{"uniqueness"}},
		{name: "uniqueness with both targets", args: []string{"uniqueness", "--post", "a", "--url", "https://example.com"}},
		{name: "links without post", args: []string{"links", "--list"}},
		{name: "cannibalization without silo", args: []string{"cannibalization", "--serp"}},
		{name: "bad format", args: []string{"duplication", "--post", "a", "--format", "csv"}},
		{name: "bad schedule", args: []string{"sweep", "--schedule", "every day"}},
		{name: "bad port", args: []string{"serve", "--port", "0"}},
		{name: "unknown flag", args: []string{"health", "--verbose"}},
	}

	for _, tc := range cases {
		if code := Run(tc.args); code != 2 {
			t.Fatalf("%s: expected exit code 2, got %d", tc.name, code)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	if got := exitCodeFor(fmt.Errorf("load: %w", analysis.ErrPostNotFound)); got != 3 {
		t.Fatalf("expected 3 for missing post, got %d", got)
	}
	if got := exitCodeFor(analysis.ErrSiloNotFound); got != 3 {
		t.Fatalf("expected 3 for missing silo, got %d", got)
	}
	if got := exitCodeFor(errors.New("boom")); got != 1 {
		t.Fatalf("expected 1 for generic failure, got %d", got)
	}
}
