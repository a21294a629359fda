package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newLoader(t *testing.T, defaultPath string, args ...string) *EnvLoader {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, defaultPath, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return loader
}

func TestLoadMissingDefaultIsNotAnError(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	missing := filepath.Join(t.TempDir(), ".env")

	path, err := newLoader(t, missing).Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if path != "" {
		t.Fatalf("expected no file to be loaded, got %q", path)
	}
}

func TestLoadDefaultKeepsProcessEnvironment(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	t.Setenv("CI_TEST_SITE_URL", "https://from-process.example")
	dir := t.TempDir()
	defaultPath := writeEnvFile(t, dir, ".env", "CI_TEST_SITE_URL=https://from-file.example\nCI_TEST_ONLY_FILE=yes\n")
	t.Setenv("CI_TEST_ONLY_FILE", "")
	os.Unsetenv("CI_TEST_ONLY_FILE")

	if _, err := newLoader(t, defaultPath).Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("CI_TEST_SITE_URL"); got != "https://from-process.example" {
		t.Fatalf("default env file must not override process values, got %q", got)
	}
	if got := os.Getenv("CI_TEST_ONLY_FILE"); got != "yes" {
		t.Fatalf("expected missing value to be filled from file, got %q", got)
	}
}

func TestLoadExplicitFileOverrides(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	t.Setenv("CI_TEST_LOG_LEVEL", "info")
	dir := t.TempDir()
	explicit := writeEnvFile(t, dir, "staging.env", "CI_TEST_LOG_LEVEL=debug\n")

	path, err := newLoader(t, filepath.Join(dir, ".env"), "--env", explicit).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != explicit {
		t.Fatalf("expected %q, got %q", explicit, path)
	}
	if got := os.Getenv("CI_TEST_LOG_LEVEL"); got != "debug" {
		t.Fatalf("explicit env file must override, got %q", got)
	}
}

func TestLoadEnvFileVarWins(t *testing.T) {
	dir := t.TempDir()
	fromVar := writeEnvFile(t, dir, "override.env", "CI_TEST_SOURCE=var\n")
	requested := writeEnvFile(t, dir, "requested.env", "CI_TEST_SOURCE=flag\n")
	t.Setenv(EnvFileVar, fromVar)
	t.Setenv("CI_TEST_SOURCE", "")

	path, err := newLoader(t, filepath.Join(dir, ".env"), "--env", requested).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != fromVar {
		t.Fatalf("expected %q, got %q", fromVar, path)
	}
	if got := os.Getenv("CI_TEST_SOURCE"); got != "var" {
		t.Fatalf("expected value from %s, got %q", EnvFileVar, got)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	dir := t.TempDir()

	_, err := newLoader(t, filepath.Join(dir, ".env"), "--env", filepath.Join(dir, "nope.env")).Load()
	if err == nil {
		t.Fatalf("expected error for missing explicit env file")
	}
}
