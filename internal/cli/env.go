package cli

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names an env file that takes precedence over --env.
const EnvFileVar = "CONTENTINTEL_ENV_FILE"

// EnvLoader loads .env files for a command.
//
// An explicitly requested file (via --env or CONTENTINTEL_ENV_FILE) overrides
// variables already present in the process. The implicit default only fills
// in what is missing, so deployments that inject the environment directly keep
// their values, and its absence is not an error.
type EnvLoader struct {
	value       *string
	defaultPath string
}

type envCandidate struct {
	path     string
	source   string
	override bool
}

// AddEnvFlag registers an --env flag and returns an EnvLoader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	value := fs.String("env", defaultPath, description)
	return &EnvLoader{
		value:       value,
		defaultPath: defaultPath,
	}
}

// Load applies the first env file that can be read and returns its path. An
// empty path with a nil error means no file was needed.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	log.SetOutput(os.Stderr)

	explicit := false
	for _, candidate := range l.candidates() {
		if candidate.override {
			explicit = true
		}
		err := apply(candidate)
		if err == nil {
			log.Printf("Loaded environment from %s: %s", candidate.source, candidate.path)
			return candidate.path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("load env file %s: %w", candidate.path, err)
		}
	}

	if explicit {
		return "", fmt.Errorf("failed to load env file from %s", l.requested())
	}
	return "", nil
}

func (l *EnvLoader) requested() string {
	requested := ""
	if l.value != nil {
		requested = strings.TrimSpace(*l.value)
	}
	if requested == "" {
		requested = l.defaultPath
	}
	return requested
}

func (l *EnvLoader) candidates() []envCandidate {
	var out []envCandidate
	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		out = append(out, envCandidate{path: custom, source: EnvFileVar, override: true})
	}

	requested := l.requested()
	if requested != l.defaultPath {
		out = append(out, envCandidate{path: requested, source: "--env", override: true})
		if base := filepath.Base(requested); base != requested && base != l.defaultPath {
			out = append(out, envCandidate{path: base, source: "--env basename", override: true})
		}
	}
	return append(out, envCandidate{path: l.defaultPath, source: "default"})
}

func apply(candidate envCandidate) error {
	if candidate.override {
		return godotenv.Overload(candidate.path)
	}
	return godotenv.Load(candidate.path)
}
