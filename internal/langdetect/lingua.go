package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/language"
)

// minLetters is the shortest sample worth handing to the detector.
const minLetters = 24

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter code of the detected language or an
// empty string when the sample is too short or ambiguous.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return ""
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// Pack picks the language pack for a post. A stored tag wins; otherwise the
// body is detected, falling back to the configured site language.
func Pack(storedTag, text, fallback string) *language.Pack {
	if pack, ok := language.Lookup(storedTag); ok {
		return pack
	}
	if pack, ok := language.Lookup(DetectISO6391(text)); ok {
		return pack
	}
	return language.LookupOrDefault(fallback)
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		// Spanish is included so that it is not misread as Portuguese.
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Portuguese, lingua.English, lingua.Spanish).
			WithMinimumRelativeDistance(0.1).
			Build()
	})
	return detector
}
