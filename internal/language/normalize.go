package language

import "strings"

// DefaultTag is the content language of the publishing site.
const DefaultTag = "pt-br"

// NormalizeTag normalizes a language tag to lowercase and "-" separators.
// Returns an empty string when the value is blank or contains invalid characters.
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	parts := strings.Split(trimmed, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isAlphaLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}

	if len(normalized) == 0 {
		return ""
	}
	return strings.Join(normalized, "-")
}

// NormalizeCode returns the primary language subtag (for example, "pt" from "pt-BR").
func NormalizeCode(raw string) string {
	tag := NormalizeTag(raw)
	if tag == "" {
		return ""
	}
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		return tag[:dash]
	}
	return tag
}

// Lookup resolves a tag or bare code to a pack. Any Portuguese variant maps to
// the Brazilian pack. Unknown or blank tags report false.
func Lookup(raw string) (*Pack, bool) {
	switch NormalizeCode(raw) {
	case "pt":
		return PortugueseBR(), true
	case "en":
		return English(), true
	default:
		return nil, false
	}
}

// LookupOrDefault is Lookup with a fallback to the site language.
func LookupOrDefault(raw string) *Pack {
	if pack, ok := Lookup(raw); ok {
		return pack
	}
	return PortugueseBR()
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
