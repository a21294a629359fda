// Package links extracts and classifies the links of a post body.
package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/content"
)

type Type string

const (
	TypeInternal  Type = "internal"
	TypeExternal  Type = "external"
	TypeAffiliate Type = "affiliate"
)

type Position string

const (
	PositionStart Position = "start"
	PositionMid   Position = "mid"
	PositionEnd   Position = "end"
)

const contextRadius = 40

// DefaultAffiliateHints are marketplace hostname fragments that mark a link
// as affiliate.
var DefaultAffiliateHints = []string{"amazon.", "amzn.to", "amzn.com", "amzn.eu"}

var skippedPrefixes = []string{"#", "mailto:", "tel:", "javascript:"}

type Rel struct {
	NoFollow  bool `json:"nofollow"`
	Sponsored bool `json:"sponsored"`
	UGC       bool `json:"ugc"`
}

type Options struct {
	SiteURL        string
	SiloSlug       string
	AffiliateHints []string
}

// ExtractedLink is one occurrence of a link in a post body.
type ExtractedLink struct {
	Href           string       `json:"href"`
	AnchorText     string       `json:"anchor_text"`
	IsInternal     bool         `json:"is_internal"`
	IsSiloInternal bool         `json:"is_silo_internal"`
	IsAmazon       bool         `json:"is_amazon"`
	Rel            Rel          `json:"rel"`
	TargetBlank    bool         `json:"target_blank"`
	Position       Position     `json:"position"`
	Offset         int          `json:"offset"`
	Context        string       `json:"context"`
	Type           Type         `json:"link_type"`
	NodeKind       content.Kind `json:"node_kind"`
	// Path is the site path of an internal link, used to resolve the target post.
	Path string `json:"path,omitempty"`
}

// ExtractContent parses raw markup or editor JSON and extracts its links.
func ExtractContent(raw string, opts Options) ([]ExtractedLink, error) {
	root, err := content.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	return Extract(root, opts), nil
}

// Extract walks root in document order and classifies every link-bearing node.
func Extract(root *content.Node, opts Options) []ExtractedLink {
	text, spans := content.Flatten(root)
	runes := []rune(text)
	total := len(runes)

	site := parseSite(opts.SiteURL)
	hints := opts.AffiliateHints
	if len(hints) == 0 {
		hints = DefaultAffiliateHints
	}
	silo := strings.Trim(strings.ToLower(strings.TrimSpace(opts.SiloSlug)), "/")

	out := make([]ExtractedLink, 0, len(spans))
	for _, span := range spans {
		href := strings.TrimSpace(span.Node.Href)
		if skipHref(href) {
			continue
		}

		link := ExtractedLink{
			Href:        href,
			AnchorText:  span.Anchor(runes),
			TargetBlank: strings.EqualFold(strings.TrimSpace(span.Node.Target), "_blank"),
			Offset:      span.Start,
			Position:    positionFor(span.Start, total),
			Context:     contextAround(runes, span.Start, span.End),
			NodeKind:    span.Node.Kind,
			Rel:         parseRel(span.Node.Rel),
		}
		classify(&link, site, silo, hints)
		out = append(out, link)
	}
	return out
}

func skipHref(href string) bool {
	if href == "" {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func parseSite(raw string) *url.URL {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return nil
	}
	return parsed
}

func classify(link *ExtractedLink, site *url.URL, silo string, hints []string) {
	parsed, err := url.Parse(link.Href)
	if err != nil {
		link.Type = TypeExternal
		return
	}

	host := bareHost(parsed.Hostname())
	switch {
	case host == "" && parsed.Scheme == "":
		link.IsInternal = true
	case site != nil && host == bareHost(site.Hostname()):
		link.IsInternal = true
	}

	if !link.IsInternal {
		for _, hint := range hints {
			if hint != "" && strings.Contains(host, strings.ToLower(hint)) {
				link.IsAmazon = true
				break
			}
		}
	}

	switch {
	case link.IsAmazon:
		link.Type = TypeAffiliate
		link.Rel.Sponsored = true
	case link.IsInternal:
		link.Type = TypeInternal
		link.Rel = Rel{}
		link.Path = sitePath(parsed, site)
		link.IsSiloInternal = silo != "" && inSilo(link.Path, silo)
	default:
		link.Type = TypeExternal
	}
}

func bareHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}

func sitePath(parsed *url.URL, site *url.URL) string {
	resolved := parsed
	if site != nil {
		resolved = site.ResolveReference(parsed)
	}
	path := resolved.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func inSilo(path, silo string) bool {
	lower := strings.ToLower(path)
	prefix := "/" + silo
	return lower == prefix || strings.HasPrefix(lower, prefix+"/")
}

func parseRel(raw string) Rel {
	var rel Rel
	for _, token := range strings.Fields(strings.ToLower(raw)) {
		switch token {
		case "nofollow":
			rel.NoFollow = true
		case "sponsored":
			rel.Sponsored = true
		case "ugc":
			rel.UGC = true
		}
	}
	return rel
}

func positionFor(offset, total int) Position {
	if total <= 0 {
		return PositionStart
	}
	ratio := float64(offset) / float64(total)
	switch {
	case ratio < 0.33:
		return PositionStart
	case ratio < 0.66:
		return PositionMid
	default:
		return PositionEnd
	}
}

func contextAround(runes []rune, start, end int) string {
	from := max(0, start-contextRadius)
	to := min(len(runes), end+contextRadius)
	if from >= to {
		return ""
	}
	return strings.Join(strings.Fields(string(runes[from:to])), " ")
}
