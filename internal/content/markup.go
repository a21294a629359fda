package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"iframe":   {},
	"svg":      {},
	"head":     {},
}

var containerElements = map[string]struct{}{
	"article":    {},
	"aside":      {},
	"blockquote": {},
	"div":        {},
	"figure":     {},
	"figcaption": {},
	"footer":     {},
	"header":     {},
	"main":       {},
	"nav":        {},
	"ol":         {},
	"section":    {},
	"table":      {},
	"tbody":      {},
	"thead":      {},
	"tr":         {},
	"ul":         {},
	"dl":         {},
}

// ParseMarkup parses stored HTML (or plain text) into a document tree.
func ParseMarkup(raw string) (*Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	root := &Node{Kind: KindDocument}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	root.Children = convertContents(body, false)
	return root, nil
}

func convertContents(sel *goquery.Selection, insideLink bool) []*Node {
	out := make([]*Node, 0)
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		out = append(out, convertSelection(s, insideLink)...)
	})
	return out
}

func convertSelection(s *goquery.Selection, insideLink bool) []*Node {
	if len(s.Nodes) == 0 {
		return nil
	}
	node := s.Nodes[0]

	switch node.Type {
	case html.TextNode:
		if strings.TrimSpace(node.Data) == "" {
			if node.Data == "" {
				return nil
			}
			return []*Node{{Kind: KindText, Text: " "}}
		}
		return []*Node{{Kind: KindText, Text: node.Data}}
	case html.ElementNode:
	default:
		return nil
	}

	name := goquery.NodeName(s)
	if _, skip := skippedElements[name]; skip {
		return nil
	}

	if kind, href, ok := linkBearing(s, name); ok && !insideLink {
		rel, _ := s.Attr("rel")
		target, _ := s.Attr("target")
		n := &Node{
			Kind:   kind,
			Href:   strings.TrimSpace(href),
			Rel:    strings.TrimSpace(rel),
			Target: strings.TrimSpace(target),
		}
		n.Children = convertContents(s, true)
		if kind == KindMention && len(n.Children) == 0 {
			n.Text, _ = s.Attr("data-label")
		}
		return []*Node{n}
	}

	switch {
	case len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6':
		level, _ := strconv.Atoi(name[1:])
		return []*Node{{Kind: KindHeading, Level: level, Children: convertContents(s, insideLink)}}
	case name == "p" || name == "li" || name == "dd" || name == "dt" || name == "td" || name == "th":
		return []*Node{{Kind: KindParagraph, Children: convertContents(s, insideLink)}}
	case name == "br":
		return []*Node{{Kind: KindText, Text: " "}}
	}

	if _, ok := containerElements[name]; ok {
		return []*Node{{Kind: KindContainer, Children: convertContents(s, insideLink)}}
	}
	// Inline wrappers such as strong, em and span dissolve into their parent.
	return convertContents(s, insideLink)
}

// linkBearing classifies elements that point somewhere. Product cards, CTAs
// and mentions are marked by the editor with data-type or well-known classes.
func linkBearing(s *goquery.Selection, name string) (Kind, string, bool) {
	dataType := strings.ToLower(strings.TrimSpace(s.AttrOr("data-type", "")))
	class := " " + strings.ToLower(s.AttrOr("class", "")) + " "
	href := strings.TrimSpace(s.AttrOr("href", ""))
	if href == "" {
		href = strings.TrimSpace(s.AttrOr("data-href", ""))
	}

	switch {
	case dataType == "product-card" || strings.Contains(class, " product-card "):
		if href == "" {
			href = strings.TrimSpace(s.Find("a[href]").First().AttrOr("href", ""))
		}
		return KindProductCard, href, href != ""
	case dataType == "cta" || strings.Contains(class, " cta "):
		if href == "" {
			href = strings.TrimSpace(s.Find("a[href]").First().AttrOr("href", ""))
		}
		return KindCTA, href, href != ""
	case dataType == "mention":
		return KindMention, href, href != ""
	case name == "button":
		return KindButton, href, href != ""
	case name == "a":
		if _, ok := s.Attr("href"); !ok {
			return "", "", false
		}
		if strings.Contains(class, " btn ") || strings.Contains(class, " button ") {
			return KindButton, href, true
		}
		return KindLink, href, true
	}
	return "", "", false
}
