// Package content turns stored post bodies, either HTML markup or
// editor JSON, into one normalized node tree.
package content

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind string

const (
	KindDocument    Kind = "document"
	KindContainer   Kind = "container"
	KindHeading     Kind = "heading"
	KindParagraph   Kind = "paragraph"
	KindText        Kind = "text"
	KindLink        Kind = "link"
	KindMention     Kind = "mention"
	KindCTA         Kind = "cta"
	KindProductCard Kind = "product_card"
	KindButton      Kind = "button"
)

// BearsLink reports whether nodes of this kind carry an outbound href.
func (k Kind) BearsLink() bool {
	switch k {
	case KindLink, KindMention, KindCTA, KindProductCard, KindButton:
		return true
	default:
		return false
	}
}

func (k Kind) isBlock() bool {
	switch k {
	case KindDocument, KindContainer, KindHeading, KindParagraph, KindCTA, KindProductCard:
		return true
	default:
		return false
	}
}

// Node is one element of a post body. Leaf text lives in Text; link-bearing
// nodes may hold their anchor either in Text or in Children.
type Node struct {
	Kind     Kind    `json:"kind"`
	Text     string  `json:"text,omitempty"`
	Href     string  `json:"href,omitempty"`
	Rel      string  `json:"rel,omitempty"`
	Target   string  `json:"target,omitempty"`
	Level    int     `json:"level,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Span locates a link-bearing node inside the flattened document text.
// Offsets count runes.
type Span struct {
	Node  *Node
	Start int
	End   int
}

// Anchor is the visible text of the span.
func (s Span) Anchor(text []rune) string {
	if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
		return ""
	}
	return strings.TrimSpace(string(text[s.Start:s.End]))
}

// Flatten renders root as plain text, one line per block, and records where
// every link-bearing node landed.
func Flatten(root *Node) (string, []Span) {
	f := flattener{}
	f.visit(root)
	text := strings.TrimRight(string(f.buf), " \n")
	total := utf8.RuneCountInString(text)
	for i := range f.spans {
		f.spans[i].Start = min(f.spans[i].Start, total)
		f.spans[i].End = min(f.spans[i].End, total)
	}
	return text, f.spans
}

// PlainText is the flattened text of root.
func PlainText(root *Node) string {
	text, _ := Flatten(root)
	return text
}

// Headings returns heading texts in document order.
func Headings(root *Node) []string {
	out := make([]string, 0)
	Walk(root, func(n *Node) bool {
		if n.Kind != KindHeading {
			return true
		}
		if text := strings.TrimSpace(PlainText(n)); text != "" {
			out = append(out, text)
		}
		return false
	})
	return out
}

// Walk visits nodes depth-first; returning false skips the node's children.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, fn)
	}
}

type flattener struct {
	buf   []rune
	spans []Span
}

func (f *flattener) last() rune {
	if len(f.buf) == 0 {
		return 0
	}
	return f.buf[len(f.buf)-1]
}

func (f *flattener) visit(n *Node) {
	if n == nil {
		return
	}
	block := n.Kind.isBlock()
	if block {
		f.newline()
	}

	start := len(f.buf)
	// Spans stay in document order: a link reserves its slot before its children.
	slot := -1
	if n.Kind.BearsLink() && n.Href != "" {
		slot = len(f.spans)
		f.spans = append(f.spans, Span{Node: n, Start: start})
	}
	if n.Text != "" && (len(n.Children) == 0 || n.Kind == KindText) {
		f.write(n.Text)
	}
	for _, child := range n.Children {
		f.visit(child)
	}
	if slot >= 0 {
		f.spans[slot].End = len(f.buf)
	}

	if block {
		f.newline()
	}
}

// write appends text with runs of whitespace collapsed across node borders.
func (f *flattener) write(text string) {
	for _, r := range text {
		if unicode.IsSpace(r) {
			r = ' '
		}
		if last := f.last(); r == ' ' && (last == ' ' || last == '\n' || last == 0) {
			continue
		}
		f.buf = append(f.buf, r)
	}
}

func (f *flattener) newline() {
	switch f.last() {
	case 0, '\n':
	case ' ':
		// The break replaces the trailing space so offsets already taken stay valid.
		f.buf[len(f.buf)-1] = '\n'
	default:
		f.buf = append(f.buf, '\n')
	}
}
