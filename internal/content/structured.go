package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed document.schema.json
var documentSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

type editorNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text"`
	Attrs   map[string]any `json:"attrs"`
	Marks   []editorMark   `json:"marks"`
	Content []editorNode   `json:"content"`
}

type editorMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs"`
}

// ParseStructured validates editor JSON and converts it into a document tree.
func ParseStructured(raw []byte) (*Node, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("document validation failed: %w", err)
	}

	var doc editorNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	root := convertEditorNode(doc)
	if root.Kind != KindDocument {
		root = &Node{Kind: KindDocument, Children: []*Node{root}}
	}
	return root, nil
}

// Parse sniffs raw and dispatches to ParseStructured for JSON objects and to
// ParseMarkup for everything else.
func Parse(raw string) (*Node, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &Node{Kind: KindDocument}, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		return ParseStructured([]byte(trimmed))
	}
	return ParseMarkup(trimmed)
}

func convertEditorNode(n editorNode) *Node {
	switch n.Type {
	case "doc":
		return &Node{Kind: KindDocument, Children: convertEditorContent(n.Content)}
	case "paragraph":
		return &Node{Kind: KindParagraph, Children: convertEditorContent(n.Content)}
	case "heading":
		level := intAttr(n.Attrs, "level")
		if level < 1 || level > 6 {
			level = 2
		}
		return &Node{Kind: KindHeading, Level: level, Children: convertEditorContent(n.Content)}
	case "text":
		return &Node{Kind: KindText, Text: n.Text}
	case "hardBreak":
		return &Node{Kind: KindText, Text: " "}
	case "mention":
		return &Node{
			Kind: KindMention,
			Href: firstStringAttr(n.Attrs, "href", "url"),
			Text: firstStringAttr(n.Attrs, "label", "title", "id"),
		}
	case "cta", "ctaButton", "callToAction":
		return linkBlock(KindCTA, n)
	case "productCard", "product":
		return linkBlock(KindProductCard, n)
	case "button":
		return linkBlock(KindButton, n)
	default:
		return &Node{Kind: KindContainer, Children: convertEditorContent(n.Content)}
	}
}

func linkBlock(kind Kind, n editorNode) *Node {
	out := &Node{
		Kind:     kind,
		Href:     firstStringAttr(n.Attrs, "href", "url", "link"),
		Rel:      stringAttr(n.Attrs, "rel"),
		Target:   stringAttr(n.Attrs, "target"),
		Children: convertEditorContent(n.Content),
	}
	if len(out.Children) == 0 {
		out.Text = firstStringAttr(n.Attrs, "text", "label", "title")
	}
	return out
}

// convertEditorContent merges adjacent text runs that share the same link
// mark into a single link node, so a link split by bold or italic marks is
// extracted once.
func convertEditorContent(nodes []editorNode) []*Node {
	out := make([]*Node, 0, len(nodes))
	var current *Node
	for _, n := range nodes {
		if n.Type != "text" {
			current = nil
			out = append(out, convertEditorNode(n))
			continue
		}

		mark, linked := linkMark(n.Marks)
		if !linked {
			current = nil
			out = append(out, &Node{Kind: KindText, Text: n.Text})
			continue
		}

		if current != nil && current.Href == mark.Href && current.Rel == mark.Rel && current.Target == mark.Target {
			current.Children = append(current.Children, &Node{Kind: KindText, Text: n.Text})
			continue
		}
		current = &Node{
			Kind:     KindLink,
			Href:     mark.Href,
			Rel:      mark.Rel,
			Target:   mark.Target,
			Children: []*Node{{Kind: KindText, Text: n.Text}},
		}
		out = append(out, current)
	}
	return out
}

func linkMark(marks []editorMark) (Node, bool) {
	for _, m := range marks {
		if m.Type != "link" {
			continue
		}
		return Node{
			Href:   strings.TrimSpace(firstStringAttr(m.Attrs, "href", "url")),
			Rel:    stringAttr(m.Attrs, "rel"),
			Target: stringAttr(m.Attrs, "target"),
		}, true
	}
	return Node{}, false
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	value, ok := attrs[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstStringAttr(attrs map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringAttr(attrs, key); value != "" {
			return value
		}
	}
	return ""
}

func intAttr(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case string:
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return 0
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("document.schema.json", strings.NewReader(documentSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("document.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("document contains trailing content")
	}

	return value, nil
}
