package jira

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Node is one element of an Atlassian Document Format tree. API v3 sends
// work-log comments as a "doc" node.
type Node struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Doc builds a document with one paragraph per non-blank argument.
func Doc(paragraphs ...string) *Node {
	doc := &Node{Type: "doc", Version: 1, Content: make([]Node, 0, len(paragraphs))}
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		doc.Content = append(doc.Content, Node{
			Type:    "paragraph",
			Content: []Node{{Type: "text", Text: paragraph}},
		})
	}
	return doc
}

// PlainText flattens the tree into text, one line per block node.
func (n *Node) PlainText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeText(&b)
	return strings.TrimSpace(b.String())
}

func (n *Node) writeText(b *strings.Builder) {
	switch n.Type {
	case "text":
		b.WriteString(n.Text)
		return
	case "hardBreak":
		b.WriteString("\n")
		return
	case "mention", "emoji":
		if text, ok := n.Attrs["text"].(string); ok {
			b.WriteString(text)
		}
		return
	}
	for i := range n.Content {
		n.Content[i].writeText(b)
	}
	if n.Type == "paragraph" || n.Type == "heading" || n.Type == "listItem" || n.Type == "codeBlock" {
		b.WriteString("\n")
	}
}

// UnmarshalJSON also accepts a bare string, which older sites still return
// for comments created through API v2.
func (n *Node) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*n = *Doc(text)
		return nil
	}

	type plain Node
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*n = Node(decoded)
	return nil
}
