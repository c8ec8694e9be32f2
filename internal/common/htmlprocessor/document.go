package htmlprocessor

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed full HTML page.
type Document struct {
	root *html.Node
}

// ParseDocument parses a full page. Missing <html>, <head> or <body> elements
// are synthesized by the parser.
func ParseDocument(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Head returns the <head> element, or nil if not found.
func (d *Document) Head() *html.Node {
	return FindElement(d.root, "head")
}

// CanonicalURL returns the trimmed href of the first <link rel="canonical">
// in head, or empty string.
func (d *Document) CanonicalURL() string {
	for _, link := range FindAll(d.Head(), func(n *html.Node) bool { return IsElement(n, "link") }) {
		if strings.EqualFold(Attr(link, "rel"), "canonical") {
			return strings.TrimSpace(Attr(link, "href"))
		}
	}
	return ""
}

// HTML re-serializes the document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}
