package htmlprocessor

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is a parsed piece of markup that is not a full document.
// Top-level nodes hang off a synthetic <body> root which is never serialized,
// so rendering does not introduce <html>, <head> or <body> wrappers.
type Fragment struct {
	root *html.Node
}

// ParseFragment parses markup in the context of a <body> element.
func ParseFragment(src string) (*Fragment, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(src), context)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	for _, n := range nodes {
		context.AppendChild(n)
	}
	return &Fragment{root: context}, nil
}

// Root returns the synthetic container holding the fragment's top-level nodes.
func (f *Fragment) Root() *html.Node {
	return f.root
}

// HTML serializes the fragment's top-level nodes without the synthetic root.
func (f *Fragment) HTML() (string, error) {
	var buf bytes.Buffer
	for c := f.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return buf.String(), nil
}
