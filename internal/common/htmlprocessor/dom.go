package htmlprocessor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FindAll returns every node in root's subtree (root excluded) accepted by match,
// in document order.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	if root == nil {
		return nil
	}
	var results []*html.Node

	var search func(*html.Node)
	search = func(n *html.Node) {
		if match(n) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			search(c)
		}
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		search(c)
	}
	return results
}

// FindElement returns the first element with the given tag name (case-insensitive)
// in root's subtree, root included. Returns nil if not found.
func FindElement(root *html.Node, tag string) *html.Node {
	if root == nil {
		return nil
	}
	return findElementLower(root, strings.ToLower(tag))
}

// findElementLower is the internal recursive helper that operates on pre-lowercased tag.
func findElementLower(node *html.Node, lowerTag string) *html.Node {
	if node.Type == html.ElementNode && strings.ToLower(node.Data) == lowerTag {
		return node
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if found := findElementLower(c, lowerTag); found != nil {
			return found
		}
	}
	return nil
}

// IsElement reports whether node is an element with the given tag (case-insensitive).
func IsElement(node *html.Node, tag string) bool {
	return node != nil && node.Type == html.ElementNode && strings.EqualFold(node.Data, tag)
}

// Attr returns attribute value for given name (case-insensitive comparison).
// Returns empty string if not found.
func Attr(node *html.Node, name string) string {
	val, _ := lookupAttr(node, name)
	return val
}

// HasAttr reports whether node carries the attribute, even with an empty value.
func HasAttr(node *html.Node, name string) bool {
	_, ok := lookupAttr(node, name)
	return ok
}

func lookupAttr(node *html.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute, keeping its original position.
func SetAttr(node *html.Node, name, value string) {
	for i, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

// RemoveAttr drops every occurrence of the attribute.
func RemoveAttr(node *html.Node, name string) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if !strings.EqualFold(attr.Key, name) {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

// Classes returns the class tokens of node.
func Classes(node *html.Node) []string {
	return strings.Fields(Attr(node, "class"))
}

// HasClass reports whether node's class list contains the token.
func HasClass(node *html.Node, class string) bool {
	for _, c := range Classes(node) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends missing class tokens.
func AddClass(node *html.Node, classes ...string) {
	current := Classes(node)
	for _, class := range classes {
		if !containsToken(current, class) {
			current = append(current, class)
		}
	}
	SetAttr(node, "class", strings.Join(current, " "))
}

// RemoveClass removes class tokens and collapses the remaining whitespace.
// The attribute is kept (possibly empty) when it existed before.
func RemoveClass(node *html.Node, classes ...string) {
	if !HasAttr(node, "class") {
		return
	}
	current := Classes(node)
	kept := current[:0]
	for _, c := range current {
		if !containsToken(classes, c) {
			kept = append(kept, c)
		}
	}
	SetAttr(node, "class", strings.Join(kept, " "))
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// TextContent recursively extracts all text content from node and descendants.
func TextContent(node *html.Node) string {
	if node == nil {
		return ""
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(node)
	return sb.String()
}

// SetText replaces all children of node with a single text node.
func SetText(node *html.Node, text string) {
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		c = next
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// NewElement creates a detached element. attrs are key/value pairs.
func NewElement(tag string, attrs ...string) *html.Node {
	tag = strings.ToLower(tag)
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		node.Attr = append(node.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return node
}

// Clone deep-copies node and its subtree. The copy is detached.
func Clone(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	cp := &html.Node{
		Type:      node.Type,
		DataAtom:  node.DataAtom,
		Data:      node.Data,
		Namespace: node.Namespace,
	}
	if len(node.Attr) > 0 {
		cp.Attr = make([]html.Attribute, len(node.Attr))
		copy(cp.Attr, node.Attr)
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}

// Detach removes node from its parent. Detached nodes are left untouched.
func Detach(node *html.Node) {
	if node != nil && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

// Replace puts replacement where old is. old ends up detached.
func Replace(old, replacement *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

// IsAncestor reports whether ancestor strictly contains node.
func IsAncestor(ancestor, node *html.Node) bool {
	for p := node.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
