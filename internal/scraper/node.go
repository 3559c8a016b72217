package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// node is a minimal element-or-text tree. Text nodes have an empty tag.
type node struct {
	tag      string
	classes  []string
	text     string
	parent   *node
	children []*node
}

// fromHTML converts an html.Node subtree, dropping comments and doctypes
func fromHTML(n *html.Node, parent *node) *node {
	switch n.Type {
	case html.TextNode:
		return &node{text: n.Data, parent: parent}
	case html.ElementNode:
		out := &node{tag: n.Data, parent: parent}
		for _, attr := range n.Attr {
			if attr.Key == "class" {
				out.classes = strings.Fields(attr.Val)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c, out); child != nil {
				out.children = append(out.children, child)
			}
		}
		return out
	}
	return nil
}

func (n *node) isText() bool {
	return n.tag == ""
}

func (n *node) hasClass(class string) bool {
	for _, c := range n.classes {
		if c == class {
			return true
		}
	}
	return false
}

// elements returns the direct element children
func (n *node) elements() []*node {
	var out []*node
	for _, c := range n.children {
		if !c.isText() {
			out = append(out, c)
		}
	}
	return out
}

func (n *node) firstElement() *node {
	for _, c := range n.children {
		if !c.isText() {
			return c
		}
	}
	return nil
}

// textNodes returns the direct text children, blank ones included
func (n *node) textNodes() []*node {
	var out []*node
	for _, c := range n.children {
		if c.isText() {
			out = append(out, c)
		}
	}
	return out
}

// hasOwnText reports whether a direct text child has non-whitespace content
func (n *node) hasOwnText() bool {
	for _, t := range n.textNodes() {
		if !isBlank(t.text) {
			return true
		}
	}
	return false
}

// findAll returns n and its descendants with the given tag, in document order
func (n *node) findAll(tag string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		if cur.tag == tag {
			out = append(out, cur)
		}
		for _, c := range cur.children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// siblingIndex returns the position of n among its parent's children
func (n *node) siblingIndex() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// content returns the text of a text node, or the normalized text of an element
func (n *node) content() string {
	if n.isText() {
		return n.text
	}
	return n.innerText()
}

// innerText concatenates all descendant text with whitespace normalized and
// trimmed
func (n *node) innerText() string {
	var b strings.Builder
	var walk func(*node)
	walk = func(cur *node) {
		if cur.isText() {
			b.WriteString(cur.text)
			return
		}
		if cur.tag == "br" {
			b.WriteByte(' ')
		}
		for _, c := range cur.children {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(normalizeSpace(b.String()))
}

// normalizeSpace collapses runs of whitespace, including NBSP, into one space
func normalizeSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\u00a0':
		return true
	}
	return false
}

func isBlank(s string) bool {
	for _, r := range s {
		if !isSpace(r) {
			return false
		}
	}
	return true
}
