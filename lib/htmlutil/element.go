package htmlutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Element is the read-only view of a markup node that matchers work with.
//
// Anything that is not an element (text, comments, documents, nil) reports an
// empty tag and no attributes, so it never satisfies a structural predicate.
type Element interface {
	Tag() string
	Attr(key string) (string, bool)
	HasClass(class string) bool
	Text() string
	OuterHTML() (string, error)
	Children() []Element
	Parent() Element
	NextSibling() Element
	PrevSibling() Element
}

// Node implements Element over *html.Node.
type Node struct {
	node *html.Node
}

// Wrap returns nil when `n` is nil so traversal can stop on a nil check.
func Wrap(n *html.Node) Element {
	if n == nil {
		return nil
	}
	return Node{node: n}
}

func (n Node) Raw() *html.Node {
	return n.node
}

func (n Node) isElement() bool {
	return n.node != nil && n.node.Type == html.ElementNode
}

func (n Node) Tag() string {
	if !n.isElement() {
		return ""
	}
	return strings.ToLower(n.node.Data)
}

func (n Node) Attr(key string) (string, bool) {
	if !n.isElement() {
		return "", false
	}
	return GetAttr(n.node, key)
}

func (n Node) HasClass(class string) bool {
	value, ok := n.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(value) {
		if c == class {
			return true
		}
	}
	return false
}

func (n Node) Text() string {
	return GetText(n.node)
}

func (n Node) OuterHTML() (string, error) {
	if n.node == nil {
		return "", nil
	}
	var buff bytes.Buffer
	err := html.Render(&buff, n.node)
	if err != nil {
		return "", err
	}
	return buff.String(), nil
}

func (n Node) Children() []Element {
	if n.node == nil {
		return nil
	}
	var out []Element
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, Node{node: c})
	}
	return out
}

func (n Node) Parent() Element {
	if n.node == nil {
		return nil
	}
	return Wrap(n.node.Parent)
}

// NextSibling skips over non-element siblings.
func (n Node) NextSibling() Element {
	if n.node == nil {
		return nil
	}
	for s := n.node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return Node{node: s}
		}
	}
	return nil
}

// PrevSibling skips over non-element siblings.
func (n Node) PrevSibling() Element {
	if n.node == nil {
		return nil
	}
	for s := n.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return Node{node: s}
		}
	}
	return nil
}
