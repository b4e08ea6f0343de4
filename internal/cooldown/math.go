package cooldown

import (
	"fmt"

	"curriculum-scraper/lib/htmlutil"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Predicate is a structural test on a single element, every non-empty field
// must hold for the predicate to match.
type Predicate struct {
	Tag   string
	Class string
	Attr  string
	// Value is only checked when Attr is set.
	Value string
}

func (p Predicate) Match(el htmlutil.Element) bool {
	if el == nil || el.Tag() == "" {
		return false
	}
	if p.Tag == "" && p.Class == "" && p.Attr == "" {
		return false
	}
	if p.Tag != "" && el.Tag() != p.Tag {
		return false
	}
	if p.Class != "" && !el.HasClass(p.Class) {
		return false
	}
	if p.Attr != "" {
		value, ok := el.Attr(p.Attr)
		if !ok {
			return false
		}
		if p.Value != "" && value != p.Value {
			return false
		}
	}
	return true
}

// MatchesAny is the single matcher every predicate list goes through.
func MatchesAny(el htmlutil.Element, predicates []Predicate) bool {
	for _, p := range predicates {
		if p.Match(el) {
			return true
		}
	}
	return false
}

// MathPredicates recognize rendered and source math markup (MathJax output,
// MathML and svg renderings).
var MathPredicates = []Predicate{
	{Class: "math"},
	{Class: "inline-math"},
	{Attr: "data-mathjax-span"},
	{Attr: "data-mathjax-div"},
	{Tag: "svg", Attr: "role", Value: "img"},
	{Class: "MathJax"},
	{Class: "MathJax_Display"},
	{Class: "MJXc-display"},
	{Tag: "math"},
	{Tag: "mrow"},
}

var screenreaderPredicates = []Predicate{
	{Class: "screenreader-only"},
	{Class: "sr-only"},
}

const PlaceholderClass = "math-placeholder"

func Placeholder(index int) string {
	return fmt.Sprintf("[Math Expression %d]", index+1)
}

// screenreaderText looks for an accessible description of a math element in
// order: a screen-reader-only descendant, a screen-reader-only sibling, then
// the element's own aria-label.
func screenreaderText(el htmlutil.Element) *string {
	descendant := ""
	walkElements(el, func(child htmlutil.Element) bool {
		if descendant != "" {
			return false
		}
		if MatchesAny(child, screenreaderPredicates) {
			descendant = htmlutil.CleanText(child.Text())
			return false
		}
		return true
	})
	if descendant != "" {
		return &descendant
	}

	for _, sibling := range siblings(el) {
		if !MatchesAny(sibling, screenreaderPredicates) {
			continue
		}
		text := htmlutil.CleanText(sibling.Text())
		if text != "" {
			return &text
		}
	}

	label, ok := el.Attr("aria-label")
	if ok {
		label = htmlutil.CleanText(label)
		if label != "" {
			return &label
		}
	}
	return nil
}

func siblings(el htmlutil.Element) []htmlutil.Element {
	var out []htmlutil.Element
	for s := el.PrevSibling(); s != nil; s = s.PrevSibling() {
		out = append(out, s)
	}
	for s := el.NextSibling(); s != nil; s = s.NextSibling() {
		out = append(out, s)
	}
	return out
}

// walkElements visits the descendants of `root` in document order, the
// subtree of a node is skipped when visit returns false.
func walkElements(root htmlutil.Element, visit func(el htmlutil.Element) bool) {
	for _, child := range root.Children() {
		if child.Tag() == "" {
			continue
		}
		if visit(child) {
			walkElements(child, visit)
		}
	}
}

func newPlaceholder(text string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: PlaceholderClass},
		},
	}
	span.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: text,
	})
	return span
}

// ReplaceMath finds every math element under `root` (in document order),
// records it as a MathItem of `section` and swaps it in place for a
// placeholder span. Math nested in another match is reported too, but only
// the outermost placeholder ends up in the tree since it replaces the whole
// subtree.
//
// Placeholder spans never match a math predicate so running ReplaceMath on
// an already processed tree finds nothing.
func ReplaceMath(root *html.Node, section Section) ([]MathItem, error) {
	if root == nil {
		return []MathItem{}, nil
	}

	var matched []*html.Node
	walkElements(htmlutil.Wrap(root), func(el htmlutil.Element) bool {
		if MatchesAny(el, MathPredicates) {
			matched = append(matched, el.(htmlutil.Node).Raw())
		}
		return true
	})

	// items are rendered before any replacement so nested markup is intact
	items := make([]MathItem, 0, len(matched))
	for i, node := range matched {
		el := htmlutil.Wrap(node)
		raw, err := el.OuterHTML()
		if err != nil {
			return nil, fmt.Errorf("render math element %d: %w", i, err)
		}
		items = append(items, MathItem{
			Section:          section,
			RawHtml:          raw,
			ScreenreaderText: screenreaderText(el),
			Placeholder:      Placeholder(i),
			MathIndex:        i,
		})
	}

	for i, node := range matched {
		if node.Parent == nil {
			continue
		}
		node.Parent.InsertBefore(newPlaceholder(items[i].Placeholder), node)
		node.Parent.RemoveChild(node)
	}

	return items, nil
}
