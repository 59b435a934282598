// Package sanitize cleans rich-text fragments produced by the post editor.
//
// It is an allow-list filter: elements outside the list are unwrapped (their
// children take their place), link targets must be http(s) and image
// sources must be http(s) or data: URIs. Attributes other than href/src are
// left alone, so event-handler attributes on allowed elements survive; this
// is not a full XSS filter.
//
// Output is re-serialized, not copied: void elements come out self-closed
// ("<br>" becomes "<br/>") and character references are decoded unless
// they must stay escaped ("&nbsp;" becomes U+00A0, "&amp;" stays).
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var allowed = map[atom.Atom]bool{
	atom.P:      true,
	atom.A:      true,
	atom.Img:    true,
	atom.Strong: true,
	atom.B:      true,
	atom.I:      true,
	atom.Em:     true,
	atom.Br:     true,
	atom.Div:    true,
	atom.Ul:     true,
	atom.Li:     true,
	atom.Ol:     true,
	atom.Span:   true,
}

var (
	safeHref = regexp.MustCompile(`(?i)^https?://`)
	safeSrc  = regexp.MustCompile(`(?i)^data:|^https?://`)
)

// HTML returns the sanitized fragment.
func HTML(fragment string) string {
	root, err := parse(fragment)
	if err != nil {
		return ""
	}

	clean(root)

	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

// StripText returns the text content of a fragment, markup removed.
func StripText(fragment string) string {
	root, err := parse(fragment)
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

// IsBlank reports whether a fragment has no visible text.
func IsBlank(fragment string) bool {
	return strings.TrimSpace(StripText(fragment)) == ""
}

// parse builds a detached <body> holding the parsed fragment.
func parse(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

// clean walks the children of n. A disallowed element is replaced by its
// children, which are then visited in turn, so nested disallowed elements
// are unwrapped too.
func clean(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		if child.Type != html.ElementNode {
			child = child.NextSibling
			continue
		}

		if !allowed[child.DataAtom] {
			first := child.FirstChild
			for gc := child.FirstChild; gc != nil; gc = child.FirstChild {
				child.RemoveChild(gc)
				n.InsertBefore(gc, child)
			}
			next := child.NextSibling
			n.RemoveChild(child)
			if first != nil {
				child = first
			} else {
				child = next
			}
			continue
		}

		switch child.DataAtom {
		case atom.A:
			dropAttrUnless(child, "href", safeHref)
		case atom.Img:
			dropAttrUnless(child, "src", safeSrc)
		}

		clean(child)
		child = child.NextSibling
	}
}

func dropAttrUnless(n *html.Node, name string, ok *regexp.Regexp) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) && !ok.MatchString(strings.TrimSpace(a.Val)) {
			continue
		}
		attrs = append(attrs, a)
	}
	n.Attr = attrs
}
