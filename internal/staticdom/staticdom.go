// Package staticdom runs the inspection core against parsed HTML instead
// of a live tab. It backs the offline analyze mode and doubles as the
// reference implementation of selector matching for tests. Computed
// styles do not exist in a static document, so analysis through this
// package exercises the analyzer's degraded path by construction.
package staticdom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domspect/internal/dom"
)

// Document is a parsed HTML tree with stable per-node IDs.
type Document struct {
	root *html.Node
	// ids assigns a stable backend-style ID to every element node, in
	// document order starting at 1.
	ids map[*html.Node]int64
	// byID is the reverse map.
	byID map[int64]*html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("staticdom: parse: %w", err)
	}
	d := &Document{
		root: root,
		ids:  make(map[*html.Node]int64),
		byID: make(map[int64]*html.Node),
	}
	var next int64
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode {
			next++
			d.ids[n] = next
			d.byID[next] = n
		}
	})
	return d, nil
}

// Query returns refs for all elements matching the selector, in document
// order.
func (d *Document) Query(selector string) ([]dom.ElementRef, error) {
	ch, err := parseChain(selector)
	if err != nil {
		return nil, err
	}
	var refs []dom.ElementRef
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && ch.matches(n) {
			refs = append(refs, d.Ref(n))
		}
	})
	return refs, nil
}

// Count returns how many elements match the selector.
func (d *Document) Count(selector string) (int, error) {
	refs, err := d.Query(selector)
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// Ref builds an ElementRef for a node, including the ancestor chain the
// selector generator needs.
func (d *Document) Ref(n *html.Node) dom.ElementRef {
	ref := dom.ElementRef{
		NodeID:  d.ids[n],
		Tag:     strings.ToLower(n.Data),
		ID:      attr(n, "id"),
		Classes: strings.Fields(attr(n, "class")),
	}
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		ref.Ancestors = append(ref.Ancestors, dom.AncestorStep{
			Tag:      strings.ToLower(cur.Data),
			Index:    elementIndex(cur),
			Siblings: elementSiblings(cur),
		})
	}
	return ref
}

// InlineStyle returns the node's style attribute text.
func (d *Document) InlineStyle(ref dom.ElementRef) string {
	n, ok := d.byID[ref.NodeID]
	if !ok {
		return ""
	}
	return attr(n, "style")
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// elementIndex returns the node's 1-based position among its parent's
// element children.
func elementIndex(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}

// elementSiblings returns how many element children the node's parent has.
func elementSiblings(n *html.Node) int {
	if n.Parent == nil {
		return 1
	}
	count := 0
	for sib := n.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode {
			count++
		}
	}
	return count
}

// --- selector matching ---

// compound is one simple-selector group: tag#id.class1.class2[attr=v]:nth-child(n).
type compound struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasAttr bool
	nth     int // 0 = no :nth-child
}

// chain is a parsed selector: compounds joined by child ('>') or
// descendant (' ') combinators.
type chain struct {
	parts  []compound
	combis []byte // combis[i] relates parts[i] and parts[i+1]
}

// parseChain tokenizes a selector into compounds and combinators.
func parseChain(sel string) (chain, error) {
	var ch chain
	var pending byte // combinator seen since the last compound, 0 = none

	for _, f := range strings.Fields(sel) {
		if f == ">" {
			if len(ch.parts) == 0 || pending != 0 {
				return ch, fmt.Errorf("staticdom: misplaced combinator in %q", sel)
			}
			pending = '>'
			continue
		}
		c, err := parseCompound(f)
		if err != nil {
			return ch, err
		}
		if len(ch.parts) > 0 {
			if pending == 0 {
				pending = ' '
			}
			ch.combis = append(ch.combis, pending)
		}
		ch.parts = append(ch.parts, c)
		pending = 0
	}

	if len(ch.parts) == 0 {
		return ch, fmt.Errorf("staticdom: empty selector")
	}
	if pending != 0 {
		return ch, fmt.Errorf("staticdom: trailing combinator in %q", sel)
	}
	return ch, nil
}

func parseCompound(s string) (compound, error) {
	var c compound
	orig := s

	// :nth-child(n) suffix.
	if idx := strings.Index(s, ":nth-child("); idx >= 0 {
		numPart := s[idx+len(":nth-child("):]
		end := strings.IndexByte(numPart, ')')
		if end < 0 {
			return c, fmt.Errorf("staticdom: bad nth-child in %q", orig)
		}
		n := 0
		if _, err := fmt.Sscanf(numPart[:end], "%d", &n); err != nil || n < 1 {
			return c, fmt.Errorf("staticdom: bad nth-child index in %q", orig)
		}
		c.nth = n
		s = s[:idx]
	}

	// [attr] or [attr=val].
	if idx := strings.IndexByte(s, '['); idx >= 0 {
		attrPart := strings.TrimRight(s[idx+1:], "]")
		s = s[:idx]
		c.hasAttr = true
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			c.attrKey = attrPart[:eq]
			c.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			c.attrKey = attrPart
		}
	}

	// Classes.
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		c.classes = strings.Split(s[idx+1:], ".")
		s = s[:idx]
	}

	// #id.
	if idx := strings.IndexByte(s, '#'); idx >= 0 {
		c.id = s[idx+1:]
		s = s[:idx]
	}

	c.tag = strings.ToLower(s)
	if c.tag == "" && c.id == "" && len(c.classes) == 0 && !c.hasAttr && c.nth == 0 {
		return c, fmt.Errorf("staticdom: empty compound in %q", orig)
	}
	return c, nil
}

// matches reports whether n satisfies the full chain, with n matching the
// last compound and its ancestry satisfying the rest.
func (ch chain) matches(n *html.Node) bool {
	if !ch.parts[len(ch.parts)-1].matches(n) {
		return false
	}
	return matchAncestry(n, ch.parts[:len(ch.parts)-1], ch.combis)
}

func matchAncestry(n *html.Node, parts []compound, combis []byte) bool {
	if len(parts) == 0 {
		return true
	}
	combi := combis[len(combis)-1]
	part := parts[len(parts)-1]

	parent := elementParent(n)
	if combi == '>' {
		if parent == nil || !part.matches(parent) {
			return false
		}
		return matchAncestry(parent, parts[:len(parts)-1], combis[:len(combis)-1])
	}
	for anc := parent; anc != nil; anc = elementParent(anc) {
		if part.matches(anc) && matchAncestry(anc, parts[:len(parts)-1], combis[:len(combis)-1]) {
			return true
		}
	}
	return false
}

func elementParent(n *html.Node) *html.Node {
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		return n.Parent
	}
	return nil
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && strings.ToLower(n.Data) != c.tag {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	if c.hasAttr {
		if c.attrVal != "" {
			if attr(n, c.attrKey) != c.attrVal {
				return false
			}
		} else if !hasAttr(n, c.attrKey) {
			return false
		}
	}
	if c.nth > 0 && elementIndex(n) != c.nth {
		return false
	}
	return true
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
