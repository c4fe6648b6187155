// Package selector generates best-effort CSS selectors for inspected
// elements. The output is meant to be pasted into devtools or a
// stylesheet, not to be a uniqueness guarantee: ties and false matches
// are acceptable.
package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/domspect/internal/dom"
)

// Matcher counts how many elements a selector matches document-wide.
// The live session answers via querySelectorAll; staticdom answers from
// a parsed tree.
type Matcher interface {
	MatchCount(ctx context.Context, selector string) (int, error)
}

// Config tunes selector generation.
type Config struct {
	// MaxClasses caps how many classes go into a compound class selector.
	// Default: 3.
	MaxClasses int
	// MaxMatches is the widest a class selector may match document-wide
	// before being rejected. Default: 5.
	MaxMatches int
	// MaxPathSteps caps the ancestor-path length. Default: 3.
	MaxPathSteps int
	// InternalClassPrefixes lists class prefixes belonging to domspect's
	// own overlay markup; they never appear in generated selectors.
	InternalClassPrefixes []string
}

func (c *Config) defaults() {
	if c.MaxClasses <= 0 {
		c.MaxClasses = 3
	}
	if c.MaxMatches <= 0 {
		c.MaxMatches = 5
	}
	if c.MaxPathSteps <= 0 {
		c.MaxPathSteps = 3
	}
	if c.InternalClassPrefixes == nil {
		c.InternalClassPrefixes = []string{"domspect-"}
	}
}

// Generator computes selectors against a Matcher.
type Generator struct {
	m   Matcher
	cfg Config
}

// New creates a Generator.
func New(m Matcher, cfg Config) *Generator {
	cfg.defaults()
	return &Generator{m: m, cfg: cfg}
}

// Generate returns a selector for the element. Resolution order:
// root/body → #id → verified compound class selector → ancestor path →
// bare tag → "unknown".
func (g *Generator) Generate(ctx context.Context, ref dom.ElementRef) string {
	if ref.IsRoot() {
		return "body"
	}

	if ref.ID != "" {
		return "#" + ref.ID
	}

	if sel := g.classSelector(ctx, ref); sel != "" {
		return sel
	}

	if sel := g.pathSelector(ref); sel != "" {
		return sel
	}

	if ref.Tag != "" {
		return strings.ToLower(ref.Tag)
	}
	return "unknown"
}

// classSelector builds ".a.b.c" from up to MaxClasses non-internal
// classes and accepts it only when it matches at most MaxMatches
// elements document-wide.
func (g *Generator) classSelector(ctx context.Context, ref dom.ElementRef) string {
	var picked []string
	for _, cls := range ref.Classes {
		if cls == "" || g.internal(cls) {
			continue
		}
		picked = append(picked, cls)
		if len(picked) == g.cfg.MaxClasses {
			break
		}
	}
	if len(picked) == 0 {
		return ""
	}

	sel := "." + strings.Join(picked, ".")
	n, err := g.m.MatchCount(ctx, sel)
	if err != nil || n == 0 || n > g.cfg.MaxMatches {
		return ""
	}
	return sel
}

// pathSelector renders up to MaxPathSteps steps of the ancestor chain,
// outermost to innermost, joined with " > ". A step gets :nth-child(n)
// when its parent has between 2 and 10 element children, enough to
// disambiguate small sibling groups without producing brittle selectors
// inside huge lists.
func (g *Generator) pathSelector(ref dom.ElementRef) string {
	if len(ref.Ancestors) == 0 {
		return ""
	}

	steps := ref.Ancestors
	if len(steps) > g.cfg.MaxPathSteps {
		steps = steps[:g.cfg.MaxPathSteps]
	}

	// Ancestors are innermost first; the rendered path reads outermost
	// to innermost.
	parts := make([]string, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		st := steps[i]
		tag := strings.ToLower(st.Tag)
		if tag == "" {
			return ""
		}
		if st.Siblings >= 2 && st.Siblings <= 10 && st.Index >= 1 {
			tag = fmt.Sprintf("%s:nth-child(%d)", tag, st.Index)
		}
		parts = append(parts, tag)
	}
	return strings.Join(parts, " > ")
}

func (g *Generator) internal(cls string) bool {
	for _, p := range g.cfg.InternalClassPrefixes {
		if strings.HasPrefix(cls, p) {
			return true
		}
	}
	return false
}
