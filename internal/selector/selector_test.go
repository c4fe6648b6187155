package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/domspect/internal/dom"
)

type fakeMatcher struct {
	counts map[string]int
	err    error
	asked  []string
}

func (m *fakeMatcher) MatchCount(_ context.Context, sel string) (int, error) {
	m.asked = append(m.asked, sel)
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[sel], nil
}

func gen(counts map[string]int) *Generator {
	return New(&fakeMatcher{counts: counts}, Config{})
}

func TestGenerate_Body(t *testing.T) {
	g := gen(nil)
	for _, tag := range []string{"body", "html"} {
		if got := g.Generate(context.Background(), dom.ElementRef{Tag: tag}); got != "body" {
			t.Fatalf("%s: got %q, want %q", tag, got, "body")
		}
	}
}

func TestGenerate_IDWins(t *testing.T) {
	ref := dom.ElementRef{Tag: "div", ID: "main", Classes: []string{"card"}}
	if got := gen(nil).Generate(context.Background(), ref); got != "#main" {
		t.Fatalf("got %q, want %q", got, "#main")
	}
}

func TestGenerate_ClassSelector(t *testing.T) {
	g := gen(map[string]int{".card.wide": 3})
	ref := dom.ElementRef{Tag: "div", Classes: []string{"card", "wide"}}
	if got := g.Generate(context.Background(), ref); got != ".card.wide" {
		t.Fatalf("got %q, want %q", got, ".card.wide")
	}
}

func TestGenerate_ClassSelectorCapsAtThree(t *testing.T) {
	g := gen(map[string]int{".a.b.c": 1})
	ref := dom.ElementRef{Tag: "div", Classes: []string{"a", "b", "c", "d", "e"}}
	if got := g.Generate(context.Background(), ref); got != ".a.b.c" {
		t.Fatalf("got %q, want %q", got, ".a.b.c")
	}
}

func TestGenerate_InternalClassesSkipped(t *testing.T) {
	g := gen(map[string]int{".card": 2})
	ref := dom.ElementRef{Tag: "div", Classes: []string{"domspect-highlight", "card"}}
	if got := g.Generate(context.Background(), ref); got != ".card" {
		t.Fatalf("got %q, want %q", got, ".card")
	}
}

func TestGenerate_TooManyMatchesFallsThrough(t *testing.T) {
	// ".item" matches 40 elements, so it is rejected and the ancestor
	// path is used instead.
	g := gen(map[string]int{".item": 40})
	ref := dom.ElementRef{
		Tag:     "li",
		Classes: []string{"item"},
		Ancestors: []dom.AncestorStep{
			{Tag: "li", Index: 4, Siblings: 40},
			{Tag: "ul", Index: 1, Siblings: 3},
			{Tag: "nav", Index: 2, Siblings: 5},
		},
	}
	got := g.Generate(context.Background(), ref)
	want := "nav:nth-child(2) > ul:nth-child(1) > li"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_PathNthChildBounds(t *testing.T) {
	g := gen(nil)
	ref := dom.ElementRef{
		Tag: "span",
		Ancestors: []dom.AncestorStep{
			{Tag: "span", Index: 1, Siblings: 1},  // only child: no nth-child
			{Tag: "div", Index: 3, Siblings: 11},  // >10 siblings: no nth-child
			{Tag: "section", Index: 2, Siblings: 2},
		},
	}
	got := g.Generate(context.Background(), ref)
	want := "section:nth-child(2) > div > span"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_PathCapsAtThreeSteps(t *testing.T) {
	g := gen(nil)
	ref := dom.ElementRef{
		Tag: "b",
		Ancestors: []dom.AncestorStep{
			{Tag: "b", Index: 1, Siblings: 1},
			{Tag: "p", Index: 1, Siblings: 1},
			{Tag: "article", Index: 1, Siblings: 1},
			{Tag: "main", Index: 1, Siblings: 1},
		},
	}
	got := g.Generate(context.Background(), ref)
	want := "article > p > b"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_TagFallback(t *testing.T) {
	g := gen(nil)
	if got := g.Generate(context.Background(), dom.ElementRef{Tag: "SPAN"}); got != "span" {
		t.Fatalf("got %q, want %q", got, "span")
	}
}

func TestGenerate_Unknown(t *testing.T) {
	if got := gen(nil).Generate(context.Background(), dom.ElementRef{}); got != "unknown" {
		t.Fatalf("got %q, want %q", got, "unknown")
	}
}

func TestGenerate_MatcherErrorFallsThrough(t *testing.T) {
	g := New(&fakeMatcher{err: errors.New("gone")}, Config{})
	ref := dom.ElementRef{Tag: "div", Classes: []string{"card"}}
	if got := g.Generate(context.Background(), ref); got != "div" {
		t.Fatalf("got %q, want %q", got, "div")
	}
}
