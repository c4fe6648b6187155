package style

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/domspect/internal/dom"
	"github.com/hazyhaar/domspect/internal/dom/domtest"
)

func staticSelector(sel string) SelectorFunc {
	return func(context.Context, dom.ElementRef) string { return sel }
}

func TestCategorize_FiltersUninteresting(t *testing.T) {
	cats := Categorize(map[string]string{
		"display": "flex",
		"margin":  "0px",
		"float":   "none",
		"color":   "rgb(20, 20, 20)",
		"opacity": "1",
	})

	layout, ok := cats[CategoryLayout]
	if !ok {
		t.Fatal("layout category missing")
	}
	if layout["display"] != "flex" {
		t.Fatalf("display: got %q, want %q", layout["display"], "flex")
	}
	if _, ok := layout["float"]; ok {
		t.Error("float:none should be filtered")
	}
	if _, ok := cats[CategoryBoxModel]; ok {
		t.Error("box-model should be omitted: its only property was margin:0px")
	}
	if cats[CategoryTypography]["color"] != "rgb(20, 20, 20)" {
		t.Fatalf("color: got %q", cats[CategoryTypography]["color"])
	}
	// opacity "1" is not in the uninteresting set.
	if cats[CategoryEffects]["opacity"] != "1" {
		t.Fatalf("opacity: got %q", cats[CategoryEffects]["opacity"])
	}
}

func TestCategorize_EmptyCategoriesOmitted(t *testing.T) {
	cats := Categorize(map[string]string{"display": "block"})
	if len(cats) != 1 {
		t.Fatalf("got %d categories, want 1: %v", len(cats), cats)
	}
}

func TestParseInline(t *testing.T) {
	decls := ParseInline("color: red; margin: 0px;  font-size:14px ;;broken")
	if len(decls) != 3 {
		t.Fatalf("got %d declarations, want 3: %v", len(decls), decls)
	}
	if decls["color"] != "red" {
		t.Errorf("color: got %q", decls["color"])
	}
	// Inline parsing does not apply the uninteresting filter.
	if decls["margin"] != "0px" {
		t.Errorf("margin: got %q, want 0px kept", decls["margin"])
	}
	if decls["font-size"] != "14px" {
		t.Errorf("font-size: got %q", decls["font-size"])
	}
}

func TestParseInline_Empty(t *testing.T) {
	if got := ParseInline("   "); got != nil {
		t.Fatalf("blank style attribute: got %v, want nil", got)
	}
	if got := ParseInline("nonsense without colon"); got != nil {
		t.Fatalf("malformed style attribute: got %v, want nil", got)
	}
}

func TestInspect_FullResult(t *testing.T) {
	fake := &domtest.Fake{
		Styles:  map[int64]map[string]string{5: {"display": "flex", "margin": "0px"}},
		Inlines: map[int64]string{5: "width: 50%"},
	}
	a := NewAnalyzer(NewCache(fake, CacheConfig{}), fake, staticSelector("#a"), nil)

	ref := dom.ElementRef{NodeID: 5, Tag: "div", ID: "a", Classes: []string{"card"}}
	insp := a.Inspect(context.Background(), ref)

	if insp.Selector != "#a" {
		t.Fatalf("selector: got %q, want %q", insp.Selector, "#a")
	}
	if insp.Categories[CategoryLayout]["display"] != "flex" {
		t.Fatalf("layout display: got %v", insp.Categories)
	}
	if _, ok := insp.Categories[CategoryBoxModel]; ok {
		t.Error("margin:0px must not survive categorization")
	}
	if insp.Inline["width"] != "50%" {
		t.Fatalf("inline width: got %v", insp.Inline)
	}
	if insp.Tag != "div" || insp.DOMID != "a" {
		t.Fatalf("identity: got tag=%q id=%q", insp.Tag, insp.DOMID)
	}
}

func TestInspect_DegradesOnFailure(t *testing.T) {
	fake := &domtest.Fake{
		StyleErr:  errors.New("detached"),
		InlineErr: errors.New("detached"),
	}
	a := NewAnalyzer(NewCache(fake, CacheConfig{}), fake, staticSelector(""), nil)

	ref := dom.ElementRef{NodeID: 2, Tag: "span", Classes: []string{"x"}}
	insp := a.Inspect(context.Background(), ref)

	if insp.Tag != "span" {
		t.Fatalf("tag survives degradation: got %q", insp.Tag)
	}
	if insp.Selector != "unknown" {
		t.Fatalf("selector: got %q, want %q", insp.Selector, "unknown")
	}
	if len(insp.Computed) != 0 || len(insp.Categories) != 0 || insp.Inline != nil {
		t.Fatalf("degraded result must carry empty style maps: %+v", insp)
	}
}
