// Package dom defines the contract between the inspection core and the
// page it inspects. The core never touches CDP or parsed HTML directly;
// it speaks to a Session, so the same logic runs against a live Chrome
// tab (internal/browser) or a static document (internal/staticdom).
package dom

import "context"

// ElementRef identifies a page element for the duration of one event tick.
// Pages mutate their own DOM, so a ref must not be assumed valid past the
// event that produced it. NodeID is assigned by the probe on first sight
// and stays stable for the node's lifetime, which makes it the cache key
// of choice.
type ElementRef struct {
	NodeID    int64          `json:"node_id"`
	Tag       string         `json:"tag"`
	ID        string         `json:"id,omitempty"`
	Classes   []string       `json:"classes,omitempty"`
	Ancestors []AncestorStep `json:"ancestors,omitempty"`

	// InPopup marks elements inside the inspection overlay itself, so the
	// core can tell real page elements from its own UI.
	InPopup bool `json:"in_popup,omitempty"`
}

// AncestorStep describes one link of an element's ancestor chain,
// innermost first (the element itself is step 0).
type AncestorStep struct {
	Tag string `json:"tag"`
	// Index is the 1-based position among the parent's element children.
	Index int `json:"index"`
	// Siblings is the number of element children the parent has.
	Siblings int `json:"siblings"`
}

// Same reports whether two refs point at the same node. A zero NodeID
// never compares equal; an unidentified node matches nothing.
func (r ElementRef) Same(other ElementRef) bool {
	return r.NodeID != 0 && r.NodeID == other.NodeID
}

// IsRoot reports whether the ref is the document root or body.
func (r ElementRef) IsRoot() bool {
	return r.Tag == "html" || r.Tag == "body"
}

// Point is a viewport-relative coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a box size in CSS pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Session is the platform surface the inspection core relies on. All
// methods are synchronous from the caller's point of view; implementations
// that go over the wire honour ctx for cancellation and timeouts.
type Session interface {
	// ComputedStyle returns the resolved values of the requested properties
	// for the element. Properties the platform does not report are omitted.
	ComputedStyle(ctx context.Context, ref ElementRef, props []string) (map[string]string, error)

	// InlineStyle returns the element's own style attribute text, or ""
	// if the element has none.
	InlineStyle(ctx context.Context, ref ElementRef) (string, error)

	// MatchCount returns how many elements in the document match the
	// selector.
	MatchCount(ctx context.Context, selector string) (int, error)

	// Viewport returns the current viewport dimensions.
	Viewport(ctx context.Context) (Size, error)

	// ShowPopup replaces any existing overlay popup with the given panel
	// markup, inserted hidden, and returns its measured size. The popup
	// becomes visible on the first MovePopup.
	ShowPopup(ctx context.Context, html string) (Size, error)

	// MovePopup positions the popup at the given viewport coordinates and
	// reveals it if hidden.
	MovePopup(ctx context.Context, to Point) error

	// ClosePopup removes the popup if present. Idempotent.
	ClosePopup(ctx context.Context) error

	// Highlight applies the visual highlight marker to the element,
	// removing it from any previously highlighted one.
	Highlight(ctx context.Context, ref ElementRef) error

	// ClearHighlight removes the highlight marker wherever it is. Idempotent.
	ClearHighlight(ctx context.Context) error

	// SetScanCursor toggles the crosshair scan cursor on the page.
	SetScanCursor(ctx context.Context, on bool) error

	// EvalClipboardWrite writes text through the page's clipboard API.
	// Used as a fallback when the OS clipboard is unavailable.
	EvalClipboardWrite(ctx context.Context, text string) error
}
