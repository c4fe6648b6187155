// Package domtest provides an in-memory dom.Session for tests.
package domtest

import (
	"context"
	"sync"

	"github.com/hazyhaar/domspect/internal/dom"
)

// Fake implements dom.Session with canned data and call recording.
// The zero value is usable; populate the maps as needed.
type Fake struct {
	mu sync.Mutex

	// Canned responses, keyed by backend node ID.
	Styles      map[int64]map[string]string
	Inlines     map[int64]string
	MatchCounts map[string]int

	ViewportSize dom.Size
	PopupSize    dom.Size

	// Injected failures.
	StyleErr    error
	InlineErr   error
	PopupErr    error
	EvalClipErr error

	// Recorded calls.
	StyleReads   int
	MatchQueries []string
	ShownHTML    []string
	Moves        []dom.Point
	PopupOpen    bool
	Highlighted  int64
	CursorOn     bool
	ClipWrites   []string
}

func (f *Fake) ComputedStyle(_ context.Context, ref dom.ElementRef, props []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StyleReads++
	if f.StyleErr != nil {
		return nil, f.StyleErr
	}
	src := f.Styles[ref.NodeID]
	out := make(map[string]string, len(src))
	for _, p := range props {
		if v, ok := src[p]; ok {
			out[p] = v
		}
	}
	return out, nil
}

func (f *Fake) InlineStyle(_ context.Context, ref dom.ElementRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InlineErr != nil {
		return "", f.InlineErr
	}
	return f.Inlines[ref.NodeID], nil
}

func (f *Fake) MatchCount(_ context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MatchQueries = append(f.MatchQueries, selector)
	return f.MatchCounts[selector], nil
}

func (f *Fake) Viewport(context.Context) (dom.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ViewportSize == (dom.Size{}) {
		return dom.Size{W: 1280, H: 800}, nil
	}
	return f.ViewportSize, nil
}

func (f *Fake) ShowPopup(_ context.Context, html string) (dom.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PopupErr != nil {
		return dom.Size{}, f.PopupErr
	}
	f.ShownHTML = append(f.ShownHTML, html)
	f.PopupOpen = true
	if f.PopupSize == (dom.Size{}) {
		return dom.Size{W: 300, H: 200}, nil
	}
	return f.PopupSize, nil
}

func (f *Fake) MovePopup(_ context.Context, to dom.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Moves = append(f.Moves, to)
	return nil
}

func (f *Fake) ClosePopup(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PopupOpen = false
	return nil
}

func (f *Fake) Highlight(_ context.Context, ref dom.ElementRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Highlighted = ref.NodeID
	return nil
}

func (f *Fake) ClearHighlight(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Highlighted = 0
	return nil
}

func (f *Fake) SetScanCursor(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CursorOn = on
	return nil
}

func (f *Fake) EvalClipboardWrite(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.EvalClipErr != nil {
		return f.EvalClipErr
	}
	f.ClipWrites = append(f.ClipWrites, text)
	return nil
}

// LastMove returns the most recent MovePopup coordinate.
func (f *Fake) LastMove() (dom.Point, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Moves) == 0 {
		return dom.Point{}, false
	}
	return f.Moves[len(f.Moves)-1], true
}
