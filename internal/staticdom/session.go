package staticdom

import (
	"context"
	"errors"

	"github.com/hazyhaar/domspect/internal/dom"
)

// ErrNoUI is returned for session operations that need a live page.
var ErrNoUI = errors.New("staticdom: operation requires a live page")

// Session adapts a Document to the dom.Session contract. Selector
// matching and inline styles work; computed styles come back empty (a
// static document has no layout), and overlay/clipboard operations fail
// with ErrNoUI.
type Session struct {
	Doc *Document
}

// NewSession wraps a Document.
func NewSession(doc *Document) *Session {
	return &Session{Doc: doc}
}

func (s *Session) ComputedStyle(_ context.Context, _ dom.ElementRef, _ []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (s *Session) InlineStyle(_ context.Context, ref dom.ElementRef) (string, error) {
	return s.Doc.InlineStyle(ref), nil
}

func (s *Session) MatchCount(_ context.Context, selector string) (int, error) {
	return s.Doc.Count(selector)
}

func (s *Session) Viewport(context.Context) (dom.Size, error) {
	return dom.Size{}, ErrNoUI
}

func (s *Session) ShowPopup(context.Context, string) (dom.Size, error) {
	return dom.Size{}, ErrNoUI
}

func (s *Session) MovePopup(context.Context, dom.Point) error { return ErrNoUI }

func (s *Session) ClosePopup(context.Context) error { return ErrNoUI }

func (s *Session) Highlight(context.Context, dom.ElementRef) error { return ErrNoUI }

func (s *Session) ClearHighlight(context.Context) error { return ErrNoUI }

func (s *Session) SetScanCursor(context.Context, bool) error { return ErrNoUI }

func (s *Session) EvalClipboardWrite(context.Context, string) error { return ErrNoUI }
