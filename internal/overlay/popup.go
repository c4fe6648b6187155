// Package overlay renders and positions the inspection popup. The popup
// follows the cursor while unpinned and freezes in place when pinned;
// hover is exploratory, click is a deliberate freeze, and both share one
// popup instance so there is never more than one panel on the page.
package overlay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domspect/internal/dom"
	"github.com/hazyhaar/domspect/internal/style"
)

// State is the popup lifecycle: closed → shown (unpinned) → pinned →
// closed, with shown→shown on repeated hover.
type State int

const (
	StateClosed State = iota
	StateShown
	StatePinned
)

// ErrRender wraps a popup construction or insertion failure. The caller
// gets a fallback panel instead of a dead scan session.
type ErrRender struct {
	Cause error
}

func (e *ErrRender) Error() string {
	return fmt.Sprintf("overlay: popup render failed: %v", e.Cause)
}

func (e *ErrRender) Unwrap() error { return e.Cause }

// Renderer owns the single popup instance.
type Renderer struct {
	sess   dom.Session
	logger *slog.Logger

	state State
	size  dom.Size
	pos   dom.Point
}

// NewRenderer creates a Renderer drawing through the session.
func NewRenderer(sess dom.Session, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{sess: sess, logger: logger}
}

// Show replaces any existing popup with a panel for the inspection,
// anchored at the cursor. The popup comes back unpinned. On a render
// failure the fallback panel is shown and an *ErrRender returned.
func (r *Renderer) Show(ctx context.Context, insp style.Inspection, cursor dom.Point) error {
	size, err := r.sess.ShowPopup(ctx, BuildPanel(insp))
	if err != nil {
		r.logger.Warn("overlay: panel insert failed, using fallback", "error", err)
		size, err = r.sess.ShowPopup(ctx, BuildFallback())
		if err != nil {
			r.state = StateClosed
			return &ErrRender{Cause: err}
		}
	}

	viewport, verr := r.sess.Viewport(ctx)
	if verr != nil {
		viewport = dom.Size{W: 1024, H: 768}
	}

	r.size = size
	r.pos = Place(cursor, size, viewport)
	r.state = StateShown

	if err := r.sess.MovePopup(ctx, r.pos); err != nil {
		return &ErrRender{Cause: err}
	}
	return nil
}

// Reposition follows the cursor. No-op while pinned or closed.
func (r *Renderer) Reposition(ctx context.Context, cursor dom.Point) error {
	if r.state != StateShown {
		return nil
	}
	viewport, err := r.sess.Viewport(ctx)
	if err != nil {
		return err
	}
	r.pos = Place(cursor, r.size, viewport)
	return r.sess.MovePopup(ctx, r.pos)
}

// Pin freezes the popup at its current rendered position. Position
// updates stop until Unpin.
func (r *Renderer) Pin() {
	if r.state == StateShown {
		r.state = StatePinned
	}
}

// Unpin restores live-follow behaviour; the next pointer move
// repositions the popup.
func (r *Renderer) Unpin() {
	if r.state == StatePinned {
		r.state = StateShown
	}
}

// Close removes the popup. Idempotent.
func (r *Renderer) Close(ctx context.Context) error {
	if r.state == StateClosed {
		return nil
	}
	r.state = StateClosed
	return r.sess.ClosePopup(ctx)
}

// State returns the popup lifecycle state.
func (r *Renderer) State() State { return r.state }

// Pinned reports whether the popup is frozen in place.
func (r *Renderer) Pinned() bool { return r.state == StatePinned }

// Shown reports whether a popup is on the page, pinned or not.
func (r *Renderer) Shown() bool { return r.state != StateClosed }

// Position returns the last rendered position.
func (r *Renderer) Position() dom.Point { return r.pos }
