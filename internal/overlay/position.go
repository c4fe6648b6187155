package overlay

import "github.com/hazyhaar/domspect/internal/dom"

const (
	// cursorOffset is the gap between the cursor and the popup edge.
	cursorOffset = 20
	// viewportMargin is the minimum distance the popup keeps from the
	// viewport edges.
	viewportMargin = 10
)

// Place picks a popup position anchored to the cursor: four quadrant
// candidates (below-right, below-left, above-right, above-left of the
// cursor, offset by cursorOffset) are tried in order and the first whose
// full box fits the viewport with viewportMargin to spare wins. If none
// fit, the first candidate is clamped into the viewport bounds.
func Place(cursor dom.Point, popup dom.Size, viewport dom.Size) dom.Point {
	candidates := [4]dom.Point{
		{X: cursor.X + cursorOffset, Y: cursor.Y + cursorOffset},
		{X: cursor.X - cursorOffset - popup.W, Y: cursor.Y + cursorOffset},
		{X: cursor.X + cursorOffset, Y: cursor.Y - cursorOffset - popup.H},
		{X: cursor.X - cursorOffset - popup.W, Y: cursor.Y - cursorOffset - popup.H},
	}

	for _, c := range candidates {
		if fits(c, popup, viewport) {
			return c
		}
	}
	return clamp(candidates[0], popup, viewport)
}

func fits(at dom.Point, popup dom.Size, viewport dom.Size) bool {
	return at.X >= viewportMargin &&
		at.Y >= viewportMargin &&
		at.X+popup.W <= viewport.W-viewportMargin &&
		at.Y+popup.H <= viewport.H-viewportMargin
}

// clamp forces the position into [margin, W-w-margin] x [margin, H-h-margin].
// The lower bound wins when the popup is larger than the viewport.
func clamp(at dom.Point, popup dom.Size, viewport dom.Size) dom.Point {
	maxX := viewport.W - popup.W - viewportMargin
	maxY := viewport.H - popup.H - viewportMargin
	if at.X > maxX {
		at.X = maxX
	}
	if at.Y > maxY {
		at.Y = maxY
	}
	if at.X < viewportMargin {
		at.X = viewportMargin
	}
	if at.Y < viewportMargin {
		at.Y = viewportMargin
	}
	return at
}
