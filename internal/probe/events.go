// Package probe turns raw page events into paced inspection callbacks.
// The in-page script reports pointer and keyboard activity through a
// runtime binding; the dispatcher debounces hovers, throttles moves and
// forwards everything else as it arrives.
package probe

import (
	"time"

	"github.com/hazyhaar/domspect/internal/dom"
)

// EventKind labels a raw event coming off the page.
type EventKind string

const (
	KindOver  EventKind = "over"
	KindOut   EventKind = "out"
	KindMove  EventKind = "move"
	KindClick EventKind = "click"
	KindKey   EventKind = "key"
	KindCopy  EventKind = "copy"
)

// Event is one raw occurrence reported by the in-page script.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Target dom.ElementRef `json:"target"`

	// RelatedContained is set on out events when the pointer moved to a
	// descendant of the departed element, which is not a real exit.
	RelatedContained bool `json:"related_contained"`

	// OverPopup is set when the event happened inside the inspection
	// panel itself.
	OverPopup bool `json:"over_popup"`

	Pos dom.Point `json:"pos"`

	// Key holds the key name for key events ("Escape" and friends).
	Key string `json:"key,omitempty"`

	// CopyMode holds the requested copy mode for copy events.
	CopyMode string `json:"copy_mode,omitempty"`

	At time.Time `json:"-"`
}

// Listener receives paced events from the dispatcher. Hover fires only
// after the pointer has rested on an element for the debounce window;
// the remaining callbacks fire per event, with moves throttled.
type Listener interface {
	OnHover(ev Event)
	OnOut(ev Event)
	OnMove(ev Event)
	OnClick(ev Event)
	OnKey(ev Event)
	OnCopy(ev Event)
}

// Source produces raw events for a dispatcher. The live implementation
// reads a browser runtime binding; tests feed a channel directly.
type Source interface {
	// Events returns the raw event stream. The channel is closed when
	// the source stops.
	Events() <-chan Event
}
