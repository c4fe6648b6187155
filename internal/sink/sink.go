// Package sink defines output backends for pinned inspections.
package sink

import (
	"context"
	"time"

	"github.com/hazyhaar/domspect/internal/style"
)

// Record is one pinned inspection ready for delivery.
type Record struct {
	// ID is a unique inspection id assigned at pin time.
	ID         string           `json:"id"`
	PageURL    string           `json:"page_url"`
	Inspection style.Inspection `json:"inspection"`

	// PanelHTML is the rendered inspection panel, kept for backends
	// that re-render (the markdown report).
	PanelHTML string    `json:"-"`
	At        time.Time `json:"at"`
}

// Sink is the output interface. Implementations deliver inspections to
// different backends (stdout, webhook, SQLite, markdown report).
type Sink interface {
	Send(ctx context.Context, rec Record) error
	Close() error
}

var (
	_ Sink = (*Stdout)(nil)
	_ Sink = (*Webhook)(nil)
	_ Sink = (*SQLite)(nil)
	_ Sink = (*Report)(nil)
	_ Sink = (*Router)(nil)
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
