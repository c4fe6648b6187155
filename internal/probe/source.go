package probe

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/hazyhaar/domspect/internal/browser"
)

//go:embed probe.js
var probeJS []byte

// bindingName is the JS-to-Go channel the in-page script reports on.
const bindingName = "__domspect_binding"

// ErrHostUnreachable is returned when the in-page script never answers
// the readiness handshake, usually because the page refused injection.
type ErrHostUnreachable struct {
	URL string
}

func (e *ErrHostUnreachable) Error() string {
	return fmt.Sprintf("probe: page %s did not answer the readiness handshake", e.URL)
}

// BindingSource installs the in-page script on a tab and converts its
// binding calls into Events.
type BindingSource struct {
	tab    *browser.Tab
	logger *slog.Logger
	events chan Event
	cancel context.CancelFunc
}

// NewBindingSource creates a source for the given tab. Call Install
// before reading Events.
func NewBindingSource(tab *browser.Tab, logger *slog.Logger) *BindingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BindingSource{
		tab:    tab,
		logger: logger,
		events: make(chan Event, 1024),
	}
}

// Events returns the raw event stream.
func (s *BindingSource) Events() <-chan Event {
	return s.events
}

// Install registers the binding, injects the script and verifies it
// answered the readiness handshake. It must run before any events can
// arrive.
func (s *BindingSource) Install(ctx context.Context) error {
	err := proto.RuntimeAddBinding{Name: bindingName}.Call(s.tab.Page)
	if err != nil {
		s.logger.Warn("probe: addBinding failed (may already exist)", "error", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.listen(listenCtx)

	if _, err := s.tab.Page.Eval(string(probeJS)); err != nil {
		cancel()
		return fmt.Errorf("probe: inject script: %w", err)
	}

	if err := s.handshake(ctx); err != nil {
		// A navigation can race the first injection. The script is
		// idempotent, so inject once more before giving up.
		if _, evalErr := s.tab.Page.Eval(string(probeJS)); evalErr != nil {
			cancel()
			return fmt.Errorf("probe: inject script: %w", evalErr)
		}
		if err = s.handshake(ctx); err != nil {
			cancel()
			return err
		}
	}

	s.logger.Debug("probe: installed", "url", s.tab.PageURL)
	return nil
}

// handshake polls the script's ready flag. Pages that sandbox injected
// code (or navigated away mid-install) never set it.
func (s *BindingSource) handshake(ctx context.Context) error {
	deadline := time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) {
		res, err := s.tab.Page.Context(ctx).Eval(
			`() => !!(window.__domspect && window.__domspect.ready)`)
		if err == nil && res.Value.Bool() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return &ErrHostUnreachable{URL: s.tab.PageURL}
}

// Stop ends the binding listener. The event channel is left open since
// the CDP loop may still be draining; consumers stop via their own
// context instead.
func (s *BindingSource) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// listen receives binding calls and decodes them into Events.
func (s *BindingSource) listen(ctx context.Context) {
	page := s.tab.Page
	page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var ev Event
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			s.logger.Warn("probe: parse binding payload", "error", err)
			return
		}
		ev.At = time.Now()

		select {
		case s.events <- ev:
		default:
			// A stalled consumer must not wedge the CDP event loop.
			s.logger.Warn("probe: event buffer full, dropping", "kind", ev.Kind)
		}
	})()
}
