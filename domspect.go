// Package domspect drives a live CSS inspector inside a Chrome tab. A
// probe script reports pointer and keyboard activity; the Inspector
// answers with highlights, a style popup that follows the cursor, and
// clipboard copies of the rules it found. Pinned inspections are emitted
// to sinks (stdout, webhook, SQLite, markdown report).
package domspect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/domspect/internal/clipboard"
	"github.com/hazyhaar/domspect/internal/dom"
	"github.com/hazyhaar/domspect/internal/errwatch"
	"github.com/hazyhaar/domspect/internal/idgen"
	"github.com/hazyhaar/domspect/internal/overlay"
	"github.com/hazyhaar/domspect/internal/probe"
	"github.com/hazyhaar/domspect/internal/selector"
	"github.com/hazyhaar/domspect/internal/sink"
	"github.com/hazyhaar/domspect/internal/style"
)

// scanSwitch is implemented by sessions that gate event reporting
// page-side. Sessions without page scripts (static documents, fakes)
// simply do not implement it.
type scanSwitch interface {
	StartScan(ctx context.Context) error
	StopScan(ctx context.Context) error
}

// InspectorConfig configures an Inspector.
type InspectorConfig struct {
	Session dom.Session
	PageURL string

	Cache    style.CacheConfig
	Selector selector.Config

	// OutGrace is how long the popup survives after the pointer leaves
	// an element, so it can be reached and clicked. Default: 100ms.
	OutGrace time.Duration

	// Sink receives pinned inspections. Optional.
	Sink sink.Sink

	// NewID generates inspection record IDs. Default: "insp_"-prefixed
	// UUIDv7.
	NewID idgen.Generator

	Logger *slog.Logger
}

// Inspector is the per-tab orchestrator: it owns the popup, the style
// cache, and the scan state machine. It implements probe.Listener, so
// wiring it to a page is one probe.New(cfg, inspector) away.
type Inspector struct {
	sess     dom.Session
	cache    *style.Cache
	analyzer *style.Analyzer
	popup    *overlay.Renderer
	clip     *clipboard.Writer
	errs     *errwatch.Reporter
	sinks    sink.Sink
	logger   *slog.Logger
	newID    idgen.Generator
	pageURL  string
	outGrace time.Duration
	ctx      context.Context

	mu        sync.Mutex
	scanning  bool
	current   *style.Inspection
	lastHover dom.ElementRef
	hoverSeq  uint64
	overPopup bool
	last      *sink.Record
}

// NewInspector assembles an Inspector around a session.
func NewInspector(cfg InspectorConfig) *Inspector {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OutGrace <= 0 {
		cfg.OutGrace = 100 * time.Millisecond
	}
	if cfg.NewID == nil {
		cfg.NewID = idgen.Prefixed("insp_", idgen.Default)
	}

	cfg.Cache.Logger = cfg.Logger
	cache := style.NewCache(cfg.Session, cfg.Cache)
	gen := selector.New(cfg.Session, cfg.Selector)
	analyzer := style.NewAnalyzer(cache, cfg.Session, gen.Generate, cfg.Logger)

	return &Inspector{
		sess:     cfg.Session,
		cache:    cache,
		analyzer: analyzer,
		popup:    overlay.NewRenderer(cfg.Session, cfg.Logger),
		clip:     clipboard.New(cfg.Session, cfg.Logger),
		errs:     errwatch.New(0, cfg.Logger),
		sinks:    cfg.Sink,
		logger:   cfg.Logger,
		newID:    cfg.NewID,
		pageURL:  cfg.PageURL,
		outGrace: cfg.OutGrace,
		ctx:      context.Background(),
	}
}

// SetContext sets the context used for session calls made from event
// callbacks.
func (i *Inspector) SetContext(ctx context.Context) {
	i.mu.Lock()
	i.ctx = ctx
	i.mu.Unlock()
}

// Toggle flips scanning. Activation turns on the crosshair cursor and
// arms the page probe; deactivation tears everything down and forgets
// cached styles.
func (i *Inspector) Toggle(ctx context.Context) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.scanning {
		i.deactivate(ctx)
		return false, nil
	}
	return true, i.activate(ctx)
}

// Scanning reports whether scan mode is active.
func (i *Inspector) Scanning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.scanning
}

// LastInspection returns the most recently pinned record, or nil.
func (i *Inspector) LastInspection() *sink.Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.last == nil {
		return nil
	}
	rec := *i.last
	return &rec
}

// CacheTick runs coarse cache maintenance. Wire it as the dispatcher's
// OnTick.
func (i *Inspector) CacheTick() {
	i.cache.PeriodicCleanup()
}

// ErrorCount returns how many errors of the given kind were recorded.
func (i *Inspector) ErrorCount(kind string) int {
	return i.errs.Count(kind)
}

// Close deactivates scanning and closes the sinks.
func (i *Inspector) Close(ctx context.Context) error {
	i.mu.Lock()
	if i.scanning {
		i.deactivate(ctx)
	}
	i.mu.Unlock()

	if i.sinks != nil {
		return i.sinks.Close()
	}
	return nil
}

// activate requires i.mu held.
func (i *Inspector) activate(ctx context.Context) error {
	if err := i.sess.SetScanCursor(ctx, true); err != nil {
		return fmt.Errorf("domspect: set scan cursor: %w", err)
	}
	if sw, ok := i.sess.(scanSwitch); ok {
		if err := sw.StartScan(ctx); err != nil {
			i.sess.SetScanCursor(ctx, false)
			return fmt.Errorf("domspect: arm probe: %w", err)
		}
	}
	i.scanning = true
	i.logger.Info("domspect: scanning started", "url", i.pageURL)
	return nil
}

// deactivate requires i.mu held.
func (i *Inspector) deactivate(ctx context.Context) {
	i.scanning = false
	i.current = nil
	i.hoverSeq++

	if sw, ok := i.sess.(scanSwitch); ok {
		if err := sw.StopScan(ctx); err != nil {
			i.logger.Warn("domspect: disarm probe failed", "error", err)
		}
	}
	if err := i.popup.Close(ctx); err != nil {
		i.logger.Warn("domspect: close popup failed", "error", err)
	}
	if err := i.sess.ClearHighlight(ctx); err != nil {
		i.logger.Warn("domspect: clear highlight failed", "error", err)
	}
	if err := i.sess.SetScanCursor(ctx, false); err != nil {
		i.logger.Warn("domspect: reset cursor failed", "error", err)
	}

	// A stopped session starts fresh: nothing stale to serve next time.
	i.cache.Clear()
	i.errs.Reset()
	i.logger.Info("domspect: scanning stopped", "url", i.pageURL)
}

// OnHover inspects the rested element and shows (or refreshes) the
// popup. Pinned popups stay put.
func (i *Inspector) OnHover(ev probe.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.scanning || i.popup.Pinned() || ev.Target.InPopup {
		return
	}
	i.hoverSeq++

	// Resting on the element already shown is a no-op beyond disarming
	// any pending grace close; rebuilding the popup would flicker.
	if i.popup.Shown() && ev.Target.Same(i.lastHover) {
		return
	}

	insp := i.analyzer.Inspect(i.ctx, ev.Target)
	i.current = &insp
	i.lastHover = ev.Target

	if err := i.sess.Highlight(i.ctx, ev.Target); err != nil {
		i.report("highlight", err)
	}
	if err := i.popup.Show(i.ctx, insp, ev.Pos); err != nil {
		i.report("popup", err)
	}
}

// OnOut arms the grace close: the popup survives briefly so the pointer
// can travel onto it.
func (i *Inspector) OnOut(ev probe.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.scanning || i.popup.Pinned() || !i.popup.Shown() {
		return
	}
	seq := i.hoverSeq

	time.AfterFunc(i.outGrace, func() {
		i.mu.Lock()
		defer i.mu.Unlock()

		if !i.scanning || i.popup.Pinned() || i.hoverSeq != seq || i.overPopup {
			return
		}
		i.closeCurrent()
	})
}

// OnMove follows the cursor with the unpinned popup.
func (i *Inspector) OnMove(ev probe.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.overPopup = ev.OverPopup
	if !i.scanning || i.popup.Pinned() || ev.OverPopup {
		return
	}
	if err := i.popup.Reposition(i.ctx, ev.Pos); err != nil {
		i.report("popup", err)
	}
}

// OnClick toggles the pin: a click on a page element pins the popup
// there and emits the record; a click while pinned releases it.
func (i *Inspector) OnClick(ev probe.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.scanning || ev.Target.InPopup || ev.OverPopup {
		return
	}

	if i.popup.Pinned() {
		i.popup.Unpin()
		i.logger.Debug("domspect: popup unpinned")
		return
	}

	// A click can beat the hover debounce; inspect the clicked element
	// before freezing the popup on it.
	if i.current == nil || !ev.Target.Same(i.lastHover) {
		i.hoverSeq++
		insp := i.analyzer.Inspect(i.ctx, ev.Target)
		i.current = &insp
		i.lastHover = ev.Target
		if err := i.sess.Highlight(i.ctx, ev.Target); err != nil {
			i.report("highlight", err)
		}
		if err := i.popup.Show(i.ctx, insp, ev.Pos); err != nil {
			i.report("popup", err)
			return
		}
	}

	i.popup.Pin()
	i.emitPinned()
}

// OnKey handles Escape: unpin first, stop scanning second.
func (i *Inspector) OnKey(ev probe.Event) {
	if ev.Key != "Escape" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.scanning {
		return
	}
	if i.popup.Pinned() {
		i.popup.Unpin()
		i.logger.Debug("domspect: popup unpinned")
		return
	}
	i.deactivate(i.ctx)
}

// OnCopy serializes the current inspection per the requested mode and
// writes it to the clipboard.
func (i *Inspector) OnCopy(ev probe.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.current == nil {
		i.report("copy", clipboard.ErrNothingToCopy)
		return
	}

	label, err := i.clip.Copy(i.ctx, *i.current, clipboard.Mode(ev.CopyMode))
	if err != nil {
		i.report("copy", err)
		return
	}
	i.logger.Info("domspect: copied", "what", label, "mode", ev.CopyMode)
}

// closeCurrent requires i.mu held.
func (i *Inspector) closeCurrent() {
	i.current = nil
	if err := i.popup.Close(i.ctx); err != nil {
		i.report("popup", err)
	}
	if err := i.sess.ClearHighlight(i.ctx); err != nil {
		i.report("highlight", err)
	}
}

// emitPinned requires i.mu held and i.current non-nil.
func (i *Inspector) emitPinned() {
	rec := sink.Record{
		ID:         i.newID(),
		PageURL:    i.pageURL,
		Inspection: *i.current,
		PanelHTML:  overlay.BuildPanel(*i.current),
		At:         time.Now(),
	}
	i.last = &rec

	if i.sinks == nil {
		return
	}
	if err := i.sinks.Send(i.ctx, rec); err != nil {
		i.report("sink", err)
	}
	i.logger.Info("domspect: inspection pinned",
		"id", rec.ID, "selector", rec.Inspection.Selector)
}

// report surfaces an error unless it has already been repeated past the
// suppression threshold.
func (i *Inspector) report(kind string, err error) {
	if i.errs.Report(kind, err) {
		i.logger.Warn("domspect: "+kind+" error", "error", err)
	}
}

var _ probe.Listener = (*Inspector)(nil)
