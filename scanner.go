package domspect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/domspect/internal/browser"
	"github.com/hazyhaar/domspect/internal/config"
	"github.com/hazyhaar/domspect/internal/probe"
	"github.com/hazyhaar/domspect/internal/sink"
	"github.com/hazyhaar/domspect/internal/style"
)

// Scanner is the top-level daemon: it owns the browser, the tab, the
// probe, and the Inspector. Create one per inspected page.
type Scanner struct {
	cfg    *config.Config
	mgr    *browser.Manager
	logger *slog.Logger
	sinkR  *sink.Router

	mu     sync.Mutex
	tab    *browser.Tab
	src    *probe.BindingSource
	disp   *probe.Dispatcher
	insp   *Inspector
	cancel context.CancelFunc
}

// NewScanner creates a Scanner from configuration.
func NewScanner(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:   cfg.Browser.Remote,
		Headless:    cfg.Browser.HeadlessEnabled(),
		MemoryLimit: cfg.Browser.MemoryLimit,
		Logger:      logger,
	})

	return &Scanner{
		cfg:    cfg,
		mgr:    mgr,
		logger: logger,
		sinkR:  sink.NewRouter(logger, sinks...),
	}
}

// Start launches the browser, opens the page, installs the probe, and
// begins dispatching events. Scanning itself stays off until the first
// toggle.
func (s *Scanner) Start(ctx context.Context, pageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("domspect: start browser: %w", err)
	}

	tab, err := browser.OpenTab(ctx, s.mgr, pageURL, "inspect", s.cfg.Browser.NavTimeout)
	if err != nil {
		s.mgr.Close()
		return fmt.Errorf("domspect: open tab: %w", err)
	}
	s.tab = tab

	src := probe.NewBindingSource(tab, s.logger)
	if err := src.Install(ctx); err != nil {
		tab.Close()
		s.mgr.Close()
		return err
	}
	s.src = src

	sess := browser.NewSession(tab)
	s.insp = NewInspector(InspectorConfig{
		Session: sess,
		PageURL: pageURL,
		Cache: style.CacheConfig{
			SnapshotTTL:  s.cfg.Cache.TTL,
			CleanupEvery: s.cfg.Cache.CleanupEvery,
		},
		OutGrace: s.cfg.Probe.OutGrace,
		Sink:     s.sinkR,
		Logger:   s.logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.insp.SetContext(runCtx)

	s.disp = probe.New(probe.Config{
		Source:       src,
		HoverWindow:  s.cfg.Probe.HoverWindow,
		MoveInterval: s.cfg.Probe.MoveInterval,
		TickEvery:    s.cfg.Cache.CleanupEvery,
		OnTick:       s.insp.CacheTick,
		Logger:       s.logger,
	}, s.insp)
	go s.disp.Run(runCtx)

	s.logger.Info("domspect: ready", "url", pageURL)
	return nil
}

// Inspector returns the per-tab inspector, or nil before Start.
func (s *Scanner) Inspector() *Inspector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insp
}

// Stop tears down the probe, the tab, the sinks, and the browser.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.src != nil {
		s.src.Stop()
		s.src = nil
	}
	if s.insp != nil {
		// The router is closed below; only wind down scanning here.
		if s.insp.Scanning() {
			s.insp.Toggle(context.Background())
		}
		s.insp = nil
	}
	if s.tab != nil {
		s.tab.Close()
		s.tab = nil
	}
	s.sinkR.Close()
	s.mgr.Close()
	s.logger.Info("domspect: stopped")
}
