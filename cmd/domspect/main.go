// Command domspect is the page style inspection daemon.
//
// Usage:
//
//	domspect -config domspect.yaml -url https://example.com   # full daemon from YAML config
//	domspect -url https://example.com                         # quick start with defaults
//	domspect -analyze page.html -at "#hero"                   # offline analysis of a saved page
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domspect"
	"github.com/hazyhaar/domspect/internal/command"
	"github.com/hazyhaar/domspect/internal/control"
	"github.com/hazyhaar/domspect/internal/selector"
	"github.com/hazyhaar/domspect/internal/staticdom"
	"github.com/hazyhaar/domspect/internal/style"
)

func main() {
	configPath := flag.String("config", "", "path to domspect.yaml config file")
	pageURL := flag.String("url", "", "URL of the page to inspect")
	analyzePath := flag.String("analyze", "", "analyze a saved HTML file offline and exit")
	atSelector := flag.String("at", "", "CSS selector of the element to analyze (with -analyze)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *pageURL, *analyzePath, *atSelector); err != nil {
		logger.Error("domspect: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, pageURL, analyzePath, atSelector string) error {
	if analyzePath != "" {
		return runAnalyze(ctx, analyzePath, atSelector)
	}

	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "usage: domspect [-config <file>] -url <url> | -analyze <file> -at <selector>")
		os.Exit(1)
		return nil
	}

	cfg := domspect.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = domspect.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	sinks, err := domspect.BuildSinks(cfg.Sinks, logger)
	if err != nil {
		return fmt.Errorf("build sinks: %w", err)
	}

	scanner := domspect.NewScanner(cfg, logger, sinks...)
	if err := scanner.Start(ctx, pageURL); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer scanner.Stop()

	router := command.New(command.WithLogger(logger))
	command.RegisterScanCommands(router, scanner.Inspector())

	ctl := control.New(router, scanner.Inspector().LastInspection, cfg.Control, logger)

	if cfg.Control.MCP {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "domspect",
			Version: "1.0.0",
		}, nil)
		ctl.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Error("mcp server", "error", err)
			}
		}()
	}

	return ctl.ListenAndServe(ctx)
}

// runAnalyze inspects one element of a saved HTML document without a
// browser. Computed styles need a renderer, so only structure, the
// generated selector, and inline styles are reported.
func runAnalyze(ctx context.Context, path, atSelector string) error {
	if atSelector == "" {
		return fmt.Errorf("-analyze requires -at <selector>")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	doc, err := staticdom.Parse(f)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	refs, err := doc.Query(atSelector)
	if err != nil {
		return fmt.Errorf("query %q: %w", atSelector, err)
	}
	if len(refs) == 0 {
		return fmt.Errorf("no element matches %q", atSelector)
	}

	sess := staticdom.NewSession(doc)
	gen := selector.New(sess, selector.Config{})
	cache := style.NewCache(sess, style.CacheConfig{})
	analyzer := style.NewAnalyzer(cache, sess, gen.Generate, nil)

	insp := analyzer.Inspect(ctx, refs[0])

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(insp)
}
