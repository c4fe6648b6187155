package domspect

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/domspect/internal/config"
	"github.com/hazyhaar/domspect/internal/sink"
)

// Sink is the output interface for pinned inspections.
type Sink = sink.Sink

// InspectionRecord is one pinned inspection as delivered to sinks.
type InspectionRecord = sink.Record

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewSQLiteSink creates an SQLite-backed inspection store.
func NewSQLiteSink(path string) (Sink, error) {
	return sink.NewSQLite(path)
}

// NewReportSink creates a markdown report appender.
func NewReportSink(path string) Sink {
	return sink.NewReport(path)
}

// BuildSinks instantiates every configured sink.
func BuildSinks(cfgs []config.SinkConfig, logger *slog.Logger) ([]Sink, error) {
	var sinks []Sink
	for _, sc := range cfgs {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(nil))
		case "webhook":
			if sc.URL == "" {
				return nil, fmt.Errorf("domspect: webhook sink needs a url")
			}
			sinks = append(sinks, NewWebhookSink(sc.URL, logger))
		case "sqlite":
			if sc.Path == "" {
				return nil, fmt.Errorf("domspect: sqlite sink needs a path")
			}
			s, err := NewSQLiteSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		case "report":
			if sc.Path == "" {
				return nil, fmt.Errorf("domspect: report sink needs a path")
			}
			sinks = append(sinks, NewReportSink(sc.Path))
		default:
			return nil, fmt.Errorf("domspect: unknown sink type %q", sc.Type)
		}
	}
	return sinks, nil
}
