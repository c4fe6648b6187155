package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// Report appends each pinned inspection to a markdown file, converting
// the rendered panel so the report reads the same as the on-page view.
type Report struct {
	mu   sync.Mutex
	path string
	conv *converter.Converter
}

// NewReport creates a Report sink writing to path. Parent directories
// are created on first write.
func NewReport(path string) *Report {
	return &Report{
		path: path,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (r *Report) Send(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## %s\n\n", rec.Inspection.Selector)
	fmt.Fprintf(&sb, "- id: `%s`\n", rec.ID)
	fmt.Fprintf(&sb, "- page: %s\n", rec.PageURL)
	fmt.Fprintf(&sb, "- at: %s\n\n", rec.At.UTC().Format("2006-01-02T15:04:05Z"))

	if rec.PanelHTML != "" {
		md, err := r.conv.ConvertString(rec.PanelHTML)
		if err == nil && strings.TrimSpace(md) != "" {
			sb.WriteString(strings.TrimSpace(md))
			sb.WriteString("\n")
		}
	} else {
		r.writeRules(&sb, rec)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", r.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// Close is a no-op; the report file is opened per write.
func (r *Report) Close() error { return nil }

// writeRules emits a plain property listing when no panel was rendered.
func (r *Report) writeRules(sb *strings.Builder, rec Record) {
	for _, cat := range sortedKeys(rec.Inspection.Categories) {
		fmt.Fprintf(sb, "### %s\n\n", cat)
		props := rec.Inspection.Categories[cat]
		for _, p := range sortedKeys(props) {
			fmt.Fprintf(sb, "- `%s: %s`\n", p, props[p])
		}
		sb.WriteString("\n")
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
