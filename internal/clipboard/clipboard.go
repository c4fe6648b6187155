// Package clipboard serializes inspection results to CSS text and writes
// them to the system clipboard, falling back to the page's clipboard API
// when no OS clipboard tool is available.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/hazyhaar/domspect/internal/dom"
	"github.com/hazyhaar/domspect/internal/style"
)

// Mode selects what part of an inspection gets copied.
type Mode string

const (
	ModeSelector Mode = "selector"
	ModeAll      Mode = "all"
	ModeComputed Mode = "computed"
	ModeInline   Mode = "inline"
)

// ErrEmptyContent is returned by an inline copy on an element with no
// inline styles. No clipboard write happens.
var ErrEmptyContent = errors.New("clipboard: element has no inline styles")

// ErrNothingToCopy is returned when the serialized text resolves to an
// empty rule. No clipboard write happens.
var ErrNothingToCopy = errors.New("clipboard: nothing to copy")

// ErrUnavailable is returned when both the OS clipboard tool and the
// page clipboard API fail.
type ErrUnavailable struct {
	OS   error
	Page error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("clipboard: unavailable (os: %v; page: %v)", e.OS, e.Page)
}

// Writer copies inspection data to the clipboard.
type Writer struct {
	sess   dom.Session
	logger *slog.Logger

	// writeOS is swapped in tests.
	writeOS func(text string) error
}

// New creates a Writer using the OS clipboard first and the session's
// page clipboard as fallback.
func New(sess dom.Session, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{sess: sess, logger: logger, writeOS: osWrite}
}

// Copy serializes the inspection per mode and writes it. It returns the
// label of what was copied. Selector copies never depend on computed
// styles: they succeed even when categorization produced nothing.
func (w *Writer) Copy(ctx context.Context, insp style.Inspection, mode Mode) (string, error) {
	var text string

	switch mode {
	case ModeSelector:
		text = insp.Selector

	case ModeComputed:
		text = FormatRule(insp.Selector, insp.Computed)

	case ModeAll:
		merged := make(map[string]string, len(insp.Computed)+len(insp.Inline))
		for p, v := range insp.Computed {
			merged[p] = v
		}
		for p, v := range insp.Inline {
			merged[p] = v
		}
		text = FormatRule(insp.Selector, merged)

	case ModeInline:
		if len(insp.Inline) == 0 {
			return "", ErrEmptyContent
		}
		text = FormatRule(insp.Selector, insp.Inline)

	default:
		return "", fmt.Errorf("clipboard: unknown copy mode %q", mode)
	}

	if !valid(text) {
		return "", ErrNothingToCopy
	}

	if err := w.write(ctx, text); err != nil {
		return "", err
	}
	return string(mode), nil
}

func (w *Writer) write(ctx context.Context, text string) error {
	osErr := w.writeOS(text)
	if osErr == nil {
		return nil
	}
	w.logger.Debug("clipboard: OS write failed, trying page API", "error", osErr)

	pageErr := w.sess.EvalClipboardWrite(ctx, text)
	if pageErr == nil {
		return nil
	}
	return &ErrUnavailable{OS: osErr, Page: pageErr}
}

// FormatRule renders props as a CSS rule: selector, then one sorted
// declaration per line. Uninteresting values are filtered here too, so
// copied text never contains them regardless of the source map.
func FormatRule(selector string, props map[string]string) string {
	keys := make([]string, 0, len(props))
	for p, v := range props {
		if style.Uninteresting(v) {
			continue
		}
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, p := range keys {
		fmt.Fprintf(&b, "  %s: %s;\n", p, props[p])
	}
	b.WriteString("}")
	return b.String()
}

// valid rejects text that resolves to nothing worth writing: empty,
// a bare "{}", or a rule with an empty body.
func valid(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "{}" {
		return false
	}
	if open := strings.Index(trimmed, "{"); open >= 0 && strings.HasSuffix(trimmed, "}") {
		body := trimmed[open+1 : len(trimmed)-1]
		if strings.TrimSpace(body) == "" {
			return false
		}
	}
	return true
}

// osWrite pipes text into the platform clipboard command.
func osWrite(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		switch {
		case lookPath("wl-copy"):
			cmd = exec.Command("wl-copy")
		case lookPath("xclip"):
			cmd = exec.Command("xclip", "-selection", "clipboard")
		case lookPath("xsel"):
			cmd = exec.Command("xsel", "--clipboard", "--input")
		default:
			return fmt.Errorf("clipboard: no clipboard tool on linux")
		}
	default:
		return fmt.Errorf("clipboard: unsupported OS %s", runtime.GOOS)
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
