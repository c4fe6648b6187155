package browser

import (
	"context"
	"fmt"

	"github.com/hazyhaar/domspect/internal/dom"
)

// ErrNodeGone is returned when a ref's element no longer exists in the
// page. The page owns its DOM; refs go stale whenever it mutates.
type ErrNodeGone struct {
	NodeID int64
}

func (e *ErrNodeGone) Error() string {
	return fmt.Sprintf("browser: node %d is gone from the page", e.NodeID)
}

// Session implements dom.Session against a live tab. Element lookups go
// through the probe's id registry, so the probe script must be installed
// before any Session call that takes a ref.
type Session struct {
	tab *Tab
}

// NewSession wraps a tab as a dom.Session.
func NewSession(tab *Tab) *Session {
	return &Session{tab: tab}
}

// baseStyles is inserted once per page. Everything the overlay needs is
// scoped under domspect- names to stay out of the page's way.
const baseStyles = `
#domspect-popup {
	position: fixed;
	visibility: hidden;
	z-index: 2147483646;
	max-width: 380px;
	max-height: 70vh;
	overflow-y: auto;
	background: #fff;
	color: #222;
	border: 1px solid #ccc;
	border-radius: 6px;
	box-shadow: 0 4px 16px rgba(0,0,0,0.25);
	font: 12px/1.5 -apple-system, system-ui, sans-serif;
	padding: 8px 10px;
}
#domspect-popup section > ul { display: none; }
#domspect-popup section.domspect-open > ul { display: block; }
.domspect-highlight { outline: 2px solid #4a90d9 !important; outline-offset: -1px; }
html.domspect-scan, html.domspect-scan * { cursor: crosshair !important; }
`

// EnsureStyles installs the overlay stylesheet. Idempotent.
func (s *Session) EnsureStyles(ctx context.Context) error {
	_, err := s.tab.Page.Context(ctx).Eval(`(css) => {
		if (document.getElementById('domspect-style')) return;
		const style = document.createElement('style');
		style.id = 'domspect-style';
		style.textContent = css;
		document.head.appendChild(style);
	}`, baseStyles)
	if err != nil {
		return fmt.Errorf("browser: install styles: %w", err)
	}
	return nil
}

func (s *Session) ComputedStyle(ctx context.Context, ref dom.ElementRef, props []string) (map[string]string, error) {
	res, err := s.tab.Page.Context(ctx).Eval(`(id, props) => {
		const el = window.__domspect && window.__domspect.byId(id);
		if (!el) return null;
		const cs = getComputedStyle(el);
		const out = {};
		for (const p of props) {
			out[p] = cs.getPropertyValue(p);
		}
		return out;
	}`, ref.NodeID, props)
	if err != nil {
		return nil, fmt.Errorf("browser: computed style: %w", err)
	}
	if res.Value.Nil() {
		return nil, &ErrNodeGone{NodeID: ref.NodeID}
	}

	out := make(map[string]string, len(props))
	for k, v := range res.Value.Map() {
		out[k] = v.Str()
	}
	return out, nil
}

func (s *Session) InlineStyle(ctx context.Context, ref dom.ElementRef) (string, error) {
	res, err := s.tab.Page.Context(ctx).Eval(`(id) => {
		const el = window.__domspect && window.__domspect.byId(id);
		if (!el) return null;
		return el.getAttribute('style') || '';
	}`, ref.NodeID)
	if err != nil {
		return "", fmt.Errorf("browser: inline style: %w", err)
	}
	if res.Value.Nil() {
		return "", &ErrNodeGone{NodeID: ref.NodeID}
	}
	return res.Value.Str(), nil
}

func (s *Session) MatchCount(ctx context.Context, selector string) (int, error) {
	res, err := s.tab.Page.Context(ctx).Eval(`(sel) => {
		try {
			return document.querySelectorAll(sel).length;
		} catch (e) {
			return -1;
		}
	}`, selector)
	if err != nil {
		return 0, fmt.Errorf("browser: match count: %w", err)
	}
	n := res.Value.Int()
	if n < 0 {
		return 0, fmt.Errorf("browser: invalid selector %q", selector)
	}
	return n, nil
}

func (s *Session) Viewport(ctx context.Context) (dom.Size, error) {
	res, err := s.tab.Page.Context(ctx).Eval(
		`() => ({ w: window.innerWidth, h: window.innerHeight })`)
	if err != nil {
		return dom.Size{}, fmt.Errorf("browser: viewport: %w", err)
	}
	m := res.Value.Map()
	return dom.Size{W: m["w"].Num(), H: m["h"].Num()}, nil
}

func (s *Session) ShowPopup(ctx context.Context, html string) (dom.Size, error) {
	if err := s.EnsureStyles(ctx); err != nil {
		return dom.Size{}, err
	}

	res, err := s.tab.Page.Context(ctx).Eval(`(html) => {
		const old = document.getElementById('domspect-popup');
		if (old) old.remove();
		document.body.insertAdjacentHTML('beforeend', html);
		const popup = document.getElementById('domspect-popup');
		if (!popup) return null;
		const rect = popup.getBoundingClientRect();
		return { w: rect.width, h: rect.height };
	}`, html)
	if err != nil {
		return dom.Size{}, fmt.Errorf("browser: show popup: %w", err)
	}
	if res.Value.Nil() {
		return dom.Size{}, fmt.Errorf("browser: popup markup has no popup root")
	}
	m := res.Value.Map()
	return dom.Size{W: m["w"].Num(), H: m["h"].Num()}, nil
}

func (s *Session) MovePopup(ctx context.Context, to dom.Point) error {
	_, err := s.tab.Page.Context(ctx).Eval(`(x, y) => {
		const popup = document.getElementById('domspect-popup');
		if (!popup) return;
		popup.style.left = x + 'px';
		popup.style.top = y + 'px';
		popup.style.visibility = 'visible';
	}`, to.X, to.Y)
	if err != nil {
		return fmt.Errorf("browser: move popup: %w", err)
	}
	return nil
}

func (s *Session) ClosePopup(ctx context.Context) error {
	_, err := s.tab.Page.Context(ctx).Eval(`() => {
		const popup = document.getElementById('domspect-popup');
		if (popup) popup.remove();
	}`)
	if err != nil {
		return fmt.Errorf("browser: close popup: %w", err)
	}
	return nil
}

func (s *Session) Highlight(ctx context.Context, ref dom.ElementRef) error {
	if err := s.EnsureStyles(ctx); err != nil {
		return err
	}

	res, err := s.tab.Page.Context(ctx).Eval(`(id) => {
		for (const el of document.querySelectorAll('.domspect-highlight')) {
			el.classList.remove('domspect-highlight');
		}
		const target = window.__domspect && window.__domspect.byId(id);
		if (!target) return false;
		target.classList.add('domspect-highlight');
		return true;
	}`, ref.NodeID)
	if err != nil {
		return fmt.Errorf("browser: highlight: %w", err)
	}
	if !res.Value.Bool() {
		return &ErrNodeGone{NodeID: ref.NodeID}
	}
	return nil
}

func (s *Session) ClearHighlight(ctx context.Context) error {
	_, err := s.tab.Page.Context(ctx).Eval(`() => {
		for (const el of document.querySelectorAll('.domspect-highlight')) {
			el.classList.remove('domspect-highlight');
		}
	}`)
	if err != nil {
		return fmt.Errorf("browser: clear highlight: %w", err)
	}
	return nil
}

func (s *Session) SetScanCursor(ctx context.Context, on bool) error {
	if err := s.EnsureStyles(ctx); err != nil {
		return err
	}
	_, err := s.tab.Page.Context(ctx).Eval(`(on) => {
		document.documentElement.classList.toggle('domspect-scan', on);
	}`, on)
	if err != nil {
		return fmt.Errorf("browser: scan cursor: %w", err)
	}
	return nil
}

// StartScan arms the in-page probe so it begins reporting events.
func (s *Session) StartScan(ctx context.Context) error {
	_, err := s.tab.Page.Context(ctx).Eval(
		`() => { if (window.__domspect) window.__domspect.start(); }`)
	if err != nil {
		return fmt.Errorf("browser: start scan: %w", err)
	}
	return nil
}

// StopScan quiets the in-page probe.
func (s *Session) StopScan(ctx context.Context) error {
	_, err := s.tab.Page.Context(ctx).Eval(
		`() => { if (window.__domspect) window.__domspect.stop(); }`)
	if err != nil {
		return fmt.Errorf("browser: stop scan: %w", err)
	}
	return nil
}

func (s *Session) EvalClipboardWrite(ctx context.Context, text string) error {
	res, err := s.tab.Page.Context(ctx).Eval(`async (text) => {
		if (!navigator.clipboard || !navigator.clipboard.writeText) return false;
		try {
			await navigator.clipboard.writeText(text);
			return true;
		} catch (e) {
			return false;
		}
	}`, text)
	if err != nil {
		return fmt.Errorf("browser: clipboard eval: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: page clipboard write refused")
	}
	return nil
}

var _ dom.Session = (*Session)(nil)
