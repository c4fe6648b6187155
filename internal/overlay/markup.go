package overlay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/domspect/internal/style"
)

// PopupID is the DOM id of the inspection popup container. The probe
// uses it for containment checks.
const PopupID = "domspect-popup"

// strict strips every tag and escapes entities in page-derived strings
// before they are embedded in popup markup. Class names, selectors, and
// style values come straight from an untrusted page.
var strict = bluemonday.StrictPolicy()

func esc(s string) string {
	return strict.Sanitize(s)
}

// BuildPanel renders an inspection into the popup panel markup: header,
// selector block, copy actions, one collapsible section per present
// category, and an inline-styles section when the element has any.
func BuildPanel(insp style.Inspection) string {
	var b strings.Builder

	b.WriteString(`<div id="` + PopupID + `" class="domspect-popup" style="visibility:hidden">`)

	// Header: tag, id, classes.
	b.WriteString(`<div class="domspect-header"><span class="domspect-tag">`)
	b.WriteString(esc(insp.Tag))
	b.WriteString(`</span>`)
	if insp.DOMID != "" {
		b.WriteString(`<span class="domspect-id">#` + esc(insp.DOMID) + `</span>`)
	}
	for _, cls := range insp.Classes {
		b.WriteString(`<span class="domspect-class">.` + esc(cls) + `</span>`)
	}
	b.WriteString(`</div>`)

	// Selector block with copy actions.
	b.WriteString(`<div class="domspect-selector"><code>` + esc(insp.Selector) + `</code></div>`)
	b.WriteString(`<div class="domspect-actions">`)
	for _, mode := range []string{"selector", "all", "computed", "inline"} {
		fmt.Fprintf(&b, `<button class="domspect-copy" data-mode="%s">copy %s</button>`, mode, mode)
	}
	b.WriteString(`</div>`)

	// Category sections, fixed order, open by default.
	for _, cat := range style.CategoryOrder {
		props := insp.Categories[cat]
		if len(props) == 0 {
			continue
		}
		writeSection(&b, cat, props)
	}

	if len(insp.Inline) > 0 {
		writeSection(&b, "inline", insp.Inline)
	}

	b.WriteString(`</div>`)
	return b.String()
}

func writeSection(b *strings.Builder, name string, props map[string]string) {
	fmt.Fprintf(b, `<section class="domspect-section domspect-open" data-section="%s">`, esc(name))
	fmt.Fprintf(b, `<h4 class="domspect-section-header">%s</h4><ul>`, esc(name))
	for _, p := range sortedKeys(props) {
		fmt.Fprintf(b, `<li><span class="domspect-prop">%s</span>: <span class="domspect-val">%s</span></li>`,
			esc(p), esc(props[p]))
	}
	b.WriteString(`</ul></section>`)
}

// BuildFallback is the minimal static popup shown when panel construction
// or insertion fails.
func BuildFallback() string {
	return `<div id="` + PopupID + `" class="domspect-popup domspect-fallback">` +
		`inspection unavailable; reload the page to continue scanning</div>`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
