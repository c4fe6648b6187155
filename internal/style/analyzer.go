package style

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/domspect/internal/dom"
)

// Inspection aggregates everything domspect knows about one element.
// Exactly one Inspection is live per scan session; a new hover replaces
// the previous one.
type Inspection struct {
	Tag      string   `json:"tag"`
	DOMID    string   `json:"dom_id,omitempty"`
	Classes  []string `json:"classes,omitempty"`
	Selector string   `json:"selector"`

	// Computed is the raw allow-listed snapshot, unfiltered.
	Computed map[string]string `json:"computed"`
	// Inline holds declarations parsed from the element's style attribute.
	Inline map[string]string `json:"inline,omitempty"`
	// Categories maps category name to surviving property→value pairs.
	// Categories with no surviving properties are absent.
	Categories map[string]map[string]string `json:"categories,omitempty"`

	At time.Time `json:"at"`
}

// Analyzer builds Inspections. It fails closed: whatever goes wrong
// inside, Inspect returns a usable (possibly degraded) result so a bad
// element never kills the hover flow.
type Analyzer struct {
	cache  *Cache
	sess   dom.Session
	selGen SelectorFunc
	logger *slog.Logger

	// failures counts degraded inspections, for stats.
	failures int64
}

// NewAnalyzer creates an Analyzer reading snapshots through cache and
// generating selectors with selGen.
func NewAnalyzer(cache *Cache, sess dom.Session, selGen SelectorFunc, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cache: cache, sess: sess, selGen: selGen, logger: logger}
}

// Inspect extracts a full Inspection for the element. On any internal
// failure it degrades to tag/id/classes with selector "unknown" and
// empty style maps.
func (a *Analyzer) Inspect(ctx context.Context, ref dom.ElementRef) Inspection {
	insp := Inspection{
		Tag:      ref.Tag,
		DOMID:    ref.ID,
		Classes:  ref.Classes,
		Selector: "unknown",
		Computed: map[string]string{},
		At:       time.Now(),
	}

	snap := a.cache.Snapshot(ctx, ref)
	insp.Computed = snap.Props
	insp.Categories = Categorize(snap.Props)

	insp.Selector = a.cache.Selector(ctx, ref, a.selGen)
	if insp.Selector == "" {
		insp.Selector = "unknown"
	}

	inline, err := a.sess.InlineStyle(ctx, ref)
	if err != nil {
		a.failures++
		a.logger.Debug("style: inline read failed", "tag", ref.Tag, "error", err)
	} else if decls := ParseInline(inline); len(decls) > 0 {
		insp.Inline = decls
	}

	return insp
}

// Categorize filters a snapshot into the fixed categories, keeping a
// property only when its value is interesting. Categories that end up
// empty are omitted.
func Categorize(props map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, cat := range CategoryOrder {
		for _, p := range categoryProps[cat] {
			v, ok := props[p]
			if !ok || Uninteresting(v) {
				continue
			}
			if out[cat] == nil {
				out[cat] = make(map[string]string)
			}
			out[cat][p] = v
		}
	}
	return out
}

// ParseInline parses a style attribute ("color: red; margin: 4px") into
// a property→value map. Independent of the categorization filter: inline
// declarations are shown verbatim, zero values included.
func ParseInline(styleText string) map[string]string {
	styleText = strings.TrimSpace(styleText)
	if styleText == "" {
		return nil
	}
	decls := make(map[string]string)
	for _, part := range strings.Split(styleText, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		decls[prop] = val
	}
	if len(decls) == 0 {
		return nil
	}
	return decls
}
