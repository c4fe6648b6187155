package style

// Category names, in the order sections appear in the inspection panel.
const (
	CategoryLayout     = "layout"
	CategoryBoxModel   = "box-model"
	CategoryBorder     = "border"
	CategoryBackground = "background"
	CategoryTypography = "typography"
	CategoryFlexGrid   = "flex-grid"
	CategoryEffects    = "effects"
)

// CategoryOrder is the fixed presentation order of categories.
var CategoryOrder = []string{
	CategoryLayout,
	CategoryBoxModel,
	CategoryBorder,
	CategoryBackground,
	CategoryTypography,
	CategoryFlexGrid,
	CategoryEffects,
}

// categoryProps maps each category to its property allow-list. The union
// of these lists is the full set of properties ever read from the page.
var categoryProps = map[string][]string{
	CategoryLayout: {
		"display", "position", "top", "right", "bottom", "left",
		"z-index", "float", "clear", "overflow",
	},
	CategoryBoxModel: {
		"width", "height", "min-width", "max-width", "min-height",
		"max-height", "margin", "padding", "box-sizing",
	},
	CategoryBorder: {
		"border", "border-width", "border-style", "border-color",
		"border-radius", "outline",
	},
	CategoryBackground: {
		"background-color", "background-image", "background-size",
		"background-position", "background-repeat",
	},
	CategoryTypography: {
		"font-family", "font-size", "font-weight", "font-style",
		"line-height", "color", "text-align", "text-decoration",
		"text-transform", "letter-spacing", "white-space",
	},
	CategoryFlexGrid: {
		"flex-direction", "justify-content", "align-items",
		"align-content", "flex-wrap", "gap",
		"grid-template-columns", "grid-template-rows",
	},
	CategoryEffects: {
		"opacity", "box-shadow", "transform", "transition",
		"filter", "visibility", "cursor",
	},
}

// AllowedProperties is the flattened allow-list, in category order. This
// is what the session is asked to resolve for a snapshot.
var AllowedProperties = func() []string {
	var props []string
	for _, cat := range CategoryOrder {
		props = append(props, categoryProps[cat]...)
	}
	return props
}()

// uninteresting holds resolved values that carry no information worth
// showing or copying. Hand-picked set; it can hide a deliberately set
// zero value such as a margin:0 override.
var uninteresting = map[string]struct{}{
	"auto":             {},
	"normal":           {},
	"none":             {},
	"initial":          {},
	"inherit":          {},
	"unset":            {},
	"0px":              {},
	"0":                {},
	"rgba(0,0,0,0)":    {},
	"rgba(0, 0, 0, 0)": {},
	"transparent":      {},
}

// Uninteresting reports whether a resolved value is in the filtered set.
func Uninteresting(v string) bool {
	_, ok := uninteresting[v]
	return ok
}
