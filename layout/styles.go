package layout

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/deepteams/snapshot/css"
)

// Side indices into Styles.Border.
const (
	Top = iota
	Right
	Bottom
	Left
)

// BorderSide is one resolved border edge.
type BorderSide struct {
	Width float64 // 0 when the style paints nothing
	Style string
	Color color.NRGBA
}

// Styles is the computed style of a node. Box metrics that depend on the
// containing block are filled in during layout.
type Styles struct {
	Display    string
	Position   string
	Visibility string
	BoxSizing  string
	TextAlign  string
	FontFamily string
	FontWeight int
	FontSize   float64
	LineHeight float64

	Color           color.NRGBA
	BackgroundColor color.NRGBA
	Opacity         float64
	BorderRadius    float64

	Margin  css.Edges
	Padding css.Edges
	Border  [4]BorderSide

	// Props holds the declared values after the cascade, with shorthands
	// expanded.
	Props map[string]string

	lineHeight string // declared line-height, inherited unresolved
}

// BorderWidths returns the border widths as edges.
func (s *Styles) BorderWidths() css.Edges {
	return css.Edges{
		Top:    s.Border[Top].Width,
		Right:  s.Border[Right].Width,
		Bottom: s.Border[Bottom].Width,
		Left:   s.Border[Left].Width,
	}
}

// Bold reports whether the font weight is 600 or more.
func (s *Styles) Bold() bool { return s.FontWeight >= 600 }

// IsBlock reports whether the display value generates a block-level box.
func (s *Styles) IsBlock() bool {
	switch s.Display {
	case "inline", "inline-block", "inline-flex", "inline-grid", "inline-table":
		return false
	}
	return true
}

// IsPositioned reports whether the position is anything but static.
func (s *Styles) IsPositioned() bool { return s.Position != "static" }

// OutOfFlow reports whether the box is absolutely or fixed positioned.
func (s *Styles) OutOfFlow() bool {
	return s.Position == "absolute" || s.Position == "fixed"
}

// initialStyles returns the styles of the document root.
func initialStyles() *Styles {
	return &Styles{
		Display:    "block",
		Position:   "static",
		Visibility: "visible",
		BoxSizing:  "content-box",
		TextAlign:  "left",
		FontFamily: "sans-serif",
		FontWeight: 400,
		FontSize:   css.DefaultFontSize,
		LineHeight: LineHeightRatio * css.DefaultFontSize,
		Color:      color.NRGBA{A: 0xff},
		Opacity:    1,
		Props:      map[string]string{},
		lineHeight: "normal",
	}
}

// textStyles returns the styles of a text run inside an element: the
// inherited properties only.
func (s *Styles) textStyles() *Styles {
	t := initialStyles()
	t.Display = "inline"
	t.inherit(s)
	t.LineHeight = s.LineHeight
	return t
}

func (s *Styles) inherit(p *Styles) {
	s.Visibility = p.Visibility
	s.TextAlign = p.TextAlign
	s.FontFamily = p.FontFamily
	s.FontWeight = p.FontWeight
	s.FontSize = p.FontSize
	s.Color = p.Color
	s.lineHeight = p.lineHeight
}

// computeStyles resolves declared values against the parent's computed
// styles. Values that fail to parse leave the inherited or initial value.
func computeStyles(props map[string]string, parent *Styles, viewportW, viewportH float64) *Styles {
	st := initialStyles()
	st.Display = "inline"
	st.Props = props
	st.inherit(parent)

	get := func(name string) (string, bool) {
		v, ok := props[name]
		if !ok {
			return "", false
		}
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "inherit" {
			pv, ok := parent.Props[name]
			return strings.ToLower(pv), ok
		}
		return v, v != "" && v != "initial" && v != "unset"
	}

	if v, ok := get("font-size"); ok {
		st.FontSize = fontSize(v, parent.FontSize, viewportW, viewportH)
	}
	ctx := css.Context{FontSize: st.FontSize, ViewportW: viewportW, ViewportH: viewportH}

	if v, ok := get("display"); ok {
		st.Display = v
	}
	if v, ok := get("position"); ok {
		switch v {
		case "static", "relative", "absolute", "fixed":
			st.Position = v
		case "sticky":
			st.Position = "relative"
		}
	}
	if v, ok := get("visibility"); ok {
		if v == "collapse" {
			v = "hidden"
		}
		st.Visibility = v
	}
	if v, ok := get("box-sizing"); ok {
		st.BoxSizing = v
	}
	if v, ok := get("text-align"); ok {
		switch v {
		case "start":
			v = "left"
		case "end":
			v = "right"
		}
		st.TextAlign = v
	}
	if v, ok := props["font-family"]; ok {
		st.FontFamily = strings.TrimSpace(v)
	}
	if v, ok := get("font-weight"); ok {
		st.FontWeight = fontWeight(v, parent.FontWeight)
	}
	if v, ok := get("line-height"); ok {
		st.lineHeight = v
	}
	st.LineHeight = lineHeight(st.lineHeight, st.FontSize, ctx)

	if v, ok := get("color"); ok {
		if c, ok := css.ParseColor(v); ok {
			st.Color = c
		}
	}
	if v, ok := get("background-color"); ok {
		if css.IsCurrentColor(v) {
			st.BackgroundColor = st.Color
		} else if c, ok := css.ParseColor(v); ok {
			st.BackgroundColor = c
		}
	}
	if v, ok := get("opacity"); ok {
		if f, ok := css.ParseNumber(v); ok {
			st.Opacity = min(max(f, 0), 1)
		}
	}

	for i, side := range boxSides {
		b := BorderSide{Style: "none", Color: st.Color}
		if v, ok := get("border-" + side + "-style"); ok {
			b.Style = v
		}
		if b.Style != "none" && b.Style != "hidden" {
			b.Width = 3
			if v, ok := get("border-" + side + "-width"); ok {
				if w, ok := css.BorderWidth(v, ctx); ok {
					b.Width = w
				}
			}
		}
		if v, ok := get("border-" + side + "-color"); ok && !css.IsCurrentColor(v) {
			if c, ok := css.ParseColor(v); ok {
				b.Color = c
			}
		}
		st.Border[i] = b
	}
	return st
}

// fontSize resolves a font-size against the parent's size.
func fontSize(v string, parentSize, vw, vh float64) float64 {
	keywords := map[string]float64{
		"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
		"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
	}
	if px, ok := keywords[v]; ok {
		return px
	}
	switch v {
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	ctx := css.Context{Container: parentSize, FontSize: parentSize, ViewportW: vw, ViewportH: vh}
	if px, ok := css.ParseLength(v, ctx); ok && px >= 0 {
		return px
	}
	return parentSize
}

func fontWeight(v string, parent int) int {
	switch v {
	case "normal":
		return 400
	case "bold":
		return 700
	case "bolder":
		return min(parent+300, 900)
	case "lighter":
		return max(parent-300, 100)
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 1000 {
		return n
	}
	return parent
}

// lineHeight resolves a line-height: normal, a unitless factor, a
// percentage of the font size or a length.
func lineHeight(v string, fontSize float64, ctx css.Context) float64 {
	if v == "" || v == "normal" {
		return LineHeightRatio * fontSize
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
		return f * fontSize
	}
	ctx.Container = fontSize
	if px, ok := css.ParseLength(v, ctx); ok && px >= 0 {
		return px
	}
	return LineHeightRatio * fontSize
}

// userAgentCSS holds the default styles applied before author rules.
const userAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, dl, dt, dd,
section, article, header, footer, nav, main, aside, address, blockquote,
figure, figcaption, form, fieldset, legend, pre, hr, table, details,
summary, center, tr, thead, tbody, tfoot, caption { display: block }
td, th { display: inline-block }
img, button, input, select, textarea, progress, meter, canvas, svg, video { display: inline-block }
body { margin: 8px }
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold }
h4 { margin: 1.33em 0; font-weight: bold }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold }
p, blockquote, dl, figure, pre, ul, ol { margin: 1em 0 }
ul, ol { padding-left: 40px }
blockquote, figure { margin-left: 40px; margin-right: 40px }
dd { margin-left: 40px }
b, strong, th, dt { font-weight: bold }
small { font-size: smaller }
big { font-size: larger }
hr { border: 1px inset gray; margin: 0.5em 0 }
center, th { text-align: center }
a { color: #0000ee }
mark { background-color: yellow }
button { padding: 1px 6px; border: 2px outset gray }
input, textarea, select { padding: 1px 2px; border: 2px inset gray }
`

var userAgentRules = ParseStylesheet(userAgentCSS)
