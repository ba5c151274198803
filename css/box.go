package css

import (
	"image/color"
	"strings"
)

// Edges holds the four sides of a box property.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns Left+Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top+Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Fields splits a property value at whitespace outside parentheses, so
// "1px solid rgb(0, 0, 0)" yields three values.
func Fields(s string) []string {
	var out []string
	depth, start := 0, -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'):
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// ExpandBox maps a 1 to 4 value shorthand onto top, right, bottom and
// left. It returns false for any other number of values.
func ExpandBox(values []string) (top, right, bottom, left string, ok bool) {
	switch len(values) {
	case 1:
		return values[0], values[0], values[0], values[0], true
	case 2:
		return values[0], values[1], values[0], values[1], true
	case 3:
		return values[0], values[1], values[2], values[1], true
	case 4:
		return values[0], values[1], values[2], values[3], true
	}
	return "", "", "", "", false
}

// ParseBox parses a margin or padding shorthand. Values that are not
// lengths (auto included) resolve to 0.
func ParseBox(s string, ctx Context) Edges {
	t, r, b, l, ok := ExpandBox(Fields(s))
	if !ok {
		return Edges{}
	}
	length := func(v string) float64 {
		f, _ := ParseLength(v, ctx)
		return f
	}
	return Edges{Top: length(t), Right: length(r), Bottom: length(b), Left: length(l)}
}

// Border is a parsed border shorthand.
type Border struct {
	Width float64
	Style string
	Color color.NRGBA
	// CurrentColor is set when no color was given or the color is
	// currentcolor; Color is then zero.
	CurrentColor bool
}

// Visible reports whether the border paints anything.
func (b Border) Visible() bool {
	return b.Width > 0 && b.Style != "none" && b.Style != "hidden"
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// BorderWidth resolves a border width, including the thin, medium and
// thick keywords.
func BorderWidth(s string, ctx Context) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thin":
		return 1, true
	case "medium":
		return 3, true
	case "thick":
		return 5, true
	}
	w, ok := ParseLength(s, ctx)
	return max(w, 0), ok
}

// SplitBorder classifies the parts of a border shorthand without resolving
// them. Omitted parts take their initial values: "medium", "none" and
// "currentcolor". It returns false if a part is not a width, style or color.
func SplitBorder(s string) (width, style, colr string, ok bool) {
	width, style, colr = "medium", "none", "currentcolor"
	if v := strings.ToLower(strings.TrimSpace(s)); v == "none" || v == "0" {
		return "0", style, colr, true
	}
	for _, part := range Fields(s) {
		lower := strings.ToLower(part)
		if _, isWidth := BorderWidth(lower, Context{}); isWidth {
			width = lower
			continue
		}
		if borderStyles[lower] {
			style = lower
			continue
		}
		if _, isColor := ParseColor(lower); !isColor && !IsCurrentColor(lower) {
			return "", "", "", false
		}
		colr = lower
	}
	return width, style, colr, true
}

// ParseBorder parses a border shorthand such as "1px solid red" and
// resolves its width against ctx.
func ParseBorder(s string, ctx Context) (Border, bool) {
	width, style, colr, ok := SplitBorder(s)
	if !ok {
		return Border{}, false
	}
	b := Border{Style: style, CurrentColor: IsCurrentColor(colr)}
	b.Width, _ = BorderWidth(width, ctx)
	if !b.CurrentColor {
		b.Color, _ = ParseColor(colr)
	}
	return b, true
}
