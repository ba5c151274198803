package css

import (
	"strconv"
	"strings"
)

// DefaultFontSize is the root font size in pixels.
const DefaultFontSize = 16

// Context holds the reference sizes that relative lengths resolve against.
type Context struct {
	Container    float64 // base for %
	FontSize     float64 // base for em; DefaultFontSize when zero
	RootFontSize float64 // base for rem; DefaultFontSize when zero
	ViewportW    float64 // base for vw
	ViewportH    float64 // base for vh
}

func (c Context) fontSize() float64 {
	if c.FontSize > 0 {
		return c.FontSize
	}
	return DefaultFontSize
}

func (c Context) rootFontSize() float64 {
	if c.RootFontSize > 0 {
		return c.RootFontSize
	}
	return DefaultFontSize
}

// Absolute units in CSS pixels at 96 dpi.
var absoluteUnits = map[string]float64{
	"px": 1,
	"pt": 96.0 / 72,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
	"q":  96 / 101.6,
}

// ParseLength resolves a length to pixels. Unitless numbers other than 0
// and the keyword auto are not lengths.
func ParseLength(s string, ctx Context) (float64, bool) {
	num, unit, ok := splitUnit(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return 0, false
	}
	if f, ok := absoluteUnits[unit]; ok {
		return num * f, true
	}
	switch unit {
	case "":
		return 0, num == 0
	case "%":
		return num / 100 * ctx.Container, true
	case "em":
		return num * ctx.fontSize(), true
	case "rem":
		return num * ctx.rootFontSize(), true
	case "ex", "ch":
		return num * ctx.fontSize() / 2, true
	case "vw":
		return num / 100 * ctx.ViewportW, true
	case "vh":
		return num / 100 * ctx.ViewportH, true
	case "vmin":
		return num / 100 * min(ctx.ViewportW, ctx.ViewportH), true
	case "vmax":
		return num / 100 * max(ctx.ViewportW, ctx.ViewportH), true
	}
	return 0, false
}

// IsAuto reports whether s is the auto keyword.
func IsAuto(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "auto")
}

// ParseNumber parses a plain number or a percentage, which is returned
// as a fraction ("50%" is 0.5).
func ParseNumber(s string) (float64, bool) {
	num, unit, ok := splitUnit(strings.TrimSpace(s))
	switch {
	case !ok:
		return 0, false
	case unit == "":
		return num, true
	case unit == "%":
		return num / 100, true
	}
	return 0, false
}

// splitUnit splits "12.5px" into 12.5 and "px".
func splitUnit(s string) (float64, string, bool) {
	i := len(s)
	for i > 0 && (s[i-1] == '%' || s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] >= 'A' && s[i-1] <= 'Z') {
		i--
	}
	if i == 0 {
		return 0, "", false
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return f, strings.ToLower(s[i:]), true
}
