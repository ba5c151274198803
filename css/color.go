package css

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Transparent is the color of the transparent keyword.
var Transparent = color.NRGBA{}

// IsCurrentColor reports whether s is the currentcolor keyword, which
// resolves to the element's own color property.
func IsCurrentColor(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "currentcolor")
}

// ParseColor parses a CSS color: hex notation, rgb()/rgba(), hsl()/hsla(),
// transparent or a named color. currentcolor is not resolved here and
// reports false; see IsCurrentColor.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.NRGBA{}, false
	case s == "transparent":
		return Transparent, true
	case s[0] == '#':
		return parseHex(s[1:])
	}
	if name, args, ok := function(s); ok {
		switch name {
		case "rgb", "rgba":
			return parseRGB(args)
		case "hsl", "hsla":
			return parseHSL(args)
		}
		return color.NRGBA{}, false
	}
	c, ok := namedColors[s]
	return c, ok
}

// function splits "name(args)" into its parts.
func function(s string) (name, args string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), s[open+1 : len(s)-1], true
}

func parseHex(h string) (color.NRGBA, bool) {
	digits := make([]uint8, len(h))
	for i := 0; i < len(h); i++ {
		v, ok := hexDigit(h[i])
		if !ok {
			return color.NRGBA{}, false
		}
		digits[i] = v
	}
	c := color.NRGBA{A: 0xff}
	switch len(h) {
	case 3, 4:
		c.R, c.G, c.B = digits[0]*0x11, digits[1]*0x11, digits[2]*0x11
		if len(h) == 4 {
			c.A = digits[3] * 0x11
		}
	case 6, 8:
		c.R, c.G, c.B = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		if len(h) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
	default:
		return color.NRGBA{}, false
	}
	return c, true
}

func hexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

// components splits function arguments in either the legacy comma form
// "r, g, b, a" or the modern space form "r g b / a". The alpha component
// is returned separately and is empty when absent.
func components(args string) (parts []string, alpha string, ok bool) {
	if i := strings.IndexByte(args, '/'); i >= 0 {
		if strings.Contains(args, ",") {
			return nil, "", false
		}
		alpha = strings.TrimSpace(args[i+1:])
		args = args[:i]
		if alpha == "" {
			return nil, "", false
		}
	}
	if strings.Contains(args, ",") {
		for _, p := range strings.Split(args, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, "", false
			}
			parts = append(parts, p)
		}
	} else {
		parts = strings.Fields(args)
	}
	if len(parts) == 4 && alpha == "" {
		alpha, parts = parts[3], parts[:3]
	}
	if len(parts) != 3 {
		return nil, "", false
	}
	return parts, alpha, true
}

func parseRGB(args string) (color.NRGBA, bool) {
	parts, alpha, ok := components(args)
	if !ok {
		return color.NRGBA{}, false
	}
	var ch [3]uint8
	for i, p := range parts {
		var v float64
		if pct, isPct := strings.CutSuffix(p, "%"); isPct {
			f, err := strconv.ParseFloat(pct, 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			v = f * 255 / 100
		} else {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			v = f
		}
		ch[i] = clamp255(v)
	}
	a, ok := parseAlpha(alpha)
	if !ok {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: a}, true
}

func parseHSL(args string) (color.NRGBA, bool) {
	parts, alpha, ok := components(args)
	if !ok {
		return color.NRGBA{}, false
	}
	h, ok := parseHue(parts[0])
	if !ok {
		return color.NRGBA{}, false
	}
	s, ok1 := parsePercent(parts[1])
	l, ok2 := parsePercent(parts[2])
	if !ok1 || !ok2 {
		return color.NRGBA{}, false
	}
	a, ok := parseAlpha(alpha)
	if !ok {
		return color.NRGBA{}, false
	}
	r, g, b := colorful.Hsl(h, clampUnit(s), clampUnit(l)).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, true
}

// parseHue returns a hue in degrees normalized to [0, 360).
func parseHue(s string) (float64, bool) {
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "deg"):
		s = strings.TrimSuffix(s, "deg")
	case strings.HasSuffix(s, "grad"):
		s, scale = strings.TrimSuffix(s, "grad"), 0.9
	case strings.HasSuffix(s, "rad"):
		s, scale = strings.TrimSuffix(s, "rad"), 180/math.Pi
	case strings.HasSuffix(s, "turn"):
		s, scale = strings.TrimSuffix(s, "turn"), 360
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	h := math.Mod(f*scale, 360)
	if h < 0 {
		h += 360
	}
	return h, true
}

// parsePercent parses "50%" as 0.5. Bare numbers are accepted as
// percentages too.
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f / 100, true
}

// parseAlpha parses an alpha component as a number in [0,1] or a
// percentage. An empty string is fully opaque.
func parseAlpha(s string) (uint8, bool) {
	if s == "" {
		return 0xff, true
	}
	f, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return clamp255(clampUnit(f) * 255), true
}

func clampUnit(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func clamp255(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}
