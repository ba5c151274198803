package layout

import (
	"math"
	"strings"
	"unicode/utf8"
)

// AdvanceRatio is the estimated advance of one character in em.
const AdvanceRatio = 0.6

// LineHeightRatio is the line height of line-height: normal, in em.
const LineHeightRatio = 1.2

// CharWidth returns the advance of one character at fontSize.
func CharWidth(fontSize float64) float64 {
	return AdvanceRatio * fontSize
}

// collapseSpace collapses runs of white space to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WrapText breaks text into lines of at most width pixels, at spaces
// where possible. Words longer than a line are split. A width narrower
// than one character still holds one character per line.
func WrapText(text string, fontSize, width float64) []string {
	text = collapseSpace(text)
	if text == "" {
		return nil
	}
	perLine := 1
	if cw := CharWidth(fontSize); cw > 0 && width > cw {
		fit := math.Floor(width/cw + 1e-9)
		perLine = int(min(fit, float64(utf8.RuneCountInString(text))))
	}

	var lines []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		if len(cur) > 0 && len(cur)+1+len(w) <= perLine {
			cur = append(append(cur, ' '), w...)
			continue
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
		for len(w) > perLine {
			lines = append(lines, string(w[:perLine]))
			w = w[perLine:]
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// measureText returns the box a text run occupies when wrapped to width.
func measureText(text string, st *Styles, width float64) (w, h float64) {
	lines := WrapText(text, st.FontSize, width)
	longest := 0
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	return float64(longest) * CharWidth(st.FontSize), float64(len(lines)) * st.LineHeight
}
