package raster

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Glyph cell metrics in font units. The advance of one cell is 0.6 em,
// matching the layout engine's text estimate.
const (
	glyphW     = 5
	glyphH     = 7
	cellW      = glyphW + 1
	unitsPerEm = 10
)

// glyphs holds the 5×7 bitmaps, one byte per column, bit 0 at the top.
// Only upper-case letters are present: text is folded before lookup.
var glyphs = map[rune][glyphW]byte{
	' ':  {0x00, 0x00, 0x00, 0x00, 0x00},
	'!':  {0x00, 0x00, 0x5f, 0x00, 0x00},
	'"':  {0x00, 0x07, 0x00, 0x07, 0x00},
	'#':  {0x14, 0x7f, 0x14, 0x7f, 0x14},
	'$':  {0x24, 0x2a, 0x7f, 0x2a, 0x12},
	'%':  {0x23, 0x13, 0x08, 0x64, 0x62},
	'&':  {0x36, 0x49, 0x55, 0x22, 0x50},
	'\'': {0x00, 0x05, 0x03, 0x00, 0x00},
	'(':  {0x00, 0x1c, 0x22, 0x41, 0x00},
	')':  {0x00, 0x41, 0x22, 0x1c, 0x00},
	'*':  {0x08, 0x2a, 0x1c, 0x2a, 0x08},
	'+':  {0x08, 0x08, 0x3e, 0x08, 0x08},
	',':  {0x00, 0x50, 0x30, 0x00, 0x00},
	'-':  {0x08, 0x08, 0x08, 0x08, 0x08},
	'.':  {0x00, 0x60, 0x60, 0x00, 0x00},
	'/':  {0x20, 0x10, 0x08, 0x04, 0x02},
	'0':  {0x3e, 0x51, 0x49, 0x45, 0x3e},
	'1':  {0x00, 0x42, 0x7f, 0x40, 0x00},
	'2':  {0x42, 0x61, 0x51, 0x49, 0x46},
	'3':  {0x21, 0x41, 0x45, 0x4b, 0x31},
	'4':  {0x18, 0x14, 0x12, 0x7f, 0x10},
	'5':  {0x27, 0x45, 0x45, 0x45, 0x39},
	'6':  {0x3c, 0x4a, 0x49, 0x49, 0x30},
	'7':  {0x01, 0x71, 0x09, 0x05, 0x03},
	'8':  {0x36, 0x49, 0x49, 0x49, 0x36},
	'9':  {0x06, 0x49, 0x49, 0x29, 0x1e},
	':':  {0x00, 0x36, 0x36, 0x00, 0x00},
	';':  {0x00, 0x56, 0x36, 0x00, 0x00},
	'<':  {0x08, 0x14, 0x22, 0x41, 0x00},
	'=':  {0x14, 0x14, 0x14, 0x14, 0x14},
	'>':  {0x00, 0x41, 0x22, 0x14, 0x08},
	'?':  {0x02, 0x01, 0x51, 0x09, 0x06},
	'@':  {0x32, 0x49, 0x79, 0x41, 0x3e},
	'A':  {0x7e, 0x11, 0x11, 0x11, 0x7e},
	'B':  {0x7f, 0x49, 0x49, 0x49, 0x36},
	'C':  {0x3e, 0x41, 0x41, 0x41, 0x22},
	'D':  {0x7f, 0x41, 0x41, 0x22, 0x1c},
	'E':  {0x7f, 0x49, 0x49, 0x49, 0x41},
	'F':  {0x7f, 0x09, 0x09, 0x09, 0x01},
	'G':  {0x3e, 0x41, 0x49, 0x49, 0x7a},
	'H':  {0x7f, 0x08, 0x08, 0x08, 0x7f},
	'I':  {0x00, 0x41, 0x7f, 0x41, 0x00},
	'J':  {0x20, 0x40, 0x41, 0x3f, 0x01},
	'K':  {0x7f, 0x08, 0x14, 0x22, 0x41},
	'L':  {0x7f, 0x40, 0x40, 0x40, 0x40},
	'M':  {0x7f, 0x02, 0x0c, 0x02, 0x7f},
	'N':  {0x7f, 0x04, 0x08, 0x10, 0x7f},
	'O':  {0x3e, 0x41, 0x41, 0x41, 0x3e},
	'P':  {0x7f, 0x09, 0x09, 0x09, 0x06},
	'Q':  {0x3e, 0x41, 0x51, 0x21, 0x5e},
	'R':  {0x7f, 0x09, 0x19, 0x29, 0x46},
	'S':  {0x46, 0x49, 0x49, 0x49, 0x31},
	'T':  {0x01, 0x01, 0x7f, 0x01, 0x01},
	'U':  {0x3f, 0x40, 0x40, 0x40, 0x3f},
	'V':  {0x1f, 0x20, 0x40, 0x20, 0x1f},
	'W':  {0x3f, 0x40, 0x38, 0x40, 0x3f},
	'X':  {0x63, 0x14, 0x08, 0x14, 0x63},
	'Y':  {0x07, 0x08, 0x70, 0x08, 0x07},
	'Z':  {0x61, 0x51, 0x49, 0x45, 0x43},
	'[':  {0x00, 0x7f, 0x41, 0x41, 0x00},
	'\\': {0x02, 0x04, 0x08, 0x10, 0x20},
	']':  {0x00, 0x41, 0x41, 0x7f, 0x00},
	'^':  {0x04, 0x02, 0x01, 0x02, 0x04},
	'_':  {0x40, 0x40, 0x40, 0x40, 0x40},
	'`':  {0x00, 0x01, 0x02, 0x04, 0x00},
	'{':  {0x00, 0x08, 0x36, 0x41, 0x00},
	'|':  {0x00, 0x00, 0x7f, 0x00, 0x00},
	'}':  {0x00, 0x41, 0x36, 0x08, 0x00},
	'~':  {0x08, 0x04, 0x08, 0x10, 0x08},
}

// glyphFolder maps text runes to glyph runes. A folder is not safe for
// concurrent use.
type glyphFolder struct {
	upper   cases.Caser
	strip   transform.Transformer
	scratch map[rune]rune
}

func newGlyphFolder() *glyphFolder {
	return &glyphFolder{
		upper:   cases.Upper(language.Und),
		strip:   transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		scratch: make(map[rune]rune),
	}
}

// glyph returns the bitmap drawn for r. Each input rune maps to exactly
// one glyph so that drawn text keeps the width the layout measured.
func (f *glyphFolder) glyph(r rune) [glyphW]byte {
	g, ok := f.scratch[r]
	if !ok {
		g = f.fold(r)
		f.scratch[r] = g
	}
	return glyphs[g]
}

func (f *glyphFolder) fold(r rune) rune {
	if _, ok := glyphs[r]; ok {
		return r
	}
	s := f.upper.String(string(r))
	if stripped, _, err := transform.String(f.strip, s); err == nil && stripped != "" {
		s = stripped
	}
	if g, _ := utf8.DecodeRuneInString(s); g != utf8.RuneError {
		if _, ok := glyphs[g]; ok {
			return g
		}
	}
	return '?'
}
