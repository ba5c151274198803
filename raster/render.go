package raster

import (
	"math"
	"unicode/utf8"

	"github.com/deepteams/snapshot/layout"
)

// RenderLayoutTree paints root and its descendants into buf in document
// order: background, borders, text, then children. Invisible nodes and
// their subtrees are skipped. Opacity multiplies down the tree.
func RenderLayoutTree(root *layout.Node, buf *PixelBuffer) {
	if root == nil || buf == nil {
		return
	}
	r := &renderer{buf: buf, font: newGlyphFolder()}
	r.node(root, 1)
}

type renderer struct {
	buf  *PixelBuffer
	font *glyphFolder
	mask []bool
}

func (r *renderer) node(n *layout.Node, opacity float64) {
	if !n.Visible || n.Styles == nil {
		return
	}
	opacity *= n.Styles.Opacity
	if opacity <= 0 {
		return
	}
	if n.IsText() {
		r.text(n, opacity)
		return
	}
	r.background(n, opacity)
	r.borders(n, opacity)
	for _, c := range n.Children {
		r.node(c, opacity)
	}
}

// maxCoord bounds pixel coordinates. Anything beyond it is far outside
// any buffer, and extents between two bounded coordinates fit in an int.
const maxCoord = 1 << 28

// span converts a float extent to whole pixels.
func span(from, to float64) (int, int) {
	return toPixel(from), toPixel(to)
}

func toPixel(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(min(max(v, -maxCoord), maxCoord)))
}

func (r *renderer) background(n *layout.Node, opacity float64) {
	c := withOpacity(RGBA(n.Styles.BackgroundColor), opacity)
	if c.A == 0 {
		return
	}
	b := n.Box
	x0, x1 := span(b.X, b.Right())
	y0, y1 := span(b.Y, b.Bottom())
	radius := n.Styles.BorderRadius
	if radius <= 0 {
		r.buf.FillRect(x0, y0, x1-x0, y1-y0, c)
		return
	}
	for y := max(y0, 0); y < min(y1, r.buf.Height); y++ {
		for x := max(x0, 0); x < min(x1, r.buf.Width); x++ {
			cov := roundedCoverage(float64(x)+0.5, float64(y)+0.5, b, radius)
			switch {
			case cov >= 1:
				r.buf.Blend(x, y, c)
			case cov > 0:
				r.buf.Blend(x, y, withOpacity(c, cov))
			}
		}
	}
}

// roundedCoverage returns how much of the pixel centered at (px, py) lies
// inside b with corners rounded by radius.
func roundedCoverage(px, py float64, b layout.Box, radius float64) float64 {
	dx := max(b.X+radius-px, px-(b.Right()-radius), 0)
	dy := max(b.Y+radius-py, py-(b.Bottom()-radius), 0)
	if dx == 0 || dy == 0 {
		return 1
	}
	return min(max(radius-math.Hypot(dx, dy)+0.5, 0), 1)
}

func (r *renderer) borders(n *layout.Node, opacity float64) {
	st, b := n.Styles, n.Box
	t, rt, bt, l := st.Border[layout.Top], st.Border[layout.Right], st.Border[layout.Bottom], st.Border[layout.Left]
	r.edge(b.X, b.Y, b.Right(), b.Y+t.Width, t, opacity, true)
	r.edge(b.X, b.Bottom()-bt.Width, b.Right(), b.Bottom(), bt, opacity, true)
	r.edge(b.X, b.Y+t.Width, b.X+l.Width, b.Bottom()-bt.Width, l, opacity, false)
	r.edge(b.Right()-rt.Width, b.Y+t.Width, b.Right(), b.Bottom()-bt.Width, rt, opacity, false)
}

// edge paints one border side covering [x0,x1)×[y0,y1). Horizontal edges
// run along x.
func (r *renderer) edge(fx0, fy0, fx1, fy1 float64, side layout.BorderSide, opacity float64, horizontal bool) {
	c := withOpacity(RGBA(side.Color), opacity)
	if side.Width <= 0 || c.A == 0 {
		return
	}
	x0, x1 := span(fx0, fx1)
	y0, y1 := span(fy0, fy1)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	thickness := y1 - y0
	if !horizontal {
		thickness = x1 - x0
	}
	for y := max(y0, 0); y < min(y1, r.buf.Height); y++ {
		for x := max(x0, 0); x < min(x1, r.buf.Width); x++ {
			along, across := x-x0, y-y0
			if !horizontal {
				along, across = y-y0, x-x0
			}
			if borderPattern(side.Style, along, across, thickness) {
				r.buf.Blend(x, y, c)
			}
		}
	}
}

// borderPattern reports whether the pixel at the given offsets along and
// across an edge of the given thickness is painted.
func borderPattern(style string, along, across, thickness int) bool {
	switch style {
	case "dotted":
		return along%(2*thickness) < thickness
	case "dashed":
		dash := 3 * thickness
		return along%(dash+thickness) < dash
	case "double":
		if thickness < 3 {
			return true
		}
		third := (thickness + 1) / 3
		return across < third || across >= thickness-third
	}
	return true
}

func (r *renderer) text(n *layout.Node, opacity float64) {
	st := n.Styles
	c := withOpacity(RGBA(st.Color), opacity)
	if c.A == 0 || st.FontSize <= 0 {
		return
	}
	scale := st.FontSize / unitsPerEm
	cw := layout.CharWidth(st.FontSize)
	for i, line := range layout.WrapText(n.Text, st.FontSize, n.Box.W) {
		x := n.Box.X
		switch lw := float64(utf8.RuneCountInString(line)) * cw; st.TextAlign {
		case "center":
			x += (n.Box.W - lw) / 2
		case "right", "end":
			x += n.Box.W - lw
		}
		y := n.Box.Y + float64(i)*st.LineHeight + (st.LineHeight-glyphH*scale)/2
		r.line(line, x, y, scale, st.Bold(), c)
	}
}

// line draws one line of glyphs with its top-left corner at (x, y). Glyph
// pixels are collected in a mask over the visible part of the line first so
// that overlapping strokes blend once.
func (r *renderer) line(s string, x, y, scale float64, bold bool, c RGBA) {
	x0, x1 := span(x, x+float64(utf8.RuneCountInString(s))*cellW*scale)
	y0, y1 := span(y, y+glyphH*scale)
	// Glyph pixels are at least one pixel wide and bold adds one more.
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1+2, r.buf.Width), min(y1+1, r.buf.Height)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	mw, mh := x1-x0, y1-y0
	if cap(r.mask) < mw*mh {
		r.mask = make([]bool, mw*mh)
	}
	mask := r.mask[:mw*mh]
	clear(mask)

	gx := x
	for _, ch := range s {
		g := r.font.glyph(ch)
		for col := 0; col < glyphW; col++ {
			bits := g[col]
			for row := 0; bits != 0; row, bits = row+1, bits>>1 {
				if bits&1 == 0 {
					continue
				}
				px0, px1 := span(gx+float64(col)*scale, gx+float64(col+1)*scale)
				py0, py1 := span(y+float64(row)*scale, y+float64(row+1)*scale)
				px1, py1 = max(px1, px0+1), max(py1, py0+1)
				if bold {
					px1++
				}
				for py := max(py0, y0); py < min(py1, y1); py++ {
					for px := max(px0, x0); px < min(px1, x1); px++ {
						mask[(py-y0)*mw+px-x0] = true
					}
				}
			}
		}
		gx += cellW * scale
	}

	for i, on := range mask {
		if on {
			r.buf.Blend(x0+i%mw, y0+i/mw, c)
		}
	}
}
