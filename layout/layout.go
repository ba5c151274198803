package layout

import (
	"strconv"
	"strings"

	"github.com/deepteams/snapshot/css"
)

// Box is a rectangle in viewport pixels. For elements it is the border box.
type Box struct {
	X, Y, W, H float64
}

// Right returns X+W.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns Y+H.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Node is a laid-out element or text run.
type Node struct {
	Tag      string // lower-case element name, "#text" or "#document"
	Box      Box
	Styles   *Styles
	Text     string // collapsed text of a "#text" node
	Children []*Node
	// Visible is false for display:none and visibility:hidden boxes.
	Visible bool
}

// IsText reports whether n is a text run.
func (n *Node) IsText() bool { return n.Tag == textTag }

// Walk calls fn for n and its descendants in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	n.Walk(func(c *Node) bool {
		c.Box.X += dx
		c.Box.Y += dy
		return true
	})
}

// Compute lays out an HTML fragment styled by cssSrc and any <style>
// elements it contains, in a viewport of width×height pixels. The root
// node spans the viewport. Compute never fails: malformed markup and
// unknown properties are tolerated.
func Compute(htmlSrc, cssSrc string, width, height int) *Node {
	vw, vh := float64(max(width, 0)), float64(max(height, 0))
	doc, sheets := parseHTML(htmlSrc)

	l := &layouter{vw: vw, vh: vh, rules: ParseStylesheet(cssSrc)}
	for _, s := range sheets {
		l.rules = append(l.rules, ParseStylesheet(s)...)
	}

	st := initialStyles()
	viewport := Box{W: vw, H: vh}
	root := &Node{Tag: documentTag, Box: viewport, Styles: st, Visible: true}
	var pending []*deferred
	cb := container{Box: viewport, definiteH: true, pending: &pending}
	root.Children, _ = l.flow(doc.children, st, cb, true)
	l.place(pending, viewport)
	// Fixed boxes are placed last so no ancestor offset moves them.
	for len(l.fixed) > 0 {
		batch := l.fixed
		l.fixed = nil
		l.place(batch, viewport)
	}
	return root
}

// container is the content box children are laid out in.
type container struct {
	Box
	definiteH bool
	// pending collects absolutely positioned descendants until their
	// containing block is known.
	pending *[]*deferred
}

type deferred struct {
	el      *element
	st      *Styles
	slot    *Node
	staticX float64
	staticY float64
}

// blockMode adjusts how block sizes its content box.
type blockMode struct {
	shrink bool    // auto width fits the content
	height float64 // forced content height when hasH
	hasH   bool
}

type layouter struct {
	rules  []Rule
	vw, vh float64
	fixed  []*deferred
}

func (l *layouter) ctx(st *Styles, containerW float64) css.Context {
	return css.Context{Container: containerW, FontSize: st.FontSize, ViewportW: l.vw, ViewportH: l.vh}
}

// styles runs the cascade for el: user-agent rules, presentational
// attributes, author rules in source order, then the style attribute.
func (l *layouter) styles(el *element, parent *Styles) *Styles {
	if el.styles != nil {
		return el.styles
	}
	props := make(map[string]string)
	apply := func(rules []Rule) {
		for i := range rules {
			if !rules[i].matches(el) {
				continue
			}
			for _, d := range rules[i].Decls {
				setProperty(props, d.Property, d.Value)
			}
		}
	}
	apply(userAgentRules)
	for _, dim := range [...]string{"width", "height"} {
		if v, ok := el.attr(dim); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				props[dim] = strconv.Itoa(n) + "px"
			}
		}
	}
	if v, ok := el.attr("bgcolor"); ok {
		props["background-color"] = v
	}
	apply(l.rules)
	if v, ok := el.attr("style"); ok {
		for _, d := range ParseDeclarations(v) {
			setProperty(props, d.Property, d.Value)
		}
	}

	st := computeStyles(props, parent, l.vw, l.vh)
	if _, ok := el.attr("hidden"); ok {
		st.Display = "none"
	}
	el.styles = st
	return st
}

// line accumulates inline boxes left to right.
type line struct {
	x0, x, y float64
	height   float64
	items    []*Node
	space    bool // collapsible white space pending before the next item
}

func (ln *line) empty() bool { return len(ln.items) == 0 }

func (ln *line) add(n *Node, w, h float64) {
	ln.items = append(ln.items, n)
	ln.x += w
	ln.height = max(ln.height, h)
}

// align shifts the line's items for text-align within [x0, right].
func (ln *line) align(textAlign string, right float64) {
	free := right - ln.x
	if free <= 0 {
		return
	}
	var dx float64
	switch textAlign {
	case "center":
		dx = free / 2
	case "right":
		dx = free
	default:
		return
	}
	for _, n := range ln.items {
		n.translate(dx, 0)
	}
}

// flow lays out children in cb: block boxes stack vertically at full
// width and runs of inline boxes share a line until the next block or
// <br>. A text run that would get less than one character of width starts
// a fresh line instead. It returns the nodes and the height they consume.
func (l *layouter) flow(children []*element, parent *Styles, cb container, align bool) ([]*Node, float64) {
	var nodes []*Node
	y := cb.Y
	ln := line{x0: cb.X, x: cb.X, y: y}
	endLine := func() {
		if ln.empty() {
			ln.space = false
			return
		}
		if align {
			ln.align(parent.TextAlign, cb.Right())
		}
		y += ln.height
		ln = line{x0: cb.X, x: cb.X, y: y}
	}
	// spaceBefore inserts a pending inter-word space before an inline item.
	spaceBefore := func(fontSize float64) {
		if ln.space && !ln.empty() {
			ln.x += CharWidth(fontSize)
		}
		ln.space = false
	}

	for _, el := range children {
		if el.isText() {
			text := collapseSpace(el.text)
			if text == "" {
				ln.space = ln.space || el.text != ""
				continue
			}
			ts := parent.textStyles()
			ln.space = ln.space || startsWithSpace(el.text)
			spaceBefore(ts.FontSize)
			avail := cb.Right() - ln.x
			if avail < CharWidth(ts.FontSize) && !ln.empty() {
				endLine()
				avail = cb.W
			}
			w, h := measureText(text, ts, avail)
			n := &Node{Tag: textTag, Text: text, Box: Box{X: ln.x, Y: ln.y, W: w, H: h}, Styles: ts, Visible: ts.Visibility == "visible"}
			ln.add(n, w, h)
			nodes = append(nodes, n)
			ln.space = endsWithSpace(el.text)
			continue
		}
		if hiddenElements[el.tag] {
			continue
		}

		st := l.styles(el, parent)
		switch {
		case st.Display == "none":
			nodes = append(nodes, &Node{Tag: el.tag, Box: Box{X: ln.x, Y: ln.y}, Styles: st})

		case st.OutOfFlow():
			slot := &Node{Tag: el.tag, Styles: st}
			d := &deferred{el: el, st: st, slot: slot, staticX: ln.x, staticY: ln.y}
			if st.Position == "fixed" {
				l.fixed = append(l.fixed, d)
			} else {
				*cb.pending = append(*cb.pending, d)
			}
			nodes = append(nodes, slot)

		case el.tag == "br":
			n := &Node{Tag: el.tag, Box: Box{X: ln.x, Y: ln.y, H: st.LineHeight}, Styles: st, Visible: true}
			nodes = append(nodes, n)
			ln.add(n, 0, st.LineHeight)
			endLine()

		case !st.IsBlock():
			spaceBefore(parent.FontSize)
			n, w, h := l.inline(el, st, ln.x, ln.y, cb)
			ln.add(n, w, h)
			nodes = append(nodes, n)

		default:
			endLine()
			n, extent := l.block(el, st, cb.X, y, cb, blockMode{})
			nodes = append(nodes, n)
			y += extent
			ln = line{x0: cb.X, x: cb.X, y: y}
		}
	}
	endLine()
	return nodes, y - cb.Y
}

func startsWithSpace(s string) bool {
	return s != "" && strings.IndexByte(" \t\n\r\f", s[0]) >= 0
}

func endsWithSpace(s string) bool {
	return s != "" && strings.IndexByte(" \t\n\r\f", s[len(s)-1]) >= 0
}

// inline lays out an inline box starting at (x, y) and returns it with
// its outer width and height.
func (l *layouter) inline(el *element, st *Styles, x, y float64, cb container) (*Node, float64, float64) {
	remaining := container{Box: Box{X: cb.X, Y: cb.Y, W: cb.Right() - x, H: cb.H}, definiteH: cb.definiteH, pending: cb.pending}
	if st.Display != "inline" {
		n, _ := l.block(el, st, x, y, remaining, blockMode{shrink: true})
		return n, n.Box.W + st.Margin.Horizontal(), n.Box.H + st.Margin.Vertical()
	}

	ctx := l.ctx(st, cb.W)
	st.Margin, _, _ = l.margins(st, ctx)
	st.Margin.Top, st.Margin.Bottom = 0, 0
	st.Padding = l.padding(st, ctx)
	bw := st.BorderWidths()
	left := st.Margin.Left + bw.Left + st.Padding.Left
	right := st.Margin.Right + bw.Right + st.Padding.Right

	inner := container{
		Box:     Box{X: x + left, Y: y + bw.Top + st.Padding.Top, W: max(0, remaining.W-left-right)},
		pending: cb.pending,
	}
	var own []*deferred
	if st.IsPositioned() {
		inner.pending = &own
	}
	children, h := l.flow(el.children, st, inner, false)
	w := extent(children, inner.X)

	n := &Node{
		Tag:      el.tag,
		Box:      Box{X: x + st.Margin.Left, Y: y, W: w + bw.Horizontal() + st.Padding.Horizontal(), H: h + bw.Vertical() + st.Padding.Vertical()},
		Styles:   st,
		Children: children,
		Visible:  st.Visibility == "visible",
	}
	st.BorderRadius = l.radius(st, n.Box)
	if st.IsPositioned() {
		inner.Box.H = h
		l.place(own, inner.Box)
	}
	if st.Position == "relative" {
		n.translate(l.relativeOffset(st, cb))
	}
	return n, n.Box.W + st.Margin.Horizontal(), n.Box.H
}

// extent returns how far nodes reach right of x0.
func extent(nodes []*Node, x0 float64) float64 {
	right := x0
	for _, n := range nodes {
		right = max(right, n.Box.Right())
	}
	return right - x0
}

// block lays out a block-level box with its top-left margin edge at
// (x, y) and returns it with the vertical extent it consumes.
func (l *layouter) block(el *element, st *Styles, x, y float64, cb container, mode blockMode) (*Node, float64) {
	ctx := l.ctx(st, cb.W)
	var autoL, autoR bool
	st.Margin, autoL, autoR = l.margins(st, ctx)
	st.Padding = l.padding(st, ctx)
	bw := st.BorderWidths()
	edgeW := st.Padding.Horizontal() + bw.Horizontal()
	edgeH := st.Padding.Vertical() + bw.Vertical()
	borderBox := st.BoxSizing == "border-box"

	avail := max(0, cb.W-st.Margin.Horizontal()-edgeW)
	contentW, ok := l.size(st, "width", ctx, edgeW, borderBox, true)
	if !ok {
		contentW = avail
		if mode.shrink {
			contentW = min(avail, l.preferredWidth(el.children, st, ctx))
		}
	}
	contentW = max(0, l.clamp(st, "min-width", "max-width", contentW, ctx, edgeW, borderBox, true))
	if free := cb.W - contentW - edgeW - st.Margin.Horizontal(); free > 0 && !mode.shrink {
		switch {
		case autoL && autoR:
			st.Margin.Left += free / 2
			st.Margin.Right += free / 2
		case autoL:
			st.Margin.Left += free
		}
	}

	hctx := ctx
	hctx.Container = cb.H
	contentH, definiteH := l.size(st, "height", hctx, edgeH, borderBox, cb.definiteH)
	if mode.hasH && !definiteH {
		contentH, definiteH = max(0, mode.height), true
	}

	inner := container{
		Box:       Box{X: x + st.Margin.Left + bw.Left + st.Padding.Left, Y: y + st.Margin.Top + bw.Top + st.Padding.Top, W: contentW, H: contentH},
		definiteH: definiteH,
		pending:   cb.pending,
	}
	var own []*deferred
	if st.IsPositioned() {
		inner.pending = &own
	}
	children, flowH := l.flow(el.children, st, inner, true)
	if !definiteH {
		contentH = flowH
	}
	contentH = max(0, l.clamp(st, "min-height", "max-height", contentH, hctx, edgeH, borderBox, cb.definiteH))

	n := &Node{
		Tag:      el.tag,
		Box:      Box{X: x + st.Margin.Left, Y: y + st.Margin.Top, W: contentW + edgeW, H: contentH + edgeH},
		Styles:   st,
		Children: children,
		Visible:  st.Visibility == "visible",
	}
	st.BorderRadius = l.radius(st, n.Box)
	if st.IsPositioned() {
		padding := Box{X: n.Box.X + bw.Left, Y: n.Box.Y + bw.Top, W: n.Box.W - bw.Horizontal(), H: n.Box.H - bw.Vertical()}
		l.place(own, padding)
	}
	if st.Position == "relative" {
		n.translate(l.relativeOffset(st, cb))
	}
	return n, n.Box.H + st.Margin.Vertical()
}

// positioned lays out an absolutely or fixed positioned box against ref.
// Offsets that are auto leave the box at its static position.
func (l *layouter) positioned(el *element, st *Styles, ref Box, staticX, staticY float64) *Node {
	wctx := l.ctx(st, ref.W)
	hctx := l.ctx(st, ref.H)
	left, hasL := offset(st, "left", wctx)
	right, hasR := offset(st, "right", wctx)
	top, hasT := offset(st, "top", hctx)
	bottom, hasB := offset(st, "bottom", hctx)

	cb := container{Box: ref, definiteH: true}
	mode := blockMode{shrink: true}
	if _, ok := l.size(st, "width", wctx, 0, false, true); !ok && hasL && hasR {
		cb.W = max(0, ref.W-left-right)
		mode.shrink = false
	}
	if _, ok := l.size(st, "height", hctx, 0, false, true); !ok && hasT && hasB {
		probe := l.ctx(st, cb.W)
		m, _, _ := l.margins(st, probe)
		p := l.padding(st, probe)
		mode.hasH = true
		mode.height = ref.H - top - bottom - m.Vertical() - p.Vertical() - st.BorderWidths().Vertical()
	}

	n, _ := l.block(el, st, 0, 0, cb, mode)
	outerW := n.Box.W + st.Margin.Horizontal()
	outerH := n.Box.H + st.Margin.Vertical()

	x, y := staticX, staticY
	switch {
	case hasL:
		x = ref.X + left
	case hasR:
		x = ref.Right() - right - outerW
	}
	switch {
	case hasT:
		y = ref.Y + top
	case hasB:
		y = ref.Bottom() - bottom - outerH
	}
	n.translate(x, y)
	return n
}

// place lays out deferred absolutely positioned boxes against ref.
func (l *layouter) place(pending []*deferred, ref Box) {
	for _, d := range pending {
		*d.slot = *l.positioned(d.el, d.st, ref, d.staticX, d.staticY)
	}
}

func (l *layouter) relativeOffset(st *Styles, cb container) (dx, dy float64) {
	wctx := l.ctx(st, cb.W)
	hctx := l.ctx(st, cb.H)
	if v, ok := offset(st, "left", wctx); ok {
		dx = v
	} else if v, ok := offset(st, "right", wctx); ok {
		dx = -v
	}
	if v, ok := offset(st, "top", hctx); ok {
		dy = v
	} else if v, ok := offset(st, "bottom", hctx); ok {
		dy = -v
	}
	return dx, dy
}

func offset(st *Styles, prop string, ctx css.Context) (float64, bool) {
	v, ok := st.Props[prop]
	if !ok || css.IsAuto(v) {
		return 0, false
	}
	return css.ParseLength(v, ctx)
}

// size resolves width or height to a content-box size. Percentages need a
// definite container size.
func (l *layouter) size(st *Styles, prop string, ctx css.Context, edges float64, borderBox, definite bool) (float64, bool) {
	v, ok := st.Props[prop]
	if !ok || css.IsAuto(v) {
		return 0, false
	}
	if !definite && strings.HasSuffix(strings.TrimSpace(v), "%") {
		return 0, false
	}
	px, ok := css.ParseLength(v, ctx)
	if !ok {
		return 0, false
	}
	if borderBox {
		px -= edges
	}
	return max(px, 0), true
}

// clamp applies min-* and max-* to a content size; min wins over max.
func (l *layouter) clamp(st *Styles, minProp, maxProp string, v float64, ctx css.Context, edges float64, borderBox, definite bool) float64 {
	if hi, ok := l.size(st, maxProp, ctx, edges, borderBox, definite); ok {
		v = min(v, hi)
	}
	if lo, ok := l.size(st, minProp, ctx, edges, borderBox, definite); ok {
		v = max(v, lo)
	}
	return v
}

// margins resolves the four margins; auto resolves to 0 and is reported
// for the horizontal sides.
func (l *layouter) margins(st *Styles, ctx css.Context) (m css.Edges, autoL, autoR bool) {
	vals := [4]*float64{&m.Top, &m.Right, &m.Bottom, &m.Left}
	for i, side := range boxSides {
		v, ok := st.Props["margin-"+side]
		if !ok {
			continue
		}
		if css.IsAuto(v) {
			autoL = autoL || i == Left
			autoR = autoR || i == Right
			continue
		}
		*vals[i], _ = css.ParseLength(v, ctx)
	}
	return m, autoL, autoR
}

func (l *layouter) padding(st *Styles, ctx css.Context) css.Edges {
	var p css.Edges
	vals := [4]*float64{&p.Top, &p.Right, &p.Bottom, &p.Left}
	for i, side := range boxSides {
		if v, ok := st.Props["padding-"+side]; ok {
			if px, ok := css.ParseLength(v, ctx); ok && px > 0 {
				*vals[i] = px
			}
		}
	}
	return p
}

// radius resolves the first border-radius value against the box, capped
// at half its shorter side.
func (l *layouter) radius(st *Styles, b Box) float64 {
	v, ok := st.Props["border-radius"]
	if !ok {
		return 0
	}
	parts := css.Fields(strings.SplitN(v, "/", 2)[0])
	if len(parts) == 0 {
		return 0
	}
	r, ok := css.ParseLength(parts[0], l.ctx(st, b.W))
	if !ok || r < 0 {
		return 0
	}
	return min(r, b.W/2, b.H/2)
}

// preferredWidth estimates the content width children need without
// wrapping: the widest block or unbroken inline run.
func (l *layouter) preferredWidth(children []*element, parent *Styles, ctx css.Context) float64 {
	var best, run float64
	for _, c := range children {
		if c.isText() {
			if text := collapseSpace(c.text); text != "" {
				if run > 0 && startsWithSpace(c.text) {
					run += CharWidth(parent.FontSize)
				}
				run += float64(len([]rune(text))) * CharWidth(parent.FontSize)
			}
			continue
		}
		if hiddenElements[c.tag] {
			continue
		}
		st := l.styles(c, parent)
		if st.Display == "none" || st.OutOfFlow() {
			continue
		}
		if c.tag == "br" {
			best, run = max(best, run), 0
			continue
		}
		w := l.outerPreferredWidth(c, st, ctx)
		if st.IsBlock() {
			best, run = max(best, run, w), 0
		} else {
			run += w
		}
	}
	return max(best, run)
}

func (l *layouter) outerPreferredWidth(el *element, st *Styles, parentCtx css.Context) float64 {
	ctx := l.ctx(st, parentCtx.Container)
	m, _, _ := l.margins(st, ctx)
	p := l.padding(st, ctx)
	edges := p.Horizontal() + st.BorderWidths().Horizontal()
	borderBox := st.BoxSizing == "border-box"
	w, ok := l.size(st, "width", ctx, edges, borderBox, true)
	if !ok || st.Display == "inline" {
		w = l.preferredWidth(el.children, st, ctx)
	}
	w = l.clamp(st, "min-width", "max-width", w, ctx, edges, borderBox, true)
	return w + edges + m.Horizontal()
}
