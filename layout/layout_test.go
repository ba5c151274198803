package layout

import (
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func boxOf(t *testing.T, n *Node, path ...int) Box {
	t.Helper()
	return nodeAt(t, n, path...).Box
}

func nodeAt(t *testing.T, n *Node, path ...int) *Node {
	t.Helper()
	for _, i := range path {
		if i >= len(n.Children) {
			t.Fatalf("node %q has %d children, want index %d", n.Tag, len(n.Children), i)
		}
		n = n.Children[i]
	}
	return n
}

func TestCompute_SizedDiv(t *testing.T) {
	root := Compute(`<div style="width:100px;height:50px;background:red;">x</div>`, "", 800, 600)
	if root.Box != (Box{W: 800, H: 600}) {
		t.Fatalf("root box = %+v, want the viewport", root.Box)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	div := root.Children[0]
	if div.Box.W != 100 || div.Box.H < 50 {
		t.Errorf("div box = %+v, want width 100 and height >= 50", div.Box)
	}
	if div.Styles.BackgroundColor != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("background = %v", div.Styles.BackgroundColor)
	}
	if !nodeAt(t, div, 0).IsText() || nodeAt(t, div, 0).Text != "x" {
		t.Errorf("div child = %+v, want text x", div.Children[0])
	}
}

func TestCompute_ExtremeWidth(t *testing.T) {
	root := Compute(`<div style="width:1e20px">hello world</div>`, "", 800, 600)
	div := nodeAt(t, root, 0)
	if div.Box.W != 1e20 {
		t.Errorf("div width = %v, want 1e20", div.Box.W)
	}
	txt := nodeAt(t, div, 0)
	want := Box{W: 11 * CharWidth(txt.Styles.FontSize), H: txt.Styles.LineHeight}
	if diff := cmp.Diff(want, txt.Box, approx); diff != "" {
		t.Errorf("text box mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_TextAfterFullLine(t *testing.T) {
	tests := []struct {
		name  string
		width string
		want  Box
	}{
		{"fits beside the box", "40px", Box{X: 40, Y: 0, W: 5 * CharWidth(16), H: 16 * LineHeightRatio}},
		{"starts a new line", "100px", Box{X: 0, Y: 10, W: 5 * CharWidth(16), H: 16 * LineHeightRatio}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<div style="width:100px"><span style="display:inline-block;height:10px;width:` + tt.width + `"></span>hello</div>`
			root := Compute(html, "", 800, 600)
			if diff := cmp.Diff(tt.want, boxOf(t, root, 0, 1), approx); diff != "" {
				t.Errorf("text box mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompute_Boxes(t *testing.T) {
	tests := []struct {
		name string
		html string
		css  string
		path []int
		want Box
	}{
		{
			name: "blocks stack",
			html: `<div style="height:10px"></div><div style="height:20px"></div>`,
			path: []int{1},
			want: Box{X: 0, Y: 10, W: 800, H: 20},
		},
		{
			name: "margin padding border",
			html: `<div style="margin:10px;padding:5px;border:2px solid black">x</div>`,
			path: []int{0},
			want: Box{X: 10, Y: 10, W: 780, H: 19.2 + 14},
		},
		{
			name: "text inside padding",
			html: `<div style="margin:10px;padding:5px;border:2px solid black">x</div>`,
			path: []int{0, 0},
			want: Box{X: 17, Y: 17, W: 9.6, H: 19.2},
		},
		{
			name: "border-box",
			html: `<div style="box-sizing:border-box;width:100px;height:50px;padding:10px;border:5px solid red"></div>`,
			path: []int{0},
			want: Box{W: 100, H: 50},
		},
		{
			name: "content-box",
			html: `<div style="width:100px;height:50px;padding:10px;border:5px solid red"></div>`,
			path: []int{0},
			want: Box{W: 130, H: 80},
		},
		{
			name: "border without style paints nothing",
			html: `<div style="width:100px;height:50px;border:5px red"></div>`,
			path: []int{0},
			want: Box{W: 100, H: 50},
		},
		{
			name: "text wraps",
			html: `<div style="width:60px;font-size:10px">aaaaaaaaaaaaaaaaaaaa</div>`,
			path: []int{0},
			want: Box{W: 60, H: 24},
		},
		{
			name: "line-height",
			html: `<div style="font-size:10px;line-height:2">ab</div>`,
			path: []int{0, 0},
			want: Box{W: 12, H: 20},
		},
		{
			name: "display none takes no space",
			html: `<div style="display:none;height:50px">hi</div><div style="height:10px"></div>`,
			path: []int{1},
			want: Box{W: 800, H: 10},
		},
		{
			name: "visibility hidden takes space",
			html: `<div style="visibility:hidden;height:50px"></div><div style="height:10px"></div>`,
			path: []int{1},
			want: Box{Y: 50, W: 800, H: 10},
		},
		{
			name: "inline boxes share a line",
			html: `<p style="margin:0"><span>ab</span><span>cd</span></p>`,
			path: []int{0, 1},
			want: Box{X: 19.2, W: 19.2, H: 19.2},
		},
		{
			name: "space between inline boxes",
			html: `<p style="margin:0"><span>ab</span> <span>cd</span></p>`,
			path: []int{0, 1},
			want: Box{X: 28.8, W: 19.2, H: 19.2},
		},
		{
			name: "block breaks the line",
			html: `<span>ab</span><div style="height:5px"></div><span>cd</span>`,
			path: []int{2},
			want: Box{Y: 19.2 + 5, W: 19.2, H: 19.2},
		},
		{
			name: "br breaks the line",
			html: `<span>ab</span><br><span>cd</span>`,
			path: []int{2},
			want: Box{Y: 19.2, W: 19.2, H: 19.2},
		},
		{
			name: "text-align center",
			html: `<div style="text-align:center;width:100px;font-size:10px">abcd</div>`,
			path: []int{0, 0},
			want: Box{X: 38, W: 24, H: 12},
		},
		{
			name: "text-align right",
			html: `<div style="text-align:right;width:100px;font-size:10px">abcd</div>`,
			path: []int{0, 0},
			want: Box{X: 76, W: 24, H: 12},
		},
		{
			name: "margin auto centers",
			html: `<div style="width:200px;margin:0 auto;height:10px"></div>`,
			path: []int{0},
			want: Box{X: 300, W: 200, H: 10},
		},
		{
			name: "max-width",
			html: `<div style="max-width:100px;height:5px"></div>`,
			path: []int{0},
			want: Box{W: 100, H: 5},
		},
		{
			name: "min-height",
			html: `<div style="min-height:40px"></div>`,
			path: []int{0},
			want: Box{W: 800, H: 40},
		},
		{
			name: "max-height",
			html: `<div style="height:40px;max-height:30px"></div>`,
			path: []int{0},
			want: Box{W: 800, H: 30},
		},
		{
			name: "percent width",
			html: `<div style="width:50%"><div style="width:50%;height:1px"></div></div>`,
			path: []int{0, 0},
			want: Box{W: 200, H: 1},
		},
		{
			name: "percent height of viewport child",
			html: `<div style="height:50%"></div>`,
			path: []int{0},
			want: Box{W: 800, H: 300},
		},
		{
			name: "percent height of auto parent is auto",
			html: `<div><div style="height:50%"></div></div>`,
			path: []int{0, 0},
			want: Box{W: 800},
		},
		{
			name: "em units",
			html: `<div style="font-size:20px"><div style="font-size:1.5em;width:2em;height:1px"></div></div>`,
			path: []int{0, 0},
			want: Box{W: 60, H: 1},
		},
		{
			name: "viewport units",
			html: `<div style="width:10vw;height:10vh"></div>`,
			path: []int{0},
			want: Box{W: 80, H: 60},
		},
		{
			name: "body margin",
			html: `<body><div style="height:10px"></div></body>`,
			path: []int{0, 0},
			want: Box{X: 8, Y: 8, W: 784, H: 10},
		},
		{
			name: "h1 margins",
			html: `<h1 style="height:10px"></h1>`,
			path: []int{0},
			want: Box{Y: 21.44, W: 800, H: 10},
		},
		{
			name: "absolute against positioned parent",
			html: `<div style="position:relative;width:200px;height:100px"><div style="position:absolute;right:10px;bottom:10px;width:20px;height:20px"></div></div>`,
			path: []int{0, 0},
			want: Box{X: 170, Y: 70, W: 20, H: 20},
		},
		{
			name: "absolute against viewport",
			html: `<div style="height:30px"><div style="position:absolute;left:5px;top:6px;width:7px;height:8px"></div></div>`,
			path: []int{0, 0},
			want: Box{X: 5, Y: 6, W: 7, H: 8},
		},
		{
			name: "absolute consumes no space",
			html: `<div style="position:absolute;height:100px;width:10px"></div><div style="height:10px"></div>`,
			path: []int{1},
			want: Box{W: 800, H: 10},
		},
		{
			name: "absolute stretched between offsets",
			html: `<div style="position:absolute;left:10px;right:20px;top:0;bottom:100px"></div>`,
			path: []int{0},
			want: Box{X: 10, W: 770, H: 500},
		},
		{
			name: "absolute static position",
			html: `<div style="height:30px"></div><div style="position:absolute;width:5px;height:5px"></div>`,
			path: []int{1},
			want: Box{Y: 30, W: 5, H: 5},
		},
		{
			name: "absolute shrinks to content",
			html: `<div style="position:absolute;font-size:10px">abc</div>`,
			path: []int{0},
			want: Box{W: 18, H: 12},
		},
		{
			name: "fixed against viewport",
			html: `<body><div style="position:relative;top:50px"><div style="position:fixed;bottom:0;right:0;width:10px;height:10px"></div></div></body>`,
			path: []int{0, 0, 0},
			want: Box{X: 790, Y: 590, W: 10, H: 10},
		},
		{
			name: "relative offset",
			html: `<div style="position:relative;left:10px;top:5px;height:20px"></div><div style="height:10px"></div>`,
			path: []int{0},
			want: Box{X: 10, Y: 5, W: 800, H: 20},
		},
		{
			name: "relative does not move siblings",
			html: `<div style="position:relative;left:10px;top:5px;height:20px"></div><div style="height:10px"></div>`,
			path: []int{1},
			want: Box{Y: 20, W: 800, H: 10},
		},
		{
			name: "inline-block shrinks",
			html: `<span style="display:inline-block;padding:2px;font-size:10px">abc</span>`,
			path: []int{0},
			want: Box{W: 22, H: 16},
		},
		{
			name: "inline-block width",
			html: `<span style="display:inline-block;width:50px;height:20px"></span><span style="display:inline-block;width:30px;height:40px"></span>`,
			path: []int{1},
			want: Box{X: 50, W: 30, H: 40},
		},
		{
			name: "img attributes",
			html: `<img width="40" height="30">`,
			path: []int{0},
			want: Box{W: 40, H: 30},
		},
		{
			name: "stylesheet argument",
			html: `<div class="box"></div>`,
			css:  `.box { width: 10px; height: 20px }`,
			path: []int{0},
			want: Box{W: 10, H: 20},
		},
		{
			name: "style element",
			html: `<style>p { height: 30px; margin: 0 }</style><p></p>`,
			path: []int{0},
			want: Box{W: 800, H: 30},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Compute(tt.html, tt.css, 800, 600)
			if diff := cmp.Diff(tt.want, boxOf(t, root, tt.path...), approx); diff != "" {
				t.Errorf("box mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompute_Visibility(t *testing.T) {
	root := Compute(`<div style="display:none">a</div><div style="visibility:hidden">b</div><div>c</div>`, "", 100, 100)
	if len(root.Children) != 3 {
		t.Fatalf("got %d children", len(root.Children))
	}
	none, hidden, shown := root.Children[0], root.Children[1], root.Children[2]
	if none.Visible || none.Box != (Box{}) || len(none.Children) != 0 {
		t.Errorf("display:none node = %+v", none)
	}
	if hidden.Visible || hidden.Box.H == 0 || hidden.Children[0].Visible {
		t.Errorf("visibility:hidden node = %+v", hidden)
	}
	if !shown.Visible || !shown.Children[0].Visible {
		t.Errorf("visible node = %+v", shown)
	}
}

func TestCompute_Cascade(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	green := color.NRGBA{0, 128, 0, 255}
	tests := []struct {
		name string
		html string
		css  string
		want color.NRGBA
	}{
		{"later rule wins", `<div id="a" class="c"></div>`, `#a { color: red } .c { color: blue }`, blue},
		{"no specificity", `<div id="a"></div>`, `#a { color: red } div { color: blue }`, blue},
		{"important is ordinary", `<div class="c"></div>`, `.c { color: red !important } div { color: green }`, green},
		{"inline wins", `<div class="c" style="color: blue"></div>`, `.c { color: red }`, blue},
		{"inherited", `<section style="color: red"><div></div></section>`, ``, red},
		{"style element after argument", `<style>div { color: green }</style><div></div>`, `div { color: red }`, green},
		{"unmatched rule", `<div></div>`, `p { color: red }`, color.NRGBA{A: 255}},
		{"invalid value ignored", `<div style="color: red; color: nonsense"></div>`, ``, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Compute(tt.html, tt.css, 100, 100)
			var div *Node
			root.Walk(func(n *Node) bool {
				if n.Tag == "div" {
					div = n
				}
				return true
			})
			if div == nil {
				t.Fatal("no div")
			}
			if div.Styles.Color != tt.want {
				t.Errorf("color = %v, want %v", div.Styles.Color, tt.want)
			}
		})
	}
}

func TestCompute_Typography(t *testing.T) {
	root := Compute(`<h1>T</h1><p>a <b>b</b></p>`, "", 400, 400)
	h1 := root.Children[0]
	if h1.Styles.FontSize != 32 || !h1.Styles.Bold() {
		t.Errorf("h1 font = %v bold=%v", h1.Styles.FontSize, h1.Styles.Bold())
	}
	text := h1.Children[0]
	if text.Styles.FontSize != 32 || !text.Styles.Bold() || math.Abs(text.Box.H-38.4) > 1e-9 {
		t.Errorf("h1 text = %+v size %v", text.Box, text.Styles.FontSize)
	}
	b := nodeAt(t, root, 1, 1)
	if b.Tag != "b" || !b.Styles.Bold() {
		t.Errorf("b node = %q bold=%v", b.Tag, b.Styles.Bold())
	}
}

func TestCompute_Borders(t *testing.T) {
	root := Compute(`<div style="color: lime; border: 2px solid; border-left: 4px dashed blue; border-top-style: none"></div>`, "", 100, 100)
	got := root.Children[0].Styles.Border
	want := [4]BorderSide{
		{Width: 0, Style: "none", Color: color.NRGBA{0, 255, 0, 255}},
		{Width: 2, Style: "solid", Color: color.NRGBA{0, 255, 0, 255}},
		{Width: 2, Style: "solid", Color: color.NRGBA{0, 255, 0, 255}},
		{Width: 4, Style: "dashed", Color: color.NRGBA{0, 0, 255, 255}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("borders mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_RadiusAndOpacity(t *testing.T) {
	root := Compute(`<div style="width:40px;height:20px;border-radius:50%;opacity:0.5"></div><div style="width:40px;height:20px;border-radius:4px 8px"></div>`, "", 100, 100)
	a, b := root.Children[0].Styles, root.Children[1].Styles
	if a.BorderRadius != 10 || a.Opacity != 0.5 {
		t.Errorf("radius %v opacity %v, want 10 and 0.5", a.BorderRadius, a.Opacity)
	}
	if b.BorderRadius != 4 || b.Opacity != 1 {
		t.Errorf("radius %v opacity %v, want 4 and 1", b.BorderRadius, b.Opacity)
	}
}

func TestCompute_TolerantMarkup(t *testing.T) {
	root := Compute(`<!DOCTYPE html><!-- c --><div><span>a</div></span>b<p><br>x</p><script>var a = "<div>";</script>`, "", 200, 200)
	var tags []string
	for _, c := range root.Children {
		tags = append(tags, c.Tag)
	}
	if diff := cmp.Diff([]string{"div", textTag, "p"}, tags); diff != "" {
		t.Fatalf("root children mismatch (-want +got):\n%s", diff)
	}
	if span := nodeAt(t, root, 0, 0); span.Tag != "span" || span.Children[0].Text != "a" {
		t.Errorf("span = %+v", span)
	}
	p := root.Children[2]
	if len(p.Children) != 2 || p.Children[0].Tag != "br" || len(p.Children[0].Children) != 0 || p.Children[1].Text != "x" {
		t.Errorf("p children = %+v", p.Children)
	}
}

func TestCompute_Empty(t *testing.T) {
	root := Compute("", "", 10, 20)
	if root.Box != (Box{W: 10, H: 20}) || len(root.Children) != 0 || !root.Visible {
		t.Errorf("root = %+v", root)
	}
	root = Compute("<p>x</p>", "", -5, 0)
	if root.Box != (Box{}) {
		t.Errorf("negative viewport root = %+v", root.Box)
	}
}

func TestWalk_SkipsChildren(t *testing.T) {
	root := Compute(`<div><p>a</p></div><div></div>`, "", 100, 100)
	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Tag)
		return n.Tag != "div"
	})
	if diff := cmp.Diff([]string{documentTag, "div", "div"}, seen); diff != "" {
		t.Errorf("walk mismatch (-want +got):\n%s", diff)
	}
}
