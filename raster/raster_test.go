package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/deepteams/snapshot/layout"
	"github.com/google/go-cmp/cmp"
)

var (
	red  = color.NRGBA{0xff, 0, 0, 0xff}
	blue = color.NRGBA{0, 0, 0xff, 0xff}
)

func div(x, y, w, h float64, bg color.NRGBA, children ...*layout.Node) *layout.Node {
	return &layout.Node{
		Tag:      "div",
		Box:      layout.Box{X: x, Y: y, W: w, H: h},
		Styles:   &layout.Styles{Opacity: 1, BackgroundColor: bg},
		Children: children,
		Visible:  true,
	}
}

func text(s string, x, y, fontSize float64) *layout.Node {
	w := float64(len([]rune(s))) * layout.CharWidth(fontSize)
	return &layout.Node{
		Tag: "#text",
		Box: layout.Box{X: x, Y: y, W: w, H: fontSize * layout.LineHeightRatio},
		Styles: &layout.Styles{
			Opacity:    1,
			FontSize:   fontSize,
			FontWeight: 400,
			LineHeight: fontSize * layout.LineHeightRatio,
			Color:      color.NRGBA{A: 0xff},
		},
		Text:    s,
		Visible: true,
	}
}

func whiteBuffer(w, h int) *PixelBuffer {
	buf := NewPixelBuffer(w, h)
	buf.Fill(White)
	return buf
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name string
		dst  RGBA
		src  RGBA
		want RGBA
	}{
		{"opaque overwrites", White, RGBA{1, 2, 3, 0xff}, RGBA{1, 2, 3, 0xff}},
		{"half over white", White, RGBA{0xff, 0, 0, 128}, RGBA{0xff, 127, 127, 0xff}},
		{"half over transparent", Transparent, RGBA{0xff, 0, 0, 128}, RGBA{0xff, 0, 0, 128}},
		{"clear source", RGBA{9, 9, 9, 9}, Transparent, RGBA{9, 9, 9, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewPixelBuffer(1, 1)
			buf.Set(0, 0, tt.dst)
			buf.Blend(0, 0, tt.src)
			if got := buf.At(0, 0); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixelBuffer_Clipping(t *testing.T) {
	buf := NewPixelBuffer(4, 4)
	buf.Set(-1, 0, Black)
	buf.Set(4, 4, Black)
	buf.Blend(0, 9, RGBA{1, 1, 1, 1})
	if got := buf.At(-1, 0); got != Transparent {
		t.Errorf("At outside = %v", got)
	}

	buf.FillRect(-2, -2, 4, 4, RGBA(red))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := Transparent
			if x < 2 && y < 2 {
				want = RGBA(red)
			}
			if got := buf.At(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestNewPixelBuffer(t *testing.T) {
	buf := NewPixelBuffer(3, 2)
	if len(buf.Data) != 3*2*4 {
		t.Errorf("len(Data) = %d", len(buf.Data))
	}
	if buf := NewPixelBuffer(-1, 5); buf.Width != 0 || len(buf.Data) != 0 {
		t.Errorf("negative width: %+v", buf)
	}
}

func TestCrop(t *testing.T) {
	buf := NewPixelBuffer(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			buf.Set(x, y, RGBA{uint8(x), uint8(y), 0, 0xff})
		}
	}
	got := buf.Crop(image.Rect(1, 1, 3, 9))
	if got.Width != 2 || got.Height != 3 {
		t.Fatalf("crop size %dx%d, want 2x3", got.Width, got.Height)
	}
	if c := got.At(1, 2); c != (RGBA{2, 3, 0, 0xff}) {
		t.Errorf("crop (1,2) = %v", c)
	}
	if empty := buf.Crop(image.Rect(5, 5, 8, 8)); empty.Width != 0 || empty.Height != 0 {
		t.Errorf("disjoint crop = %dx%d", empty.Width, empty.Height)
	}
}

func TestImageConversion(t *testing.T) {
	buf := NewPixelBuffer(2, 2)
	img := buf.ToNRGBA()
	buf.Set(1, 0, RGBA{10, 20, 30, 40})
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{10, 20, 30, 40}) {
		t.Errorf("ToNRGBA does not share pixels: %v", got)
	}

	src := image.NewNRGBA(image.Rect(2, 2, 4, 4))
	src.SetNRGBA(3, 2, color.NRGBA{1, 2, 3, 4})
	back := FromImage(src)
	if back.Width != 2 || back.Height != 2 {
		t.Fatalf("FromImage size %dx%d", back.Width, back.Height)
	}
	if got := back.At(1, 0); got != (RGBA{1, 2, 3, 4}) {
		t.Errorf("FromImage (1,0) = %v", got)
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	if got := FromImage(gray).At(0, 0); got != (RGBA{77, 77, 77, 0xff}) {
		t.Errorf("FromImage gray = %v", got)
	}
}

func TestRenderLayoutTree_Backgrounds(t *testing.T) {
	root := div(0, 0, 40, 20, color.NRGBA{},
		div(0, 0, 20, 10, red),
		div(10, 5, 10, 10, blue),
	)
	buf := whiteBuffer(40, 20)
	RenderLayoutTree(root, buf)

	tests := []struct {
		x, y int
		want RGBA
	}{
		{0, 0, RGBA(red)},
		{9, 9, RGBA(red)},
		{10, 5, RGBA(blue)},
		{19, 14, RGBA(blue)},
		{20, 0, White},
		{0, 10, White},
	}
	for _, tt := range tests {
		if got := buf.At(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderLayoutTree_OversizedBoxes(t *testing.T) {
	root := div(0, 0, 40, 40, color.NRGBA{},
		div(0, 0, 1e20, 1e20, red),
		div(-1e20, 10, 2e20, 5, blue),
	)
	buf := whiteBuffer(40, 40)
	RenderLayoutTree(root, buf)

	for _, p := range []image.Point{{0, 0}, {5, 5}, {39, 39}} {
		if got := buf.At(p.X, p.Y); got != RGBA(red) {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	for _, p := range []image.Point{{0, 10}, {39, 14}} {
		if got := buf.At(p.X, p.Y); got != RGBA(blue) {
			t.Errorf("pixel %v = %v, want blue", p, got)
		}
	}
}

func TestRenderLayoutTree_OversizedText(t *testing.T) {
	black := RGBA{0, 0, 0, 0xff}

	// A huge box keeps the whole run on one line.
	wide := text("hello world", 0, 0, 10)
	wide.Box.W = 1e20
	buf := whiteBuffer(20, 12)
	RenderLayoutTree(wide, buf)
	if got := buf.At(0, 3); got != black {
		t.Errorf("first glyph pixel = %v, want black", got)
	}

	// Centered in the same box, the run lands far off the buffer.
	wide.Styles.TextAlign = "center"
	buf = whiteBuffer(20, 12)
	RenderLayoutTree(wide, buf)
	if got := buf.At(0, 3); got != White {
		t.Errorf("centered glyph pixel = %v, want white", got)
	}

	// The first column of a huge H covers the whole buffer.
	huge := text("H", 0, 0, 1e20)
	huge.Box.Y = -(huge.Styles.LineHeight - 7e19) / 2
	buf = whiteBuffer(8, 8)
	RenderLayoutTree(huge, buf)
	for _, p := range []image.Point{{0, 0}, {7, 7}} {
		if got := buf.At(p.X, p.Y); got != black {
			t.Errorf("huge glyph pixel %v = %v, want black", p, got)
		}
	}
}

func TestRenderLayoutTree_Opacity(t *testing.T) {
	black := color.NRGBA{A: 0xff}
	half := div(0, 0, 2, 1, black)
	half.Styles.Opacity = 0.5
	inner := div(2, 0, 2, 1, black)
	inner.Styles.Opacity = 0.5
	outer := div(2, 0, 2, 1, color.NRGBA{}, inner)
	outer.Styles.Opacity = 0.5

	buf := whiteBuffer(4, 1)
	RenderLayoutTree(div(0, 0, 4, 1, color.NRGBA{}, half, outer), buf)
	if got := buf.At(0, 0); got != (RGBA{127, 127, 127, 0xff}) {
		t.Errorf("opacity 0.5 = %v", got)
	}
	if got := buf.At(2, 0); got != (RGBA{191, 191, 191, 0xff}) {
		t.Errorf("nested opacity 0.25 = %v", got)
	}
}

func TestRenderLayoutTree_Invisible(t *testing.T) {
	hidden := div(0, 0, 4, 4, red, div(0, 0, 4, 4, blue))
	hidden.Visible = false
	faded := div(0, 0, 4, 4, red)
	faded.Styles.Opacity = 0

	buf := whiteBuffer(4, 4)
	RenderLayoutTree(div(0, 0, 4, 4, color.NRGBA{}, hidden, faded), buf)
	want := whiteBuffer(4, 4)
	if !bytes.Equal(buf.Data, want.Data) {
		t.Error("invisible nodes were painted")
	}
	RenderLayoutTree(nil, buf)
}

func TestRenderLayoutTree_Borders(t *testing.T) {
	n := div(0, 0, 14, 14, color.NRGBA{})
	for i := range n.Styles.Border {
		n.Styles.Border[i] = layout.BorderSide{Width: 2, Style: "solid", Color: blue}
	}
	buf := whiteBuffer(20, 20)
	RenderLayoutTree(n, buf)

	for _, p := range []image.Point{{0, 0}, {13, 13}, {1, 7}, {12, 7}, {7, 0}, {7, 13}} {
		if got := buf.At(p.X, p.Y); got != RGBA(blue) {
			t.Errorf("border pixel %v = %v", p, got)
		}
	}
	for _, p := range []image.Point{{2, 2}, {7, 7}, {11, 11}, {14, 14}} {
		if got := buf.At(p.X, p.Y); got != White {
			t.Errorf("interior pixel %v = %v", p, got)
		}
	}
}

func TestBorderPattern(t *testing.T) {
	tests := []struct {
		style         string
		along, across int
		want          bool
	}{
		{"solid", 5, 0, true},
		{"dotted", 0, 0, true},
		{"dotted", 2, 0, false},
		{"dotted", 4, 1, true},
		{"dashed", 5, 0, true},
		{"dashed", 6, 0, false},
		{"dashed", 8, 0, true},
		{"double", 0, 1, false},
		{"double", 0, 0, true},
		{"double", 0, 2, true},
	}
	for _, tt := range tests {
		if got := borderPattern(tt.style, tt.along, tt.across, 2+boolInt(tt.style == "double")); got != tt.want {
			t.Errorf("borderPattern(%q, %d, %d) = %v, want %v", tt.style, tt.along, tt.across, got, tt.want)
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestRenderLayoutTree_BorderRadius(t *testing.T) {
	n := div(0, 0, 20, 20, red)
	n.Styles.BorderRadius = 10
	buf := whiteBuffer(20, 20)
	RenderLayoutTree(n, buf)
	for _, p := range []image.Point{{0, 0}, {19, 0}, {0, 19}, {19, 19}} {
		if got := buf.At(p.X, p.Y); got != White {
			t.Errorf("corner %v = %v, want white", p, got)
		}
	}
	for _, p := range []image.Point{{10, 10}, {10, 1}, {1, 10}} {
		if got := buf.At(p.X, p.Y); got != RGBA(red) {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
}

func TestRenderLayoutTree_Text(t *testing.T) {
	buf := whiteBuffer(12, 12)
	RenderLayoutTree(text("H", 0, 0, 10), buf)

	// Line height 12, glyph height 7: rows start at y = 3.
	black := RGBA{0, 0, 0, 0xff}
	for _, p := range []image.Point{{0, 3}, {0, 9}, {1, 6}, {4, 3}} {
		if got := buf.At(p.X, p.Y); got != black {
			t.Errorf("glyph pixel %v = %v, want black", p, got)
		}
	}
	for _, p := range []image.Point{{0, 2}, {0, 10}, {1, 5}, {5, 6}} {
		if got := buf.At(p.X, p.Y); got != White {
			t.Errorf("background pixel %v = %v, want white", p, got)
		}
	}
}

func TestRenderLayoutTree_GlyphFolding(t *testing.T) {
	render := func(s string) []byte {
		buf := whiteBuffer(30, 12)
		RenderLayoutTree(text(s, 0, 0, 10), buf)
		return buf.Data
	}
	tests := []struct{ a, b string }{
		{"hello", "HELLO"},
		{"é", "E"},
		{"☃", "?"},
		{"\x7f", "?"},
	}
	for _, tt := range tests {
		if !bytes.Equal(render(tt.a), render(tt.b)) {
			t.Errorf("%q does not render like %q", tt.a, tt.b)
		}
	}
	if bytes.Equal(render("A"), render("B")) {
		t.Error("distinct glyphs render the same")
	}
}

func TestRenderLayoutTree_TextAlign(t *testing.T) {
	n := text("I", 0, 0, 10)
	n.Box.W = 30
	n.Styles.TextAlign = "right"
	buf := whiteBuffer(30, 12)
	RenderLayoutTree(n, buf)
	// 'I' has its stem in the middle column of the last cell.
	if got := buf.At(26, 6); got != (RGBA{0, 0, 0, 0xff}) {
		t.Errorf("right-aligned stem = %v", got)
	}
	if got := buf.At(2, 6); got != White {
		t.Errorf("left cell = %v", got)
	}
}

func TestRenderLayoutTree_Computed(t *testing.T) {
	root := layout.Compute(`<div style="width:20px;height:10px;background:red"></div><p style="margin:0;color:#00f">x</p>`, "", 40, 40)
	buf := whiteBuffer(40, 40)
	RenderLayoutTree(root, buf)
	if got := buf.At(5, 5); got != RGBA(red) {
		t.Errorf("div pixel = %v", got)
	}
	if got := buf.At(25, 5); got != White {
		t.Errorf("outside div = %v", got)
	}

	var blues int
	for y := 10; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if buf.At(x, y) == RGBA(blue) {
				blues++
			}
		}
	}
	if blues == 0 {
		t.Error("paragraph text was not painted")
	}
}

func TestWithOpacity(t *testing.T) {
	c := RGBA{1, 2, 3, 200}
	got := []RGBA{withOpacity(c, 1.5), withOpacity(c, 0.5), withOpacity(c, -1)}
	want := []RGBA{c, {1, 2, 3, 100}, {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("withOpacity mismatch (-want +got):\n%s", diff)
	}
}
