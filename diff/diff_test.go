package diff

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/internal/metric"
	"github.com/deepteams/snapshot/png"
)

// solid returns w×h pixels of color c.
func solid(w, h int, c color.NRGBA) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pix
}

func set(pix []byte, w, x, y int, c color.NRGBA) {
	i := (y*w + x) * 4
	pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
}

func encode(t *testing.T, pix []byte, w, h int) []byte {
	t.Helper()
	data, err := png.EncodeRGBA(pix, w, h)
	if err != nil {
		t.Fatalf("EncodeRGBA: %v", err)
	}
	return data
}

func pixelOpts(threshold float64) *Options {
	o := DefaultOptions()
	o.Algorithm = Pixel
	o.Threshold = threshold
	return o
}

func TestCompare_Identical(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pix := make([]byte, 17*9*4)
	rng.Read(pix)
	data := encode(t, pix, 17, 9)

	for _, alg := range []Algorithm{Perceptual, Pixel} {
		for _, th := range []float64{0, 0.1, 1} {
			opts := DefaultOptions()
			opts.Algorithm, opts.Threshold, opts.Alpha = alg, th, 0
			res, err := Compare(data, data, opts)
			if err != nil {
				t.Fatalf("%v/%v: %v", alg, th, err)
			}
			if !res.Match || res.DiffPixels != 0 || res.DiffPercentage != 0 {
				t.Errorf("%v/%v: got %+v, want a match", alg, th, res)
			}
			if res.TotalPixels != 17*9 || res.Verdict != "identical" || len(res.Regions) != 0 {
				t.Errorf("%v/%v: got %+v", alg, th, res)
			}
			if res.SSIM != 1 || res.PSNR != metric.MaxPSNR {
				t.Errorf("%v/%v: SSIM = %v, PSNR = %v", alg, th, res.SSIM, res.PSNR)
			}
		}
	}
}

func TestCompare_ThresholdBoundary(t *testing.T) {
	gray := color.NRGBA{100, 100, 100, 0xff}
	a := solid(4, 4, gray)
	b := solid(4, 4, gray)
	set(b, 4, 2, 2, color.NRGBA{130, 100, 100, 0xff})
	pa, pb := encode(t, a, 4, 4), encode(t, b, 4, 4)

	// |ΔR| = 30 flags under the pixel rule while threshold×765 < 30.
	for _, tt := range []struct {
		threshold float64
		want      int
	}{{0, 1}, {0.039, 1}, {0.04, 0}, {0.5, 0}, {1, 0}} {
		res, err := Compare(pa, pb, pixelOpts(tt.threshold))
		if err != nil {
			t.Fatal(err)
		}
		if res.DiffPixels != tt.want {
			t.Errorf("pixel threshold %v: DiffPixels = %d, want %d", tt.threshold, res.DiffPixels, tt.want)
		}
	}

	prev := 1
	for i := 0; i <= 100; i++ {
		opts := DefaultOptions()
		opts.Threshold = float64(i) / 100
		res, err := Compare(pa, pb, opts)
		if err != nil {
			t.Fatal(err)
		}
		switch {
		case res.DiffPixels > prev:
			t.Fatalf("perceptual threshold %v: DiffPixels rose to %d", opts.Threshold, res.DiffPixels)
		case i == 0 && res.DiffPixels != 1:
			t.Fatalf("perceptual threshold 0: DiffPixels = %d, want 1", res.DiffPixels)
		case i == 100 && res.DiffPixels != 0:
			t.Fatalf("perceptual threshold 1: DiffPixels = %d, want 0", res.DiffPixels)
		}
		prev = res.DiffPixels
	}
}

func TestCompare_SizeMismatch(t *testing.T) {
	a := encode(t, solid(2, 2, color.NRGBA{A: 0xff}), 2, 2)
	b := encode(t, solid(3, 1, color.NRGBA{A: 0xff}), 3, 1)
	res, err := Compare(a, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := &Result{
		DiffPixels:     4,
		TotalPixels:    4,
		DiffPercentage: 100,
		Width:          3,
		Height:         2,
		Verdict:        "completely_different",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("size mismatch result (-want +got):\n%s", diff)
	}
}

func TestCompare_DiffImage(t *testing.T) {
	white := color.NRGBA{0xff, 0xff, 0xff, 0xff}
	a := solid(3, 1, white)
	set(a, 3, 1, 0, color.NRGBA{0xff, 0, 0, 0xff})
	set(a, 3, 2, 0, color.NRGBA{})
	b := solid(3, 1, white)
	set(b, 3, 1, 0, color.NRGBA{0, 0, 0xff, 0xff})
	set(b, 3, 2, 0, color.NRGBA{})

	opts := pixelOpts(0)
	opts.DiffColor = color.NRGBA{0, 0xff, 0, 10}
	res, err := Compare(encode(t, a, 3, 1), encode(t, b, 3, 1), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Match || res.DiffPixels != 1 {
		t.Fatalf("got %+v, want one changed pixel", res)
	}
	img, err := png.Decode(res.DiffImage)
	if err != nil {
		t.Fatalf("decode diff image: %v", err)
	}
	want := []byte{
		77, 77, 77, 0xff, // white dimmed
		0, 0xff, 0, 0xff, // flagged, forced opaque
		77, 77, 77, 0xff, // transparent shows as white, dimmed
	}
	if diff := cmp.Diff(want, img.Pix); diff != "" {
		t.Errorf("diff image (-want +got):\n%s", diff)
	}
}

func TestCompare_AntiAliasing(t *testing.T) {
	// Columns black, gray and white: the gray column is an edge.
	edge := func(mid uint8) []byte {
		pix := make([]byte, 3*3*4)
		for y := 0; y < 3; y++ {
			set(pix, 3, 0, y, color.NRGBA{0, 0, 0, 0xff})
			set(pix, 3, 1, y, color.NRGBA{128, 128, 128, 0xff})
			set(pix, 3, 2, y, color.NRGBA{0xff, 0xff, 0xff, 0xff})
		}
		set(pix, 3, 1, 1, color.NRGBA{mid, mid, mid, 0xff})
		return pix
	}
	a, b := encode(t, edge(128), 3, 3), encode(t, edge(140), 3, 3)

	opts := pixelOpts(0)
	res, err := Compare(a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.DiffPixels != 1 {
		t.Errorf("without AA suppression: DiffPixels = %d, want 1", res.DiffPixels)
	}

	opts.IncludeAA = true
	res, err = Compare(a, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.DiffPixels != 0 || !res.Match {
		t.Errorf("with AA suppression: DiffPixels = %d, want 0", res.DiffPixels)
	}

	// An isolated dot is not anti-aliasing.
	flat := solid(3, 3, color.NRGBA{0xff, 0xff, 0xff, 0xff})
	dot := solid(3, 3, color.NRGBA{0xff, 0xff, 0xff, 0xff})
	set(dot, 3, 1, 1, color.NRGBA{0, 0, 0, 0xff})
	res, err = Compare(encode(t, flat, 3, 3), encode(t, dot, 3, 3), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.DiffPixels != 1 {
		t.Errorf("isolated dot: DiffPixels = %d, want 1", res.DiffPixels)
	}
}

func TestCompare_Alpha(t *testing.T) {
	a := encode(t, solid(1, 1, color.NRGBA{10, 20, 30, 0xff}), 1, 1)
	b := encode(t, solid(1, 1, color.NRGBA{10, 20, 30, 200}), 1, 1)
	for _, tt := range []struct {
		alpha float64
		want  int
	}{{0, 1}, {0.1, 1}, {0.5, 0}} {
		opts := pixelOpts(0)
		opts.Alpha = tt.alpha
		res, err := Compare(a, b, opts)
		if err != nil {
			t.Fatal(err)
		}
		if res.DiffPixels != tt.want {
			t.Errorf("alpha %v: DiffPixels = %d, want %d", tt.alpha, res.DiffPixels, tt.want)
		}
	}

	// Fully transparent pixels look the same over white whatever their RGB.
	c := encode(t, solid(1, 1, color.NRGBA{0, 0, 0, 0}), 1, 1)
	d := encode(t, solid(1, 1, color.NRGBA{0xff, 0, 0xff, 0}), 1, 1)
	opts := DefaultOptions()
	opts.Threshold = 0
	res, err := Compare(c, d, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Match {
		t.Errorf("transparent pixels differ: %+v", res)
	}
}

func TestCompare_RegionsAndDeltaE(t *testing.T) {
	white := color.NRGBA{0xff, 0xff, 0xff, 0xff}
	black := color.NRGBA{0, 0, 0, 0xff}
	a := solid(10, 10, white)
	b := solid(10, 10, white)
	for _, p := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {7, 7}} {
		set(b, 10, p[0], p[1], black)
	}
	res, err := Compare(encode(t, a, 10, 10), encode(t, b, 10, 10), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Region{
		{X: 1, Y: 1, Width: 2, Height: 2, Pixels: 3},
		{X: 7, Y: 7, Width: 1, Height: 1, Pixels: 1},
	}
	if diff := cmp.Diff(want, res.Regions); diff != "" {
		t.Errorf("regions (-want +got):\n%s", diff)
	}
	if res.DiffPixels != 4 || res.DiffPercentage != 4 || res.Verdict != "minor_changes" {
		t.Errorf("got %+v", res)
	}
	if res.MeanDeltaE < 50 {
		t.Errorf("MeanDeltaE = %v, want a large black/white distance", res.MeanDeltaE)
	}
	// Four of 100 pixels off by 255 in luma.
	if math.Abs(res.PSNR-20) > 1e-9 {
		t.Errorf("PSNR = %v, want 20", res.PSNR)
	}
	if res.SSIM <= 0 || res.SSIM >= 1 {
		t.Errorf("SSIM = %v, want within (0, 1)", res.SSIM)
	}
}

func TestCompare_Errors(t *testing.T) {
	good := encode(t, solid(1, 1, color.NRGBA{A: 0xff}), 1, 1)
	tests := []struct {
		name string
		a, b []byte
		opts *Options
		kind errs.Kind
	}{
		{"garbage first", []byte("not a png"), good, nil, errs.KindMalformedInput},
		{"garbage second", good, nil, nil, errs.KindMalformedInput},
		{"negative threshold", good, good, &Options{Threshold: -0.1}, errs.KindInvalidRequest},
		{"threshold above one", good, good, &Options{Threshold: 1.5}, errs.KindInvalidRequest},
		{"alpha above one", good, good, &Options{Alpha: 2}, errs.KindInvalidRequest},
		{"unknown algorithm", good, good, &Options{Algorithm: 7}, errs.KindInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(tt.a, tt.b, tt.opts)
			if !errs.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestVerdict(t *testing.T) {
	tests := map[float64]string{
		0:    "identical",
		0.01: "minor_changes",
		4.99: "minor_changes",
		5:    "major_changes",
		24.9: "major_changes",
		25:   "completely_different",
		100:  "completely_different",
	}
	for pct, want := range tests {
		if got := Verdict(pct); got != want {
			t.Errorf("Verdict(%v) = %q, want %q", pct, got, want)
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range []Algorithm{Pixel, Perceptual} {
		got, err := ParseAlgorithm(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAlgorithm("fuzzy"); !errs.IsKind(err, errs.KindInvalidRequest) {
		t.Errorf("ParseAlgorithm(fuzzy) err = %v", err)
	}
}
