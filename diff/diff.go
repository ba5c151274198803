package diff

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/internal/metric"
	"github.com/deepteams/snapshot/png"
)

// maxYIQDelta bounds the weighted YIQ distance of two colors.
const maxYIQDelta = 35215

// Unchanged pixels in the diff image keep dimNum/dimDen of their value.
const (
	dimNum = 3
	dimDen = 10
)

// aaLumaTolerance is the luma difference under which two neighbors count
// as equally bright.
const aaLumaTolerance = 1.0

// Result describes a comparison.
type Result struct {
	Match          bool    `json:"match"`
	DiffPixels     int     `json:"diffPixels"`
	TotalPixels    int     `json:"totalPixels"`
	DiffPercentage float64 `json:"diffPercentage"`
	// DiffImage is a PNG the size of the inputs, nil when the sizes differ.
	DiffImage []byte `json:"-"`

	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Regions []Region `json:"regions,omitempty"`
	Verdict string   `json:"verdict"`
	// MeanDeltaE is the mean CIEDE2000 distance of flagged pixels, on the
	// usual 0-100 scale.
	MeanDeltaE float64 `json:"meanDeltaE"`
	// SSIM and PSNR score the luma of both images composited over white.
	// Both are zero when the sizes differ.
	SSIM float64 `json:"ssim"`
	PSNR float64 `json:"psnr"`
}

// Verdict classifies a diff percentage.
func Verdict(pct float64) string {
	switch {
	case pct == 0:
		return "identical"
	case pct < 5:
		return "minor_changes"
	case pct < 25:
		return "major_changes"
	default:
		return "completely_different"
	}
}

// Compare decodes two PNG files and compares them. A nil opts uses
// DefaultOptions.
func Compare(pngA, pngB []byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	a, err := png.Decode(pngA)
	if err != nil {
		return nil, decodeError(err, "first image")
	}
	b, err := png.Decode(pngB)
	if err != nil {
		return nil, decodeError(err, "second image")
	}
	return CompareImages(a, b, opts)
}

func decodeError(err error, which string) error {
	kind := errs.KindOf(err)
	if kind == "" {
		kind = errs.KindMalformedInput
	}
	return errs.Wrap(op, kind, err, which)
}

// CompareImages compares two decoded images. A nil opts uses
// DefaultOptions.
func CompareImages(a, b *image.NRGBA, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	wa, ha := a.Rect.Dx(), a.Rect.Dy()
	wb, hb := b.Rect.Dx(), b.Rect.Dy()
	if wa != wb || ha != hb {
		total := max(wa*ha, wb*hb)
		return &Result{
			DiffPixels:     total,
			TotalPixels:    total,
			DiffPercentage: 100,
			Width:          max(wa, wb),
			Height:         max(ha, hb),
			Verdict:        Verdict(100),
		}, nil
	}

	c := &comparer{a: a, b: b, opts: opts, w: wa, h: ha}
	flagged, count, deltaE := c.run()

	res := &Result{
		Match:       count == 0,
		DiffPixels:  count,
		TotalPixels: wa * ha,
		Width:       wa,
		Height:      ha,
		Regions:     findRegions(flagged, wa, ha),
	}
	if res.TotalPixels > 0 {
		res.DiffPercentage = float64(count) / float64(res.TotalPixels) * 100
	}
	if count > 0 {
		res.MeanDeltaE = deltaE / float64(count)
	}
	res.Verdict = Verdict(res.DiffPercentage)
	la, lb := lumaPlane(a), lumaPlane(b)
	res.SSIM, res.PSNR = metric.SSIM(la, lb), metric.PSNR(la, lb)

	if res.TotalPixels > 0 {
		img, err := png.EncodeRGBA(c.diffImage(flagged), wa, ha)
		if err != nil {
			return nil, err
		}
		res.DiffImage = img
	}
	return res, nil
}

type comparer struct {
	a, b *image.NRGBA
	opts *Options
	w, h int
}

// pixel returns the straight-alpha RGBA of img at (x, y), relative to the
// image origin.
func pixel(img *image.NRGBA, x, y int) [4]uint8 {
	i := y*img.Stride + x*4
	return [4]uint8(img.Pix[i : i+4])
}

// run flags every differing pixel and returns the flags, their count and
// the summed color distance of flagged pixels.
func (c *comparer) run() ([]bool, int, float64) {
	flagged := make([]bool, c.w*c.h)
	var count int
	var deltaE float64
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			pa, pb := pixel(c.a, x, y), pixel(c.b, x, y)
			if pa == pb || !c.differs(pa, pb) {
				continue
			}
			if c.opts.IncludeAA && (antialiased(c.a, x, y, c.w, c.h) || antialiased(c.b, x, y, c.w, c.h)) {
				continue
			}
			flagged[y*c.w+x] = true
			count++
			deltaE += ciede2000(pa, pb)
		}
	}
	return flagged, count, deltaE
}

func (c *comparer) differs(pa, pb [4]uint8) bool {
	if c.opts.Algorithm == Pixel {
		sum := absDiff(pa[0], pb[0]) + absDiff(pa[1], pb[1]) + absDiff(pa[2], pb[2])
		return float64(sum) > c.opts.Threshold*765 ||
			float64(absDiff(pa[3], pb[3])) > c.opts.Alpha*255
	}
	return yiqDelta(pa, pb) > c.opts.Threshold*maxYIQDelta
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// overWhite composites a straight-alpha pixel over opaque white.
func overWhite(p [4]uint8) (r, g, b float64) {
	a := float64(p[3]) / 255
	blend := func(v uint8) float64 { return 255 + (float64(v)-255)*a }
	return blend(p[0]), blend(p[1]), blend(p[2])
}

// lumaPlane returns the rounded luma of img composited over white.
func lumaPlane(img *image.NRGBA) metric.Plane {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	p := metric.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Pix[y*w+x] = uint8(min(luma(overWhite(pixel(img, x, y)))+0.5, 255))
		}
	}
	return p
}

func luma(r, g, b float64) float64 {
	return 0.29889531*r + 0.58662247*g + 0.11448223*b
}

// yiqDelta returns the weighted squared YIQ distance of two pixels.
func yiqDelta(pa, pb [4]uint8) float64 {
	r1, g1, b1 := overWhite(pa)
	r2, g2, b2 := overWhite(pb)
	dy := luma(r1, g1, b1) - luma(r2, g2, b2)
	di := chromaI(r1, g1, b1) - chromaI(r2, g2, b2)
	dq := chromaQ(r1, g1, b1) - chromaQ(r2, g2, b2)
	return 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq
}

func chromaI(r, g, b float64) float64 {
	return 0.59597799*r - 0.2741761*g - 0.32180189*b
}

func chromaQ(r, g, b float64) float64 {
	return 0.21147017*r - 0.52261711*g + 0.31114694*b
}

func ciede2000(pa, pb [4]uint8) float64 {
	r1, g1, b1 := overWhite(pa)
	r2, g2, b2 := overWhite(pb)
	c1 := colorful.Color{R: r1 / 255, G: g1 / 255, B: b1 / 255}
	c2 := colorful.Color{R: r2 / 255, G: g2 / 255, B: b2 / 255}
	return c1.DistanceCIEDE2000(c2) * 100
}

// antialiased reports whether the pixel at (x, y) sits on a smoothed
// edge: its 3×3 neighborhood holds both darker and lighter pixels and at
// most two of equal brightness.
func antialiased(img *image.NRGBA, x, y, w, h int) bool {
	center := luma(overWhite(pixel(img, x, y)))
	var equal int
	var darker, lighter bool
	for ny := max(y-1, 0); ny <= min(y+1, h-1); ny++ {
		for nx := max(x-1, 0); nx <= min(x+1, w-1); nx++ {
			if nx == x && ny == y {
				continue
			}
			d := luma(overWhite(pixel(img, nx, ny))) - center
			switch {
			case math.Abs(d) <= aaLumaTolerance:
				equal++
			case d < 0:
				darker = true
			default:
				lighter = true
			}
		}
	}
	return darker && lighter && equal <= 2
}

// diffImage paints flagged pixels in the diff color and the rest as a
// dimmed copy of the first image, all opaque.
func (c *comparer) diffImage(flagged []bool) []byte {
	pix := make([]byte, c.w*c.h*4)
	dc := c.opts.DiffColor
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			i := (y*c.w + x) * 4
			if flagged[y*c.w+x] {
				pix[i], pix[i+1], pix[i+2], pix[i+3] = dc.R, dc.G, dc.B, 0xff
				continue
			}
			r, g, b := overWhite(pixel(c.a, x, y))
			pix[i], pix[i+1], pix[i+2], pix[i+3] = dim(r), dim(g), dim(b), 0xff
		}
	}
	return pix
}

func dim(v float64) uint8 {
	n := int(v + 0.5)
	return uint8((n*dimNum + dimDen/2) / dimDen)
}
