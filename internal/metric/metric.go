// Package metric computes similarity scores between two 8-bit planes.
//
// SSIM is evaluated at every pixel over a 7×7 window weighted by a hat
// kernel and clipped at the borders, then averaged. The per-window score
// uses integer statistics so that results are exact and repeatable.
package metric

import "math"

// MaxPSNR is reported for identical planes.
const MaxPSNR = 99

// kernel is the window radius.
const kernel = 3

var weights = [2*kernel + 1]uint32{1, 2, 3, 4, 3, 2, 1}

// Plane is a Width×Height grid of samples with rows Stride bytes apart.
type Plane struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// NewPlane returns a zeroed plane.
func NewPlane(w, h int) Plane {
	return Plane{Pix: make([]byte, w*h), Width: w, Height: h, Stride: w}
}

func (p Plane) at(x, y int) uint8 { return p.Pix[y*p.Stride+x] }

// stats holds weighted sums over one window.
type stats struct {
	w             uint32
	xm, ym        uint32
	xxm, xym, yym uint32
}

func (s *stats) add(x, y uint8, w uint32) {
	s.w += w
	s.xm += w * uint32(x)
	s.ym += w * uint32(y)
	s.xxm += w * uint32(x) * uint32(x)
	s.xym += w * uint32(x) * uint32(y)
	s.yym += w * uint32(y) * uint32(y)
}

// similarity returns the SSIM of the window. Windows where both signals
// are very dark score 1.
func (s *stats) similarity() float64 {
	n := uint64(s.w)
	w2 := n * n
	c1 := 20 * w2
	c2 := 60 * w2
	dark := 8 * 8 * w2

	xmxm := uint64(s.xm) * uint64(s.xm)
	ymym := uint64(s.ym) * uint64(s.ym)
	if xmxm+ymym < dark {
		return 1
	}

	xmym := uint64(s.xm) * uint64(s.ym)
	sxy := int64(uint64(s.xym)*n) - int64(xmym)
	sxx := uint64(s.xxm)*n - xmxm
	syy := uint64(s.yym)*n - ymym
	if sxy < 0 {
		sxy = 0
	}

	// Scaled down by 256 so the products below fit in 64 bits.
	num := (2*uint64(sxy) + c2) >> 8
	den := (sxx + syy + c2) >> 8
	fnum := (2*xmym + c1) * num
	fden := (xmxm + ymym + c1) * den
	if fden == 0 {
		return 1
	}
	return float64(fnum) / float64(fden)
}

// SSIM returns the mean structural similarity of two planes of the same
// size, 1 for identical planes. Empty planes score 1.
func SSIM(a, b Plane) float64 {
	if a.Width <= 0 || a.Height <= 0 {
		return 1
	}
	var sum float64
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			sum += window(a, b, x, y)
		}
	}
	return sum / float64(a.Width*a.Height)
}

// window returns the SSIM of the window centered on (xo, yo).
func window(a, b Plane, xo, yo int) float64 {
	var s stats
	for y := max(yo-kernel, 0); y <= min(yo+kernel, a.Height-1); y++ {
		wy := weights[kernel+y-yo]
		for x := max(xo-kernel, 0); x <= min(xo+kernel, a.Width-1); x++ {
			s.add(a.at(x, y), b.at(x, y), weights[kernel+x-xo]*wy)
		}
	}
	return s.similarity()
}

// PSNR returns the peak signal-to-noise ratio of two planes of the same
// size in dB, or MaxPSNR when they are identical.
func PSNR(a, b Plane) float64 {
	var sse uint64
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			d := int(a.at(x, y)) - int(b.at(x, y))
			sse += uint64(d * d)
		}
	}
	count := a.Width * a.Height
	if sse == 0 || count <= 0 {
		return MaxPSNR
	}
	mse := float64(sse) / float64(count)
	return min(10*math.Log10(255*255/mse), MaxPSNR)
}
