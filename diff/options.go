package diff

import (
	"fmt"
	"image/color"

	"github.com/deepteams/snapshot/errs"
)

const op = "diff"

// Algorithm selects the per-pixel comparison rule.
type Algorithm int

const (
	// Perceptual compares colors in YIQ space after compositing over white.
	Perceptual Algorithm = iota
	// Pixel compares summed absolute RGB and alpha differences.
	Pixel
)

// String returns the name accepted by ParseAlgorithm.
func (a Algorithm) String() string {
	switch a {
	case Perceptual:
		return "perceptual"
	case Pixel:
		return "pixel"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm parses "pixel" or "perceptual".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "perceptual":
		return Perceptual, nil
	case "pixel":
		return Pixel, nil
	}
	return 0, errs.InvalidRequest(op, "unknown algorithm %q", s)
}

// Options controls a comparison.
type Options struct {
	// Threshold in [0, 1] scales the color difference that flags a pixel.
	Threshold float64
	// DiffColor paints flagged pixels in the diff image. Its alpha is
	// ignored.
	DiffColor color.NRGBA
	// IncludeAA forgives flagged pixels detected as anti-aliasing.
	IncludeAA bool
	// Alpha in [0, 1] scales the alpha difference that flags a pixel under
	// the Pixel rule.
	Alpha     float64
	Algorithm Algorithm
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{
		Threshold: 0.1,
		DiffColor: color.NRGBA{R: 0xff, A: 0xff},
		Alpha:     0.1,
		Algorithm: Perceptual,
	}
}

func (o *Options) validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return errs.New(op, errs.KindInvalidRequest).
			Detail("threshold must be in [0, 1]").
			Value(o.Threshold).
			Build()
	}
	if o.Alpha < 0 || o.Alpha > 1 {
		return errs.New(op, errs.KindInvalidRequest).
			Detail("alpha must be in [0, 1]").
			Value(o.Alpha).
			Build()
	}
	if o.Algorithm != Pixel && o.Algorithm != Perceptual {
		return errs.InvalidRequest(op, "unknown algorithm %v", o.Algorithm)
	}
	return nil
}
