package webp

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/draw"

	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/webp/internal/container"
	"github.com/deepteams/snapshot/webp/internal/vp8l"
)

const op = "webp"

// MaxDimension is the maximum width or height of a VP8L image.
const MaxDimension = vp8l.MaxDimension

// Options controls encoding.
type Options struct {
	// Quality is accepted for API compatibility (0-100). Output is
	// lossless at every quality.
	Quality int

	// Exact preserves the RGB values under fully transparent pixels.
	// When false they are zeroed, which shrinks the red, green and blue
	// histograms.
	Exact bool
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() *Options {
	return &Options{Quality: 75}
}

// Image is the result of Decode.
type Image struct {
	Pixels *image.NRGBA
	Width  int
	Height int
}

// Config describes a WebP file without decoding it.
type Config struct {
	Width    int
	Height   int
	HasAlpha bool
	Format   string // "VP8L", "VP8" or "VP8X"
	FileSize int    // declared RIFF payload size
}

// Gray is the color of every pixel returned by Decode.
var Gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// IsWebP reports whether b starts with a RIFF/WEBP header.
func IsWebP(b []byte) bool {
	return container.HasSignature(b)
}

// EncodeRGBA encodes w×h straight-alpha RGBA pixels as a lossless WebP file.
// opts may be nil.
func EncodeRGBA(pix []byte, w, h int, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return nil, errs.InvalidRequest(op, "quality %d out of range 0-100", opts.Quality)
	}
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, errs.New(op, errs.KindInvalidRequest).
			Detail("image %dx%d outside 1-%d", w, h, MaxDimension).
			Value([2]int{w, h}).
			Build()
	}
	if len(pix) != 4*w*h {
		return nil, errs.InvalidRequest(op, "pixel buffer is %d bytes, want %d for %dx%d", len(pix), 4*w*h, w, h)
	}

	if !opts.Exact {
		pix = clearTransparent(pix)
	}
	data, err := container.Assemble(container.FourCCVP8L, vp8l.Encode(pix, w, h))
	if err != nil {
		return nil, errs.Wrap(op, errs.KindInvalidRequest, err, "image too large for a RIFF container")
	}
	return data, nil
}

// Encode writes img to w as a lossless WebP file. opts may be nil.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) || nrgba.Stride != 4*b.Dx() {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	data, err := EncodeRGBA(nrgba.Pix, b.Dx(), b.Dy(), opts)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

// clearTransparent returns pix with the RGB of alpha-0 pixels zeroed,
// copying only if a change is needed.
func clearTransparent(pix []byte) []byte {
	var out []byte
	for i := 0; i < len(pix); i += 4 {
		if pix[i+3] != 0 || pix[i]|pix[i+1]|pix[i+2] == 0 {
			continue
		}
		if out == nil {
			out = bytes.Clone(pix)
		}
		out[i], out[i+1], out[i+2] = 0, 0, 0
	}
	if out == nil {
		return pix
	}
	return out
}

// DecodeConfig reads the container and image header.
func DecodeConfig(data []byte) (Config, error) {
	f, err := container.Parse(data)
	if err != nil {
		return Config{}, containerError(err)
	}
	return Config{
		Width:    f.Width,
		Height:   f.Height,
		HasAlpha: f.HasAlpha,
		Format:   f.Format.String(),
		FileSize: int(f.FileSize),
	}, nil
}

// Decode validates a lossless WebP file and returns an image of its
// dimensions filled with Gray. Pixel data is not decoded.
func Decode(data []byte) (*Image, error) {
	f, err := container.Parse(data)
	if err != nil {
		return nil, containerError(err)
	}
	switch f.Format {
	case container.FormatVP8:
		return nil, errs.Unsupported(op, "lossy VP8 bitstream")
	case container.FormatVP8X:
		return nil, errs.Unsupported(op, "extended VP8X file")
	}

	hdr, err := vp8l.DecodeHeader(f.Payload)
	if err != nil {
		return nil, bitstreamError(err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, hdr.Width, hdr.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = Gray.R, Gray.G, Gray.B, Gray.A
	}
	return &Image{Pixels: img, Width: hdr.Width, Height: hdr.Height}, nil
}

func containerError(err error) error {
	return errs.Wrap(op, errs.KindMalformedInput, err, "invalid container")
}

func bitstreamError(err error) error {
	switch {
	case errors.Is(err, vp8l.ErrTransform), errors.Is(err, vp8l.ErrColorCache), errors.Is(err, vp8l.ErrMetaCodes):
		return errs.Wrap(op, errs.KindUnsupportedFeature, err, "VP8L coding tool")
	default:
		return errs.Wrap(op, errs.KindMalformedInput, err, "invalid VP8L bitstream")
	}
}
