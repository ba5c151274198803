package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deepteams/snapshot/css"
	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/raster"
	"github.com/deepteams/snapshot/webp"
)

// Format is an output image format.
type Format int

const (
	FormatPNG Format = iota
	FormatWebP
)

// String returns the format name accepted by ParseFormat.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses "png" or "webp", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return 0, errs.InvalidRequest(op, "unknown format %q", s)
}

// FormatForPath picks the format from a file extension. Anything other
// than .webp is PNG.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return FormatWebP
	}
	return FormatPNG
}

// MaxScale is the largest DeviceScaleFactor accepted.
const MaxScale = 8

// Rect is a clip rectangle in CSS pixels.
type Rect struct {
	X, Y, Width, Height int
}

// RenderOptions controls Render.
type RenderOptions struct {
	// Width and Height are the viewport size in CSS pixels
	// (default 800×600).
	Width, Height int

	// DeviceScaleFactor multiplies the output size (default 1, at most
	// MaxScale).
	DeviceScaleFactor float64

	// BackgroundColor is any CSS color painted under the page (default
	// "white"). Ignored when Transparent is set.
	BackgroundColor string
	Transparent     bool

	Format Format

	// Quality is passed to the WebP encoder (0-100, default 75).
	Quality int

	// CSS is an author stylesheet applied before any <style> elements of
	// the document.
	CSS string

	// Clip limits the output to a rectangle of the viewport. It is
	// clamped to the viewport; a clip that misses it entirely is an error.
	Clip *Rect
}

// DefaultRenderOptions returns the options used when nil is passed.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		Width:             800,
		Height:            600,
		DeviceScaleFactor: 1,
		BackgroundColor:   "white",
		Format:            FormatPNG,
		Quality:           75,
	}
}

func (o *RenderOptions) validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Width > webp.MaxDimension || o.Height > webp.MaxDimension {
		return errs.New(op, errs.KindInvalidRequest).
			Detail("viewport %dx%d out of range (1-%d)", o.Width, o.Height, webp.MaxDimension).
			Build()
	}
	if o.DeviceScaleFactor <= 0 || o.DeviceScaleFactor > MaxScale {
		return errs.New(op, errs.KindInvalidRequest).
			Detail("device scale factor must be in (0, %d]", MaxScale).
			Value(o.DeviceScaleFactor).
			Build()
	}
	if o.Quality < 0 || o.Quality > 100 {
		return errs.InvalidRequest(op, "invalid quality %d (must be 0-100)", o.Quality)
	}
	if o.Format != FormatPNG && o.Format != FormatWebP {
		return errs.InvalidRequest(op, "unknown format %v", o.Format)
	}
	if !o.Transparent && o.BackgroundColor != "" {
		if _, ok := css.ParseColor(o.BackgroundColor); !ok {
			return errs.InvalidRequest(op, "invalid background color %q", o.BackgroundColor)
		}
	}
	if c := o.Clip; c != nil && (c.Width <= 0 || c.Height <= 0) {
		return errs.InvalidRequest(op, "empty clip %dx%d", c.Width, c.Height)
	}
	return nil
}

// background returns the color the page is painted on.
func (o *RenderOptions) background() raster.RGBA {
	if o.Transparent {
		return raster.Transparent
	}
	if c, ok := css.ParseColor(o.BackgroundColor); ok {
		return raster.RGBA(c)
	}
	return raster.White
}
