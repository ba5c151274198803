package snapshot

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/layout"
	"github.com/deepteams/snapshot/png"
	"github.com/deepteams/snapshot/raster"
	"github.com/deepteams/snapshot/webp"
)

const op = "render"

// Render lays out html, paints it and encodes the result in opts.Format.
// A nil opts uses DefaultRenderOptions. The context is checked between
// stages; a running encoder is not interrupted.
func Render(ctx context.Context, html string, opts *RenderOptions) ([]byte, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	buf, err := RenderPixels(ctx, html, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: render: %w", err)
	}

	start := time.Now()
	var out []byte
	switch opts.Format {
	case FormatWebP:
		out, err = webp.EncodeRGBA(buf.Data, buf.Width, buf.Height, &webp.Options{Quality: opts.Quality})
	default:
		out, err = png.EncodeRGBA(buf.Data, buf.Width, buf.Height)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode %v: %w", opts.Format, err)
	}
	Logger().Debug("encoded",
		zap.Stringer("format", opts.Format),
		zap.Int("bytes", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// RenderPixels returns the painted page before encoding, scaled by the
// device scale factor and clipped.
func RenderPixels(ctx context.Context, html string, opts *RenderOptions) (*raster.PixelBuffer, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	log := Logger()
	if strings.TrimSpace(html) == "" {
		log.Warn("rendering an empty document", zap.String("kind", string(errs.KindDegradedInput)))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: render: %w", err)
	}

	start := time.Now()
	root := layout.Compute(html, opts.CSS, opts.Width, opts.Height)
	var nodes int
	root.Walk(func(*layout.Node) bool {
		nodes++
		return true
	})
	log.Debug("layout", zap.Int("nodes", nodes), zap.Duration("took", time.Since(start)))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: render: %w", err)
	}

	start = time.Now()
	buf := raster.NewPixelBuffer(opts.Width, opts.Height)
	buf.Fill(opts.background())
	raster.RenderLayoutTree(root, buf)
	buf = scale(buf, opts.DeviceScaleFactor)
	log.Debug("rasterized",
		zap.Int("width", buf.Width),
		zap.Int("height", buf.Height),
		zap.Duration("took", time.Since(start)))

	if opts.Clip != nil {
		return clip(buf, opts.Clip, opts.DeviceScaleFactor)
	}
	return buf, nil
}

// scale resamples buf by factor. Whole factors replicate pixels so that
// bitmap glyphs stay sharp.
func scale(buf *raster.PixelBuffer, factor float64) *raster.PixelBuffer {
	if factor == 1 {
		return buf
	}
	w := max(int(math.Round(float64(buf.Width)*factor)), 1)
	h := max(int(math.Round(float64(buf.Height)*factor)), 1)
	dst := raster.NewPixelBuffer(w, h)

	var interp draw.Interpolator = draw.CatmullRom
	if factor == math.Trunc(factor) {
		interp = draw.NearestNeighbor
	}
	src, out := buf.ToNRGBA(), dst.ToNRGBA()
	interp.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// clip crops buf to c, given in CSS pixels, clamped to the buffer.
func clip(buf *raster.PixelBuffer, c *Rect, factor float64) (*raster.PixelBuffer, error) {
	px := func(v int) int { return int(math.Round(float64(v) * factor)) }
	want := image.Rect(px(c.X), px(c.Y), px(c.X+c.Width), px(c.Y+c.Height))
	got := want.Intersect(image.Rect(0, 0, buf.Width, buf.Height))
	if got.Empty() {
		return nil, fmt.Errorf("snapshot: %w", errs.New(op, errs.KindInvalidRequest).
			Detail("clip %v lies outside the %dx%d page", want, buf.Width, buf.Height).
			Value(*c).
			Build())
	}
	if got != want {
		Logger().Warn("clip clamped to the page",
			zap.String("kind", string(errs.KindDegradedInput)),
			zap.Stringer("requested", want),
			zap.Stringer("clip", got))
	}
	return buf.Crop(got), nil
}
