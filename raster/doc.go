// Package raster paints laid-out node trees into RGBA pixel buffers.
//
// A PixelBuffer holds straight-alpha RGBA pixels. Paint operations with an
// opaque color overwrite the destination; translucent ones composite with
// the "over" operator. Coordinates outside the buffer are clipped.
//
// Text is drawn with a built-in 5×7 bitmap font scaled to the font size.
// Letters are folded to upper case and accents are removed before glyph
// lookup; characters without a glyph render as '?'.
//
// Example:
//
//	root := layout.Compute(html, "", 800, 600)
//	buf := raster.NewPixelBuffer(800, 600)
//	buf.Fill(raster.White)
//	raster.RenderLayoutTree(root, buf)
//	img := buf.ToNRGBA()
package raster
