// Package snapshot renders HTML to PNG or WebP images and compares
// rendered images.
//
// The pipeline is built from the packages of this module: layout computes
// boxes for an HTML fragment and its CSS, raster paints them with a
// built-in bitmap font, and png or webp encodes the pixels. Compare wraps
// the diff package.
//
// Basic usage:
//
//	img, err := snapshot.Render(ctx, `<h1>Hello</h1>`, nil)
//
// Rendering to a file:
//
//	opts := snapshot.DefaultRenderOptions()
//	opts.Format = snapshot.FormatWebP
//	err := snapshot.CaptureHTML(ctx, html, "out.webp", opts)
//
// The package does not log unless a logger is installed with SetLogger.
package snapshot
