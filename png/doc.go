// Package png reads and writes PNG images (ISO/IEC 15948).
//
// The encoder always writes 8-bit RGBA (color type 6), non-interlaced, with
// one IDAT chunk compressed by package deflate. Each row's filter is chosen
// cheaply: rows whose pixels are all equal use None, the first row uses Sub,
// and every other row uses whichever of Up and Sub has the smaller sum of
// absolute residuals.
//
// The decoder accepts every non-interlaced PNG: gray, RGB, indexed, gray
// with alpha and RGBA, at all legal bit depths, with tRNS transparency.
// 16-bit samples are reduced to their high byte. The result is always an
// *image.NRGBA.
package png
