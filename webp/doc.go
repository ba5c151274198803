// Package webp encodes images as lossless WebP (VP8L) and reads WebP
// headers.
//
// Encoding is lossless: every pixel is stored as four Huffman-coded
// literals, with no transforms, color cache or backward references. Files
// are readable by any conforming WebP decoder.
//
// Decode validates the RIFF container and the VP8L bitstream header,
// including the prefix codes, and returns a mid-gray image of the declared
// size. It does not reconstruct pixel values. Lossy (VP8) and extended
// (VP8X) files are reported as errs.KindUnsupportedFeature.
//
// Unlike golang.org/x/image/webp, this package does not register itself
// with image.RegisterFormat, since its decoder does not return real pixels.
package webp
