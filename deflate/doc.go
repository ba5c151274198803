// Package deflate implements the DEFLATE compressed data format (RFC 1951)
// with its zlib framing (RFC 1950), plus the CRC-32 and Adler-32 checksums
// used by PNG and zlib.
//
// Deflate always produces a zlib stream. Small inputs are written as stored
// blocks; larger inputs are LZ77-matched and coded with the fixed Huffman
// tables, falling back to stored blocks when that would be larger.
// Inflate and InflateRaw decode all three block types, including dynamic
// Huffman blocks written by other encoders.
//
// Errors are *errs.Error values of kind errs.KindMalformedInput, except a
// preset dictionary, which is reported as errs.KindUnsupportedFeature.
package deflate
