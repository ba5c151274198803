// Package vp8l writes VP8L lossless bitstreams and validates their
// headers.
//
// The encoder emits no transforms, no color cache and a single group of
// prefix codes: every pixel is four literal symbols (green, red, blue,
// alpha), each coded with a canonical Huffman code built from that
// channel's histogram.
package vp8l

import "github.com/deepteams/snapshot/webp/internal/container"

// Alphabet sizes of the five prefix codes in a group, without color cache.
const (
	NumLiteralCodes  = 256
	NumLengthCodes   = 24
	NumDistanceCodes = 40

	greenAlphabet = NumLiteralCodes + NumLengthCodes
)

// alphabetSizes lists the code alphabets in bitstream order.
var alphabetSizes = [5]int{greenAlphabet, NumLiteralCodes, NumLiteralCodes, NumLiteralCodes, NumDistanceCodes}

// Code indices within a group.
const (
	codeGreen = iota
	codeRed
	codeBlue
	codeAlpha
	codeDist
)

const (
	// MaxDimension is the largest width or height the 14-bit size fields
	// can store.
	MaxDimension = 1 << container.VP8LImageSizeBits

	maxCodeLength     = 15
	maxCodeLengthCode = 7
	// initialRepeatLength is what a leading repeat-previous code repeats.
	initialRepeatLength = 8
	maxCacheBits        = 11
	lengthsTableBits    = 7
	literalTableBits    = 8
)

// CodeLengthCodeOrder is the order in which code-length code lengths are
// stored.
var CodeLengthCodeOrder = [19]uint8{17, 18, 0, 1, 2, 3, 4, 5, 16, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
