package vp8l

import (
	"github.com/deepteams/snapshot/internal/bitio"
	"github.com/deepteams/snapshot/internal/huffman"
	"github.com/deepteams/snapshot/webp/internal/container"
)

// Encode writes the VP8L bitstream for w×h straight-alpha RGBA pixels.
// The caller validates dimensions and buffer length.
func Encode(pix []byte, w, h int) []byte {
	var hist [5][]uint32
	for i, n := range alphabetSizes {
		hist[i] = make([]uint32, n)
	}
	hasAlpha := false
	for i := 0; i < len(pix); i += 4 {
		hist[codeRed][pix[i]]++
		hist[codeGreen][pix[i+1]]++
		hist[codeBlue][pix[i+2]]++
		hist[codeAlpha][pix[i+3]]++
		if pix[i+3] != 0xff {
			hasAlpha = true
		}
	}
	// The distance code is never used but must describe at least one symbol.
	hist[codeDist][0] = 1

	var codes [5]*huffman.Code
	for i := range codes {
		codes[i] = huffman.NewCode(hist[i], maxCodeLength)
	}

	bw := bitio.NewWriter(len(pix)/2 + 64)
	writeHeader(bw, w, h, hasAlpha)
	bw.WriteBits(0, 1) // no transform
	bw.WriteBits(0, 1) // no color cache
	bw.WriteBits(0, 1) // no meta prefix codes
	for _, c := range codes {
		storeCode(bw, c)
	}

	// A code with a single used symbol decodes without reading bits, so
	// its symbols are never written.
	var emit [4]bool
	for i := range emit {
		emit[i] = len(codes[i].UsedSymbols()) > 1
	}
	g, r, b, a := codes[codeGreen], codes[codeRed], codes[codeBlue], codes[codeAlpha]
	for i := 0; i < len(pix); i += 4 {
		if emit[codeGreen] {
			bw.WriteBits(uint32(g.Codes[pix[i+1]]), int(g.Lengths[pix[i+1]]))
		}
		if emit[codeRed] {
			bw.WriteBits(uint32(r.Codes[pix[i]]), int(r.Lengths[pix[i]]))
		}
		if emit[codeBlue] {
			bw.WriteBits(uint32(b.Codes[pix[i+2]]), int(b.Lengths[pix[i+2]]))
		}
		if emit[codeAlpha] {
			bw.WriteBits(uint32(a.Codes[pix[i+3]]), int(a.Lengths[pix[i+3]]))
		}
	}
	return bw.Finish()
}

// writeHeader writes the signature byte, 14-bit width-1 and height-1, the
// alpha hint and the 3-bit version.
func writeHeader(bw *bitio.Writer, w, h int, hasAlpha bool) {
	bw.WriteBits(container.VP8LMagicByte, 8)
	bw.WriteBits(uint32(w-1), container.VP8LImageSizeBits)
	bw.WriteBits(uint32(h-1), container.VP8LImageSizeBits)
	alpha := uint32(0)
	if hasAlpha {
		alpha = 1
	}
	bw.WriteBits(alpha, 1)
	bw.WriteBits(container.VP8LVersion, container.VP8LVersionBits)
}

// storeCode writes a prefix code's lengths: the simple form when it has at
// most two used symbols, all below 256, and the code-length form otherwise.
func storeCode(bw *bitio.Writer, c *huffman.Code) {
	used := c.UsedSymbols()
	if len(used) <= 2 {
		simple := true
		for _, s := range used {
			if s >= NumLiteralCodes {
				simple = false
			}
		}
		if simple {
			storeSimpleCode(bw, used)
			return
		}
	}
	storeFullCode(bw, c.Lengths)
}

// storeSimpleCode writes 1- or 2-symbol simple codes.
func storeSimpleCode(bw *bitio.Writer, symbols []int) {
	bw.WriteBits(1, 1) // is_simple
	if len(symbols) == 0 {
		symbols = []int{0}
	}
	bw.WriteBits(uint32(len(symbols)-1), 1)

	first := symbols[0]
	if first <= 1 {
		bw.WriteBits(0, 1) // 1-bit symbol
		bw.WriteBits(uint32(first), 1)
	} else {
		bw.WriteBits(1, 1) // 8-bit symbol
		bw.WriteBits(uint32(first), 8)
	}
	if len(symbols) == 2 {
		bw.WriteBits(uint32(symbols[1]), 8)
	}
}

// storeFullCode writes code lengths run-length coded with the 19-symbol
// code-length code, whose own lengths are limited to 7.
func storeFullCode(bw *bitio.Writer, lengths []uint8) {
	bw.WriteBits(0, 1) // is_simple

	tokens := huffman.Tokens(lengths, initialRepeatLength)
	clCode := huffman.NewCode(huffman.Histogram(tokens), maxCodeLengthCode)

	numCodes := len(CodeLengthCodeOrder)
	for numCodes > 4 && clCode.Lengths[CodeLengthCodeOrder[numCodes-1]] == 0 {
		numCodes--
	}
	bw.WriteBits(uint32(numCodes-4), 4)
	for _, sym := range CodeLengthCodeOrder[:numCodes] {
		bw.WriteBits(uint32(clCode.Lengths[sym]), 3)
	}

	bw.WriteBits(0, 1) // tokens cover the whole alphabet

	// A code-length code with one symbol is read as zero-bit codewords.
	single := len(clCode.UsedSymbols()) == 1
	for _, tok := range tokens {
		if !single {
			bw.WriteBits(uint32(clCode.Codes[tok.Code]), int(clCode.Lengths[tok.Code]))
		}
		if tok.Code >= huffman.RepeatPrevious {
			bw.WriteBits(uint32(tok.Extra), huffman.RepeatExtraBits[tok.Code-huffman.RepeatPrevious])
		}
	}
}
