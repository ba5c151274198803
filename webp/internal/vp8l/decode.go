package vp8l

import (
	"errors"

	"github.com/deepteams/snapshot/internal/bitio"
	"github.com/deepteams/snapshot/internal/huffman"
	"github.com/deepteams/snapshot/webp/internal/container"
)

// Header validation errors.
var (
	ErrBadSignature = errors.New("vp8l: bad signature")
	ErrBadVersion   = errors.New("vp8l: bad version")
	ErrBitstream    = errors.New("vp8l: bitstream error")
	ErrTruncated    = errors.New("vp8l: truncated bitstream")
)

// Feature errors: the bitstream is valid but uses coding tools that are
// not decoded.
var (
	ErrTransform  = errors.New("vp8l: transforms are not supported")
	ErrColorCache = errors.New("vp8l: color cache is not supported")
	ErrMetaCodes  = errors.New("vp8l: meta prefix codes are not supported")
)

// Header is the validated bitstream header.
type Header struct {
	Width    int
	Height   int
	HasAlpha bool
}

// DecodeHeader validates a VP8L bitstream up to the start of the pixel
// data: the signature, dimensions and version, the transform, color cache
// and meta prefix flags, and the five prefix codes. Pixel data is not
// decoded.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < container.VP8LFrameHeaderSize {
		return Header{}, ErrTruncated
	}
	if data[0] != container.VP8LMagicByte {
		return Header{}, ErrBadSignature
	}
	br := bitio.NewReader(data[1:])

	var hdr Header
	hdr.Width = int(br.ReadBits(container.VP8LImageSizeBits)) + 1
	hdr.Height = int(br.ReadBits(container.VP8LImageSizeBits)) + 1
	hdr.HasAlpha = br.ReadBits(1) == 1
	if br.ReadBits(container.VP8LVersionBits) != container.VP8LVersion {
		return Header{}, ErrBadVersion
	}

	if br.ReadBits(1) == 1 {
		return Header{}, ErrTransform
	}
	if br.ReadBits(1) == 1 {
		if bits := br.ReadBits(4); bits < 1 || bits > maxCacheBits {
			return Header{}, ErrBitstream
		}
		return Header{}, ErrColorCache
	}
	if br.ReadBits(1) == 1 {
		return Header{}, ErrMetaCodes
	}

	for _, size := range alphabetSizes {
		if _, err := readCode(br, size); err != nil {
			return Header{}, err
		}
	}
	if br.IsEndOfStream() {
		return Header{}, ErrTruncated
	}
	return hdr, nil
}

// readCode reads one prefix code and builds its decode table.
func readCode(br *bitio.Reader, alphabetSize int) (*huffman.Table, error) {
	lengths := make([]uint8, alphabetSize)

	if br.ReadBits(1) == 1 {
		numSymbols := int(br.ReadBits(1)) + 1
		symbolBits := 1
		if br.ReadBits(1) == 1 {
			symbolBits = 8
		}
		for i := 0; i < numSymbols; i++ {
			sym := int(br.ReadBits(symbolBits))
			if sym >= alphabetSize {
				return nil, ErrBitstream
			}
			lengths[sym] = 1
			symbolBits = 8
		}
	} else if err := readCodeLengths(br, lengths); err != nil {
		return nil, err
	}

	if br.IsEndOfStream() {
		return nil, ErrTruncated
	}
	t, err := huffman.BuildTable(lengths, literalTableBits)
	if err != nil {
		return nil, ErrBitstream
	}
	return t, nil
}

// readCodeLengths reads code lengths coded with the code-length code.
func readCodeLengths(br *bitio.Reader, lengths []uint8) error {
	var clLengths [huffman.NumCodeLengthCodes]uint8
	numCodes := int(br.ReadBits(4)) + 4
	for i := 0; i < numCodes; i++ {
		clLengths[CodeLengthCodeOrder[i]] = uint8(br.ReadBits(3))
	}
	if br.IsEndOfStream() {
		return ErrTruncated
	}
	cl, err := huffman.BuildTable(clLengths[:], lengthsTableBits)
	if err != nil {
		return ErrBitstream
	}

	maxSymbol := len(lengths)
	if br.ReadBits(1) == 1 {
		lengthBits := 2 + 2*int(br.ReadBits(3))
		maxSymbol = 2 + int(br.ReadBits(lengthBits))
		if maxSymbol > len(lengths) {
			return ErrBitstream
		}
	}

	prev := uint8(initialRepeatLength)
	for i := 0; i < len(lengths) && maxSymbol > 0; maxSymbol-- {
		if br.IsEndOfStream() {
			return ErrTruncated
		}
		sym := cl.ReadSymbol(br)
		if sym < 0 {
			return ErrBitstream
		}
		if sym < huffman.RepeatPrevious {
			lengths[i] = uint8(sym)
			i++
			if sym != 0 {
				prev = uint8(sym)
			}
			continue
		}
		slot := sym - huffman.RepeatPrevious
		repeat := huffman.RepeatOffset[slot] + int(br.ReadBits(huffman.RepeatExtraBits[slot]))
		if i+repeat > len(lengths) {
			return ErrBitstream
		}
		v := uint8(0)
		if sym == huffman.RepeatPrevious {
			v = prev
		}
		for ; repeat > 0; repeat-- {
			lengths[i] = v
			i++
		}
	}
	return nil
}
