package container

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidRIFF  = errors.New("webp: invalid RIFF header")
	ErrInvalidWebP  = errors.New("webp: invalid WEBP signature")
	ErrTruncated    = errors.New("webp: truncated data")
	ErrTooLarge     = errors.New("webp: file too large")
	ErrInvalidVP8X  = errors.New("webp: invalid VP8X chunk")
	ErrUnknownChunk = errors.New("webp: unexpected first chunk")
	ErrInvalidImage = errors.New("webp: invalid image dimensions")
)

// FormatType identifies the bitstream carried by the first chunk.
type FormatType int

const (
	FormatUndefined FormatType = iota
	FormatVP8                  // lossy
	FormatVP8L                 // lossless
	FormatVP8X                 // extended
)

// String returns a human-readable format name.
func (f FormatType) String() string {
	switch f {
	case FormatVP8:
		return "VP8"
	case FormatVP8L:
		return "VP8L"
	case FormatVP8X:
		return "VP8X"
	default:
		return "undefined"
	}
}

// RIFFHeader holds the parsed RIFF container header.
type RIFFHeader struct {
	FileSize uint32 // total RIFF file size (excluding 8-byte RIFF header)
}

// HasSignature reports whether data starts with "RIFF????WEBP".
func HasSignature(data []byte) bool {
	return len(data) >= RIFFHeaderSize &&
		binary.LittleEndian.Uint32(data[0:4]) == FourCCRIFF &&
		binary.LittleEndian.Uint32(data[8:12]) == FourCCWEBP
}

// ParseRIFFHeader validates and parses the 12-byte RIFF/WEBP header from data.
// Returns the header and the number of bytes consumed.
func ParseRIFFHeader(data []byte) (RIFFHeader, int, error) {
	if len(data) < RIFFHeaderSize {
		return RIFFHeader{}, 0, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != FourCCRIFF {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	fileSize := binary.LittleEndian.Uint32(data[4:8])
	if fileSize < ChunkHeaderSize {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	if fileSize > MaxChunkPayload {
		return RIFFHeader{}, 0, ErrTooLarge
	}
	if binary.LittleEndian.Uint32(data[8:12]) != FourCCWEBP {
		return RIFFHeader{}, 0, ErrInvalidWebP
	}
	return RIFFHeader{FileSize: fileSize}, RIFFHeaderSize, nil
}

// ReadChunkHeader reads a chunk's FourCC tag and payload size from data.
func ReadChunkHeader(data []byte) (fourcc uint32, payloadSize uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	fourcc = binary.LittleEndian.Uint32(data[0:4])
	payloadSize = binary.LittleEndian.Uint32(data[4:8])
	if payloadSize > MaxChunkPayload {
		return 0, 0, ErrTooLarge
	}
	return fourcc, payloadSize, nil
}

// PaddedSize returns the payload size padded to an even number of bytes,
// as required by the RIFF format.
func PaddedSize(size uint32) uint32 {
	return size + (size & 1)
}

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}

// Assemble wraps a single chunk in a RIFF/WEBP file:
// 'RIFF' + LE(size) + 'WEBP' + fourcc + LE(len(payload)) + payload, with a
// zero pad byte when the payload length is odd.
func Assemble(fourcc uint32, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(MaxChunkPayload)-RIFFHeaderSize {
		return nil, fmt.Errorf("%w: %d byte payload", ErrTooLarge, len(payload))
	}
	padded := int(PaddedSize(uint32(len(payload))))
	riffSize := 4 + ChunkHeaderSize + padded

	out := make([]byte, 0, 8+riffSize)
	out = binary.LittleEndian.AppendUint32(out, FourCCRIFF)
	out = binary.LittleEndian.AppendUint32(out, uint32(riffSize))
	out = binary.LittleEndian.AppendUint32(out, FourCCWEBP)
	out = binary.LittleEndian.AppendUint32(out, fourcc)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	if padded != len(payload) {
		out = append(out, 0)
	}
	return out, nil
}
