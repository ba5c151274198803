package container

import (
	"encoding/binary"
	"fmt"
)

// Features describes a WebP file as seen from its container and the
// fixed-size header of its image chunk.
type Features struct {
	Format   FormatType
	Width    int
	Height   int
	HasAlpha bool
	FileSize uint32 // declared RIFF size
	// Payload is the image chunk body (VP8 or VP8L); nil for VP8X files.
	Payload []byte
}

// Parse validates the RIFF header and reads the first chunk.
func Parse(data []byte) (Features, error) {
	hdr, consumed, err := ParseRIFFHeader(data)
	if err != nil {
		return Features{}, err
	}

	// Limit parsing to the declared RIFF size.
	riffEnd := min(int(hdr.FileSize)+ChunkHeaderSize, len(data))
	buf := data[consumed:riffEnd]

	fourcc, payloadSize, err := ReadChunkHeader(buf)
	if err != nil {
		return Features{}, err
	}
	if ChunkHeaderSize+int(payloadSize) > len(buf) {
		return Features{}, ErrTruncated
	}
	payload := buf[ChunkHeaderSize : ChunkHeaderSize+int(payloadSize)]
	f := Features{FileSize: hdr.FileSize}

	switch fourcc {
	case FourCCVP8L:
		f.Format = FormatVP8L
		f.Payload = payload
		f.Width, f.Height, f.HasAlpha, err = ParseVP8LHeader(payload)
	case FourCCVP8:
		f.Format = FormatVP8
		f.Payload = payload
		f.Width, f.Height, err = parseVP8Header(payload)
	case FourCCVP8X:
		f.Format = FormatVP8X
		if payloadSize != VP8XChunkSize {
			return Features{}, ErrInvalidVP8X
		}
		f.HasAlpha = payload[0]&AlphaFlag != 0
		// Canvas dimensions: 24-bit LE, stored as value-1.
		f.Width = 1 + readLE24(payload[4:7])
		f.Height = 1 + readLE24(payload[7:10])
	default:
		return Features{}, fmt.Errorf("%w %q", ErrUnknownChunk, FourCCString(fourcc))
	}
	if err != nil {
		return Features{}, err
	}
	return f, nil
}

// VP8L bitstream header fields.
const (
	VP8LMagicByte       = 0x2f
	VP8LImageSizeBits   = 14
	VP8LVersionBits     = 3
	VP8LVersion         = 0
	VP8LFrameHeaderSize = 5
)

// ParseVP8LHeader extracts width, height, and alpha presence from a VP8L
// lossless bitstream header.
func ParseVP8LHeader(data []byte) (width, height int, hasAlpha bool, err error) {
	if len(data) < VP8LFrameHeaderSize {
		return 0, 0, false, ErrTruncated
	}
	if data[0] != VP8LMagicByte {
		return 0, 0, false, fmt.Errorf("webp: invalid VP8L signature: 0x%02x", data[0])
	}

	// Bytes 1-4: 32-bit LE containing width-1, height-1, alpha, version.
	bits := binary.LittleEndian.Uint32(data[1:5])
	width = int(bits&0x3FFF) + 1
	height = int((bits>>14)&0x3FFF) + 1
	hasAlpha = (bits>>28)&1 != 0
	if version := (bits >> 29) & 0x7; version != VP8LVersion {
		return 0, 0, false, fmt.Errorf("webp: unsupported VP8L version: %d", version)
	}
	return width, height, hasAlpha, nil
}

// parseVP8Header extracts width and height from a VP8 keyframe header.
func parseVP8Header(data []byte) (width, height int, err error) {
	if len(data) < VP8FrameHeaderSize {
		return 0, 0, ErrTruncated
	}
	frameTag := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	if frameTag&1 != 0 {
		return 0, 0, fmt.Errorf("webp: VP8 non-keyframe not supported")
	}
	sig := uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	if sig != VP8Signature {
		return 0, 0, fmt.Errorf("webp: invalid VP8 signature: 0x%06x", sig)
	}
	width = int(binary.LittleEndian.Uint16(data[6:8])) & 0x3FFF
	height = int(binary.LittleEndian.Uint16(data[8:10])) & 0x3FFF
	if width == 0 || height == 0 {
		return 0, 0, ErrInvalidImage
	}
	return width, height, nil
}

// readLE24 reads a 24-bit little-endian integer from 3 bytes.
func readLE24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}
