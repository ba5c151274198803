// Package container reads and writes the RIFF container of WebP files:
// the 12-byte RIFF/WEBP header and the chunks that follow it.
package container

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Container FourCC values.
var (
	FourCCRIFF = FourCC('R', 'I', 'F', 'F')
	FourCCWEBP = FourCC('W', 'E', 'B', 'P')
	FourCCVP8  = FourCC('V', 'P', '8', ' ')
	FourCCVP8L = FourCC('V', 'P', '8', 'L')
	FourCCVP8X = FourCC('V', 'P', '8', 'X')
)

// Container structure sizes.
const (
	ChunkHeaderSize = 8  // fourcc + payload size
	RIFFHeaderSize  = 12 // "RIFF" + size + "WEBP"
	VP8XChunkSize   = 10
	// VP8FrameHeaderSize is the keyframe tag, start code and dimensions.
	VP8FrameHeaderSize = 10
	VP8Signature       = 0x9d012a
)

// MaxChunkPayload is the largest payload a RIFF size field can describe.
const MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1

// AlphaFlag is the VP8X feature bit for alpha.
const AlphaFlag = 0x10
