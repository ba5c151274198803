package png

import "fmt"

const op = "png"

// signature is the 8-byte PNG file signature.
var signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ColorType is the IHDR color type.
type ColorType uint8

// Color types.
const (
	ColorGray      ColorType = 0
	ColorRGB       ColorType = 2
	ColorIndexed   ColorType = 3
	ColorGrayAlpha ColorType = 4
	ColorRGBA      ColorType = 6
)

// String returns the color type name.
func (c ColorType) String() string {
	switch c {
	case ColorGray:
		return "gray"
	case ColorRGB:
		return "rgb"
	case ColorIndexed:
		return "indexed"
	case ColorGrayAlpha:
		return "gray+alpha"
	case ColorRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(c))
	}
}

// channels returns the samples per pixel of a color type.
func (c ColorType) channels() int {
	switch c {
	case ColorRGB:
		return 3
	case ColorGrayAlpha:
		return 2
	case ColorRGBA:
		return 4
	default:
		return 1
	}
}

// validDepth reports whether depth is legal for the color type.
func (c ColorType) validDepth(depth uint8) bool {
	switch c {
	case ColorGray:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ColorIndexed:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ColorRGB, ColorGrayAlpha, ColorRGBA:
		return depth == 8 || depth == 16
	default:
		return false
	}
}

// Config is the image header.
type Config struct {
	Width      int
	Height     int
	ColorType  ColorType
	BitDepth   int
	Interlaced bool
}

// Chunk is a single PNG chunk. CRC covers the type and data.
type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

// Length returns the data length.
func (c Chunk) Length() int { return len(c.Data) }

// Critical reports whether decoders must understand the chunk.
func (c Chunk) Critical() bool {
	return len(c.Type) == 4 && c.Type[0]&0x20 == 0
}

// Chunk type names.
const (
	chunkIHDR = "IHDR"
	chunkPLTE = "PLTE"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
	chunkTRNS = "tRNS"
)

// Filter types.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// maxPixels bounds decoded image area.
const maxPixels = 1 << 28
