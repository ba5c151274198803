package png

import (
	"bytes"
	"encoding/binary"
	"image"

	"github.com/deepteams/snapshot/deflate"
	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/internal/pool"
)

// stream holds the chunks of a PNG file needed to decode its pixels.
type stream struct {
	cfg     Config
	palette []byte // RGB triples
	trns    []byte
	idat    []byte
}

// Decode decodes a PNG file into straight-alpha RGBA.
func Decode(data []byte) (*image.NRGBA, error) {
	s, err := parse(data)
	if err != nil {
		return nil, err
	}
	raw, err := deflate.Inflate(s.idat)
	if err != nil {
		return nil, errs.Wrap(op, errs.KindMalformedInput, err, "corrupt image data")
	}
	return s.decodePixels(raw)
}

// DecodeConfig returns the image header without decoding image data.
func DecodeConfig(data []byte) (Config, error) {
	if err := checkSignature(data); err != nil {
		return Config{}, err
	}
	c, _, err := readChunk(data, len(signature))
	if err != nil {
		return Config{}, err
	}
	if c.Type != chunkIHDR {
		return Config{}, errs.Malformed(op, "first chunk is %q, want IHDR", c.Type)
	}
	return parseIHDR(c.Data)
}

// Chunks lists every chunk of a PNG file in order, verifying CRCs.
func Chunks(data []byte) ([]Chunk, error) {
	if err := checkSignature(data); err != nil {
		return nil, err
	}
	var chunks []Chunk
	for off := len(signature); off < len(data); {
		c, n, err := readChunk(data, off)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		off += n
		if c.Type == chunkIEND {
			break
		}
	}
	return chunks, nil
}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return checkSignature(data) == nil
}

func checkSignature(data []byte) error {
	if len(data) < len(signature) || !bytes.Equal(data[:len(signature)], signature[:]) {
		return errs.Malformed(op, "not a PNG file: signature mismatch")
	}
	return nil
}

// readChunk reads the chunk at off and returns it with its encoded size.
func readChunk(data []byte, off int) (Chunk, int, error) {
	if len(data)-off < 12 {
		return Chunk{}, 0, errs.Malformed(op, "truncated chunk header at offset %d", off)
	}
	length := binary.BigEndian.Uint32(data[off:])
	if length > 1<<31-1 {
		return Chunk{}, 0, errs.Malformed(op, "chunk length %d exceeds 2^31-1", length)
	}
	typ := data[off+4 : off+8]
	for _, b := range typ {
		if !(b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z') {
			return Chunk{}, 0, errs.Malformed(op, "invalid chunk type %q", typ)
		}
	}
	end := off + 8 + int(length)
	if end+4 > len(data) {
		return Chunk{}, 0, errs.Malformed(op, "truncated %s chunk", typ)
	}
	body := data[off+8 : end]
	want := binary.BigEndian.Uint32(data[end:])
	if got := deflate.UpdateCRC32(deflate.CRC32(typ), body); got != want {
		return Chunk{}, 0, errs.New(op, errs.KindMalformedInput).
			Detail("%s chunk CRC mismatch: stored %#08x, computed %#08x", typ, want, got).
			Value(string(typ)).
			Build()
	}
	return Chunk{Type: string(typ), Data: body, CRC: want}, end + 4 - off, nil
}

func parseIHDR(b []byte) (Config, error) {
	if len(b) != 13 {
		return Config{}, errs.Malformed(op, "IHDR length %d, want 13", len(b))
	}
	w := binary.BigEndian.Uint32(b[0:4])
	h := binary.BigEndian.Uint32(b[4:8])
	if w == 0 || h == 0 {
		return Config{}, errs.New(op, errs.KindMalformedInput).
			Detail("zero image dimension %dx%d", w, h).
			Value([2]uint32{w, h}).
			Build()
	}
	if w > 1<<31-1 || h > 1<<31-1 {
		return Config{}, errs.Malformed(op, "image dimension %dx%d exceeds 2^31-1", w, h)
	}
	depth, ct := b[8], ColorType(b[9])
	if !ct.validDepth(depth) {
		return Config{}, errs.Malformed(op, "invalid bit depth %d for color type %d", depth, ct)
	}
	if b[10] != 0 {
		return Config{}, errs.Malformed(op, "unknown compression method %d", b[10])
	}
	if b[11] != 0 {
		return Config{}, errs.Malformed(op, "unknown filter method %d", b[11])
	}
	switch b[12] {
	case 0:
	case 1:
		return Config{}, errs.Unsupported(op, "interlaced images (Adam7)")
	default:
		return Config{}, errs.Malformed(op, "unknown interlace method %d", b[12])
	}
	if uint64(w)*uint64(h) > maxPixels {
		return Config{}, errs.Unsupported(op, "image %dx%d exceeds %d pixels", w, h, maxPixels)
	}
	return Config{Width: int(w), Height: int(h), ColorType: ct, BitDepth: int(depth)}, nil
}

// parse walks the chunk sequence, enforcing chunk order, and collects
// the header, palette, transparency and concatenated image data.
func parse(data []byte) (*stream, error) {
	if err := checkSignature(data); err != nil {
		return nil, err
	}
	s := &stream{}
	var seenIHDR, seenIDAT, idatDone, seenIEND bool
	for off := len(signature); off < len(data) && !seenIEND; {
		c, n, err := readChunk(data, off)
		if err != nil {
			return nil, err
		}
		off += n

		if !seenIHDR && c.Type != chunkIHDR {
			return nil, errs.Malformed(op, "first chunk is %s, want IHDR", c.Type)
		}
		if seenIDAT && c.Type != chunkIDAT {
			idatDone = true
		}

		switch c.Type {
		case chunkIHDR:
			if seenIHDR {
				return nil, errs.Malformed(op, "duplicate IHDR chunk")
			}
			seenIHDR = true
			if s.cfg, err = parseIHDR(c.Data); err != nil {
				return nil, err
			}
		case chunkPLTE:
			if seenIDAT {
				return nil, errs.Malformed(op, "PLTE after IDAT")
			}
			if s.palette != nil {
				return nil, errs.Malformed(op, "duplicate PLTE chunk")
			}
			if s.cfg.ColorType == ColorGray || s.cfg.ColorType == ColorGrayAlpha {
				return nil, errs.Malformed(op, "PLTE in %s image", s.cfg.ColorType)
			}
			if len(c.Data) == 0 || len(c.Data)%3 != 0 || len(c.Data) > 3*256 {
				return nil, errs.Malformed(op, "invalid PLTE length %d", len(c.Data))
			}
			s.palette = c.Data
		case chunkTRNS:
			if seenIDAT {
				return nil, errs.Malformed(op, "tRNS after IDAT")
			}
			if err := s.checkTRNS(c.Data); err != nil {
				return nil, err
			}
			s.trns = c.Data
		case chunkIDAT:
			if idatDone {
				return nil, errs.Malformed(op, "IDAT chunks are not consecutive")
			}
			if s.cfg.ColorType == ColorIndexed && s.palette == nil {
				return nil, errs.Malformed(op, "indexed image without PLTE before IDAT")
			}
			seenIDAT = true
			s.idat = append(s.idat, c.Data...)
		case chunkIEND:
			seenIEND = true
		default:
			if c.Critical() {
				return nil, errs.Unsupported(op, "unknown critical chunk %s", c.Type)
			}
		}
	}
	if !seenIHDR {
		return nil, errs.Malformed(op, "missing IHDR chunk")
	}
	if !seenIDAT {
		return nil, errs.Malformed(op, "missing IDAT chunk")
	}
	if !seenIEND {
		return nil, errs.Malformed(op, "missing IEND chunk")
	}
	return s, nil
}

func (s *stream) checkTRNS(b []byte) error {
	switch s.cfg.ColorType {
	case ColorGray:
		if len(b) != 2 {
			return errs.Malformed(op, "tRNS length %d for gray image, want 2", len(b))
		}
	case ColorRGB:
		if len(b) != 6 {
			return errs.Malformed(op, "tRNS length %d for RGB image, want 6", len(b))
		}
	case ColorIndexed:
		if s.palette == nil {
			return errs.Malformed(op, "tRNS before PLTE")
		}
		if len(b) > len(s.palette)/3 {
			return errs.Malformed(op, "tRNS has %d entries for %d palette colors", len(b), len(s.palette)/3)
		}
	default:
		return errs.Malformed(op, "tRNS in %s image", s.cfg.ColorType)
	}
	return nil
}

// decodePixels unfilters raw scanlines and converts them to NRGBA.
func (s *stream) decodePixels(raw []byte) (*image.NRGBA, error) {
	cfg := s.cfg
	bitsPP := cfg.ColorType.channels() * cfg.BitDepth
	bpp := max(1, bitsPP/8)
	rowBytes := (cfg.Width*bitsPP + 7) / 8
	if need := cfg.Height * (rowBytes + 1); len(raw) < need {
		return nil, errs.Malformed(op, "image data is %d bytes, want %d", len(raw), need)
	}

	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	prev := pool.Get(rowBytes)
	defer pool.Put(prev)

	for y := 0; y < cfg.Height; y++ {
		line := raw[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		cur := line[1:]
		if !unfilterRow(line[0], cur, prev, bpp) {
			return nil, errs.Malformed(op, "unknown filter type %d in row %d", line[0], y)
		}
		if err := s.convertRow(img.Pix[y*img.Stride:], cur); err != nil {
			return nil, err
		}
		prev = cur
	}
	return img, nil
}

// sample returns the i-th sample of a row packed at depth bits.
func sample(row []byte, i, depth int) uint16 {
	switch depth {
	case 16:
		return binary.BigEndian.Uint16(row[2*i:])
	case 8:
		return uint16(row[i])
	default:
		perByte := 8 / depth
		shift := 8 - depth*(i%perByte+1)
		return uint16(row[i/perByte]>>uint(shift)) & (1<<uint(depth) - 1)
	}
}

// to8 scales a sample to 8 bits; 16-bit samples keep their high byte.
func to8(v uint16, depth int) uint8 {
	switch depth {
	case 16:
		return uint8(v >> 8)
	case 8:
		return uint8(v)
	default:
		return uint8(uint32(v) * 255 / (1<<uint(depth) - 1))
	}
}

func (s *stream) convertRow(dst, row []byte) error {
	cfg := s.cfg
	d := cfg.BitDepth
	for x := 0; x < cfg.Width; x++ {
		p := dst[4*x : 4*x+4]
		switch cfg.ColorType {
		case ColorGray:
			v := sample(row, x, d)
			g := to8(v, d)
			p[0], p[1], p[2], p[3] = g, g, g, 0xff
			if s.trns != nil && v == binary.BigEndian.Uint16(s.trns) {
				p[3] = 0
			}
		case ColorRGB:
			r, g, b := sample(row, 3*x, d), sample(row, 3*x+1, d), sample(row, 3*x+2, d)
			p[0], p[1], p[2], p[3] = to8(r, d), to8(g, d), to8(b, d), 0xff
			if s.trns != nil &&
				r == binary.BigEndian.Uint16(s.trns[0:]) &&
				g == binary.BigEndian.Uint16(s.trns[2:]) &&
				b == binary.BigEndian.Uint16(s.trns[4:]) {
				p[3] = 0
			}
		case ColorIndexed:
			idx := int(sample(row, x, d))
			if 3*idx+2 >= len(s.palette) {
				return errs.Malformed(op, "palette index %d out of range (%d colors)", idx, len(s.palette)/3)
			}
			p[0], p[1], p[2] = s.palette[3*idx], s.palette[3*idx+1], s.palette[3*idx+2]
			p[3] = 0xff
			if idx < len(s.trns) {
				p[3] = s.trns[idx]
			}
		case ColorGrayAlpha:
			g := to8(sample(row, 2*x, d), d)
			p[0], p[1], p[2], p[3] = g, g, g, to8(sample(row, 2*x+1, d), d)
		case ColorRGBA:
			for c := 0; c < 4; c++ {
				p[c] = to8(sample(row, 4*x+c, d), d)
			}
		}
	}
	return nil
}
