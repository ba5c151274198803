package png

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"

	"golang.org/x/image/draw"

	"github.com/deepteams/snapshot/deflate"
	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/internal/pool"
)

// EncodeRGBA encodes w×h straight-alpha RGBA pixels, 4 bytes per pixel in
// row-major order, as a PNG file.
func EncodeRGBA(pix []byte, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, errs.InvalidRequest(op, "image dimensions must be positive, got %dx%d", w, h)
	}
	if w > 1<<31-1 || h > 1<<31-1 || w*h > maxPixels {
		return nil, errs.InvalidRequest(op, "image %dx%d too large", w, h)
	}
	stride := 4 * w
	if len(pix) != stride*h {
		return nil, errs.New(op, errs.KindInvalidRequest).
			Detail("pixel buffer is %d bytes, want %d for %dx%d", len(pix), stride*h, w, h).
			Value(len(pix)).
			Build()
	}

	raw := pool.Get(h * (stride + 1))
	defer pool.Put(raw)
	zero := pool.Get(stride)
	defer pool.Put(zero)

	prev := zero
	for y := 0; y < h; y++ {
		cur := pix[y*stride : (y+1)*stride]
		dst := raw[y*(stride+1) : (y+1)*(stride+1)]
		ft := chooseFilter(cur, prev, y)
		dst[0] = ft
		filterRow(ft, dst[1:], cur, prev, 4)
		prev = cur
	}
	idat := deflate.Deflate(raw)

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8] = 8
	ihdr[9] = byte(ColorRGBA)
	// Compression, filter and interlace methods are all 0.

	out := make([]byte, 0, len(signature)+3*12+len(ihdr)+len(idat))
	out = append(out, signature[:]...)
	out = appendChunk(out, chunkIHDR, ihdr[:])
	out = appendChunk(out, chunkIDAT, idat)
	out = appendChunk(out, chunkIEND, nil)
	return out, nil
}

// Encode writes img to w as a PNG file.
func Encode(w io.Writer, img image.Image) error {
	nrgba := toNRGBA(img)
	b := nrgba.Bounds()
	data, err := EncodeRGBA(nrgba.Pix, b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

// toNRGBA returns img as a tightly packed *image.NRGBA at the origin,
// converting only when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// appendChunk appends a length-prefixed chunk with its CRC.
func appendChunk(dst []byte, typ string, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	dst = append(dst, typ...)
	dst = append(dst, data...)
	crc := deflate.UpdateCRC32(deflate.CRC32([]byte(typ)), data)
	return binary.BigEndian.AppendUint32(dst, crc)
}
