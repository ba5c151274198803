package png

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	stdpng "image/png"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/deepteams/snapshot/deflate"
	"github.com/deepteams/snapshot/errs"
)

// buildPNG assembles a PNG from IHDR data, optional PLTE and tRNS, and
// unfiltered packed rows, filtering row y with filters[y%len(filters)].
func buildPNG(hdr, plte, trns []byte, rows [][]byte, filters []byte) []byte {
	ct := ColorType(hdr[9])
	bitsPP := ct.channels() * int(hdr[8])
	bpp := max(1, bitsPP/8)

	var raw []byte
	prev := make([]byte, len(rows[0]))
	for y, row := range rows {
		ft := filters[y%len(filters)]
		out := make([]byte, len(row))
		filterRow(ft, out, row, prev, bpp)
		raw = append(raw, ft)
		raw = append(raw, out...)
		prev = row
	}

	out := append([]byte(nil), signature[:]...)
	out = appendChunk(out, chunkIHDR, hdr)
	if plte != nil {
		out = appendChunk(out, chunkPLTE, plte)
	}
	if trns != nil {
		out = appendChunk(out, chunkTRNS, trns)
	}
	out = appendChunk(out, chunkIDAT, deflate.Deflate(raw))
	return appendChunk(out, chunkIEND, nil)
}

func px(r, g, b, a uint8) []byte { return []byte{r, g, b, a} }

func TestDecode_HandBuilt(t *testing.T) {
	allFilters := []byte{filterNone, filterSub, filterUp, filterAverage, filterPaeth}
	rng := rand.New(rand.NewSource(21))
	rgbaRows := make([][]byte, 7)
	var rgbaWant []byte
	for y := range rgbaRows {
		rgbaRows[y] = make([]byte, 4*9)
		rng.Read(rgbaRows[y])
		rgbaWant = append(rgbaWant, rgbaRows[y]...)
	}

	tests := []struct {
		name    string
		data    []byte
		w, h    int
		wantPix []byte
	}{
		{
			name: "gray 1-bit",
			data: buildPNG(ihdr(10, 1, ColorGray, 1), nil, nil,
				[][]byte{{0b10110000, 0b01000000}}, allFilters),
			w: 10, h: 1,
			wantPix: bytes.Join([][]byte{
				px(255, 255, 255, 255), px(0, 0, 0, 255), px(255, 255, 255, 255), px(255, 255, 255, 255),
				px(0, 0, 0, 255), px(0, 0, 0, 255), px(0, 0, 0, 255), px(0, 0, 0, 255),
				px(0, 0, 0, 255), px(255, 255, 255, 255),
			}, nil),
		},
		{
			name: "gray 2-bit with tRNS",
			data: buildPNG(ihdr(4, 1, ColorGray, 2), nil, []byte{0, 2},
				[][]byte{{0b00011011}}, allFilters),
			w: 4, h: 1,
			wantPix: bytes.Join([][]byte{
				px(0, 0, 0, 255), px(85, 85, 85, 255), px(170, 170, 170, 0), px(255, 255, 255, 255),
			}, nil),
		},
		{
			name: "indexed 4-bit with tRNS",
			data: buildPNG(ihdr(3, 2, ColorIndexed, 4),
				[]byte{255, 0, 0, 0, 255, 0, 0, 0, 255}, []byte{0x80},
				[][]byte{{0x01, 0x20}, {0x21, 0x00}}, []byte{filterNone, filterUp}),
			w: 3, h: 2,
			wantPix: bytes.Join([][]byte{
				px(255, 0, 0, 0x80), px(0, 255, 0, 255), px(0, 0, 255, 255),
				px(0, 0, 255, 255), px(0, 255, 0, 255), px(255, 0, 0, 0x80),
			}, nil),
		},
		{
			name: "rgb 16-bit with tRNS",
			data: buildPNG(ihdr(2, 1, ColorRGB, 16), nil,
				[]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
				[][]byte{{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}}, []byte{filterPaeth}),
			w: 2, h: 1,
			wantPix: bytes.Join([][]byte{px(0x12, 0x56, 0x9a, 255), px(0xaa, 0xcc, 0xee, 0)}, nil),
		},
		{
			name: "gray+alpha 8-bit",
			data: buildPNG(ihdr(2, 2, ColorGrayAlpha, 8), nil, nil,
				[][]byte{{10, 20, 30, 40}, {50, 60, 70, 80}}, []byte{filterAverage}),
			w: 2, h: 2,
			wantPix: bytes.Join([][]byte{
				px(10, 10, 10, 20), px(30, 30, 30, 40), px(50, 50, 50, 60), px(70, 70, 70, 80),
			}, nil),
		},
		{
			name: "rgba 8-bit every filter",
			data: buildPNG(ihdr(9, 7, ColorRGBA, 8), nil, nil, rgbaRows, allFilters),
			w:    9, h: 7,
			wantPix: rgbaWant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, tt.w, tt.h) {
				t.Fatalf("bounds = %v", img.Bounds())
			}
			if diff := cmp.Diff(tt.wantPix, img.Pix); diff != "" {
				t.Errorf("pixels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// expectedNRGBA reduces an image to 8-bit straight alpha the way the
// decoder does: 16-bit samples keep their high byte.
func expectedNRGBA(img image.Image) []byte {
	b := img.Bounds()
	var out []byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var c color.NRGBA
			switch v := img.At(x, y).(type) {
			case color.NRGBA:
				c = v
			case color.NRGBA64:
				c = color.NRGBA{uint8(v.R >> 8), uint8(v.G >> 8), uint8(v.B >> 8), uint8(v.A >> 8)}
			case color.RGBA64:
				c = color.NRGBA{uint8(v.R >> 8), uint8(v.G >> 8), uint8(v.B >> 8), uint8(v.A >> 8)}
			case color.Gray:
				c = color.NRGBA{v.Y, v.Y, v.Y, 0xff}
			case color.Gray16:
				c = color.NRGBA{uint8(v.Y >> 8), uint8(v.Y >> 8), uint8(v.Y >> 8), 0xff}
			default:
				c = color.NRGBAModel.Convert(v).(color.NRGBA)
			}
			out = append(out, c.R, c.G, c.B, c.A)
		}
	}
	return out
}

// TestDecode_StdlibEncoded decodes files written by image/png, which
// picks the color type and bit depth from the image type and uses every
// filter.
func TestDecode_StdlibEncoded(t *testing.T) {
	const w, h = 23, 11
	rng := rand.New(rand.NewSource(31))

	gray := image.NewGray(image.Rect(0, 0, w, h))
	rng.Read(gray.Pix)
	gray16 := image.NewGray16(image.Rect(0, 0, w, h))
	rng.Read(gray16.Pix)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	rng.Read(rgba.Pix)
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 0xff
	}
	rgba64 := image.NewRGBA64(image.Rect(0, 0, w, h))
	rng.Read(rgba64.Pix)
	for i := 6; i < len(rgba64.Pix); i += 8 {
		rgba64.Pix[i], rgba64.Pix[i+1] = 0xff, 0xff
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng.Read(nrgba.Pix)
	nrgba64 := image.NewNRGBA64(image.Rect(0, 0, w, h))
	rng.Read(nrgba64.Pix)

	paletted := func(n int, alpha bool) *image.Paletted {
		pal := make(color.Palette, n)
		for i := range pal {
			a := uint8(0xff)
			if alpha && i%3 == 0 {
				a = uint8(i * 7)
			}
			pal[i] = color.NRGBA{uint8(i * 5), uint8(255 - i), uint8(i * i), a}
		}
		p := image.NewPaletted(image.Rect(0, 0, w, h), pal)
		for i := range p.Pix {
			p.Pix[i] = uint8(rng.Intn(n))
		}
		return p
	}

	tests := []struct {
		name string
		img  image.Image
	}{
		{"gray8", gray},
		{"gray16", gray16},
		{"rgb8", rgba},
		{"rgb16", rgba64},
		{"rgba8", nrgba},
		{"rgba16", nrgba64},
		{"paletted 1-bit", paletted(2, false)},
		{"paletted 2-bit", paletted(4, true)},
		{"paletted 4-bit", paletted(16, true)},
		{"paletted 8-bit", paletted(200, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := stdpng.Encode(&buf, tt.img); err != nil {
				t.Fatal(err)
			}
			img, err := Decode(buf.Bytes())
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(expectedNRGBA(tt.img), img.Pix); diff != "" {
				t.Errorf("pixels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// withChunk returns data with a chunk inserted before the chunk at index i.
func withChunk(t *testing.T, data []byte, i int, typ string, body []byte) []byte {
	t.Helper()
	chunks, err := Chunks(data)
	if err != nil {
		t.Fatal(err)
	}
	out := append([]byte(nil), signature[:]...)
	for j, c := range chunks {
		if j == i {
			out = appendChunk(out, typ, body)
		}
		out = appendChunk(out, c.Type, c.Data)
	}
	return out
}

func TestDecode_Errors(t *testing.T) {
	good, err := EncodeRGBA(randomPix(4, 4, 9), 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	row := [][]byte{{0, 0, 0}}

	badCRC := bytes.Clone(good)
	badCRC[len(signature)+8+3] ^= 1 // inside IHDR data

	interlaced := ihdr(1, 1, ColorGray, 8)
	interlaced[12] = 1

	truncatedIDAT := func() []byte {
		out := append([]byte(nil), signature[:]...)
		out = appendChunk(out, chunkIHDR, ihdr(4, 4, ColorRGBA, 8))
		out = appendChunk(out, chunkIDAT, deflate.Deflate([]byte{0, 1, 2, 3}))
		return appendChunk(out, chunkIEND, nil)
	}()

	splitIDAT := func() []byte {
		out := append([]byte(nil), signature[:]...)
		out = appendChunk(out, chunkIHDR, ihdr(1, 1, ColorGray, 8))
		z := deflate.Deflate([]byte{0, 7})
		out = appendChunk(out, chunkIDAT, z[:3])
		out = appendChunk(out, "tEXt", []byte("k\x00v"))
		out = appendChunk(out, chunkIDAT, z[3:])
		return appendChunk(out, chunkIEND, nil)
	}()

	tests := []struct {
		name string
		data []byte
		kind errs.Kind
	}{
		{"empty", nil, errs.KindMalformedInput},
		{"bad signature", append([]byte("\x89PNX\r\n\x1a\n"), good[8:]...), errs.KindMalformedInput},
		{"zero width", buildPNG(ihdr(0, 1, ColorGray, 8), nil, nil, row, []byte{0}), errs.KindMalformedInput},
		{"zero height", buildPNG(ihdr(1, 0, ColorGray, 8), nil, nil, row, []byte{0}), errs.KindMalformedInput},
		{"bad crc", badCRC, errs.KindMalformedInput},
		{"interlaced", buildPNG(interlaced, nil, nil, row, []byte{0}), errs.KindUnsupportedFeature},
		{"bad depth for rgb", buildPNG(ihdr(1, 1, ColorRGB, 4), nil, nil, row, []byte{0}), errs.KindMalformedInput},
		{"bad color type", buildPNG(ihdr(1, 1, 5, 8), nil, nil, row, []byte{0}), errs.KindMalformedInput},
		{"indexed without PLTE", buildPNG(ihdr(1, 1, ColorIndexed, 8), nil, nil, row, []byte{0}), errs.KindMalformedInput},
		{"palette index out of range", buildPNG(ihdr(1, 1, ColorIndexed, 8), []byte{1, 2, 3, 4, 5, 6}, nil, [][]byte{{5}}, []byte{0}), errs.KindMalformedInput},
		{"PLTE in gray image", buildPNG(ihdr(1, 1, ColorGray, 8), []byte{1, 2, 3}, nil, row, []byte{0}), errs.KindMalformedInput},
		{"tRNS in rgba image", withChunk(t, good, 1, chunkTRNS, []byte{1, 2}), errs.KindMalformedInput},
		{"first chunk not IHDR", withChunk(t, good, 0, "tEXt", []byte("a\x00b")), errs.KindMalformedInput},
		{"duplicate IHDR", withChunk(t, good, 1, chunkIHDR, ihdr(4, 4, ColorRGBA, 8)), errs.KindMalformedInput},
		{"PLTE after IDAT", withChunk(t, good, 2, chunkPLTE, []byte{1, 2, 3}), errs.KindMalformedInput},
		{"unknown critical chunk", withChunk(t, good, 1, "ABCD", nil), errs.KindUnsupportedFeature},
		{"missing IEND", good[:len(good)-12], errs.KindMalformedInput},
		{"truncated image data", truncatedIDAT, errs.KindMalformedInput},
		{"non-consecutive IDAT", splitIDAT, errs.KindMalformedInput},
		{"unknown filter", func() []byte {
			out := append([]byte(nil), signature[:]...)
			out = appendChunk(out, chunkIHDR, ihdr(1, 1, ColorGray, 8))
			out = appendChunk(out, chunkIDAT, deflate.Deflate([]byte{9, 0}))
			return appendChunk(out, chunkIEND, nil)
		}(), errs.KindMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data)
			if err == nil {
				t.Fatalf("expected error, got %v image", img.Bounds())
			}
			if k := errs.KindOf(err); k != tt.kind {
				t.Errorf("kind = %q, want %q (err: %v)", k, tt.kind, err)
			}
		})
	}
}

func TestDecode_AncillaryChunksIgnored(t *testing.T) {
	good, err := EncodeRGBA(gradientPix(5, 5), 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	data := withChunk(t, good, 1, "tEXt", []byte("Software\x00snapshot"))
	data = withChunk(t, data, 2, "gAMA", binary.BigEndian.AppendUint32(nil, 45455))
	img, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Pix, gradientPix(5, 5)) {
		t.Error("pixels changed by ancillary chunks")
	}
}

func TestIsPNG(t *testing.T) {
	data, err := EncodeRGBA(make([]byte, 4), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !IsPNG(data) {
		t.Error("IsPNG(encoded) = false")
	}
	for _, b := range [][]byte{nil, signature[:7], []byte("GIF89a\x00\x00\x00")} {
		if IsPNG(b) {
			t.Errorf("IsPNG(%q) = true", b)
		}
	}
}
