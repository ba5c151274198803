package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RGBA is a straight-alpha 8-bit color.
type RGBA struct {
	R, G, B, A uint8
}

// RGBA implements color.Color.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return color.NRGBA(c).RGBA()
}

// Common colors.
var (
	Black       = RGBA{0, 0, 0, 0xff}
	White       = RGBA{0xff, 0xff, 0xff, 0xff}
	Transparent = RGBA{}
)

// withOpacity scales the alpha of c by o in [0, 1].
func withOpacity(c RGBA, o float64) RGBA {
	if o >= 1 {
		return c
	}
	if o <= 0 {
		return RGBA{}
	}
	c.A = uint8(float64(c.A)*o + 0.5)
	return c
}

// PixelBuffer is a Width×Height image stored as RGBA rows.
type PixelBuffer struct {
	Width  int
	Height int
	Data   []byte // len == Width*Height*4
}

// NewPixelBuffer returns a transparent buffer. Negative sizes are treated
// as zero.
func NewPixelBuffer(width, height int) *PixelBuffer {
	width, height = max(width, 0), max(height, 0)
	return &PixelBuffer{Width: width, Height: height, Data: make([]byte, width*height*4)}
}

// FromImage copies img into a new buffer.
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	buf := NewPixelBuffer(b.Dx(), b.Dy())
	draw.Draw(buf.ToNRGBA(), image.Rect(0, 0, buf.Width, buf.Height), img, b.Min, draw.Src)
	return buf
}

// ToNRGBA returns an image sharing the buffer's pixels.
func (p *PixelBuffer) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: p.Data, Stride: p.Width * 4, Rect: image.Rect(0, 0, p.Width, p.Height)}
}

func (p *PixelBuffer) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < p.Width && y < p.Height
}

// Fill sets every pixel to c.
func (p *PixelBuffer) Fill(c RGBA) {
	for i := 0; i < len(p.Data); i += 4 {
		p.Data[i], p.Data[i+1], p.Data[i+2], p.Data[i+3] = c.R, c.G, c.B, c.A
	}
}

// Set overwrites the pixel at (x, y).
func (p *PixelBuffer) Set(x, y int, c RGBA) {
	if !p.in(x, y) {
		return
	}
	i := (y*p.Width + x) * 4
	p.Data[i], p.Data[i+1], p.Data[i+2], p.Data[i+3] = c.R, c.G, c.B, c.A
}

// At returns the pixel at (x, y), or transparent outside the buffer.
func (p *PixelBuffer) At(x, y int) RGBA {
	if !p.in(x, y) {
		return RGBA{}
	}
	i := (y*p.Width + x) * 4
	return RGBA{p.Data[i], p.Data[i+1], p.Data[i+2], p.Data[i+3]}
}

// Blend composites c over the pixel at (x, y). Opaque colors are written
// directly.
func (p *PixelBuffer) Blend(x, y int, c RGBA) {
	switch {
	case c.A == 0xff:
		p.Set(x, y, c)
		return
	case c.A == 0 || !p.in(x, y):
		return
	}
	i := (y*p.Width + x) * 4
	d := p.Data[i : i+4 : i+4]

	sa := uint32(c.A)
	da := uint32(d[3]) * (255 - sa) / 255
	oa := sa + da
	mix := func(s, dst uint8) uint8 {
		return uint8((uint32(s)*sa + uint32(dst)*da + oa/2) / oa)
	}
	d[0], d[1], d[2], d[3] = mix(c.R, d[0]), mix(c.G, d[1]), mix(c.B, d[2]), uint8(oa)
}

// FillRect blends c over the w×h rectangle at (x, y).
func (p *PixelBuffer) FillRect(x, y, w, h int, c RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, p.Width, p.Height))
	if r.Empty() || c.A == 0 {
		return
	}
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			p.Blend(px, py, c)
		}
	}
}

// Crop returns a copy of the part of the buffer inside r. The result is
// empty when r does not overlap the buffer.
func (p *PixelBuffer) Crop(r image.Rectangle) *PixelBuffer {
	r = r.Intersect(image.Rect(0, 0, p.Width, p.Height))
	out := NewPixelBuffer(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := ((r.Min.Y+y)*p.Width + r.Min.X) * 4
		copy(out.Data[y*out.Width*4:(y+1)*out.Width*4], p.Data[src:src+out.Width*4])
	}
	return out
}
