package bitio

import "encoding/binary"

const (
	// writerBits is the number of bits flushed at a time.
	writerBits = 32
	// writerBytes is the number of bytes written per flush.
	writerBytes = 4
)

// Writer is an accumulator-based LSB-first bit writer.
//
// Bits are accumulated in a 64-bit register and flushed 32 bits (4 bytes)
// at a time in little-endian byte order. This matches the format expected
// by Reader.
type Writer struct {
	bits uint64 // bit accumulator
	used int    // number of bits used in accumulator
	buf  []byte // output buffer
	cur  int    // current write position in buf
}

// NewWriter creates a Writer with an initial buffer pre-allocated for
// expectedSize bytes.
func NewWriter(expectedSize int) *Writer {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	// Round up to the next 1k boundary.
	expectedSize = ((expectedSize >> 10) + 1) << 10
	return &Writer{
		buf: make([]byte, expectedSize),
	}
}

// WriteBits writes the low nBits (0..32) of v into the bitstream.
// Bits of v above nBits must be zero.
func (bw *Writer) WriteBits(v uint32, nBits int) {
	if nBits == 0 {
		return
	}
	if bw.used >= writerBits {
		bw.flushBits()
	}
	bw.bits |= uint64(v) << uint(bw.used)
	bw.used += nBits
}

// align pads the stream with zero bits up to the next byte boundary.
func (bw *Writer) align() {
	bw.used = (bw.used + 7) &^ 7
}

// WriteBytes aligns the stream to a byte boundary and appends p verbatim.
func (bw *Writer) WriteBytes(p []byte) {
	bw.align()
	bw.flushWholeBytes()
	bw.grow(len(p))
	bw.cur += copy(bw.buf[bw.cur:], p)
}

// flushBits writes the lower 32 bits of the accumulator to the output
// buffer as 4 little-endian bytes and shifts the accumulator right by 32.
func (bw *Writer) flushBits() {
	bw.grow(writerBytes)
	binary.LittleEndian.PutUint32(bw.buf[bw.cur:], uint32(bw.bits))
	bw.cur += writerBytes
	bw.bits >>= writerBits
	bw.used -= writerBits
}

// flushWholeBytes moves every complete byte of the accumulator to buf.
func (bw *Writer) flushWholeBytes() {
	bw.grow((bw.used + 7) >> 3)
	for bw.used >= 8 {
		bw.buf[bw.cur] = byte(bw.bits)
		bw.cur++
		bw.bits >>= 8
		bw.used -= 8
	}
}

// grow ensures at least n bytes of capacity remain at bw.cur.
func (bw *Writer) grow(n int) {
	if bw.cur+n <= len(bw.buf) {
		return
	}
	newSize := len(bw.buf) * 3 / 2
	need := bw.cur + n
	if newSize < need {
		newSize = need
	}
	// Round up to next 1k boundary.
	newSize = ((newSize >> 10) + 1) << 10
	tmp := make([]byte, newSize)
	copy(tmp, bw.buf[:bw.cur])
	bw.buf = tmp
}

// Finish pads the final partial byte with zeros, flushes everything and
// returns the encoded bytes. The Writer must not be used afterwards.
func (bw *Writer) Finish() []byte {
	bw.align()
	bw.flushWholeBytes()
	bw.bits = 0
	bw.used = 0
	return bw.buf[:bw.cur]
}

// NumBytes returns the number of encoded bytes, including any partial
// byte in the accumulator.
func (bw *Writer) NumBytes() int {
	return bw.cur + (bw.used+7)/8
}
