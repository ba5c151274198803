package bitio

import "errors"

// ErrUnexpectedEOF is reported by Reader.Err when a read consumed bits past
// the end of the input.
var ErrUnexpectedEOF = errors.New("bitio: read past end of stream")

// MaxReadBits is the largest field ReadBits and Peek accept.
const MaxReadBits = 32

// Reader is an LSB-first bit reader with a 64-bit prefetch window.
//
// Reads past the end of the input see zero bits so callers can peek a full
// Huffman window near the end of a stream; the overrun is recorded and
// reported by Err once a read actually consumes those bits.
type Reader struct {
	buf      []byte
	pos      int    // next byte of buf to load into val
	val      uint64 // prefetched bits, next bit at position 0
	nbits    int    // valid bits in val (zero padding included)
	consumed int    // total bits consumed
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// fill tops the window up to at least 56 bits, padding with zeros past
// the end of the buffer.
func (br *Reader) fill() {
	for br.nbits <= 56 {
		var b byte
		if br.pos < len(br.buf) {
			b = br.buf[br.pos]
		}
		br.pos++
		br.val |= uint64(b) << uint(br.nbits)
		br.nbits += 8
	}
}

// Peek returns the next n (0..32) bits without consuming them.
func (br *Reader) Peek(n int) uint32 {
	if br.nbits < n {
		br.fill()
	}
	return uint32(br.val & (1<<uint(n) - 1))
}

// Skip consumes n bits previously inspected with Peek.
func (br *Reader) Skip(n int) {
	if br.nbits < n {
		br.fill()
	}
	br.val >>= uint(n)
	br.nbits -= n
	br.consumed += n
}

// ReadBits consumes and returns the next n (0..32) bits.
func (br *Reader) ReadBits(n int) uint32 {
	if n == 0 {
		return 0
	}
	v := br.Peek(n)
	br.Skip(n)
	return v
}

// AlignToByte discards bits up to the next byte boundary.
func (br *Reader) AlignToByte() {
	if r := br.consumed & 7; r != 0 {
		br.Skip(8 - r)
	}
}

// ReadBytes aligns to a byte boundary and returns the next n raw bytes as
// a sub-slice of the input. It returns false if fewer than n bytes remain.
func (br *Reader) ReadBytes(n int) ([]byte, bool) {
	br.AlignToByte()
	start := br.consumed >> 3
	if n < 0 || start+n > len(br.buf) {
		return nil, false
	}
	// Drop the prefetch window and restart after the raw bytes.
	br.val = 0
	br.nbits = 0
	br.pos = start + n
	br.consumed += n * 8
	return br.buf[start : start+n], true
}

// BytesConsumed returns the number of whole or partial bytes consumed.
func (br *Reader) BytesConsumed() int {
	return (br.consumed + 7) >> 3
}

// IsEndOfStream reports whether a read has consumed bits past the end of
// the input.
func (br *Reader) IsEndOfStream() bool {
	return br.consumed > len(br.buf)*8
}

// Err returns ErrUnexpectedEOF if the stream was over-read.
func (br *Reader) Err() error {
	if br.IsEndOfStream() {
		return ErrUnexpectedEOF
	}
	return nil
}
