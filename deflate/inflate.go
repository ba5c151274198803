package deflate

import (
	"encoding/binary"

	"github.com/deepteams/snapshot/errs"
	"github.com/deepteams/snapshot/internal/bitio"
	"github.com/deepteams/snapshot/internal/huffman"
)

const op = "deflate"

// Inflate decompresses a zlib stream. It validates the two-byte header
// (check bits, compression method 8, window size) and the Adler-32
// trailer. Streams that need a preset dictionary are rejected.
func Inflate(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errs.Malformed(op, "zlib stream too short: %d bytes", len(data))
	}
	cmf, flg := data[0], data[1]
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return nil, errs.New(op, errs.KindMalformedInput).
			Detail("zlib header check failed").
			Value([2]byte{cmf, flg}).
			Build()
	}
	if cm := cmf & 0x0f; cm != 8 {
		return nil, errs.Malformed(op, "unsupported compression method %d", cm)
	}
	if cinfo := cmf >> 4; cinfo > 7 {
		return nil, errs.Malformed(op, "invalid window size exponent %d", cinfo)
	}
	if flg&0x20 != 0 {
		return nil, errs.Unsupported(op, "zlib preset dictionary")
	}

	out, n, err := inflate(data[2:])
	if err != nil {
		return nil, err
	}
	rest := data[2+n:]
	if len(rest) < 4 {
		return nil, errs.Malformed(op, "missing Adler-32 trailer")
	}
	if want, got := binary.BigEndian.Uint32(rest), Adler32(out); want != got {
		return nil, errs.Malformed(op, "Adler-32 mismatch: stream %#08x, data %#08x", want, got)
	}
	return out, nil
}

// InflateRaw decompresses a raw DEFLATE stream with no zlib framing.
// Bytes after the final block are ignored.
func InflateRaw(data []byte) ([]byte, error) {
	out, _, err := inflate(data)
	return out, err
}

// inflate decodes blocks until the final one and returns the output and
// the number of input bytes consumed.
func inflate(data []byte) ([]byte, int, error) {
	d := &decoder{
		br:  bitio.NewReader(data),
		out: make([]byte, 0, 4*len(data)),
	}
	if err := d.run(); err != nil {
		return nil, 0, err
	}
	return d.out, d.br.BytesConsumed(), nil
}

type decoder struct {
	br  *bitio.Reader
	out []byte
}

func (d *decoder) run() error {
	for {
		final := d.br.ReadBits(1)
		typ := d.br.ReadBits(2)
		var err error
		switch typ {
		case blockStored:
			err = d.stored()
		case blockFixed:
			err = d.huffmanBlock(fixedLitTable, fixedDistTable)
		case blockDynamic:
			var lit, dist *huffman.Table
			if lit, dist, err = d.dynamicTables(); err == nil {
				err = d.huffmanBlock(lit, dist)
			}
		default:
			err = errs.Malformed(op, "reserved block type 3")
		}
		if err != nil {
			return err
		}
		if d.br.IsEndOfStream() {
			return errs.Malformed(op, "unexpected end of stream")
		}
		if final == 1 {
			return nil
		}
	}
}

func (d *decoder) stored() error {
	hdr, ok := d.br.ReadBytes(4)
	if !ok {
		return errs.Malformed(op, "truncated stored block header")
	}
	n := binary.LittleEndian.Uint16(hdr[0:2])
	if nn := binary.LittleEndian.Uint16(hdr[2:4]); n != ^nn {
		return errs.Malformed(op, "stored block length %d does not match complement %d", n, nn)
	}
	p, ok := d.br.ReadBytes(int(n))
	if !ok {
		return errs.Malformed(op, "truncated stored block: want %d bytes", n)
	}
	d.out = append(d.out, p...)
	return nil
}

// huffmanBlock decodes literal/length and distance symbols up to the end
// of block code. dist is nil when the block declares no distance codes.
func (d *decoder) huffmanBlock(lit, dist *huffman.Table) error {
	br := d.br
	for {
		sym := lit.ReadSymbol(br)
		if br.IsEndOfStream() {
			return errs.Malformed(op, "unexpected end of stream in compressed block")
		}
		switch {
		case sym < 0:
			return errs.Malformed(op, "invalid literal/length code")
		case sym < endOfBlock:
			d.out = append(d.out, byte(sym))
			continue
		case sym == endOfBlock:
			return nil
		case sym >= maxLitLen:
			return errs.Malformed(op, "invalid length symbol %d", sym)
		}

		lc := sym - 257
		length := int(lengthBase[lc]) + int(br.ReadBits(int(lengthExtra[lc])))

		if dist == nil {
			return errs.Malformed(op, "length code in block without distance codes")
		}
		dc := dist.ReadSymbol(br)
		if dc < 0 || dc >= numDistCodes {
			return errs.Malformed(op, "invalid distance symbol %d", dc)
		}
		distance := int(distBase[dc]) + int(br.ReadBits(int(distExtra[dc])))
		if distance > len(d.out) {
			return errs.Malformed(op, "distance %d exceeds output size %d", distance, len(d.out))
		}

		// Overlapping copies repeat the most recent bytes.
		start := len(d.out) - distance
		for i := 0; i < length; i++ {
			d.out = append(d.out, d.out[start+i])
		}
	}
}

// dynamicTables reads a dynamic block header: the code-length code, then
// the run-length coded literal/length and distance code lengths.
func (d *decoder) dynamicTables() (lit, dist *huffman.Table, err error) {
	br := d.br
	hlit := int(br.ReadBits(5)) + 257
	hdist := int(br.ReadBits(5)) + 1
	hclen := int(br.ReadBits(4)) + 4
	if hlit > maxLitLen || hdist > numDistCodes {
		return nil, nil, errs.Malformed(op, "too many codes: %d literal/length, %d distance", hlit, hdist)
	}

	var clLengths [huffman.NumCodeLengthCodes]uint8
	for i := 0; i < hclen; i++ {
		clLengths[codeLengthOrder[i]] = uint8(br.ReadBits(3))
	}
	cl, err := buildTable(clLengths[:], clRootBits)
	if err != nil {
		return nil, nil, errs.Wrap(op, errs.KindMalformedInput, err, "code-length code")
	}

	lengths := make([]uint8, hlit+hdist)
	for i := 0; i < len(lengths); {
		sym := cl.ReadSymbol(br)
		if br.IsEndOfStream() {
			return nil, nil, errs.Malformed(op, "unexpected end of stream in code lengths")
		}
		if sym < 0 {
			return nil, nil, errs.Malformed(op, "invalid code-length code")
		}
		if sym < huffman.RepeatPrevious {
			lengths[i] = uint8(sym)
			i++
			continue
		}

		slot := sym - huffman.RepeatPrevious
		repeat := huffman.RepeatOffset[slot] + int(br.ReadBits(huffman.RepeatExtraBits[slot]))
		if i+repeat > len(lengths) {
			return nil, nil, errs.Malformed(op, "code length repeat overflows %d codes", len(lengths))
		}
		var v uint8
		if sym == huffman.RepeatPrevious {
			if i == 0 {
				return nil, nil, errs.Malformed(op, "repeat of previous length with no previous length")
			}
			v = lengths[i-1]
		}
		for ; repeat > 0; repeat-- {
			lengths[i] = v
			i++
		}
	}

	if lengths[endOfBlock] == 0 {
		return nil, nil, errs.Malformed(op, "missing end-of-block code")
	}
	if lit, err = buildTable(lengths[:hlit], litRootBits); err != nil {
		return nil, nil, errs.Wrap(op, errs.KindMalformedInput, err, "literal/length code")
	}

	distLengths := lengths[hlit:]
	used := 0
	for _, l := range distLengths {
		if l > 0 {
			used++
		}
	}
	if used == 0 {
		// Literal-only block.
		return lit, nil, nil
	}
	if dist, err = buildTable(distLengths, distRootBits); err != nil {
		return nil, nil, errs.Wrap(op, errs.KindMalformedInput, err, "distance code")
	}
	return lit, dist, nil
}

// buildTable builds a decode table. A code with a single used symbol is
// given the one-bit codeword 0, as encoders emit for lone distance codes.
func buildTable(lengths []uint8, rootBits int) (*huffman.Table, error) {
	sym, used := -1, 0
	for s, l := range lengths {
		if l > 0 {
			sym = s
			used++
		}
	}
	if used == 1 {
		return huffman.BuildSingleCodeTable(sym, rootBits), nil
	}
	return huffman.BuildTable(lengths, rootBits)
}
