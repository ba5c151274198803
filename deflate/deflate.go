package deflate

import (
	"encoding/binary"

	"github.com/deepteams/snapshot/internal/bitio"
	"github.com/deepteams/snapshot/internal/huffman"
	"github.com/deepteams/snapshot/internal/pool"
)

const (
	// storedThreshold is the input size below which Huffman coding is not
	// attempted.
	storedThreshold = 64
	// maxStoredBlock is the largest payload of a single stored block.
	maxStoredBlock = 65535

	zlibCMF = 0x78 // deflate, 32K window
	zlibFLG = 0x9c // default level, no dictionary

	windowSize     = pool.WindowSize
	windowMask     = windowSize - 1
	hashBits       = 15
	maxChainLength = 128
)

// Deflate compresses data into a zlib stream: header 0x78 0x9C, the
// compressed blocks, and the big-endian Adler-32 of data.
func Deflate(data []byte) []byte {
	limit := storedSize(len(data))
	var body []byte
	if len(data) >= storedThreshold {
		body = compressFixed(data, limit)
	}
	if body == nil {
		body = compressStored(data)
	}

	out := make([]byte, 0, 2+len(body)+4)
	out = append(out, zlibCMF, zlibFLG)
	out = append(out, body...)
	return binary.BigEndian.AppendUint32(out, Adler32(data))
}

// storedSize returns the encoded size of data written as stored blocks.
func storedSize(n int) int {
	blocks := max(1, (n+maxStoredBlock-1)/maxStoredBlock)
	return n + 5*blocks
}

// compressStored writes data as a run of byte-aligned stored blocks, the
// last one final. Empty input yields a single empty final block.
func compressStored(data []byte) []byte {
	w := bitio.NewWriter(storedSize(len(data)))
	var hdr [4]byte
	for {
		n := min(len(data), maxStoredBlock)
		final := uint32(0)
		if n == len(data) {
			final = 1
		}
		w.WriteBits(final, 1)
		w.WriteBits(blockStored, 2)
		binary.LittleEndian.PutUint16(hdr[0:], uint16(n))
		binary.LittleEndian.PutUint16(hdr[2:], ^uint16(n))
		w.WriteBytes(hdr[:])
		w.WriteBytes(data[:n])
		data = data[n:]
		if final == 1 {
			return w.Finish()
		}
	}
}

// compressFixed encodes data as one final fixed-Huffman block. It gives up
// and returns nil once the output grows past limit bytes.
func compressFixed(data []byte, limit int) []byte {
	w := bitio.NewWriter(len(data) / 2)
	w.WriteBits(1, 1)
	w.WriteBits(blockFixed, 2)

	m := newMatcher(data)
	defer m.release()

	n := len(data)
	for i := 0; i < n; {
		if w.NumBytes() > limit {
			return nil
		}
		length, dist := m.longest(i)
		m.insert(i)

		// Lazy evaluation: defer to a strictly longer match one byte on.
		if length >= minMatch && length < maxMatch && i+1 < n {
			if l2, d2 := m.longest(i + 1); l2 > length {
				writeLiteral(w, data[i])
				i++
				m.insert(i)
				length, dist = l2, d2
			}
		}

		if length < minMatch {
			writeLiteral(w, data[i])
			i++
			continue
		}
		writeMatch(w, length, dist)
		for j := i + 1; j < i+length; j++ {
			m.insert(j)
		}
		i += length
	}
	writeLiteral16(w, endOfBlock)
	if out := w.Finish(); len(out) <= limit {
		return out
	}
	return nil
}

func writeLiteral(w *bitio.Writer, b byte) {
	writeLiteral16(w, int(b))
}

func writeLiteral16(w *bitio.Writer, sym int) {
	w.WriteBits(uint32(fixedLitCode.Codes[sym]), int(fixedLitCode.Lengths[sym]))
}

func writeMatch(w *bitio.Writer, length, dist int) {
	lc := int(lengthCode[length])
	writeLiteral16(w, 257+lc)
	w.WriteBits(uint32(length-int(lengthBase[lc])), int(lengthExtra[lc]))

	dc := distCode(dist)
	w.WriteBits(uint32(huffman.Reverse(uint32(dc), 5)), 5)
	w.WriteBits(uint32(dist-int(distBase[dc])), int(distExtra[dc]))
}

// matcher finds LZ77 matches through hash chains over 3-byte prefixes.
// head holds the most recent position per hash; prev links each position
// to the previous one with the same hash, within the window.
type matcher struct {
	data []byte
	head []int32
	prev []int32
}

func newMatcher(data []byte) *matcher {
	return &matcher{
		data: data,
		head: pool.GetChain(1 << hashBits),
		prev: pool.GetChain(windowSize),
	}
}

func (m *matcher) release() {
	pool.PutChain(m.head)
	pool.PutChain(m.prev)
	m.head, m.prev = nil, nil
}

func hash3(b []byte) uint32 {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return (v * 2654435761) >> (32 - hashBits)
}

// insert records position i in the chains.
func (m *matcher) insert(i int) {
	if i+minMatch > len(m.data) {
		return
	}
	h := hash3(m.data[i:])
	m.prev[i&windowMask] = m.head[h]
	m.head[h] = int32(i)
}

// longest returns the longest match for position i among the chained
// candidates, or length 0 when none reaches minMatch.
func (m *matcher) longest(i int) (length, dist int) {
	n := len(m.data)
	if i+minMatch > n {
		return 0, 0
	}
	limit := min(maxMatch, n-i)
	cur := m.data[i:]
	cand := int(m.head[hash3(cur)])
	for chain := 0; cand >= 0 && chain < maxChainLength; chain++ {
		if i-cand > windowSize || cand >= i {
			break
		}
		prior := m.data[cand:]
		if length == 0 || prior[length] == cur[length] {
			l := 0
			for l < limit && prior[l] == cur[l] {
				l++
			}
			if l > length {
				length, dist = l, i-cand
				if l == limit {
					break
				}
			}
		}
		next := int(m.prev[cand&windowMask])
		if next >= cand {
			break
		}
		cand = next
	}
	if length < minMatch {
		return 0, 0
	}
	return length, dist
}
