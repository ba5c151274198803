package huffman

import "container/heap"

// Code is a canonical prefix code ready for encoding: for every symbol of
// the alphabet, its code length and its bit-reversed codeword.
type Code struct {
	Lengths []uint8
	Codes   []uint16
}

// NewCode builds a length-limited canonical code from a symbol histogram.
func NewCode(histogram []uint32, limit int) *Code {
	lengths := Lengths(histogram, limit)
	return &Code{Lengths: lengths, Codes: Canonical(lengths)}
}

// NewCodeFromLengths builds the canonical codewords for fixed code lengths.
func NewCodeFromLengths(lengths []uint8) *Code {
	return &Code{Lengths: lengths, Codes: Canonical(lengths)}
}

// UsedSymbols returns the symbols with a non-zero code length, in
// increasing order.
func (c *Code) UsedSymbols() []int {
	var syms []int
	for s, l := range c.Lengths {
		if l > 0 {
			syms = append(syms, s)
		}
	}
	return syms
}

// treeNode is a leaf or internal node used while building a Huffman tree
// from symbol frequencies.
type treeNode struct {
	count uint32
	value int // symbol for leaves, -1 for internal nodes
	left  int // pool index, -1 for none
	right int
}

type nodeHeap struct {
	pool    []treeNode
	indices []int
}

func (h *nodeHeap) Len() int { return len(h.indices) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.pool[h.indices[i]], h.pool[h.indices[j]]
	if a.count != b.count {
		return a.count < b.count
	}
	return h.indices[i] < h.indices[j]
}

func (h *nodeHeap) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
}

func (h *nodeHeap) Push(x any) {
	h.indices = append(h.indices, x.(int))
}

func (h *nodeHeap) Pop() any {
	old := h.indices
	n := len(old)
	idx := old[n-1]
	h.indices = old[:n-1]
	return idx
}

// Lengths computes Huffman code lengths for histogram, none longer than
// limit. A single used symbol gets length 1. The result always satisfies
// Kraft's inequality with equality when two or more symbols are used.
func Lengths(histogram []uint32, limit int) []uint8 {
	lengths := make([]uint8, len(histogram))
	used := 0
	for _, c := range histogram {
		if c > 0 {
			used++
		}
	}
	switch used {
	case 0:
		return lengths
	case 1, 2:
		for s, c := range histogram {
			if c > 0 {
				lengths[s] = 1
			}
		}
		return lengths
	}

	// Flatten the distribution by raising small counts until the deepest
	// leaf fits within the limit.
	for countMin := uint32(1); ; countMin *= 2 {
		clear(lengths)

		h := &nodeHeap{pool: make([]treeNode, 0, 2*used)}
		for s, c := range histogram {
			if c == 0 {
				continue
			}
			if c < countMin {
				c = countMin
			}
			h.indices = append(h.indices, len(h.pool))
			h.pool = append(h.pool, treeNode{count: c, value: s, left: -1, right: -1})
		}
		heap.Init(h)

		for h.Len() > 1 {
			l := heap.Pop(h).(int)
			r := heap.Pop(h).(int)
			h.pool = append(h.pool, treeNode{
				count: h.pool[l].count + h.pool[r].count,
				value: -1,
				left:  l,
				right: r,
			})
			heap.Push(h, len(h.pool)-1)
		}

		assignDepths(h.pool, h.indices[0], lengths)

		maxDepth := uint8(0)
		for _, l := range lengths {
			maxDepth = max(maxDepth, l)
		}
		if int(maxDepth) <= limit {
			return lengths
		}
	}
}

// assignDepths walks the tree with an explicit stack and records the
// depth of each leaf as its code length.
func assignDepths(pool []treeNode, root int, lengths []uint8) {
	type item struct{ node, depth int }
	stack := []item{{root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &pool[it.node]
		if n.value >= 0 {
			lengths[n.value] = uint8(it.depth)
			continue
		}
		stack = append(stack, item{n.left, it.depth + 1}, item{n.right, it.depth + 1})
	}
}

// Canonical assigns canonical codewords to code lengths: shorter codes
// first, increasing symbol order within a length. The returned codewords
// are bit-reversed for LSB-first emission.
func Canonical(lengths []uint8) []uint16 {
	var count [MaxCodeLength + 1]int
	for _, l := range lengths {
		count[l]++
	}
	count[0] = 0

	var next [MaxCodeLength + 2]uint32
	code := uint32(0)
	for l := 1; l <= MaxCodeLength; l++ {
		code = (code + uint32(count[l-1])) << 1
		next[l] = code
	}

	codes := make([]uint16, len(lengths))
	for s, l := range lengths {
		if l == 0 {
			continue
		}
		codes[s] = Reverse(next[l], int(l))
		next[l]++
	}
	return codes
}

// Reverse reverses the low n bits of v.
func Reverse(v uint32, n int) uint16 {
	var r uint32
	for i := 0; i < n; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return uint16(r)
}
