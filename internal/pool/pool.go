// Package pool keeps size-bucketed sync.Pool instances for the scratch
// buffers of the codecs: PNG filter rows and the LZ77 hash chains.
package pool

import "sync"

// Size classes for byte buckets.
const (
	Size256B = 256
	Size4K   = 4096
	Size64K  = 65536
	Size1M   = 1048576
)

var byteSizes = [...]int{Size256B, Size4K, Size64K, Size1M}

// Chain table sizes used by the LZ77 matcher: 1<<15 head slots and a 32 KiB
// window of prev links.
const (
	HashSize   = 1 << 15
	WindowSize = 1 << 15
)

var bytePools [len(byteSizes)]sync.Pool

var int32Pool = sync.Pool{
	New: func() any {
		b := make([]int32, HashSize)
		return &b
	},
}

func init() {
	for i := range bytePools {
		sz := byteSizes[i]
		bytePools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

func bucketIndex(size int) int {
	for i, sz := range byteSizes {
		if size <= sz {
			return i
		}
	}
	return len(byteSizes) - 1
}

// Get returns a zeroed byte slice of length size. The caller should
// return it with Put.
func Get(size int) []byte {
	idx := bucketIndex(size)
	bp := bytePools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns a slice obtained from Get. Slices below the smallest class
// are dropped.
func Put(b []byte) {
	c := cap(b)
	if c < Size256B {
		return
	}
	// Bucket by the largest class the capacity fully covers.
	idx := len(byteSizes) - 1
	for idx > 0 && byteSizes[idx] > c {
		idx--
	}
	b = b[:c]
	bytePools[idx].Put(&b)
}

// GetChain returns a table of n int32 slots, every slot set to -1.
func GetChain(n int) []int32 {
	bp := int32Pool.Get().(*[]int32)
	b := *bp
	if cap(b) < n {
		b = make([]int32, n)
	}
	b = b[:n]
	for i := range b {
		b[i] = -1
	}
	return b
}

// PutChain returns a table obtained from GetChain.
func PutChain(b []int32) {
	if cap(b) < HashSize {
		return
	}
	b = b[:cap(b)]
	int32Pool.Put(&b)
}
