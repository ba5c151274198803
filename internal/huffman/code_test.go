package huffman

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// kraftSum returns sum(2^(limit-l)) over non-zero lengths; a complete code
// sums to exactly 1<<limit.
func kraftSum(lengths []uint8, limit int) int {
	sum := 0
	for _, l := range lengths {
		if l > 0 {
			sum += 1 << uint(limit-int(l))
		}
	}
	return sum
}

func TestLengths_Kraft(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, limit := range []int{7, 15} {
		for trial := 0; trial < 50; trial++ {
			// A limit of 7 admits at most 128 symbols.
			n := 3 + rng.Intn(1<<uint(limit)-3)
			if n > 300 {
				n = 300
			}
			hist := make([]uint32, n)
			for i := range hist {
				if rng.Intn(4) == 0 {
					continue
				}
				// Fibonacci-like skew stresses the depth limit.
				hist[i] = uint32(1 + rng.Intn(1<<uint(rng.Intn(20))))
			}
			lengths := Lengths(hist, limit)
			used := 0
			for i, l := range lengths {
				if int(l) > limit {
					t.Fatalf("limit %d: length %d exceeds limit", limit, l)
				}
				if (hist[i] > 0) != (l > 0) {
					t.Fatalf("limit %d: symbol %d count %d got length %d", limit, i, hist[i], l)
				}
				if l > 0 {
					used++
				}
			}
			if used < 2 {
				continue
			}
			if got, want := kraftSum(lengths, limit), 1<<uint(limit); got != want {
				t.Fatalf("limit %d trial %d: Kraft sum %d, want %d", limit, trial, got, want)
			}
		}
	}
}

func TestLengths_Fibonacci(t *testing.T) {
	// Fibonacci frequencies produce the deepest unconstrained tree.
	hist := make([]uint32, 30)
	a, b := uint32(1), uint32(1)
	for i := range hist {
		hist[i] = a
		a, b = b, a+b
	}
	lengths := Lengths(hist, 7)
	for _, l := range lengths {
		if l == 0 || l > 7 {
			t.Fatalf("length %d out of range 1..7", l)
		}
	}
	if got := kraftSum(lengths, 7); got != 1<<7 {
		t.Errorf("Kraft sum %d, want %d", got, 1<<7)
	}
}

func TestLengths_FewSymbols(t *testing.T) {
	tests := []struct {
		hist []uint32
		want []uint8
	}{
		{[]uint32{0, 0, 0}, []uint8{0, 0, 0}},
		{[]uint32{0, 9, 0}, []uint8{0, 1, 0}},
		{[]uint32{3, 0, 1000}, []uint8{1, 0, 1}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Lengths(tt.hist, 15)); diff != "" {
			t.Errorf("Lengths(%v) mismatch (-want +got):\n%s", tt.hist, diff)
		}
	}
}

// TestCanonical_RFC1951 checks the worked example of RFC 1951 section
// 3.2.2: lengths (3,3,3,3,3,2,4,4) give codes 010,011,100,101,110,00,1110,1111.
func TestCanonical_RFC1951(t *testing.T) {
	lengths := []uint8{3, 3, 3, 3, 3, 2, 4, 4}
	natural := []uint32{0b010, 0b011, 0b100, 0b101, 0b110, 0b00, 0b1110, 0b1111}
	codes := Canonical(lengths)
	for i, c := range codes {
		if want := Reverse(natural[i], int(lengths[i])); c != want {
			t.Errorf("symbol %d: code %b, want %b", i, c, want)
		}
	}
}

func TestReverse(t *testing.T) {
	tests := []struct {
		v    uint32
		n    int
		want uint16
	}{
		{0b1, 1, 0b1},
		{0b110, 3, 0b011},
		{0b1000000, 7, 0b0000001},
		{0x7fff, 15, 0x7fff},
	}
	for _, tt := range tests {
		if got := Reverse(tt.v, tt.n); got != tt.want {
			t.Errorf("Reverse(%b, %d) = %b, want %b", tt.v, tt.n, got, tt.want)
		}
	}
}

func TestUsedSymbols(t *testing.T) {
	c := NewCodeFromLengths([]uint8{0, 2, 0, 1, 2})
	if diff := cmp.Diff([]int{1, 3, 4}, c.UsedSymbols()); diff != "" {
		t.Errorf("UsedSymbols mismatch (-want +got):\n%s", diff)
	}
}
