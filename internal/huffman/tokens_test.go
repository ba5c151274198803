package huffman

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokens_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		var lengths []uint8
		for len(lengths) < 400 {
			v := uint8(rng.Intn(16))
			if rng.Intn(3) == 0 {
				v = 0
			}
			run := 1 + rng.Intn(160)
			for i := 0; i < run; i++ {
				lengths = append(lengths, v)
			}
		}
		for _, prev := range []uint8{0, 8} {
			tokens := Tokens(lengths, prev)
			got := expandTokens(tokens, prev)
			if diff := cmp.Diff(lengths, got); diff != "" {
				t.Fatalf("trial %d prev %d: round trip mismatch (-want +got):\n%s", trial, prev, diff)
			}
		}
	}
}

func TestTokens_Runs(t *testing.T) {
	lengths := make([]uint8, 0, 200)
	for i := 0; i < 150; i++ {
		lengths = append(lengths, 0)
	}
	for i := 0; i < 10; i++ {
		lengths = append(lengths, 8)
	}
	tokens := Tokens(lengths, 8)
	if diff := cmp.Diff(lengths, expandTokens(tokens, 8)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if tokens[0] != (Token{Code: RepeatZeroLong, Extra: 127}) {
		t.Errorf("first token = %+v, want long zero run of 138", tokens[0])
	}
	// 150-138 = 12 zeros fit a single long run.
	if tokens[1] != (Token{Code: RepeatZeroLong, Extra: 1}) {
		t.Errorf("second token = %+v, want long zero run of 12", tokens[1])
	}
	// Ten 8s after prev=8: 6 + 4 repeats, no literal.
	if diff := cmp.Diff([]Token{{Code: RepeatPrevious, Extra: 3}, {Code: RepeatPrevious, Extra: 1}}, tokens[2:]); diff != "" {
		t.Errorf("repeat tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestHistogram(t *testing.T) {
	h := Histogram([]Token{{Code: 3}, {Code: 3}, {Code: RepeatZeroLong, Extra: 5}})
	if len(h) != NumCodeLengthCodes || h[3] != 2 || h[RepeatZeroLong] != 1 {
		t.Errorf("Histogram = %v", h)
	}
}

// expandTokens is the inverse of Tokens.
func expandTokens(tokens []Token, prev uint8) []uint8 {
	var out []uint8
	for _, t := range tokens {
		switch t.Code {
		case RepeatPrevious:
			for i := 0; i < int(t.Extra)+RepeatOffset[0]; i++ {
				out = append(out, prev)
			}
		case RepeatZeroShort, RepeatZeroLong:
			n := int(t.Extra) + RepeatOffset[t.Code-RepeatPrevious]
			for i := 0; i < n; i++ {
				out = append(out, 0)
			}
		default:
			out = append(out, t.Code)
			if t.Code != 0 {
				prev = t.Code
			}
		}
	}
	return out
}
