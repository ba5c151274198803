package huffman

// Code-length alphabet repeat codes, shared by DEFLATE and VP8L.
const (
	RepeatPrevious  = 16 // repeat previous length 3..6 times, 2 extra bits
	RepeatZeroShort = 17 // repeat zero 3..10 times, 3 extra bits
	RepeatZeroLong  = 18 // repeat zero 11..138 times, 7 extra bits

	NumCodeLengthCodes = 19
)

// RepeatExtraBits is the number of extra bits following codes 16, 17, 18.
var RepeatExtraBits = [3]int{2, 3, 7}

// RepeatOffset is the base repeat count of codes 16, 17, 18.
var RepeatOffset = [3]int{3, 3, 11}

// Token is a single symbol of the run-length coded code-length sequence.
// Code is 0..15 for a literal length or one of the repeat codes, with
// Extra holding the repeat count minus the code's base.
type Token struct {
	Code  uint8
	Extra uint8
}

// Tokens run-length encodes code lengths into the 19-symbol code-length
// alphabet. RepeatPrevious refers to the last non-zero length, as VP8L
// defines it; prev seeds that value (8 for VP8L).
func Tokens(lengths []uint8, prev uint8) []Token {
	var tokens []Token
	n := len(lengths)
	for i := 0; i < n; {
		value := lengths[i]
		k := i + 1
		for k < n && lengths[k] == value {
			k++
		}
		runs := k - i
		i = k

		if value == 0 {
			tokens = repeatedZeros(tokens, runs)
		} else {
			tokens = repeatedValues(tokens, runs, value, prev)
			prev = value
		}
	}
	return tokens
}

func repeatedZeros(tokens []Token, reps int) []Token {
	for reps >= 1 {
		switch {
		case reps < 3:
			for i := 0; i < reps; i++ {
				tokens = append(tokens, Token{Code: 0})
			}
			return tokens
		case reps < 11:
			return append(tokens, Token{Code: RepeatZeroShort, Extra: uint8(reps - 3)})
		case reps < 139:
			return append(tokens, Token{Code: RepeatZeroLong, Extra: uint8(reps - 11)})
		default:
			tokens = append(tokens, Token{Code: RepeatZeroLong, Extra: 0x7f})
			reps -= 138
		}
	}
	return tokens
}

// repeatedValues codes a run of a non-zero length. When the value already
// equals prev the leading literal is skipped.
func repeatedValues(tokens []Token, reps int, value, prev uint8) []Token {
	if value != prev {
		tokens = append(tokens, Token{Code: value})
		reps--
	}
	for reps >= 1 {
		switch {
		case reps < 3:
			for i := 0; i < reps; i++ {
				tokens = append(tokens, Token{Code: value})
			}
			return tokens
		case reps < 7:
			return append(tokens, Token{Code: RepeatPrevious, Extra: uint8(reps - 3)})
		default:
			tokens = append(tokens, Token{Code: RepeatPrevious, Extra: 3})
			reps -= 6
		}
	}
	return tokens
}

// Histogram counts token codes, for building the code-length code.
func Histogram(tokens []Token) []uint32 {
	h := make([]uint32, NumCodeLengthCodes)
	for _, t := range tokens {
		h[t.Code]++
	}
	return h
}
