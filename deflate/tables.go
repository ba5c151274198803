package deflate

import "github.com/deepteams/snapshot/internal/huffman"

const (
	endOfBlock    = 256
	numLitLen     = 288 // fixed literal/length alphabet, including 286 and 287
	maxLitLen     = 286 // symbols a dynamic header may declare
	numDistCodes  = 30
	numFixedDists = 32 // fixed distance code space; 30 and 31 are invalid

	minMatch = 3
	maxMatch = 258

	litRootBits  = 9
	distRootBits = 6
	clRootBits   = 7
)

// Block types, from the 2-bit BTYPE field.
const (
	blockStored  = 0
	blockFixed   = 1
	blockDynamic = 2
)

var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var distBase = [numDistCodes]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145,
	8193, 12289, 16385, 24577,
}

var distExtra = [numDistCodes]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// codeLengthOrder is the order in which code-length code lengths are sent.
var codeLengthOrder = [huffman.NumCodeLengthCodes]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// Fixed Huffman codes and decode tables, built once.
var (
	fixedLitCode   *huffman.Code
	fixedLitTable  *huffman.Table
	fixedDistTable *huffman.Table

	// lengthCode maps a match length 3..258 to its length symbol minus 257.
	lengthCode [maxMatch + 1]uint8
)

func init() {
	lit := make([]uint8, numLitLen)
	for i := range lit {
		switch {
		case i < 144:
			lit[i] = 8
		case i < 256:
			lit[i] = 9
		case i < 280:
			lit[i] = 7
		default:
			lit[i] = 8
		}
	}
	dist := make([]uint8, numFixedDists)
	for i := range dist {
		dist[i] = 5
	}

	fixedLitCode = huffman.NewCodeFromLengths(lit)
	var err error
	if fixedLitTable, err = huffman.BuildTable(lit, litRootBits); err != nil {
		panic("deflate: fixed literal table: " + err.Error())
	}
	if fixedDistTable, err = huffman.BuildTable(dist, distRootBits); err != nil {
		panic("deflate: fixed distance table: " + err.Error())
	}

	code := len(lengthBase) - 1
	for l := maxMatch; l >= minMatch; l-- {
		for int(lengthBase[code]) > l {
			code--
		}
		lengthCode[l] = uint8(code)
	}
}

// distCode returns the distance symbol for a match distance 1..32768.
func distCode(d int) int {
	c := numDistCodes - 1
	for int(distBase[c]) > d {
		c--
	}
	return c
}
