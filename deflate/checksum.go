package deflate

// crcTable is the IEEE CRC-32 table, reflected polynomial 0xEDB88320.
var crcTable [256]uint32

func init() {
	for n := range crcTable {
		c := uint32(n)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = 0xedb88320 ^ c>>1
			} else {
				c >>= 1
			}
		}
		crcTable[n] = c
	}
}

// CRC32 returns the IEEE CRC-32 of p. CRC32(nil) is 0.
func CRC32(p []byte) uint32 {
	return UpdateCRC32(0, p)
}

// UpdateCRC32 continues a CRC-32 computation: UpdateCRC32(CRC32(a), b)
// equals CRC32(append(a, b...)).
func UpdateCRC32(crc uint32, p []byte) uint32 {
	crc = ^crc
	for _, b := range p {
		crc = crcTable[byte(crc)^b] ^ crc>>8
	}
	return ^crc
}

const (
	adlerMod = 65521
	// adlerNMax is the largest n such that 255n(n+1)/2 + (n+1)(mod-1)
	// fits in 32 bits, so reduction can be deferred for that many bytes.
	adlerNMax = 5552
)

// Adler32 returns the Adler-32 checksum of p. Adler32(nil) is 1.
func Adler32(p []byte) uint32 {
	return UpdateAdler32(1, p)
}

// UpdateAdler32 continues an Adler-32 computation.
func UpdateAdler32(adler uint32, p []byte) uint32 {
	s1, s2 := adler&0xffff, adler>>16
	for len(p) > 0 {
		n := min(len(p), adlerNMax)
		for _, b := range p[:n] {
			s1 += uint32(b)
			s2 += s1
		}
		s1 %= adlerMod
		s2 %= adlerMod
		p = p[n:]
	}
	return s2<<16 | s1
}
