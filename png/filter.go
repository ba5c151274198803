package png

// paeth returns the Paeth predictor of left a, up b and upper-left c.
func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// filterRow writes the filtered form of cur into dst. prev is the
// previous unfiltered row, all zeros for the first row. bpp is the byte
// distance to the corresponding byte of the pixel on the left.
func filterRow(ft byte, dst, cur, prev []byte, bpp int) {
	switch ft {
	case filterNone:
		copy(dst, cur)
	case filterSub:
		copy(dst[:bpp], cur[:bpp])
		for i := bpp; i < len(cur); i++ {
			dst[i] = cur[i] - cur[i-bpp]
		}
	case filterUp:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case filterAverage:
		for i := range cur {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			dst[i] = cur[i] - uint8((left+int(prev[i]))/2)
		}
	case filterPaeth:
		for i := range cur {
			var left, upLeft uint8
			if i >= bpp {
				left, upLeft = cur[i-bpp], prev[i-bpp]
			}
			dst[i] = cur[i] - paeth(left, prev[i], upLeft)
		}
	}
}

// unfilterRow reverses filterRow in place. It reports false for an
// unknown filter type.
func unfilterRow(ft byte, cur, prev []byte, bpp int) bool {
	switch ft {
	case filterNone:
	case filterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case filterUp:
		for i := range cur {
			cur[i] += prev[i]
		}
	case filterAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case filterPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += paeth(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return false
	}
	return true
}

// chooseFilter picks the filter for row y of an RGBA image.
func chooseFilter(cur, prev []byte, y int) byte {
	if uniformRow(cur) {
		return filterNone
	}
	if y == 0 {
		return filterSub
	}
	var sub, up int
	for i := range cur {
		up += abs(int(int8(cur[i] - prev[i])))
		if i >= 4 {
			sub += abs(int(int8(cur[i] - cur[i-4])))
		} else {
			sub += abs(int(int8(cur[i])))
		}
	}
	if up <= sub {
		return filterUp
	}
	return filterSub
}

// uniformRow reports whether every RGBA pixel of row equals the first.
func uniformRow(row []byte) bool {
	if len(row) < 4 {
		return true
	}
	p0, p1, p2, p3 := row[0], row[1], row[2], row[3]
	for i := 4; i < len(row); i += 4 {
		if row[i] != p0 || row[i+1] != p1 || row[i+2] != p2 || row[i+3] != p3 {
			return false
		}
	}
	return true
}
