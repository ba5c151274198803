package diff

// Region is the bounding box of a 4-connected group of flagged pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Pixels int `json:"pixels"`
}

// findRegions labels the connected components of flagged, a w×h grid, in
// scan order.
func findRegions(flagged []bool, w, h int) []Region {
	visited := make([]bool, len(flagged))
	var regions []Region
	var queue []int
	for start, on := range flagged {
		if !on || visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		x0, y0 := start%w, start/w
		reg := Region{X: x0, Y: y0}
		x1, y1 := x0, y0
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			reg.Pixels++
			x, y := i%w, i/w
			x0, y0, x1, y1 = min(x0, x), min(y0, y), max(x1, x), max(y1, y)

			for _, n := range [4][2]int{{x, y - 1}, {x, y + 1}, {x - 1, y}, {x + 1, y}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if j := ny*w + nx; flagged[j] && !visited[j] {
					visited[j] = true
					queue = append(queue, j)
				}
			}
		}
		reg.X, reg.Y, reg.Width, reg.Height = x0, y0, x1-x0+1, y1-y0+1
		regions = append(regions, reg)
	}
	return regions
}
