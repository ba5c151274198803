// Package layout turns an HTML fragment and a stylesheet into a tree of
// positioned boxes.
//
// It implements a deliberately small model of CSS: a flat cascade where
// later rules win regardless of specificity, block and inline flow,
// absolute, fixed and relative positioning, and text measured with a
// fixed advance of 0.6 em per character instead of real font metrics.
//
//	root := layout.Compute(`<div style="width:100px;height:50px">hi</div>`, "", 800, 600)
//	div := root.Children[0] // div.Box is {0 0 100 50}
package layout
