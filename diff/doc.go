// Package diff compares two images pixel by pixel.
//
// Two rules are available. Pixel flags a pixel when the summed absolute
// RGB difference exceeds Threshold×765 or the alpha difference exceeds
// Alpha×255. Perceptual composites both pixels over white, converts them
// to YIQ and flags a pixel when the weighted color distance exceeds
// Threshold×35215, the largest distance the metric can produce.
//
// With IncludeAA set, a flagged pixel is forgiven when either image
// shows it as an anti-aliased edge: a pixel with both darker and lighter
// neighbors and few neighbors of equal brightness.
//
// Images of different sizes never match: every pixel of the larger
// image counts as changed and no diff image is produced.
package diff
