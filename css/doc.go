// Package css parses the value syntax of the CSS properties the layout
// engine understands: colors, lengths, box shorthands and borders.
//
// Parsers report failure with a boolean rather than an error. An
// unparseable declaration is ignored by the caller, as in a browser.
package css
