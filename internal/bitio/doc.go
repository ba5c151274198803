// Package bitio implements the LSB-first bit writer and reader shared by the
// DEFLATE and VP8L codecs. Both formats pack fields starting at the least
// significant bit of each byte, so one accumulator design serves both.
package bitio
