/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package stringpool

import "unicode/utf16"

// utf16Encode/utf16Decode wrap the standard library's utf16 codec: platform
// strings are sequences of UTF-16 code units (spec §4.5 "character
// sequence"), and no third-party library in the retrieval pack offers
// anything beyond what unicode/utf16 already does correctly.
func utf16Encode(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func utf16Decode(units []uint16) []rune {
	return utf16.Decode(units)
}
