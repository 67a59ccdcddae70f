package entities

import "github.com/icza/tf2demo/bitstream"

// ubitvarWidths maps a 2-bit selector to the width of the value that
// follows it: {0:4, 1:8, 2:12, 3:32}.
var ubitvarWidths = [4]int{4, 8, 12, 32}

// readUBitVar reads a variable-width unsigned integer: a 2-bit selector
// choosing a width of 4, 8, 12 or 32 bits, followed by that many bits
// little-endian. Used for the index diffs in both the entity-index and
// prop-index loops.
func readUBitVar(stream *bitstream.BitStream) (uint32, error) {
	selector, err := bitstream.ReadSized[int](stream, 2)
	if err != nil {
		return 0, err
	}
	return bitstream.ReadSized[uint32](stream, ubitvarWidths[selector])
}
