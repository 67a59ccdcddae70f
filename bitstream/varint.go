package bitstream

import "errors"

// ErrInvalidEncoding is returned when bits violate the structural rules of
// an encoding (e.g. a VarInt that never terminates within its byte budget).
var ErrInvalidEncoding = errors.New("bitstream: invalid encoding")

// maxVarIntBytes bounds a VarInt to at most 5 bytes, enough for a full
// 32-bit value (5*7 = 35 data bits).
const maxVarIntBytes = 5

// ReadVarUint32 reads a byte-aligned variable-length unsigned integer: 7
// data bits plus 1 continuation bit per byte, little-endian, up to 5 bytes.
func ReadVarUint32(b *BitStream) (uint32, error) {
	var result uint32
	for i := 0; i < maxVarIntBytes; i++ {
		octet, err := b.ReadUint8()
		if err != nil {
			return 0, err
		}
		result |= uint32(octet&0x7f) << uint(7*i)
		if octet&0x80 == 0 {
			return result, nil
		}
	}
	return 0, ErrInvalidEncoding
}
