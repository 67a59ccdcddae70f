package sendprop

import (
	"math"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// mathSqrt is the one "math" entry point this package needs; kept here so
// value.go can stay free of the import.
func mathSqrt(v float64) float64 { return math.Sqrt(v) }

// Classic Source-engine coord encoding constants.
const (
	coordIntegerBits   = 14
	coordFractionBits  = 5
	coordDenominator   = 1 << coordFractionBits
	coordResolution    = 1.0 / coordDenominator
	coordIntegerBitsMP = coordIntegerBits + 1 // +1 for the multiplayer extra range bit, unused here but documents the classic layout
)

// DecodeFloat reads one float according to def's flags: Coord, NoScale,
// Normal, or (default) a bitCount-wide value linearly scaled between
// LowValue and HighValue.
func DecodeFloat(stream *bitstream.BitStream, def *schema.SendPropDefinition) (float32, error) {
	switch {
	case def.Flags.Has(schema.FlagCoord):
		return decodeCoord(stream)
	case def.Flags.Has(schema.FlagNoScale):
		return decodeNoScale(stream)
	case def.Flags.Has(schema.FlagNormal):
		return decodeNormal(stream, def.BitCount)
	default:
		return decodeLinear(stream, def.BitCount, def.LowValue, def.HighValue)
	}
}

// decodeCoord implements the Source "coord" encoding: presence bits for an
// integer part and a fractional part, then a sign bit only if either part
// is present.
func decodeCoord(stream *bitstream.BitStream) (float32, error) {
	hasInt, err := stream.ReadBool()
	if err != nil {
		return 0, err
	}
	hasFrac, err := stream.ReadBool()
	if err != nil {
		return 0, err
	}
	if !hasInt && !hasFrac {
		return 0, nil
	}

	negative, err := stream.ReadBool()
	if err != nil {
		return 0, err
	}

	var intPart uint32
	if hasInt {
		v, err := bitstream.ReadSized[uint32](stream, coordIntegerBits)
		if err != nil {
			return 0, err
		}
		intPart = v + 1
	}

	var fracPart uint32
	if hasFrac {
		v, err := bitstream.ReadSized[uint32](stream, coordFractionBits)
		if err != nil {
			return 0, err
		}
		fracPart = v
	}

	value := float32(intPart) + float32(fracPart)*coordResolution
	if negative {
		value = -value
	}
	return value, nil
}

// decodeNoScale reads a raw, unscaled 32-bit IEEE-754 float.
func decodeNoScale(stream *bitstream.BitStream) (float32, error) {
	return stream.ReadFloat32()
}

// decodeNormal reads a bitCount-bit magnitude plus a sign bit, scaling the
// magnitude into [0, 1] before applying the sign.
func decodeNormal(stream *bitstream.BitStream, bitCount int) (float32, error) {
	raw, err := bitstream.ReadSized[uint32](stream, bitCount)
	if err != nil {
		return 0, err
	}
	negative, err := stream.ReadBool()
	if err != nil {
		return 0, err
	}

	denom := float32((uint64(1) << uint(bitCount)) - 1)
	value := float32(raw) / denom
	if negative {
		value = -value
	}
	return value, nil
}

// decodeLinear reads a bitCount-bit unsigned value and scales it linearly
// from [0, 2^bitCount-1] into [low, high].
func decodeLinear(stream *bitstream.BitStream, bitCount int, low, high float32) (float32, error) {
	raw, err := bitstream.ReadSized[uint32](stream, bitCount)
	if err != nil {
		return 0, err
	}
	maxVal := float32((uint64(1) << uint(bitCount)) - 1)
	frac := float32(raw) / maxVal
	return low + frac*(high-low), nil
}
