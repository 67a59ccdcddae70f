/*

Package sendprop decodes one property value at a time given its
schema.SendPropDefinition: the variable-width, bit-aligned, numerically
encoded leaf of the whole packet-entities format.

*/
package sendprop

import (
	"errors"
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// ErrInvalidEncoding is returned when a value's bits violate the structural
// rules of its encoding.
var ErrInvalidEncoding = errors.New("sendprop: invalid encoding")

// Vector3 is a 3-component float vector (x, y, z).
type Vector3 struct{ X, Y, Z float32 }

// VectorXY is a 2-component float vector (x, y).
type VectorXY struct{ X, Y float32 }

// Value is the tagged union of everything a send prop can decode to.
// Exactly one field group is meaningful, selected by Kind.
type Value struct {
	Kind schema.SendPropKind

	Int      int64
	Float    float32
	Vector   Vector3
	VectorXY VectorXY
	Bytes    []byte
	Array    []Value
}

func (v Value) String() string {
	switch v.Kind {
	case schema.PropInt:
		return fmt.Sprintf("%d", v.Int)
	case schema.PropFloat:
		return fmt.Sprintf("%g", v.Float)
	case schema.PropVector:
		return fmt.Sprintf("(%g, %g, %g)", v.Vector.X, v.Vector.Y, v.Vector.Z)
	case schema.PropVectorXY:
		return fmt.Sprintf("(%g, %g)", v.VectorXY.X, v.VectorXY.Y)
	case schema.PropString:
		return string(v.Bytes)
	case schema.PropArray:
		return fmt.Sprintf("%v", v.Array)
	default:
		return "<unknown>"
	}
}

// Decode reads one value from stream according to def.
func Decode(stream *bitstream.BitStream, def *schema.SendPropDefinition) (Value, error) {
	switch def.Kind {
	case schema.PropInt:
		return decodeInt(stream, def)
	case schema.PropFloat:
		f, err := DecodeFloat(stream, def)
		return Value{Kind: schema.PropFloat, Float: f}, err
	case schema.PropVector:
		return decodeVector(stream, def)
	case schema.PropVectorXY:
		return decodeVectorXY(stream, def)
	case schema.PropString:
		return decodeString(stream)
	case schema.PropArray:
		return decodeArray(stream, def)
	default:
		return Value{}, fmt.Errorf("%w: unsupported send prop kind %v", ErrInvalidEncoding, def.Kind)
	}
}

func decodeInt(stream *bitstream.BitStream, def *schema.SendPropDefinition) (Value, error) {
	raw, err := bitstream.ReadSized[uint64](stream, def.BitCount)
	if err != nil {
		return Value{}, err
	}
	var value int64
	if def.Flags.Has(schema.FlagUnsigned) || def.BitCount >= 64 {
		value = int64(raw)
	} else {
		signBit := uint64(1) << uint(def.BitCount-1)
		if raw&signBit != 0 {
			value = int64(raw) - int64(uint64(1)<<uint(def.BitCount))
		} else {
			value = int64(raw)
		}
	}
	return Value{Kind: schema.PropInt, Int: value}, nil
}

func decodeString(stream *bitstream.BitStream) (Value, error) {
	length, err := bitstream.ReadSized[int](stream, 9)
	if err != nil {
		return Value{}, err
	}
	buf := make([]byte, length)
	for i := range buf {
		c, err := stream.ReadUint8()
		if err != nil {
			return Value{}, err
		}
		buf[i] = c
	}
	return Value{Kind: schema.PropString, Bytes: buf}, nil
}

// decodeVector reads a 3-component vector. If def's Normal flag is unset,
// x and y are read as ordinary floats and z is reconstructed from a sign
// bit plus the computed magnitude sqrt(1 - x^2 - y^2); if it is set, all
// three components are read as independent floats.
func decodeVector(stream *bitstream.BitStream, def *schema.SendPropDefinition) (Value, error) {
	x, err := DecodeFloat(stream, def)
	if err != nil {
		return Value{}, err
	}
	y, err := DecodeFloat(stream, def)
	if err != nil {
		return Value{}, err
	}

	var z float32
	if def.Flags.Has(schema.FlagNormal) {
		z, err = DecodeFloat(stream, def)
		if err != nil {
			return Value{}, err
		}
	} else {
		negative, err := stream.ReadBool()
		if err != nil {
			return Value{}, err
		}
		sumSquares := float64(x)*float64(x) + float64(y)*float64(y)
		magnitude := 0.0
		if sumSquares < 1 {
			magnitude = sqrt(1 - sumSquares)
		}
		z = float32(magnitude)
		if negative {
			z = -z
		}
	}

	return Value{Kind: schema.PropVector, Vector: Vector3{X: x, Y: y, Z: z}}, nil
}

func decodeVectorXY(stream *bitstream.BitStream, def *schema.SendPropDefinition) (Value, error) {
	x, err := DecodeFloat(stream, def)
	if err != nil {
		return Value{}, err
	}
	y, err := DecodeFloat(stream, def)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: schema.PropVectorXY, VectorXY: VectorXY{X: x, Y: y}}, nil
}

func decodeArray(stream *bitstream.BitStream, def *schema.SendPropDefinition) (Value, error) {
	if def.ArrayElementDef == nil {
		return Value{}, fmt.Errorf("%w: array prop %q has no element definition", ErrInvalidEncoding, def.Name)
	}
	bits := ceilLog2(def.ElementCount) + 1
	count, err := bitstream.ReadSized[int](stream, bits)
	if err != nil {
		return Value{}, err
	}
	elems := make([]Value, count)
	for i := range elems {
		v, err := Decode(stream, def.ArrayElementDef)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return Value{Kind: schema.PropArray, Array: elems}, nil
}

// ceilLog2 returns ceil(log2(n)) for n >= 1; 0 for n <= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	v := n - 1
	for v > 0 {
		bits++
		v >>= 1
	}
	return bits
}

// sqrt is a tiny indirection so this file only needs "math" once, kept in
// coord.go alongside the other float-encoding math.
func sqrt(v float64) float64 { return mathSqrt(v) }
