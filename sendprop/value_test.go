package sendprop

import (
	"math"
	"testing"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

func intProp(bitCount int, unsigned bool) *schema.SendPropDefinition {
	flags := schema.SendPropFlags(0)
	if unsigned {
		flags |= schema.FlagUnsigned
	}
	return &schema.SendPropDefinition{Kind: schema.PropInt, BitCount: bitCount, Flags: flags}
}

// bitWriter mirrors bitstream.BitStream's LSB-first write convention for
// constructing test fixtures by hand.
type bitWriter struct {
	bytes   []byte
	bitsLen int
}

func (w *bitWriter) writeBits(value uint64, n int) {
	for i := 0; i < n; i++ {
		byteIdx := w.bitsLen / 8
		for byteIdx >= len(w.bytes) {
			w.bytes = append(w.bytes, 0)
		}
		bit := (value >> uint(i)) & 1
		w.bytes[byteIdx] |= byte(bit) << uint(w.bitsLen%8)
		w.bitsLen++
	}
}

func TestDecodeIntSigned(t *testing.T) {
	// 5 bits, value -1 => 0b11111
	b := bitstream.New([]byte{0xFF})
	v, err := Decode(b, intProp(5, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != -1 {
		t.Errorf("expected -1, got %d", v.Int)
	}
}

func TestDecodeIntUnsigned(t *testing.T) {
	b := bitstream.New([]byte{0xFF})
	v, err := Decode(b, intProp(5, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int != 0x1F {
		t.Errorf("expected 31, got %d", v.Int)
	}
}

func TestDecodeLinearFloat(t *testing.T) {
	def := &schema.SendPropDefinition{Kind: schema.PropFloat, BitCount: 8, LowValue: 0, HighValue: 100}
	b := bitstream.New([]byte{0xFF}) // max raw value -> HighValue
	v, err := Decode(b, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(v.Float-100)) > 0.001 {
		t.Errorf("expected ~100, got %v", v.Float)
	}
}

func TestDecodeNoScaleFloat(t *testing.T) {
	def := &schema.SendPropDefinition{Kind: schema.PropFloat, Flags: schema.FlagNoScale}
	// IEEE-754 for 1.5 is 0x3FC00000, little-endian bytes: 00 00 C0 3F
	b := bitstream.New([]byte{0x00, 0x00, 0xC0, 0x3F})
	v, err := Decode(b, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Float != 1.5 {
		t.Errorf("expected 1.5, got %v", v.Float)
	}
}

func TestDecodeNormalFloat(t *testing.T) {
	def := &schema.SendPropDefinition{Kind: schema.PropFloat, Flags: schema.FlagNormal, BitCount: 8}
	// magnitude raw=0xFF (max for 8 bits) -> 1.0, then sign bit set -> -1.0.
	b := bitstream.New([]byte{0xFF, 0x01})
	v, err := Decode(b, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Float != -1 {
		t.Errorf("expected -1, got %v", v.Float)
	}
}

func TestDecodeCoordZero(t *testing.T) {
	def := &schema.SendPropDefinition{Kind: schema.PropFloat, Flags: schema.FlagCoord}
	// hasInt=0, hasFrac=0 -> value is 0, no further bits consumed.
	b := bitstream.New([]byte{0x00})
	v, err := Decode(b, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Float != 0 {
		t.Errorf("expected 0, got %v", v.Float)
	}
}

func TestDecodeString(t *testing.T) {
	def := &schema.SendPropDefinition{Kind: schema.PropString}
	// 9-bit length = 2, then "hi" — built bit by bit since the 9-bit
	// length prefix leaves the chars byte-misaligned.
	var w bitWriter
	w.writeBits(2, 9)
	w.writeBits('h', 8)
	w.writeBits('i', 8)

	v, err := Decode(bitstream.New(w.bytes), def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(v.Bytes) != "hi" {
		t.Errorf("expected %q, got %q", "hi", string(v.Bytes))
	}
}

func TestDecodeArray(t *testing.T) {
	elemDef := intProp(8, true)
	def := &schema.SendPropDefinition{
		Kind:            schema.PropArray,
		ElementCount:    4, // ceilLog2(4)+1 = 3 bits for count
		ArrayElementDef: elemDef,
	}
	// count=2, then two 8-bit elements — built bit by bit since the 3-bit
	// count prefix leaves the elements byte-misaligned.
	var w bitWriter
	w.writeBits(2, 3)
	w.writeBits(0x0A, 8)
	w.writeBits(0x0B, 8)

	v, err := Decode(bitstream.New(w.bytes), def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Array) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(v.Array))
	}
	if v.Array[0].Int != 0x0A || v.Array[1].Int != 0x0B {
		t.Errorf("unexpected array contents: %v", v.Array)
	}
}

func TestCeilLog2(t *testing.T) {
	cases := map[int]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4}
	for n, want := range cases {
		if got := ceilLog2(n); got != want {
			t.Errorf("ceilLog2(%d): expected %d, got %d", n, want, got)
		}
	}
}
