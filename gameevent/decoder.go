package gameevent

import (
	"errors"
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// ErrUnknownEventID is returned when a GameEvent message references an id
// not present in the EventList the demo declared earlier.
var ErrUnknownEventID = errors.New("gameevent: unknown event id")

// MalformedEventError reports why a GameEvent message could not be
// decoded against its declaration: an id absent from the event list
// ("UnknownType"), a None-kind entry on the wire ("NoneValue"), which
// is only ever legal as the declaration's terminator, or an entry kind
// this decoder doesn't recognise ("MissingEntry").
type MalformedEventError struct {
	Kind string
}

func (e MalformedEventError) Error() string {
	return "gameevent: malformed event: " + e.Kind
}

// Value is one decoded entry's value, tagged by its declared kind.
type Value struct {
	Kind    schema.GameEventValueKind
	String  string
	Float   float32
	Long    int32
	Short   int16
	Byte    byte
	Boolean bool
}

// RawEvent is a decoded GameEvent message: its definition plus one Value
// per declared entry, in declaration order.
type RawEvent struct {
	Definition *schema.GameEventDefinition
	Values     []Value
}

// Lookup up a RawEvent's entry by name; returns ok=false if absent.
func (e *RawEvent) Lookup(name string) (Value, bool) {
	for i, entry := range e.Definition.Entries {
		if entry.Name == name {
			return e.Values[i], true
		}
	}
	return Value{}, false
}

// Decode reads a GameEvent message body: an 11-bit length carving the
// message into its own sub-stream, a 9-bit id referencing a previously
// declared definition, then one value per entry in declaration order.
func Decode(stream *bitstream.BitStream, defs map[uint16]*schema.GameEventDefinition) (*RawEvent, error) {
	length, err := bitstream.ReadSized[int](stream, 11)
	if err != nil {
		return nil, err
	}
	body, err := stream.ReadBits(length)
	if err != nil {
		return nil, err
	}

	id, err := bitstream.ReadSized[uint16](body, 9)
	if err != nil {
		return nil, err
	}
	def, ok := defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %w: id %d", MalformedEventError{Kind: "UnknownType"}, ErrUnknownEventID, id)
	}

	values := make([]Value, len(def.Entries))
	for i, entry := range def.Entries {
		v, err := decodeValue(body, entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("gameevent: decoding entry %q of %q: %w", entry.Name, def.Name, err)
		}
		values[i] = v
	}

	return &RawEvent{Definition: def, Values: values}, nil
}

// Skip reads an 11-bit length and advances past that many bits without
// decoding the event, for callers that don't need the payload.
func Skip(stream *bitstream.BitStream) error {
	length, err := bitstream.ReadSized[int](stream, 11)
	if err != nil {
		return err
	}
	return stream.SkipBits(length)
}

func decodeValue(stream *bitstream.BitStream, kind schema.GameEventValueKind) (Value, error) {
	switch kind {
	case schema.GameEventString:
		s, err := stream.ReadString()
		return Value{Kind: kind, String: s}, err
	case schema.GameEventFloat:
		f, err := stream.ReadFloat32()
		return Value{Kind: kind, Float: f}, err
	case schema.GameEventLong:
		v, err := bitstream.ReadSized[int32](stream, 32)
		return Value{Kind: kind, Long: v}, err
	case schema.GameEventShort:
		v, err := bitstream.ReadSized[int16](stream, 16)
		return Value{Kind: kind, Short: v}, err
	case schema.GameEventByte:
		v, err := stream.ReadUint8()
		return Value{Kind: kind, Byte: v}, err
	case schema.GameEventBoolean:
		v, err := stream.ReadBool()
		return Value{Kind: kind, Boolean: v}, err
	case schema.GameEventLocal:
		// Local values never appear on the wire; they're a zero-bit
		// no-op sentinel used only by the game client.
		return Value{Kind: kind}, nil
	case schema.GameEventNone:
		// None is the declaration-list terminator; it is illegal as an
		// actual entry kind.
		return Value{}, MalformedEventError{Kind: "NoneValue"}
	default:
		return Value{}, fmt.Errorf("%w: unsupported entry kind %v", MalformedEventError{Kind: "MissingEntry"}, kind)
	}
}
