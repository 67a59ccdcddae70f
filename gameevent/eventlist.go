/*

Package gameevent decodes the GameEventList schema message and individual
GameEvent payloads against it, plus the typed, analyzer-facing GameEvent
values derived from a handful of well-known event names.

*/
package gameevent

import (
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// DecodeEventList reads a GameEventList message body: a 9-bit count, a
// 20-bit payload length, then exactly count definitions carved out of a
// length-bit sub-stream.
func DecodeEventList(stream *bitstream.BitStream) ([]*schema.GameEventDefinition, error) {
	count, err := bitstream.ReadSized[int](stream, 9)
	if err != nil {
		return nil, fmt.Errorf("gameevent: reading definition count: %w", err)
	}
	length, err := bitstream.ReadSized[int](stream, 20)
	if err != nil {
		return nil, fmt.Errorf("gameevent: reading payload length: %w", err)
	}
	body, err := stream.ReadBits(length)
	if err != nil {
		return nil, fmt.Errorf("gameevent: carving payload: %w", err)
	}

	defs := make([]*schema.GameEventDefinition, 0, count)
	for i := 0; i < count; i++ {
		def, err := decodeDefinition(body)
		if err != nil {
			return nil, fmt.Errorf("gameevent: decoding definition %d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func decodeDefinition(stream *bitstream.BitStream) (*schema.GameEventDefinition, error) {
	id, err := bitstream.ReadSized[uint16](stream, 9)
	if err != nil {
		return nil, err
	}
	name, err := stream.ReadString()
	if err != nil {
		return nil, err
	}

	var entries []schema.GameEventEntry
	for {
		kind, err := bitstream.ReadSized[int](stream, 3)
		if err != nil {
			return nil, err
		}
		if schema.GameEventValueKind(kind) == schema.GameEventNone {
			break
		}
		entryName, err := stream.ReadString()
		if err != nil {
			return nil, err
		}
		entries = append(entries, schema.GameEventEntry{
			Name: entryName,
			Kind: schema.GameEventValueKind(kind),
		})
	}

	return &schema.GameEventDefinition{
		ID:        id,
		Name:      name,
		EventType: schema.EventTypeByName(name),
		Entries:   entries,
	}, nil
}
