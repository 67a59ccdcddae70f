package entities

import (
	"fmt"
	"math/bits"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
	"github.com/icza/tf2demo/sendprop"
)

// StateReader is the read-only view of ParserState the packet-entities
// decoder needs. ParserState implements this directly; keeping the
// dependency as an interface here (rather than importing the parser
// package) avoids a cycle, since parser necessarily imports entities.
type StateReader interface {
	// ServerClassCount is the total number of declared server classes,
	// used to size the read-enter class-index field.
	ServerClassCount() int
	// ServerClassByIndex resolves a dense class index (as read off the
	// wire) to its ServerClass.
	ServerClassByIndex(index int) (*schema.ServerClass, error)
	// EntityClass returns the server class currently associated with a
	// live entity id, if any.
	EntityClass(id EntityID) (*schema.ServerClass, bool)
	// Baselines exposes the shared baseline store.
	Baselines() *Baselines
}

// Message is one decoded PacketEntities snapshot.
type Message struct {
	Entities        []*PacketEntity
	RemovedEntities []EntityID
	BaseLine        int
	UpdatedBaseLine bool
	// Delta is the prior sequence number this frame is relative to, or
	// nil for a full snapshot. Its mere presence (not its value) gates
	// whether a removed-entities trailer follows.
	Delta *uint32
}

// Decode reads one PacketEntities message body per the header/body layout:
// an 11-bit max_entries, an optional 32-bit delta sequence, a 1-bit
// base_line slot selector, an 11-bit updated_entries count, a 20-bit body
// length, and a 1-bit updated_base_line flag, followed by the length-bit
// body itself.
func Decode(stream *bitstream.BitStream, state StateReader) (*Message, error) {
	if _, err := bitstream.ReadSized[int](stream, 11); err != nil { // max_entries
		return nil, fmt.Errorf("entities: reading max_entries: %w", err)
	}
	delta, err := bitstream.ReadOption(stream, func(s *bitstream.BitStream) (uint32, error) {
		return s.ReadUint32()
	})
	if err != nil {
		return nil, fmt.Errorf("entities: reading delta tag: %w", err)
	}
	baseLine, err := bitstream.ReadSized[int](stream, 1)
	if err != nil {
		return nil, fmt.Errorf("entities: reading base_line: %w", err)
	}
	updatedEntries, err := bitstream.ReadSized[int](stream, 11)
	if err != nil {
		return nil, fmt.Errorf("entities: reading updated_entries: %w", err)
	}
	length, err := bitstream.ReadSized[int](stream, 20)
	if err != nil {
		return nil, fmt.Errorf("entities: reading body length: %w", err)
	}
	updatedBaseLine, err := bitstream.ReadSized[int](stream, 1)
	if err != nil {
		return nil, fmt.Errorf("entities: reading updated_base_line: %w", err)
	}
	body, err := stream.ReadBits(length)
	if err != nil {
		return nil, fmt.Errorf("entities: carving body: %w", err)
	}

	msg := &Message{
		BaseLine:        baseLine,
		UpdatedBaseLine: updatedBaseLine != 0,
		Delta:           delta,
	}

	lastIndex := int64(-1)
	for i := 0; i < updatedEntries; i++ {
		diff, err := readUBitVar(body)
		if err != nil {
			return nil, fmt.Errorf("entities: reading entity index diff %d: %w", i, err)
		}
		lastIndex += int64(diff) + 1
		id := EntityID(lastIndex)

		pvsBits, err := bitstream.ReadSized[int](body, 2)
		if err != nil {
			return nil, fmt.Errorf("entities: reading pvs for entity %d: %w", id, err)
		}
		pvs := PVS(pvsBits)

		entity, err := decodeEntity(body, state, id, pvs, baseLine)
		if err != nil {
			return nil, fmt.Errorf("entities: decoding entity %d: %w", id, err)
		}
		if entity != nil {
			msg.Entities = append(msg.Entities, entity)
		}
	}

	if delta != nil {
		for {
			more, err := body.ReadBool()
			if err != nil {
				return nil, fmt.Errorf("entities: reading removed-entities continuation: %w", err)
			}
			if !more {
				break
			}
			removedID, err := bitstream.ReadSized[uint32](body, 11)
			if err != nil {
				return nil, fmt.Errorf("entities: reading removed entity id: %w", err)
			}
			msg.RemovedEntities = append(msg.RemovedEntities, EntityID(removedID))
		}
	}

	return msg, nil
}

// decodeEntity dispatches on pvs, returning nil (no output record) only
// for a Leave/Delete of an entity the state doesn't know about.
func decodeEntity(body *bitstream.BitStream, state StateReader, id EntityID, pvs PVS, baseLine int) (*PacketEntity, error) {
	switch pvs {
	case Enter:
		return readEnter(body, state, id, baseLine)

	case Preserve:
		class, ok := state.EntityClass(id)
		if !ok {
			return nil, UnknownEntityError{ID: id}
		}
		updated, err := ReadUpdate(body, class.DataTable)
		if err != nil {
			return nil, err
		}
		return &PacketEntity{
			ServerClass: class,
			EntityIndex: id,
			InPVS:       true,
			PVS:         Preserve,
			Props:       applyUpdate(nil, updated),
		}, nil

	case Leave, Delete:
		class, ok := state.EntityClass(id)
		if !ok {
			return nil, nil
		}
		return &PacketEntity{ServerClass: class, EntityIndex: id, InPVS: false, PVS: pvs}, nil

	default:
		return nil, fmt.Errorf("entities: impossible pvs value %d", pvs)
	}
}

// readEnter reads the class index and serial number for a newly-visible
// entity, resolves its starting prop list by the Enter precedence
// (instance baseline for this frame's slot, else decoded static baseline,
// else empty), applies the frame's own update on top, and returns the
// resulting entity.
func readEnter(body *bitstream.BitStream, state StateReader, id EntityID, baseLine int) (*PacketEntity, error) {
	classIndexBits := ceilLog2(state.ServerClassCount()) + 1
	classIndex, err := bitstream.ReadSized[int](body, classIndexBits)
	if err != nil {
		return nil, err
	}
	serial, err := bitstream.ReadSized[int](body, 10)
	if err != nil {
		return nil, err
	}
	class, err := state.ServerClassByIndex(classIndex)
	if err != nil {
		return nil, err
	}

	baselines := state.Baselines()
	var starting []SendProp
	if props, ok := baselines.Instance(baseLine, id); ok {
		starting = props
	} else if props, ok, err := baselines.StaticDecoded(class.ID, class.DataTable); err != nil {
		return nil, err
	} else if ok {
		starting = props
	}

	updated, err := ReadUpdate(body, class.DataTable)
	if err != nil {
		return nil, err
	}

	return &PacketEntity{
		ServerClass:  class,
		EntityIndex:  id,
		SerialNumber: serial,
		InPVS:        true,
		PVS:          Enter,
		Props:        applyUpdate(starting, updated),
	}, nil
}

// ReadUpdate repeatedly reads a continuation bit; while 1, reads a ubitvar
// index diff, decodes one prop value against the send table's flattened
// props at the resulting index, and appends it. Terminates on a 0
// continuation bit.
func ReadUpdate(stream *bitstream.BitStream, table *schema.SendTable) ([]SendProp, error) {
	var props []SendProp
	index := -1
	for {
		more, err := stream.ReadBool()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		diff, err := readUBitVar(stream)
		if err != nil {
			return nil, err
		}
		index += int(diff) + 1
		if index < 0 || index >= len(table.FlattenedProps) {
			return nil, PropIndexOutOfBoundsError{Index: index, PropCount: len(table.FlattenedProps)}
		}
		def := table.FlattenedProps[index]
		value, err := sendprop.Decode(stream, def)
		if err != nil {
			return nil, err
		}
		props = append(props, SendProp{Definition: def, Value: value})
	}
	return props, nil
}

// ceilLog2 returns ceil(log2(n)) for n >= 1; 0 for n <= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
