package parser

import (
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// decodeDataTable ingests a DataTable message: a simplified, self-
// consistent encoding of send tables and server classes, sufficient to
// exercise the packet-entities decoder end to end. DataTable decoding is
// explicitly out of this core's scope (see spec §1); the wire's actual
// production format (recursive excludes, nested data-table props,
// collapsible arrays) is not reproduced here.
//
// Layout: a send-table section terminated by an end marker, followed by
// a server-class section with an explicit count.
//
// Send table: 1-bit "more tables" flag; while set, a NUL-terminated
// table name, a 10-bit prop count, then that many prop records:
//   - NUL-terminated prop name
//   - 3-bit SendPropKind
//   - 32-bit SendPropFlags
//   - 7-bit bit_count
//   - 32-bit low_value, 32-bit high_value (IEEE-754)
//   - 16-bit element_count (arrays only; element definition is the
//     table's immediately preceding prop record)
//
// Server classes: 16-bit count, then that many records of a 16-bit id, a
// NUL-terminated class name, and a NUL-terminated data-table name.
func (p *State) decodeDataTable(stream *bitstream.BitStream) error {
	for {
		more, err := stream.ReadBool()
		if err != nil {
			return fmt.Errorf("reading table-section continuation: %w", err)
		}
		if !more {
			break
		}
		table, err := decodeSendTable(stream)
		if err != nil {
			return err
		}
		p.AddSendTable(table)
	}

	count, err := bitstream.ReadSized[int](stream, 16)
	if err != nil {
		return fmt.Errorf("reading server class count: %w", err)
	}
	classes := make([]*schema.ServerClass, 0, count)
	for i := 0; i < count; i++ {
		id, err := bitstream.ReadSized[uint16](stream, 16)
		if err != nil {
			return fmt.Errorf("reading server class %d id: %w", i, err)
		}
		name, err := stream.ReadString()
		if err != nil {
			return fmt.Errorf("reading server class %d name: %w", i, err)
		}
		dataTableName, err := stream.ReadString()
		if err != nil {
			return fmt.Errorf("reading server class %d data table name: %w", i, err)
		}
		classes = append(classes, &schema.ServerClass{ID: id, Name: name, DataTableName: dataTableName})
	}

	return p.SetServerClasses(classes)
}

func decodeSendTable(stream *bitstream.BitStream) (*schema.SendTable, error) {
	name, err := stream.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading send table name: %w", err)
	}
	propCount, err := bitstream.ReadSized[int](stream, 10)
	if err != nil {
		return nil, fmt.Errorf("reading prop count for table %q: %w", name, err)
	}

	table := schema.NewSendTable(name)
	var lastElement *schema.SendPropDefinition
	for i := 0; i < propCount; i++ {
		def, err := decodeSendProp(stream, lastElement)
		if err != nil {
			return nil, fmt.Errorf("reading prop %d of table %q: %w", i, name, err)
		}
		table.AddProp(def)
		lastElement = def
	}
	return table, nil
}

func decodeSendProp(stream *bitstream.BitStream, precedingProp *schema.SendPropDefinition) (*schema.SendPropDefinition, error) {
	name, err := stream.ReadString()
	if err != nil {
		return nil, err
	}
	kind, err := bitstream.ReadSized[int](stream, 3)
	if err != nil {
		return nil, err
	}
	flags, err := bitstream.ReadSized[uint32](stream, 32)
	if err != nil {
		return nil, err
	}
	bitCount, err := bitstream.ReadSized[int](stream, 7)
	if err != nil {
		return nil, err
	}
	low, err := stream.ReadFloat32()
	if err != nil {
		return nil, err
	}
	high, err := stream.ReadFloat32()
	if err != nil {
		return nil, err
	}

	def := &schema.SendPropDefinition{
		Name:      name,
		Kind:      schema.SendPropKind(kind),
		Flags:     schema.SendPropFlags(flags),
		BitCount:  bitCount,
		LowValue:  low,
		HighValue: high,
	}

	if def.Kind == schema.PropArray {
		elementCount, err := bitstream.ReadSized[int](stream, 16)
		if err != nil {
			return nil, err
		}
		def.ElementCount = elementCount
		def.ArrayElementDef = precedingProp
	}

	return def, nil
}

// handleDataTable is the parser-package entry point used by Parser.Run.
func (p *Parser) handleDataTable(stream *bitstream.BitStream) error {
	return p.State.decodeDataTable(stream)
}
