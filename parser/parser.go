package parser

import (
	"errors"
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/entities"
	"github.com/icza/tf2demo/gameevent"
)

// MessageType tags a demo packet's payload kind, as yielded by the outer
// container (see the demofile package).
type MessageType int

// Message types the core dispatches on.
const (
	MessageUnknown MessageType = iota
	MessageGameEvent
	MessageGameEventList
	MessagePacketEntities
	MessageDataTable
	MessageStringTable
	MessageUserMessage
)

func (t MessageType) String() string {
	switch t {
	case MessageGameEvent:
		return "GameEvent"
	case MessageGameEventList:
		return "GameEventList"
	case MessagePacketEntities:
		return "PacketEntities"
	case MessageDataTable:
		return "DataTable"
	case MessageStringTable:
		return "StringTable"
	case MessageUserMessage:
		return "UserMessage"
	default:
		return "Unknown"
	}
}

// Frame is one packet as the outer container hands it to the parser: a
// tick number, a type tag, and a stream positioned at the message body.
type Frame struct {
	Tick   int
	Type   MessageType
	Stream *bitstream.BitStream
}

// FrameSource yields demo frames one at a time. ErrEndOfDemo signals a
// clean end of demo; any other error (io.EOF included) aborts the parse.
type FrameSource interface {
	Next() (Frame, error)
}

// ErrEndOfDemo is returned by a FrameSource once every frame has been
// yielded.
var ErrEndOfDemo = errors.New("parser: end of demo")

// Parser drives a FrameSource to completion against one State, dispatching
// each frame to the matching decoder and to the caller's MessageHandler.
type Parser struct {
	State *State
}

// New returns a Parser with a freshly initialized State.
func New() *Parser {
	return &Parser{State: NewState()}
}

// Run consumes source to completion, returning the handler's GetOutput
// result once the demo ends.
func (p *Parser) Run(source FrameSource, handler MessageHandler) (any, error) {
	dataTablesSeen, eventListSeen := false, false

	for {
		frame, err := source.Next()
		if errors.Is(err, ErrEndOfDemo) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch frame.Type {
		case MessageDataTable:
			if err := p.handleDataTable(frame.Stream); err != nil {
				return nil, fmt.Errorf("parser: tick %d: %w", frame.Tick, err)
			}
			dataTablesSeen = true

		case MessageGameEventList:
			defs, err := gameevent.DecodeEventList(frame.Stream)
			if err != nil {
				return nil, fmt.Errorf("parser: tick %d: decoding event list: %w", frame.Tick, err)
			}
			p.State.SetEventDefinitions(defs)
			eventListSeen = true

		case MessageStringTable:
			name, index, data, err := decodeStringTableEntry(frame.Stream)
			if err != nil {
				return nil, fmt.Errorf("parser: tick %d: decoding string entry: %w", frame.Tick, err)
			}
			if name == instanceBaselineTable {
				p.State.Baselines().SetStaticRaw(uint16(index), data)
			}
			handler.HandleStringEntry(name, index, data)

		case MessageGameEvent:
			if !dataTablesSeen || !eventListSeen {
				return nil, fmt.Errorf("parser: tick %d: %w", frame.Tick, ErrSchemaNotReady)
			}
			if !handler.DoesHandle(MessageGameEvent) {
				if err := gameevent.Skip(frame.Stream); err != nil {
					return nil, fmt.Errorf("parser: tick %d: skipping event: %w", frame.Tick, err)
				}
				continue
			}
			event, err := gameevent.Decode(frame.Stream, p.State.EventDefinitions())
			if err != nil {
				return nil, fmt.Errorf("parser: tick %d: decoding event: %w", frame.Tick, err)
			}
			handler.HandleMessage(event, frame.Tick)

		case MessagePacketEntities:
			if !dataTablesSeen || !eventListSeen {
				return nil, fmt.Errorf("parser: tick %d: %w", frame.Tick, ErrSchemaNotReady)
			}
			msg, err := entities.Decode(frame.Stream, p.State)
			if err != nil {
				return nil, fmt.Errorf("parser: tick %d: decoding packet entities: %w", frame.Tick, err)
			}
			p.applyEntityTransitions(msg)
			if handler.DoesHandle(MessagePacketEntities) {
				handler.HandleMessage(msg, frame.Tick)
			}

		default:
			if handler.DoesHandle(frame.Type) {
				handler.HandleMessage(frame, frame.Tick)
			}
		}
	}

	return handler.GetOutput(p.State), nil
}

// applyEntityTransitions folds a decoded PacketEntities message back into
// State: every Enter/Preserve entity updates entity_classes, and the
// removed-entities trailer (not Leave/Delete within the update loop
// itself; see DESIGN.md) drops entities from entity_classes. Baseline
// promotion installs each Enter entity's final prop list into the other
// instance-baseline slot when the frame asked for it.
func (p *Parser) applyEntityTransitions(msg *entities.Message) {
	for _, e := range msg.Entities {
		switch e.PVS {
		case entities.Enter, entities.Preserve:
			p.State.SetEntityClass(e.EntityIndex, e.ServerClass)
			if msg.UpdatedBaseLine && e.PVS == entities.Enter {
				p.State.Baselines().SetInstance(1-msg.BaseLine, e.EntityIndex, e.Props)
			}
		}
	}
	for _, id := range msg.RemovedEntities {
		p.State.ForgetEntity(id)
	}
}
