package parser

import (
	"errors"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/entities"
	"github.com/icza/tf2demo/gameevent"
)

// ErrNotEnoughData re-exports bitstream's underflow sentinel: every
// decoder in this module bottoms out on the same bit-read primitive, so
// callers only need to check one error value regardless of which decoder
// raised it.
var ErrNotEnoughData = bitstream.ErrNotEnoughData

// Schema lookup failures: fatal, the stream past this point is not
// decodable without the missing schema object.
var (
	ErrUnknownSendTable   = errors.New("parser: unknown send table")
	ErrUnknownServerClass = errors.New("parser: unknown server class")
)

// ErrSchemaNotReady is returned when a GameEvent or PacketEntities message
// arrives before the GameEventList/DataTable packets that must precede it
// per the downward contract with the outer parser.
var ErrSchemaNotReady = errors.New("parser: schema not ready (event list or data tables missing)")

// UnknownEntityError, UnknownServerClassError and PropIndexOutOfBoundsError
// are raised by the packet-entities decoder; aliased here so callers only
// need to import this package's error taxonomy, not entities' as well.
type (
	UnknownEntityError           = entities.UnknownEntityError
	UnknownServerClassIndexError = entities.UnknownServerClassError
	PropIndexOutOfBoundsError    = entities.PropIndexOutOfBoundsError
	MalformedGameEventError      = gameevent.MalformedEventError
)
