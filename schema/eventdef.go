package schema

// GameEventValueKind is the wire type of one entry in a GameEventDefinition.
//
// Numeric values match the 3-bit field actually found on the wire (None=0
// only ever appears as the list terminator, never as a real entry).
type GameEventValueKind int

// Game event entry wire types.
const (
	GameEventNone GameEventValueKind = iota
	GameEventString
	GameEventFloat
	GameEventLong
	GameEventShort
	GameEventByte
	GameEventBoolean
	GameEventLocal
)

// GameEventType is a known, named event kind. Unknown wire names decode to
// GameEventUnknown; their payload is still decoded (or skipped) against the
// definition's entry list, just not converted to a typed event.
type GameEventType int

// Known event types the analyzer (and tests) care about. Every other event
// name maps to GameEventUnknown.
const (
	GameEventUnknown GameEventType = iota
	GameEventTypePlayerDeath
	GameEventTypePlayerSpawn
	GameEventTypeTeamPlayRoundWin
	GameEventTypeRoundStart
)

var nameToEventType = map[string]GameEventType{
	"player_death":       GameEventTypePlayerDeath,
	"player_spawn":       GameEventTypePlayerSpawn,
	"teamplay_round_win": GameEventTypeTeamPlayRoundWin,
	"round_start":        GameEventTypeRoundStart,
}

// EventTypeByName maps a wire event name to its known GameEventType,
// defaulting to GameEventUnknown for anything not listed above.
func EventTypeByName(name string) GameEventType {
	if t, ok := nameToEventType[name]; ok {
		return t
	}
	return GameEventUnknown
}

// GameEventEntry is one (name, kind) pair in a GameEventDefinition.
type GameEventEntry struct {
	Name string
	Kind GameEventValueKind
}

// GameEventDefinition describes one event kind: its wire id, its name, the
// known type tag derived from that name, and its ordered entry list.
type GameEventDefinition struct {
	ID        uint16
	Name      string
	EventType GameEventType
	Entries   []GameEventEntry
}
