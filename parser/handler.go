package parser

// MessageHandler is the upward contract to a downstream collaborator (the
// analyzer): it observes decoded messages and string-table entries but
// never receives a mutable reference to State, so it cannot violate the
// "decoders read State immutably within a packet" invariant.
type MessageHandler interface {
	// DoesHandle reports whether the handler wants fully decoded messages
	// of this type. When false, the parser uses the cheaper skip path
	// where one exists (currently: GameEvent).
	DoesHandle(t MessageType) bool

	// HandleMessage is called once per message the handler opted into,
	// with the concrete decoded type (*gameevent.RawEvent,
	// *entities.Message, ...) and the tick it was read at.
	HandleMessage(message any, tick int)

	// HandleStringEntry is called for every string-table entry the outer
	// container yields, notably "userinfo" (player identity) and
	// "instancebaseline" (static baselines, also installed into State by
	// the parser itself before this callback runs).
	HandleStringEntry(tableName string, index int, entry []byte)

	// GetOutput is called once parsing finishes, with read access to the
	// final State, and returns the handler's accumulated result.
	GetOutput(state *State) any
}
