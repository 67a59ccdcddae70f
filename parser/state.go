/*

Package parser ties the schema, gameevent and entities decoders together
into the long-lived ParserState and the top-level per-message dispatch a
demo reader drives.

*/
package parser

import (
	"fmt"

	"github.com/icza/tf2demo/entities"
	"github.com/icza/tf2demo/schema"
)

// DemoMeta is the handful of descriptive header fields (server, client,
// map, game directory, playtime, tick count), copied in from the demo
// container's header by the caller before parsing begins.
type DemoMeta struct {
	ServerName string
	ClientName string
	MapName    string
	GameDir    string
	Playtime   float32
	TickCount  int
}

// State is the long-lived context every decoder reads: schema tables,
// baselines, the live entity-id-to-class map, and demo metadata. It is
// mutated only by packet handlers between messages; within a single
// message, decoders see it as an immutable borrow.
type State struct {
	Meta DemoMeta

	sendTables    map[string]*schema.SendTable
	serverClasses []*schema.ServerClass
	eventDefs     map[uint16]*schema.GameEventDefinition
	entityClasses map[entities.EntityID]*schema.ServerClass
	baselines     *entities.Baselines
}

// NewState returns an empty State ready to receive schema packets.
func NewState() *State {
	return &State{
		sendTables:    make(map[string]*schema.SendTable),
		eventDefs:     make(map[uint16]*schema.GameEventDefinition),
		entityClasses: make(map[entities.EntityID]*schema.ServerClass),
		baselines:     entities.NewBaselines(),
	}
}

// AddSendTable registers a fully-built send table, keyed by name.
func (s *State) AddSendTable(table *schema.SendTable) {
	s.sendTables[table.Name] = table
}

// SendTable looks up a send table by name.
func (s *State) SendTable(name string) (*schema.SendTable, bool) {
	t, ok := s.sendTables[name]
	return t, ok
}

// SetServerClasses installs the full, ordered server class list and
// resolves each class's DataTable pointer from the registered send
// tables. Must be called after all AddSendTable calls for this demo.
func (s *State) SetServerClasses(classes []*schema.ServerClass) error {
	for _, c := range classes {
		table, ok := s.sendTables[c.DataTableName]
		if !ok {
			return fmt.Errorf("parser: %w: %q (class %q)", ErrUnknownSendTable, c.DataTableName, c.Name)
		}
		c.DataTable = table
	}
	s.serverClasses = classes
	return nil
}

// SetEventDefinitions installs the event definitions decoded from a
// GameEventList message, indexed by their wire id.
func (s *State) SetEventDefinitions(defs []*schema.GameEventDefinition) {
	for _, d := range defs {
		s.eventDefs[d.ID] = d
	}
}

// EventDefinitions returns the id-indexed event-definition map, as
// gameevent.Decode expects it.
func (s *State) EventDefinitions() map[uint16]*schema.GameEventDefinition {
	return s.eventDefs
}

// SetEntityClass records the server class currently backing a live
// entity id. Called by the top-level dispatcher after a PacketEntities
// message is decoded, for every Enter/Preserve entity it produced.
func (s *State) SetEntityClass(id entities.EntityID, class *schema.ServerClass) {
	s.entityClasses[id] = class
}

// ForgetEntity removes an entity from entity_classes. The dispatcher calls
// it for each id in a frame's removed-entities trailer; Leave and Delete
// transitions in the update loop do not call it (see DESIGN.md, "Other
// open-question resolutions").
func (s *State) ForgetEntity(id entities.EntityID) {
	delete(s.entityClasses, id)
}

// --- entities.StateReader ---

// ServerClassCount implements entities.StateReader.
func (s *State) ServerClassCount() int { return len(s.serverClasses) }

// ServerClassByIndex implements entities.StateReader.
func (s *State) ServerClassByIndex(index int) (*schema.ServerClass, error) {
	if index < 0 || index >= len(s.serverClasses) {
		return nil, fmt.Errorf("parser: %w: index %d", ErrUnknownServerClass, index)
	}
	return s.serverClasses[index], nil
}

// EntityClass implements entities.StateReader.
func (s *State) EntityClass(id entities.EntityID) (*schema.ServerClass, bool) {
	c, ok := s.entityClasses[id]
	return c, ok
}

// Baselines implements entities.StateReader.
func (s *State) Baselines() *entities.Baselines { return s.baselines }
