package entities

import "fmt"

// UnknownEntityError is returned when a Preserve transition references an
// entity id absent from the parser's entity_classes map. A Leave/Delete of
// an unknown entity is not an error; it yields no output record.
type UnknownEntityError struct {
	ID EntityID
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("entities: unknown entity %d", e.ID)
}

// UnknownServerClassError is returned when a read-enter's class index has
// no corresponding entry in the server class list.
type UnknownServerClassError struct {
	Index int
}

func (e UnknownServerClassError) Error() string {
	return fmt.Sprintf("entities: unknown server class index %d", e.Index)
}

// PropIndexOutOfBoundsError is returned when a delta update references a
// flattened-prop slot outside the owning send table.
type PropIndexOutOfBoundsError struct {
	Index     int
	PropCount int
}

func (e PropIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("entities: prop index %d out of bounds (table has %d props)", e.Index, e.PropCount)
}
