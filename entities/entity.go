/*

Package entities implements the packet-entities delta decoder: the central
algorithm that turns one network snapshot into per-entity create, update,
leave and delete records against the parser's schema and baselines.

*/
package entities

import (
	"github.com/icza/tf2demo/schema"
	"github.com/icza/tf2demo/sendprop"
)

// PVS is an entity's potentially-visible-set transition for this frame.
type PVS int

// PVS transitions, matching the wire's 2-bit enum.
const (
	Preserve PVS = iota
	Leave
	Enter
	Delete
)

func (p PVS) String() string {
	switch p {
	case Preserve:
		return "Preserve"
	case Leave:
		return "Leave"
	case Enter:
		return "Enter"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// EntityID is the dense, 11-bit-on-the-wire entity identifier.
type EntityID uint32

// SendProp is one decoded property, carrying a shared reference to its
// definition alongside the value decoded for this entity.
type SendProp struct {
	Definition *schema.SendPropDefinition
	Value      sendprop.Value
}

// PacketEntity is one entity's state as observed in a single frame.
type PacketEntity struct {
	ServerClass  *schema.ServerClass
	EntityIndex  EntityID
	Props        []SendProp
	InPVS        bool
	PVS          PVS
	SerialNumber int
}

// Prop looks up a prop by its definition's name; returns ok=false if the
// entity carries no such prop this frame.
func (e *PacketEntity) Prop(name string) (sendprop.Value, bool) {
	for _, p := range e.Props {
		if p.Definition.Name == name {
			return p.Value, true
		}
	}
	return sendprop.Value{}, false
}

// applyUpdate returns a copy of existing with incoming merged in: a prop with the same
// definition identity (pointer equality, see schema package docs) replaces
// the existing entry; otherwise it's appended. Preserves the prop-uniqueness
// invariant: no two props in the result share a definition.
func applyUpdate(existing []SendProp, incoming []SendProp) []SendProp {
	result := make([]SendProp, len(existing))
	copy(result, existing)

	for _, in := range incoming {
		replaced := false
		for i := range result {
			if result[i].Definition == in.Definition {
				result[i] = in
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, in)
		}
	}
	return result
}
