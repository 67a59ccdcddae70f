package entities

import (
	"fmt"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// Baselines holds the per-server-class template prop lists used as the
// starting point for newly-visible entities: a static baseline (raw bytes
// from a string table, decoded and cached on first use) and a pair of
// rotating instance baselines (already-decoded prop lists, indexed by a
// single wire bit). Exactly two instance slots exist; callers never grow
// this to a queue.
type Baselines struct {
	staticRaw     map[uint16][]byte
	staticDecoded map[uint16][]SendProp
	instance      [2]map[EntityID][]SendProp
}

// NewBaselines returns an empty Baselines ready to accept entries.
func NewBaselines() *Baselines {
	return &Baselines{
		staticRaw:     make(map[uint16][]byte),
		staticDecoded: make(map[uint16][]SendProp),
		instance:      [2]map[EntityID][]SendProp{make(map[EntityID][]SendProp), make(map[EntityID][]SendProp)},
	}
}

// SetStaticRaw installs the raw, undecoded baseline bytes for a server
// class, as delivered via its string table entry. Replaces any previous
// raw bytes and invalidates the cached decode for that class.
func (b *Baselines) SetStaticRaw(classID uint16, raw []byte) {
	b.staticRaw[classID] = raw
	delete(b.staticDecoded, classID)
}

// StaticDecoded returns the decoded static baseline prop list for
// classID, decoding (and caching the result) against table on first use.
// Returns ok=false if no static baseline was ever set for this class.
func (b *Baselines) StaticDecoded(classID uint16, table *schema.SendTable) ([]SendProp, bool, error) {
	if cached, ok := b.staticDecoded[classID]; ok {
		return cached, true, nil
	}
	raw, ok := b.staticRaw[classID]
	if !ok {
		return nil, false, nil
	}
	props, err := ReadUpdate(bitstream.New(raw), table)
	if err != nil {
		return nil, false, fmt.Errorf("entities: decoding static baseline for class %d: %w", classID, err)
	}
	b.staticDecoded[classID] = props
	return props, true, nil
}

// Instance returns the decoded prop list stored in instance slot (0 or 1)
// for id, if any.
func (b *Baselines) Instance(slot int, id EntityID) ([]SendProp, bool) {
	props, ok := b.instance[slot][id]
	return props, ok
}

// SetInstance installs props as the instance baseline for id in the given
// slot, overwriting whatever was there.
func (b *Baselines) SetInstance(slot int, id EntityID, props []SendProp) {
	b.instance[slot][id] = props
}
