package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icza/tf2demo/bitstream"
	"github.com/icza/tf2demo/schema"
)

// newStreamFromWriter wraps a bitWriter's accumulated bytes in a BitStream.
func newStreamFromWriter(w *bitWriter) *bitstream.BitStream {
	return bitstream.New(w.bytes)
}

// fakeState is a minimal StateReader for exercising Decode in isolation.
type fakeState struct {
	classes   []*schema.ServerClass
	entityCls map[EntityID]*schema.ServerClass
	baselines *Baselines
}

func newFakeState() *fakeState {
	return &fakeState{entityCls: make(map[EntityID]*schema.ServerClass), baselines: NewBaselines()}
}

func (f *fakeState) ServerClassCount() int { return len(f.classes) }

func (f *fakeState) ServerClassByIndex(index int) (*schema.ServerClass, error) {
	if index < 0 || index >= len(f.classes) {
		return nil, UnknownServerClassError{Index: index}
	}
	return f.classes[index], nil
}

func (f *fakeState) EntityClass(id EntityID) (*schema.ServerClass, bool) {
	c, ok := f.entityCls[id]
	return c, ok
}

func (f *fakeState) Baselines() *Baselines { return f.baselines }

func TestDecodePreserveOnlyDelta(t *testing.T) {
	table := schema.NewSendTable("DT_Player")
	intDef(table, "m_iHealth", 8) // index 0
	intDef(table, "m_iArmor", 8)  // index 1
	intDef(table, "m_iAmmo", 8)   // index 2

	class := &schema.ServerClass{ID: 1, Name: "CTFPlayer", DataTable: table}
	state := newFakeState()
	state.classes = []*schema.ServerClass{class}
	state.entityCls[5] = class

	var w bitWriter
	w.writeBits(0, 11) // max_entries
	w.writeBits(0, 1)  // delta = none
	w.writeBits(0, 1)  // base_line
	w.writeBits(1, 11) // updated_entries = 1

	// Build the entity-index-loop + per-entity payload directly, since the
	// entity index diff itself is also ubitvar-encoded (selector+width).
	var entityLoop bitWriter
	entityLoop.writeBits(0, 2) // ubitvar selector 0 -> 4-bit width
	entityLoop.writeBits(5, 4) // diff=5 -> last_index = -1+5+1 = 5
	entityLoop.writeBits(uint64(Preserve), 2)
	// read-update: one prop at index 2 (m_iAmmo) = 42
	entityLoop.writeBits(1, 1) // continue
	entityLoop.writeBits(0, 2) // ubitvar selector 0 -> 4-bit width
	entityLoop.writeBits(2, 4) // diff=2 -> index = -1+2+1 = 2
	entityLoop.writeBits(42, 8)
	entityLoop.writeBits(0, 1) // terminate read-update

	bodyBits := entityLoop.bitsLen
	w.writeBits(uint64(bodyBits), 20) // length
	w.writeBits(0, 1)                 // updated_base_line
	for i := 0; i < bodyBits; i++ {
		bit := (entityLoop.bytes[i/8] >> uint(i%8)) & 1
		w.writeBits(uint64(bit), 1)
	}

	stream := newStreamFromWriter(&w)
	msg, err := Decode(stream, state)
	require.NoError(t, err)
	require.Len(t, msg.Entities, 1)

	e := msg.Entities[0]
	assert.Equal(t, Preserve, e.PVS)
	assert.EqualValues(t, 5, e.EntityIndex)
	require.Len(t, e.Props, 1)
	assert.Equal(t, "m_iAmmo", e.Props[0].Definition.Name)
	assert.EqualValues(t, 42, e.Props[0].Value.Int)
}

func TestDecodeEnterWithStaticBaseline(t *testing.T) {
	table := schema.NewSendTable("DT_Player")
	intDef(table, "m_iHealth", 8) // index 0
	intDef(table, "m_iArmor", 8)  // index 1
	intDef(table, "m_iAmmo", 8)   // index 2
	intDef(table, "m_iClip", 8)   // index 3

	class := &schema.ServerClass{ID: 1, Name: "CTFPlayer", DataTable: table}
	state := newFakeState()
	state.classes = []*schema.ServerClass{class}

	// Static baseline: prop #0 = 10 (one entry, matching spec scenario 4's
	// shape of a single-prop static baseline).
	var baseline bitWriter
	baseline.writeBits(1, 1)
	baseline.writeBits(0, 2)
	baseline.writeBits(0, 4)
	baseline.writeBits(10, 8)
	baseline.writeBits(0, 1)
	state.baselines.SetStaticRaw(class.ID, baseline.bytes)

	var w bitWriter
	w.writeBits(0, 11) // max_entries
	w.writeBits(0, 1)  // delta = none
	w.writeBits(0, 1)  // base_line = 0

	var entityLoop bitWriter
	entityLoop.writeBits(0, 2) // ubitvar selector -> 4-bit width
	entityLoop.writeBits(0, 4) // diff=0 -> last_index = 0
	entityLoop.writeBits(uint64(Enter), 2)
	classIndexBits := ceilLog2(state.ServerClassCount()) + 1 // = 1
	entityLoop.writeBits(0, classIndexBits)                  // class index 0
	entityLoop.writeBits(0, 10)                              // serial number
	// read-update: prop #3 (m_iClip) = 20
	entityLoop.writeBits(1, 1)
	entityLoop.writeBits(0, 2)
	entityLoop.writeBits(3, 4) // diff=3 -> index = -1+3+1 = 3
	entityLoop.writeBits(20, 8)
	entityLoop.writeBits(0, 1) // terminate

	w.writeBits(1, 11) // updated_entries = 1
	bodyBits := entityLoop.bitsLen
	w.writeBits(uint64(bodyBits), 20)
	w.writeBits(0, 1) // updated_base_line
	for i := 0; i < bodyBits; i++ {
		bit := (entityLoop.bytes[i/8] >> uint(i%8)) & 1
		w.writeBits(uint64(bit), 1)
	}

	stream := newStreamFromWriter(&w)
	msg, err := Decode(stream, state)
	require.NoError(t, err)
	require.Len(t, msg.Entities, 1)

	e := msg.Entities[0]
	assert.Equal(t, Enter, e.PVS)
	require.Len(t, e.Props, 2)

	byName := map[string]int64{}
	for _, p := range e.Props {
		byName[p.Definition.Name] = p.Value.Int
	}
	assert.Equal(t, int64(10), byName["m_iHealth"])
	assert.Equal(t, int64(20), byName["m_iClip"])
}

func TestDecodePreserveUnknownEntityFails(t *testing.T) {
	state := newFakeState()

	var w bitWriter
	w.writeBits(0, 11)
	w.writeBits(0, 1)
	w.writeBits(0, 1)
	w.writeBits(1, 11)

	var entityLoop bitWriter
	entityLoop.writeBits(0, 2)
	entityLoop.writeBits(0, 4)
	entityLoop.writeBits(uint64(Preserve), 2)

	bodyBits := entityLoop.bitsLen
	w.writeBits(uint64(bodyBits), 20)
	w.writeBits(0, 1)
	for i := 0; i < bodyBits; i++ {
		bit := (entityLoop.bytes[i/8] >> uint(i%8)) & 1
		w.writeBits(uint64(bit), 1)
	}

	stream := newStreamFromWriter(&w)
	_, err := Decode(stream, state)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(UnknownEntityError))
}

func TestDecodeRemovedEntitiesTrailer(t *testing.T) {
	state := newFakeState()

	var w bitWriter
	w.writeBits(0, 11) // max_entries
	w.writeBits(1, 1)  // delta present
	w.writeBits(1, 32) // delta = 1
	w.writeBits(0, 1)  // base_line
	w.writeBits(0, 11) // updated_entries = 0

	// Body is just the removed-entities trailer: continue, id=7, continue,
	// id=42, stop.
	var body bitWriter
	body.writeBits(1, 1)
	body.writeBits(7, 11)
	body.writeBits(1, 1)
	body.writeBits(42, 11)
	body.writeBits(0, 1)

	bodyBits := body.bitsLen
	w.writeBits(uint64(bodyBits), 20) // length
	w.writeBits(0, 1)                 // updated_base_line
	for i := 0; i < bodyBits; i++ {
		bit := (body.bytes[i/8] >> uint(i%8)) & 1
		w.writeBits(uint64(bit), 1)
	}

	stream := newStreamFromWriter(&w)
	msg, err := Decode(stream, state)
	require.NoError(t, err)
	assert.Empty(t, msg.Entities)
	require.Equal(t, []EntityID{7, 42}, msg.RemovedEntities)
}
