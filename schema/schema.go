/*

Package schema holds the two schema kinds transmitted once per demo and then
treated as immutable for the rest of the parse: send tables (flattened
per-class property definitions) and the server class list that references
them.

SendPropDefinition values are interned: every PacketEntity and SendProp
references a definition through the single *SendPropDefinition the owning
SendTable allocated, so two props came from "the same" definition if and
only if the pointers are equal. This is the identity chosen for the
prop-uniqueness invariant (see DESIGN.md, "Shared immutable schema").

*/
package schema

// SendPropKind is the wire type of a flattened property.
type SendPropKind int

// Send-prop wire types.
const (
	PropInt SendPropKind = iota
	PropFloat
	PropVector
	PropVectorXY
	PropString
	PropArray
	PropDataTable
)

// SendPropFlags is a bitset of per-property encoding hints.
type SendPropFlags uint32

// Flags recognised by the value decoder.
const (
	// FlagUnsigned: Int props are read as unsigned rather than
	// sign-extended.
	FlagUnsigned SendPropFlags = 1 << iota
	// FlagCoord: Float props use the Source "coord" encoding.
	FlagCoord
	// FlagNoScale: Float props are a raw 32-bit IEEE-754 value.
	FlagNoScale
	// FlagNormal: Float props use the bit_count+sign "normal float"
	// encoding; also selects independent per-axis decoding for Vector
	// props (see sendprop.decodeVector).
	FlagNormal
)

// Has reports whether all bits in mask are set.
func (f SendPropFlags) Has(mask SendPropFlags) bool { return f&mask == mask }

// SendPropDefinition is the immutable, shared definition of one flattened
// property slot.
type SendPropDefinition struct {
	OwnerTable   *SendTable
	Name         string
	Kind         SendPropKind
	Flags        SendPropFlags
	BitCount     int
	LowValue     float32
	HighValue    float32
	ElementCount int

	// ArrayElementDef is non-nil when Kind == PropArray: the definition
	// to use for every element read.
	ArrayElementDef *SendPropDefinition
}

// SendTable is a server class's flattened, wire-ordered property list.
// Flattened order is wire order: a delta message references a prop solely
// by its dense index into FlattenedProps.
type SendTable struct {
	Name           string
	FlattenedProps []*SendPropDefinition
}

// NewSendTable returns an empty table with the given name. Props are
// appended via AddProp so OwnerTable back-references stay consistent.
func NewSendTable(name string) *SendTable {
	return &SendTable{Name: name}
}

// AddProp appends def to the table's flattened prop list, setting def's
// OwnerTable to this table.
func (t *SendTable) AddProp(def *SendPropDefinition) {
	def.OwnerTable = t
	t.FlattenedProps = append(t.FlattenedProps, def)
}

// ServerClass identifies an entity's schema: its flattened send table plus
// the id/name pair entities and baselines are keyed by.
type ServerClass struct {
	ID            uint16
	Name          string
	DataTableName string

	// DataTable is resolved once all send tables are known; nil until
	// then.
	DataTable *SendTable
}
