package schema

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/confsync/confsync/pkg/values"
)

// BeforeSaver is implemented by config types that want a callback just
// before their fields are encoded to a tree.
type BeforeSaver interface {
	BeforeSave()
}

// AfterLoader is implemented by config types that want a callback after a
// tree has been decoded into their fields.
type AfterLoader interface {
	AfterLoad()
}

// TypeDescriptor is the compiled conversion plan for one struct type. It is
// built at most once per type, cached process-wide, and shared by every
// instance of the type. Immutable after construction.
type TypeDescriptor struct {
	// Type is the struct type the plan was derived from.
	Type reflect.Type

	// Members holds the per-member plans in field declaration order.
	Members []*MemberDescriptor

	// HasBeforeSave and HasAfterLoad record whether *Type implements the
	// corresponding hook interface.
	HasBeforeSave bool
	HasAfterLoad  bool
}

// MemberDescriptor is the compiled plan for one serializable member: its
// serialized name, its accessor, and its converter pair. The converter
// closures are pure over (instance value, tree node) and carry no mutable
// state, so one pair serves every instance of the owning type.
type MemberDescriptor struct {
	// Name is the key used in the tree's root map.
	Name string

	// FieldName is the Go field the member was derived from.
	FieldName string

	// Type is the member's declared native type.
	Type reflect.Type

	// Ignored members keep their slot in Members but have no converters
	// and never touch the tree.
	Ignored bool

	// ReadOnly members are encoded on save but never decoded on load.
	ReadOnly bool

	// Nested marks struct and pointer-to-struct members, which delegate to
	// their own type's plan.
	Nested bool

	acc    accessor
	encode encodeFunc
	decode decodeFunc
}

// Encode applies every member's object-to-tree converter in declaration
// order and returns the resulting root map node. inst must be an addressable
// value of d.Type.
func (d *TypeDescriptor) Encode(inst reflect.Value) (values.Value, error) {
	root := values.Map()
	for _, m := range d.Members {
		if m.Ignored {
			continue
		}
		node, err := m.encode(m.acc.get(inst))
		if err != nil {
			return values.Null(), fmt.Errorf("schema: encode %s.%s: %w", d.Type.Name(), m.Name, err)
		}
		root.Set(m.Name, node)
	}
	return root, nil
}

// Decode applies every member's tree-to-object converter. Members whose key
// is absent from the tree keep their current value; members whose node has
// the wrong kind are logged and skipped. Only structural plan failures (a
// nested type that cannot be compiled) return an error.
func (d *TypeDescriptor) Decode(inst reflect.Value, tree values.Value, log zerolog.Logger) error {
	if tree.Kind() != values.KindMap {
		logMismatch(log, "map", tree, d.Type.Name())
		return nil
	}
	for _, m := range d.Members {
		if m.Ignored || m.ReadOnly {
			continue
		}
		node, ok := tree.Get(m.Name)
		if !ok {
			continue
		}
		if err := m.decodeInto(inst, node, log); err != nil {
			return fmt.Errorf("schema: decode %s.%s: %w", d.Type.Name(), m.Name, err)
		}
	}
	return nil
}

// decodeInto runs the member's tree-to-object converter against inst. Fields
// decode in place; properties decode into a scratch value handed to the
// setter, so a half-applied node never leaks through a property.
func (m *MemberDescriptor) decodeInto(inst reflect.Value, node values.Value, log zerolog.Logger) error {
	mlog := log.With().Str("member", m.FieldName).Logger()
	if fa, ok := m.acc.(fieldAccessor); ok {
		return m.decode(node, inst.FieldByIndex(fa.index), mlog)
	}
	cur := reflect.New(m.Type).Elem()
	cur.Set(m.acc.get(inst))
	if err := m.decode(node, cur, mlog); err != nil {
		return err
	}
	m.acc.set(inst, cur)
	return nil
}

// logMismatch emits the structural mismatch notice: expected and found
// shapes plus the owning member, at warn level. The member keeps its current
// value and loading continues.
func logMismatch(log zerolog.Logger, expected string, node values.Value, where string) {
	log.Warn().
		Str("expected", expected).
		Str("found", node.Kind().String()).
		Str("type", where).
		Msg("Config value has unexpected kind, keeping current value")
}
