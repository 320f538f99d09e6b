package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// descriptors caches compiled plans by struct type. Entries hold a sync.Once
// so concurrent first requests for the same type agree on a single build and
// every caller observes the same descriptor (or the same build error).
var descriptors sync.Map // reflect.Type -> *descriptorEntry

type descriptorEntry struct {
	once sync.Once
	desc *TypeDescriptor
	err  error
}

// DescriptorFor returns the compiled conversion plan for t, which must be a
// struct or pointer-to-struct type. The plan is built on first request and
// cached for the process lifetime; a build failure is cached the same way
// and returned to every subsequent caller.
func DescriptorFor(t reflect.Type) (*TypeDescriptor, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	e, _ := descriptors.LoadOrStore(t, &descriptorEntry{})
	entry := e.(*descriptorEntry)
	entry.once.Do(func() {
		entry.desc, entry.err = build(t)
	})
	return entry.desc, entry.err
}

// DescriptorOf is the convenience form taking a value instead of a type.
func DescriptorOf(v interface{}) (*TypeDescriptor, error) {
	return DescriptorFor(reflect.TypeOf(v))
}

func build(t reflect.Type) (*TypeDescriptor, error) {
	desc := &TypeDescriptor{
		Type:          t,
		HasBeforeSave: reflect.PointerTo(t).Implements(reflect.TypeOf((*BeforeSaver)(nil)).Elem()),
		HasAfterLoad:  reflect.PointerTo(t).Implements(reflect.TypeOf((*AfterLoader)(nil)).Elem()),
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, readonly, ignored := parseTag(f)
		m := &MemberDescriptor{
			Name:      name,
			FieldName: f.Name,
			Type:      f.Type,
			Ignored:   ignored,
			ReadOnly:  readonly,
		}
		desc.Members = append(desc.Members, m)
		if ignored {
			continue
		}

		acc, err := buildAccessor(t, f, readonly)
		if err != nil {
			return nil, err
		}
		m.acc = acc

		enc, dec, nested, err := buildConverter(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
		m.encode = enc
		m.decode = dec
		m.Nested = nested
	}

	return desc, nil
}

// parseTag interprets the `conf` struct tag: `conf:"-"` ignores the field,
// the first element renames it, and the readonly option suppresses loading.
func parseTag(f reflect.StructField) (name string, readonly, ignored bool) {
	name = f.Name
	tag := f.Tag.Get("conf")
	if tag == "-" {
		return name, false, true
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "readonly" {
			readonly = true
		}
	}
	return name, readonly, ignored
}

// buildAccessor selects the access path for one member. When the type
// declares a valid Get<Field> method the member becomes a property and must
// also declare Set<Field> unless it is readonly; a setter without a getter
// is always an error. Otherwise the plain field is used directly.
func buildAccessor(t reflect.Type, f reflect.StructField, readonly bool) (accessor, error) {
	pt := reflect.PointerTo(t)
	getter, hasGet := pt.MethodByName("Get" + f.Name)
	if hasGet && !validGetter(getter, f.Type) {
		hasGet = false
	}
	setter, hasSet := pt.MethodByName("Set" + f.Name)
	if hasSet && !validSetter(setter, f.Type) {
		hasSet = false
	}

	switch {
	case hasGet && hasSet:
		return propertyAccessor{getter: getter, setter: setter, hasSet: true}, nil
	case hasGet && readonly:
		return propertyAccessor{getter: getter}, nil
	case hasGet:
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingSetter, t.Name(), f.Name)
	case hasSet:
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingGetter, t.Name(), f.Name)
	default:
		return fieldAccessor{index: f.Index}, nil
	}
}

func validGetter(m reflect.Method, want reflect.Type) bool {
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == want
}

func validSetter(m reflect.Method, want reflect.Type) bool {
	return m.Type.NumIn() == 2 && m.Type.In(1) == want && m.Type.NumOut() == 0
}
