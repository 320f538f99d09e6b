package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"github.com/confsync/confsync/pkg/values"
)

// encodeFunc is the object-to-tree half of a converter pair. src is a value
// of the member's declared type; encode only reads it.
type encodeFunc func(src reflect.Value) (values.Value, error)

// decodeFunc is the tree-to-object half. dst is settable. Kind mismatches
// are logged and leave dst untouched; only plan-level failures return an
// error.
type decodeFunc func(node values.Value, dst reflect.Value, log zerolog.Logger) error

var decimalType = reflect.TypeOf(apd.Decimal{})

// buildConverter compiles the converter pair for a member type. nested
// reports whether the type delegates to another struct plan.
func buildConverter(t reflect.Type) (encodeFunc, decodeFunc, bool, error) {
	if t == decimalType {
		return encodeDecimal, decodeDecimal, false, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return encodeBool, decodeBool, false, nil

	case reflect.String:
		return encodeString, decodeString, false, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return encodeIntMember, decodeNumericMember, false, nil

	case reflect.Float32, reflect.Float64:
		return encodeFloatMember, decodeNumericMember, false, nil

	case reflect.Struct:
		enc, dec := structConverter(t)
		return enc, dec, true, nil

	case reflect.Pointer:
		elemEnc, elemDec, nested, err := buildConverter(t.Elem())
		if err != nil {
			return nil, nil, false, err
		}
		enc, dec := pointerConverter(t.Elem(), elemEnc, elemDec)
		return enc, dec, nested, nil

	case reflect.Slice:
		elemEnc, elemDec, _, err := buildConverter(t.Elem())
		if err != nil {
			return nil, nil, false, err
		}
		enc, dec := sliceConverter(t, elemEnc, elemDec)
		return enc, dec, false, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, nil, false, fmt.Errorf("%w: map key %s (only string keys)", ErrUnsupportedType, t.Key())
		}
		elemEnc, elemDec, _, err := buildConverter(t.Elem())
		if err != nil {
			return nil, nil, false, err
		}
		enc, dec := mapConverter(t, elemEnc, elemDec)
		return enc, dec, false, nil

	default:
		return nil, nil, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func encodeBool(src reflect.Value) (values.Value, error) {
	return values.Bool(src.Bool()), nil
}

func decodeBool(node values.Value, dst reflect.Value, log zerolog.Logger) error {
	if node.Kind() != values.KindBool {
		logMismatch(log, "bool", node, dst.Type().String())
		return nil
	}
	dst.SetBool(node.AsBool())
	return nil
}

func encodeString(src reflect.Value) (values.Value, error) {
	return values.String(src.String()), nil
}

func decodeString(node values.Value, dst reflect.Value, log zerolog.Logger) error {
	if node.Kind() != values.KindString {
		logMismatch(log, "string", node, dst.Type().String())
		return nil
	}
	dst.SetString(node.AsString())
	return nil
}

func encodeIntMember(src reflect.Value) (values.Value, error) {
	return values.Int(encodeInt(src)), nil
}

func encodeFloatMember(src reflect.Value) (values.Value, error) {
	return values.Float(encodeFloat(src)), nil
}

func decodeNumericMember(node values.Value, dst reflect.Value, log zerolog.Logger) error {
	if !decodeNumeric(node, dst) {
		logMismatch(log, "number", node, dst.Type().String())
	}
	return nil
}

// encodeDecimal serializes an arbitrary-precision decimal as its exact plain
// text form so no precision is lost in transit.
func encodeDecimal(src reflect.Value) (values.Value, error) {
	d := src.Interface().(apd.Decimal)
	return values.String(d.Text('f')), nil
}

func decodeDecimal(node values.Value, dst reflect.Value, log zerolog.Logger) error {
	d := dst.Addr().Interface().(*apd.Decimal)
	switch node.Kind() {
	case values.KindString:
		if _, _, err := d.SetString(node.AsString()); err != nil {
			logMismatch(log, "decimal string", node, dst.Type().String())
		}
	case values.KindInt:
		*d = *decimalFromNative(reflect.ValueOf(node.AsInt()))
	case values.KindFloat:
		*d = *decimalFromNative(reflect.ValueOf(node.AsFloat()))
	default:
		logMismatch(log, "number", node, dst.Type().String())
	}
	return nil
}

// structConverter delegates to the nested type's own plan. The plan is
// resolved lazily on first use: resolution during the parent build would
// recurse into the cache entry being built for self-referential types.
func structConverter(t reflect.Type) (encodeFunc, decodeFunc) {
	var once sync.Once
	var nd *TypeDescriptor
	var nerr error
	resolve := func() (*TypeDescriptor, error) {
		once.Do(func() {
			nd, nerr = DescriptorFor(t)
		})
		return nd, nerr
	}

	enc := func(src reflect.Value) (values.Value, error) {
		d, err := resolve()
		if err != nil {
			return values.Null(), err
		}
		if !src.CanAddr() {
			tmp := reflect.New(t).Elem()
			tmp.Set(src)
			src = tmp
		}
		return d.Encode(src)
	}
	dec := func(node values.Value, dst reflect.Value, log zerolog.Logger) error {
		d, err := resolve()
		if err != nil {
			return err
		}
		if node.Kind() != values.KindMap {
			logMismatch(log, "map", node, t.String())
			return nil
		}
		return d.Decode(dst, node, log)
	}
	return enc, dec
}

// pointerConverter wraps any element converter with nil handling: nil
// encodes to the null node, and a non-null node arriving at a nil pointer
// default-constructs the child before delegating.
func pointerConverter(elem reflect.Type, elemEnc encodeFunc, elemDec decodeFunc) (encodeFunc, decodeFunc) {
	enc := func(src reflect.Value) (values.Value, error) {
		if src.IsNil() {
			return values.Null(), nil
		}
		return elemEnc(src.Elem())
	}
	dec := func(node values.Value, dst reflect.Value, log zerolog.Logger) error {
		if node.IsNull() {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(elem))
		}
		return elemDec(node, dst.Elem(), log)
	}
	return enc, dec
}

func sliceConverter(t reflect.Type, elemEnc encodeFunc, elemDec decodeFunc) (encodeFunc, decodeFunc) {
	enc := func(src reflect.Value) (values.Value, error) {
		list := values.List()
		for i := 0; i < src.Len(); i++ {
			node, err := elemEnc(src.Index(i))
			if err != nil {
				return values.Null(), err
			}
			list = list.Append(node)
		}
		return list, nil
	}
	dec := func(node values.Value, dst reflect.Value, log zerolog.Logger) error {
		if node.Kind() != values.KindList {
			logMismatch(log, "list", node, t.String())
			return nil
		}
		out := reflect.MakeSlice(t, node.Len(), node.Len())
		for i := 0; i < node.Len(); i++ {
			if err := elemDec(node.Index(i), out.Index(i), log); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	}
	return enc, dec
}

func mapConverter(t reflect.Type, elemEnc encodeFunc, elemDec decodeFunc) (encodeFunc, decodeFunc) {
	enc := func(src reflect.Value) (values.Value, error) {
		m := values.Map()
		iter := src.MapRange()
		for iter.Next() {
			node, err := elemEnc(iter.Value())
			if err != nil {
				return values.Null(), err
			}
			m.Set(iter.Key().String(), node)
		}
		return m, nil
	}
	dec := func(node values.Value, dst reflect.Value, log zerolog.Logger) error {
		if node.Kind() != values.KindMap {
			logMismatch(log, "map", node, t.String())
			return nil
		}
		out := reflect.MakeMapWithSize(t, node.Len())
		for _, k := range node.Keys() {
			child, _ := node.Get(k)
			tmp := reflect.New(t.Elem()).Elem()
			if err := elemDec(child, tmp, log); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), tmp)
		}
		dst.Set(out)
		return nil
	}
	return enc, dec
}
