package schema

import "reflect"

// accessor is the uniform get/set capability for one member. The same shape
// covers plain struct fields and computed properties backed by method pairs,
// so converters never care which one they are talking to. The instance value
// passed in is always an addressable struct.
type accessor interface {
	get(inst reflect.Value) reflect.Value
	set(inst reflect.Value, v reflect.Value)
}

// fieldAccessor reads and writes a struct field directly.
type fieldAccessor struct {
	index []int
}

func (a fieldAccessor) get(inst reflect.Value) reflect.Value {
	return inst.FieldByIndex(a.index)
}

func (a fieldAccessor) set(inst reflect.Value, v reflect.Value) {
	inst.FieldByIndex(a.index).Set(v)
}

// propertyAccessor routes through Get<Name>/Set<Name> methods declared on
// the pointer receiver. setter is invalid for readonly members and never
// called for them.
type propertyAccessor struct {
	getter reflect.Method
	setter reflect.Method
	hasSet bool
}

func (a propertyAccessor) get(inst reflect.Value) reflect.Value {
	return a.getter.Func.Call([]reflect.Value{inst.Addr()})[0]
}

func (a propertyAccessor) set(inst reflect.Value, v reflect.Value) {
	if a.hasSet {
		a.setter.Func.Call([]reflect.Value{inst.Addr(), v})
	}
}
