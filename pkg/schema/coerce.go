package schema

import (
	"reflect"

	"github.com/cockroachdb/apd/v3"

	"github.com/confsync/confsync/pkg/values"
)

// The coercion matrix defines the exact conversion path between every
// supported numeric representation and the two numeric tree kinds. All
// integer conversions use native unchecked semantics: narrowing truncates,
// sign changes wrap. Nothing here saturates or errors on overflow.

// encodeInt converts any native integer value to the tree's int64 payload.
// Unsigned 64-bit sources above MaxInt64 wrap; the inverse path in decodeInt
// wraps back, so round-trips are lossless.
func encodeInt(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint())
	default:
		return v.Int()
	}
}

// encodeFloat converts any native numeric value to float64. Unsigned sources
// take the unsigned-aware path: converting through a signed intermediate
// would sign-extend large values into negatives.
func encodeFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return float64(v.Int())
	}
}

// decodeNumeric stores a numeric tree node into dst, which must be settable
// and of integer or float kind. Returns false when the node is not numeric;
// the caller decides how to report the mismatch.
func decodeNumeric(node values.Value, dst reflect.Value) bool {
	var i int64
	var f float64
	switch node.Kind() {
	case values.KindInt:
		i = node.AsInt()
		f = float64(i)
	case values.KindFloat:
		f = node.AsFloat()
		i = int64(f)
	default:
		return false
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		dst.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(f)
	default:
		return false
	}
	return true
}

// decimalFromNative builds an arbitrary-precision decimal from any native
// numeric value. Direct constructor paths exist for float32, float64, int32,
// uint32, int64, and uint64; pointer-sized integers go through the matching
// 64-bit width; narrower integers widen to 32-bit signed first.
func decimalFromNative(v reflect.Value) *apd.Decimal {
	d := new(apd.Decimal)
	switch v.Kind() {
	case reflect.Int64:
		d.SetInt64(v.Int())
	case reflect.Int:
		d.SetInt64(int64(v.Int()))
	case reflect.Int32:
		d.SetInt64(v.Int())
	case reflect.Int8, reflect.Int16:
		d.SetInt64(int64(int32(v.Int())))
	case reflect.Uint32:
		d.SetInt64(int64(uint32(v.Uint())))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		var coeff apd.BigInt
		coeff.SetUint64(v.Uint())
		return apd.NewWithBigInt(&coeff, 0)
	case reflect.Uint8, reflect.Uint16:
		d.SetInt64(int64(int32(v.Uint())))
	case reflect.Float32:
		_, _ = d.SetFloat64(float64(float32(v.Float())))
	case reflect.Float64:
		_, _ = d.SetFloat64(v.Float())
	}
	return d
}

// decimalToNative stores a decimal into any settable native numeric value.
// Pointer-sized integer targets go through a 64-bit intermediate; everything
// else converts directly. Fractional parts truncate toward zero for integer
// targets; out-of-range values wrap like every other integer path.
func decimalToNative(d *apd.Decimal, dst reflect.Value) {
	switch dst.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		i := decimalInt64(d)
		if dst.Kind() == reflect.Int {
			dst.SetInt(i)
		} else {
			dst.SetUint(uint64(i))
		}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(decimalInt64(d))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(uint64(decimalInt64(d)))
	case reflect.Float32, reflect.Float64:
		f, _ := d.Float64()
		dst.SetFloat(f)
	}
}

// decimalInt64 extracts the integral part of d as int64. Values outside the
// int64 range fall back to the float path and truncate like every other
// unchecked conversion here.
func decimalInt64(d *apd.Decimal) int64 {
	if i, err := d.Int64(); err == nil {
		return i
	}
	f, _ := d.Float64()
	return int64(f)
}
