package abi

import (
	"math"
	"reflect"
)

const (
	MaxSequenceLength = 1 << 27 // 128M elements per sequence
	MaxPrealloc       = 4096    // elements reserved up front when decoding a sequence
	MaxDepth          = 1 << 12 // path segments between the root and a nested value
)

func SafeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// IntOf widens a Go integer of any width to int64. Unsigned values above
// MaxInt64 are rejected.
func IntOf(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

// SetInt stores x into an integer value, failing when x does not fit its width.
func SetInt(v reflect.Value, x int64) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.OverflowInt(x) {
			return false
		}
		v.SetInt(x)
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if x < 0 || v.OverflowUint(uint64(x)) {
			return false
		}
		v.SetUint(uint64(x))
		return true
	}
	return false
}

// Assign stores value into v, converting numbers with range checks and
// anything else with a plain reflect conversion.
func Assign(v reflect.Value, value any) bool {
	if value == nil {
		v.SetZero()
		return true
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, ok := CoerceToInt64(value)
		return ok && SetInt(v, x)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, ok := CoerceToUint64(value)
		if !ok || v.OverflowUint(x) {
			return false
		}
		v.SetUint(x)
		return true
	case reflect.Float32, reflect.Float64:
		x, ok := CoerceToFloat64(value)
		if !ok || v.OverflowFloat(x) {
			return false
		}
		v.SetFloat(x)
		return true
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(v.Type()) {
		v.Set(rv)
		return true
	}
	if rv.Kind() == v.Kind() && rv.Type().ConvertibleTo(v.Type()) {
		v.Set(rv.Convert(v.Type()))
		return true
	}
	return false
}
