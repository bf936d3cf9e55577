package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrUnsupported is returned for Go values that have no Value counterpart.
var ErrUnsupported = errors.New("model: unsupported value type")

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindNumber
	KindBool
	KindModel
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindModel:
		return "model"
	case KindList:
		return "list"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is what containers store and return: none, a string, a number, a
// bool, or a nested container. Plain maps and slices handed to Of stay raw
// until a container wraps them on first read.
type Value struct {
	// nil, string, float64, bool, *Model, *List, map[string]any or []any
	v any
}

func None() Value               { return Value{} }
func String(s string) Value     { return Value{v: s} }
func Number(n float64) Value    { return Value{v: n} }
func Int(n int) Value           { return Value{v: float64(n)} }
func Bool(b bool) Value         { return Value{v: b} }
func ModelValue(m *Model) Value { return Value{v: m} }
func ListValue(l *List) Value   { return Value{v: l} }

// Of converts a Go value. Numbers of any width become float64, nested
// map[string]any and []any are checked but not wrapped yet.
func Of(x any) (Value, error) {
	if v, ok := x.(Value); ok {
		return v, nil
	}
	if err := check(x); err != nil {
		return Value{}, err
	}
	return Value{v: scalar(x)}, nil
}

// MustOf is Of for values known to be supported.
func MustOf(x any) Value {
	v, err := Of(x)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Kind() Kind {
	switch v.v.(type) {
	case string:
		return KindString
	case float64:
		return KindNumber
	case bool:
		return KindBool
	case *Model, map[string]any:
		return KindModel
	case *List, []any:
		return KindList
	default:
		return KindNone
	}
}

func (v Value) IsNone() bool {
	return v.v == nil
}

func (v Value) AsString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

func (v Value) AsNumber() (float64, bool) {
	n, ok := v.v.(float64)
	return n, ok
}

func (v Value) AsInt() (int, bool) {
	n, ok := v.v.(float64)
	return int(n), ok
}

func (v Value) AsBool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// AsModel returns the wrapped mapping. Values read from a container are
// always wrapped; a raw map passed to Of is not, and reports false.
func (v Value) AsModel() (*Model, bool) {
	m, ok := v.v.(*Model)
	return m, ok
}

// AsList is AsModel for sequences.
func (v Value) AsList() (*List, bool) {
	l, ok := v.v.(*List)
	return l, ok
}

// Interface returns the underlying Go value.
func (v Value) Interface() any {
	return v.v
}

// Equal reports whether writing other over v would be a no-op.
func (v Value) Equal(other Value) bool {
	return equal(v.v, other.v)
}

// String formats the value without subscribing the caller.
func (v Value) String() string {
	var sb strings.Builder
	format(&sb, v.v)
	return sb.String()
}

func equal(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return reflect.DeepEqual(a, b)
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}

func check(x any) error {
	switch x := x.(type) {
	case nil, string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		*Model, *List, Value:
		return nil
	case map[string]any:
		for k, v := range x {
			if err := check(v); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		return nil
	case []any:
		for i, v := range x {
			if err := check(v); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, x)
	}
}

// scalar normalizes checked values: numbers to float64, Value to its content.
func scalar(x any) any {
	switch n := x.(type) {
	case Value:
		return n.v
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return x
	}
}

func format(sb *strings.Builder, x any) {
	switch x := scalar(x).(type) {
	case nil:
		sb.WriteString("none")
	case string:
		sb.WriteString(strconv.Quote(x))
	case float64:
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			format(sb, x[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, item)
		}
		sb.WriteByte(']')
	case *Model:
		format(sb, Snapshot(x.rt, ModelValue(x)))
	case *List:
		format(sb, Snapshot(x.rt, ListValue(x)))
	default:
		fmt.Fprint(sb, x)
	}
}
