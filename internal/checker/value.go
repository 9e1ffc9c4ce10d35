package checker

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a typed view over a decoded JSON document. Every operation on it
// is total: field lookups on the wrong kind or for an absent key degrade to
// the empty object instead of failing, so path traversal can never error.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  map[string]Value
}

var emptyObject = Value{kind: KindObject}

// FromAny adopts a value produced by encoding/json decoding into any.
// Unrecognized Go types map to null.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case bool:
		return Value{kind: KindBool, b: x}
	case float64:
		return Value{kind: KindNumber, num: x}
	case string:
		return Value{kind: KindString, str: x}
	case []any:
		arr := make([]Value, len(x))
		for i, item := range x {
			arr[i] = FromAny(item)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			obj[k] = FromAny(item)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return Value{kind: KindNull}
	}
}

// Kind returns the shape of v.
func (v Value) Kind() Kind {
	return v.kind
}

// Field returns the named member of an object. Non-objects and absent keys
// yield the empty object.
func (v Value) Field(key string) Value {
	if v.kind == KindObject {
		if child, ok := v.obj[key]; ok {
			return child
		}
	}
	return emptyObject
}

// Dig walks a dot-separated field path. The empty path is the value itself.
func (v Value) Dig(path string) Value {
	if path == "" {
		return v
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		cur = cur.Field(seg)
	}
	return cur
}

// Truthy reports whether v counts as "up" when no expected value is given:
// false for null, false, zero, the empty string, and empty collections.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.obj) > 0
	default:
		return false
	}
}

// Stringify renders v for comparison against an expected value. Scalars use
// their plain form, composites their compact JSON encoding.
func (v Value) Stringify() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	default:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Interface converts v back to plain Go values for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}
