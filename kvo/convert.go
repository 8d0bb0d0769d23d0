package kvo

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// FromAny converts a generic value tree, as produced by encoding/json,
// msgpack, CBOR or YAML decoders, into a Node tree. Map keys must be
// strings or integers. All integer and float widths become KindFloat.
func FromAny(v any) (*Node, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return v.Clone(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case int:
		return Float(float64(v)), nil
	case int8:
		return Float(float64(v)), nil
	case int16:
		return Float(float64(v)), nil
	case int32:
		return Float(float64(v)), nil
	case int64:
		return Float(float64(v)), nil
	case uint:
		return Float(float64(v)), nil
	case uint8:
		return Float(float64(v)), nil
	case uint16:
		return Float(float64(v)), nil
	case uint32:
		return Float(float64(v)), nil
	case uint64:
		return Float(float64(v)), nil
	case []any:
		items := make([]*Node, len(v))
		for i, item := range v {
			n, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = n
		}
		return List(items...), nil
	case map[string]any:
		m := NewMapCap(len(v))
		for k, item := range v {
			n, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, n)
		}
		return m, nil
	case map[any]any:
		m := NewMapCap(len(v))
		for k, item := range v {
			ks, ok := mapKey(k)
			if !ok {
				return nil, fmt.Errorf("kvo: map key %v has type %T, wanted string or integer", k, k)
			}
			n, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ks, err)
			}
			m.Set(ks, n)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("kvo: unsupported value type %v", reflect.TypeOf(v))
	}
}

// mapKey accepts string keys and integer keys, which YAML and CBOR produce
// for unquoted numeric keys like {0: 1}. Integers use decimal form.
func mapKey(k any) (string, bool) {
	switch k := k.(type) {
	case string:
		return k, true
	case int:
		return strconv.FormatInt(int64(k), 10), true
	case int8:
		return strconv.FormatInt(int64(k), 10), true
	case int16:
		return strconv.FormatInt(int64(k), 10), true
	case int32:
		return strconv.FormatInt(int64(k), 10), true
	case int64:
		return strconv.FormatInt(k, 10), true
	case uint:
		return strconv.FormatUint(uint64(k), 10), true
	case uint8:
		return strconv.FormatUint(uint64(k), 10), true
	case uint16:
		return strconv.FormatUint(uint64(k), 10), true
	case uint32:
		return strconv.FormatUint(uint64(k), 10), true
	case uint64:
		return strconv.FormatUint(k, 10), true
	default:
		return "", false
	}
}

// Any converts n into a generic value tree made of map[string]any, []any,
// float64, string, bool and nil, suitable for handing to any encoder.
// Infinities and NaN are passed through as is; it's up to the encoder
// to accept or reject them.
func (n *Node) Any() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindNull:
		return nil
	case KindBool:
		return n.b
	case KindFloat:
		return n.f
	case KindString:
		return n.s
	case KindList:
		items := make([]any, len(n.items))
		for i, item := range n.items {
			items[i] = item.Any()
		}
		return items
	case KindMap:
		m := make(map[string]any, len(n.entries))
		for _, e := range n.entries {
			m[e.key] = e.value.Any()
		}
		return m
	default:
		panic("unreachable")
	}
}

// IsFinite reports whether every number in the tree is finite.
func IsFinite(n *Node) bool {
	if n == nil {
		return true
	}
	switch n.kind {
	case KindFloat:
		return !math.IsInf(n.f, 0) && !math.IsNaN(n.f)
	case KindList:
		for _, item := range n.items {
			if !IsFinite(item) {
				return false
			}
		}
	case KindMap:
		for _, e := range n.entries {
			if !IsFinite(e.value) {
				return false
			}
		}
	}
	return true
}
