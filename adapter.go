package geodoc

import (
	"fmt"
	"reflect"

	"github.com/andreyvit/geodoc/kvo"
)

// Adapter translates values of one type to and from a document subtree.
//
// ToDocument must return a fresh node that nothing else references; callers
// attach it to a parent with a single Set. FromDocument must either return a
// fully constructed value or an error, never a partially filled value.
type Adapter[T any] interface {
	Name() string
	ToDocument(v T) *kvo.Node
	FromDocument(n *kvo.Node) (T, error)
}

// AnyAdapter is the type-erased form of Adapter stored in a Registry.
type AnyAdapter interface {
	Name() string
	Type() reflect.Type
	EncodeAny(v any) (*kvo.Node, error)
	DecodeAny(n *kvo.Node) (any, error)
}

type erasedAdapter[T any] struct {
	adapter Adapter[T]
	typ     reflect.Type
}

func eraseAdapter[T any](a Adapter[T]) *erasedAdapter[T] {
	return &erasedAdapter[T]{a, typeOf[T]()}
}

func (ea *erasedAdapter[T]) Name() string       { return ea.adapter.Name() }
func (ea *erasedAdapter[T]) Type() reflect.Type { return ea.typ }

func (ea *erasedAdapter[T]) EncodeAny(v any) (*kvo.Node, error) {
	switch v := v.(type) {
	case T:
		return ea.adapter.ToDocument(v), nil
	case *T:
		if v == nil {
			return nil, fmt.Errorf("%s: cannot encode nil %T", ea.Name(), v)
		}
		return ea.adapter.ToDocument(*v), nil
	default:
		return nil, fmt.Errorf("%s: cannot encode %T, wanted %v", ea.Name(), v, ea.typ)
	}
}

func (ea *erasedAdapter[T]) DecodeAny(n *kvo.Node) (any, error) {
	v, err := ea.adapter.FromDocument(n)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
