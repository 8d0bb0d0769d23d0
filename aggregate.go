package geodoc

import (
	"reflect"

	"github.com/andreyvit/geodoc/kvo"
)

// Aggregate is the adapter of a fixed-size numeric type, such as a vector or
// a quaternion. Component i is stored under ComponentKey(i).
type Aggregate[T any, S Scalar] struct {
	name      string
	arity     int
	keys      []string
	typ       reflect.Type
	component func(v T, i int) S
	build     func(c []S) T
}

// NewAggregate defines an adapter for T with the given number of components.
// component reads component i of a value; build makes a value out of exactly
// arity components, in index order.
func NewAggregate[T any, S Scalar](name string, arity int, component func(v T, i int) S, build func(c []S) T) (*Aggregate[T, S], error) {
	if name == "" {
		return nil, configErrf("", ErrInvalidAdapter, "aggregate name missing")
	}
	if arity < 1 || arity > MaxArity {
		return nil, configErrf(name, ErrUnsupportedArity, "%d components, must be between 1 and %d", arity, MaxArity)
	}
	if component == nil || build == nil {
		return nil, configErrf(name, ErrInvalidAdapter, "component and build funcs are required")
	}
	return &Aggregate[T, S]{
		name:      name,
		arity:     arity,
		keys:      componentKeys(arity),
		typ:       typeOf[T](),
		component: component,
		build:     build,
	}, nil
}

// DefineAggregate is like NewAggregate, but panics on invalid definitions.
// Meant for package-level adapter variables.
func DefineAggregate[T any, S Scalar](name string, arity int, component func(v T, i int) S, build func(c []S) T) *Aggregate[T, S] {
	return must(NewAggregate(name, arity, component, build))
}

func (a *Aggregate[T, S]) Name() string       { return a.name }
func (a *Aggregate[T, S]) Arity() int         { return a.arity }
func (a *Aggregate[T, S]) Type() reflect.Type { return a.typ }

// ToDocument returns a new map with exactly Arity entries.
func (a *Aggregate[T, S]) ToDocument(v T) *kvo.Node {
	n := kvo.NewMapCap(a.arity)
	for i, key := range a.keys {
		n.Set(key, scalarNode(a.component(v, i)))
	}
	return n
}

// FromDocument reads components 0..Arity-1 from n. Unknown keys are ignored.
func (a *Aggregate[T, S]) FromDocument(n *kvo.Node) (T, error) {
	var zero T
	if err := expectMap(n); err != nil {
		return zero, err.withRoot(a.name)
	}
	comps := make([]S, a.arity)
	for i, key := range a.keys {
		s, err := decodeComponent[S](n, key)
		if err != nil {
			return zero, err.withRoot(a.name)
		}
		comps[i] = s
	}
	return a.build(comps), nil
}
