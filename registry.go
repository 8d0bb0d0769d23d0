package geodoc

import (
	"fmt"
	"reflect"

	"github.com/andreyvit/geodoc/kvo"
)

// Registry maps Go types to their adapters. An application assembles one at
// startup by calling Register for every adapted type, and treats it as
// read-only afterwards; concurrent lookups are safe from then on.
//
// Each type and each adapter name can be registered only once. A second
// registration is a programming error and panics, so two adapters can never
// silently compete for the same type.
type Registry struct {
	adapters       []AnyAdapter
	adaptersByType map[reflect.Type]AnyAdapter
	adaptersByName map[string]AnyAdapter
	logf           func(format string, args ...any)
}

type RegistryOpts struct {
	// Logf, if set, receives a line for every registered adapter.
	Logf func(format string, args ...any)
}

func NewRegistry(opt RegistryOpts) *Registry {
	return &Registry{
		adaptersByType: make(map[reflect.Type]AnyAdapter),
		adaptersByName: make(map[string]AnyAdapter),
		logf:           opt.Logf,
	}
}

// Register adds the adapter of T to reg and returns it.
func Register[T any](reg *Registry, a Adapter[T]) Adapter[T] {
	reg.add(eraseAdapter(a))
	return a
}

func (reg *Registry) add(ea AnyAdapter) {
	typ, name := ea.Type(), ea.Name()
	if name == "" {
		panic(fmt.Errorf("geodoc: adapter for %v has no name", typ))
	}
	if prior := reg.adaptersByType[typ]; prior != nil {
		panic(fmt.Errorf("geodoc: %v already has adapter %s, cannot register %s", typ, prior.Name(), name))
	}
	if prior := reg.adaptersByName[name]; prior != nil {
		panic(fmt.Errorf("geodoc: adapter name %s is already used for %v, cannot use it for %v", name, prior.Type(), typ))
	}
	reg.adapters = append(reg.adapters, ea)
	reg.adaptersByType[typ] = ea
	reg.adaptersByName[name] = ea
	if reg.logf != nil {
		reg.logf("geodoc: registered adapter %s for %v", name, typ)
	}
}

func (reg *Registry) Adapters() []AnyAdapter {
	return append([]AnyAdapter(nil), reg.adapters...)
}

// Lookup returns the adapter registered for typ, or nil.
func (reg *Registry) Lookup(typ reflect.Type) AnyAdapter {
	return reg.adaptersByType[typ]
}

// AdapterNamed returns the adapter registered under name, or nil.
func (reg *Registry) AdapterNamed(name string) AnyAdapter {
	return reg.adaptersByName[name]
}

// AdapterFor returns the typed adapter registered for T.
func AdapterFor[T any](reg *Registry) (Adapter[T], bool) {
	ea, ok := reg.adaptersByType[typeOf[T]()].(*erasedAdapter[T])
	if !ok {
		return nil, false
	}
	return ea.adapter, true
}

// adapterForValue finds the adapter for v's dynamic type, looking through
// a pointer if needed.
func (reg *Registry) adapterForValue(v any) (AnyAdapter, error) {
	rt := reflect.TypeOf(v)
	if rt == nil {
		return nil, fmt.Errorf("geodoc: cannot encode nil: %w", ErrNoAdapter)
	}
	if a := reg.adaptersByType[rt]; a != nil {
		return a, nil
	}
	if rt.Kind() == reflect.Ptr {
		if a := reg.adaptersByType[rt.Elem()]; a != nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("geodoc: %v: %w", rt, ErrNoAdapter)
}

// Encode converts v, or *v, with the adapter registered for its type.
func (reg *Registry) Encode(v any) (*kvo.Node, error) {
	a, err := reg.adapterForValue(v)
	if err != nil {
		return nil, err
	}
	return a.EncodeAny(v)
}

// Decode converts n into a T with the adapter registered for T.
func Decode[T any](reg *Registry, n *kvo.Node) (T, error) {
	a, ok := AdapterFor[T](reg)
	if !ok {
		var zero T
		return zero, fmt.Errorf("geodoc: %v: %w", typeOf[T](), ErrNoAdapter)
	}
	return a.FromDocument(n)
}

// DecodeInto decodes n into the value ptr points to. *ptr is left untouched
// when decoding fails.
func (reg *Registry) DecodeInto(n *kvo.Node, ptr any) error {
	a, ptrVal, err := reg.adapterForPtr(ptr)
	if err != nil {
		return err
	}
	v, err := a.DecodeAny(n)
	if err != nil {
		return err
	}
	ptrVal.Elem().Set(reflect.ValueOf(v))
	return nil
}

func (reg *Registry) adapterForPtr(ptr any) (AnyAdapter, reflect.Value, error) {
	ptrVal := reflect.ValueOf(ptr)
	if ptrVal.Kind() != reflect.Ptr || ptrVal.IsNil() {
		return nil, reflect.Value{}, fmt.Errorf("geodoc: expected non-nil pointer, got %T", ptr)
	}
	a := reg.adaptersByType[ptrVal.Type().Elem()]
	if a == nil {
		return nil, reflect.Value{}, fmt.Errorf("geodoc: %v: %w", ptrVal.Type().Elem(), ErrNoAdapter)
	}
	return a, ptrVal, nil
}
