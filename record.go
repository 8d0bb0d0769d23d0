package geodoc

import (
	"reflect"
	"strings"

	"github.com/andreyvit/geodoc/kvo"
)

// Record is the adapter of a composite type that owns values of other adapted
// types. Each owned value is stored under its own field key, as produced by
// the field's adapter.
type Record[T any] struct {
	name      string
	typ       reflect.Type
	fields    []recordField[T]
	construct func(fs Fields) T
}

type recordField[T any] interface {
	fieldKey() string
	adapterName() string
	encode(v T) *kvo.Node
	decode(n *kvo.Node) (any, error)
}

// Field is a handle to a field declared with AddField. Use In to obtain the
// decoded value inside a construct func.
type Field[T, F any] struct {
	key     string
	index   int
	adapter Adapter[F]
	get     func(v T) F
}

func (f *Field[T, F]) Key() string { return f.key }

// In returns the decoded value of this field.
func (f *Field[T, F]) In(fs Fields) F {
	return fs.values[f.index].(F)
}

func (f *Field[T, F]) fieldKey() string    { return f.key }
func (f *Field[T, F]) adapterName() string { return f.adapter.Name() }

func (f *Field[T, F]) encode(v T) *kvo.Node {
	return f.adapter.ToDocument(f.get(v))
}

func (f *Field[T, F]) decode(n *kvo.Node) (any, error) {
	return f.adapter.FromDocument(n)
}

// Fields holds the decoded field values of a record while it's being
// constructed.
type Fields struct {
	values []any
}

type RecordBuilder[T any] struct {
	rec *Record[T]
	err error
}

// AddField declares a field stored under key, encoded with adapter, whose
// value is obtained from a record via get.
func AddField[T, F any](b *RecordBuilder[T], key string, adapter Adapter[F], get func(v T) F) *Field[T, F] {
	f := &Field[T, F]{
		key:     key,
		index:   len(b.rec.fields),
		adapter: adapter,
		get:     get,
	}
	switch {
	case key == "":
		b.fail(ErrInvalidAdapter, "field %d has empty key", f.index)
	case isNil(adapter) || get == nil:
		b.fail(ErrInvalidAdapter, "field %q needs an adapter and a getter", key)
	case b.rec.field(key) != nil:
		b.fail(ErrDuplicateField, "field %q declared twice", key)
	}
	b.rec.fields = append(b.rec.fields, f)
	return f
}

// Construct sets the func that builds a record out of its decoded fields.
func (b *RecordBuilder[T]) Construct(fn func(fs Fields) T) {
	if b.rec.construct != nil {
		b.fail(ErrInvalidAdapter, "Construct called twice")
	}
	b.rec.construct = fn
}

// isNil also catches typed nils, like a nil *Aggregate stored in Adapter[F].
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func (b *RecordBuilder[T]) fail(kind error, format string, args ...any) {
	if b.err == nil {
		b.err = configErrf(b.rec.name, kind, format, args...)
	}
}

// NewRecord defines a composite adapter. The build func declares fields via
// AddField and must call Construct.
func NewRecord[T any](name string, build func(b *RecordBuilder[T])) (*Record[T], error) {
	if name == "" {
		return nil, configErrf("", ErrInvalidAdapter, "record name missing")
	}
	rec := &Record[T]{
		name: name,
		typ:  typeOf[T](),
	}
	b := RecordBuilder[T]{rec: rec}
	build(&b)
	if b.err != nil {
		return nil, b.err
	}
	if len(rec.fields) == 0 {
		return nil, configErrf(name, ErrInvalidAdapter, "no fields")
	}
	if rec.construct == nil {
		return nil, configErrf(name, ErrInvalidAdapter, "Construct not called")
	}
	return rec, nil
}

// DefineRecord is like NewRecord, but panics on invalid definitions.
func DefineRecord[T any](name string, build func(b *RecordBuilder[T])) *Record[T] {
	return must(NewRecord(name, build))
}

func (r *Record[T]) Name() string       { return r.name }
func (r *Record[T]) Type() reflect.Type { return r.typ }

// FieldKeys returns the field keys in declaration order.
func (r *Record[T]) FieldKeys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.fieldKey()
	}
	return keys
}

func (r *Record[T]) field(key string) recordField[T] {
	for _, f := range r.fields {
		if f.fieldKey() == key {
			return f
		}
	}
	return nil
}

// ToDocument returns a new map with one entry per field. Every field subtree
// is produced once by its adapter and attached as is.
func (r *Record[T]) ToDocument(v T) *kvo.Node {
	n := kvo.NewMapCap(len(r.fields))
	for _, f := range r.fields {
		n.Set(f.fieldKey(), f.encode(v))
	}
	return n
}

// FromDocument decodes every field and then constructs the record. The first
// failing field aborts decoding.
func (r *Record[T]) FromDocument(n *kvo.Node) (T, error) {
	var zero T
	if err := expectMap(n); err != nil {
		return zero, err.withRoot(r.name)
	}
	values := make([]any, len(r.fields))
	for i, f := range r.fields {
		key := f.fieldKey()
		child := n.Get(key)
		if child == nil {
			return zero, decodeErrf(ErrMissingKey, key, "").withRoot(r.name)
		}
		v, err := f.decode(child)
		if err != nil {
			return zero, nestDecodeError(r.name, key, err)
		}
		values[i] = v
	}
	return r.construct(Fields{values}), nil
}

// String describes the record layout, e.g. pose{V: vec3, Q: quat}.
func (r *Record[T]) String() string {
	var buf strings.Builder
	buf.WriteString(r.name)
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.fieldKey())
		buf.WriteString(": ")
		buf.WriteString(f.adapterName())
	}
	buf.WriteByte('}')
	return buf.String()
}
