package geodoc

import (
	"fmt"
	"strconv"

	"github.com/andreyvit/geodoc/kvo"
)

// MaxArity is the largest number of components an aggregate may have. Keys
// "0".."9" are part of the wire contract; aggregates needing more components
// are rejected at definition time.
const MaxArity = 10

// ComponentKey returns the document key of component i: its decimal
// representation.
func ComponentKey(i int) string {
	if i < 0 {
		panic(fmt.Sprintf("geodoc: negative component index %d", i))
	}
	return strconv.Itoa(i)
}

func componentKeys(arity int) []string {
	keys := make([]string, arity)
	for i := range keys {
		keys[i] = ComponentKey(i)
	}
	return keys
}

func decodeComponent[S Scalar](m *kvo.Node, key string) (S, *DecodeError) {
	v := m.Get(key)
	if v == nil {
		return 0, decodeErrf(ErrMissingKey, key, "")
	}
	f, ok := v.Float()
	if !ok {
		return 0, decodeErrf(ErrTypeMismatch, key, "expected number, got %s", v.Kind())
	}
	s, ok := floatScalarConverter[S]{}.FloatToScalar(f)
	if !ok {
		return 0, decodeErrf(ErrTypeMismatch, key, "%v overflows %T", f, s)
	}
	return s, nil
}

func expectMap(n *kvo.Node) *DecodeError {
	if n == nil {
		return decodeErrf(ErrMissingKey, "", "")
	}
	if !n.IsMap() {
		return decodeErrf(ErrTypeMismatch, "", "expected map, got %s", n.Kind())
	}
	return nil
}
