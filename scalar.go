package geodoc

import (
	"math"

	"github.com/andreyvit/geodoc/kvo"
)

// Scalar is the component type of an aggregate. Documents always hold
// float64; float32 components widen exactly and narrow back on decode.
type Scalar interface {
	~float32 | ~float64
}

type ScalarConverter[S Scalar] interface {
	ScalarToFloat(v S) float64
	FloatToScalar(f float64) (S, bool)
}

type floatScalarConverter[S Scalar] struct{}

func (floatScalarConverter[S]) ScalarToFloat(v S) float64 {
	return float64(v)
}

// FloatToScalar fails only when a finite value does not fit into S, which can
// happen when narrowing to float32. Infinities and NaN are passed through.
func (floatScalarConverter[S]) FloatToScalar(f float64) (S, bool) {
	v := S(f)
	if math.IsInf(float64(v), 0) && !math.IsInf(f, 0) {
		return 0, false
	}
	return v, true
}

func scalarNode[S Scalar](v S) *kvo.Node {
	return kvo.Float(floatScalarConverter[S]{}.ScalarToFloat(v))
}
