// Package variable infers the prediction domain of data columns.
//
// A column is classified as Numeric (real-valued) or Nominal (categorical
// with an observed category set) by joining the kinds of its elements over a
// small lattice: integer kinds join with float kinds to float, while string
// and numeric kinds have no common kind and fail inference. Missing entries
// (nil, or a floating-point NaN) are dropped before classification.
//
// The classification is computed fresh per column and never cached; callers
// such as the label encoder use it to decide how a column crosses into the
// float-matrix data plane.
package variable

import (
	"fmt"
	"math"
	"sort"

	"github.com/combineml/combineml/pkg/errors"
)

// Kind is the element kind of a single value, before column
// classification.
type Kind int

const (
	// KindInvalid marks values outside the supported element kinds.
	KindInvalid Kind = iota
	// KindInt covers the signed and unsigned integer types.
	KindInt
	// KindFloat covers float32 and float64.
	KindFloat
	// KindString covers string values.
	KindString
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Type classifies the prediction domain of a column. The two
// implementations are Numeric and Nominal.
type Type interface {
	String() string
	isVariableType()
}

// Numeric marks a real-valued column.
type Numeric struct{}

func (Numeric) isVariableType() {}

// String implements Type.
func (Numeric) String() string { return "numeric" }

// Nominal marks a categorical column. Categories holds the distinct
// observed values in sorted order.
type Nominal struct {
	Categories []string
}

func (Nominal) isVariableType() {}

// String implements Type.
func (n Nominal) String() string {
	return fmt.Sprintf("nominal(%d categories)", len(n.Categories))
}

// IsMissing reports whether a value counts as missing: nil, or a
// floating-point NaN.
func IsMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// ElementKind computes the least upper bound of the element kinds across
// values. Integer kinds join with float kinds to KindFloat; string joins
// only with itself. An empty collection, an unsupported element type, or a
// mix of string and numeric elements fails with InferenceError.
func ElementKind(values []any) (Kind, error) {
	if len(values) == 0 {
		return KindInvalid, errors.NewInferenceError("ElementKind", "empty collection")
	}

	joined := KindInvalid
	for _, value := range values {
		kind := kindOf(value)
		if kind == KindInvalid {
			return KindInvalid, errors.NewInferenceError("ElementKind",
				fmt.Sprintf("unsupported element type %T", value))
		}
		var err error
		joined, err = join(joined, kind)
		if err != nil {
			return KindInvalid, err
		}
	}
	return joined, nil
}

// Infer classifies a column. Missing entries are dropped first; the
// remaining elements must share a kind under ElementKind. Numeric kinds
// yield Numeric; strings yield Nominal with the sorted distinct category
// set. A column with no non-missing values fails with InferenceError.
//
// Example:
//
//	vt, err := variable.Infer([]any{"spam", "ham", "spam"})
//	// vt is Nominal{Categories: ["ham", "spam"]}
func Infer(values []any) (Type, error) {
	present := make([]any, 0, len(values))
	for _, value := range values {
		if !IsMissing(value) {
			present = append(present, value)
		}
	}
	if len(present) == 0 {
		return nil, errors.NewInferenceError("Infer", "no non-missing values")
	}

	kind, err := ElementKind(present)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindInt, KindFloat:
		return Numeric{}, nil
	case KindString:
		return Nominal{Categories: distinctStrings(present)}, nil
	default:
		return nil, errors.NewInferenceError("Infer",
			fmt.Sprintf("element kind %s is neither numeric nor nominal", kind))
	}
}

// InferStrings classifies a string column. It always yields Nominal; an
// empty column fails with InferenceError.
func InferStrings(values []string) (Type, error) {
	boxed := make([]any, len(values))
	for i, v := range values {
		boxed[i] = v
	}
	return Infer(boxed)
}

// InferFloats classifies a float column. NaN entries count as missing; a
// column of only NaNs fails with InferenceError.
func InferFloats(values []float64) (Type, error) {
	boxed := make([]any, len(values))
	for i, v := range values {
		boxed[i] = v
	}
	return Infer(boxed)
}

func kindOf(value any) Kind {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	default:
		return KindInvalid
	}
}

// join is the lattice join. KindInvalid is the identity so it can seed a
// fold.
func join(a, b Kind) (Kind, error) {
	switch {
	case a == KindInvalid:
		return b, nil
	case a == b:
		return a, nil
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat, nil
	default:
		return KindInvalid, errors.NewInferenceError("ElementKind",
			fmt.Sprintf("no common kind for %s and %s", a, b))
	}
}

func distinctStrings(values []any) []string {
	seen := make(map[string]struct{}, len(values))
	var categories []string
	for _, value := range values {
		s := value.(string)
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories
}
