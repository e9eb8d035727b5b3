// Package options implements the nested configuration store attached to
// every transformer.
//
// An Options value is a tree: keys map to scalar leaves or to nested Options.
// Stores combine by pure right-biased deep merge, which is how estimator
// defaults and caller overrides meet at construction time and how Derive
// builds re-configured instances from a prototype:
//
//	merged := options.Merge(DefaultOptions(), overrides)
//
// Stores load from YAML files and environment variables through the koanf
// stack; see load.go.
package options

import (
	"sort"
	"strconv"
	"strings"

	"github.com/combineml/combineml/pkg/errors"
)

// Options is a nested configuration store. Values are scalars, slices, or
// nested stores (Options or map[string]any, which are treated identically).
type Options map[string]any

// Leaf is one terminal entry of a flattened store: the key path from the
// root and the value found there.
type Leaf struct {
	Path  []string
	Value any
}

// Merge deep-merges override into base and returns the result as a new
// store. For every key in override: if both sides hold nested stores they
// merge recursively, otherwise the override value wins (insertion if the key
// is absent from base). Keys only in base carry over unchanged. Neither
// input is mutated, and the result shares no mutable structure with either.
// A nil or empty override returns a clone of base.
func Merge(base, override Options) Options {
	merged := base.Clone()
	if merged == nil {
		merged = Options{}
	}
	for key, overrideValue := range override {
		baseStore, baseIsStore := asStore(merged[key])
		overrideStore, overrideIsStore := asStore(overrideValue)
		if baseIsStore && overrideIsStore {
			merged[key] = Merge(baseStore, overrideStore)
		} else {
			merged[key] = copyValue(overrideValue)
		}
	}
	return merged
}

// Clone returns a deep copy of the store. Nested map[string]any values are
// normalized to Options in the copy.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	cloned := make(Options, len(o))
	for key, value := range o {
		cloned[key] = copyValue(value)
	}
	return cloned
}

// Flatten returns one Leaf per terminal value, ordered by path. Nested
// stores contribute no entry themselves; an empty store flattens to nothing.
func (o Options) Flatten() []Leaf {
	var leaves []Leaf
	flattenInto(o, nil, &leaves)
	sort.Slice(leaves, func(i, j int) bool {
		return comparePaths(leaves[i].Path, leaves[j].Path) < 0
	})
	return leaves
}

// SetPath replaces the value at the end of path, mutating the store in
// place. Every intermediate key must already exist and hold a nested store;
// otherwise it fails with KeyNotFoundError and leaves the store unchanged.
// The final key is set whether or not it already exists (scoped update, no
// implicit path creation above the leaf).
func SetPath(o Options, path []string, value any) error {
	if len(path) == 0 {
		return errors.NewValueError("SetPath", "path must not be empty")
	}
	current := o
	for i, key := range path[:len(path)-1] {
		next, exists := current[key]
		if !exists {
			return errors.NewKeyNotFoundError("SetPath", key, path[:i+1])
		}
		store, isStore := asStore(next)
		if !isStore {
			return errors.NewKeyNotFoundError("SetPath", key, path[:i+1])
		}
		current = store
	}
	current[path[len(path)-1]] = value
	return nil
}

// At follows path through nested stores and returns the value found there.
func (o Options) At(path ...string) (any, bool) {
	current := o
	for i, key := range path {
		value, exists := current[key]
		if !exists {
			return nil, false
		}
		if i == len(path)-1 {
			return value, true
		}
		store, isStore := asStore(value)
		if !isStore {
			return nil, false
		}
		current = store
	}
	return nil, false
}

// Value returns the raw value stored under key.
func (o Options) Value(key string) (any, bool) {
	value, exists := o[key]
	return value, exists
}

// Store returns the nested store under key.
func (o Options) Store(key string) (Options, bool) {
	value, exists := o[key]
	if !exists {
		return nil, false
	}
	return asStore(value)
}

// Int returns the integer under key. Float values with no fractional part
// and numeric strings (as produced by environment overrides) convert.
func (o Options) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return 0, false
	}
}

// Float returns the float under key. Integer values and numeric strings
// convert.
func (o Options) Float(key string) (float64, bool) {
	switch v := o[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// Bool returns the boolean under key. Strings accepted by strconv.ParseBool
// convert.
func (o Options) Bool(key string) (bool, bool) {
	switch v := o[key].(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return false, false
	}
}

// String returns the string under key.
func (o Options) String(key string) (string, bool) {
	value, exists := o[key].(string)
	return value, exists
}

// asStore reports whether value is a nested store and returns it as
// Options. A map[string]any aliases the same underlying map, so writes
// through the returned store reach the original tree.
func asStore(value any) (Options, bool) {
	switch v := value.(type) {
	case Options:
		return v, true
	case map[string]any:
		return Options(v), true
	default:
		return nil, false
	}
}

func copyValue(value any) any {
	switch v := value.(type) {
	case Options:
		return v.Clone()
	case map[string]any:
		return Options(v).Clone()
	case []any:
		copied := make([]any, len(v))
		for i, elem := range v {
			copied[i] = copyValue(elem)
		}
		return copied
	case []string:
		copied := make([]string, len(v))
		copy(copied, v)
		return copied
	case []int:
		copied := make([]int, len(v))
		copy(copied, v)
		return copied
	case []float64:
		copied := make([]float64, len(v))
		copy(copied, v)
		return copied
	default:
		return v
	}
}

func flattenInto(o Options, prefix []string, out *[]Leaf) {
	for key, value := range o {
		path := make([]string, 0, len(prefix)+1)
		path = append(path, prefix...)
		path = append(path, key)
		if store, isStore := asStore(value); isStore {
			flattenInto(store, path, out)
		} else {
			*out = append(*out, Leaf{Path: path, Value: value})
		}
	}
}

func comparePaths(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
