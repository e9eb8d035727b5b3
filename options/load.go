// Loading and serialization of option stores through the koanf stack.

package options

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/combineml/combineml/pkg/errors"
)

// LoadFile reads a YAML file into an option store.
func LoadFile(path string) (Options, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "load options from %s", path)
	}
	return normalize(k.Raw()), nil
}

// ParseYAML parses YAML bytes into an option store.
func ParseYAML(data []byte) (Options, error) {
	raw, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse yaml options")
	}
	return normalize(raw), nil
}

// LoadEnv reads environment variables starting with prefix into an option
// store. Variable names are lower-cased after the prefix is stripped, and
// "__" separates nesting levels, so with prefix "COMBINEML__" the variable
// COMBINEML__STACK__FOLDS=10 yields {"stack": {"folds": "10"}}. Leaves are
// strings; the typed accessors convert them.
func LoadEnv(prefix string) (Options, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "load options from environment prefix %s", prefix)
	}
	return normalize(k.Raw()), nil
}

// WriteYAML serializes the store as YAML. Keys emit in sorted order, so the
// output is deterministic and round-trips through ParseYAML.
func (o Options) WriteYAML() ([]byte, error) {
	data, err := yaml.Parser().Marshal(map[string]interface{}(o.Clone()))
	if err != nil {
		return nil, errors.Wrap(err, "marshal options to yaml")
	}
	return data, nil
}

// normalize deep-copies a raw koanf map into an Options tree.
func normalize(raw map[string]interface{}) Options {
	return Options(raw).Clone()
}
