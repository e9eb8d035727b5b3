package learners

import (
	"fmt"
	"sort"
	"sync"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// Builder constructs a learner from an option store. The store carries only
// overrides; the builder supplies the variant's defaults.
type Builder func(opts options.Options) (model.Learner, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Builder)
)

// Register makes a learner builder available under the given name. It is
// intended to be called from init functions. Register panics if the name is
// empty, the builder is nil, or the name is already taken.
func Register(name string, builder Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" {
		panic("learners: Register with empty name")
	}
	if builder == nil {
		panic("learners: Register with nil builder for " + name)
	}
	if _, dup := registry[name]; dup {
		panic("learners: Register called twice for " + name)
	}
	registry[name] = builder
}

// New builds a learner by registered name. Unknown names fail with
// ValueError; the error message lists the registered names so configuration
// typos are easy to spot.
func New(name string, opts options.Options) (model.Learner, error) {
	registryMu.RLock()
	builder, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, cmlErrors.NewValueError(
			"learners.New",
			fmt.Sprintf("unknown learner %q (registered: %v)", name, Names()),
		)
	}
	return builder(opts)
}

// Names returns the registered learner names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
