package bot

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrDuplicateModule is returned when two modules share a name.
var ErrDuplicateModule = errors.New("module already registered")

// Registry holds modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
		names:   make(map[string]struct{}),
	}
}

// Register adds m. Names must be unique.
func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[m.Name()]; ok {
		return errors.Wrapf(ErrDuplicateModule, "register %s", m.Name())
	}
	r.names[m.Name()] = struct{}{}
	r.modules = append(r.modules, m)
	return nil
}

// Modules returns a copy of the registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

var globalRegistry = NewRegistry()

// Register adds a module to the global registry. Modules call it from init;
// a duplicate name is a programming error and panics.
func Register(m Module) {
	if err := globalRegistry.Register(m); err != nil {
		panic(err)
	}
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry replaces the global registry with an empty one. Tests only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
