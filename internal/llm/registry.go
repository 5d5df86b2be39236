package llm

import (
	"fmt"
	"sort"
	"sync"
)

var (
	backendsMu sync.RWMutex
	backends   = map[string]func() Backend{}
)

// Register makes a backend factory available under name. It is intended to
// be called from package init functions and panics on duplicates, in the
// database/sql driver style.
func Register(name string, factory func() Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if factory == nil {
		panic("llm: Register factory is nil")
	}
	if _, dup := backends[name]; dup {
		panic("llm: Register called twice for backend " + name)
	}
	backends[name] = factory
}

// Open instantiates the backend registered under name.
func Open(name string) (Backend, error) {
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("llm: unknown backend %q (available: %v)", name, Backends())
	}
	return factory(), nil
}

// Backends lists the registered backend names, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
