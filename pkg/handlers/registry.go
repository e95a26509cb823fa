// Package handlers provides the named handlers that route trees built from
// configuration can bind to, and the registry that resolves those names.
package handlers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/dittoweb/pkg/route"
)

// Registry maps handler names to route.Handler values.
//
// Registration happens at startup; lookups happen while building the route
// tree. Both are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]route.Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]route.Handler)}
}

// Register adds h under name. Names must be unique and non-empty.
func (r *Registry) Register(name string, h route.Handler) error {
	if name == "" {
		return fmt.Errorf("handler name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, h route.Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (route.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target returns a named handler target bound to method, ready for a route
// endpoint.
func (r *Registry) Target(name string, method route.Method) (route.Target, error) {
	h, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown handler %q (registered: %v)", name, r.Names())
	}
	return route.Named(name, method, h), nil
}

// Handler names registered by Default.
const (
	NameParams      = "params"
	NameHeaders     = "headers"
	NameUsersList   = "users.list"
	NameUsersInsert = "users.insert"
	NameFetch       = "fetch"
)

// Deps carries what the built-in handlers need. Nil members disable the
// handlers that depend on them.
type Deps struct {
	Users *UsersHandlers
	Fetch *FetchHandler
}

// Default returns a registry with the built-in handlers.
func Default(deps Deps) *Registry {
	r := NewRegistry()
	r.MustRegister(NameParams, route.HandlerFunc(Params))
	r.MustRegister(NameHeaders, route.HandlerFunc(Headers))

	if deps.Users != nil {
		r.MustRegister(NameUsersList, route.HandlerFunc(deps.Users.List))
		r.MustRegister(NameUsersInsert, route.HandlerFunc(deps.Users.Insert))
	}
	if deps.Fetch != nil {
		r.MustRegister(NameFetch, deps.Fetch)
	}
	return r
}
