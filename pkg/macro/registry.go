// Package macro holds the macro registry consulted while rendering system
// utterances, and the video game macros built on the Data Lookup.
//
// A macro receives the session's variable store, its already-recommended set
// and the literal arguments written in the template. It returns the text to
// substitute and may write the variables it declared at registration.
package macro

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arcade/pkg/domain"
)

// Env is what a macro sees of the session it renders for.
type Env struct {
	SessionID string
	State     domain.StateID
	Vars      domain.Vars
	// Recommended is scoped to the session. Macros add to it.
	Recommended domain.Set
	Args        []string
}

// Arg returns the i-th argument, or "" when absent.
func (e *Env) Arg(i int) string {
	if i < len(e.Args) {
		return e.Args[i]
	}
	return ""
}

// Func is a macro implementation.
type Func func(ctx context.Context, env *Env) (string, error)

// Definition is a registered macro.
type Definition struct {
	Name string
	Fn   Func
	// Writes lists the variables the macro may set.
	Writes []string
}

// Registry maps macro names to implementations. Names are case-insensitive
// and stored upper-case. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	macros map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]Definition)}
}

// Register adds fn under name, replacing any previous definition.
func (r *Registry) Register(name string, fn Func, writes ...string) {
	name = strings.ToUpper(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.macros[name] = Definition{Name: name, Fn: fn, Writes: append([]string(nil), writes...)}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.macros[strings.ToUpper(name)]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.macros))
	for n := range r.macros {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Writes returns every variable some registered macro may set.
func (r *Registry) Writes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(domain.Set)
	for _, d := range r.macros {
		for _, w := range d.Writes {
			set.Add(w)
		}
	}
	return set.Items()
}

// Call invokes the named macro. A panicking macro is reported as an error.
func (r *Registry) Call(ctx context.Context, name string, env *Env) (out string, err error) {
	d, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("macro %s is not registered", name)
	}
	defer func() {
		if p := recover(); p != nil {
			out, err = "", fmt.Errorf("panic: %v", p)
		}
	}()
	return d.Fn(ctx, env)
}
