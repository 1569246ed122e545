// Package middleware decorates a SessionStore with cross-cutting behavior
// such as encryption at rest and instrumentation.
package middleware

import "github.com/aretw0/arcade/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain wraps store with mws. The first middleware is the outermost one,
// so it sees every call before the others do.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			store = mws[i](store)
		}
	}
	return store
}
