package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stitchfork/seqbond/cache"
	"github.com/stitchfork/seqbond/symbol"
)

// ScopeContext carries the processing context of the miss that triggered a
// resolution: which scope, where in it, and any auxiliary tags the caller
// wants handlers to see.
type ScopeContext struct {
	ScopeID  uuid.UUID
	Position int
	Tags     map[string]string
}

// Resolution is a successful handler result: the primary cache value plus
// any auxiliary entries (typically the reverse lookup) that must become
// visible together with it.
type Resolution struct {
	Value cache.Value
	Aux   []cache.Write
}

// Handler resolves cache misses for one namespace against the
// authoritative store. Implementations must be safe for concurrent use
// and must return ErrNoMatch (possibly wrapped) when the store has no
// answer, reserving other errors for backend failures.
type Handler interface {
	Resolve(ctx context.Context, key string, sc ScopeContext) (Resolution, error)
}

// Registry maps each namespace to its handler. The mapping is closed and
// verified complete at construction: adding a namespace means registering
// a handler here, never touching dispatch logic.
//
// A Registry is an explicit value passed into the Resolver. There is no
// process-wide registration.
type Registry struct {
	handlers map[symbol.Namespace]Handler
}

// NewRegistry builds a registry and verifies that every namespace has a
// handler and no unknown namespace sneaks in.
func NewRegistry(handlers map[symbol.Namespace]Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[symbol.Namespace]Handler, len(handlers))}
	for ns, h := range handlers {
		if !ns.Valid() {
			return nil, fmt.Errorf("handler registered for invalid namespace %s", ns)
		}
		if h == nil {
			return nil, fmt.Errorf("nil handler for namespace %s", ns)
		}
		r.handlers[ns] = h
	}
	for _, ns := range symbol.Namespaces() {
		if r.handlers[ns] == nil {
			return nil, fmt.Errorf("no handler for namespace %s", ns)
		}
	}
	return r, nil
}

// Handler returns the handler for ns.
func (r *Registry) Handler(ns symbol.Namespace) (Handler, bool) {
	h, ok := r.handlers[ns]
	return h, ok
}
