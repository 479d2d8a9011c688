// Package tag implements the Tag Registry: tracking in-flight request
// tags so that a later Tflush can cancel a still-outstanding request.
//
// Grounded on go9p's Conn.reqfirst/reqlast linked list of in-flight *Req
// in p/srv/conn.go; simplified to a set since flush-by-tag lookup is the
// only operation the dispatcher needs (a tag's reply is built and its
// entry removed within the same handler call, so nothing can anchor
// state meant to outlive one request on the tag itself).
package tag

import "sync"

// Registry tracks tags for one connection's worth of in-flight requests.
type Registry struct {
	mu sync.Mutex
	m  map[uint16]struct{}
}

// NewRegistry returns an empty tag registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[uint16]struct{})}
}

// Add records tag t as in-flight. If t is already registered (a client
// reusing a live tag, a protocol error), this is a no-op.
func (r *Registry) Add(t uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[t] = struct{}{}
}

// Flush removes tag t. Returns true if t was present (i.e. this flush
// actually cancels something).
func (r *Registry) Flush(t uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[t]
	delete(r.m, t)
	return ok
}

// ShouldAbort reports whether tag t is absent from the registry, meaning
// a Tflush has superseded it and the handler must not write a reply.
func (r *Registry) ShouldAbort(t uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[t]
	return !ok
}
