package channel

import "sync"

// Adapter is implemented once per messaging platform. It translates an
// Outbound into the platform's native send call.
type Adapter interface {
	Send(msg Outbound) error
	Type() Type
}

// AdapterRegistry maps channel types to their adapters. Built once at
// startup; the reminder engine and the dispatcher use it to route replies
// and notifications.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[Type]Adapter)}
}

// Register adds an adapter. A later registration for the same type replaces
// the earlier one.
func (r *AdapterRegistry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Type()] = a
}

// Get returns the adapter for a channel type.
func (r *AdapterRegistry) Get(t Type) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[t]
	return a, ok
}
