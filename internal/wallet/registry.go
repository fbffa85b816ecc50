package wallet

import (
	"sync"
)

// Registry tracks the wallet providers that have announced themselves.
// Providers register at any time; subscribers are notified so late-joining
// wallets become selectable without restarting the consumer. The registry is
// purely descriptive and holds no connection state.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	wallets map[string]Wallet
	nextID  uint64
	subs    map[uint64]func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		wallets: make(map[string]Wallet),
		subs:    make(map[uint64]func()),
	}
}

// Register adds or replaces a provider under its name and notifies
// subscribers. Insertion order is preserved for listing; re-registering an
// existing name keeps its original position.
func (r *Registry) Register(w Wallet) {
	r.mu.Lock()
	if _, exists := r.wallets[w.Name()]; !exists {
		r.order = append(r.order, w.Name())
	}
	r.wallets[w.Name()] = w

	subs := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Wallet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.wallets[name]
	return w, ok
}

// List returns all registered providers in registration order.
func (r *Registry) List() []Wallet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Wallet, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.wallets[name])
	}
	return out
}

// Subscribe registers a callback invoked after every registration. The
// returned function removes the subscription.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}
