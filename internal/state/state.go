// Package state holds the canonical connection snapshot and applies atomic,
// change-detected updates to it. It is pure bookkeeping: it cannot fail, and
// it knows nothing about wallets beyond their handles.
package state

import (
	"reflect"
	"sync"

	"github.com/solkit/connectord/internal/cluster"
	"github.com/solkit/connectord/internal/wallet"
)

// WalletEntry is a discovered provider as presented to consumers.
type WalletEntry struct {
	Wallet    wallet.Wallet
	Name      string
	Icon      string
	Installed bool
}

// ConnectorState is the canonical connection snapshot. Invariants (enforced
// by the connector client, which is the sole writer):
//   - Connected == true exactly when SelectedAccount is non-empty
//   - SelectedAccount, when set, is a member of Accounts
//   - Connecting and Connected are never both true
type ConnectorState struct {
	Wallets         []WalletEntry
	SelectedWallet  wallet.Wallet
	Accounts        []wallet.Account
	SelectedAccount string
	Connecting      bool
	Connected       bool
	Cluster         cluster.Cluster
	Clusters        []cluster.Cluster
}

// Patch is a shallow partial update; nil fields are left untouched. A
// non-nil SelectedWallet pointing at a nil handle clears the selection.
type Patch struct {
	Wallets         *[]WalletEntry
	SelectedWallet  *wallet.Wallet
	Accounts        *[]wallet.Account
	SelectedAccount *string
	Connecting      *bool
	Connected       *bool
	Cluster         *cluster.Cluster
	Clusters        *[]cluster.Cluster
}

// Listener receives the post-update snapshot.
type Listener func(ConnectorState)

// Manager owns a ConnectorState and serializes updates to it.
type Manager struct {
	mu     sync.RWMutex
	state  ConnectorState
	nextID uint64
	subs   map[uint64]Listener
}

// NewManager creates a manager with the given initial state.
func NewManager(initial ConnectorState) *Manager {
	return &Manager{
		state: initial,
		subs:  make(map[uint64]Listener),
	}
}

// Snapshot returns the current state. Slice fields are copied so callers can
// range over them without holding any lock.
func (m *Manager) Snapshot() ConnectorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

// Update applies patch as a shallow merge. Subscribers are notified only if
// the merged state is structurally different from the previous one, so
// redundant updates never fan out.
func (m *Manager) Update(patch Patch) {
	m.mu.Lock()
	next := m.state
	if patch.Wallets != nil {
		next.Wallets = *patch.Wallets
	}
	if patch.SelectedWallet != nil {
		next.SelectedWallet = *patch.SelectedWallet
	}
	if patch.Accounts != nil {
		next.Accounts = *patch.Accounts
	}
	if patch.SelectedAccount != nil {
		next.SelectedAccount = *patch.SelectedAccount
	}
	if patch.Connecting != nil {
		next.Connecting = *patch.Connecting
	}
	if patch.Connected != nil {
		next.Connected = *patch.Connected
	}
	if patch.Cluster != nil {
		next.Cluster = *patch.Cluster
	}
	if patch.Clusters != nil {
		next.Clusters = *patch.Clusters
	}

	if reflect.DeepEqual(m.state, next) {
		m.mu.Unlock()
		return
	}

	m.state = next
	snapshot := copyState(next)
	subs := make([]Listener, 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Subscribe registers a listener for state changes. The returned function
// removes the subscription.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func copyState(s ConnectorState) ConnectorState {
	out := s
	out.Wallets = append([]WalletEntry(nil), s.Wallets...)
	out.Accounts = append([]wallet.Account(nil), s.Accounts...)
	out.Clusters = append([]cluster.Cluster(nil), s.Clusters...)
	return out
}
