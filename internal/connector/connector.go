// Package connector implements the client that orchestrates wallet
// discovery, connection lifecycle, account and cluster switching,
// persistence, and event emission. It is the only writer of the connector
// state; consumers read snapshots and subscribe for changes.
package connector

import (
	"context"
	"sync"
	"time"

	"github.com/solkit/connectord/internal/cluster"
	"github.com/solkit/connectord/internal/connerr"
	"github.com/solkit/connectord/internal/events"
	"github.com/solkit/connectord/internal/signer"
	"github.com/solkit/connectord/internal/state"
	"github.com/solkit/connectord/internal/storage"
	"github.com/solkit/connectord/internal/wallet"
)

// Config is the plain-data configuration surface consumed by the client.
// Only structural checks are applied here; deep validation is the loading
// layer's job.
type Config struct {
	// AppName identifies the consuming application to wallets.
	AppName string

	// Clusters is the selectable network list; defaults to the built-ins.
	Clusters []cluster.Cluster

	// ClusterID selects the initial cluster; defaults to the first entry.
	ClusterID string

	// AutoConnect re-establishes the persisted session at construction.
	AutoConnect bool

	// Store backs durable state; defaults to an in-memory store.
	Store storage.Store

	// Registry is the wallet discovery source; defaults to a fresh registry.
	Registry *wallet.Registry

	// Wallets are additional adapters registered at construction, e.g. a
	// remote-signer-backed pseudo-wallet.
	Wallets []wallet.Wallet
}

// Client is the connection/session core. Long-lived; safe for concurrent use.
type Client struct {
	store       storage.Store
	registry    *wallet.Registry
	states      *state.Manager
	emitter     *events.Emitter
	autoConnect bool

	mu          sync.Mutex
	connecting  bool
	session     *persistedSession
	sig         *signer.Signer
	autoTried   bool
	offRegistry func()
}

// New constructs a client, registers configured wallets, rehydrates the
// persisted session, and attempts auto-connect if so configured. Auto-connect
// failures are emitted as error events, never returned.
func New(cfg Config) *Client {
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = wallet.NewRegistry()
	}
	clusters := cfg.Clusters
	if len(clusters) == 0 {
		clusters = cluster.DefaultClusters()
	}
	current, ok := cluster.Find(clusters, cfg.ClusterID)
	if !ok {
		current = clusters[0]
	}

	c := &Client{
		store:       store,
		registry:    registry,
		emitter:     events.NewEmitter(),
		autoConnect: cfg.AutoConnect,
		session:     loadSession(store),
	}

	for _, w := range cfg.Wallets {
		registry.Register(w)
	}

	c.states = state.NewManager(state.ConnectorState{
		Wallets:  walletEntries(registry),
		Cluster:  current,
		Clusters: clusters,
	})

	c.offRegistry = registry.Subscribe(func() {
		entries := walletEntries(c.registry)
		c.states.Update(state.Patch{Wallets: &entries})
		c.maybeAutoConnect(context.Background())
	})

	c.maybeAutoConnect(context.Background())
	return c
}

// Close detaches the client from the registry. It does not disconnect the
// wallet; callers wanting a clean teardown call Disconnect first.
func (c *Client) Close() {
	if c.offRegistry != nil {
		c.offRegistry()
	}
}

// Snapshot returns the current connection state.
func (c *Client) Snapshot() state.ConnectorState {
	return c.states.Snapshot()
}

// Subscribe registers a state-change listener.
func (c *Client) Subscribe(fn state.Listener) func() {
	return c.states.Subscribe(fn)
}

// Events returns the lifecycle event bus.
func (c *Client) Events() *events.Emitter {
	return c.emitter
}

// EmitEvent forwards an event to the bus. It exists so derived components
// (signers) can report lifecycle without coupling to the emitter directly.
func (c *Client) EmitEvent(e events.Event) {
	c.emitter.Emit(e)
}

// RPCURL returns the RPC endpoint of the current cluster.
func (c *Client) RPCURL() string {
	return c.states.Snapshot().Cluster.URL
}

// Signer returns the signer bound to the current (wallet, account, cluster)
// triple, or nil when not connected.
func (c *Client) Signer() *signer.Signer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sig
}

// Select initiates a connection to the named wallet. A second Select while
// one is in flight rejects immediately rather than racing.
func (c *Client) Select(ctx context.Context, name string) error {
	w, ok := c.registry.Get(name)
	if !ok {
		return connerr.Newf(connerr.CodeWalletNotFound, "wallet %q is not registered", name)
	}

	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return connerr.Newf(connerr.CodeConnectionInFlight,
			"a connection attempt is already in flight")
	}
	c.connecting = true
	c.sig = nil
	lastAccount := ""
	if c.session != nil && c.session.ConnectorID == WalletID(name) {
		lastAccount = c.session.LastAccount
	}
	c.mu.Unlock()

	var none wallet.Wallet
	empty := ""
	var noAccounts []wallet.Account
	c.states.Update(state.Patch{
		Connecting:      ptr(true),
		Connected:       ptr(false),
		SelectedWallet:  &none,
		SelectedAccount: &empty,
		Accounts:        &noAccounts,
	})
	c.emitter.Emit(events.Event{Type: events.TypeConnecting, Wallet: name})

	accounts, err := w.Connect(ctx)
	if err == nil && len(accounts) == 0 {
		err = connerr.New(connerr.CodeConnectionFailed, "wallet returned no accounts")
	}
	if err != nil {
		cerr := err
		if connerr.CodeOf(err) == "" {
			cerr = connerr.Wrap(err, connerr.CodeConnectionFailed, "wallet connection failed")
		}
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		c.states.Update(state.Patch{Connecting: ptr(false)})
		c.emitter.Emit(events.Event{Type: events.TypeError, Wallet: name, Err: cerr})
		return cerr
	}

	// Prefer the previously persisted account when the wallet still exposes
	// it; otherwise fall back to the first account.
	selected := accounts[0].Address
	for _, acc := range accounts {
		if lastAccount != "" && acc.Address == lastAccount {
			selected = acc.Address
			break
		}
	}

	snapshot := c.states.Snapshot()
	session := &persistedSession{
		Version:       schemaVersion,
		ConnectorID:   WalletID(name),
		LastAccount:   selected,
		AutoConnect:   c.autoConnect,
		LastConnected: time.Now().Unix(),
	}

	c.mu.Lock()
	c.connecting = false
	c.session = session
	c.sig = signer.New(w, selected, snapshot.Cluster, c.emitter.Emit)
	c.mu.Unlock()

	var handle wallet.Wallet = w
	c.states.Update(state.Patch{
		SelectedWallet:  &handle,
		Accounts:        &accounts,
		SelectedAccount: &selected,
		Connecting:      ptr(false),
		Connected:       ptr(true),
	})

	if err := saveSession(c.store, session); err != nil {
		logPersistFailure(err)
	}

	c.emitter.Emit(events.Event{Type: events.TypeConnected, Wallet: name, Account: selected})
	c.emitter.Emit(events.Event{Type: events.TypeAccountChanged, Wallet: name, Account: selected})
	return nil
}

// Disconnect tears down the current session. A wallet without a disconnect
// capability is a no-op success; a failing disconnect call still clears local
// state and is returned after the teardown completes.
func (c *Client) Disconnect(ctx context.Context) error {
	snapshot := c.states.Snapshot()
	current := snapshot.SelectedWallet

	var disconnectErr error
	if current != nil && wallet.HasFeature(current, wallet.FeatureDisconnect) {
		if d, ok := current.(wallet.Disconnector); ok {
			if err := d.Disconnect(ctx); err != nil {
				disconnectErr = connerr.Wrap(err, connerr.CodeConnectionFailed,
					"wallet disconnect failed")
			}
		}
	}

	c.mu.Lock()
	c.sig = nil
	c.session = nil
	c.mu.Unlock()

	var none wallet.Wallet
	empty := ""
	var noAccounts []wallet.Account
	c.states.Update(state.Patch{
		SelectedWallet:  &none,
		Accounts:        &noAccounts,
		SelectedAccount: &empty,
		Connecting:      ptr(false),
		Connected:       ptr(false),
	})

	clearSession(c.store)

	name := ""
	if current != nil {
		name = current.Name()
	}
	c.emitter.Emit(events.Event{Type: events.TypeDisconnected, Wallet: name})

	if disconnectErr != nil {
		c.emitter.Emit(events.Event{Type: events.TypeError, Wallet: name, Err: disconnectErr})
	}
	return disconnectErr
}

// SelectAccount switches the selected account to address, which must be a
// member of the currently exposed account list.
func (c *Client) SelectAccount(ctx context.Context, address string) error {
	snapshot := c.states.Snapshot()

	found := false
	for _, acc := range snapshot.Accounts {
		if acc.Address == address {
			found = true
			break
		}
	}
	if !found {
		return connerr.Newf(connerr.CodeAccountNotFound,
			"account %q is not exposed by the connected wallet", address)
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.LastAccount = address
		if err := saveSession(c.store, c.session); err != nil {
			logPersistFailure(err)
		}
	}
	if snapshot.SelectedWallet != nil {
		c.sig = signer.New(snapshot.SelectedWallet, address, snapshot.Cluster, c.emitter.Emit)
	}
	c.mu.Unlock()

	c.states.Update(state.Patch{SelectedAccount: &address})

	name := ""
	if snapshot.SelectedWallet != nil {
		name = snapshot.SelectedWallet.Name()
	}
	c.emitter.Emit(events.Event{Type: events.TypeAccountChanged, Wallet: name, Account: address})
	return nil
}

// SetCluster switches the current cluster to the configured cluster with the
// given ID. Cluster choice is not persisted.
func (c *Client) SetCluster(ctx context.Context, id string) error {
	snapshot := c.states.Snapshot()

	next, ok := cluster.Find(snapshot.Clusters, id)
	if !ok {
		return connerr.Newf(connerr.CodeClusterNotFound, "cluster %q is not configured", id)
	}
	if next.ID == snapshot.Cluster.ID {
		return nil
	}

	// The signer is bound to the old cluster; invalidate and rebuild.
	c.mu.Lock()
	if snapshot.SelectedWallet != nil && snapshot.SelectedAccount != "" {
		c.sig = signer.New(snapshot.SelectedWallet, snapshot.SelectedAccount, next, c.emitter.Emit)
	} else {
		c.sig = nil
	}
	c.mu.Unlock()

	c.states.Update(state.Patch{Cluster: &next})
	c.emitter.Emit(events.Event{Type: events.TypeClusterChanged, Cluster: next.ID})
	return nil
}

// maybeAutoConnect performs the one-shot rehydration attempt once the
// persisted wallet shows up in the registry. Failures surface as error
// events only; there is no synchronous caller to reject.
func (c *Client) maybeAutoConnect(ctx context.Context) {
	c.mu.Lock()
	if !c.autoConnect || c.autoTried || c.session == nil || !c.session.AutoConnect {
		c.mu.Unlock()
		return
	}
	connectorID := c.session.ConnectorID
	c.mu.Unlock()

	var target wallet.Wallet
	for _, w := range c.registry.List() {
		if walletNameMatchesID(w.Name(), connectorID) {
			target = w
			break
		}
	}
	if target == nil {
		return
	}

	c.mu.Lock()
	if c.autoTried {
		c.mu.Unlock()
		return
	}
	c.autoTried = true
	c.mu.Unlock()

	// Select emits the error event on failure; nothing else to report.
	_ = c.Select(ctx, target.Name())
}

func walletEntries(registry *wallet.Registry) []state.WalletEntry {
	wallets := registry.List()
	entries := make([]state.WalletEntry, 0, len(wallets))
	for _, w := range wallets {
		entries = append(entries, state.WalletEntry{
			Wallet:    w,
			Name:      w.Name(),
			Icon:      w.Icon(),
			Installed: true,
		})
	}
	return entries
}

func ptr[T any](v T) *T {
	return &v
}
