package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider is a server-side signer: something that holds or brokers access
// to a private key. Implementations must be safe for concurrent use after
// construction.
type Provider interface {
	// Address returns the base58 address the provider signs for.
	Address() string

	// SignTransaction signs one serialized transaction and returns the
	// signed bytes.
	SignTransaction(ctx context.Context, tx []byte) ([]byte, error)

	// SignAllTransactions signs txs sequentially, preserving input order.
	SignAllTransactions(ctx context.Context, txs [][]byte) ([][]byte, error)

	// SignMessage produces a detached signature over message.
	SignMessage(ctx context.Context, message []byte) ([]byte, error)

	// Available reports whether the provider can currently sign.
	Available(ctx context.Context) bool
}

// ProviderConfig selects and parameterizes a provider implementation.
type ProviderConfig struct {
	// Kind picks the implementation: "keypair", "custodial", or any kind
	// registered through RegisterProviderKind.
	Kind string `mapstructure:"kind"`

	// Settings holds kind-specific parameters (secret keys, API endpoints).
	Settings map[string]string `mapstructure:"settings"`
}

// cacheKey derives a stable identity for the config so equivalent configs
// share one initialized provider.
func (c ProviderConfig) cacheKey() string {
	keys := make([]string, 0, len(c.Settings))
	for k := range c.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Kind)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Settings[k])
	}
	return b.String()
}

// ProviderFactory builds a provider from its config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]ProviderFactory{
		"keypair":   newKeypairProvider,
		"custodial": newCustodialProvider,
	}
)

// RegisterProviderKind makes a custom provider kind loadable. Registering an
// existing kind replaces it.
func RegisterProviderKind(kind string, factory ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[kind] = factory
}

type cacheEntry struct {
	once     sync.Once
	provider Provider
	err      error
}

// providerCache is the process-wide lazy singleton registry. The first
// caller for a given config performs initialization; concurrent callers
// await that same initialization instead of starting another. Failed
// initializations are not cached, so a later call can retry.
type providerCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

var providers = &providerCache{entries: make(map[string]*cacheEntry)}

// LoadProvider returns the cached provider for cfg, initializing it on first
// use.
func LoadProvider(cfg ProviderConfig) (Provider, error) {
	return providers.load(cfg)
}

func (c *providerCache) load(cfg ProviderConfig) (Provider, error) {
	key := cfg.cacheKey()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.provider, entry.err = buildProvider(cfg)
	})

	if entry.err != nil {
		c.mu.Lock()
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, entry.err
	}
	return entry.provider, nil
}

func buildProvider(cfg ProviderConfig) (Provider, error) {
	factoryMu.RLock()
	factory, ok := factories[cfg.Kind]
	factoryMu.RUnlock()

	if !ok {
		known := knownKinds()
		return nil, fmt.Errorf(
			"unknown remote signer provider kind %q: available kinds are %s; custom kinds must be registered via remote.RegisterProviderKind before use",
			cfg.Kind, strings.Join(known, ", "))
	}
	return factory(cfg)
}

func knownKinds() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// requiredSetting fetches a setting or fails with an actionable message.
func requiredSetting(cfg ProviderConfig, name string) (string, error) {
	v, ok := cfg.Settings[name]
	if !ok || v == "" {
		return "", fmt.Errorf(
			"provider kind %q requires the %q setting; set providers.settings.%s in the daemon config",
			cfg.Kind, name, name)
	}
	return v, nil
}
