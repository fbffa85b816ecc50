// Package cluster describes the Solana networks a connector can target.
package cluster

// Cluster holds configuration for a Solana network endpoint.
type Cluster struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
	Name  string `json:"name" mapstructure:"name"`
	URL   string `json:"url" mapstructure:"url"`
}

// DefaultClusters returns the built-in cluster configurations, in the order
// they are presented to users.
func DefaultClusters() []Cluster {
	return []Cluster{
		{
			ID:    "solana:mainnet",
			Label: "Mainnet Beta",
			Name:  "mainnet-beta",
			URL:   "https://api.mainnet-beta.solana.com",
		},
		{
			ID:    "solana:devnet",
			Label: "Devnet",
			Name:  "devnet",
			URL:   "https://api.devnet.solana.com",
		},
		{
			ID:    "solana:testnet",
			Label: "Testnet",
			Name:  "testnet",
			URL:   "https://api.testnet.solana.com",
		},
		{
			ID:    "solana:localnet",
			Label: "Localnet",
			Name:  "localnet",
			URL:   "http://127.0.0.1:8899",
		},
	}
}

// Find returns the cluster with the given ID from clusters, if present.
func Find(clusters []Cluster, id string) (Cluster, bool) {
	for _, c := range clusters {
		if c.ID == id {
			return c, true
		}
	}
	return Cluster{}, false
}
