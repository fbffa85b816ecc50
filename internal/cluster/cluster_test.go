package cluster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClusters(t *testing.T) {
	clusters := DefaultClusters()
	require.Len(t, clusters, 4)

	assert.Equal(t, "solana:mainnet", clusters[0].ID, "mainnet is presented first")
	for _, c := range clusters {
		assert.True(t, strings.HasPrefix(c.ID, "solana:"), c.ID)
		assert.NotEmpty(t, c.Label)
		assert.NotEmpty(t, c.URL)
	}
}

func TestFind(t *testing.T) {
	clusters := DefaultClusters()

	c, ok := Find(clusters, "solana:devnet")
	require.True(t, ok)
	assert.Equal(t, "https://api.devnet.solana.com", c.URL)

	_, ok = Find(clusters, "solana:unknown")
	assert.False(t, ok)

	_, ok = Find(nil, "solana:mainnet")
	assert.False(t, ok)
}
