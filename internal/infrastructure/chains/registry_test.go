package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResolvesAliases(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		input string
		want  string
	}{
		{"eth", "eth"},
		{"Ethereum", "eth"},
		{"MAINNET", "eth"},
		{"matic", "polygon"},
		{"bnb", "bsc"},
		{" arb ", "arbitrum"},
		{"avax", "avalanche"},
	}
	for _, tt := range tests {
		def, ok := r.Get(tt.input)
		require.True(t, ok, "expected %q to resolve", tt.input)
		assert.Equal(t, tt.want, def.Key)
	}

	_, ok := r.Get("dogechain")
	assert.False(t, ok)
}

func TestResolveScopeAuto(t *testing.T) {
	r := NewRegistry()

	for _, scope := range []string{"", "auto", "AUTO"} {
		resolved, unknown := r.ResolveScope(scope)
		require.NotEmpty(t, resolved)
		assert.Empty(t, unknown)
		for _, def := range resolved {
			assert.True(t, def.FreeTier, "auto scope must only include free-tier chains, got %s", def.Key)
		}
	}
}

func TestResolveScopeList(t *testing.T) {
	r := NewRegistry()

	resolved, unknown := r.ResolveScope("polygon, eth, nope, matic, bsc")
	require.Len(t, resolved, 3)
	assert.Equal(t, "polygon", resolved[0].Key, "first resolved chain is the primary")
	assert.Equal(t, "eth", resolved[1].Key)
	assert.Equal(t, "bsc", resolved[2].Key)
	assert.Equal(t, []string{"nope"}, unknown)
}

func TestResolveScopeAllUnknown(t *testing.T) {
	r := NewRegistry()

	resolved, unknown := r.ResolveScope("foo,bar")
	assert.Empty(t, resolved)
	assert.Equal(t, []string{"foo", "bar"}, unknown)
}

func TestFreeTierExcludesPaidChains(t *testing.T) {
	r := NewRegistry()

	for _, def := range r.FreeTier() {
		assert.NotEqual(t, "fantom", def.Key)
	}
	all := r.All()
	assert.Greater(t, len(all), len(r.FreeTier()))
}
