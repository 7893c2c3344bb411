package balancecache

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores raw token balances keyed by (chain, wallet, contract) with a
// TTL, so repeated reconciliation of the same contract within and across
// preview requests skips the RPC round trip. Safe for concurrent use.
type Cache struct {
	store *gocache.Cache
}

// New builds a Cache with the given entry TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, 2*ttl)}
}

func key(chainKey, wallet, contract string) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(chainKey), strings.ToLower(wallet), strings.ToLower(contract))
}

// Get returns a cached balance copy, or false when absent or expired.
func (c *Cache) Get(chainKey, wallet, contract string) (*big.Int, bool) {
	v, ok := c.store.Get(key(chainKey, wallet, contract))
	if !ok {
		return nil, false
	}
	cached, ok := v.(*big.Int)
	if !ok || cached == nil {
		return nil, false
	}
	return new(big.Int).Set(cached), true
}

// Set stores a balance copy under the cache key.
func (c *Cache) Set(chainKey, wallet, contract string, balance *big.Int) {
	if balance == nil {
		return
	}
	c.store.Set(key(chainKey, wallet, contract), new(big.Int).Set(balance), gocache.DefaultExpiration)
}
