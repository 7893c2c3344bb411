package balancecache

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("eth", "0xabc", "0xdef")
	assert.False(t, ok)

	c.Set("eth", "0xABC", "0xDEF", big.NewInt(1000))

	got, ok := c.Get("ETH", "0xabc", "0xdef")
	require.True(t, ok, "key lookup must be case-insensitive")
	assert.Equal(t, "1000", got.String())
}

func TestCacheReturnsCopies(t *testing.T) {
	c := New(time.Minute)
	original := big.NewInt(500)
	c.Set("eth", "0xabc", "0xdef", original)

	original.SetInt64(999)
	got, ok := c.Get("eth", "0xabc", "0xdef")
	require.True(t, ok)
	assert.Equal(t, "500", got.String(), "stored value must not alias the caller's big.Int")

	got.SetInt64(1)
	again, ok := c.Get("eth", "0xabc", "0xdef")
	require.True(t, ok)
	assert.Equal(t, "500", again.String(), "returned value must not alias the cached big.Int")
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("eth", "0xabc", "0xdef", big.NewInt(7))

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("eth", "0xabc", "0xdef")
	assert.False(t, ok)
}

func TestCacheNilBalanceIgnored(t *testing.T) {
	c := New(time.Minute)
	c.Set("eth", "0xabc", "0xdef", nil)
	_, ok := c.Get("eth", "0xabc", "0xdef")
	assert.False(t, ok)
}
