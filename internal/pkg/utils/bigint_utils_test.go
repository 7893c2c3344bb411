package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{
			name:     "eighteen decimals",
			amount:   mustBig("1234500000000000000"),
			decimals: 18,
			want:     "1.2345",
		},
		{
			name:     "six decimals",
			amount:   big.NewInt(2500000),
			decimals: 6,
			want:     "2.5",
		},
		{
			name:     "zero decimals",
			amount:   big.NewInt(42),
			decimals: 0,
			want:     "42",
		},
		{
			name:     "sub-unit amount",
			amount:   big.NewInt(1),
			decimals: 6,
			want:     "0.000001",
		},
		{
			name:     "nil amount",
			amount:   nil,
			decimals: 18,
			want:     "0",
		},
		{
			name:     "zero amount",
			amount:   big.NewInt(0),
			decimals: 18,
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBigInt(tt.amount, tt.decimals))
		})
	}
}

func TestBigIntToFloat(t *testing.T) {
	assert.InDelta(t, 1.2345, BigIntToFloat(mustBig("1234500000000000000"), 18), 1e-9)
	assert.InDelta(t, 2.5, BigIntToFloat(big.NewInt(2500000), 6), 1e-9)
	assert.Equal(t, 42.0, BigIntToFloat(big.NewInt(42), 0))
	assert.Equal(t, 0.0, BigIntToFloat(nil, 18))
}

func TestBatchStrings(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	batches := BatchStrings(items, 2)
	assert.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"e"}, batches[2])

	assert.Len(t, BatchStrings(items, 0), 1)
	assert.Empty(t, BatchStrings(nil, 3))
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal: " + s)
	}
	return v
}
