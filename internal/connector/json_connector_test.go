package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_preview/internal/config"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/pkg/logger"
)

func newTestJSONConnector() *JSONConnector {
	enrich, filter, assemble := testServices(config.FilterConfig{})
	return NewJSONConnector(enrich, filter, assemble, false, logger.NewSlogAdapter())
}

func TestJSONPreviewBareArray(t *testing.T) {
	conn := newTestJSONConnector()

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		JSONText: `[
			{"symbol":"BTC","name":"Bitcoin","quantity":1,"price_usd":50000},
			{"symbol":"ETH","name":"Ethereum","quantity":10,"price_usd":2000}
		]`,
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 2)
	assert.Equal(t, "BTC", result.ProposedAssets[0].ID)
	assert.InDelta(t, 0.7143, result.ProposedAssets[0].CurrentWeight, 1e-4)
}

func TestJSONPreviewWrappedObject(t *testing.T) {
	conn := newTestJSONConnector()

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		JSONText: `{"holdings":[{"ticker":"SOL","amount":"5","usd_price":"150"}]}`,
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 1)
	assert.Equal(t, "SOL", result.ProposedAssets[0].ID)
	require.NotNil(t, result.ProposedAssets[0].SourceValueUSD)
	assert.InDelta(t, 750.0, *result.ProposedAssets[0].SourceValueUSD, 1e-9)
}

func TestJSONPreviewCaseInsensitiveKeys(t *testing.T) {
	conn := newTestJSONConnector()

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		JSONText: `{"Positions":[{"Symbol":"BTC","Quantity":1,"Value":50000}]}`,
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 1)
	assert.Equal(t, "BTC", result.ProposedAssets[0].ID)
}

func TestJSONPreviewMalformed(t *testing.T) {
	conn := newTestJSONConnector()

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		JSONText: `{"holdings": [`,
	})

	require.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entity.ErrMalformedJSON, result.Errors[0].Code)
}

func TestJSONPreviewNoRecognizedContainer(t *testing.T) {
	conn := newTestJSONConnector()

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		JSONText: `{"something_else":[{"symbol":"BTC"}]}`,
	})

	require.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entity.ErrMalformedJSON, result.Errors[0].Code)
}

func TestJSONPreviewEmpty(t *testing.T) {
	conn := newTestJSONConnector()

	for _, text := range []string{"", "[]", `{"positions":[]}`} {
		result := conn.Preview(context.Background(), entity.PreviewRequest{JSONText: text})
		require.False(t, result.OK, "input %q", text)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, entity.ErrEmptyInput, result.Errors[0].Code)
	}
}

func TestCoerceString(t *testing.T) {
	assert.Equal(t, "1.5", coerceString(1.5))
	assert.Equal(t, "50000", coerceString(50000.0))
	assert.Equal(t, "BTC", coerceString(" BTC "))
	assert.Equal(t, "true", coerceString(true))
	assert.Equal(t, "", coerceString(nil))
	assert.Equal(t, "", coerceString([]any{"x"}))
}
