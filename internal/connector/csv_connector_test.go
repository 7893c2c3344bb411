package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/chains"
	"portfolio_preview/internal/pkg/logger"
)

func testServices(filterCfg config.FilterConfig) (*service.EnrichService, *service.FilterService, *service.AssembleService) {
	log := logger.NewSlogAdapter()
	enrich := service.NewEnrichService(nil, chains.NewRegistry(), log)
	filter := service.NewFilterService(&filterCfg, log)
	assemble := service.NewAssembleService(log)
	return enrich, filter, assemble
}

func newTestCSVConnector(debug bool) *CSVConnector {
	enrich, filter, assemble := testServices(config.FilterConfig{})
	return NewCSVConnector(enrich, filter, assemble, debug, logger.NewSlogAdapter())
}

func TestCSVPreviewPositional(t *testing.T) {
	conn := newTestCSVConnector(false)

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		ConnectorID: ConnectorCSV,
		CSVText:     "BTC,Bitcoin,1,50000\nETH,Ethereum,10,2000\n",
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 2)

	btc := result.ProposedAssets[0]
	assert.Equal(t, "BTC", btc.ID)
	assert.Equal(t, "Bitcoin", btc.Name)
	assert.InDelta(t, 0.7143, btc.CurrentWeight, 1e-4)
	require.NotNil(t, btc.SourceValueUSD)
	assert.InDelta(t, 50000.0, *btc.SourceValueUSD, 1e-9)

	eth := result.ProposedAssets[1]
	assert.Equal(t, "ETH", eth.ID)
	assert.InDelta(t, 0.2857, eth.CurrentWeight, 1e-4)
}

func TestCSVPreviewWithHeader(t *testing.T) {
	conn := newTestCSVConnector(false)

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		CSVText: "ticker,amount,usd_price,bucket\nSOL,5,150,satellite\nUSDC,1000,1,cash\n",
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 2)

	assert.Equal(t, "USDC", result.ProposedAssets[0].ID)
	assert.Equal(t, entity.RoleLiquidity, result.ProposedAssets[0].Role)
	assert.Equal(t, "SOL", result.ProposedAssets[1].ID)
	assert.Equal(t, entity.RoleSatellite, result.ProposedAssets[1].Role)
}

func TestCSVPreviewToleratesFormattedNumbers(t *testing.T) {
	conn := newTestCSVConnector(false)

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		CSVText: "symbol,quantity,value\nBTC,\"1\",\"$50,000\"\n",
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 1)
	require.NotNil(t, result.ProposedAssets[0].SourceValueUSD)
	assert.InDelta(t, 50000.0, *result.ProposedAssets[0].SourceValueUSD, 1e-9)
}

func TestCSVPreviewQuantityOnlyFallsBackToEqualWeights(t *testing.T) {
	conn := newTestCSVConnector(false)

	// No price or value columns and no price registry configured: the
	// positions survive filtering and get equal weights.
	result := conn.Preview(context.Background(), entity.PreviewRequest{
		CSVText: "symbol,name,quantity\nBTC,Bitcoin,1\nETH,Ethereum,10\n",
	})

	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 2)
	assert.InDelta(t, 0.5, result.ProposedAssets[0].CurrentWeight, 1e-9)
	assert.InDelta(t, 0.5, result.ProposedAssets[1].CurrentWeight, 1e-9)
	assert.Nil(t, result.ProposedAssets[0].SourceValueUSD)

	var sawFallback bool
	for _, w := range result.Warnings {
		if w.Code == entity.WarnEqualWeightFallback {
			sawFallback = true
		}
	}
	assert.True(t, sawFallback, "expected an equal weight fallback warning")
}

func TestCSVPreviewEmptyInput(t *testing.T) {
	conn := newTestCSVConnector(false)

	for _, text := range []string{"", "   \n  "} {
		result := conn.Preview(context.Background(), entity.PreviewRequest{CSVText: text})
		require.False(t, result.OK)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, entity.ErrEmptyInput, result.Errors[0].Code)
	}
}

func TestCSVPreviewSkipsRowsWithoutSymbol(t *testing.T) {
	conn := newTestCSVConnector(false)

	result := conn.Preview(context.Background(), entity.PreviewRequest{
		CSVText: "symbol,quantity,value\nBTC,1,50000\n,2,100\n",
	})

	require.True(t, result.OK)
	assert.Len(t, result.ProposedAssets, 1)
}

func TestCSVPreviewAllFiltered(t *testing.T) {
	conn := newTestCSVConnector(true)

	// Quantities are zero, every row fails the filter.
	result := conn.Preview(context.Background(), entity.PreviewRequest{
		CSVText: "symbol,quantity,value\nBTC,0,0\nETH,0,0\n",
	})

	require.False(t, result.OK)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RawPositions, "debug mode keeps the raw positions for inspection")

	var sawAllFiltered bool
	for _, w := range result.Warnings {
		if w.Code == entity.WarnAllFiltered {
			sawAllFiltered = true
		}
	}
	assert.True(t, sawAllFiltered)
}

func TestResolveHeaderDetection(t *testing.T) {
	cols, hasHeader := resolveHeader([]string{"ticker", "qty", "price"})
	assert.True(t, hasHeader)
	assert.Equal(t, fieldSymbol, cols[0])
	assert.Equal(t, fieldQuantity, cols[1])
	assert.Equal(t, fieldPrice, cols[2])

	_, hasHeader = resolveHeader([]string{"BTC", "Bitcoin", "1", "50000"})
	assert.False(t, hasHeader, "a numeric cell marks the first row as data")
}
