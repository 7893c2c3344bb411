package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_preview/internal/config"
	"portfolio_preview/internal/pkg/logger"
)

func TestRegistryDispatch(t *testing.T) {
	enrich, filter, assemble := testServices(config.FilterConfig{})
	log := logger.NewSlogAdapter()

	reg := NewRegistry(
		NewCSVConnector(enrich, filter, assemble, false, log),
		NewJSONConnector(enrich, filter, assemble, false, log),
	)

	csv, ok := reg.Get(ConnectorCSV)
	require.True(t, ok)
	assert.Equal(t, ConnectorCSV, csv.ID())

	jsonConn, ok := reg.Get(ConnectorJSON)
	require.True(t, ok)
	assert.Equal(t, ConnectorJSON, jsonConn.ID())

	_, ok = reg.Get("ledger_v1")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{ConnectorCSV, ConnectorJSON}, reg.IDs())
}
