package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/connector"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/chains"
	"portfolio_preview/internal/pkg/logger"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	log := logger.NewSlogAdapter()

	enrich := service.NewEnrichService(nil, chains.NewRegistry(), log)
	filter := service.NewFilterService(&cfg.Filter, log)
	assemble := service.NewAssembleService(log)

	registry := connector.NewRegistry(
		connector.NewCSVConnector(enrich, filter, assemble, false, log),
		connector.NewJSONConnector(enrich, filter, assemble, false, log),
	)
	return SetupRouter(NewPreviewHandler(registry), zap.NewNop())
}

func postPreview(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, entity.PreviewResult) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var result entity.PreviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec, result
}

func TestPostPreviewCSV(t *testing.T) {
	router := newTestRouter()

	rec, result := postPreview(t, router,
		`{"connector_id":"csv_v1","csv_text":"BTC,Bitcoin,1,50000\nETH,Ethereum,10,2000"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, result.OK, "errors: %v", result.Errors)
	require.Len(t, result.ProposedAssets, 2)
	assert.Equal(t, "BTC", result.ProposedAssets[0].ID)
}

func TestPostPreviewFatalErrorStaysInBody(t *testing.T) {
	router := newTestRouter()

	rec, result := postPreview(t, router, `{"connector_id":"csv_v1","csv_text":""}`)

	assert.Equal(t, http.StatusOK, rec.Code, "connector-level failures are part of the result contract")
	require.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entity.ErrEmptyInput, result.Errors[0].Code)
}

func TestPostPreviewUnknownConnector(t *testing.T) {
	router := newTestRouter()

	rec, result := postPreview(t, router, `{"connector_id":"ledger_v1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entity.ErrUnknownConnector, result.Errors[0].Code)
}

func TestPostPreviewMalformedBody(t *testing.T) {
	router := newTestRouter()

	rec, result := postPreview(t, router, `{"connector_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, entity.ErrMalformedJSON, result.Errors[0].Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
