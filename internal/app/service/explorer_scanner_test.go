package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/httpclient"
)

const scanWallet = "0x1111111111111111111111111111111111111111"

func explorerChain(base string) entity.ChainDefinition {
	return entity.ChainDefinition{
		Key: "eth", ChainID: 1, Label: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
		ExplorerBase: base,
	}
}

// explorerFixture serves the balance action and a fixed transfer history.
func explorerFixture(t *testing.T, nativeWei string, transfersJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "balance":
			w.Write([]byte(`{"status":"1","message":"OK","result":"` + nativeWei + `"}`))
		case "tokentx":
			if r.URL.Query().Get("page") != "1" {
				w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
				return
			}
			w.Write([]byte(`{"status":"1","message":"OK","result":` + transfersJSON + `}`))
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	}))
}

func newTestExplorerScanner(base string, pageSize, maxWindow int) *ExplorerScanner {
	client := httpclient.NewExplorerClient("key", 2*time.Second, 1, time.Millisecond, zap.NewNop())
	return NewExplorerScanner(client, pageSize, maxWindow)
}

func TestExplorerScannerReconstructsBalances(t *testing.T) {
	// Two incoming USDC transfers, one outgoing: 10 + 5 - 4 = 11 USDC.
	server := explorerFixture(t, "2000000000000000000", `[
		{"contractAddress":"0xAAA1","from":"0xother","to":"`+scanWallet+`","value":"10000000","tokenName":"USD Coin","tokenSymbol":"USDC","tokenDecimal":"6"},
		{"contractAddress":"0xAAA1","from":"0xother","to":"`+scanWallet+`","value":"5000000","tokenName":"USD Coin","tokenSymbol":"USDC","tokenDecimal":"6"},
		{"contractAddress":"0xAAA1","from":"`+scanWallet+`","to":"0xother","value":"4000000","tokenName":"USD Coin","tokenSymbol":"USDC","tokenDecimal":"6"}
	]`)
	defer server.Close()

	scanner := newTestExplorerScanner(server.URL, 100, 1000)
	positions, truncated, err := scanner.ScanChain(context.Background(), explorerChain(server.URL), scanWallet)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, positions, 2)

	native := positions[0]
	assert.Equal(t, "ETH", native.Symbol)
	assert.InDelta(t, 2.0, native.Quantity, 1e-9)
	assert.True(t, native.MetaBool(entity.MetaNativeToken))

	usdc := positions[1]
	assert.Equal(t, "USDC", usdc.Symbol)
	assert.InDelta(t, 11.0, usdc.Quantity, 1e-9)
	assert.Equal(t, "0xaaa1", usdc.MetaString(entity.MetaContractAddress))
	assert.Equal(t, "11000000", usdc.MetaString(entity.MetaBalanceRaw))
}

func TestExplorerScannerDropsNonPositiveBalances(t *testing.T) {
	// The wallet sent out more than the window shows coming in: the
	// reconstruction goes negative and the contract is dropped.
	server := explorerFixture(t, "0", `[
		{"contractAddress":"0xBBB2","from":"`+scanWallet+`","to":"0xother","value":"7000000","tokenName":"Tether","tokenSymbol":"USDT","tokenDecimal":"6"},
		{"contractAddress":"0xBBB2","from":"0xother","to":"`+scanWallet+`","value":"2000000","tokenName":"Tether","tokenSymbol":"USDT","tokenDecimal":"6"}
	]`)
	defer server.Close()

	scanner := newTestExplorerScanner(server.URL, 100, 1000)
	positions, _, err := scanner.ScanChain(context.Background(), explorerChain(server.URL), scanWallet)
	require.NoError(t, err)
	assert.Empty(t, positions, "negative reconstructed balances and zero native balance yield nothing")
}

func TestExplorerScannerSelfTransferIsNeutral(t *testing.T) {
	server := explorerFixture(t, "0", `[
		{"contractAddress":"0xCCC3","from":"0xother","to":"`+scanWallet+`","value":"3000000","tokenName":"Token","tokenSymbol":"TOK","tokenDecimal":"6"},
		{"contractAddress":"0xCCC3","from":"`+scanWallet+`","to":"`+scanWallet+`","value":"9000000","tokenName":"Token","tokenSymbol":"TOK","tokenDecimal":"6"}
	]`)
	defer server.Close()

	scanner := newTestExplorerScanner(server.URL, 100, 1000)
	positions, _, err := scanner.ScanChain(context.Background(), explorerChain(server.URL), scanWallet)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 3.0, positions[0].Quantity, 1e-9, "a self transfer adds and subtracts the same amount")
}

func TestExplorerScannerLargeValuesStayExact(t *testing.T) {
	// 2^96 wei, far beyond float64's integer range.
	huge := "79228162514264337593543950336"
	server := explorerFixture(t, "0", `[
		{"contractAddress":"0xDDD4","from":"0xother","to":"`+scanWallet+`","value":"`+huge+`","tokenName":"Big","tokenSymbol":"BIG","tokenDecimal":"18"}
	]`)
	defer server.Close()

	scanner := newTestExplorerScanner(server.URL, 100, 1000)
	positions, _, err := scanner.ScanChain(context.Background(), explorerChain(server.URL), scanWallet)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, huge, positions[0].MetaString(entity.MetaBalanceRaw))
}

func TestExplorerScannerTruncatesAtWindow(t *testing.T) {
	row := `{"contractAddress":"0xEEE5","from":"0xother","to":"` + scanWallet + `","value":"1","tokenName":"T","tokenSymbol":"T","tokenDecimal":"0"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "balance":
			w.Write([]byte(`{"status":"1","message":"OK","result":"0"}`))
		case "tokentx":
			// Every page comes back full.
			w.Write([]byte(`{"status":"1","message":"OK","result":[` + row + `,` + row + `]}`))
		}
	}))
	defer server.Close()

	scanner := newTestExplorerScanner(server.URL, 2, 4)
	positions, truncated, err := scanner.ScanChain(context.Background(), explorerChain(server.URL), scanWallet)
	require.NoError(t, err)
	assert.True(t, truncated)
	require.Len(t, positions, 1)
	assert.Equal(t, "4", positions[0].MetaString(entity.MetaBalanceRaw))
}
