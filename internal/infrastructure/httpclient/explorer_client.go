package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_preview/internal/domain/entity"
)

// TransferRow is one ERC20-style transfer event from the explorer's
// transfer-history endpoint. Value stays a string so callers can parse it
// into a big.Int without precision loss.
type TransferRow struct {
	ContractAddress string `json:"contractAddress"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// explorerEnvelope is the provider's standard {status, message, result}
// response wrapper. Result shape depends on the action.
type explorerEnvelope struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Result  jsonRawOrTransfers `json:"result"`
}

// jsonRawOrTransfers defers result decoding: balance queries return a
// decimal string, transfer queries return an array.
type jsonRawOrTransfers struct {
	raw []byte
}

func (j *jsonRawOrTransfers) UnmarshalJSON(data []byte) error {
	j.raw = append(j.raw[:0], data...)
	return nil
}

// ExplorerClient is the fallback block-explorer provider offering point
// balance queries and paginated transfer history.
type ExplorerClient struct {
	client  *fasthttp.Client
	apiKey  string
	timeout time.Duration
	policy  retryPolicy
	logger  *zap.Logger
}

// NewExplorerClient creates a new ExplorerClient. The per-chain API base URL
// comes from each ChainDefinition; one API key covers the explorer family.
func NewExplorerClient(apiKey string, timeout time.Duration, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *ExplorerClient {
	return &ExplorerClient{
		client:  &fasthttp.Client{},
		apiKey:  apiKey,
		timeout: timeout,
		policy:  retryPolicy{maxRetries: maxRetries, delay: retryDelay},
		logger:  logger.Named("ExplorerClient"),
	}
}

// explorerRateLimited detects the provider's in-band rate limiting: HTTP 200
// with a NOTOK envelope mentioning the rate limit.
func explorerRateLimited(statusCode int, body []byte) bool {
	if statusCode == fasthttp.StatusTooManyRequests {
		return true
	}
	return statusCode == fasthttp.StatusOK && bytes.Contains(bytes.ToLower(body), []byte("rate limit"))
}

func (c *ExplorerClient) call(ctx context.Context, chain entity.ChainDefinition, params url.Values) ([]byte, error) {
	if chain.ExplorerBase == "" {
		return nil, fmt.Errorf("chain %s has no explorer endpoint", chain.Key)
	}
	params.Set("apikey", c.apiKey)
	requestURL := chain.ExplorerBase + "?" + params.Encode()

	body, err := doGet(ctx, c.client, requestURL, nil, c.timeout, c.policy, explorerRateLimited, c.logger, "explorer")
	if err != nil {
		return nil, err
	}

	var envelope explorerEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal explorer response: %w", err)
	}
	// Status "0" with "No transactions found" is an empty result, not an error.
	if envelope.Status != "1" && envelope.Message != "No transactions found" {
		return nil, fmt.Errorf("explorer request failed: %s", envelope.Message)
	}
	return envelope.Result.raw, nil
}

// NativeBalance fetches the native coin balance for a wallet.
func (c *ExplorerClient) NativeBalance(ctx context.Context, chain entity.ChainDefinition, address string) (*big.Int, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")

	raw, err := c.call(ctx, chain, params)
	if err != nil {
		return nil, err
	}

	var balanceStr string
	if err := json.Unmarshal(raw, &balanceStr); err != nil {
		return nil, fmt.Errorf("failed to decode native balance: %w", err)
	}
	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return nil, fmt.Errorf("invalid native balance value %q", balanceStr)
	}
	return balance, nil
}

// TokenTransfers fetches one page of the wallet's ERC20-style transfer
// history, oldest first.
func (c *ExplorerClient) TokenTransfers(ctx context.Context, chain entity.ChainDefinition, address string, page, offset int) ([]TransferRow, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("address", address)
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("sort", "asc")

	raw, err := c.call(ctx, chain, params)
	if err != nil {
		return nil, err
	}

	var rows []TransferRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode transfer rows: %w", err)
	}
	return rows, nil
}
