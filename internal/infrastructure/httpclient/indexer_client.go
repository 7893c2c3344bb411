package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_preview/internal/domain/entity"
)

// indexerTokenRow is one wallet holding as reported by the indexer.
type indexerTokenRow struct {
	TokenAddress     string   `json:"token_address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         uint8    `json:"decimals"`
	Balance          string   `json:"balance"`
	BalanceFormatted string   `json:"balance_formatted"`
	USDPrice         *float64 `json:"usd_price"`
	USDValue         *float64 `json:"usd_value"`
	NativeToken      bool     `json:"native_token"`
	PossibleSpam     bool     `json:"possible_spam"`
	VerifiedContract bool     `json:"verified_contract"`
}

type indexerTokensPage struct {
	Result []indexerTokenRow `json:"result"`
	Cursor string            `json:"cursor"`
}

// IndexerClient is the primary wallet-balance provider: pre-aggregated token
// holdings, paginated via a cursor. Implements port.ChainScanner.
type IndexerClient struct {
	client   *fasthttp.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	maxPages int
	policy   retryPolicy
	logger   *zap.Logger
}

// NewIndexerClient creates a new IndexerClient.
func NewIndexerClient(baseURL, apiKey string, timeout time.Duration, maxPages, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *IndexerClient {
	return &IndexerClient{
		client:   &fasthttp.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		maxPages: maxPages,
		policy:   retryPolicy{maxRetries: maxRetries, delay: retryDelay},
		logger:   logger.Named("IndexerClient"),
	}
}

// Name implements port.ChainScanner.
func (c *IndexerClient) Name() string { return "indexer" }

// ScanChain pages through the wallet's token holdings on one chain. Stops
// after maxPages, flagging truncation when a cursor remained.
func (c *IndexerClient) ScanChain(ctx context.Context, chain entity.ChainDefinition, address string) ([]entity.RawPosition, bool, error) {
	if chain.IndexerKey == "" {
		return nil, false, fmt.Errorf("chain %s is not supported by the indexer provider", chain.Key)
	}

	var positions []entity.RawPosition
	cursor := ""
	truncated := false

	for page := 0; ; page++ {
		if page >= c.maxPages {
			truncated = cursor != ""
			break
		}

		requestURL := fmt.Sprintf("%s/wallets/%s/tokens?chain=%s", c.baseURL, address, url.QueryEscape(chain.IndexerKey))
		if cursor != "" {
			requestURL += "&cursor=" + url.QueryEscape(cursor)
		}
		c.logger.Debug("Requesting wallet tokens page",
			zap.String("chain", chain.Key), zap.Int("page", page))

		body, err := doGet(ctx, c.client, requestURL,
			map[string]string{"X-API-Key": c.apiKey},
			c.timeout, c.policy, nil, c.logger, "indexer")
		if err != nil {
			return nil, false, err
		}

		var parsed indexerTokensPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal indexer tokens page: %w", err)
		}

		for _, row := range parsed.Result {
			positions = append(positions, c.rowToPosition(row, chain))
		}

		cursor = parsed.Cursor
		if cursor == "" {
			break
		}
	}

	return positions, truncated, nil
}

func (c *IndexerClient) rowToPosition(row indexerTokenRow, chain entity.ChainDefinition) entity.RawPosition {
	quantity := parseQuantity(row.BalanceFormatted, row.Balance, row.Decimals)

	pos := entity.RawPosition{
		Symbol:   row.Symbol,
		Name:     row.Name,
		Quantity: quantity,
		Currency: "USD",
		Meta: map[string]any{
			entity.MetaChain:            chain.Key,
			entity.MetaSource:           "indexer",
			entity.MetaDecimals:         int(row.Decimals),
			entity.MetaNativeToken:      row.NativeToken,
			entity.MetaPossibleSpam:     row.PossibleSpam,
			entity.MetaVerifiedContract: row.VerifiedContract,
			entity.MetaBalanceRaw:       row.Balance,
		},
	}
	if !row.NativeToken && row.TokenAddress != "" {
		pos.Meta[entity.MetaContractAddress] = strings.ToLower(row.TokenAddress)
	}
	if row.USDPrice != nil && *row.USDPrice > 0 {
		pos.PriceUSD = *row.USDPrice
	}
	if row.USDValue != nil && *row.USDValue > 0 {
		pos.ValueUSD = *row.USDValue
	} else if pos.PriceUSD > 0 && quantity > 0 {
		pos.ValueUSD = pos.PriceUSD * quantity
	}
	return pos
}

// parseQuantity prefers the provider's formatted balance, falling back to a
// decimal shift of the raw balance string.
func parseQuantity(formatted, raw string, decimals uint8) float64 {
	if formatted != "" {
		if q, err := strconv.ParseFloat(formatted, 64); err == nil {
			return q
		}
	}
	if raw == "" {
		return 0
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	for i := uint8(0); i < decimals; i++ {
		q /= 10
	}
	return q
}
