package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/pkg/utils"
)

type registryInfoRecord struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Contract []struct {
		ContractAddress string `json:"contract_address"`
		Platform        struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"contract_address"`
}

type registryQuoteRecord struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rank   int    `json:"cmc_rank"`
	Quote  struct {
		USD struct {
			Price     float64 `json:"price"`
			MarketCap float64 `json:"market_cap"`
		} `json:"USD"`
	} `json:"quote"`
}

type registryInfoResponse struct {
	Data map[string][]registryInfoRecord `json:"data"`
}

type registryQuoteResponse struct {
	Data map[string][]registryQuoteRecord `json:"data"`
}

// RegistryClient talks to the price/identity registry, resolving symbols to
// canonical token identity records (contract bindings) and USD quotes.
// Implements port.PriceRegistry.
type RegistryClient struct {
	client    *fasthttp.Client
	baseURL   string
	apiKey    string
	timeout   time.Duration
	policy    retryPolicy
	batchSize int
	logger    *zap.Logger
}

// NewRegistryClient creates a new RegistryClient. batchSize caps the symbols
// per info/quotes request.
func NewRegistryClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, retryDelay time.Duration, batchSize int, logger *zap.Logger) *RegistryClient {
	return &RegistryClient{
		client:    &fasthttp.Client{},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		timeout:   timeout,
		policy:    retryPolicy{maxRetries: maxRetries, delay: retryDelay},
		batchSize: batchSize,
		logger:    logger.Named("RegistryClient"),
	}
}

func (c *RegistryClient) get(ctx context.Context, path string, symbols []string, out any) error {
	requestURL := fmt.Sprintf("%s%s?symbol=%s", c.baseURL, path, url.QueryEscape(strings.Join(symbols, ",")))

	body, err := doGet(ctx, c.client, requestURL,
		map[string]string{"X-CMC_PRO_API_KEY": c.apiKey},
		c.timeout, c.policy, nil, c.logger, "registry")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal registry response: %w", err)
	}
	return nil
}

// Lookup resolves identity and quote records for each requested symbol,
// merged by registry id. Symbol lists beyond the batch size are split over
// several requests. Symbols absent from the registry are simply missing from
// the returned map.
func (c *RegistryClient) Lookup(ctx context.Context, symbols []string) (map[string][]entity.RegistryAsset, error) {
	if len(symbols) == 0 {
		return map[string][]entity.RegistryAsset{}, nil
	}

	upper := make([]string, 0, len(symbols))
	for _, s := range symbols {
		upper = append(upper, strings.ToUpper(strings.TrimSpace(s)))
	}

	info := registryInfoResponse{Data: make(map[string][]registryInfoRecord)}
	quotes := registryQuoteResponse{Data: make(map[string][]registryQuoteRecord)}

	for _, batch := range utils.BatchStrings(upper, c.batchSize) {
		var batchInfo registryInfoResponse
		if err := c.get(ctx, "/v2/cryptocurrency/info", batch, &batchInfo); err != nil {
			return nil, fmt.Errorf("registry info lookup failed: %w", err)
		}
		for symbol, records := range batchInfo.Data {
			info.Data[symbol] = records
		}

		var batchQuotes registryQuoteResponse
		if err := c.get(ctx, "/v2/cryptocurrency/quotes/latest", batch, &batchQuotes); err != nil {
			return nil, fmt.Errorf("registry quotes lookup failed: %w", err)
		}
		for symbol, records := range batchQuotes.Data {
			quotes.Data[symbol] = records
		}
	}

	out := make(map[string][]entity.RegistryAsset, len(info.Data))
	for symbol, records := range info.Data {
		quotesByID := make(map[int64]registryQuoteRecord)
		for _, q := range quotes.Data[symbol] {
			quotesByID[q.ID] = q
		}

		assets := make([]entity.RegistryAsset, 0, len(records))
		for _, rec := range records {
			asset := entity.RegistryAsset{
				ID:     rec.ID,
				Name:   rec.Name,
				Symbol: strings.ToUpper(rec.Symbol),
			}
			for _, contract := range rec.Contract {
				if contract.ContractAddress == "" {
					continue
				}
				asset.Contracts = append(asset.Contracts, entity.RegistryContract{
					Platform: contract.Platform.Name,
					Address:  strings.ToLower(contract.ContractAddress),
				})
			}
			if q, ok := quotesByID[rec.ID]; ok {
				asset.Rank = q.Rank
				asset.PriceUSD = q.Quote.USD.Price
				asset.MarketCapUSD = q.Quote.USD.MarketCap
			}
			assets = append(assets, asset)
		}
		if len(assets) > 0 {
			out[strings.ToUpper(symbol)] = assets
		}
	}

	c.logger.Debug("Registry lookup completed",
		zap.Int("requestedSymbols", len(upper)), zap.Int("resolvedSymbols", len(out)))
	return out, nil
}
