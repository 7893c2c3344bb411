package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/balancecache"
	"portfolio_preview/internal/pkg/metrics"
	"portfolio_preview/internal/pkg/utils"
)

// ScanOutcome is the balance acquisition engine's result for one wallet
// request. FatalErr is set when the primary chain could not be scanned by
// any configured provider; warnings carry everything recoverable.
type ScanOutcome struct {
	Positions []entity.RawPosition
	Warnings  []entity.Warning
	FatalErr  *entity.PreviewError
}

// chainScanResult is the aggregation record for one chain's scan.
type chainScanResult struct {
	chain     entity.ChainDefinition
	positions []entity.RawPosition
	provider  string
	truncated bool
	attempts  []string
	err       error
}

// ScanService is the balance acquisition engine: it resolves a ranked list
// of provider strategies, scans each requested chain, reconciles
// reconstructed balances against exact on-chain values, and aggregates
// diagnostics under a mutex so concurrent chain scans never lose warnings.
type ScanService struct {
	scanners    []port.ChainScanner
	rpcProvider port.BlockchainClientProvider
	cache       *balancecache.Cache
	limiter     *rate.Limiter
	cfg         *config.Config
	logger      port.Logger
}

// NewScanService creates a ScanService over the configured provider
// strategies. scanners must be ranked: preferred provider first. The
// limiter enforces the minimum delay between reconciliation RPCs.
func NewScanService(
	scanners []port.ChainScanner,
	rpcProvider port.BlockchainClientProvider,
	cache *balancecache.Cache,
	cfg *config.Config,
	logger port.Logger,
) *ScanService {
	minDelay := time.Duration(cfg.Scan.ReconcileMinDelayMs) * time.Millisecond
	return &ScanService{
		scanners:    scanners,
		rpcProvider: rpcProvider,
		cache:       cache,
		limiter:     rate.NewLimiter(rate.Every(minDelay), 1),
		cfg:         cfg,
		logger:      logger,
	}
}

// ResolveScanners builds the ranked strategy list from configuration: an
// explicit override selects one provider, otherwise the indexer is
// preferred with the explorer as fallback. An empty list means wallet
// imports are unavailable.
func ResolveScanners(cfg *config.Config, indexer, explorer port.ChainScanner) []port.ChainScanner {
	switch cfg.Providers.Override {
	case "indexer":
		if cfg.Providers.HasIndexer() && indexer != nil {
			return []port.ChainScanner{indexer}
		}
		return nil
	case "explorer":
		if cfg.Providers.HasExplorer() && explorer != nil {
			return []port.ChainScanner{explorer}
		}
		return nil
	}

	var scanners []port.ChainScanner
	if cfg.Providers.HasIndexer() && indexer != nil {
		scanners = append(scanners, indexer)
	}
	if cfg.Providers.HasExplorer() && explorer != nil {
		scanners = append(scanners, explorer)
	}
	return scanners
}

// Scan runs the full balance acquisition state machine for one wallet
// request. chainsToScan must be non-empty and ordered; the first entry is
// the primary chain whose failure is fatal for the whole request.
func (s *ScanService) Scan(ctx context.Context, chainsToScan []entity.ChainDefinition, address string) ScanOutcome {
	started := time.Now()
	defer func() {
		metrics.ScanDurationSeconds.Observe(time.Since(started).Seconds())
	}()

	if len(s.scanners) == 0 {
		return ScanOutcome{FatalErr: &entity.PreviewError{
			Code:    entity.ErrNoProviderConfigured,
			Message: "no balance provider is configured: set indexer or explorer credentials",
		}}
	}
	if len(chainsToScan) == 0 {
		return ScanOutcome{FatalErr: &entity.PreviewError{
			Code:    entity.ErrPrimaryChainFailed,
			Message: "no chains resolved to scan",
		}}
	}

	results := make([]chainScanResult, len(chainsToScan))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scan.MaxConcurrentChains)
	for i, chain := range chainsToScan {
		g.Go(func() error {
			res := s.scanChain(gctx, chain, address)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; diagnostics travel in results.
	_ = g.Wait()

	return s.aggregate(ctx, chainsToScan, address, results)
}

// scanChain iterates the ranked strategies for one chain and short-circuits
// on the first success, recording every failed attempt for diagnostics.
func (s *ScanService) scanChain(ctx context.Context, chain entity.ChainDefinition, address string) chainScanResult {
	res := chainScanResult{chain: chain}

	for _, scanner := range s.scanners {
		positions, truncated, err := scanner.ScanChain(ctx, chain, address)
		if err != nil {
			s.logger.Warn("Provider scan attempt failed",
				"chain", chain.Key, "provider", scanner.Name(), "error", err)
			res.attempts = append(res.attempts, fmt.Sprintf("%s: %v", scanner.Name(), err))
			continue
		}
		res.positions = positions
		res.provider = scanner.Name()
		res.truncated = truncated
		return res
	}

	res.err = fmt.Errorf("all providers failed for chain %s: %s", chain.Key, strings.Join(res.attempts, "; "))
	return res
}

// aggregate applies primary-chain fatal semantics, reconciliation and
// warning collection sequentially after the concurrent scans finished.
func (s *ScanService) aggregate(ctx context.Context, chainsToScan []entity.ChainDefinition, address string, results []chainScanResult) ScanOutcome {
	var out ScanOutcome

	for i, res := range results {
		isPrimary := i == 0

		if res.err != nil {
			if isPrimary {
				return ScanOutcome{FatalErr: &entity.PreviewError{
					Code:    entity.ErrPrimaryChainFailed,
					Message: res.err.Error(),
				}}
			}
			out.Warnings = append(out.Warnings, entity.Warning{
				Code:   entity.WarnScanChainError,
				Detail: res.err.Error(),
			})
			continue
		}

		// A success on a lower-ranked strategy means the preferred provider
		// was downgraded for this chain.
		if len(res.attempts) > 0 {
			out.Warnings = append(out.Warnings, entity.Warning{
				Code: entity.WarnProviderFallback,
				Detail: fmt.Sprintf("chain %s served by fallback provider %s after: %s",
					res.chain.Key, res.provider, strings.Join(res.attempts, "; ")),
			})
		}
		if res.truncated {
			out.Warnings = append(out.Warnings, entity.Warning{
				Code:   entity.WarnScanTruncated,
				Detail: fmt.Sprintf("chain %s scan hit the provider's page/window limit; holdings may be incomplete", res.chain.Key),
			})
		}

		positions := res.positions
		if res.provider == "explorer" && (isPrimary || s.cfg.Scan.VerifyAllChains) {
			positions = s.reconcile(ctx, res.chain, address, positions)
		}
		out.Positions = append(out.Positions, positions...)
	}

	return out
}

// reconcile corrects reconstructed token balances with one direct on-chain
// query per contract, throttled by the limiter and cached by
// (chain, address, contract). Reconciliation is best effort: an RPC failure
// leaves the reconstructed value in place.
func (s *ScanService) reconcile(ctx context.Context, chain entity.ChainDefinition, address string, positions []entity.RawPosition) []entity.RawPosition {
	if s.rpcProvider == nil {
		return positions
	}

	var client port.BlockchainClient
	out := make([]entity.RawPosition, 0, len(positions))

	for i := range positions {
		pos := positions[i]
		contract := pos.MetaString(entity.MetaContractAddress)
		if contract == "" {
			out = append(out, pos)
			continue
		}

		exact, cached := s.cache.Get(chain.Key, address, contract)
		if !cached {
			if client == nil {
				var err error
				client, err = s.rpcProvider.GetClient(chain)
				if err != nil {
					s.logger.Warn("Balance reconciliation unavailable, keeping reconstructed balances",
						"chain", chain.Key, "error", err)
					return positions
				}
			}

			if err := s.limiter.Wait(ctx); err != nil {
				return append(out, positions[i:]...)
			}
			var err error
			exact, err = client.TokenBalance(ctx, contract, address)
			if err != nil {
				s.logger.Warn("Exact balance query failed, keeping reconstructed balance",
					"chain", chain.Key, "contract", contract, "error", err)
				out = append(out, pos)
				continue
			}
			s.cache.Set(chain.Key, address, contract, exact)
		}

		if exact.Sign() <= 0 {
			continue
		}
		decimals := uint8(18)
		if d, ok := pos.Meta[entity.MetaDecimals].(int); ok {
			decimals = uint8(d)
		}
		pos.Quantity = utils.BigIntToFloat(exact, decimals)
		pos.SetMeta(entity.MetaBalanceRaw, exact.String())
		pos.SetMeta(entity.MetaReconciled, true)
		s.logger.Debug("Reconciled exact balance",
			"chain", chain.Key, "contract", contract,
			"balance", utils.FormatBigInt(exact, decimals))
		out = append(out, pos)
	}
	return out
}
