package service

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/httpclient"
	"portfolio_preview/internal/pkg/utils"
)

// tokenLedger accumulates signed transfer deltas for one contract. All
// arithmetic stays in big.Int; conversion to a float quantity happens only
// at the final output step.
type tokenLedger struct {
	symbol   string
	name     string
	decimals uint8
	balance  *big.Int
}

// ExplorerScanner reconstructs a wallet's holdings from the block explorer's
// native-balance and transfer-history endpoints. Implements
// port.ChainScanner as the fallback strategy behind the indexer.
//
// The reconstruction is an approximation: it misses balances predating the
// indexed window and balance changes without a transfer event. The scan
// service corrects primary-chain results with exact on-chain queries.
type ExplorerScanner struct {
	client    *httpclient.ExplorerClient
	pageSize  int
	maxWindow int
}

// NewExplorerScanner creates a new ExplorerScanner.
func NewExplorerScanner(client *httpclient.ExplorerClient, pageSize, maxWindow int) *ExplorerScanner {
	return &ExplorerScanner{client: client, pageSize: pageSize, maxWindow: maxWindow}
}

// Name implements port.ChainScanner.
func (s *ExplorerScanner) Name() string { return "explorer" }

// ScanChain implements port.ChainScanner.
func (s *ExplorerScanner) ScanChain(ctx context.Context, chain entity.ChainDefinition, address string) ([]entity.RawPosition, bool, error) {
	var positions []entity.RawPosition

	native, err := s.client.NativeBalance(ctx, chain, address)
	if err != nil {
		return nil, false, fmt.Errorf("native balance fetch failed on %s: %w", chain.Key, err)
	}
	if native.Sign() > 0 {
		positions = append(positions, entity.RawPosition{
			Symbol:   chain.NativeSymbol,
			Name:     chain.Label + " native coin",
			Quantity: utils.BigIntToFloat(native, chain.NativeDecimals),
			Currency: "USD",
			Meta: map[string]any{
				entity.MetaChain:       chain.Key,
				entity.MetaSource:      "explorer",
				entity.MetaDecimals:    int(chain.NativeDecimals),
				entity.MetaNativeToken: true,
				entity.MetaBalanceRaw:  native.String(),
			},
		})
	}

	transfers, truncated, err := s.fetchTransferWindow(ctx, chain, address)
	if err != nil {
		return nil, false, err
	}

	for contract, ledger := range s.reconstruct(transfers, address) {
		// Contracts whose reconstructed balance is non-positive are dropped;
		// negatives mean the window missed earlier incoming transfers.
		if ledger.balance.Sign() <= 0 {
			continue
		}
		positions = append(positions, entity.RawPosition{
			Symbol:   ledger.symbol,
			Name:     ledger.name,
			Quantity: utils.BigIntToFloat(ledger.balance, ledger.decimals),
			Currency: "USD",
			Meta: map[string]any{
				entity.MetaChain:           chain.Key,
				entity.MetaSource:          "explorer",
				entity.MetaContractAddress: contract,
				entity.MetaDecimals:        int(ledger.decimals),
				entity.MetaNativeToken:     false,
				entity.MetaBalanceRaw:      ledger.balance.String(),
			},
		})
	}

	return positions, truncated, nil
}

// fetchTransferWindow pages the wallet's transfer history, bounded by
// maxWindow rows. truncated reports that the window was exhausted while
// pages were still full.
func (s *ExplorerScanner) fetchTransferWindow(ctx context.Context, chain entity.ChainDefinition, address string) ([]httpclient.TransferRow, bool, error) {
	var transfers []httpclient.TransferRow
	page := 1
	for {
		rows, err := s.client.TokenTransfers(ctx, chain, address, page, s.pageSize)
		if err != nil {
			return nil, false, fmt.Errorf("transfer history fetch failed on %s (page %d): %w", chain.Key, page, err)
		}
		transfers = append(transfers, rows...)

		if len(rows) < s.pageSize {
			return transfers, false, nil
		}
		if len(transfers) >= s.maxWindow {
			return transfers[:s.maxWindow], true, nil
		}
		page++
	}
}

// reconstruct sums signed transfer deltas per contract: incoming minus
// outgoing, keyed by lowercase contract address.
func (s *ExplorerScanner) reconstruct(transfers []httpclient.TransferRow, address string) map[string]*tokenLedger {
	ledgers := make(map[string]*tokenLedger)
	for _, row := range transfers {
		contract := strings.ToLower(row.ContractAddress)
		if contract == "" {
			continue
		}

		ledger, ok := ledgers[contract]
		if !ok {
			decimals := uint8(18)
			if d, err := strconv.ParseUint(row.TokenDecimal, 10, 8); err == nil {
				decimals = uint8(d)
			}
			ledger = &tokenLedger{
				symbol:   row.TokenSymbol,
				name:     row.TokenName,
				decimals: decimals,
				balance:  new(big.Int),
			}
			ledgers[contract] = ledger
		}

		value, ok := new(big.Int).SetString(row.Value, 10)
		if !ok {
			continue
		}
		if strings.EqualFold(row.To, address) {
			ledger.balance.Add(ledger.balance, value)
		}
		if strings.EqualFold(row.From, address) {
			ledger.balance.Sub(ledger.balance, value)
		}
	}
	return ledgers
}
