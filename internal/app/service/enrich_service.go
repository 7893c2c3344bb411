package service

import (
	"context"
	"fmt"
	"strings"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/chains"
)

// EnrichService resolves canonical token identity and USD price for raw
// positions that carry no value data, cross-checking symbol-to-contract
// binding against the registry so a well-known ticker's price is never
// assigned to an unrelated token sharing that ticker.
type EnrichService struct {
	registry port.PriceRegistry
	chains   *chains.Registry
	logger   port.Logger
}

// NewEnrichService creates a new EnrichService. registry may be nil when the
// price registry is not configured; enrichment then becomes a no-op.
func NewEnrichService(registry port.PriceRegistry, chainReg *chains.Registry, logger port.Logger) *EnrichService {
	return &EnrichService{registry: registry, chains: chainReg, logger: logger}
}

// eligible reports whether a position needs enrichment: no positive price
// and no positive value, and a symbol that is not itself an address.
func eligible(pos *entity.RawPosition) bool {
	if pos.PriceUSD > 0 || pos.ValueUSD > 0 {
		return false
	}
	if pos.Symbol == "" || looksLikeAddress(pos.Symbol) {
		return false
	}
	return true
}

// looksLikeAddress matches EVM-style 0x-prefixed hex identifiers.
func looksLikeAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Enrich mutates eligible positions in place, setting price and
// value = price * quantity on a successful registry match. Registry failure
// is non-fatal: it returns a single warning and leaves positions untouched.
func (s *EnrichService) Enrich(ctx context.Context, positions []entity.RawPosition) []entity.Warning {
	if s.registry == nil {
		return nil
	}

	symbolSet := make(map[string]struct{})
	for i := range positions {
		if eligible(&positions[i]) {
			symbolSet[strings.ToUpper(positions[i].Symbol)] = struct{}{}
		}
	}
	if len(symbolSet) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(symbolSet))
	for sym := range symbolSet {
		symbols = append(symbols, sym)
	}

	records, err := s.registry.Lookup(ctx, symbols)
	if err != nil {
		s.logger.Warn("Price registry lookup failed, skipping enrichment", "error", err)
		return []entity.Warning{{
			Code:   entity.WarnEnrichUnavailable,
			Detail: fmt.Sprintf("price registry unreachable, positions left unpriced: %v", err),
		}}
	}

	var warnings []entity.Warning
	var unpriced []string
	for i := range positions {
		pos := &positions[i]
		if !eligible(pos) {
			continue
		}
		assets := records[strings.ToUpper(pos.Symbol)]
		match := s.bindAsset(pos, assets)
		if match == nil || match.PriceUSD <= 0 {
			unpriced = append(unpriced, pos.Symbol)
			continue
		}

		if pos.PriceUSD <= 0 {
			pos.PriceUSD = match.PriceUSD
		}
		pos.ValueUSD = pos.PriceUSD * pos.Quantity
		if pos.Name == "" {
			pos.Name = match.Name
		}
		pos.SetMeta(entity.MetaRegistryID, match.ID)
	}

	if len(unpriced) > 0 {
		if len(unpriced) > 5 {
			unpriced = unpriced[:5]
		}
		warnings = append(warnings, entity.Warning{
			Code:    entity.WarnPriceMissing,
			Detail:  "no registry price resolved for some positions",
			Samples: unpriced,
		})
	}
	return warnings
}

// bindAsset picks the registry record to price a position from, enforcing
// the symbol/contract binding check: a position with a contract address is
// only matched when that address belongs to the symbol on a platform
// consistent with the position's chain.
func (s *EnrichService) bindAsset(pos *entity.RawPosition, assets []entity.RegistryAsset) *entity.RegistryAsset {
	if len(assets) == 0 {
		return nil
	}

	contract := strings.ToLower(pos.MetaString(entity.MetaContractAddress))
	chainKey := pos.MetaString(entity.MetaChain)

	var best *entity.RegistryAsset
	for i := range assets {
		asset := &assets[i]

		if contract != "" && !s.contractBound(asset, contract, chainKey) {
			continue
		}

		// Quote selection: highest market capitalization, ties broken by the
		// best (lowest) rank.
		if best == nil ||
			asset.MarketCapUSD > best.MarketCapUSD ||
			(asset.MarketCapUSD == best.MarketCapUSD && rankBetter(asset.Rank, best.Rank)) {
			best = asset
		}
	}
	if best == nil && contract != "" {
		s.logger.Debug("Symbol/contract binding rejected for position",
			"symbol", pos.Symbol, "contract", contract, "chain", chainKey)
	}
	return best
}

func rankBetter(a, b int) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return a < b
}

// contractBound reports whether the asset lists the contract on a platform
// consistent with the position's chain, matched via the chain table's
// keyword hints against the registry's platform label. Unknown platforms
// fail closed.
func (s *EnrichService) contractBound(asset *entity.RegistryAsset, contract, chainKey string) bool {
	for _, rc := range asset.Contracts {
		if rc.Address != contract {
			continue
		}
		if chainKey == "" {
			return true
		}
		if s.platformMatchesChain(rc.Platform, chainKey) {
			return true
		}
	}
	return false
}

func (s *EnrichService) platformMatchesChain(platform, chainKey string) bool {
	def, ok := s.chains.Get(chainKey)
	if !ok {
		return false
	}
	p := strings.ToLower(platform)
	for _, hint := range def.Keywords {
		if strings.Contains(p, hint) {
			return true
		}
	}
	return false
}
