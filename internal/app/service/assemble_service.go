package service

import (
	"math"
	"sort"
	"strings"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/domain/entity"
)

// weightTolerance is the maximum allowed deviation of the weight sum from 1
// before proportional rescaling kicks in.
const weightTolerance = 1e-9

// stablecoinSymbols take precedence over any keyword inference.
var stablecoinSymbols = map[string]struct{}{
	"USDT": {}, "USDC": {}, "DAI": {}, "TUSD": {}, "BUSD": {},
	"FDUSD": {}, "USDE": {}, "USDP": {}, "GUSD": {}, "LUSD": {}, "FRAX": {},
}

// majorCryptoSymbols map to the core portfolio role by default.
var majorCryptoSymbols = map[string]struct{}{
	"BTC": {}, "WBTC": {}, "ETH": {}, "WETH": {}, "STETH": {}, "BNB": {}, "SOL": {},
}

// riskKeywords are matched against symbol+name+meta text, first hit wins.
var riskKeywords = []struct {
	class    string
	keywords []string
}{
	{entity.RiskDeFi, []string{"swap", "yield", "farm", "liquidity", "staking", "lend", "vault", "curve", "aave", "uni"}},
	{entity.RiskEquity, []string{"stock", "share", "equity", "etf", "index fund", "s&p", "reit"}},
	{entity.RiskCryptoAlt, []string{"coin", "token", "chain", "protocol", "network", "dao", "inu", "meta"}},
}

// riskClassAliases normalize equivalent spellings of risk-class hints to
// the canonical prior-table key.
var riskClassAliases = map[string]string{
	"stable":       entity.RiskStablecoin,
	"stablecoin":   entity.RiskStablecoin,
	"stablecoins":  entity.RiskStablecoin,
	"cash":         entity.RiskStablecoin,
	"major":        entity.RiskCryptoMajor,
	"crypto-major": entity.RiskCryptoMajor,
	"crypto_major": entity.RiskCryptoMajor,
	"bluechip":     entity.RiskCryptoMajor,
	"alt":          entity.RiskCryptoAlt,
	"altcoin":      entity.RiskCryptoAlt,
	"crypto":       entity.RiskCryptoAlt,
	"crypto_alt":   entity.RiskCryptoAlt,
	"defi":         entity.RiskDeFi,
	"equity":       entity.RiskEquity,
	"equities":     entity.RiskEquity,
	"stock":        entity.RiskEquity,
	"stocks":       entity.RiskEquity,
}

// roleAliases normalize free-form role hints from the source data.
var roleAliases = map[string]string{
	"core":      entity.RoleCore,
	"main":      entity.RoleCore,
	"base":      entity.RoleCore,
	"hold":      entity.RoleCore,
	"satellite": entity.RoleSatellite,
	"sat":       entity.RoleSatellite,
	"growth":    entity.RoleSatellite,
	"spec":      entity.RoleSatellite,
	"liquidity": entity.RoleLiquidity,
	"cash":      entity.RoleLiquidity,
	"reserve":   entity.RoleLiquidity,
}

// riskPrior holds the default return/volatility assumptions per risk class.
type riskPrior struct {
	expectedReturn float64
	volatility     float64
}

var riskPriors = map[string]riskPrior{
	entity.RiskStablecoin:   {expectedReturn: 0.02, volatility: 0.01},
	entity.RiskCryptoMajor:  {expectedReturn: 0.12, volatility: 0.55},
	entity.RiskCryptoAlt:    {expectedReturn: 0.15, volatility: 0.85},
	entity.RiskDeFi:         {expectedReturn: 0.18, volatility: 1.00},
	entity.RiskEquity:       {expectedReturn: 0.07, volatility: 0.18},
	entity.RiskUnclassified: {expectedReturn: 0.05, volatility: 0.40},
}

// AssembleService converts surviving raw positions into proposed assets
// with normalized weights, inferred risk class, prior return/volatility
// defaults and a portfolio role.
type AssembleService struct {
	logger port.Logger
}

// NewAssembleService creates a new AssembleService.
func NewAssembleService(logger port.Logger) *AssembleService {
	return &AssembleService{logger: logger}
}

// Assemble builds the final asset list. Weights are value-proportional when
// any position carries a usable USD value, otherwise equal with a warning.
func (s *AssembleService) Assemble(positions []entity.RawPosition) ([]entity.ProposedAsset, []entity.Warning) {
	if len(positions) == 0 {
		return nil, nil
	}

	var warnings []entity.Warning
	assets := make([]entity.ProposedAsset, 0, len(positions))

	totalValue := 0.0
	for i := range positions {
		if positions[i].ValueUSD > 0 {
			totalValue += positions[i].ValueUSD
		}
	}

	for i := range positions {
		pos := &positions[i]
		riskClass := s.inferRiskClass(pos)
		prior := riskPriors[riskClass]

		asset := entity.ProposedAsset{
			ID:             strings.ToUpper(strings.TrimSpace(pos.Symbol)),
			Name:           pos.Name,
			RiskClass:      riskClass,
			Role:           s.inferRole(pos, riskClass),
			ExpectedReturn: prior.expectedReturn,
			Volatility:     prior.volatility,
		}
		if asset.Name == "" {
			asset.Name = asset.ID
		}
		if pos.ValueUSD > 0 {
			value := pos.ValueUSD
			asset.SourceValueUSD = &value
		}
		assets = append(assets, asset)
	}

	if totalValue > 0 {
		for i := range assets {
			if assets[i].SourceValueUSD != nil {
				assets[i].CurrentWeight = *assets[i].SourceValueUSD / totalValue
			}
		}
	} else {
		equal := 1.0 / float64(len(assets))
		for i := range assets {
			assets[i].CurrentWeight = equal
		}
		warnings = append(warnings, entity.Warning{
			Code:   entity.WarnEqualWeightFallback,
			Detail: "no position had a usable USD value; weights set equally",
		})
	}

	rescaleWeights(assets)
	sortAssets(assets)
	return assets, warnings
}

// rescaleWeights proportionally corrects the weight vector when its sum
// drifts from 1 beyond tolerance.
func rescaleWeights(assets []entity.ProposedAsset) {
	sum := 0.0
	for i := range assets {
		sum += assets[i].CurrentWeight
	}
	if sum <= 0 || math.Abs(sum-1) <= weightTolerance {
		return
	}
	for i := range assets {
		assets[i].CurrentWeight /= sum
	}
}

// sortAssets orders by descending weight, ties broken by descending source
// value, then by symbol for stable presentation.
func sortAssets(assets []entity.ProposedAsset) {
	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].CurrentWeight != assets[j].CurrentWeight {
			return assets[i].CurrentWeight > assets[j].CurrentWeight
		}
		vi, vj := 0.0, 0.0
		if assets[i].SourceValueUSD != nil {
			vi = *assets[i].SourceValueUSD
		}
		if assets[j].SourceValueUSD != nil {
			vj = *assets[j].SourceValueUSD
		}
		if vi != vj {
			return vi > vj
		}
		return assets[i].ID < assets[j].ID
	})
}

// inferRiskClass classifies a position: explicit stablecoin symbols first,
// then alias-normalized hints from the source, then keyword matching over
// the position's text, defaulting to unclassified.
func (s *AssembleService) inferRiskClass(pos *entity.RawPosition) string {
	symbol := strings.ToUpper(strings.TrimSpace(pos.Symbol))
	if _, ok := stablecoinSymbols[symbol]; ok {
		return entity.RiskStablecoin
	}
	if _, ok := majorCryptoSymbols[symbol]; ok {
		return entity.RiskCryptoMajor
	}

	if hint := normalizeRiskAlias(pos.MetaString("risk_class")); hint != "" {
		return hint
	}

	text := strings.ToLower(pos.Symbol + " " + pos.Name)
	if chain := pos.MetaString(entity.MetaChain); chain != "" {
		// Anything discovered on-chain is at least a crypto asset.
		text += " token"
	}
	for _, bucket := range riskKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				return bucket.class
			}
		}
	}
	return entity.RiskUnclassified
}

// normalizeRiskAlias maps a free-form risk hint to a canonical class key.
func normalizeRiskAlias(hint string) string {
	if hint == "" {
		return ""
	}
	h := strings.ToLower(strings.TrimSpace(hint))
	if canonical, ok := riskClassAliases[h]; ok {
		return canonical
	}
	if _, ok := riskPriors[h]; ok {
		return h
	}
	return ""
}

// inferRole assigns the portfolio role: explicit hints win, then
// stablecoins provide liquidity, majors form the core, everything else is a
// satellite holding.
func (s *AssembleService) inferRole(pos *entity.RawPosition, riskClass string) string {
	if hint := strings.ToLower(strings.TrimSpace(pos.Role)); hint != "" {
		if canonical, ok := roleAliases[hint]; ok {
			return canonical
		}
	}
	if riskClass == entity.RiskStablecoin {
		return entity.RoleLiquidity
	}
	symbol := strings.ToUpper(strings.TrimSpace(pos.Symbol))
	if _, ok := majorCryptoSymbols[symbol]; ok {
		return entity.RoleCore
	}
	return entity.RoleSatellite
}
