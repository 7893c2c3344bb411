package service

import (
	"fmt"
	"sort"
	"strings"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/domain/entity"
)

// maxRejectionSamples caps per-reason diagnostic samples.
const maxRejectionSamples = 5

// placeholderNames are display names that carry no identity. Under strict
// filtering a position with one of these (or an empty name) is rejected.
var placeholderNames = map[string]struct{}{
	"unknown": {},
	"token":   {},
	"n/a":     {},
	"none":    {},
	"test":    {},
}

// FilterOutcome reports which positions survived and why the rest were
// rejected. Counts plus len(Kept) always equals the input length.
type FilterOutcome struct {
	Kept     []entity.RawPosition
	Counts   map[string]int
	Warnings []entity.Warning
}

// FilterService rejects positions that are unusable, suspicious or
// unverifiable, accumulating per-reason counts and representative samples.
type FilterService struct {
	cfg    *config.FilterConfig
	logger port.Logger
}

// NewFilterService creates a new FilterService.
func NewFilterService(cfg *config.FilterConfig, logger port.Logger) *FilterService {
	return &FilterService{cfg: cfg, logger: logger}
}

// Filter applies every rejection rule to each position. A position is kept
// only when all rules hold.
func (s *FilterService) Filter(positions []entity.RawPosition) FilterOutcome {
	out := FilterOutcome{Counts: make(map[string]int)}
	samples := make(map[string][]string)

	reject := func(code string, pos *entity.RawPosition) {
		out.Counts[code]++
		if len(samples[code]) < maxRejectionSamples {
			samples[code] = append(samples[code], describePosition(pos))
		}
	}

	// When the whole batch arrived without any price or value data (a
	// quantity-only CSV/JSON export with no registry configured), a missing
	// value is expected rather than suspicious: those positions pass through
	// to the assembler's equal-weight fallback. Strict mode keeps rejecting.
	requireValue := s.cfg.Strict || anyValueData(positions)

	for i := range positions {
		pos := &positions[i]
		if code := s.rejectionReason(pos, requireValue); code != "" {
			reject(code, pos)
			continue
		}
		out.Kept = append(out.Kept, *pos)
	}

	codes := make([]string, 0, len(out.Counts))
	for code := range out.Counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		out.Warnings = append(out.Warnings, entity.Warning{
			Code:    code,
			Detail:  fmt.Sprintf("%d position(s) rejected", out.Counts[code]),
			Samples: samples[code],
		})
	}
	if len(out.Counts) > 0 {
		s.logger.Debug("Filter rejected positions", "reasons", out.Counts, "kept", len(out.Kept))
	}
	return out
}

// anyValueData reports whether at least one position carries a positive
// price or USD value.
func anyValueData(positions []entity.RawPosition) bool {
	for i := range positions {
		if positions[i].PriceUSD > 0 || positions[i].ValueUSD > 0 {
			return true
		}
	}
	return false
}

// rejectionReason returns the warning code of the first failed rule, or ""
// when the position passes.
func (s *FilterService) rejectionReason(pos *entity.RawPosition, requireValue bool) string {
	symbol := strings.TrimSpace(pos.Symbol)
	if symbol == "" {
		return entity.WarnFilteredNoSymbol
	}
	if looksLikeAddress(symbol) {
		return entity.WarnFilteredSymbolAddress
	}

	if s.cfg.Strict {
		name := strings.ToLower(strings.TrimSpace(pos.Name))
		if name == "" {
			return entity.WarnFilteredPlaceholder
		}
		if _, placeholder := placeholderNames[name]; placeholder {
			return entity.WarnFilteredPlaceholder
		}
	}

	if s.cfg.ExcludeSpam && pos.MetaBool(entity.MetaPossibleSpam) {
		return entity.WarnFilteredSpam
	}
	if s.cfg.ExcludeUnverified && hasUnverifiedFlag(pos) {
		return entity.WarnFilteredUnverified
	}

	if pos.Quantity <= 0 {
		return entity.WarnFilteredBadQuantity
	}
	if requireValue && pos.ValueUSD <= 0 {
		return entity.WarnFilteredNoValue
	}
	if s.cfg.Strict && pos.PriceUSD <= 0 {
		return entity.WarnFilteredNoPrice
	}

	if code := s.checkOfficialContract(pos); code != "" {
		return code
	}
	return ""
}

// hasUnverifiedFlag is true only when the source explicitly reported the
// contract as unverified; positions without the flag are not penalized.
func hasUnverifiedFlag(pos *entity.RawPosition) bool {
	if pos.Meta == nil {
		return false
	}
	v, ok := pos.Meta[entity.MetaVerifiedContract].(bool)
	return ok && !v
}

// checkOfficialContract enforces the per-symbol contract allow-list: when
// the symbol is listed and the position carries a contract address, that
// address must be on the list. Protects against counterfeit tokens reusing
// a well-known ticker.
func (s *FilterService) checkOfficialContract(pos *entity.RawPosition) string {
	if len(s.cfg.OfficialContracts) == 0 {
		return ""
	}
	official, listed := s.cfg.OfficialContracts[strings.ToUpper(pos.Symbol)]
	if !listed {
		return ""
	}
	contract := strings.ToLower(pos.MetaString(entity.MetaContractAddress))
	if contract == "" {
		// Pure ticker rows (CSV/JSON) carry no contract to verify.
		return ""
	}
	for _, addr := range official {
		if strings.ToLower(addr) == contract {
			return ""
		}
	}
	return entity.WarnFilteredContractMismatch
}

func describePosition(pos *entity.RawPosition) string {
	parts := []string{pos.Symbol}
	if chain := pos.MetaString(entity.MetaChain); chain != "" {
		parts = append(parts, chain)
	}
	if contract := pos.MetaString(entity.MetaContractAddress); contract != "" {
		parts = append(parts, contract)
	}
	return strings.Join(parts, " ")
}
