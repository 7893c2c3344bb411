package connector

import (
	"context"
	"fmt"

	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/domain/entity"
)

// pipeline is the shared tail every adapter runs after extracting raw
// positions: enrichment, filtering and weight/role/risk assembly.
type pipeline struct {
	enrich   *service.EnrichService
	filter   *service.FilterService
	assemble *service.AssembleService
	debug    bool
}

// finish runs the pipeline tail and builds the final result. warnings are
// the adapter's own diagnostics collected so far.
func (p *pipeline) finish(ctx context.Context, positions []entity.RawPosition, warnings []entity.Warning) entity.PreviewResult {
	warnings = append(warnings, p.enrich.Enrich(ctx, positions)...)

	filtered := p.filter.Filter(positions)
	warnings = append(warnings, filtered.Warnings...)

	if len(filtered.Kept) == 0 {
		warnings = append(warnings, entity.Warning{
			Code:   entity.WarnAllFiltered,
			Detail: fmt.Sprintf("all %d position(s) were filtered out", len(positions)),
		})
		result := entity.PreviewResult{
			OK:       false,
			Summary:  "no importable positions remained after filtering",
			Warnings: warnings,
		}
		if p.debug {
			result.RawPositions = positions
		}
		return result
	}

	assets, assembleWarnings := p.assemble.Assemble(filtered.Kept)
	warnings = append(warnings, assembleWarnings...)

	totalValue := 0.0
	for i := range assets {
		if assets[i].SourceValueUSD != nil {
			totalValue += *assets[i].SourceValueUSD
		}
	}

	result := entity.PreviewResult{
		OK: true,
		Summary: fmt.Sprintf("%d of %d position(s) imported, total value %.2f USD",
			len(filtered.Kept), len(positions), totalValue),
		Warnings:       warnings,
		ProposedAssets: assets,
	}
	if p.debug {
		result.RawPositions = positions
	}
	return result
}
