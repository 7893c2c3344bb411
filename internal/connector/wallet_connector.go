package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/domain/entity"
	"portfolio_preview/internal/infrastructure/chains"
)

// ConnectorWallet is the stable identifier of the EVM wallet adapter.
const ConnectorWallet = "wallet_evm_v1"

// WalletConnector discovers holdings directly from on-chain data for an EVM
// address across the requested chain scope.
type WalletConnector struct {
	scan   *service.ScanService
	chains *chains.Registry
	cfg    *config.Config
	pipe   pipeline
	logger port.Logger
}

// NewWalletConnector creates the wallet adapter.
func NewWalletConnector(
	scan *service.ScanService,
	chainReg *chains.Registry,
	cfg *config.Config,
	enrich *service.EnrichService,
	filter *service.FilterService,
	assemble *service.AssembleService,
	logger port.Logger,
) *WalletConnector {
	return &WalletConnector{
		scan:   scan,
		chains: chainReg,
		cfg:    cfg,
		pipe:   pipeline{enrich: enrich, filter: filter, assemble: assemble, debug: cfg.Debug},
		logger: logger,
	}
}

// ID implements port.Connector.
func (c *WalletConnector) ID() string { return ConnectorWallet }

// Preview implements port.Connector. The address is validated before any
// network call is made.
func (c *WalletConnector) Preview(ctx context.Context, req entity.PreviewRequest) entity.PreviewResult {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return entity.Failed(entity.ErrEmptyInput, "address is empty")
	}
	if !common.IsHexAddress(address) {
		return entity.Failed(entity.ErrInvalidAddress, fmt.Sprintf("not a valid EVM address: %s", address))
	}
	address = strings.ToLower(address)

	scope := strings.TrimSpace(req.Chain)
	if scope == "" {
		scope = c.cfg.Scan.DefaultScope
	}
	resolved, unknown := c.chains.ResolveScope(scope)

	var warnings []entity.Warning
	if len(unknown) > 0 {
		warnings = append(warnings, entity.Warning{
			Code:    entity.WarnUnknownChainKeys,
			Detail:  fmt.Sprintf("%d unknown chain key(s) ignored", len(unknown)),
			Samples: unknown,
		})
	}

	c.logger.Info("Wallet scan starting", "address", address, "chains", len(resolved))
	outcome := c.scan.Scan(ctx, resolved, address)
	if outcome.FatalErr != nil {
		result := entity.Failed(outcome.FatalErr.Code, outcome.FatalErr.Message)
		result.Warnings = append(warnings, outcome.Warnings...)
		return result
	}
	warnings = append(warnings, outcome.Warnings...)

	if len(outcome.Positions) == 0 {
		result := entity.PreviewResult{
			OK:       false,
			Summary:  fmt.Sprintf("no holdings found for %s on the scanned chains", address),
			Warnings: warnings,
		}
		return result
	}

	return c.pipe.finish(ctx, outcome.Positions, warnings)
}
