package port

import (
	"context"

	"portfolio_preview/internal/domain/entity"
)

// Connector turns one source-specific payload into a PreviewResult.
// Preview never returns a Go error: every failure folds into
// PreviewResult{OK: false, Errors: ...}.
type Connector interface {
	ID() string
	Preview(ctx context.Context, req entity.PreviewRequest) entity.PreviewResult
}
