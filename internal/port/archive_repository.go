package port

import (
	"context"

	"github.com/provly/provenance/internal/core/domain"
)

type ArchiveRepository interface {
	// Save durably mirrors one record: the item snapshot plus its ledger
	// entry, if any, in a single database transaction
	Save(ctx context.Context, rec domain.Record) error
}
