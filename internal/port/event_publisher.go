package port

import (
	"context"

	"github.com/provly/provenance/internal/core/domain"
)

type EventPublisher interface {
	// Publish fans one notification out to external indexers; called once per
	// successful mutating call, after state is committed
	Publish(ctx context.Context, event domain.Event) error
}
