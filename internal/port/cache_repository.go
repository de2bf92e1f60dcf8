package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency clears a key so a rejected command can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
