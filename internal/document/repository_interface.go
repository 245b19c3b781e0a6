package document

import (
	"context"
	"time"

	"cvcraft/internal/usage"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	ListByUser(ctx context.Context, userID int, r usage.Resource) ([]Document, error)
	// Count implements usage.ResourceCounter.
	Count(ctx context.Context, userID int, r usage.Resource, since *time.Time) (int, error)
}
