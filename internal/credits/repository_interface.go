package credits

import (
	"context"

	"cvcraft/internal/subscription"
)

type Repository interface {
	// LockBalance reads the pools and holds the user row until the transaction ends.
	LockBalance(ctx context.Context, userID int) (*Balance, error)
	GetBalance(ctx context.Context, userID int) (*Balance, error)
	ActiveSubscription(ctx context.Context, userID int) (*subscription.Subscription, error)
	SaveBalance(ctx context.Context, b *Balance) error
	InsertTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
}

type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}
