package billing

import (
	"context"
)

type Repository interface {
	// Create inserts the invoice and its line items.
	Create(ctx context.Context, inv *Invoice) error
	ListByUser(ctx context.Context, userID int, status Status, limit, offset int) ([]Invoice, error)
	GetByNumber(ctx context.Context, userID int, number string) (*Invoice, error)
	// LockByNumber loads an invoice of any user and holds its row until the
	// transaction ends.
	LockByNumber(ctx context.Context, number string) (*Invoice, error)
	SavePayment(ctx context.Context, inv *Invoice) error
	ExternalExists(ctx context.Context, externalID string) (bool, error)
	Stats(ctx context.Context, userID int) (*Stats, error)
}

type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}
