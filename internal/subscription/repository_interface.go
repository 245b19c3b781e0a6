package subscription

import (
	"context"
	"time"
)

type Repository interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlan(ctx context.Context, planID int) (*Plan, error)
	// GetPlanByID also returns retired plans.
	GetPlanByID(ctx context.Context, planID int) (*Plan, error)
	CreatePlan(ctx context.Context, p *Plan) error
	UpdatePlan(ctx context.Context, p *Plan) error
	// ListUserSubscriptions returns users with their active subscription; Total
	// on each row carries the unpaged match count.
	ListUserSubscriptions(ctx context.Context, f UserSubscriptionFilter) ([]UserSubscription, error)

	GetActiveByUser(ctx context.Context, userID int) (*Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]Subscription, error)
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*Subscription, error)
	ListExpired(ctx context.Context, now time.Time) ([]Subscription, error)

	Create(ctx context.Context, sub *Subscription) error
	DeactivateForUser(ctx context.Context, userID int) (int64, error)
	Deactivate(ctx context.Context, subID int) error
	UpdatePeriod(ctx context.Context, subID int, start, end time.Time) error
	UpdateAICreditsLimit(ctx context.Context, subID, limit int) error

	// User-row bookkeeping owned by the subscription lifecycle.
	LockUser(ctx context.Context, userID int) error
	ResetTokens(ctx context.Context, userID int) error
	MarkFreeLimitsUsed(ctx context.Context, userID int) error
	HasAnyResource(ctx context.Context, userID int) (bool, error)
}

// Store is a Repository that can also run a function inside one transaction.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}
