package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cvcraft/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrNoActiveSubscription = errors.New("no active subscription found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionChanged  = errors.New("subscription changed, please retry")
	ErrPlanExists           = errors.New("a plan with this name already exists")
)

const subscriptionColumns = `id, user_id, plan_id, name, price_cents, currency, interval, is_active,
	resume_limit, cover_letter_limit, ai_credits_limit, payment_provider, provider_subscription_id,
	current_period_start, current_period_end, created_at, updated_at`

const planColumns = `id, name, description, price_cents, currency, interval, resume_limit,
	cover_letter_limit, ai_credits_limit, stripe_price_id, is_active, created_at`

type repository struct {
	q db.Querier
}

// NewRepository binds the repository to a *sqlx.DB or a *sqlx.Tx.
func NewRepository(q db.Querier) Repository {
	return &repository{q: q}
}

type store struct {
	Repository
	db *sqlx.DB
}

func NewStore(database *sqlx.DB) Store {
	return &store{Repository: NewRepository(database), db: database}
}

func (s *store) InTx(ctx context.Context, fn func(Repository) error) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	err := sqlx.SelectContext(ctx, r.q, &plans, `
		SELECT `+planColumns+`
		FROM plans
		WHERE is_active
		ORDER BY price_cents
	`)
	return plans, err
}

func (r *repository) GetPlan(ctx context.Context, planID int) (*Plan, error) {
	var p Plan
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1 AND is_active`, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetPlanByID(ctx context.Context, planID int) (*Plan, error) {
	var p Plan
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreatePlan(ctx context.Context, p *Plan) error {
	err := sqlx.GetContext(ctx, r.q, p, `
		INSERT INTO plans (name, description, price_cents, currency, interval, resume_limit,
			cover_letter_limit, ai_credits_limit, stripe_price_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+planColumns,
		p.Name, p.Description, p.PriceCents, p.Currency, p.Interval, p.ResumeLimit,
		p.CoverLetterLimit, p.AICreditsLimit, p.StripePriceID, p.IsActive,
	)
	if db.IsUniqueViolation(err) {
		return ErrPlanExists
	}
	return err
}

func (r *repository) UpdatePlan(ctx context.Context, p *Plan) error {
	err := sqlx.GetContext(ctx, r.q, p, `
		UPDATE plans
		SET name = $1, description = $2, price_cents = $3, currency = $4, interval = $5,
			resume_limit = $6, cover_letter_limit = $7, ai_credits_limit = $8,
			stripe_price_id = $9, is_active = $10
		WHERE id = $11
		RETURNING `+planColumns,
		p.Name, p.Description, p.PriceCents, p.Currency, p.Interval, p.ResumeLimit,
		p.CoverLetterLimit, p.AICreditsLimit, p.StripePriceID, p.IsActive, p.ID,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrPlanNotFound
	case db.IsUniqueViolation(err):
		return ErrPlanExists
	}
	return err
}

func (r *repository) ListUserSubscriptions(ctx context.Context, f UserSubscriptionFilter) ([]UserSubscription, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}

	rows := []UserSubscription{}
	err := sqlx.SelectContext(ctx, r.q, &rows, `
		SELECT u.id AS user_id, u.name AS user_name, u.email, u.subscription_tokens_used,
			s.id AS subscription_id, s.name AS plan_name, s.ai_credits_limit,
			s.payment_provider, s.current_period_end,
			COUNT(*) OVER () AS total
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id AND s.is_active
		WHERE ($1 = '' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR s.id IS NOT NULL)
		ORDER BY u.id
		LIMIT $3 OFFSET $4
	`, f.Search, f.ActiveOnly, f.Limit, f.Offset)
	return rows, err
}

// GetActiveByUser picks the richest active row, newest first, if more than one slipped through.
func (r *repository) GetActiveByUser(ctx context.Context, userID int) (*Subscription, error) {
	var sub Subscription
	err := sqlx.GetContext(ctx, r.q, &sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND is_active
		ORDER BY ai_credits_limit DESC, created_at DESC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Subscription, error) {
	subs := []Subscription{}
	err := sqlx.SelectContext(ctx, r.q, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return subs, err
}

func (r *repository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*Subscription, error) {
	var sub Subscription
	err := sqlx.GetContext(ctx, r.q, &sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE provider_subscription_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, providerSubscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListExpired returns active manual subscriptions whose period ended before now.
// Stripe-backed rows are left to the provider's webhooks.
func (r *repository) ListExpired(ctx context.Context, now time.Time) ([]Subscription, error) {
	subs := []Subscription{}
	err := sqlx.SelectContext(ctx, r.q, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active
		  AND payment_provider = 'manual'
		  AND current_period_end IS NOT NULL
		  AND current_period_end < $1
		ORDER BY current_period_end
	`, now)
	return subs, err
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	return sqlx.GetContext(ctx, r.q, sub, `
		INSERT INTO subscriptions (user_id, plan_id, name, price_cents, currency, interval, is_active,
			resume_limit, cover_letter_limit, ai_credits_limit, payment_provider, provider_subscription_id,
			current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.PlanID, sub.Name, sub.PriceCents, sub.Currency, sub.Interval, sub.IsActive,
		sub.ResumeLimit, sub.CoverLetterLimit, sub.AICreditsLimit, sub.PaymentProvider, sub.ProviderSubscriptionID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
	)
}

func (r *repository) DeactivateForUser(ctx context.Context, userID int) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_active
	`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) Deactivate(ctx context.Context, subID int) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, subID)
	return err
}

func (r *repository) UpdatePeriod(ctx context.Context, subID int, start, end time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions
		SET current_period_start = $1, current_period_end = $2, updated_at = NOW()
		WHERE id = $3
	`, start, end, subID)
	return err
}

func (r *repository) UpdateAICreditsLimit(ctx context.Context, subID, limit int) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE subscriptions
		SET ai_credits_limit = $1, updated_at = NOW()
		WHERE id = $2
	`, limit, subID)
	return err
}

func (r *repository) LockUser(ctx context.Context, userID int) error {
	var id int
	err := sqlx.GetContext(ctx, r.q, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (r *repository) ResetTokens(ctx context.Context, userID int) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET subscription_tokens_used = 0, updated_at = NOW()
		WHERE id = $1
	`, userID)
	return err
}

func (r *repository) MarkFreeLimitsUsed(ctx context.Context, userID int) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET has_used_free_limits = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT has_used_free_limits
	`, userID)
	return err
}

func (r *repository) HasAnyResource(ctx context.Context, userID int) (bool, error) {
	return db.Exists(ctx, r.q, `
		SELECT EXISTS(SELECT 1 FROM resumes WHERE user_id = $1)
		    OR EXISTS(SELECT 1 FROM cover_letters WHERE user_id = $1)
	`, userID)
}
