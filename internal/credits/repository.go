package credits

import (
	"context"
	"database/sql"
	"errors"

	"cvcraft/internal/db"
	"cvcraft/internal/subscription"

	"github.com/jmoiron/sqlx"
)

const balanceColumns = `id, bonus_credits, subscription_tokens_used, has_used_free_limits`

type repository struct {
	q db.Querier
}

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

func (r *repository) LockBalance(ctx context.Context, userID int) (*Balance, error) {
	return r.balance(ctx, `SELECT `+balanceColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
}

func (r *repository) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	return r.balance(ctx, `SELECT `+balanceColumns+` FROM users WHERE id = $1`, userID)
}

func (r *repository) balance(ctx context.Context, query string, userID int) (*Balance, error) {
	var b Balance
	err := sqlx.GetContext(ctx, r.q, &b, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ActiveSubscription(ctx context.Context, userID int) (*subscription.Subscription, error) {
	sub, err := subscription.NewRepository(r.q).GetActiveByUser(ctx, userID)
	if errors.Is(err, subscription.ErrNoActiveSubscription) {
		return nil, nil
	}
	return sub, err
}

func (r *repository) SaveBalance(ctx context.Context, b *Balance) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET bonus_credits = $1, subscription_tokens_used = $2, updated_at = NOW()
		WHERE id = $3
	`, b.BonusCredits, b.SubscriptionTokensUsed, b.UserID)
	return err
}

func (r *repository) InsertTransaction(ctx context.Context, t *Transaction) error {
	return sqlx.GetContext(ctx, r.q, t, `
		INSERT INTO credit_transactions (user_id, kind, feature, amount, bonus_delta,
			subscription_delta, bonus_after, tokens_used_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, kind, feature, amount, bonus_delta, subscription_delta,
			bonus_after, tokens_used_after, created_at
	`, t.UserID, t.Kind, t.Feature, t.Amount, t.BonusDelta, t.SubscriptionDelta, t.BonusAfter, t.TokensUsedAfter)
}

func (r *repository) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := sqlx.SelectContext(ctx, r.q, &txs, `
		SELECT id, user_id, kind, feature, amount, bonus_delta, subscription_delta,
			bonus_after, tokens_used_after, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return txs, err
}
