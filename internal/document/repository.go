package document

import (
	"context"
	"time"

	"cvcraft/internal/db"
	"cvcraft/internal/usage"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{q: q}
}

func (r *repository) Create(ctx context.Context, d *Document) error {
	table, err := tableFor(d.Kind)
	if err != nil {
		return err
	}

	return sqlx.GetContext(ctx, r.q, d, `
		INSERT INTO `+table+` (user_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, title, content, created_at
	`, d.UserID, d.Title, d.Content)
}

func (r *repository) ListByUser(ctx context.Context, userID int, kind usage.Resource) ([]Document, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	docs := []Document{}
	err = sqlx.SelectContext(ctx, r.q, &docs, `
		SELECT id, user_id, title, content, created_at
		FROM `+table+`
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Kind = kind
	}
	return docs, nil
}

func (r *repository) Count(ctx context.Context, userID int, kind usage.Resource, since *time.Time) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var n int
	if since == nil {
		err = sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID)
	} else {
		err = sqlx.GetContext(ctx, r.q, &n,
			`SELECT COUNT(*) FROM `+table+` WHERE user_id = $1 AND created_at >= $2`, userID, *since)
	}
	return n, err
}
