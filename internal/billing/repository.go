package billing

import (
	"context"
	"database/sql"
	"errors"

	"cvcraft/internal/db"

	"github.com/jmoiron/sqlx"
)

const invoiceColumns = `id, user_id, subscription_id, invoice_number, invoice_date, due_date, subtotal_cents,
	tax_cents, total_cents, currency, status, plan_name, billing_period, billing_period_start,
	billing_period_end, payment_method, external_invoice_id, paid_at, created_at`

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

func (r *repository) Create(ctx context.Context, inv *Invoice) error {
	err := sqlx.GetContext(ctx, r.q, inv, `
		INSERT INTO invoices (user_id, subscription_id, invoice_number, invoice_date, due_date,
			subtotal_cents, tax_cents, total_cents, currency, status, plan_name, billing_period,
			billing_period_start, billing_period_end, payment_method, external_invoice_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+invoiceColumns,
		inv.UserID, inv.SubscriptionID, inv.Number, inv.InvoiceDate, inv.DueDate,
		inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.Currency, inv.Status, inv.PlanName, inv.BillingPeriod,
		inv.BillingPeriodStart, inv.BillingPeriodEnd, inv.PaymentMethod, inv.ExternalInvoiceID, inv.PaidAt,
	)
	if err != nil {
		return err
	}

	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		item.InvoiceID = inv.ID
		err := sqlx.GetContext(ctx, r.q, &item.ID, `
			INSERT INTO invoice_line_items (invoice_id, description, quantity, unit_price_cents,
				total_cents, product_type, period_start, period_end)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, item.InvoiceID, item.Description, item.Quantity, item.UnitPriceCents,
			item.TotalCents, item.ProductType, item.PeriodStart, item.PeriodEnd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int, status Status, limit, offset int) ([]Invoice, error) {
	if limit <= 0 {
		limit = 20
	}

	invoices := []Invoice{}
	err := sqlx.SelectContext(ctx, r.q, &invoices, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY invoice_date DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userID, string(status), limit, offset)
	return invoices, err
}

func (r *repository) GetByNumber(ctx context.Context, userID int, number string) (*Invoice, error) {
	var inv Invoice
	err := sqlx.GetContext(ctx, r.q, &inv, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE invoice_number = $1 AND user_id = $2
	`, number, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}

	inv.LineItems = []LineItem{}
	err = sqlx.SelectContext(ctx, r.q, &inv.LineItems, `
		SELECT id, invoice_id, description, quantity, unit_price_cents, total_cents,
			product_type, period_start, period_end
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY id
	`, inv.ID)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) LockByNumber(ctx context.Context, number string) (*Invoice, error) {
	var inv Invoice
	err := sqlx.GetContext(ctx, r.q, &inv, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE invoice_number = $1
		FOR UPDATE
	`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) SavePayment(ctx context.Context, inv *Invoice) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE invoices
		SET status = $1, paid_at = $2, payment_method = $3, external_invoice_id = $4
		WHERE id = $5
	`, inv.Status, inv.PaidAt, inv.PaymentMethod, inv.ExternalInvoiceID, inv.ID)
	return err
}

func (r *repository) ExternalExists(ctx context.Context, externalID string) (bool, error) {
	return db.Exists(ctx, r.q, `SELECT EXISTS(SELECT 1 FROM invoices WHERE external_invoice_id = $1)`, externalID)
}

func (r *repository) Stats(ctx context.Context, userID int) (*Stats, error) {
	var s Stats
	err := sqlx.GetContext(ctx, r.q, &s, `
		SELECT
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'paid'), 0) AS total_paid,
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'pending'), 0) AS total_pending,
			COALESCE(SUM(total_cents) FILTER (WHERE status = 'failed'), 0) AS total_failed,
			COUNT(*) AS invoice_count,
			COUNT(*) FILTER (WHERE status = 'paid') AS paid_count,
			COALESCE(AVG(total_cents) FILTER (WHERE status = 'paid'), 0)::BIGINT AS average_payment
		FROM invoices
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
