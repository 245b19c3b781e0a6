package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid = errors.New("invoice is already paid")
)

// MarkPaidRequest settles an invoice out of band. Empty fields keep what the
// invoice already has.
type MarkPaidRequest struct {
	PaymentMethod     string `json:"payment_method" binding:"omitempty,max=50"`
	ExternalInvoiceID string `json:"external_invoice_id" binding:"omitempty,max=255"`
}

type Invoice struct {
	ID                 int        `db:"id" json:"id"`
	UserID             int        `db:"user_id" json:"user_id"`
	SubscriptionID     *int       `db:"subscription_id" json:"subscription_id,omitempty"`
	Number             string     `db:"invoice_number" json:"invoice_number"`
	InvoiceDate        time.Time  `db:"invoice_date" json:"invoice_date"`
	DueDate            *time.Time `db:"due_date" json:"due_date,omitempty"`
	SubtotalCents      int64      `db:"subtotal_cents" json:"subtotal_cents"`
	TaxCents           int64      `db:"tax_cents" json:"tax_cents"`
	TotalCents         int64      `db:"total_cents" json:"total_cents"`
	Currency           string     `db:"currency" json:"currency"`
	Status             Status     `db:"status" json:"status"`
	PlanName           string     `db:"plan_name" json:"plan_name"`
	BillingPeriod      string     `db:"billing_period" json:"billing_period"`
	BillingPeriodStart *time.Time `db:"billing_period_start" json:"billing_period_start,omitempty"`
	BillingPeriodEnd   *time.Time `db:"billing_period_end" json:"billing_period_end,omitempty"`
	PaymentMethod      string     `db:"payment_method" json:"payment_method"`
	ExternalInvoiceID  *string    `db:"external_invoice_id" json:"-"`
	PaidAt             *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`

	LineItems []LineItem `db:"-" json:"line_items,omitempty"`
}

type LineItem struct {
	ID             int        `db:"id" json:"id"`
	InvoiceID      int        `db:"invoice_id" json:"invoice_id"`
	Description    string     `db:"description" json:"description"`
	Quantity       int        `db:"quantity" json:"quantity"`
	UnitPriceCents int64      `db:"unit_price_cents" json:"unit_price_cents"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	ProductType    string     `db:"product_type" json:"product_type"`
	PeriodStart    *time.Time `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd      *time.Time `db:"period_end" json:"period_end,omitempty"`
}

// Stats aggregates a user's invoices by status.
type Stats struct {
	TotalPaidCents      int64 `db:"total_paid" json:"total_paid_cents"`
	TotalPendingCents   int64 `db:"total_pending" json:"total_pending_cents"`
	TotalFailedCents    int64 `db:"total_failed" json:"total_failed_cents"`
	InvoiceCount        int   `db:"invoice_count" json:"invoice_count"`
	PaidCount           int   `db:"paid_count" json:"paid_count"`
	AveragePaymentCents int64 `db:"average_payment" json:"average_payment_cents"`
}

type Summary struct {
	Stats
	RecentInvoices []Invoice `json:"recent_invoices"`
}

// GenerateNumber returns a unique invoice number of the form INV-YYYY-XXXXXXXX.
func GenerateNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "INV-" + now.Format("2006") + "-" + suffix
}

// PeriodLabel names a billing period the way invoices show it, e.g. "March 2025".
func PeriodLabel(start *time.Time) string {
	if start == nil {
		return ""
	}
	return start.Format("January 2006")
}
