package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cvcraft/internal/logger"
	"cvcraft/internal/subscription"
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ProviderInvoice is a provider-side invoice for a renewed period.
type ProviderInvoice struct {
	ExternalID  string
	AmountCents int64
	Currency    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Paid        bool
}

// RecordSubscriptionPayment stores a paid invoice for the subscription's current period.
func (s *Service) RecordSubscriptionPayment(ctx context.Context, sub *subscription.Subscription, method, externalID string) error {
	var external *string
	if externalID != "" {
		external = &externalID
	}
	inv := s.subscriptionInvoice(sub, sub.PriceCents, sub.Currency, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, method, external, StatusPaid)
	return s.create(ctx, inv)
}

// RecordProviderInvoice stores a renewal invoice reported by the payment
// provider. Replays of the same external invoice are ignored.
func (s *Service) RecordProviderInvoice(ctx context.Context, sub *subscription.Subscription, pi ProviderInvoice) error {
	exists, err := s.store.ExternalExists(ctx, pi.ExternalID)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("provider invoice already recorded", "external_id", pi.ExternalID)
		return nil
	}

	status := StatusFailed
	if pi.Paid {
		status = StatusPaid
	}
	currency := strings.ToUpper(pi.Currency)
	if currency == "" {
		currency = sub.Currency
	}
	inv := s.subscriptionInvoice(sub, pi.AmountCents, currency, &pi.PeriodStart, &pi.PeriodEnd,
		string(subscription.ProviderStripe), &pi.ExternalID, status)
	return s.create(ctx, inv)
}

func (s *Service) subscriptionInvoice(sub *subscription.Subscription, amount int64, currency string,
	start, end *time.Time, method string, external *string, status Status) *Invoice {
	now := s.now()
	subID := sub.ID

	inv := &Invoice{
		UserID:             sub.UserID,
		SubscriptionID:     &subID,
		Number:             GenerateNumber(now),
		InvoiceDate:        now,
		SubtotalCents:      amount,
		TotalCents:         amount,
		Currency:           currency,
		Status:             status,
		PlanName:           sub.Name,
		BillingPeriod:      PeriodLabel(start),
		BillingPeriodStart: start,
		BillingPeriodEnd:   end,
		PaymentMethod:      method,
		ExternalInvoiceID:  external,
		LineItems: []LineItem{{
			Description:    fmt.Sprintf("%s subscription (%s)", sub.Name, sub.Interval),
			Quantity:       1,
			UnitPriceCents: amount,
			TotalCents:     amount,
			ProductType:    "subscription",
			PeriodStart:    start,
			PeriodEnd:      end,
		}},
	}
	if status == StatusPaid {
		inv.PaidAt = &now
	}
	return inv
}

func (s *Service) create(ctx context.Context, inv *Invoice) error {
	err := s.store.InTx(ctx, func(repo Repository) error {
		return repo.Create(ctx, inv)
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	logger.Info("invoice recorded", "user_id", inv.UserID, "invoice_number", inv.Number,
		"status", string(inv.Status), "total_cents", inv.TotalCents)
	return nil
}

// MarkPaid settles a pending or failed invoice by number.
func (s *Service) MarkPaid(ctx context.Context, number string, req MarkPaidRequest) (*Invoice, error) {
	var inv *Invoice
	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := repo.LockByNumber(ctx, number)
		if err != nil {
			return err
		}
		if current.Status == StatusPaid {
			return ErrInvoiceAlreadyPaid
		}

		now := s.now()
		current.Status = StatusPaid
		current.PaidAt = &now
		if req.PaymentMethod != "" {
			current.PaymentMethod = req.PaymentMethod
		}
		if req.ExternalInvoiceID != "" {
			external := req.ExternalInvoiceID
			current.ExternalInvoiceID = &external
		}
		if err := repo.SavePayment(ctx, current); err != nil {
			return err
		}
		inv = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("invoice marked paid", "invoice_number", inv.Number, "user_id", inv.UserID)
	return inv, nil
}

func (s *Service) History(ctx context.Context, userID int, status Status, limit, offset int) ([]Invoice, error) {
	return s.store.ListByUser(ctx, userID, status, limit, offset)
}

func (s *Service) Get(ctx context.Context, userID int, number string) (*Invoice, error) {
	return s.store.GetByNumber(ctx, userID, number)
}

func (s *Service) Summary(ctx context.Context, userID int) (*Summary, error) {
	stats, err := s.store.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.ListByUser(ctx, userID, "", 5, 0)
	if err != nil {
		return nil, err
	}
	return &Summary{Stats: *stats, RecentInvoices: recent}, nil
}
