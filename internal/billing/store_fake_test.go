package billing

import (
	"context"
	"sync"
)

type memStore struct {
	mu       sync.Mutex
	invoices []Invoice
	failNext error
}

func (m *memStore) InTx(ctx context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := append([]Invoice(nil), m.invoices...)
	if err := fn(m); err != nil {
		m.invoices = snapshot
		return err
	}
	return nil
}

func (m *memStore) Create(ctx context.Context, inv *Invoice) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	inv.ID = len(m.invoices) + 1
	for i := range inv.LineItems {
		inv.LineItems[i].ID = i + 1
		inv.LineItems[i].InvoiceID = inv.ID
	}
	m.invoices = append(m.invoices, *inv)
	return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int, status Status, limit, offset int) ([]Invoice, error) {
	out := []Invoice{}
	for i := len(m.invoices) - 1; i >= 0; i-- {
		inv := m.invoices[i]
		if inv.UserID == userID && (status == "" || inv.Status == status) {
			out = append(out, inv)
		}
	}
	if offset >= len(out) {
		return []Invoice{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetByNumber(ctx context.Context, userID int, number string) (*Invoice, error) {
	for _, inv := range m.invoices {
		if inv.UserID == userID && inv.Number == number {
			return &inv, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (m *memStore) LockByNumber(ctx context.Context, number string) (*Invoice, error) {
	for _, inv := range m.invoices {
		if inv.Number == number {
			return &inv, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (m *memStore) SavePayment(ctx context.Context, inv *Invoice) error {
	for i := range m.invoices {
		if m.invoices[i].ID == inv.ID {
			m.invoices[i].Status = inv.Status
			m.invoices[i].PaidAt = inv.PaidAt
			m.invoices[i].PaymentMethod = inv.PaymentMethod
			m.invoices[i].ExternalInvoiceID = inv.ExternalInvoiceID
		}
	}
	return nil
}

func (m *memStore) ExternalExists(ctx context.Context, externalID string) (bool, error) {
	for _, inv := range m.invoices {
		if inv.ExternalInvoiceID != nil && *inv.ExternalInvoiceID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Stats(ctx context.Context, userID int) (*Stats, error) {
	var s Stats
	for _, inv := range m.invoices {
		if inv.UserID != userID {
			continue
		}
		s.InvoiceCount++
		switch inv.Status {
		case StatusPaid:
			s.TotalPaidCents += inv.TotalCents
			s.PaidCount++
		case StatusPending:
			s.TotalPendingCents += inv.TotalCents
		case StatusFailed:
			s.TotalFailedCents += inv.TotalCents
		}
	}
	if s.PaidCount > 0 {
		s.AveragePaymentCents = s.TotalPaidCents / int64(s.PaidCount)
	}
	return &s, nil
}
