package credits

import (
	"context"
	"errors"
	"sync"
	"time"

	"cvcraft/internal/subscription"
)

var errInsertFailed = errors.New("insert failed")

// memStore serialises transactions with one mutex, which is what the user
// row lock gives the SQL store, and discards writes when fn fails.
type memStore struct {
	mu         sync.Mutex
	balances   map[int]Balance
	subs       map[int]*subscription.Subscription
	txs        []Transaction
	failInsert bool
}

func newMemStore() *memStore {
	return &memStore{balances: map[int]Balance{}, subs: map[int]*subscription.Subscription{}}
}

type memTx struct {
	s        *memStore
	balances map[int]Balance
	txs      []Transaction
}

func (m *memStore) InTx(ctx context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{s: m, balances: map[int]Balance{}}
	for k, v := range m.balances {
		tx.balances[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.balances = tx.balances
	m.txs = append(m.txs, tx.txs...)
	return nil
}

func (m *memStore) snapshot(userID int) Balance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

func (m *memStore) LockBalance(ctx context.Context, userID int) (*Balance, error) {
	return m.GetBalance(ctx, userID)
}

func (m *memStore) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	b, ok := m.balances[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &b, nil
}

func (m *memStore) ActiveSubscription(ctx context.Context, userID int) (*subscription.Subscription, error) {
	return m.subs[userID], nil
}

func (m *memStore) SaveBalance(ctx context.Context, b *Balance) error {
	m.balances[b.UserID] = *b
	return nil
}

func (m *memStore) InsertTransaction(ctx context.Context, t *Transaction) error {
	m.txs = append(m.txs, *t)
	return nil
}

func (m *memStore) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	out := []Transaction{}
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].UserID == userID {
			out = append(out, m.txs[i])
		}
	}
	if offset >= len(out) {
		return []Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) LockBalance(ctx context.Context, userID int) (*Balance, error) {
	b, ok := t.balances[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &b, nil
}

func (t *memTx) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	return t.LockBalance(ctx, userID)
}

func (t *memTx) ActiveSubscription(ctx context.Context, userID int) (*subscription.Subscription, error) {
	return t.s.subs[userID], nil
}

func (t *memTx) SaveBalance(ctx context.Context, b *Balance) error {
	t.balances[b.UserID] = *b
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, tr *Transaction) error {
	if t.s.failInsert {
		return errInsertFailed
	}
	tr.ID = len(t.s.txs) + len(t.txs) + 1
	tr.CreatedAt = time.Now()
	t.txs = append(t.txs, *tr)
	return nil
}

func (t *memTx) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	return t.s.ListTransactions(ctx, userID, limit, offset)
}
