package subscription

import (
	"context"
	"sort"
	"sync"
	"time"
)

type fakeUser struct {
	tokensUsed   int
	usedFree     bool
	hasResources bool
}

// memStore keeps everything in maps; InTx serialises callers and rolls back on error.
type memStore struct {
	mu     sync.Mutex
	plans  map[int]Plan
	subs   []Subscription
	users  map[int]*fakeUser
	nextID int
	failOn string

	// beforeTx runs once ahead of the next InTx, standing in for a commit
	// that lands between a read and the user lock.
	beforeTx func()
}

func newMemStore() *memStore {
	return &memStore{plans: map[int]Plan{}, users: map[int]*fakeUser{}, nextID: 1}
}

func (m *memStore) InTx(ctx context.Context, fn func(Repository) error) error {
	if hook := m.beforeTx; hook != nil {
		m.beforeTx = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := append([]Subscription(nil), m.subs...)
	users := map[int]fakeUser{}
	for id, u := range m.users {
		users[id] = *u
	}

	if err := fn(m); err != nil {
		m.subs = subs
		for id, u := range users {
			u := u
			m.users[id] = &u
		}
		return err
	}
	return nil
}

func (m *memStore) ListPlans(ctx context.Context) ([]Plan, error) {
	out := []Plan{}
	for _, p := range m.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

func (m *memStore) GetPlan(ctx context.Context, planID int) (*Plan, error) {
	p, ok := m.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (m *memStore) GetPlanByID(ctx context.Context, planID int) (*Plan, error) {
	return m.GetPlan(ctx, planID)
}

func (m *memStore) CreatePlan(ctx context.Context, p *Plan) error {
	for _, existing := range m.plans {
		if existing.Name == p.Name {
			return ErrPlanExists
		}
	}
	p.ID = len(m.plans) + 1
	for _, taken := m.plans[p.ID]; taken; _, taken = m.plans[p.ID] {
		p.ID++
	}
	p.CreatedAt = time.Now()
	m.plans[p.ID] = *p
	return nil
}

func (m *memStore) UpdatePlan(ctx context.Context, p *Plan) error {
	if _, ok := m.plans[p.ID]; !ok {
		return ErrPlanNotFound
	}
	for id, existing := range m.plans {
		if id != p.ID && existing.Name == p.Name {
			return ErrPlanExists
		}
	}
	m.plans[p.ID] = *p
	return nil
}

func (m *memStore) ListUserSubscriptions(ctx context.Context, f UserSubscriptionFilter) ([]UserSubscription, error) {
	ids := make([]int, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	matched := []UserSubscription{}
	for _, id := range ids {
		row := UserSubscription{UserID: id, TokensUsed: m.users[id].tokensUsed}
		if sub, err := m.GetActiveByUser(ctx, id); err == nil {
			row.SubscriptionID, row.PlanName, row.AICreditsLimit = &sub.ID, &sub.Name, &sub.AICreditsLimit
		} else if f.ActiveOnly {
			continue
		}
		matched = append(matched, row)
	}
	for i := range matched {
		matched[i].Total = len(matched)
	}

	if f.Offset >= len(matched) {
		return []UserSubscription{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (m *memStore) GetActiveByUser(ctx context.Context, userID int) (*Subscription, error) {
	var best *Subscription
	for i := range m.subs {
		s := m.subs[i]
		if s.UserID != userID || !s.IsActive {
			continue
		}
		if best == nil || s.AICreditsLimit > best.AICreditsLimit ||
			(s.AICreditsLimit == best.AICreditsLimit && s.CreatedAt.After(best.CreatedAt)) {
			best = &s
		}
	}
	if best == nil {
		return nil, ErrNoActiveSubscription
	}
	return best, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int) ([]Subscription, error) {
	out := []Subscription{}
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetByProviderID(ctx context.Context, id string) (*Subscription, error) {
	for i := len(m.subs) - 1; i >= 0; i-- {
		s := m.subs[i]
		if s.ProviderSubscriptionID != nil && *s.ProviderSubscriptionID == id {
			return &s, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func (m *memStore) ListExpired(ctx context.Context, now time.Time) ([]Subscription, error) {
	out := []Subscription{}
	for _, s := range m.subs {
		if s.IsActive && s.PaymentProvider == ProviderManual && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, sub *Subscription) error {
	sub.ID = m.nextID
	m.nextID++
	sub.CreatedAt = time.Now()
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *memStore) DeactivateForUser(ctx context.Context, userID int) (int64, error) {
	var n int64
	for i := range m.subs {
		if m.subs[i].UserID == userID && m.subs[i].IsActive {
			m.subs[i].IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *memStore) byID(id int) *Subscription {
	for i := range m.subs {
		if m.subs[i].ID == id {
			return &m.subs[i]
		}
	}
	return nil
}

func (m *memStore) Deactivate(ctx context.Context, subID int) error {
	if s := m.byID(subID); s != nil {
		s.IsActive = false
	}
	return nil
}

func (m *memStore) UpdatePeriod(ctx context.Context, subID int, start, end time.Time) error {
	if s := m.byID(subID); s != nil {
		s.CurrentPeriodStart, s.CurrentPeriodEnd = &start, &end
	}
	return nil
}

func (m *memStore) UpdateAICreditsLimit(ctx context.Context, subID, limit int) error {
	if s := m.byID(subID); s != nil {
		s.AICreditsLimit = limit
	}
	return nil
}

func (m *memStore) LockUser(ctx context.Context, userID int) error {
	if _, ok := m.users[userID]; !ok {
		return ErrUserNotFound
	}
	return nil
}

func (m *memStore) ResetTokens(ctx context.Context, userID int) error {
	if m.failOn == "ResetTokens" {
		return errBoom
	}
	m.users[userID].tokensUsed = 0
	return nil
}

func (m *memStore) MarkFreeLimitsUsed(ctx context.Context, userID int) error {
	m.users[userID].usedFree = true
	return nil
}

func (m *memStore) HasAnyResource(ctx context.Context, userID int) (bool, error) {
	return m.users[userID].hasResources, nil
}
