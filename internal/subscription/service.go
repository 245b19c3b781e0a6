package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cvcraft/internal/logger"
	"cvcraft/internal/metrics"
)

// PaymentGateway is the external billing provider.
type PaymentGateway interface {
	CreateSubscription(ctx context.Context, userID int, priceID, paymentMethodID string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, providerSubscriptionID string) error
}

// InvoiceRecorder stores a paid invoice for a freshly started period.
type InvoiceRecorder interface {
	RecordSubscriptionPayment(ctx context.Context, sub *Subscription, method, externalID string) error
}

// Notifier tells the user about lifecycle changes.
type Notifier interface {
	SubscriptionStarted(ctx context.Context, userID int, sub *Subscription) error
	SubscriptionCancelled(ctx context.Context, userID int, sub *Subscription) error
}

type Service interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetActive(ctx context.Context, userID int) (*Subscription, error)
	History(ctx context.Context, userID int) ([]Subscription, error)
	Subscribe(ctx context.Context, userID int, req SubscribeRequest) (*Subscription, error)
	Cancel(ctx context.Context, userID int) (*Subscription, error)
	SyncProviderPeriod(ctx context.Context, providerSubscriptionID string, start, end time.Time) error
	DeactivateByProviderID(ctx context.Context, providerSubscriptionID string) error
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)

	CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error)
	UpdatePlan(ctx context.Context, planID int, req PlanUpdate) (*Plan, error)
	ListUserSubscriptions(ctx context.Context, f UserSubscriptionFilter) ([]UserSubscription, int, error)
}

type Option func(*service)

func WithGateway(g PaymentGateway) Option { return func(s *service) { s.gateway = g } }
func WithInvoices(r InvoiceRecorder) Option { return func(s *service) { s.invoices = r } }
func WithNotifier(n Notifier) Option { return func(s *service) { s.notifier = n } }
func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

type service struct {
	store    Store
	gateway  PaymentGateway
	invoices InvoiceRecorder
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, opts ...Option) Service {
	s := &service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.store.ListPlans(ctx)
}

func (s *service) GetActive(ctx context.Context, userID int) (*Subscription, error) {
	return s.store.GetActiveByUser(ctx, userID)
}

func (s *service) History(ctx context.Context, userID int) ([]Subscription, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	plan := req.Plan()
	if err := s.store.CreatePlan(ctx, &plan); err != nil {
		return nil, err
	}
	logger.Info("plan created", "plan_id", plan.ID, "name", plan.Name)
	return &plan, nil
}

// UpdatePlan changes the template only; subscriptions already started from
// the plan keep their copied limits.
func (s *service) UpdatePlan(ctx context.Context, planID int, req PlanUpdate) (*Plan, error) {
	var plan *Plan
	err := s.store.InTx(ctx, func(repo Repository) error {
		p, err := repo.GetPlanByID(ctx, planID)
		if err != nil {
			return err
		}
		req.Apply(p)
		if err := repo.UpdatePlan(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("plan updated", "plan_id", plan.ID, "name", plan.Name, "is_active", plan.IsActive)
	return plan, nil
}

func (s *service) ListUserSubscriptions(ctx context.Context, f UserSubscriptionFilter) ([]UserSubscription, int, error) {
	rows, err := s.store.ListUserSubscriptions(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	if len(rows) > 0 {
		total = rows[0].Total
	}
	return rows, total, nil
}

// Subscribe replaces whatever the user had with the plan and starts a fresh period.
func (s *service) Subscribe(ctx context.Context, userID int, req SubscribeRequest) (*Subscription, error) {
	plan, err := s.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	sub := FromPlan(userID, *plan)

	if s.gateway != nil && plan.StripePriceID != nil && req.PaymentMethodID != "" {
		ps, err := s.gateway.CreateSubscription(ctx, userID, *plan.StripePriceID, req.PaymentMethodID)
		if err != nil {
			return nil, fmt.Errorf("create provider subscription: %w", err)
		}
		sub.PaymentProvider = ProviderStripe
		sub.ProviderSubscriptionID = &ps.ID
		sub.CurrentPeriodStart = &ps.PeriodStart
		sub.CurrentPeriodEnd = &ps.PeriodEnd
	}

	var replaced *Subscription
	err = s.store.InTx(ctx, func(repo Repository) error {
		replaced = nil
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}
		prev, err := repo.GetActiveByUser(ctx, userID)
		switch {
		case err == nil:
			replaced = prev
		case !errors.Is(err, ErrNoActiveSubscription):
			return fmt.Errorf("load previous: %w", err)
		}
		if _, err := repo.DeactivateForUser(ctx, userID); err != nil {
			return fmt.Errorf("deactivate previous: %w", err)
		}
		if err := repo.Create(ctx, sub); err != nil {
			return fmt.Errorf("insert subscription: %w", err)
		}
		return HandleRenewalOrUpgrade(ctx, repo, userID, sub, s.now())
	})
	if err != nil {
		// Nothing references the provider subscription we just created.
		if sub.ProviderSubscriptionID != nil {
			s.cancelAtProvider(ctx, *sub.ProviderSubscriptionID, "orphaned")
		}
		return nil, err
	}

	if replaced != nil && replaced.PaymentProvider == ProviderStripe && replaced.ProviderSubscriptionID != nil {
		s.cancelAtProvider(ctx, *replaced.ProviderSubscriptionID, "replaced")
	}

	logger.Info("subscription started", "user_id", userID, "plan", sub.Name, "subscription_id", sub.ID)
	metrics.RecordSubscription(sub.Name)

	if s.invoices != nil {
		method, external := string(sub.PaymentProvider), ""
		if sub.ProviderSubscriptionID != nil {
			external = *sub.ProviderSubscriptionID
		}
		if err := s.invoices.RecordSubscriptionPayment(ctx, sub, method, external); err != nil {
			logger.WithError(err).Error("failed to record subscription invoice")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.SubscriptionStarted(ctx, userID, sub); err != nil {
			logger.WithError(err).Warn("subscription confirmation not queued")
		}
	}

	return sub, nil
}

// HandleRenewalOrUpgrade starts a fresh usage period for sub. It must run in
// the same transaction that created or renewed sub.
func HandleRenewalOrUpgrade(ctx context.Context, repo Repository, userID int, sub *Subscription, now time.Time) error {
	if sub.CurrentPeriodStart == nil {
		start := now
		end := now.Add(sub.Interval.PeriodLength())
		if err := repo.UpdatePeriod(ctx, sub.ID, start, end); err != nil {
			return fmt.Errorf("set period: %w", err)
		}
		sub.CurrentPeriodStart = &start
		sub.CurrentPeriodEnd = &end
	}

	if err := repo.ResetTokens(ctx, userID); err != nil {
		return fmt.Errorf("reset tokens: %w", err)
	}
	return MarkFreeLimitsUsedOnSubscription(ctx, repo, userID)
}

// MarkFreeLimitsUsedOnSubscription closes the free tier for users who already created content.
func MarkFreeLimitsUsedOnSubscription(ctx context.Context, repo Repository, userID int) error {
	has, err := repo.HasAnyResource(ctx, userID)
	if err != nil {
		return fmt.Errorf("count resources: %w", err)
	}
	if !has {
		return nil
	}
	return repo.MarkFreeLimitsUsed(ctx, userID)
}

func (s *service) Cancel(ctx context.Context, userID int) (*Subscription, error) {
	sub, err := s.store.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub.PaymentProvider == ProviderStripe && sub.ProviderSubscriptionID != nil && s.gateway != nil {
		if err := s.gateway.CancelSubscription(ctx, *sub.ProviderSubscriptionID); err != nil {
			return nil, fmt.Errorf("cancel provider subscription: %w", err)
		}
	}

	err = s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}
		// A Subscribe may have committed while the provider call ran.
		current, err := repo.GetActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if current.ID != sub.ID {
			return ErrSubscriptionChanged
		}
		sub = current
		return endSubscription(ctx, repo, sub)
	})
	if err != nil {
		return nil, err
	}

	sub.IsActive = false
	logger.Info("subscription cancelled", "user_id", userID, "subscription_id", sub.ID)
	metrics.RecordCancellation("user")
	s.notifyCancelled(ctx, sub)
	return sub, nil
}

// endSubscription deactivates sub and closes out its usage period.
func endSubscription(ctx context.Context, repo Repository, sub *Subscription) error {
	if err := repo.Deactivate(ctx, sub.ID); err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	if err := repo.ResetTokens(ctx, sub.UserID); err != nil {
		return fmt.Errorf("reset tokens: %w", err)
	}
	return MarkFreeLimitsUsedOnSubscription(ctx, repo, sub.UserID)
}

// SyncProviderPeriod applies a provider-reported billing period. A start that
// moves forward is a renewal and resets the usage period.
func (s *service) SyncProviderPeriod(ctx context.Context, providerSubscriptionID string, start, end time.Time) error {
	sub, err := s.store.GetByProviderID(ctx, providerSubscriptionID)
	if err != nil {
		return err
	}

	renewed := false
	err = s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, sub.UserID); err != nil {
			return err
		}
		current, err := repo.GetByProviderID(ctx, providerSubscriptionID)
		if err != nil {
			return err
		}
		active, err := isActiveRow(ctx, repo, current)
		if err != nil {
			return err
		}
		sub = current

		if sub.AICreditsLimit == 0 {
			if credits := PlanAICredits(sub.Name); credits > 0 {
				if err := repo.UpdateAICreditsLimit(ctx, sub.ID, credits); err != nil {
					return err
				}
				sub.AICreditsLimit = credits
			}
		}

		if err := repo.UpdatePeriod(ctx, sub.ID, start, end); err != nil {
			return err
		}

		renewed = active && sub.CurrentPeriodStart != nil && start.After(*sub.CurrentPeriodStart)
		sub.CurrentPeriodStart = &start
		sub.CurrentPeriodEnd = &end
		if !renewed {
			return nil
		}
		return HandleRenewalOrUpgrade(ctx, repo, sub.UserID, sub, s.now())
	})
	if err != nil {
		return err
	}

	logger.Info("subscription period synced", "subscription_id", sub.ID, "renewed", renewed)
	return nil
}

func (s *service) DeactivateByProviderID(ctx context.Context, providerSubscriptionID string) error {
	sub, err := s.store.GetByProviderID(ctx, providerSubscriptionID)
	if err != nil {
		return err
	}
	if !sub.IsActive {
		return nil
	}

	err = s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, sub.UserID); err != nil {
			return err
		}
		active, err := isActiveRow(ctx, repo, sub)
		if err != nil {
			return err
		}
		if !active {
			return errSkip
		}
		return endSubscription(ctx, repo, sub)
	})
	if errors.Is(err, errSkip) {
		return nil
	}
	if err != nil {
		return err
	}

	sub.IsActive = false
	metrics.RecordCancellation("provider")
	s.notifyCancelled(ctx, sub)
	return nil
}

// ExpireLapsed ends manual subscriptions whose period is over and reports how many it ended.
func (s *service) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range expired {
		sub := &expired[i]
		err := s.store.InTx(ctx, func(repo Repository) error {
			if err := repo.LockUser(ctx, sub.UserID); err != nil {
				return err
			}
			active, err := isActiveRow(ctx, repo, sub)
			if err != nil {
				return err
			}
			if !active {
				return errSkip
			}
			return endSubscription(ctx, repo, sub)
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			logger.WithError(err).Error("failed to expire subscription")
			continue
		}

		n++
		sub.IsActive = false
		metrics.RecordCancellation("expired")
		s.notifyCancelled(ctx, sub)
	}

	return n, nil
}

var errSkip = errors.New("skip")

// isActiveRow reports whether sub is still the user's active subscription.
// Callers hold the user lock; the row may have been replaced while they waited.
func isActiveRow(ctx context.Context, repo Repository, sub *Subscription) (bool, error) {
	current, err := repo.GetActiveByUser(ctx, sub.UserID)
	if errors.Is(err, ErrNoActiveSubscription) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current.ID == sub.ID, nil
}

func (s *service) cancelAtProvider(ctx context.Context, providerSubscriptionID, reason string) {
	if s.gateway == nil {
		return
	}
	if err := s.gateway.CancelSubscription(ctx, providerSubscriptionID); err != nil {
		logger.WithFields(map[string]interface{}{
			"provider_subscription_id": providerSubscriptionID,
			"reason":                   reason,
			"error":                    err.Error(),
		}).Error("failed to cancel provider subscription")
	}
}

func (s *service) notifyCancelled(ctx context.Context, sub *Subscription) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SubscriptionCancelled(ctx, sub.UserID, sub); err != nil {
		logger.WithError(err).Warn("cancellation email not queued")
	}
}
