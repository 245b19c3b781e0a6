package credits

import (
	"context"
	"errors"
	"fmt"

	"cvcraft/internal/logger"
	"cvcraft/internal/metrics"
	"cvcraft/internal/usage"
)

// Service is the only writer of bonus_credits and the only code path that
// grows subscription_tokens_used.
type Service struct {
	store        Store
	free         usage.FreeTier
	trialCredits int
}

func NewService(store Store, free usage.FreeTier, trialCredits int) *Service {
	return &Service{store: store, free: free, trialCredits: trialCredits}
}

func (s *Service) limitFor(ctx context.Context, repo Repository, b *Balance) (int, error) {
	sub, err := repo.ActiveSubscription(ctx, b.UserID)
	if err != nil {
		return 0, fmt.Errorf("load subscription: %w", err)
	}
	return usage.ResolveLimits(sub, b.HasUsedFreeLimits, s.free).AICreditsLimit, nil
}

// CheckAndDeduct charges required credits, bonus pool first, all under the
// user's row lock. On shortfall nothing is written and the error is an
// *InsufficientCreditsError.
func (s *Service) CheckAndDeduct(ctx context.Context, userID, required int, feature string) (*Deduction, error) {
	if required <= 0 {
		return nil, ErrInvalidAmount
	}

	var d *Deduction
	err := s.store.InTx(ctx, func(repo Repository) error {
		b, err := repo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		limit, err := s.limitFor(ctx, repo, b)
		if err != nil {
			return err
		}

		remaining := usage.SubscriptionRemaining(limit, b.SubscriptionTokensUsed)
		fromBonus, fromSub, ok := split(b.BonusCredits, remaining, required)
		if !ok {
			return &InsufficientCreditsError{
				Required:              required,
				BonusCredits:          b.BonusCredits,
				SubscriptionRemaining: remaining,
			}
		}

		b.BonusCredits -= fromBonus
		b.SubscriptionTokensUsed += fromSub
		if err := repo.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}

		err = repo.InsertTransaction(ctx, &Transaction{
			UserID:            userID,
			Kind:              KindDeduct,
			Feature:           feature,
			Amount:            required,
			BonusDelta:        -fromBonus,
			SubscriptionDelta: fromSub,
			BonusAfter:        b.BonusCredits,
			TokensUsedAfter:   b.SubscriptionTokensUsed,
		})
		if err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}

		d = &Deduction{
			Required:              required,
			FromBonus:             fromBonus,
			FromSubscription:      fromSub,
			BonusCredits:          b.BonusCredits,
			SubscriptionRemaining: remaining - fromSub,
		}
		return nil
	})
	if err != nil {
		var shortfall *InsufficientCreditsError
		if errors.As(err, &shortfall) {
			metrics.RecordCreditDenial(feature)
		}
		return nil, err
	}

	metrics.RecordDeduction(feature, d.FromBonus, d.FromSubscription)
	logger.Debug("credits deducted", "user_id", userID, "feature", feature,
		"from_bonus", d.FromBonus, "from_subscription", d.FromSubscription)
	return d, nil
}

// AddCredits grows the bonus pool and returns the new bonus balance.
func (s *Service) AddCredits(ctx context.Context, userID, amount int, kind Kind) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if amount > MaxCreditAmount {
		return 0, ErrAmountTooLarge
	}

	var balance int
	err := s.store.InTx(ctx, func(repo Repository) error {
		b, err := repo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}

		b.BonusCredits += amount
		if err := repo.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		balance = b.BonusCredits

		return repo.InsertTransaction(ctx, &Transaction{
			UserID:          userID,
			Kind:            kind,
			Amount:          amount,
			BonusDelta:      amount,
			BonusAfter:      b.BonusCredits,
			TokensUsedAfter: b.SubscriptionTokensUsed,
		})
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordGrant(string(kind), amount)
	logger.Info("credits added", "user_id", userID, "kind", string(kind), "amount", amount)
	return balance, nil
}

// Refund returns a deduction to the pools it came from. Subscription usage
// never drops below zero, so a refund after a period reset only restores bonus.
func (s *Service) Refund(ctx context.Context, userID int, d *Deduction, feature string) error {
	if d == nil || d.FromBonus+d.FromSubscription <= 0 {
		return nil
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		b, err := repo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}

		fromSub := min(d.FromSubscription, b.SubscriptionTokensUsed)
		b.BonusCredits += d.FromBonus
		b.SubscriptionTokensUsed -= fromSub
		if err := repo.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}

		return repo.InsertTransaction(ctx, &Transaction{
			UserID:            userID,
			Kind:              KindRefund,
			Feature:           feature,
			Amount:            d.FromBonus + fromSub,
			BonusDelta:        d.FromBonus,
			SubscriptionDelta: -fromSub,
			BonusAfter:        b.BonusCredits,
			TokensUsedAfter:   b.SubscriptionTokensUsed,
		})
	})
	if err != nil {
		return err
	}

	logger.Info("credits refunded", "user_id", userID, "feature", feature,
		"to_bonus", d.FromBonus, "to_subscription", d.FromSubscription)
	return nil
}

func (s *Service) GiveTrialCredits(ctx context.Context, userID int) (int, error) {
	return s.AddCredits(ctx, userID, s.trialCredits, KindTrial)
}

// HasSufficientCredits is advisory only; CheckAndDeduct re-checks under lock.
func (s *Service) HasSufficientCredits(ctx context.Context, userID, required int) (bool, error) {
	info, err := s.Info(ctx, userID)
	if err != nil {
		return false, err
	}
	return info.TotalAvailable >= required, nil
}

func (s *Service) Info(ctx context.Context, userID int) (*Info, error) {
	b, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit, err := s.limitFor(ctx, s.store, b)
	if err != nil {
		return nil, err
	}

	remaining := usage.SubscriptionRemaining(limit, b.SubscriptionTokensUsed)
	return &Info{
		BonusCredits:           b.BonusCredits,
		SubscriptionLimit:      limit,
		SubscriptionUsed:       b.SubscriptionTokensUsed,
		SubscriptionRemaining:  remaining,
		TotalAvailable:         b.BonusCredits + remaining,
		HasBonusCredits:        b.BonusCredits > 0,
		HasSubscriptionCredits: remaining > 0,
	}, nil
}

func (s *Service) History(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	return s.store.ListTransactions(ctx, userID, limit, offset)
}
