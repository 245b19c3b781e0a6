package usage

import (
	"context"
	"errors"
	"time"

	"cvcraft/internal/logger"
	"cvcraft/internal/metrics"
	"cvcraft/internal/subscription"
	"cvcraft/internal/user"
)

type UserReader interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type Subscriptions interface {
	GetActiveByUser(ctx context.Context, userID int) (*subscription.Subscription, error)
	MarkFreeLimitsUsed(ctx context.Context, userID int) error
}

// ResourceCounter counts a user's documents created at or after since; nil means all-time.
type ResourceCounter interface {
	Count(ctx context.Context, userID int, r Resource, since *time.Time) (int, error)
}

// Service resolves limits, counts usage and gates document creation.
type Service struct {
	users   UserReader
	subs    Subscriptions
	counter ResourceCounter
	free    FreeTier
}

func NewService(users UserReader, subs Subscriptions, counter ResourceCounter, free FreeTier) *Service {
	return &Service{users: users, subs: subs, counter: counter, free: free}
}

type snapshot struct {
	user   *user.User
	sub    *subscription.Subscription
	limits EffectiveLimits
}

func (s *snapshot) bonus() int {
	return s.user.BonusCredits
}

func (s *snapshot) remaining() int {
	return SubscriptionRemaining(s.limits.AICreditsLimit, s.user.SubscriptionTokensUsed)
}

func (s *snapshot) periodStart() *time.Time {
	if s.sub == nil {
		return nil
	}
	return s.sub.CurrentPeriodStart
}

func (s *Service) activeSubscription(ctx context.Context, userID int) (*subscription.Subscription, error) {
	sub, err := s.subs.GetActiveByUser(ctx, userID)
	if errors.Is(err, subscription.ErrNoActiveSubscription) {
		return nil, nil
	}
	return sub, err
}

func (s *Service) load(ctx context.Context, userID int) (*snapshot, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub, err := s.activeSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &snapshot{user: u, sub: sub, limits: ResolveLimits(sub, u.HasUsedFreeLimits, s.free)}, nil
}

func (s *Service) EffectiveLimits(ctx context.Context, userID int) (EffectiveLimits, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return EffectiveLimits{}, err
	}
	return snap.limits, nil
}

func (s *Service) count(ctx context.Context, userID int, since *time.Time) (Usage, error) {
	resumes, err := s.counter.Count(ctx, userID, ResourceResume, since)
	if err != nil {
		return Usage{}, err
	}
	letters, err := s.counter.Count(ctx, userID, ResourceCoverLetter, since)
	if err != nil {
		return Usage{}, err
	}
	return Usage{ResumeCount: resumes, CoverLetterCount: letters}, nil
}

// CurrentUsage counts documents in the active billing period, or all-time
// when there is no period to scope to.
func (s *Service) CurrentUsage(ctx context.Context, userID int) (Usage, error) {
	sub, err := s.activeSubscription(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	var since *time.Time
	if sub != nil {
		since = sub.CurrentPeriodStart
	}
	return s.count(ctx, userID, since)
}

func (s *Service) TotalUsage(ctx context.Context, userID int) (Usage, error) {
	return s.count(ctx, userID, nil)
}

// MarkFreeLimitsUsed flips has_used_free_limits once a user without a
// subscription owns any document.
func (s *Service) MarkFreeLimitsUsed(ctx context.Context, userID int) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasUsedFreeLimits {
		return nil
	}

	sub, err := s.activeSubscription(ctx, userID)
	if err != nil || sub != nil {
		return err
	}

	total, err := s.TotalUsage(ctx, userID)
	if err != nil {
		return err
	}
	if total.ResumeCount == 0 && total.CoverLetterCount == 0 {
		return nil
	}

	logger.Debug("free tier consumed", "user_id", userID)
	return s.subs.MarkFreeLimitsUsed(ctx, userID)
}

func (s *Service) ValidateResumeCreation(ctx context.Context, userID int) (Decision, error) {
	return s.Validate(ctx, userID, ResourceResume)
}

func (s *Service) ValidateCoverLetterCreation(ctx context.Context, userID int) (Decision, error) {
	return s.Validate(ctx, userID, ResourceCoverLetter)
}

// Validate decides whether the user may create one more r. It is not
// read-only: the free-tier flag is settled first. A denial is a *LimitExceededError.
func (s *Service) Validate(ctx context.Context, userID int, r Resource) (Decision, error) {
	if err := s.MarkFreeLimitsUsed(ctx, userID); err != nil {
		return Decision{}, err
	}

	snap, err := s.load(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	current, err := s.count(ctx, userID, snap.periodStart())
	if err != nil {
		return Decision{}, err
	}

	allowed, overCap := check(snap, current, r)
	if !allowed {
		metrics.RecordLimitDenial(string(r))
		return Decision{}, &LimitExceededError{
			Resource:              r,
			Limit:                 snap.limits.For(r),
			Current:               current.For(r),
			BonusCredits:          snap.bonus(),
			SubscriptionRemaining: snap.remaining(),
		}
	}
	return Decision{OverCap: overCap}, nil
}

func check(snap *snapshot, current Usage, r Resource) (allowed, overCap bool) {
	limit := snap.limits.For(r)
	if limit == nil || current.For(r) < *limit {
		return true, false
	}
	// Any spendable credit lifts the document cap.
	if snap.bonus() > 0 || snap.remaining() > 0 {
		return true, true
	}
	return false, false
}

// CanCreate is the advisory, side-effect free variant of Validate.
func (s *Service) CanCreate(ctx context.Context, userID int, r Resource) (bool, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	current, err := s.count(ctx, userID, snap.periodStart())
	if err != nil {
		return false, err
	}
	allowed, _ := check(snap, current, r)
	return allowed, nil
}

func (s *Service) Summary(ctx context.Context, userID int) (*Summary, error) {
	snap, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.count(ctx, userID, snap.periodStart())
	if err != nil {
		return nil, err
	}
	total, err := s.TotalUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	canResume, _ := check(snap, current, ResourceResume)
	canLetter, _ := check(snap, current, ResourceCoverLetter)

	plan := "Free"
	if snap.sub != nil {
		plan = snap.sub.Name
	}

	return &Summary{
		Plan:                  plan,
		IsFreeTier:            snap.sub == nil,
		Limits:                snap.limits,
		Usage:                 current,
		TotalUsage:            total,
		CanCreateResume:       canResume,
		CanCreateCoverLetter:  canLetter,
		BonusCredits:          snap.bonus(),
		SubscriptionUsed:      snap.user.SubscriptionTokensUsed,
		SubscriptionRemaining: snap.remaining(),
		HasUsedFreeLimits:     snap.user.HasUsedFreeLimits,
	}, nil
}
