package usage

import "cvcraft/internal/subscription"

// ResolveLimits maps a user's active subscription (nil for none) and free-tier
// flag to the caps in force.
func ResolveLimits(sub *subscription.Subscription, hasUsedFreeLimits bool, free FreeTier) EffectiveLimits {
	if sub != nil {
		return EffectiveLimits{
			ResumeLimit:      capOf(sub.ResumeLimit),
			CoverLetterLimit: capOf(sub.CoverLetterLimit),
			AICreditsLimit:   sub.AICreditsLimit,
		}
	}

	if hasUsedFreeLimits {
		return EffectiveLimits{ResumeLimit: capOf(0), CoverLetterLimit: capOf(0)}
	}

	return EffectiveLimits{
		ResumeLimit:      capOf(free.ResumeLimit),
		CoverLetterLimit: capOf(free.CoverLetterLimit),
		AICreditsLimit:   free.AICreditsLimit,
	}
}

func capOf(limit int) *int {
	if limit == subscription.Unlimited {
		return nil
	}
	return &limit
}

// SubscriptionRemaining is the unspent part of the allotment, never negative.
func SubscriptionRemaining(limit, used int) int {
	if limit <= 0 || used >= limit {
		return 0
	}
	return limit - used
}
