package usage

import (
	"fmt"
	"net/http"
	"strings"

	"cvcraft/internal/api"
)

// Resource is a capped document type.
type Resource string

const (
	ResourceResume      Resource = "resume"
	ResourceCoverLetter Resource = "cover_letter"
)

func (r Resource) label() string {
	if r == ResourceCoverLetter {
		return "cover letter"
	}
	return "resume"
}

// FreeTier holds the implicit allowance of users who never subscribed.
type FreeTier struct {
	ResumeLimit      int
	CoverLetterLimit int
	AICreditsLimit   int
}

// EffectiveLimits are the caps that apply to a user right now. A nil
// resource limit means unlimited.
type EffectiveLimits struct {
	ResumeLimit      *int `json:"resume_limit"`
	CoverLetterLimit *int `json:"cover_letter_limit"`
	AICreditsLimit   int  `json:"ai_credits_limit"`
}

func (l EffectiveLimits) For(r Resource) *int {
	if r == ResourceCoverLetter {
		return l.CoverLetterLimit
	}
	return l.ResumeLimit
}

type Usage struct {
	ResumeCount      int `json:"resume_count"`
	CoverLetterCount int `json:"cover_letter_count"`
}

func (u Usage) For(r Resource) int {
	if r == ResourceCoverLetter {
		return u.CoverLetterCount
	}
	return u.ResumeCount
}

// Decision is the outcome of a passed gate. OverCap is set when the
// creation was let through on credits rather than plan headroom.
type Decision struct {
	OverCap bool
}

type LimitExceededError struct {
	Resource              Resource
	Limit                 *int
	Current               int
	BonusCredits          int
	SubscriptionRemaining int
}

func (e *LimitExceededError) Error() string {
	var b strings.Builder
	noun := e.Resource.label()
	title := strings.ToUpper(noun[:1]) + noun[1:]

	if e.Limit == nil {
		fmt.Fprintf(&b, "%s creation failed. You have unlimited %ss but no available credits.", title, noun)
	} else {
		fmt.Fprintf(&b, "%s creation limit reached. Your plan allows %d %s(s), you have created %d.", title, *e.Limit, noun, e.Current)
	}

	switch {
	case e.BonusCredits > 0:
		fmt.Fprintf(&b, " You have %d bonus AI credits available.", e.BonusCredits)
	case e.SubscriptionRemaining > 0:
		fmt.Fprintf(&b, " You have %d subscription credits remaining.", e.SubscriptionRemaining)
	default:
		b.WriteString(" You have no AI credits remaining. Please upgrade your subscription or purchase credits.")
	}
	return b.String()
}

type Summary struct {
	Plan                  string          `json:"subscription_plan"`
	IsFreeTier            bool            `json:"is_free_tier"`
	Limits                EffectiveLimits `json:"limits"`
	Usage                 Usage           `json:"usage"`
	TotalUsage            Usage           `json:"total_usage"`
	CanCreateResume       bool            `json:"can_create_resume"`
	CanCreateCoverLetter  bool            `json:"can_create_cover_letter"`
	BonusCredits          int             `json:"ai_credits"`
	SubscriptionUsed      int             `json:"ai_credits_used"`
	SubscriptionRemaining int             `json:"ai_credits_remaining"`
	HasUsedFreeLimits     bool            `json:"has_used_free_limits"`
}

func (e *LimitExceededError) StatusCode() int { return http.StatusForbidden }

func (e *LimitExceededError) Payload() interface{} {
	return api.LimitResponse{
		Error:                 e.Error(),
		Resource:              string(e.Resource),
		Limit:                 e.Limit,
		Current:               e.Current,
		BonusCredits:          e.BonusCredits,
		SubscriptionRemaining: e.SubscriptionRemaining,
	}
}
