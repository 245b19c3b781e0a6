package subscription

import (
	"strings"
	"time"
)

type Interval string
type Provider string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"

	ProviderManual Provider = "manual"
	ProviderStripe Provider = "stripe"

	// Unlimited marks a resume or cover-letter limit with no cap.
	Unlimited = -1
)

// DefaultAICredits is the per-plan allotment used when a plan row carries 0.
var DefaultAICredits = map[string]int{
	"Free":         0,
	"Basic":        100000,
	"Plus":         1000000,
	"Professional": 500000,
	"Business":     5000000,
	"Enterprise":   10000000,
	"Premium":      2000000,
}

func PlanAICredits(name string) int {
	return DefaultAICredits[name]
}

// PeriodLength is 30 days for monthly plans and 365 otherwise.
func (i Interval) PeriodLength() time.Duration {
	if i == IntervalMonthly {
		return 30 * 24 * time.Hour
	}
	return 365 * 24 * time.Hour
}

type Plan struct {
	ID               int       `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Description      string    `db:"description" json:"description"`
	PriceCents       int64     `db:"price_cents" json:"price_cents"`
	Currency         string    `db:"currency" json:"currency"`
	Interval         Interval  `db:"interval" json:"interval"`
	ResumeLimit      int       `db:"resume_limit" json:"resume_limit"`
	CoverLetterLimit int       `db:"cover_letter_limit" json:"cover_letter_limit"`
	AICreditsLimit   int       `db:"ai_credits_limit" json:"ai_credits_limit"`
	StripePriceID    *string   `db:"stripe_price_id" json:"-"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// EffectiveAICredits falls back to the named-plan default when the row has none.
func (p Plan) EffectiveAICredits() int {
	if p.AICreditsLimit > 0 {
		return p.AICreditsLimit
	}
	return PlanAICredits(p.Name)
}

type Subscription struct {
	ID                     int        `db:"id" json:"id"`
	UserID                 int        `db:"user_id" json:"user_id"`
	PlanID                 *int       `db:"plan_id" json:"plan_id,omitempty"`
	Name                   string     `db:"name" json:"name"`
	PriceCents             int64      `db:"price_cents" json:"price_cents"`
	Currency               string     `db:"currency" json:"currency"`
	Interval               Interval   `db:"interval" json:"interval"`
	IsActive               bool       `db:"is_active" json:"is_active"`
	ResumeLimit            int        `db:"resume_limit" json:"resume_limit"`
	CoverLetterLimit       int        `db:"cover_letter_limit" json:"cover_letter_limit"`
	AICreditsLimit         int        `db:"ai_credits_limit" json:"ai_credits_limit"`
	PaymentProvider        Provider   `db:"payment_provider" json:"payment_provider"`
	ProviderSubscriptionID *string    `db:"provider_subscription_id" json:"-"`
	CurrentPeriodStart     *time.Time `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// FromPlan copies the plan template into a new, not yet persisted subscription.
func FromPlan(userID int, p Plan) *Subscription {
	planID := p.ID
	return &Subscription{
		UserID:           userID,
		PlanID:           &planID,
		Name:             p.Name,
		PriceCents:       p.PriceCents,
		Currency:         p.Currency,
		Interval:         p.Interval,
		IsActive:         true,
		ResumeLimit:      p.ResumeLimit,
		CoverLetterLimit: p.CoverLetterLimit,
		AICreditsLimit:   p.EffectiveAICredits(),
		PaymentProvider:  ProviderManual,
	}
}

type SubscribeRequest struct {
	PlanID          int    `json:"plan_id" binding:"required,gt=0"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

// ProviderSubscription is what a payment gateway reports after creating a subscription.
type ProviderSubscription struct {
	ID          string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// PlanRequest creates a plan. Limits use Unlimited (-1) for no cap.
type PlanRequest struct {
	Name             string   `json:"name" binding:"required,max=100"`
	Description      string   `json:"description" binding:"max=1000"`
	PriceCents       int64    `json:"price_cents" binding:"gte=0"`
	Currency         string   `json:"currency" binding:"omitempty,len=3"`
	Interval         Interval `json:"interval" binding:"required,oneof=monthly yearly"`
	ResumeLimit      int      `json:"resume_limit" binding:"gte=-1"`
	CoverLetterLimit int      `json:"cover_letter_limit" binding:"gte=-1"`
	AICreditsLimit   int      `json:"ai_credits_limit" binding:"gte=0"`
	StripePriceID    *string  `json:"stripe_price_id,omitempty" binding:"omitempty,max=255"`
	IsActive         *bool    `json:"is_active,omitempty"`
}

// PlanUpdate changes only the fields that are set. Existing subscriptions
// keep the limits they were created with.
type PlanUpdate struct {
	Name             *string   `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Description      *string   `json:"description,omitempty" binding:"omitempty,max=1000"`
	PriceCents       *int64    `json:"price_cents,omitempty" binding:"omitempty,gte=0"`
	Currency         *string   `json:"currency,omitempty" binding:"omitempty,len=3"`
	Interval         *Interval `json:"interval,omitempty" binding:"omitempty,oneof=monthly yearly"`
	ResumeLimit      *int      `json:"resume_limit,omitempty" binding:"omitempty,gte=-1"`
	CoverLetterLimit *int      `json:"cover_letter_limit,omitempty" binding:"omitempty,gte=-1"`
	AICreditsLimit   *int      `json:"ai_credits_limit,omitempty" binding:"omitempty,gte=0"`
	StripePriceID    *string   `json:"stripe_price_id,omitempty" binding:"omitempty,max=255"`
	IsActive         *bool     `json:"is_active,omitempty"`
}

func (r PlanRequest) Plan() Plan {
	p := Plan{
		Name:             r.Name,
		Description:      r.Description,
		PriceCents:       r.PriceCents,
		Currency:         strings.ToUpper(r.Currency),
		Interval:         r.Interval,
		ResumeLimit:      r.ResumeLimit,
		CoverLetterLimit: r.CoverLetterLimit,
		AICreditsLimit:   r.AICreditsLimit,
		StripePriceID:    r.StripePriceID,
		IsActive:         true,
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p
}

// Apply copies the set fields onto p.
func (u PlanUpdate) Apply(p *Plan) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.PriceCents != nil {
		p.PriceCents = *u.PriceCents
	}
	if u.Currency != nil {
		p.Currency = strings.ToUpper(*u.Currency)
	}
	if u.Interval != nil {
		p.Interval = *u.Interval
	}
	if u.ResumeLimit != nil {
		p.ResumeLimit = *u.ResumeLimit
	}
	if u.CoverLetterLimit != nil {
		p.CoverLetterLimit = *u.CoverLetterLimit
	}
	if u.AICreditsLimit != nil {
		p.AICreditsLimit = *u.AICreditsLimit
	}
	if u.StripePriceID != nil {
		p.StripePriceID = u.StripePriceID
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}

// UserSubscription is one row of the admin listing: a user and their active
// subscription, if they have one.
type UserSubscription struct {
	UserID           int        `db:"user_id" json:"user_id"`
	Name             string     `db:"user_name" json:"name"`
	Email            string     `db:"email" json:"email"`
	TokensUsed       int        `db:"subscription_tokens_used" json:"subscription_tokens_used"`
	SubscriptionID   *int       `db:"subscription_id" json:"subscription_id,omitempty"`
	PlanName         *string    `db:"plan_name" json:"plan_name,omitempty"`
	AICreditsLimit   *int       `db:"ai_credits_limit" json:"ai_credits_limit,omitempty"`
	PaymentProvider  *string    `db:"payment_provider" json:"payment_provider,omitempty"`
	CurrentPeriodEnd *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`
	Total            int        `db:"total" json:"-"`
}

type UserSubscriptionFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
