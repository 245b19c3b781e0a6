package credits

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"cvcraft/internal/api"
)

type Kind string

const (
	KindDeduct   Kind = "deduct"
	KindTrial    Kind = "trial"
	KindGrant    Kind = "grant"
	KindPurchase Kind = "purchase"
	KindRefund   Kind = "refund"
)

// MaxCreditAmount bounds a single grant or purchase so bonus_credits stays
// well inside the column range.
const MaxCreditAmount = 1000000

var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAmountTooLarge = fmt.Errorf("amount must not exceed %d", MaxCreditAmount)
	ErrUserNotFound   = errors.New("user not found")
)

// Balance is the locked view of a user's two credit pools.
type Balance struct {
	UserID                 int  `db:"id"`
	BonusCredits           int  `db:"bonus_credits"`
	SubscriptionTokensUsed int  `db:"subscription_tokens_used"`
	HasUsedFreeLimits      bool `db:"has_used_free_limits"`
}

type Transaction struct {
	ID                int       `db:"id" json:"id"`
	UserID            int       `db:"user_id" json:"user_id"`
	Kind              Kind      `db:"kind" json:"kind"`
	Feature           string    `db:"feature" json:"feature,omitempty"`
	Amount            int       `db:"amount" json:"amount"`
	BonusDelta        int       `db:"bonus_delta" json:"bonus_delta"`
	SubscriptionDelta int       `db:"subscription_delta" json:"subscription_delta"`
	BonusAfter        int       `db:"bonus_after" json:"bonus_after"`
	TokensUsedAfter   int       `db:"tokens_used_after" json:"tokens_used_after"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Deduction reports how a successful charge was split and what is left.
type Deduction struct {
	Required              int `json:"required"`
	FromBonus             int `json:"from_bonus"`
	FromSubscription      int `json:"from_subscription"`
	BonusCredits          int `json:"bonus_credits"`
	SubscriptionRemaining int `json:"subscription_remaining"`
}

type Info struct {
	BonusCredits           int  `json:"bonus_credits"`
	SubscriptionLimit      int  `json:"subscription_credits_limit"`
	SubscriptionUsed       int  `json:"subscription_credits_used"`
	SubscriptionRemaining  int  `json:"subscription_credits_remaining"`
	TotalAvailable         int  `json:"total_available"`
	HasBonusCredits        bool `json:"has_bonus_credits"`
	HasSubscriptionCredits bool `json:"has_subscription_credits"`
}

type InsufficientCreditsError struct {
	Required              int
	BonusCredits          int
	SubscriptionRemaining int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("Insufficient AI credits. Required: %d, available: %d (bonus: %d, subscription: %d)",
		e.Required, e.BonusCredits+e.SubscriptionRemaining, e.BonusCredits, e.SubscriptionRemaining)
}

// Package is a bonus-credit bundle offered for purchase.
type Package struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
}

var Packages = []Package{
	{ID: 1, Name: "Starter Pack", Credits: 10, PriceCents: 999, Description: "Perfect for getting started"},
	{ID: 2, Name: "Professional Pack", Credits: 50, PriceCents: 3999, Description: "Best value for professionals"},
	{ID: 3, Name: "Enterprise Pack", Credits: 100, PriceCents: 6999, Description: "For heavy users"},
}

// split takes from bonus first and the rest from the subscription allotment.
func split(bonus, remaining, required int) (fromBonus, fromSubscription int, ok bool) {
	if bonus+remaining < required {
		return 0, 0, false
	}
	fromBonus = min(bonus, required)
	return fromBonus, required - fromBonus, true
}

func (e *InsufficientCreditsError) StatusCode() int { return http.StatusPaymentRequired }

func (e *InsufficientCreditsError) Payload() interface{} {
	return api.ShortfallResponse{
		Error:                 e.Error(),
		Required:              e.Required,
		BonusCredits:          e.BonusCredits,
		SubscriptionRemaining: e.SubscriptionRemaining,
	}
}
