package user

import "time"

type User struct {
	ID           int    `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`

	// Credit pools. Only the credits ledger writes BonusCredits and grows
	// SubscriptionTokensUsed; subscription lifecycle resets the latter.
	BonusCredits           int  `json:"bonus_credits" db:"bonus_credits"`
	SubscriptionTokensUsed int  `json:"subscription_tokens_used" db:"subscription_tokens_used"`
	HasUsedFreeLimits      bool `json:"has_used_free_limits" db:"has_used_free_limits"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         User   `json:"user"`
}
