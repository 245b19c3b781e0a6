package user

import (
	"context"
	"errors"
	"fmt"

	"cvcraft/internal/auth"
	"cvcraft/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TrialGranter credits a freshly registered account.
type TrialGranter interface {
	GiveTrialCredits(ctx context.Context, userID int) (int, error)
}

// Welcomer greets a new account; failures never block registration.
type Welcomer interface {
	Welcome(ctx context.Context, u *User, trialCredits int) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetByID(ctx context.Context, userID int) (*User, error)
}

type Option func(*service)

func WithWelcomer(w Welcomer) Option { return func(s *service) { s.welcomer = w } }

type service struct {
	repo      Repository
	trial     TrialGranter
	welcomer  Welcomer
	jwtSecret string
}

func NewService(repo Repository, trial TrialGranter, jwtSecret string, opts ...Option) Service {
	s := &service{repo: repo, trial: trial, jwtSecret: jwtSecret}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, hash, auth.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The account is usable without the trial grant, so a failure here is logged only.
	if s.trial != nil {
		balance, err := s.trial.GiveTrialCredits(ctx, u.ID)
		if err != nil {
			logger.WithError(err).Warn("trial credits not granted")
		} else {
			u.BonusCredits = balance
		}
	}

	if s.welcomer != nil {
		if err := s.welcomer.Welcome(ctx, u, u.BonusCredits); err != nil {
			logger.WithError(err).Warn("welcome email not queued")
		}
	}

	logger.Info("user registered", "user_id", u.ID)
	return s.issue(u, true)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u, true)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := auth.ParseRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(u, false)
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) issue(u *User, withRefresh bool) (*AuthResponse, error) {
	pair, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	resp := &AuthResponse{AccessToken: pair.AccessToken, User: *u}
	if withRefresh {
		resp.RefreshToken = pair.RefreshToken
	}
	return resp, nil
}
