package document

import (
	"context"
	"fmt"

	"cvcraft/internal/credits"
	"cvcraft/internal/logger"
	"cvcraft/internal/usage"
)

// Gate is the part of the usage service that guards creation.
type Gate interface {
	Validate(ctx context.Context, userID int, r usage.Resource) (usage.Decision, error)
	MarkFreeLimitsUsed(ctx context.Context, userID int) error
}

type Charger interface {
	CheckAndDeduct(ctx context.Context, userID, required int, feature string) (*credits.Deduction, error)
	Refund(ctx context.Context, userID int, d *credits.Deduction, feature string) error
}

type Service struct {
	repo        Repository
	gate        Gate
	charger     Charger
	overCapCost int
}

// NewService wires creation behind the limit gate. overCapCost credits are
// charged whenever the gate lets a document through past the plan cap; 0
// lets it through for free.
func NewService(repo Repository, gate Gate, charger Charger, overCapCost int) *Service {
	return &Service{repo: repo, gate: gate, charger: charger, overCapCost: overCapCost}
}

// Create runs gate, optional over-cap charge, then insert. Denials surface as
// *usage.LimitExceededError or *credits.InsufficientCreditsError.
func (s *Service) Create(ctx context.Context, userID int, kind usage.Resource, req CreateRequest) (*Document, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}

	decision, err := s.gate.Validate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	var charge *credits.Deduction
	feature := "over_cap_" + string(kind)
	if decision.OverCap && s.overCapCost > 0 {
		if charge, err = s.charger.CheckAndDeduct(ctx, userID, s.overCapCost, feature); err != nil {
			return nil, err
		}
	}

	doc := &Document{UserID: userID, Kind: kind, Title: req.Title, Content: req.Content}
	if err := s.repo.Create(ctx, doc); err != nil {
		if charge != nil {
			if rerr := s.charger.Refund(ctx, userID, charge, feature); rerr != nil {
				logger.WithFields(map[string]interface{}{
					"user_id": userID,
					"feature": feature,
					"error":   rerr.Error(),
				}).Error("failed to refund over-cap charge")
			}
		}
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	doc.Kind = kind

	// The free tier is spent by the first document, not by the next attempt.
	if err := s.gate.MarkFreeLimitsUsed(ctx, userID); err != nil {
		logger.WithError(err).Warn("failed to mark free limits used")
	}

	logger.Info("document created", "user_id", userID, "kind", string(kind), "id", doc.ID, "over_cap", decision.OverCap)
	return doc, nil
}

func (s *Service) List(ctx context.Context, userID int, kind usage.Resource) ([]Document, error) {
	return s.repo.ListByUser(ctx, userID, kind)
}
