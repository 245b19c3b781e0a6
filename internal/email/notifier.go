package email

import (
	"context"

	"cvcraft/internal/subscription"
	"cvcraft/internal/user"
)

type UserLookup interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

// Notifier turns subscription lifecycle events into queued emails.
type Notifier struct {
	mail  *Service
	users UserLookup
}

func NewNotifier(mail *Service, users UserLookup) *Notifier {
	return &Notifier{mail: mail, users: users}
}

func (n *Notifier) SubscriptionStarted(ctx context.Context, userID int, sub *subscription.Subscription) error {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return n.mail.SendSubscriptionConfirmation(ctx, u.Email, u.Name, sub.Name, sub.AICreditsLimit, sub.CurrentPeriodEnd)
}

func (n *Notifier) SubscriptionCancelled(ctx context.Context, userID int, sub *subscription.Subscription) error {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return n.mail.SendSubscriptionCancellation(ctx, u.Email, u.Name, sub.Name)
}

// Welcome queues the greeting sent after registration.
func (n *Notifier) Welcome(ctx context.Context, u *user.User, trialCredits int) error {
	return n.mail.SendWelcome(ctx, u.Email, u.Name, trialCredits)
}
