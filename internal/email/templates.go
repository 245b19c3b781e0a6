package email

import (
	"context"
	"fmt"
	"time"
)

const signature = "\n\n- The cvcraft Team"

func (s *Service) SendWelcome(ctx context.Context, to, name string, trialCredits int) error {
	body := fmt.Sprintf(`Hi %s,

Welcome to cvcraft! Your account is ready.

We added %d free AI credits to your account so you can try grammar checks,
resume improvements and cover letter generation right away.`, name, trialCredits)

	return s.Send(ctx, "welcome", to, name, "Welcome to cvcraft", body+signature)
}

func (s *Service) SendSubscriptionConfirmation(ctx context.Context, to, name, plan string, aiCredits int, renews *time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Your %s subscription is active.

AI credits this period: %d`, name, plan, aiCredits)
	if renews != nil {
		body += "\nNext renewal: " + renews.Format("Jan 2, 2006")
	}

	return s.Send(ctx, "subscription_started", to, name, "Subscription confirmed - "+plan, body+signature)
}

func (s *Service) SendSubscriptionCancellation(ctx context.Context, to, name, plan string) error {
	body := fmt.Sprintf(`Hi %s,

Your %s subscription has ended. Documents you already created stay available,
and any bonus AI credits remain on your account.`, name, plan)

	return s.Send(ctx, "subscription_cancelled", to, name, "Subscription ended - "+plan, body+signature)
}
