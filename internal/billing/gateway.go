package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cvcraft/internal/subscription"
	"cvcraft/internal/user"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type UserLookup interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

// StripeGateway creates and cancels subscriptions at Stripe.
type StripeGateway struct {
	api   *client.API
	users UserLookup
}

func NewStripeGateway(apiKey string, users UserLookup) *StripeGateway {
	return NewStripeGatewayWithBackends(apiKey, nil, users)
}

// NewStripeGatewayWithBackends lets callers point the client at another backend; nil uses Stripe.
func NewStripeGatewayWithBackends(apiKey string, backends *stripe.Backends, users UserLookup) *StripeGateway {
	return &StripeGateway{api: client.New(apiKey, backends), users: users}
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, userID int, priceID, paymentMethodID string) (*subscription.ProviderSubscription, error) {
	u, err := g.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{"user_id": strconv.Itoa(userID)}

	customerParams := &stripe.CustomerParams{
		Email:         stripe.String(u.Email),
		Name:          stripe.String(u.Name),
		PaymentMethod: stripe.String(paymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	customerParams.Context = ctx
	for k, v := range metadata {
		customerParams.AddMetadata(k, v)
	}

	cust, err := g.api.Customers.New(customerParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer:             stripe.String(cust.ID),
		DefaultPaymentMethod: stripe.String(paymentMethodID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	subParams.Context = ctx
	for k, v := range metadata {
		subParams.AddMetadata(k, v)
	}

	sub, err := g.api.Subscriptions.New(subParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return &subscription.ProviderSubscription{
		ID:          sub.ID,
		PeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}, nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, providerSubscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	if _, err := g.api.Subscriptions.Cancel(providerSubscriptionID, params); err != nil {
		return fmt.Errorf("failed to cancel subscription in Stripe: %w", err)
	}
	return nil
}
