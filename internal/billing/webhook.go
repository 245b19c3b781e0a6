package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"cvcraft/internal/api"
	"cvcraft/internal/logger"
	"cvcraft/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const maxWebhookBytes = 65536

// Lifecycle is the subscription side of provider events.
type Lifecycle interface {
	SyncProviderPeriod(ctx context.Context, providerSubscriptionID string, start, end time.Time) error
	DeactivateByProviderID(ctx context.Context, providerSubscriptionID string) error
}

type SubscriptionLookup interface {
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*subscription.Subscription, error)
}

type WebhookHandler struct {
	secret    string
	lifecycle Lifecycle
	subs      SubscriptionLookup
	invoices  *Service
}

func NewWebhookHandler(secret string, lifecycle Lifecycle, subs SubscriptionLookup, invoices *Service) *WebhookHandler {
	return &WebhookHandler{secret: secret, lifecycle: lifecycle, subs: subs, invoices: invoices}
}

// Handle godoc
// @Summary      Stripe webhook
// @Description  Verifies the Stripe-Signature header and applies subscription and invoice events.
// @Tags         webhooks
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Stripe signature"
// @Success      200  {object} map[string]bool
// @Failure      400  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "failed to read body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(body, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.WithError(err).Warn("stripe webhook signature rejected")
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid signature"})
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "malformed subscription"})
			return
		}
		err = h.lifecycle.SyncProviderPeriod(ctx, sub.ID,
			time.Unix(sub.CurrentPeriodStart, 0).UTC(), time.Unix(sub.CurrentPeriodEnd, 0).UTC())

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "malformed subscription"})
			return
		}
		err = h.lifecycle.DeactivateByProviderID(ctx, sub.ID)

	case "invoice.paid", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "malformed invoice"})
			return
		}
		err = h.recordInvoice(ctx, &inv, event.Type == "invoice.paid")

	default:
		logger.Debug("stripe event ignored", "type", string(event.Type))
	}

	// Unknown subscriptions are acknowledged so Stripe stops retrying them.
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		logger.Warn("stripe event for unknown subscription", "type", string(event.Type), "event_id", event.ID)
		err = nil
	}
	if err != nil {
		logger.WithError(err).Error("stripe webhook processing failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) recordInvoice(ctx context.Context, inv *stripe.Invoice, paid bool) error {
	// The first invoice is recorded by Subscribe itself.
	if inv.Subscription == nil || inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
		return nil
	}

	sub, err := h.subs.GetByProviderID(ctx, inv.Subscription.ID)
	if err != nil {
		return err
	}

	amount := inv.AmountPaid
	if !paid {
		amount = inv.AmountDue
	}
	return h.invoices.RecordProviderInvoice(ctx, sub, ProviderInvoice{
		ExternalID:  inv.ID,
		AmountCents: amount,
		Currency:    string(inv.Currency),
		PeriodStart: time.Unix(inv.PeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(inv.PeriodEnd, 0).UTC(),
		Paid:        paid,
	})
}
