package billing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cvcraft/internal/subscription"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testSecret = "whsec_test"

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) SyncProviderPeriod(ctx context.Context, id string, start, end time.Time) error {
	return m.Called(ctx, id, start, end).Error(0)
}

func (m *MockLifecycle) DeactivateByProviderID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type fakeLookup struct {
	subs map[string]*subscription.Subscription
}

func (f *fakeLookup) GetByProviderID(ctx context.Context, id string) (*subscription.Subscription, error) {
	if sub, ok := f.subs[id]; ok {
		return sub, nil
	}
	return nil, subscription.ErrSubscriptionNotFound
}

func newWebhookRouter(lc *MockLifecycle, store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	lookup := &fakeLookup{subs: map[string]*subscription.Subscription{"sub_1": basicSubscription()}}
	h := NewWebhookHandler(testSecret, lc, lookup, newTestService(store))

	r := gin.New()
	r.POST("/webhooks/stripe", h.Handle)
	return r
}

func signedRequest(payload string) *http.Request {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(payload), Secret: testSecret})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestWebhook_SubscriptionUpdatedSyncsPeriod(t *testing.T) {
	lc := new(MockLifecycle)
	lc.On("SyncProviderPeriod", mock.Anything, "sub_1", time.Unix(1743465600, 0).UTC(), time.Unix(1746057600, 0).UTC()).Return(nil)

	w := httptest.NewRecorder()
	newWebhookRouter(lc, &memStore{}).ServeHTTP(w, signedRequest(`{"id":"evt_1","object":"event","type":"customer.subscription.updated",
		"data":{"object":{"id":"sub_1","object":"subscription","current_period_start":1743465600,"current_period_end":1746057600}}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	lc.AssertExpectations(t)
}

func TestWebhook_SubscriptionDeleted(t *testing.T) {
	lc := new(MockLifecycle)
	lc.On("DeactivateByProviderID", mock.Anything, "sub_9").Return(subscription.ErrSubscriptionNotFound)

	w := httptest.NewRecorder()
	newWebhookRouter(lc, &memStore{}).ServeHTTP(w, signedRequest(`{"id":"evt_2","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_9","object":"subscription"}}}`))

	assert.Equal(t, http.StatusOK, w.Code, "unknown subscriptions are acknowledged")
	lc.AssertExpectations(t)
}

func TestWebhook_InvoicePaidRecordsRenewal(t *testing.T) {
	store := &memStore{}
	r := newWebhookRouter(new(MockLifecycle), store)
	payload := `{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice",
		"subscription":"sub_1","billing_reason":"subscription_cycle","amount_paid":999,"amount_due":999,"currency":"usd",
		"period_start":1743465600,"period_end":1746057600}}}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(payload))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(payload))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.invoices, 1)
	assert.Equal(t, StatusPaid, store.invoices[0].Status)
	assert.Equal(t, "in_1", *store.invoices[0].ExternalInvoiceID)
}

func TestWebhook_FirstInvoiceSkipped(t *testing.T) {
	store := &memStore{}

	w := httptest.NewRecorder()
	newWebhookRouter(new(MockLifecycle), store).ServeHTTP(w, signedRequest(`{"id":"evt_4","object":"event","type":"invoice.paid",
		"data":{"object":{"id":"in_0","object":"invoice","subscription":"sub_1","billing_reason":"subscription_create","amount_paid":999}}}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.invoices)
}

func TestWebhook_BadSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_5"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	w := httptest.NewRecorder()
	newWebhookRouter(new(MockLifecycle), &memStore{}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_ProcessingFailure(t *testing.T) {
	lc := new(MockLifecycle)
	lc.On("DeactivateByProviderID", mock.Anything, "sub_1").Return(assert.AnError)

	w := httptest.NewRecorder()
	newWebhookRouter(lc, &memStore{}).ServeHTTP(w, signedRequest(`{"id":"evt_6","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_1","object":"subscription"}}}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
