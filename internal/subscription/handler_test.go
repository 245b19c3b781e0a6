package subscription

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSubscriptionRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(store))

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", 7) })
	r.GET("/subscriptions/plans", h.ListPlans)
	r.GET("/subscriptions/my", h.GetMy)
	r.POST("/subscriptions/subscribe", h.Subscribe)
	r.POST("/subscriptions/cancel", h.Cancel)
	r.POST("/admin/plans", h.CreatePlan)
	r.PUT("/admin/plans/:planID", h.UpdatePlan)
	r.GET("/admin/subscriptions", h.ListUserSubscriptions)
	return r
}

func TestHandler_Flow(t *testing.T) {
	store := seededStore()
	r := newSubscriptionRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/my", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/subscribe", bytes.NewBufferString(`{"plan_id": 42}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/subscribe", bytes.NewBufferString(`{"plan_id": 1}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Basic"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Subscribe_BadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	newSubscriptionRouter(seededStore()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/subscribe", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Cancel_ConflictWhenReplaced(t *testing.T) {
	store := seededStore()
	store.nextID = 2
	store.subs = []Subscription{{ID: 1, UserID: 7, IsActive: true, PaymentProvider: ProviderManual}}
	store.beforeTx = func() { replaceActive(store, 7, 0) }

	w := httptest.NewRecorder()
	newSubscriptionRouter(store).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, store.byID(2).IsActive)
}

func TestHandler_AdminPlans(t *testing.T) {
	store := seededStore()
	r := newSubscriptionRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewBufferString(`{"name":"Team","price_cents":4900,"interval":"monthly","resume_limit":-1,"cover_letter_limit":100}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Team"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewBufferString(`{"name":"Basic","interval":"monthly"}`)))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewBufferString(`{"name":"Weekly","interval":"weekly"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/plans/1", bytes.NewBufferString(`{"price_cents":1299}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1299), store.plans[1].PriceCents)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/plans/77", bytes.NewBufferString(`{"price_cents":1}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/plans/abc", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AdminUserSubscriptions(t *testing.T) {
	store := seededStore()
	store.subs = []Subscription{{ID: 1, UserID: 7, Name: "Basic", IsActive: true, PaymentProvider: ProviderManual}}
	store.users[8] = &fakeUser{}

	w := httptest.NewRecorder()
	newSubscriptionRouter(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/subscriptions?is_active=true&limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plan_name":"Basic"`)
	assert.Contains(t, w.Body.String(), `"pagination":{"page":1,"limit":5,"total":1,"pages":1}`)
}
