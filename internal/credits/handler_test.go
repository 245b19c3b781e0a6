package credits

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cvcraft/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCreditsRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestService(store))

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", 1) })
	r.GET("/credits", h.Info)
	r.GET("/credits/balance", h.Balance)
	r.GET("/credits/history", h.History)
	r.GET("/credits/packages", h.Packages)
	r.POST("/credits/purchase", h.Purchase)
	r.POST("/admin/users/:userID/credits", h.Grant)
	return r
}

func TestHandler_Info(t *testing.T) {
	store := newMemStore()
	store.balances[1] = Balance{UserID: 1, BonusCredits: 6}

	w := httptest.NewRecorder()
	newCreditsRouter(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    Info `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 6, resp.Data.TotalAvailable)
}

func TestHandler_UnknownUser(t *testing.T) {
	w := httptest.NewRecorder()
	newCreditsRouter(newMemStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credits/balance", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Grant(t *testing.T) {
	store := newMemStore()
	store.balances[2] = Balance{UserID: 2, BonusCredits: 1}
	r := newCreditsRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/2/credits", bytes.NewBufferString(`{"amount": 25}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"new_balance":26`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/2/credits", bytes.NewBufferString(`{"amount": -4}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/2/credits", bytes.NewBufferString(`{"amount": 9223372036854775807}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Amount must be at most 1000000")
	assert.Equal(t, 26, store.balances[2].BonusCredits)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/abc/credits", bytes.NewBufferString(`{"amount": 4}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Purchase(t *testing.T) {
	r := newCreditsRouter(newMemStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/credits/purchase", bytes.NewBufferString(`{"package_id": 2}`)))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/credits/purchase", bytes.NewBufferString(`{"package_id": 9}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsufficientCreditsError_Rendering(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	api.WriteError(c, &InsufficientCreditsError{Required: 3, BonusCredits: 1, SubscriptionRemaining: 1}, "unused")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var body api.ShortfallResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Required)
	assert.Contains(t, body.Error, "Required: 3, available: 2")
}
