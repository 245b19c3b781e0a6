package usage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cvcraft/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsageRouter(w *world, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(w.service())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	r.GET("/subscriptions/usage", h.Summary)
	r.GET("/subscriptions/can-create-resume", h.CanCreateResume)
	r.GET("/subscriptions/can-create-cover-letter", h.CanCreateCoverLetter)
	return r
}

func TestHandler_Summary(t *testing.T) {
	w := newWorld()
	w.users[1] = &user.User{ID: 1, BonusCredits: 4}
	w.create(1, ResourceResume, time.Now())

	rec := httptest.NewRecorder()
	newUsageRouter(w, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.IsFreeTier)
	assert.Equal(t, 1, summary.Usage.ResumeCount)
	assert.Equal(t, 4, summary.BonusCredits)
}

func TestHandler_SummaryUnknownUser(t *testing.T) {
	rec := httptest.NewRecorder()
	newUsageRouter(newWorld(), 9).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/usage", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_CanCreate(t *testing.T) {
	w := newWorld()
	w.users[1] = &user.User{ID: 1}
	w.users[2] = &user.User{ID: 2, HasUsedFreeLimits: true}

	tests := []struct {
		name   string
		userID int
		path   string
		want   bool
	}{
		{"fresh user resume", 1, "/subscriptions/can-create-resume", true},
		{"fresh user cover letter", 1, "/subscriptions/can-create-cover-letter", true},
		{"free tier spent", 2, "/subscriptions/can-create-resume", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newUsageRouter(w, tt.userID).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				CanCreate bool `json:"can_create"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.CanCreate)
		})
	}
}
