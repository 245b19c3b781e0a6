package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cvcraft/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teapotError struct{}

func (teapotError) Error() string { return "short and stout" }
func (teapotError) StatusCode() int { return http.StatusTeapot }
func (teapotError) Payload() interface{} { return ErrorResponse{Error: "short and stout"} }

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"status error", fmt.Errorf("wrapped: %w", teapotError{}), http.StatusTeapot, "short and stout"},
		{"transient", fmt.Errorf("tx: %w", db.ErrTransient), http.StatusServiceUnavailable, "temporarily unavailable, please retry"},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, "failed to do it"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			WriteError(c, tt.err, "failed to do it")

			assert.Equal(t, tt.wantCode, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Error)
		})
	}
}
