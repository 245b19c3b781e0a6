package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,max=5"`
}

func bindRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req signup
		if !BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})
	return r
}

func TestBindJSON_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","name":"ann"}`))
	req.Header.Set("Content-Type", "application/json")
	bindRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSON_ValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","name":"too long"}`))
	req.Header.Set("Content-Type", "application/json")
	bindRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	require.Len(t, body.Details, 2)
	assert.Equal(t, "Email must be a valid email address", body.Details[0].Message)
	assert.Equal(t, "Name must be at most 5 characters", body.Details[1].Message)
}

func TestBindJSON_MalformedBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	bindRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestValidationErrors_Messages(t *testing.T) {
	type amount struct {
		Value int    `validate:"gt=0"`
		Plan  string `validate:"required"`
	}

	err := validator.New().Struct(amount{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	out := ValidationErrors(verrs)
	require.Len(t, out, 2)
	assert.Equal(t, ValidationError{Field: "Value", Tag: "gt", Message: "Value must be greater than 0"}, out[0])
	assert.Equal(t, "Plan is required", out[1].Message)
}

func TestValidationErrors_NumericBounds(t *testing.T) {
	type grant struct {
		Amount int `validate:"max=10"`
	}

	err := validator.New().Struct(grant{Amount: 11})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Amount must be at most 10", ValidationErrors(verrs)[0].Message)
}
