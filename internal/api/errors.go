package api

import (
	"errors"
	"net/http"

	"cvcraft/internal/db"
	"cvcraft/internal/logger"

	"github.com/gin-gonic/gin"
)

// StatusError is a domain error that knows its HTTP rendering.
type StatusError interface {
	error
	StatusCode() int
	Payload() interface{}
}

// WriteError renders err, falling back to a 500 with msg for unknown errors.
func WriteError(c *gin.Context, err error, msg string) {
	var se StatusError
	switch {
	case errors.As(err, &se):
		c.JSON(se.StatusCode(), se.Payload())
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable, please retry"})
	default:
		logger.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
	}
}
