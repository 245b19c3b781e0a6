package server

import (
	"context"
	"net/http"
	"time"

	"cvcraft/internal/api"
	"cvcraft/internal/email"
	"cvcraft/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// Health reports 503 when the database does not answer a ping.
// @Summary      Health check
// @Description  Pings the database and reports degraded when it does not answer.
// @Tags         system
// @Produce      json
// @Success      200  {object} api.HealthResponse
// @Failure      503  {object} api.HealthResponse
// @Router       /health [get]
func Health(database Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database == nil {
			c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			logger.WithError(err).Warn("health check: database ping failed")
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok", Database: "ok"})
	}
}

// TestEmail queues a plain message to the address in the email query parameter.
// @Summary      Queue a test email
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        email  query  string  true  "Recipient email"
// @Success      200  {object} api.MessageResponse
// @Failure      400  {object} api.ErrorResponse
// @Failure      403  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /admin/test-email [post]
func TestEmail(mail *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		to := c.Query("email")
		if to == "" {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email parameter required"})
			return
		}

		if err := mail.Send(c.Request.Context(), "test", to, "cvcraft admin", "Test email from cvcraft", "Email delivery is working."); err != nil {
			logger.WithError(err).Error("failed to queue test email")
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to queue email"})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Email queued successfully"})
	}
}

// Metrics godoc
// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200  {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
