package server

import (
	"context"
	"net/http"
	"time"

	"cvcraft/internal/assist"
	"cvcraft/internal/auth"
	"cvcraft/internal/billing"
	"cvcraft/internal/config"
	"cvcraft/internal/credits"
	"cvcraft/internal/document"
	"cvcraft/internal/email"
	"cvcraft/internal/subscription"
	"cvcraft/internal/usage"
	"cvcraft/internal/user"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers the router mounts. A nil Webhook or Mail
// leaves its routes unregistered.
type Handlers struct {
	User         *user.Handler
	Credits      *credits.Handler
	Subscription *subscription.Handler
	Usage        *usage.Handler
	Document     *document.Handler
	Assist       *assist.Handler
	Billing      *billing.Handler
	Webhook      *billing.WebhookHandler
	Mail         *email.Service
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(cfg *config.Config, database Pinger, h Handlers) *Server {
	router := gin.New()
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health(database))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	if h.Webhook != nil {
		router.POST("/webhooks/stripe", h.Webhook.Handle)
	}

	limited := router.Group("/")
	limited.Use(limiter.Middleware())

	public := limited.Group("/auth")
	{
		public.POST("/register", h.User.Register)
		public.POST("/login", h.User.Login)
		public.POST("/refresh", h.User.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := limited.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", h.User.GetMe)

		protected.GET("/credits", h.Credits.Info)
		protected.GET("/credits/balance", h.Credits.Balance)
		protected.GET("/credits/history", h.Credits.History)
		protected.GET("/credits/packages", h.Credits.Packages)
		protected.POST("/credits/purchase", h.Credits.Purchase)

		protected.GET("/subscriptions/plans", h.Subscription.ListPlans)
		protected.GET("/subscriptions/my", h.Subscription.GetMy)
		protected.GET("/subscriptions/history", h.Subscription.History)
		protected.POST("/subscriptions/subscribe", h.Subscription.Subscribe)
		protected.POST("/subscriptions/cancel", h.Subscription.Cancel)
		protected.GET("/subscriptions/usage", h.Usage.Summary)
		protected.GET("/subscriptions/can-create-resume", h.Usage.CanCreateResume)
		protected.GET("/subscriptions/can-create-cover-letter", h.Usage.CanCreateCoverLetter)

		protected.POST("/resumes", h.Document.CreateResume)
		protected.GET("/resumes", h.Document.ListResumes)
		protected.POST("/cover-letters", h.Document.CreateCoverLetter)
		protected.GET("/cover-letters", h.Document.ListCoverLetters)

		protected.GET("/ai/costs", h.Assist.Costs)
		protected.POST("/ai/:feature", h.Assist.Run)

		protected.GET("/billing/history", h.Billing.History)
		protected.GET("/billing/summary", h.Billing.Summary)
		protected.GET("/billing/invoices/:number", h.Billing.GetInvoice)
	}

	admin := limited.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"))
	{
		admin.POST("/users/:userID/credits", h.Credits.Grant)
		admin.POST("/plans", h.Subscription.CreatePlan)
		admin.PUT("/plans/:planID", h.Subscription.UpdatePlan)
		admin.GET("/subscriptions", h.Subscription.ListUserSubscriptions)
		admin.POST("/invoices/:number/mark-paid", h.Billing.MarkPaid)
		if h.Mail != nil {
			admin.POST("/test-email", TestEmail(h.Mail))
		}
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, Stripe-Signature")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
