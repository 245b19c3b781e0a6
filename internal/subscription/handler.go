package subscription

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cvcraft/internal/api"
	"cvcraft/internal/auth"
	"cvcraft/internal/db"
	"cvcraft/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPlans godoc
// @Summary      List active plans
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array} Plan
// @Failure      500  {object} api.ErrorResponse
// @Router       /subscriptions/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetMy returns the caller's active subscription, or null when on the free tier.
// @Summary      Active subscription
// @Description  Returns null when the caller is on the free tier.
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} Subscription
// @Failure      401  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /subscriptions/my [get]
func (h *Handler) GetMy(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sub, err := h.service.GetActive(c.Request.Context(), userID)
	if errors.Is(err, ErrNoActiveSubscription) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// History godoc
// @Summary      Subscription history
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array} Subscription
// @Failure      401  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /subscriptions/history [get]
func (h *Handler) History(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subs, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscriptions"})
		return
	}
	c.JSON(http.StatusOK, subs)
}

// Subscribe godoc
// @Summary      Subscribe to a plan
// @Description  Replaces the active subscription and starts a fresh usage period.
// @Tags         subscriptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  SubscribeRequest  true  "Plan and optional payment method"
// @Success      201  {object} Subscription
// @Failure      400  {object} api.ValidationResponse
// @Failure      404  {object} api.ErrorResponse
// @Failure      503  {object} api.ErrorResponse
// @Router       /subscriptions/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SubscribeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err, "failed to create subscription")
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Cancel godoc
// @Summary      Cancel the active subscription
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} api.ErrorResponse
// @Failure      409  {object} api.ErrorResponse
// @Failure      503  {object} api.ErrorResponse
// @Router       /subscriptions/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to cancel subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully", "subscription": sub})
}

// CreatePlan adds a plan to the catalogue.
// @Summary      Create a plan
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  PlanRequest  true  "Plan definition"
// @Success      201  {object} Plan
// @Failure      400  {object} api.ValidationResponse
// @Failure      403  {object} api.ErrorResponse
// @Failure      409  {object} api.ErrorResponse
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if !api.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "failed to create plan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan godoc
// @Summary      Update a plan
// @Description  Changes only the fields sent. Running subscriptions keep their limits.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        planID  path  integer  true  "Plan ID"
// @Param        request  body  PlanUpdate  true  "Fields to change"
// @Success      200  {object} Plan
// @Failure      400  {object} api.ValidationResponse
// @Failure      404  {object} api.ErrorResponse
// @Failure      409  {object} api.ErrorResponse
// @Router       /admin/plans/{planID} [put]
func (h *Handler) UpdatePlan(c *gin.Context) {
	planID, err := strconv.Atoi(c.Param("planID"))
	if err != nil || planID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var req PlanUpdate
	if !api.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.UpdatePlan(c.Request.Context(), planID, req)
	if err != nil {
		h.fail(c, err, "failed to update plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListUserSubscriptions pages through users and their active subscriptions.
// @Summary      List users with their subscriptions
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        search  query  string  false  "Name or email fragment"
// @Param        is_active  query  boolean  false  "Only users with an active subscription"
// @Param        page  query  integer  false  "Page number (default 1)"
// @Param        limit  query  integer  false  "Page size (default 10)"
// @Success      200  {object} api.PageResponse{data=[]UserSubscription}
// @Failure      403  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /admin/subscriptions [get]
func (h *Handler) ListUserSubscriptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	filter := UserSubscriptionFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: c.Query("is_active") == "true",
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	rows, total, err := h.service.ListUserSubscriptions(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "failed to load user subscriptions")
		return
	}
	c.JSON(http.StatusOK, api.PageResponse{
		Success:    true,
		Data:       rows,
		Pagination: api.NewPagination(page, limit, total),
	})
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription plan not found"})
	case errors.Is(err, ErrNoActiveSubscription):
		c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription found"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ErrPlanExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSubscriptionChanged):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please retry"})
	default:
		logger.WithError(err).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
