package credits

import (
	"errors"
	"net/http"
	"strconv"

	"cvcraft/internal/api"
	"cvcraft/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type GrantRequest struct {
	Amount int `json:"amount" binding:"required,gt=0,max=1000000"`
}

type PurchaseRequest struct {
	PackageID int `json:"package_id" binding:"required,gt=0"`
}

// Info godoc
// @Summary      Credit overview
// @Description  Bonus and subscription pools with what is left in each.
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse{data=Info}
// @Failure      401  {object} api.ErrorResponse
// @Failure      404  {object} api.ErrorResponse
// @Router       /credits [get]
func (h *Handler) Info(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	info, err := h.service.Info(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to load credits")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: info})
}

// Balance godoc
// @Summary      Bonus credit balance
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse
// @Failure      401  {object} api.ErrorResponse
// @Failure      404  {object} api.ErrorResponse
// @Router       /credits/balance [get]
func (h *Handler) Balance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	info, err := h.service.Info(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to load credits")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: gin.H{
		"balance":                info.BonusCredits,
		"subscription_remaining": info.SubscriptionRemaining,
		"total_available":        info.TotalAvailable,
	}})
}

// History godoc
// @Summary      Credit transactions
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  integer  false  "Page size (default 50)"
// @Param        offset  query  integer  false  "Rows to skip"
// @Success      200  {object} api.DataResponse{data=[]Transaction}
// @Failure      401  {object} api.ErrorResponse
// @Router       /credits/history [get]
func (h *Handler) History(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := h.service.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.fail(c, err, "failed to load credit history")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: txs})
}

// Packages godoc
// @Summary      Credit packages
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse{data=[]Package}
// @Router       /credits/packages [get]
func (h *Handler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: Packages})
}

// Purchase only records the intent; paid bundles are credited once checkout exists.
// @Summary      Start a credit purchase
// @Tags         credits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  PurchaseRequest  true  "Package to buy"
// @Success      202  {object} api.DataResponse
// @Failure      400  {object} api.ValidationResponse
// @Failure      404  {object} api.ErrorResponse
// @Router       /credits/purchase [post]
func (h *Handler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if !api.BindJSON(c, &req) {
		return
	}

	for _, p := range Packages {
		if p.ID == req.PackageID {
			c.JSON(http.StatusAccepted, gin.H{
				"success": true,
				"message": "Credits purchase initiated",
				"data":    gin.H{"package": p, "status": "pending"},
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown credit package"})
}

// Grant lets an admin top up a user's bonus pool.
// @Summary      Grant bonus credits
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID  path  integer  true  "User ID"
// @Param        request  body  GrantRequest  true  "Credits to add"
// @Success      200  {object} api.DataResponse
// @Failure      400  {object} api.ValidationResponse
// @Failure      403  {object} api.ErrorResponse
// @Failure      404  {object} api.ErrorResponse
// @Router       /admin/users/{userID}/credits [post]
func (h *Handler) Grant(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req GrantRequest
	if !api.BindJSON(c, &req) {
		return
	}

	balance, err := h.service.AddCredits(c.Request.Context(), userID, req.Amount, KindGrant)
	if err != nil {
		h.fail(c, err, "failed to add credits")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: gin.H{
		"credits_added": req.Amount,
		"new_balance":   balance,
	}})
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAmountTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		api.WriteError(c, err, msg)
	}
}
