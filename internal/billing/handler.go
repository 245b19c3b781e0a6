package billing

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

// History godoc
// @Summary      Invoice history
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "pending, paid, failed or cancelled"
// @Param        limit  query  integer  false  "Page size (default 20)"
// @Param        offset  query  integer  false  "Rows to skip"
// @Success      200  {object} api.DataResponse{data=[]Invoice}
// @Failure      400  {object} api.ErrorResponse
// @Failure      401  {object} api.ErrorResponse
// @Router       /billing/history [get]
func (h *Handler) History(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := Status(c.Query("status"))
	switch status {
	case "", StatusPending, StatusPaid, StatusFailed, StatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	invoices, err := h.service.History(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		api.WriteError(c, err, "failed to load billing history")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: invoices})
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        number  path  string  true  "Invoice number"
// @Success      200  {object} Invoice
// @Failure      404  {object} api.ErrorResponse
// @Router       /billing/invoices/{number} [get]
func (h *Handler) GetInvoice(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	inv, err := h.service.Get(c.Request.Context(), userID, c.Param("number"))
	if errors.Is(err, ErrInvoiceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		api.WriteError(c, err, "failed to load invoice")
		return
	}
	c.JSON(http.StatusOK, inv)
}

// MarkPaid lets an admin settle an invoice paid outside the gateway.
// @Summary      Mark an invoice paid
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        number  path  string  true  "Invoice number"
// @Param        request  body  MarkPaidRequest  false  "Payment details"
// @Success      200  {object} Invoice
// @Failure      403  {object} api.ErrorResponse
// @Failure      404  {object} api.ErrorResponse
// @Failure      409  {object} api.ErrorResponse
// @Router       /admin/invoices/{number}/mark-paid [post]
func (h *Handler) MarkPaid(c *gin.Context) {
	var req MarkPaidRequest
	if c.Request.ContentLength > 0 && !api.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.MarkPaid(c.Request.Context(), c.Param("number"), req)
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvoiceAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		api.WriteError(c, err, "failed to mark invoice paid")
	default:
		c.JSON(http.StatusOK, inv)
	}
}

// Summary godoc
// @Summary      Billing summary
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} Summary
// @Failure      401  {object} api.ErrorResponse
// @Router       /billing/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		api.WriteError(c, err, "failed to load billing summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
