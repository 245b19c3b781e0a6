package usage

import (
	"net/http"

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

// Summary godoc
// @Summary      Usage and limits
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} Summary
// @Failure      401  {object} api.ErrorResponse
// @Failure      500  {object} api.ErrorResponse
// @Router       /subscriptions/usage [get]
func (h *Handler) Summary(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Error retrieving subscription usage"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CanCreateResume godoc
// @Summary      Can the caller create a resume
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} map[string]bool
// @Failure      401  {object} api.ErrorResponse
// @Router       /subscriptions/can-create-resume [get]
func (h *Handler) CanCreateResume(c *gin.Context) {
	h.canCreate(c, ResourceResume)
}

// CanCreateCoverLetter godoc
// @Summary      Can the caller create a cover letter
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} map[string]bool
// @Failure      401  {object} api.ErrorResponse
// @Router       /subscriptions/can-create-cover-letter [get]
func (h *Handler) CanCreateCoverLetter(c *gin.Context) {
	h.canCreate(c, ResourceCoverLetter)
}

func (h *Handler) canCreate(c *gin.Context, r Resource) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	allowed, err := h.service.CanCreate(c.Request.Context(), userID, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Error checking limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_create": allowed})
}
