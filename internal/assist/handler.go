package assist

import (
	"errors"
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

// Run serves POST /ai/:feature.
// @Summary      Run an AI feature
// @Description  Charges the feature cost, bonus pool first, then calls the model.
// @Tags         ai
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        feature  path  string  true  "Feature name, see /ai/costs"
// @Param        request  body  Request  true  "Feature inputs"
// @Success      200  {object} api.DataResponse{data=Result}
// @Failure      400  {object} api.ErrorResponse
// @Failure      402  {object} api.ShortfallResponse
// @Failure      404  {object} api.ErrorResponse
// @Failure      503  {object} api.ErrorResponse
// @Router       /ai/{feature} [post]
func (h *Handler) Run(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req Request
	if !api.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Run(c.Request.Context(), userID, Feature(c.Param("feature")), req)
	switch {
	case errors.Is(err, ErrUnknownFeature):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		api.WriteError(c, err, "AI request failed")
	default:
		c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: result})
	}
}

// Costs godoc
// @Summary      AI feature costs
// @Tags         ai
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse{data=map[string]int}
// @Router       /ai/costs [get]
func (h *Handler) Costs(c *gin.Context) {
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: Costs()})
}
