package document

import (
	"net/http"

	"cvcraft/internal/api"
	"cvcraft/internal/auth"
	"cvcraft/internal/usage"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateResume godoc
// @Summary      Create a resume
// @Description  Passes the limit gate first; past the plan cap the creation is charged in credits.
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  CreateRequest  true  "Resume"
// @Success      201  {object} Document
// @Failure      400  {object} api.ValidationResponse
// @Failure      402  {object} api.ShortfallResponse
// @Failure      403  {object} api.LimitResponse
// @Router       /resumes [post]
func (h *Handler) CreateResume(c *gin.Context) {
	h.create(c, usage.ResourceResume)
}

// ListResumes godoc
// @Summary      List resumes
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse{data=[]Document}
// @Failure      401  {object} api.ErrorResponse
// @Router       /resumes [get]
func (h *Handler) ListResumes(c *gin.Context) {
	h.list(c, usage.ResourceResume)
}

// CreateCoverLetter godoc
// @Summary      Create a cover letter
// @Tags         documents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  CreateRequest  true  "Cover letter"
// @Success      201  {object} Document
// @Failure      400  {object} api.ValidationResponse
// @Failure      402  {object} api.ShortfallResponse
// @Failure      403  {object} api.LimitResponse
// @Router       /cover-letters [post]
func (h *Handler) CreateCoverLetter(c *gin.Context) {
	h.create(c, usage.ResourceCoverLetter)
}

// ListCoverLetters godoc
// @Summary      List cover letters
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object} api.DataResponse{data=[]Document}
// @Failure      401  {object} api.ErrorResponse
// @Router       /cover-letters [get]
func (h *Handler) ListCoverLetters(c *gin.Context) {
	h.list(c, usage.ResourceCoverLetter)
}

func (h *Handler) create(c *gin.Context, kind usage.Resource) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), userID, kind, req)
	if err != nil {
		api.WriteError(c, err, "failed to create document")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) list(c *gin.Context, kind usage.Resource) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	docs, err := h.service.List(c.Request.Context(), userID, kind)
	if err != nil {
		api.WriteError(c, err, "failed to list documents")
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Success: true, Data: docs})
}
