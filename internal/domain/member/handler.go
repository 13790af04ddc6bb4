package member

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/pkg/response"
)

// Handler wires member endpoints.
type Handler struct {
	service *Service
}

// NewHandler returns a member Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches routes onto router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authed := rg.Group("/members", authMW)
	authed.GET("", h.list)
	authed.GET("/count", h.count)
	authed.GET("/:id", h.get)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
	authed.PUT("/:id/title", h.setTitle)
	authed.POST("/:id/photo", h.uploadPhoto)
}

func (h *Handler) list(c *gin.Context) {
	filter := Filter{
		Search: c.Query("search"),
		Limit:  response.GetLimit(c, 50, 500),
		Offset: response.GetOffset(c),
	}
	members, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Paginated(c, members, total, filter.Offset, filter.Limit)
}

func (h *Handler) count(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": total})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	m, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Location", "/api/v1/members/"+strconv.FormatInt(m.ID, 10))
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	m, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setTitle(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	m, err := h.service.SetTitle(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) uploadPhoto(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "missing_photo", "multipart field photo is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.InternalServerError(c, err)
		return
	}
	defer file.Close()
	m, err := h.service.UploadPhoto(c.Request.Context(), id, header.Filename, header.Size, file)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": m.Photo})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case response.IsValidation(err):
		response.ValidationError(c, err)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "member")
	case errors.Is(err, ErrDuplicate):
		response.Conflict(c, "duplicate_member", "cin or email already registered")
	case errors.Is(err, ErrBirthDate):
		response.BadRequest(c, "invalid_birth_date", err.Error())
	case errors.Is(err, ErrPhotoType):
		response.BadRequest(c, "unsupported_photo", "photo type not allowed")
	case errors.Is(err, ErrPhotoTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, "photo_too_large", "photo exceeds size limit")
	default:
		response.InternalServerError(c, err)
	}
}
