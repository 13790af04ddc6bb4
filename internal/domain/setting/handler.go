package setting

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/pkg/response"
)

// Handler exposes settings endpoints.
type Handler struct {
	service *Service
}

// NewHandler returns a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /settings; writes require admin.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	group := rg.Group("/settings", authMW)
	group.GET("/dues-amount", h.getDues)
	group.PUT("/dues-amount", adminMW, h.putDues)
}

func (h *Handler) getDues(c *gin.Context) {
	amount, err := h.service.DuesAmount(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

func (h *Handler) putDues(c *gin.Context) {
	var req DuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	amount, err := h.service.SetDuesAmount(c.Request.Context(), req)
	if err != nil {
		if response.IsValidation(err) {
			response.ValidationError(c, err)
			return
		}
		response.InternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}
