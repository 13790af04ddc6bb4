package transaction

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/pkg/response"
)

// Handler wires cash-book endpoints.
type Handler struct {
	service *Service
}

// NewHandler returns a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /transactions and /cash.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	tx := rg.Group("/transactions", authMW)
	{
		tx.GET("", h.list)
		tx.POST("", h.create)
		tx.PUT("/:id", h.update)
		tx.DELETE("/:id", h.delete)
	}
	cash := rg.Group("/cash", authMW)
	{
		cash.GET("", h.summary)
		cash.GET("/revenue", h.revenue)
		cash.GET("/expense", h.expense)
	}
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("description"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "transaction")
	if !ok {
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "transaction")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) revenue(c *gin.Context) {
	v, err := h.service.Revenue(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revenue": v})
}

func (h *Handler) expense(c *gin.Context) {
	v, err := h.service.Expense(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": v})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case response.IsValidation(err):
		response.ValidationError(c, err)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "transaction")
	case errors.Is(err, ErrDuplicateContribution):
		response.Conflict(c, "duplicate_contribution", "sender already has a contribution transaction, update it instead")
	default:
		response.InternalServerError(c, err)
	}
}
