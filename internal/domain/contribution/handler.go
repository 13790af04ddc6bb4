package contribution

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/pkg/response"
)

// Handler wires contribution endpoints.
type Handler struct {
	service *Service
}

// NewHandler returns a contribution Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches routes onto router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authed := rg.Group("/contributions", authMW)
	authed.GET("", h.report)
	authed.GET("/member/:id", h.listByMember)
	authed.POST("", h.create)
	authed.PUT("", h.setPayment)
	authed.DELETE("/:id", h.delete)
}

func (h *Handler) report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), response.GetYear(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) listByMember(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "member")
	if !ok {
		return
	}
	rows, err := h.service.MemberContributions(c.Request.Context(), id, response.GetYear(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) setPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	if err := h.service.SetPayment(c.Request.Context(), req); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberId": req.MemberID, "month": req.Month, "paid": *req.Paid})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "contribution")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case response.IsValidation(err):
		response.ValidationError(c, err)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "contribution")
	case errors.Is(err, ErrDuplicate):
		response.Conflict(c, "duplicate_contribution", "contribution already recorded for this month")
	default:
		response.InternalServerError(c, err)
	}
}
