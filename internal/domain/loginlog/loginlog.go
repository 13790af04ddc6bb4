package loginlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/kidpech/asso_api/pkg/response"
)

// Entry is one authentication attempt.
type Entry struct {
	ID       int64     `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	LoggedAt time.Time `json:"timestamp" db:"logged_at"`
	Success  bool      `json:"success" db:"success"`
}

// Request is the manual POST payload.
type Request struct {
	Username  string     `json:"username" validate:"required,max=64"`
	Timestamp *time.Time `json:"timestamp"`
	Success   *bool      `json:"success" validate:"required"`
}

// Repository persists entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, int, error)
}

// Service records and lists login attempts.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// NewService wires a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: validator.New(), now: time.Now}
}

// Record stores an attempt stamped with the current time.
func (s *Service) Record(ctx context.Context, username string, success bool) error {
	return s.repo.Create(ctx, &Entry{Username: username, LoggedAt: s.now().UTC(), Success: success})
}

// Create stores an attempt reported by a client.
func (s *Service) Create(ctx context.Context, req Request) (*Entry, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	e := &Entry{Username: req.Username, LoggedAt: s.now().UTC(), Success: *req.Success}
	if req.Timestamp != nil {
		e.LoggedAt = req.Timestamp.UTC()
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the newest attempts first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Handler exposes login logs over HTTP.
type Handler struct {
	service *Service
}

// NewHandler returns a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts /login-logs; listing is admin only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	group := rg.Group("/login-logs", authMW)
	group.GET("", adminMW, h.list)
	group.POST("", h.create)
}

func (h *Handler) list(c *gin.Context) {
	limit := response.GetLimit(c, 100, 1000)
	offset := response.GetOffset(c)
	entries, total, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.InternalServerError(c, err)
		return
	}
	response.Paginated(c, entries, total, offset, limit)
}

func (h *Handler) create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if response.IsValidation(err) {
			response.ValidationError(c, err)
			return
		}
		response.InternalServerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
