package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidpech/asso_api/pkg/response"
)

// Handler wires HTTP routes to the Service.
type Handler struct {
	service *Service
}

// NewHandler returns a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts auth + user routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refresh)
	}

	rg.GET("/users/me", authMW, h.getMe)

	admin := rg.Group("/admin/users", authMW, adminMW)
	{
		admin.GET("", h.listUsers)
		admin.POST("", h.createUser)
		admin.PUT("", h.updateRole)
		admin.DELETE("/:username", h.deleteUser)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Location", "/api/v1/users/me")
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ValidationError(c, err)
		return
	}
	res, err := h.service.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getMe(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	usr, err := h.service.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

func (h *Handler) listUsers(c *gin.Context) {
	filter := UserFilter{
		Search: c.Query("search"),
		Limit:  response.GetLimit(c, 50, 200),
		Offset: response.GetOffset(c),
	}
	users, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Paginated(c, users, total, filter.Offset, filter.Limit)
}

func (h *Handler) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	usr, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usr)
}

func (h *Handler) updateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	usr, err := h.service.UpdateRole(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, usr)
}

func (h *Handler) deleteUser(c *gin.Context) {
	actor := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("username")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case response.IsValidation(err):
		response.ValidationError(c, err)
	case errors.Is(err, ErrDuplicateUsername):
		response.Conflict(c, "duplicate_username", "username already registered")
	case errors.Is(err, ErrUnknownPhone):
		response.Conflict(c, "unknown_phone", "phone does not belong to a member")
	case errors.Is(err, ErrInvalidCreds):
		response.Unauthorized(c, "invalid credentials")
	case errors.Is(err, ErrRegistrationDisabled):
		response.Forbidden(c, "registration disabled")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, "forbidden")
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(c, "user")
	case errors.Is(err, ErrInvalidToken):
		response.Unauthorized(c, "invalid token")
	default:
		response.InternalServerError(c, err)
	}
}
