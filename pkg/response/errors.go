package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Fail writes status with a machine code and a human message.
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

// IsValidation reports whether err came from struct validation.
func IsValidation(err error) bool {
	var verr validator.ValidationErrors
	return errors.As(err, &verr)
}

// ValidationError answers 400. Field failures are listed by camelCase name;
// malformed JSON gets its own message.
func ValidationError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: "validation_error", Message: "invalid request"}
	var (
		verr   validator.ValidationErrors
		syntax *json.SyntaxError
		kind   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr))
		for _, fe := range verr {
			fields[lowerFirst(fe.Field())] = fe.Tag()
		}
		resp.Details = fields
	case errors.As(err, &syntax):
		resp.Message = "malformed json"
	case errors.As(err, &kind):
		resp.Message = "wrong type for " + kind.Field
	}
	c.JSON(http.StatusBadRequest, resp)
}

// BadRequest answers 400 with a custom code.
func BadRequest(c *gin.Context, code, message string) {
	Fail(c, http.StatusBadRequest, code, message)
}

// Unauthorized answers 401.
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "unauthorized", message)
}

// Forbidden answers 403.
func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, "forbidden", message)
}

// NotFound answers 404 naming the missing resource.
func NotFound(c *gin.Context, resource string) {
	if resource == "" {
		resource = "resource"
	}
	Fail(c, http.StatusNotFound, "not_found", resource+" not found")
}

// Conflict answers 409.
func Conflict(c *gin.Context, code, message string) {
	Fail(c, http.StatusConflict, code, message)
}

// TooManyRequests answers 429 with the time the quota resets.
func TooManyRequests(c *gin.Context, reset time.Time) {
	wait := int(time.Until(reset).Seconds() + 0.999)
	if wait < 0 {
		wait = 0
	}
	h := c.Writer.Header()
	h.Set("Retry-After", strconv.Itoa(wait))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
	Fail(c, http.StatusTooManyRequests, "rate_limited", "slow down")
}

// InternalServerError answers 500 without leaking err. The error is attached
// to the gin context for the request logger and sent to the request's sentry hub.
func InternalServerError(c *gin.Context, err error) {
	Fail(c, http.StatusInternalServerError, "internal_error", "unexpected error")
	if err == nil {
		return
	}
	_ = c.Error(err)
	if hub := sentry.GetHubFromContext(c.Request.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
