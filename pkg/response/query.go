package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Page is the envelope of list endpoints.
type Page struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// Paginated writes a 200 Page.
func Paginated(c *gin.Context, data interface{}, total, offset, limit int) {
	c.JSON(http.StatusOK, Page{Data: data, Total: total, Offset: offset, Limit: limit})
}

// GetLimit reads ?limit, clamped to max; fallback when absent or not positive.
func GetLimit(c *gin.Context, fallback, max int) int {
	limit, ok := queryInt(c, "limit")
	if !ok || limit <= 0 {
		return fallback
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// GetOffset reads ?offset, 0 when absent or negative.
func GetOffset(c *gin.Context) int {
	offset, ok := queryInt(c, "offset")
	if !ok || offset < 0 {
		return 0
	}
	return offset
}

// GetYear reads ?year, 0 when absent or outside 2000-2100.
func GetYear(c *gin.Context) int {
	year, ok := queryInt(c, "year")
	if !ok || year < 2000 || year > 2100 {
		return 0
	}
	return year
}

// ParamID parses a positive integer path parameter, writing a 404 otherwise.
func ParamID(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		NotFound(c, resource)
		return 0, false
	}
	return id, true
}

// MustUserID returns the authenticated account id or aborts with 401.
func MustUserID(c *gin.Context) uuid.UUID {
	id, ok := userID(c)
	if !ok {
		Unauthorized(c, "missing user context")
		c.Abort()
		return uuid.Nil
	}
	return id
}

// UserIDFromContext is the authenticated account id as a string, "" when anonymous.
func UserIDFromContext(c *gin.Context) string {
	if id, ok := userID(c); ok {
		return id.String()
	}
	return ""
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	val, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}
