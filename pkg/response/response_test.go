package response

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestQueryHelpers(t *testing.T) {
	c, _ := testContext("/?limit=900&offset=-3&year=2027")
	require.Equal(t, 500, GetLimit(c, 50, 500))
	require.Equal(t, 0, GetOffset(c))
	require.Equal(t, 2027, GetYear(c))

	c, _ = testContext("/?limit=abc&year=1999")
	require.Equal(t, 50, GetLimit(c, 50, 500))
	require.Equal(t, 0, GetYear(c))
}

func TestValidationErrorListsFields(t *testing.T) {
	type payload struct {
		FirstName string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	require.True(t, IsValidation(err))

	c, rec := testContext("/")
	ValidationError(c, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"validation_error","message":"invalid request","details":{"firstName":"required"}}`, rec.Body.String())
}

func TestValidationErrorMalformedJSON(t *testing.T) {
	c, rec := testContext("/")
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var body map[string]interface{}
	err := c.ShouldBindJSON(&body)
	require.Error(t, err)

	ValidationError(c, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, IsValidation(err))
}

func TestUserIDFromContext(t *testing.T) {
	c, _ := testContext("/")
	require.Equal(t, "", UserIDFromContext(c))

	id := uuid.New()
	c.Set("user_id", id)
	require.Equal(t, id.String(), UserIDFromContext(c))
	require.Equal(t, id, MustUserID(c))
}

func TestParamIDWritesNotFound(t *testing.T) {
	c, rec := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok := ParamID(c, "id", "member")
	require.False(t, ok)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "member not found")
}
