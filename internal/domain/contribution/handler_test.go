package contribution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(service).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func TestReportHandlerReturnsEmptyQuarters(t *testing.T) {
	repo := newFakeRepo()
	repo.names[4] = "Fara"
	require.NoError(t, repo.SeedYear(context.Background(), 4, 2026, 5000))
	r := newTestRouter(newTestService(repo, nil))

	rec := serve(r, http.MethodGet, "/api/v1/contributions?year=2026", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["q1"], 1)
	require.Equal(t, "Fara", body["q1"][0]["memberName"])
	require.Contains(t, rec.Body.String(), `"q2":[{`)

	empty := serve(r, http.MethodGet, "/api/v1/contributions?year=2030", "")
	require.Equal(t, http.StatusOK, empty.Code)
	require.JSONEq(t, `{"q1":[],"q2":[],"q3":[],"q4":[]}`, empty.Body.String())
}

func TestCreateHandlerConflictAndValidation(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRouter(newTestService(repo, nil))
	payload := `{"memberId":2,"month":3,"year":2026,"amount":5000}`

	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/contributions", payload).Code)
	require.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/v1/contributions", payload).Code)

	bad := serve(r, http.MethodPost, "/api/v1/contributions", `{"memberId":2,"month":13,"year":2026}`)
	require.Equal(t, http.StatusBadRequest, bad.Code)
	require.Contains(t, bad.Body.String(), `"month":"max"`)
}

func TestSetPaymentHandler(t *testing.T) {
	repo := newFakeRepo()
	require.NoError(t, repo.SeedYear(context.Background(), 7, fixedNow.Year(), 5000))
	r := newTestRouter(newTestService(repo, nil))

	rec := serve(r, http.MethodPut, "/api/v1/contributions", `{"memberId":7,"month":2,"paid":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"memberId":7,"month":2,"paid":true}`, rec.Body.String())
	require.True(t, repo.find(7, 2, fixedNow.Year()).Paid)

	missing := serve(r, http.MethodPut, "/api/v1/contributions", `{"memberId":8,"month":2,"paid":true}`)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestDeleteHandlerRejectsBadID(t *testing.T) {
	r := newTestRouter(newTestService(newFakeRepo(), nil))

	require.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/api/v1/contributions/abc", "").Code)
	require.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/api/v1/contributions/99", "").Code)
}
