package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/internal/middleware"
	"github.com/conformeahq/conformea/pkg/models"
)

var testOrgID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// testUser returns a test user for use in tests.
func testUser() *models.User {
	return &models.User{
		ID:    uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		OrgID: testOrgID,
		Email: "test@example.fr",
		Name:  "Test User",
		Role:  models.RoleAdmin,
	}
}

// withUserContext adds an authenticated user to the request context.
func withUserContext(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, testUser())
	return r.WithContext(ctx)
}

// withURLParam injects a chi route parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// executeRequest executes an HTTP request and returns the response recorder.
func executeRequest(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, r)
	return rr
}

// decodeJSON decodes JSON response body into the target struct.
func decodeJSON(rr *httptest.ResponseRecorder, target any) error {
	return json.NewDecoder(rr.Body).Decode(target)
}
