package rest_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/attendance-management/internal"
	"github.com/frahmantamala/attendance-management/internal/auth"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/infodesk"
	"github.com/frahmantamala/attendance-management/internal/request"
	"github.com/frahmantamala/attendance-management/internal/transport/rest"
	"github.com/frahmantamala/attendance-management/internal/user"
)

// tokenAuth treats the bearer token as the role name.
type tokenAuth struct{}

func (tokenAuth) Authenticate(context.Context, auth.LoginDTO) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidCredentials
}

func (tokenAuth) RefreshTokens(context.Context, string) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidToken
}

func (tokenAuth) Authorize(_ context.Context, token string) (*coreuser.Actor, error) {
	role := coreuser.Role(token)
	if !role.Valid() {
		return nil, internal.ErrInvalidToken
	}
	return &coreuser.Actor{ID: 1, Username: token, Role: role}, nil
}

var _ = Describe("Router", func() {
	var (
		router  *chi.Mux
		dbError error
	)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		dbError = nil
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:     auth.NewHandler(tokenAuth{}),
			Roles:    auth.NewRoleAuthorization(slogger),
			User:     user.NewHandler(nil),
			Request:  request.NewHandler(nil),
			InfoDesk: infodesk.NewHandler(nil),
			Health: rest.NewHealthHandler(map[string]rest.Check{
				"database": func(context.Context) error { return dbError },
			}),
		}, rest.Options{LogLevel: slog.LevelError}, slogger)
	})

	It("answers ping", func() {
		rec := do(http.MethodGet, "/api/v1/ping", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("reports an unhealthy dependency", func() {
		Expect(do(http.MethodGet, "/api/v1/health", "").Code).To(Equal(http.StatusOK))

		dbError = errors.New("connection refused")
		rec := do(http.MethodGet, "/api/v1/health", "")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).To(ContainSubstring("connection refused"))
	})

	It("requires a token for protected routes", func() {
		Expect(do(http.MethodGet, "/api/v1/requests", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/requests", "NOBODY").Code).To(Equal(http.StatusUnauthorized))
	})

	DescribeTable("role gates",
		func(method, path, role string) {
			Expect(do(method, path, role).Code).To(Equal(http.StatusForbidden))
		},
		Entry("employee listing pending", http.MethodGet, "/api/v1/requests/pending", "EMPLOYEE"),
		Entry("employee deciding", http.MethodPatch, "/api/v1/requests/3/decision", "EMPLOYEE"),
		Entry("employee listing users", http.MethodGet, "/api/v1/users", "EMPLOYEE"),
		Entry("employee deleting a user", http.MethodDelete, "/api/v1/users/3?confirm=true", "EMPLOYEE"),
		Entry("manager reading feedback", http.MethodGet, "/api/v1/feedback", "MANAGER"),
		Entry("manager resolving info", http.MethodPatch, "/api/v1/info-requests/1/resolve", "MANAGER"),
	)

	It("answers CORS preflight", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/requests", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).NotTo(BeEmpty())
	})
})
