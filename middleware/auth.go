// Package middleware holds the layers a request passes through before its
// handler.
//
// A middleware is func(next http.Handler) http.Handler: it does its part
// (resolve the viewer, check a role) and either calls next or answers the
// request itself.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akinalp/blogme/handlers"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// AuthMiddleware resolves who is looking at the page.
type AuthMiddleware struct {
	authService services.AuthService
}

// NewAuthMiddleware creates the auth middleware.
func NewAuthMiddleware(authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// bearer returns the token of an "Authorization: Bearer <token>" header.
func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// Viewer puts the request's viewer in the context. A valid bearer token
// wins; without one the device's active user is used, then the guest.
// An invalid token is rejected rather than silently downgraded.
func (m *AuthMiddleware) Viewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if token := bearer(r); token != "" {
			claims, err := m.authService.ValidateAccessToken(token)
			if err != nil {
				handlers.WriteError(w, r, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, "errors.unauthorized"))
				return
			}
			ctx = handlers.WithViewer(ctx, m.authService.ViewerFor(ctx, claims))
		} else {
			ctx = handlers.WithViewer(ctx, m.authService.ActiveViewer(ctx))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects the guest. Use it after Viewer.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.ViewerFrom(r).IsAnon() {
			handlers.WriteError(w, r, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, "errors.unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Admin lets only admin viewers through. Use it after Viewer.
func (m *AuthMiddleware) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !handlers.ViewerFrom(r).IsAdmin {
			handlers.WriteError(w, r, fmt.Errorf("%w: %s", pkg.ErrForbidden, "errors.forbidden"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
