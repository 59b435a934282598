package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akinalp/blogme/handlers"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// fakeAuth accepts the token "good" for ana and treats "luis" as the
// device's active user when active is set.
type fakeAuth struct {
	services.AuthService
	active bool
}

func (f *fakeAuth) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token != "good" {
		return nil, pkg.ErrUnauthorized
	}
	return &models.TokenClaims{Username: "ana", IsAdmin: true}, nil
}

func (f *fakeAuth) ViewerFor(ctx context.Context, claims *models.TokenClaims) models.Viewer {
	return models.Viewer{ID: claims.Username, Name: "Ana", IsAdmin: claims.IsAdmin}
}

func (f *fakeAuth) ActiveViewer(ctx context.Context) models.Viewer {
	if f.active {
		return models.Viewer{ID: "luis", Name: "Luis"}
	}
	return models.AnonViewer()
}

func echoViewer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(handlers.ViewerFrom(r).ID))
	})
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestViewerResolution(t *testing.T) {
	auth := &fakeAuth{}
	m := NewAuthMiddleware(auth)
	h := m.Viewer(echoViewer())

	assert.Equal(t, "ana", serve(h, "good").Body.String())
	assert.Equal(t, models.AnonViewerID, serve(h, "").Body.String())

	auth.active = true
	assert.Equal(t, "luis", serve(h, "").Body.String())

	rec := serve(h, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAndAdmin(t *testing.T) {
	auth := &fakeAuth{}
	m := NewAuthMiddleware(auth)
	required := m.Viewer(m.Require(echoViewer()))
	admin := m.Viewer(m.Admin(echoViewer()))

	assert.Equal(t, http.StatusUnauthorized, serve(required, "").Code)
	assert.Equal(t, http.StatusOK, serve(required, "good").Code)

	auth.active = true
	assert.Equal(t, http.StatusForbidden, serve(admin, "").Code)
	assert.Equal(t, http.StatusOK, serve(admin, "good").Code)
}
