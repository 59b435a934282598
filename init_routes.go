package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akinalp/blogme/middleware"
	"github.com/akinalp/blogme/services"
	"github.com/akinalp/blogme/static"
)

// initRoutes builds the middleware chains and registers every endpoint.
//
// Literal paths are registered before parametric siblings
// (/api/comments/reply before anything under {id}) to keep the intent
// readable, although ServeMux picks the most specific pattern anyway.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService) {
	authMw := middleware.NewAuthMiddleware(authService)

	// viewer: anyone, guest included. The viewer is resolved from the
	// bearer token or the device's active user.
	viewer := func(handler http.HandlerFunc) http.Handler {
		return authMw.Viewer(handler)
	}
	// auth: a signed-in user.
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Viewer(authMw.Require(handler))
	}
	// admin: a signed-in moderator.
	admin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Viewer(authMw.Admin(handler))
	}

	// Pages
	mux.Handle("GET /{$}", viewer(h.Feed.Index))
	mux.Handle("GET /p/{id}", viewer(h.Feed.Read))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static.Assets)))

	// Feed
	mux.Handle("GET /api/feed/page", viewer(h.Feed.Page))
	mux.Handle("GET /api/saved", viewer(h.Feed.Saved))

	// Posts
	mux.Handle("POST /api/posts", viewer(h.Feed.Publish))
	mux.Handle("PATCH /api/posts/{id}", viewer(h.Feed.Edit))
	mux.Handle("DELETE /api/posts/{id}", viewer(h.Feed.Delete))
	mux.Handle("POST /api/posts/{id}/hide", viewer(h.Feed.ToggleHidden))
	mux.Handle("POST /api/posts/{id}/save", viewer(h.Feed.ToggleSaved))
	mux.Handle("POST /api/posts/{id}/reactions", viewer(h.Feed.React))
	mux.Handle("POST /api/posts/{id}/report", viewer(h.Feed.Report))
	mux.Handle("POST /api/posts/{id}/image", viewer(h.Feed.AttachImage))
	mux.Handle("GET /api/posts/{id}/share", viewer(h.Feed.Share))

	// Comments
	mux.Handle("DELETE /api/comments/reply", viewer(h.Comment.CancelReply))
	mux.Handle("POST /api/comments/confirm/{token}", viewer(h.Comment.Confirm))
	mux.Handle("DELETE /api/comments/confirm/{token}", viewer(h.Comment.CancelConfirm))
	mux.Handle("GET /api/posts/{id}/comments", viewer(h.Comment.List))
	mux.Handle("POST /api/posts/{id}/comments", viewer(h.Comment.Send))
	mux.Handle("POST /api/posts/{id}/comments/{commentId}/reply", viewer(h.Comment.SetReplyTarget))
	mux.Handle("POST /api/posts/{id}/comments/{commentId}/edit", viewer(h.Comment.OpenEdit))
	mux.Handle("POST /api/posts/{id}/comments/{commentId}/delete", viewer(h.Comment.OpenDelete))
	mux.Handle("POST /api/posts/{id}/comments/{commentId}/reactions", viewer(h.Comment.React))

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))

	// Profile
	mux.Handle("GET /api/profile", viewer(h.Profile.Get))
	mux.Handle("PATCH /api/profile", viewer(h.Profile.Update))
	mux.Handle("POST /api/profile/avatar", viewer(h.Profile.SetAvatar))
	mux.Handle("POST /api/profile/notes", viewer(h.Profile.AddNote))
	mux.Handle("PATCH /api/profile/notes/{id}", viewer(h.Profile.EditNote))
	mux.Handle("DELETE /api/profile/notes/{id}", viewer(h.Profile.DeleteNote))
	mux.Handle("GET /api/profile/posts", viewer(h.Profile.MyPosts))
	mux.Handle("PATCH /api/profile/posts/{id}", viewer(h.Profile.EditPost))
	mux.Handle("DELETE /api/profile/posts/{id}", viewer(h.Profile.DeletePost))

	// Plans
	mux.HandleFunc("GET /api/plans", h.Plan.Catalog)
	mux.Handle("POST /api/plans/subscribe", viewer(h.Plan.Subscribe))
	mux.Handle("GET /api/plans/current", viewer(h.Plan.Current))
	mux.Handle("GET /api/plans/permissions/{key}", viewer(h.Plan.Permission))

	// Admin
	mux.Handle("GET /api/admin/dashboard", admin(h.Admin.Dashboard))
	mux.Handle("DELETE /api/admin/users/{id}", admin(h.Admin.DeleteUser))
	mux.Handle("DELETE /api/admin/posts/{id}", admin(h.Admin.DeletePost))

	// Ops
	mux.HandleFunc("GET /api/health", h.Stats.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// WebSocket. Browsers cannot set headers on the upgrade, so the
	// handler reads the page id and the optional token from the query.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
