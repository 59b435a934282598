// Package handlers turns HTTP requests into service calls.
//
// Handlers stay thin: decode the request, call one service, translate the
// resulting message key and write the envelope. They never touch the
// database or the remote backend directly.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/pkg/ratelimit"
	"github.com/akinalp/blogme/services"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewAuthHandler creates the auth handler. A nil loginLimiter disables
// login throttling.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// Register godoc
// POST /api/auth/register
// Body: { "username", "correo", "password" }
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated, nil, res)
}

// Login godoc
// POST /api/auth/login
//
// Failed attempts are counted per IP; a successful login clears the count.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			localizer(r).TWithParams("auth.too_many_attempts", map[string]string{
				"wait": ratelimit.FormatRetryMessage(retryAfter),
			}))
		return
	}

	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	result, res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	writeResult(w, r, http.StatusOK, result, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r, pkg.ErrUnauthorized)
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }, optional. Clears the device's active
// user either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	res, err := h.authService.Logout(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}

// Me godoc
// GET /api/auth/me
// The viewer the page acts as; the guest when nobody is logged in.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, ViewerFrom(r))
}
