// Package services holds the business rules of BlogMe.
//
// Services sit between handlers and repositories/gateways: they never see
// an http.Request and never run SQL themselves. Each service is an
// interface with a private implementation built by a New* constructor.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/repository"
)

// bcryptCost of local account hashes.
const bcryptCost = 12

// AuthResult is returned by login and refresh.
type AuthResult struct {
	Tokens  models.TokenPair `json:"tokens"`
	Account models.Account   `json:"account"`
	Viewer  models.Viewer    `json:"viewer"`
}

// AuthService logs users in against the remote backend, keeps a local
// credential copy for offline login and issues the page's session tokens.
type AuthService interface {
	// Login tries the admin endpoint, then the user endpoint. When the
	// backend cannot be reached the local account is used instead.
	Login(ctx context.Context, req models.LoginRequest) (*AuthResult, Result, error)
	Register(ctx context.Context, req models.RegisterRequest) (Result, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) (Result, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)

	// ViewerFor builds the viewer of a validated token.
	ViewerFor(ctx context.Context, claims *models.TokenClaims) models.Viewer
	// ActiveViewer is the user last logged in on this device, or the
	// guest when nobody is.
	ActiveViewer(ctx context.Context) models.Viewer
}

type authService struct {
	accounts   repository.AccountRepository
	sessions   repository.SessionRepository
	store      repository.StoreRepository
	remote     gateway.AccountGateway
	profiles   ProfileService
	jwtSecret  []byte
	accessExp  time.Duration
	refreshExp time.Duration
}

// NewAuthService creates the auth service.
func NewAuthService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	store repository.StoreRepository,
	remote gateway.AccountGateway,
	profiles ProfileService,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		accounts:   accounts,
		sessions:   sessions,
		store:      store,
		remote:     remote,
		profiles:   profiles,
		jwtSecret:  []byte(jwtSecret),
		accessExp:  time.Duration(accessExpMinutes) * time.Minute,
		refreshExp: time.Duration(refreshExpDays) * 24 * time.Hour,
	}
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, Result, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgMissingFields)
	}
	if !models.UsernamePattern.MatchString(req.Username) {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgInvalidUsername)
	}

	account, err := s.remoteLogin(ctx, req)
	if errors.Is(err, gateway.ErrUnavailable) {
		log.Printf("[auth] backend unreachable, trying local account for %s", req.Username)
		account, err = s.localLogin(ctx, req)
	}
	if err != nil {
		return nil, Result{}, err
	}

	if err := s.store.Set(ctx, models.ActiveUserKey, account.Username); err != nil {
		return nil, Result{}, fmt.Errorf("failed to set active user: %w", err)
	}

	res, err := s.issue(ctx, account)
	if err != nil {
		return nil, Result{}, err
	}

	welcome := Result{
		Message: MsgWelcome,
		Params:  map[string]string{"name": account.Username},
		Kind:    "success",
	}
	if account.IsAdmin {
		welcome.Message = MsgWelcomeAdmin
	}
	return res, welcome, nil
}

// remoteLogin authenticates against the backend and refreshes the local
// copy of the credentials. Errors are gateway.ErrUnavailable or a domain
// error carrying the message to show.
func (s *authService) remoteLogin(ctx context.Context, req models.LoginRequest) (*models.Account, error) {
	ident, err := s.remote.AdminLogin(ctx, req)
	if err != nil {
		ident, err = s.remote.UserLogin(ctx, req)
	}
	if err != nil {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) {
			msg := rejected.Msg
			if msg == "" {
				msg = MsgBadCredentials
			}
			return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, msg)
		}
		return nil, err
	}

	if ident.Username == "" {
		ident.Username = req.Username
	}
	return s.upsertAccount(ctx, ident.Username, ident.Email, req.Password, ident.IsAdmin)
}

func (s *authService) localLogin(ctx context.Context, req models.LoginRequest) (*models.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", pkg.ErrUnavailable, MsgUnreachable)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, MsgBadCredentials)
	}
	return account, nil
}

// upsertAccount stores or updates the local credentials of username.
func (s *authService) upsertAccount(ctx context.Context, username, email, password string, isAdmin bool) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		account = &models.Account{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			IsAdmin:      isAdmin,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to create local account: %w", err)
		}
		return account, nil
	case err != nil:
		return nil, err
	}

	if err := s.accounts.UpdateCredentials(ctx, account.ID, string(hash), isAdmin); err != nil {
		return nil, fmt.Errorf("failed to update local account: %w", err)
	}
	account.PasswordHash = string(hash)
	account.IsAdmin = isAdmin
	return account, nil
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (Result, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgMissingFields)
	}
	if !models.UsernamePattern.MatchString(req.Username) {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgInvalidUsernameReg)
	}
	if !models.EmailPattern.MatchString(req.Email) {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgInvalidEmail)
	}
	if len(req.Password) < models.MinPasswordLength {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgShortPassword)
	}

	err := s.remote.Register(ctx, req)
	if err != nil && !errors.Is(err, gateway.ErrUnavailable) {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) && rejected.Msg != "" {
			return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, rejected.Msg)
		}
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgRegisterFailed)
	}

	if err != nil {
		// Offline: the name must at least be free on this device.
		log.Printf("[auth] backend unreachable, registering %s locally: %v", req.Username, err)
		if _, getErr := s.accounts.GetByUsername(ctx, req.Username); getErr == nil {
			return Result{}, fmt.Errorf("%w: %s", pkg.ErrAlreadyExists, MsgUsernameTaken)
		}
	}

	if _, upErr := s.upsertAccount(ctx, req.Username, req.Email, req.Password, false); upErr != nil {
		return Result{}, upErr
	}

	if err != nil {
		return info(MsgRegisteredOffline), nil
	}
	return success(MsgRegistered), nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, MsgSessionExpired)
		}
		return nil, err
	}

	if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnauthorized, MsgSessionExpired)
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, account)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) (Result, error) {
	if refreshToken != "" {
		session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
		switch {
		case err == nil:
			if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
				return Result{}, err
			}
		case !errors.Is(err, pkg.ErrNotFound):
			return Result{}, err
		}
	}

	if err := s.store.Remove(ctx, models.ActiveUserKey); err != nil {
		return Result{}, fmt.Errorf("failed to clear active user: %w", err)
	}
	return info(MsgLoggedOut), nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) ViewerFor(ctx context.Context, claims *models.TokenClaims) models.Viewer {
	return s.viewer(ctx, claims.Username, claims.IsAdmin)
}

func (s *authService) viewer(ctx context.Context, username string, isAdmin bool) models.Viewer {
	v := models.Viewer{ID: username, Name: username, Avatar: models.DefaultAvatar, IsAdmin: isAdmin}
	prof, err := s.profiles.Get(ctx, username)
	if err != nil {
		log.Printf("[auth] failed to load profile of %s: %v", username, err)
		return v
	}
	if prof.Name != "" {
		v.Name = prof.Name
	}
	if prof.Avatar != "" {
		v.Avatar = prof.Avatar
	}
	return v
}

func (s *authService) ActiveViewer(ctx context.Context) models.Viewer {
	raw, ok, err := s.store.Get(ctx, models.ActiveUserKey)
	if err != nil || !ok {
		return models.AnonViewer()
	}
	username := activeUsername(raw)
	if username == "" {
		return models.AnonViewer()
	}

	isAdmin := false
	if account, err := s.accounts.GetByUsername(ctx, username); err == nil {
		isAdmin = account.IsAdmin
	}
	return s.viewer(ctx, username, isAdmin)
}

// activeUsername reads the active-user pointer. Older clients stored the
// whole user object as JSON instead of the bare name.
func activeUsername(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var u struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return ""
		}
		return u.Username
	}
	return raw
}

// issue signs an access token and opens a refresh session for account.
func (s *authService) issue(ctx context.Context, account *models.Account) (*AuthResult, error) {
	if _, err := s.profiles.Get(ctx, account.Username); err != nil {
		return nil, err
	}

	now := time.Now()
	claims := &models.TokenClaims{
		UserID:   account.ID,
		Username: account.Username,
		IsAdmin:  account.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "blogme",
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := hex.EncodeToString(refreshBytes)

	if err := s.sessions.Create(ctx, &models.Session{
		AccountID:    account.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.refreshExp),
	}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	out := *account
	out.PasswordHash = ""
	return &AuthResult{
		Tokens:  models.TokenPair{AccessToken: access, RefreshToken: refresh},
		Account: out,
		Viewer:  s.viewer(ctx, account.Username, account.IsAdmin),
	}, nil
}
