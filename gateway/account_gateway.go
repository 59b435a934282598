package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/models"
)

// RemoteIdentity is who the backend says just logged in.
type RemoteIdentity struct {
	ID       string
	Username string
	Email    string
	IsAdmin  bool
}

// AccountGateway covers the backend's user and admin endpoints.
type AccountGateway interface {
	AdminLogin(ctx context.Context, req models.LoginRequest) (*RemoteIdentity, error)
	UserLogin(ctx context.Context, req models.LoginRequest) (*RemoteIdentity, error)
	Register(ctx context.Context, req models.RegisterRequest) error

	ListUsers(ctx context.Context) ([]models.RemoteUser, error)
	ListPosts(ctx context.Context) ([]models.RemotePost, error)
	DeleteUser(ctx context.Context, id string) error
	DeletePost(ctx context.Context, id string) error
}

type accountGateway struct {
	c   *client
	cfg config.RemoteConfig
}

// NewAccountGateway returns an AccountGateway for cfg.BaseURL.
func NewAccountGateway(cfg config.RemoteConfig, httpc *http.Client, metrics *Metrics) AccountGateway {
	return &accountGateway{
		c:   newClient(cfg.BaseURL, httpc, metrics),
		cfg: cfg,
	}
}

// remoteAccount is the user object inside login responses. The backend
// names the id "_id".
type remoteAccount struct {
	ID       string `json:"_id"`
	AltID    string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"correo"`
}

func (a *remoteAccount) identity(isAdmin bool) *RemoteIdentity {
	id := a.ID
	if id == "" {
		id = a.AltID
	}
	return &RemoteIdentity{ID: id, Username: a.Username, Email: a.Email, IsAdmin: isAdmin}
}

func (g *accountGateway) AdminLogin(ctx context.Context, req models.LoginRequest) (*RemoteIdentity, error) {
	return g.login(ctx, "admin_login", "/api/admin/login", "admin", true, req)
}

func (g *accountGateway) UserLogin(ctx context.Context, req models.LoginRequest) (*RemoteIdentity, error) {
	return g.login(ctx, "user_login", "/api/usuarios/login", "usuario", false, req)
}

func (g *accountGateway) login(ctx context.Context, op, path, field string, isAdmin bool, req models.LoginRequest) (*RemoteIdentity, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}

	var ident *RemoteIdentity
	err = g.c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		timeout:     g.cfg.AuthTimeout,
		body:        body,
		contentType: "application/json",
		rejectOn4xx: true,
	}, func(raw []byte) error {
		var out map[string]json.RawMessage
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		var acc remoteAccount
		if err := json.Unmarshal(out[field], &acc); err != nil || acc.Username == "" {
			return fmt.Errorf("%w: missing %q in login response", models.ErrDecode, field)
		}
		ident = acc.identity(isAdmin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func (g *accountGateway) Register(ctx context.Context, req models.RegisterRequest) error {
	body, err := jsonBody(req)
	if err != nil {
		return fmt.Errorf("%w: register: %v", ErrUnavailable, err)
	}
	return g.c.do(ctx, request{
		op:          "register",
		method:      http.MethodPost,
		path:        "/api/usuarios/registrar",
		timeout:     g.cfg.AuthTimeout,
		body:        body,
		contentType: "application/json",
		rejectOn4xx: true,
	}, nil)
}

func (g *accountGateway) ListUsers(ctx context.Context) ([]models.RemoteUser, error) {
	var users []models.RemoteUser
	err := g.c.do(ctx, request{
		op:      "admin_list_users",
		method:  http.MethodGet,
		path:    "/api/admin/usuarios",
		timeout: g.cfg.ListTimeout,
	}, func(raw []byte) error {
		return json.Unmarshal(raw, &users)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (g *accountGateway) ListPosts(ctx context.Context) ([]models.RemotePost, error) {
	var posts []models.RemotePost
	err := g.c.do(ctx, request{
		op:      "admin_list_posts",
		method:  http.MethodGet,
		path:    "/api/admin/publicaciones",
		timeout: g.cfg.ListTimeout,
	}, func(raw []byte) error {
		return json.Unmarshal(raw, &posts)
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (g *accountGateway) DeleteUser(ctx context.Context, id string) error {
	return g.c.do(ctx, request{
		op:      "admin_delete_user",
		method:  http.MethodDelete,
		path:    "/api/admin/usuarios/" + url.PathEscape(id),
		timeout: g.cfg.DeleteTimeout,
	}, nil)
}

func (g *accountGateway) DeletePost(ctx context.Context, id string) error {
	return g.c.do(ctx, request{
		op:      "admin_delete_post",
		method:  http.MethodDelete,
		path:    "/api/admin/publicaciones/" + url.PathEscape(id),
		timeout: g.cfg.DeleteTimeout,
	}, nil)
}
