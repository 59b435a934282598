package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/repository"
)

// fakeAccounts is a scriptable AccountGateway. Unset hooks behave as an
// unreachable backend.
type fakeAccounts struct {
	adminLogin func(models.LoginRequest) (*gateway.RemoteIdentity, error)
	userLogin  func(models.LoginRequest) (*gateway.RemoteIdentity, error)
	register   func(models.RegisterRequest) error

	users      []models.RemoteUser
	posts      []models.RemotePost
	listErr    error
	deleteErr  error
	deletedIDs []string
}

func (f *fakeAccounts) AdminLogin(ctx context.Context, req models.LoginRequest) (*gateway.RemoteIdentity, error) {
	if f.adminLogin == nil {
		return nil, errOffline
	}
	return f.adminLogin(req)
}

func (f *fakeAccounts) UserLogin(ctx context.Context, req models.LoginRequest) (*gateway.RemoteIdentity, error) {
	if f.userLogin == nil {
		return nil, errOffline
	}
	return f.userLogin(req)
}

func (f *fakeAccounts) Register(ctx context.Context, req models.RegisterRequest) error {
	if f.register == nil {
		return errOffline
	}
	return f.register(req)
}

func (f *fakeAccounts) ListUsers(ctx context.Context) ([]models.RemoteUser, error) {
	return f.users, f.listErr
}

func (f *fakeAccounts) ListPosts(ctx context.Context) ([]models.RemotePost, error) {
	return f.posts, f.listErr
}

func (f *fakeAccounts) DeleteUser(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func (f *fakeAccounts) DeletePost(ctx context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func rejected(msg string) func(models.LoginRequest) (*gateway.RemoteIdentity, error) {
	return func(models.LoginRequest) (*gateway.RemoteIdentity, error) {
		return nil, &gateway.RejectedError{Status: 401, Msg: msg}
	}
}

type authFixture struct {
	remote *fakeAccounts
	store  repository.StoreRepository
	svc    AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := newFeedFixture(t)
	remote := &fakeAccounts{}
	profiles := NewProfileService(f.store, f.feed)
	svc := NewAuthService(
		repository.NewSQLiteAccountRepo(f.db.Conn),
		repository.NewSQLiteSessionRepo(f.db.Conn),
		f.store, remote, profiles, "test-secret", 15, 1,
	)
	return &authFixture{remote: remote, store: f.store, svc: svc}
}

func TestLoginValidation(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := a.svc.Login(ctx, models.LoginRequest{Username: "ana"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgMissingFields, pkg.UserMessage(err))

	_, _, err = a.svc.Login(ctx, models.LoginRequest{Username: "a b", Password: "secret1"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgInvalidUsername, pkg.UserMessage(err))
}

func TestRemoteLoginThenOfflineLogin(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()
	req := models.LoginRequest{Username: "ana", Password: "secret1"}

	a.remote.adminLogin = rejected("")
	a.remote.userLogin = func(r models.LoginRequest) (*gateway.RemoteIdentity, error) {
		return &gateway.RemoteIdentity{ID: "r1", Username: r.Username, Email: "ana@x.io"}, nil
	}

	res, welcome, err := a.svc.Login(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, MsgWelcome, welcome.Message)
	assert.Equal(t, "ana", welcome.Params["name"])
	assert.Equal(t, "ana", res.Account.Username)
	assert.Empty(t, res.Account.PasswordHash)
	assert.NotEmpty(t, res.Tokens.AccessToken)

	active, ok, err := a.store.Get(ctx, models.ActiveUserKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ana", active)

	// backend goes away: the stored credentials still work
	a.remote.adminLogin = nil
	a.remote.userLogin = nil
	_, _, err = a.svc.Login(ctx, req)
	require.NoError(t, err)

	_, _, err = a.svc.Login(ctx, models.LoginRequest{Username: "ana", Password: "wrong1"})
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Equal(t, MsgBadCredentials, pkg.UserMessage(err))
}

func TestOfflineLoginWithoutLocalAccount(t *testing.T) {
	a := newAuthFixture(t)

	_, _, err := a.svc.Login(context.Background(), models.LoginRequest{Username: "luis", Password: "secret1"})
	require.ErrorIs(t, err, pkg.ErrUnavailable)
	assert.Equal(t, MsgUnreachable, pkg.UserMessage(err))
}

func TestRejectedLoginShowsBackendMessage(t *testing.T) {
	a := newAuthFixture(t)
	a.remote.adminLogin = rejected("")
	a.remote.userLogin = rejected("Usuario bloqueado")

	_, _, err := a.svc.Login(context.Background(), models.LoginRequest{Username: "ana", Password: "secret1"})
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Equal(t, "Usuario bloqueado", pkg.UserMessage(err))
}

func TestAdminLogin(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()
	a.remote.adminLogin = func(r models.LoginRequest) (*gateway.RemoteIdentity, error) {
		return &gateway.RemoteIdentity{ID: "a1", Username: r.Username, IsAdmin: true}, nil
	}

	res, welcome, err := a.svc.Login(ctx, models.LoginRequest{Username: "root", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, MsgWelcomeAdmin, welcome.Message)
	assert.True(t, res.Viewer.IsAdmin)

	claims, err := a.svc.ValidateAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.True(t, a.svc.ActiveViewer(ctx).IsAdmin)
}

func TestRegister(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()
	good := models.RegisterRequest{Username: "ana", Email: "ana@x.io", Password: "secret1"}

	cases := []struct {
		req  models.RegisterRequest
		want string
	}{
		{models.RegisterRequest{Username: "ana"}, MsgMissingFields},
		{models.RegisterRequest{Username: "a!", Email: "ana@x.io", Password: "secret1"}, MsgInvalidUsernameReg},
		{models.RegisterRequest{Username: "ana", Email: "ana", Password: "secret1"}, MsgInvalidEmail},
		{models.RegisterRequest{Username: "ana", Email: "ana@x.io", Password: "123"}, MsgShortPassword},
	}
	for _, tc := range cases {
		_, err := a.svc.Register(ctx, tc.req)
		require.ErrorIs(t, err, pkg.ErrBadRequest)
		assert.Equal(t, tc.want, pkg.UserMessage(err))
	}

	a.remote.register = func(models.RegisterRequest) error {
		return &gateway.RejectedError{Status: 400, Msg: "El usuario ya existe"}
	}
	_, err := a.svc.Register(ctx, good)
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, "El usuario ya existe", pkg.UserMessage(err))

	a.remote.register = func(models.RegisterRequest) error { return nil }
	res, err := a.svc.Register(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, MsgRegistered, res.Message)
}

func TestRegisterOffline(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()
	req := models.RegisterRequest{Username: "ana", Email: "ana@x.io", Password: "secret1"}

	res, err := a.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, MsgRegisteredOffline, res.Message)

	_, err = a.svc.Register(ctx, req)
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	assert.Equal(t, MsgUsernameTaken, pkg.UserMessage(err))

	// and the local account logs in
	_, _, err = a.svc.Login(ctx, models.LoginRequest{Username: "ana", Password: "secret1"})
	assert.NoError(t, err)
}

func TestRefreshAndLogout(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()
	a.remote.userLogin = func(r models.LoginRequest) (*gateway.RemoteIdentity, error) {
		return &gateway.RemoteIdentity{ID: "r1", Username: r.Username}, nil
	}

	res, _, err := a.svc.Login(ctx, models.LoginRequest{Username: "ana", Password: "secret1"})
	require.NoError(t, err)

	next, err := a.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.RefreshToken, next.Tokens.RefreshToken)

	// refresh tokens rotate
	_, err = a.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Equal(t, MsgSessionExpired, pkg.UserMessage(err))

	out, err := a.svc.Logout(ctx, next.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, MsgLoggedOut, out.Message)
	assert.True(t, a.svc.ActiveViewer(ctx).IsAnon())

	_, err = a.svc.Refresh(ctx, next.Tokens.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	a := newAuthFixture(t)

	_, err := a.svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestActiveViewerAcceptsLegacyObject(t *testing.T) {
	a := newAuthFixture(t)
	ctx := context.Background()

	assert.True(t, a.svc.ActiveViewer(ctx).IsAnon())

	require.NoError(t, a.store.Set(ctx, models.ActiveUserKey, `{"username":"ana","correo":"ana@x.io"}`))
	v := a.svc.ActiveViewer(ctx)
	assert.Equal(t, "ana", v.ID)
	assert.False(t, v.IsAnon())
}
