package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/database"
	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg/i18n"
	"github.com/akinalp/blogme/pkg/ratelimit"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/services"
	"github.com/akinalp/blogme/ws"
)

func TestMain(m *testing.M) {
	locales, err := fs.Sub(i18n.EmbeddedLocales, "locales")
	if err != nil {
		panic(err)
	}
	if err := i18n.Load(locales); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// offlinePosts is a backend that never answers.
type offlinePosts struct{}

func (offlinePosts) List(context.Context) ([]models.Post, error) { return nil, gateway.ErrUnavailable }
func (offlinePosts) Create(context.Context, models.CreatePostPayload, *models.ImageFile) (*models.Post, error) {
	return nil, gateway.ErrUnavailable
}
func (offlinePosts) Update(context.Context, string, models.UpdatePostRequest) error {
	return gateway.ErrUnavailable
}
func (offlinePosts) Delete(context.Context, string) error { return gateway.ErrUnavailable }
func (offlinePosts) React(context.Context, string, models.ReactionRequest) (*models.ReactionState, error) {
	return nil, gateway.ErrUnavailable
}
func (offlinePosts) UploadImage(context.Context, string, *models.ImageFile) (string, error) {
	return "", gateway.ErrUnavailable
}
func (offlinePosts) Report(context.Context, string, models.ReportRequest) error {
	return gateway.ErrUnavailable
}

type silentHub struct{}

func (silentHub) BroadcastToAll(ws.Event)               {}
func (silentHub) BroadcastToAllExcept(string, ws.Event) {}
func (silentHub) SendToPage(string, ws.Event)           {}

type feedServer struct {
	state *services.FeedState
	feed  services.FeedService
	mux   *http.ServeMux
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)
	db, err := database.New(filepath.Join(t.TempDir(), "blogme.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	renderer, err := render.New()
	require.NoError(t, err)

	state := services.NewFeedState(db.Conn)
	pager := services.NewPager(state, renderer, silentHub{}, services.DefaultPageSize, time.Hour)
	t.Cleanup(pager.Close)

	feed := services.NewFeedService(state, pager, offlinePosts{}, nil, ratelimit.NewKeyedLimiter(1, 1), "http://localhost:9090")
	t.Cleanup(feed.Wait)
	reactions := services.NewReactionService(state, pager, offlinePosts{}, time.Second)
	h := NewFeedHandler(feed, reactions, services.NewImageService(1<<20), renderer, 1<<20)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /p/{id}", h.Read)
	mux.HandleFunc("GET /api/feed/page", h.Page)
	mux.HandleFunc("POST /api/posts", h.Publish)
	mux.HandleFunc("POST /api/posts/{id}/save", h.ToggleSaved)
	mux.HandleFunc("GET /api/posts/{id}/share", h.Share)

	return &feedServer{state: state, feed: feed, mux: mux}
}

func (s *feedServer) seed(ids ...string) {
	posts := make([]*models.Post, len(ids))
	for i, id := range ids {
		posts[i] = &models.Post{
			ID:            id,
			Author:        "Ana",
			Content:       "<p>" + id + "</p>",
			TS:            time.Now().UnixMilli() - int64(i),
			Reactions:     models.ZeroReactions(),
			UserReactions: map[string]string{},
		}
	}
	s.state.Replace(context.Background(), posts)
}

func (s *feedServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestIndexRendersFeedPage(t *testing.T) {
	s := newFeedServer(t)
	s.seed("p0", "p1")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `data-page="`)
	assert.Contains(t, body, `id="feed"`)
	assert.Contains(t, body, "<p>p0</p>")
}

func TestPublishTranslatesValidationError(t *testing.T) {
	s := newFeedServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"<p> </p>"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Escribe algo para publicar", env.Error)

	req = httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"<p> </p>"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	env = decodeEnvelope(t, s.do(req))
	assert.Equal(t, "Write something to publish", env.Error)
}

func TestPublishOfflineRefreshesOriginPage(t *testing.T) {
	s := newFeedServer(t)
	s.seed("p0")

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"<p>hola</p>","category":"General"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(PageHeader, "page-1")
	rec := s.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Publicado (offline)", env.Message)

	var data struct {
		Post models.Post `json:"post"`
		Page struct {
			PageID string `json:"page_id"`
			HTML   string `json:"html"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Invitado", data.Post.Author)
	assert.Equal(t, "page-1", data.Page.PageID)
	assert.Contains(t, data.Page.HTML, "<p>hola</p>")
	assert.Equal(t, 2, s.state.Len())
}

func TestFeedPageNeedsPageID(t *testing.T) {
	s := newFeedServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/feed/page", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/feed/page?page=page-1&reset=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), "No hay publicaciones")
}

func TestReadModeAndShare(t *testing.T) {
	s := newFeedServer(t)
	s.seed("p0")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/p/p0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<p>p0</p>")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/p/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/posts/p0/share", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.JSONEq(t, `{"url":"http://localhost:9090/p/p0"}`, string(env.Data))
}

func TestToggleSavedFlips(t *testing.T) {
	s := newFeedServer(t)
	s.seed("p0")

	env := decodeEnvelope(t, s.do(httptest.NewRequest(http.MethodPost, "/api/posts/p0/save", nil)))
	assert.JSONEq(t, `{"saved":true}`, string(env.Data))
	assert.Equal(t, "Guardado", env.Message)

	env = decodeEnvelope(t, s.do(httptest.NewRequest(http.MethodPost, "/api/posts/p0/save", nil)))
	assert.JSONEq(t, `{"saved":false}`, string(env.Data))
	assert.Equal(t, "Quitado de guardados", env.Message)
}
