package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/database"
	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg/ratelimit"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/repository"
	"github.com/akinalp/blogme/ws"
)

var errOffline = gateway.ErrUnavailable

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "blogme.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// fakePosts is a scriptable PostGateway. Unset hooks behave as an
// unreachable backend.
type fakePosts struct {
	mu sync.Mutex

	list      []models.Post
	listErr   error
	create    func(models.CreatePostPayload, *models.ImageFile) (*models.Post, error)
	react     func(string, models.ReactionRequest) (*models.ReactionState, error)
	uploadURL string
	reportErr error

	updates []models.UpdatePostRequest
	deletes []string
	reports []models.ReportRequest
}

func (f *fakePosts) List(ctx context.Context) ([]models.Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func (f *fakePosts) Create(ctx context.Context, payload models.CreatePostPayload, image *models.ImageFile) (*models.Post, error) {
	if f.create == nil {
		return nil, errOffline
	}
	return f.create(payload, image)
}

func (f *fakePosts) Update(ctx context.Context, postID string, req models.UpdatePostRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	return nil
}

func (f *fakePosts) Delete(ctx context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, postID)
	return errOffline
}

func (f *fakePosts) React(ctx context.Context, postID string, req models.ReactionRequest) (*models.ReactionState, error) {
	if f.react == nil {
		return nil, errOffline
	}
	return f.react(postID, req)
}

func (f *fakePosts) UploadImage(ctx context.Context, postID string, image *models.ImageFile) (string, error) {
	if f.uploadURL == "" {
		return "", errOffline
	}
	return f.uploadURL, nil
}

func (f *fakePosts) Report(ctx context.Context, postID string, req models.ReportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, req)
	return f.reportErr
}

type sentEvent struct {
	page   string // "*" for broadcasts
	except string
	event  ws.Event
}

// recordingHub captures what services publish.
type recordingHub struct {
	mu     sync.Mutex
	events []sentEvent
}

func (h *recordingHub) BroadcastToAll(event ws.Event) {
	h.record(sentEvent{page: "*", event: event})
}

func (h *recordingHub) BroadcastToAllExcept(except string, event ws.Event) {
	h.record(sentEvent{page: "*", except: except, event: event})
}

func (h *recordingHub) SendToPage(pageID string, event ws.Event) {
	h.record(sentEvent{page: pageID, event: event})
}

func (h *recordingHub) record(e sentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHub) ops(op string) []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentEvent
	for _, e := range h.events {
		if e.event.Op == op {
			out = append(out, e)
		}
	}
	return out
}

type feedFixture struct {
	db     *database.DB
	state  *FeedState
	pager  *Pager
	hub    *recordingHub
	posts  *fakePosts
	feed   *feedService
	store  repository.StoreRepository
	viewer models.Viewer
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()

	db := newTestDB(t)
	renderer, err := render.New()
	require.NoError(t, err)

	hub := &recordingHub{}
	state := NewFeedState(db.Conn)
	pager := NewPager(state, renderer, hub, DefaultPageSize, time.Hour)
	t.Cleanup(pager.Close)

	posts := &fakePosts{}
	feed := NewFeedService(state, pager, posts, nil, ratelimit.NewKeyedLimiter(0.01, 2), "http://localhost:9090/").(*feedService)

	return &feedFixture{
		db:     db,
		state:  state,
		pager:  pager,
		hub:    hub,
		posts:  posts,
		feed:   feed,
		store:  repository.NewSQLiteStoreRepo(db.Conn),
		viewer: models.Viewer{ID: "ana", Name: "Ana", Avatar: models.DefaultAvatar},
	}
}

// seed replaces the feed with n posts, newest first: p0, p1, ...
func (f *feedFixture) seed(n int) {
	posts := make([]*models.Post, n)
	for i := range posts {
		posts[i] = &models.Post{
			ID:            "p" + strconv.Itoa(i),
			Author:        "Ana",
			Content:       "<p>post " + strconv.Itoa(i) + "</p>",
			TS:            time.Now().UnixMilli() - int64(i)*1000,
			Reactions:     models.ZeroReactions(),
			UserReactions: map[string]string{},
		}
	}
	f.state.Replace(context.Background(), posts)
}
