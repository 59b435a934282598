package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/render"
)

// newShortPager builds a pager over f's feed whose cursors expire after ttl.
func newShortPager(t *testing.T, f *feedFixture, ttl time.Duration) *Pager {
	t.Helper()
	renderer, err := render.New()
	require.NoError(t, err)
	p := NewPager(f.state, renderer, f.hub, DefaultPageSize, ttl)
	t.Cleanup(p.Close)
	return p
}

func postIDs(page *Page) []string {
	ids := make([]string, len(page.Posts))
	for i, post := range page.Posts {
		ids[i] = post.ID
	}
	return ids
}

func TestHeartbeatKeepsIdlePageInPlace(t *testing.T) {
	f := newFeedFixture(t)
	f.seed(20)
	p := newShortPager(t, f, 60*time.Millisecond)

	first, err := p.Render("page-1", f.viewer, true)
	require.NoError(t, err)
	assert.Equal(t, "p0", first.Posts[0].ID)

	// idle for well past the TTL, heartbeats only
	for i := 0; i < 6; i++ {
		time.Sleep(20 * time.Millisecond)
		p.Touch("page-1")
	}

	next, err := p.Render("page-1", f.viewer, false)
	require.NoError(t, err)
	assert.False(t, next.Restarted)
	assert.Equal(t, []string{"p8", "p9", "p10", "p11", "p12", "p13", "p14", "p15"}, postIDs(next))
	assert.Equal(t, 16, p.Bindings().Count("page-1"))
}

func TestLostCursorRestartsFromTop(t *testing.T) {
	f := newFeedFixture(t)
	f.seed(20)
	p := newShortPager(t, f, 20*time.Millisecond)

	_, err := p.Render("page-1", f.viewer, true)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	page, err := p.Render("page-1", f.viewer, false)
	require.NoError(t, err)
	assert.True(t, page.Restarted, "the page replaces its cards instead of appending")
	assert.Equal(t, "p0", page.Posts[0].ID)
	assert.Equal(t, 8, page.Offset)
	assert.Equal(t, 8, p.Bindings().Count("page-1"))
}

func TestTouchUnknownPageDoesNothing(t *testing.T) {
	f := newFeedFixture(t)
	p := newShortPager(t, f, time.Hour)

	p.Touch("page-9")
	_, ok := p.ViewerOf("page-9")
	assert.False(t, ok)
}

func TestEvictionSparesRecreatedCursor(t *testing.T) {
	f := newFeedFixture(t)
	f.seed(10)
	p := newShortPager(t, f, time.Hour)

	_, err := p.Render("page-1", f.viewer, true)
	require.NoError(t, err)
	require.Equal(t, 8, p.Bindings().Count("page-1"))

	// a sweep that removed the old cursor reports after Render made a new one
	p.evict("page-1", nil)
	assert.Equal(t, 8, p.Bindings().Count("page-1"))

	p.cursors.Delete("page-1")
	p.evict("page-1", nil)
	assert.Equal(t, 0, p.Bindings().Count("page-1"))
}

func TestRenderPageAfterRestartKeepsPaging(t *testing.T) {
	f := newFeedFixture(t)
	f.seed(12)
	ctx := context.Background()

	page, err := f.feed.RenderPage(ctx, "page-1", f.viewer, false)
	require.NoError(t, err)
	assert.True(t, page.Restarted, "first slice of an unknown page")

	page, err = f.feed.RenderPage(ctx, "page-1", f.viewer, false)
	require.NoError(t, err)
	assert.False(t, page.Restarted)
	assert.Len(t, page.Posts, 4)
}
