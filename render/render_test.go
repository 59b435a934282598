package render

import (
	"strings"
	"testing"
	"time"

	"github.com/akinalp/blogme/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAgo(t *testing.T) {
	now := time.UnixMilli(10_000_000_000)
	ms := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	assert.Equal(t, "", TimeAgo(0, now))
	assert.Equal(t, "42s", TimeAgo(ms(42*time.Second), now))
	assert.Equal(t, "5m", TimeAgo(ms(5*time.Minute+10*time.Second), now))
	assert.Equal(t, "3h", TimeAgo(ms(3*time.Hour), now))
	assert.Equal(t, "2d", TimeAgo(ms(50*time.Hour), now))
	assert.Equal(t, "0s", TimeAgo(now.Add(time.Minute).UnixMilli(), now))
}

func TestReactionsMarksViewerChoice(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	p := &models.Post{
		ID:            "p1",
		Reactions:     map[string]int{"😂": 3},
		UserReactions: map[string]string{"ana": "😂"},
	}

	html, err := r.Reactions(p, "ana")
	require.NoError(t, err)
	assert.Contains(t, html, `id="post-p1-reactions"`)
	assert.Equal(t, 1, strings.Count(html, "react-btn active"))
	assert.Contains(t, html, `<span class="count">3</span>`)

	html, err = r.Reactions(p, "leo")
	require.NoError(t, err)
	assert.NotContains(t, html, "active")
}

func TestPostCardsEscapeAuthorButKeepContent(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	p := &models.Post{
		ID:           "p1",
		Author:       `<b>x</b>`,
		AuthorAvatar: "data:image/png;base64,AAAA",
		Content:      `<p>hola <strong>mundo</strong></p>`,
		Imgs:         []string{"javascript:alert(1)", "https://cdn/a.png"},
		TS:           time.Now().UnixMilli(),
	}

	html, err := r.PostCards([]*models.Post{p}, "ana", func(id string) bool { return id == "p1" })
	require.NoError(t, err)
	assert.Contains(t, html, `&lt;b&gt;x&lt;/b&gt;`)
	assert.Contains(t, html, `<p>hola <strong>mundo</strong></p>`)
	assert.Contains(t, html, `src="data:image/png;base64,AAAA"`)
	assert.Contains(t, html, `src="https://cdn/a.png"`)
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "save saved")
}

func TestPageAndReader(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Reader(&models.Post{ID: "p1", Author: "ana", Content: "<p>x</p>"}, ReaderLabels{Comments: "Comentarios", Save: "Guardar"})
	require.NoError(t, err)
	assert.Contains(t, html, `id="readerOverlay"`)
	assert.Contains(t, html, "Comentarios")

	page, err := r.Page(PageView{Lang: "es", Title: "BlogMe", PageID: "pg1", Body: "<div id=\"feed\"></div>", Script: "feed.js"})
	require.NoError(t, err)
	assert.Contains(t, page, `data-page="pg1"`)
	assert.Contains(t, page, `<div id="feed"></div>`)
}

func TestFeedBody(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Feed(FeedView{
		Viewer:  models.AnonViewer(),
		Cards:   `<article id="post-p1"></article>`,
		Offset:  1,
		HasMore: true,
	})
	require.NoError(t, err)
	assert.Contains(t, html, `id="composer"`)
	assert.Contains(t, html, `<article id="post-p1"></article>`)
	assert.Contains(t, html, `data-offset="1"`)
	assert.Contains(t, html, "feedSentinel")
	assert.Contains(t, html, "Invitado")
}

func TestBindings(t *testing.T) {
	b := NewBindings()

	b.Attach("page1", "post-a-reactions", "post-b-reactions")
	b.Attach("page1", "post-a-reactions")
	b.Attach("page2", "post-a-reactions")

	assert.Equal(t, []string{"page1", "page2"}, b.Subscribers("post-a-reactions"))
	assert.Equal(t, 2, b.Count("page1"))

	b.DetachAll("page1")
	assert.Equal(t, []string{"page2"}, b.Subscribers("post-a-reactions"))
	assert.Empty(t, b.Subscribers("post-b-reactions"))
	assert.Equal(t, 0, b.Count("page1"))

	b.Detach("post-a-reactions")
	assert.Empty(t, b.Subscribers("post-a-reactions"))
	assert.Equal(t, 0, b.Count("page2"))
}
