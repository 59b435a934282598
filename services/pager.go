package services

import (
	"log"
	"sync"
	"time"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg/cache"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/ws"
)

// DefaultPageSize is how many cards one page of the feed carries.
const DefaultPageSize = 8

// Page is one slice of the feed as rendered for a page.
type Page struct {
	Posts     []*models.Post `json:"-"`
	HTML      string         `json:"html"`
	Offset    int            `json:"offset"`
	HasMore   bool           `json:"has_more"`
	Exhausted bool           `json:"exhausted"` // nothing left to append
	Empty     bool           `json:"empty"`     // the feed has no posts at all
	Restarted bool           `json:"restarted"` // the cursor was lost; HTML starts from the top
	Hint      string         `json:"-"`         // message key shown when Empty
}

// pageCursor is the paging position of one open page and the viewer
// looking at it.
type pageCursor struct {
	viewer models.Viewer
	offset int
}

// Pager renders the feed in slices and keeps the open pages' reaction rows
// up to date.
//
// Each loaded page has an id; its cursor lives in a TTL cache. Loading a
// slice or a websocket heartbeat (Touch) keeps it alive, so only a page
// that went away ages out, and the eviction drops its bindings. A page
// whose cursor is gone anyway gets its next slice from the top with
// Restarted set, and replaces its cards instead of appending.
type Pager struct {
	// mu orders cursor changes with binding changes, so an eviction can
	// not detach bindings a concurrent Render just attached.
	mu sync.Mutex

	state    *FeedState
	renderer *render.Renderer
	bindings *render.Bindings
	hub      ws.EventPublisher
	cursors  *cache.TTLCache[string, *pageCursor]
	pageSize int
}

// NewPager creates the pager. pageSize <= 0 uses DefaultPageSize.
func NewPager(state *FeedState, renderer *render.Renderer, hub ws.EventPublisher, pageSize int, cursorTTL time.Duration) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	sweep := time.Minute
	if cursorTTL > 0 && cursorTTL < sweep {
		sweep = cursorTTL
	}
	p := &Pager{
		state:    state,
		renderer: renderer,
		bindings: render.NewBindings(),
		hub:      hub,
		cursors:  cache.New[string, *pageCursor](cursorTTL, sweep),
		pageSize: pageSize,
	}
	p.cursors.OnEvict(p.evict)
	return p
}

// evict drops the bindings of an expired cursor, unless a Render created
// a new cursor for the page after the sweep removed the old one.
func (p *Pager) evict(pageID string, _ *pageCursor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.cursors.Get(pageID); ok {
		return
	}
	p.bindings.DetachAll(pageID)
}

// Render returns the next slice for pageID. reset starts over from the
// top and drops every binding the page had.
//
// The slice is cut from a snapshot of the list taken under the pager
// lock, and the cursor advances to its end. Every rendered card's
// reaction row is bound to the page so later toggles patch it in place.
// Past the end the page is Exhausted with no HTML; on an empty feed a
// first slice is also Empty and carries the MsgNoPosts hint.
func (p *Pager) Render(pageID string, viewer models.Viewer, reset bool) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	posts := p.state.Snapshot()

	var start, end int
	restarted := false
	p.cursors.Update(pageID, func(cur *pageCursor, found bool) *pageCursor {
		if !found || reset || cur == nil {
			restarted = !reset
			cur = &pageCursor{}
		}
		cur.viewer = viewer
		start = min(cur.offset, len(posts))
		end = min(start+p.pageSize, len(posts))
		cur.offset = end
		return cur
	})
	if reset || restarted {
		p.bindings.DetachAll(pageID)
	}

	page := &Page{Offset: end, Restarted: restarted}

	if len(posts) == 0 {
		page.Empty = reset || restarted
		page.Exhausted = true
		page.Hint = MsgNoPosts
		return page, nil
	}

	slice := posts[start:end]
	if len(slice) == 0 {
		page.Exhausted = true
		return page, nil
	}

	html, err := p.renderer.PostCards(slice, viewer.ID, p.state.IsSaved)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(slice))
	for i, post := range slice {
		ids[i] = render.ReactionsElementID(post.ID)
	}
	p.bindings.Attach(pageID, ids...)

	page.Posts = slice
	page.HTML = html
	page.HasMore = end < len(posts)
	return page, nil
}

// ViewerOf returns the viewer recorded for pageID.
func (p *Pager) ViewerOf(pageID string) (models.Viewer, bool) {
	cur, ok := p.cursors.Get(pageID)
	if !ok || cur == nil {
		return models.Viewer{}, false
	}
	return cur.viewer, true
}

// Touch keeps the cursor of pageID alive. Wired to the hub's heartbeat
// hook, so an open tab that stops scrolling keeps its place.
func (p *Pager) Touch(pageID string) {
	p.cursors.Touch(pageID)
}

// ClosePage forgets pageID. Wired to the hub's page-closed hook.
func (p *Pager) ClosePage(pageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors.Delete(pageID)
	p.bindings.DetachAll(pageID)
}

// PatchReactions re-renders the reaction row of postID for every page
// that shows it, each from that page's viewer's point of view.
//
// Rows are rendered once per distinct viewer. A page whose cursor already
// expired is patched as the anonymous viewer. A render failure stops the
// whole patch round; the next toggle or reset repairs the rows.
func (p *Pager) PatchReactions(postID string) {
	post, ok := p.state.Post(postID)
	if !ok {
		return
	}

	elementID := render.ReactionsElementID(postID)
	rendered := make(map[string]string) // viewer id -> html
	for _, pageID := range p.bindings.Subscribers(elementID) {
		viewer, ok := p.ViewerOf(pageID)
		if !ok {
			viewer = models.AnonViewer()
		}

		html, ok := rendered[viewer.ID]
		if !ok {
			var err error
			html, err = p.renderer.Reactions(post, viewer.ID)
			if err != nil {
				log.Printf("[feed] failed to render reactions of %s: %v", postID, err)
				return
			}
			rendered[viewer.ID] = html
		}

		p.hub.SendToPage(pageID, ws.Event{
			Op: ws.OpReactionPatch,
			Data: ws.ReactionPatchData{
				PostID:    postID,
				ElementID: elementID,
				HTML:      html,
			},
		})
	}
}

// Reset tells every open page but origin to re-render the feed. The page
// that made the change re-renders from its own response.
func (p *Pager) Reset(origin string) {
	event := ws.Event{Op: ws.OpFeedReset}
	if origin == "" {
		p.hub.BroadcastToAll(event)
		return
	}
	p.hub.BroadcastToAllExcept(origin, event)
}

// Forget drops the bindings of a deleted post.
func (p *Pager) Forget(postID string) {
	p.bindings.Detach(render.ReactionsElementID(postID))
}

// Bindings exposes the registry, read by tests and the health endpoint.
func (p *Pager) Bindings() *render.Bindings {
	return p.bindings
}

// Close stops the cursor sweeper.
func (p *Pager) Close() {
	p.cursors.Close()
}
