package services

import (
	"context"
	"database/sql"
	"log"
	"slices"
	"sync"

	"github.com/akinalp/blogme/database"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/repository"
)

// FeedState owns the device's post list and saved set.
//
// Every mutation runs inside one critical section: the change is applied
// and the whole list persisted before the lock is released, so two
// requests never interleave half-applied edits. Readers get clones.
//
// The list is stored as one JSON blob under models.PostsKey, newest post
// first, and the saved set as a second blob under models.SavedKey. Both
// blobs are rewritten whole on every change.
type FeedState struct {
	mu sync.Mutex
	db *sql.DB

	// posts is the current list, newest first. Only Mutate replaces it.
	posts []*models.Post

	// saved holds post ids, most recently saved first. Ids may outlive
	// their post; readers resolve them through Post.
	saved []string
}

// NewFeedState creates an empty state persisted through db.
func NewFeedState(db *sql.DB) *FeedState {
	return &FeedState{db: db}
}

// Load hydrates the state from the local store. Missing or corrupt blobs
// load as empty.
func (s *FeedState) Load(ctx context.Context) {
	store := repository.NewSQLiteStoreRepo(s.db)
	posts := repository.LoadJSON(ctx, store, models.PostsKey, []*models.Post{})
	saved := repository.LoadJSON(ctx, store, models.SavedKey, []string{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = slices.DeleteFunc(posts, func(p *models.Post) bool { return p == nil || p.ID == "" })
	s.saved = saved
}

// Replace swaps the whole list, used at boot.
func (s *FeedState) Replace(ctx context.Context, posts []*models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
	s.persist(ctx)
}

// Mutate runs fn over the list under the lock. When fn reports a change
// the returned list becomes current, it is persisted, and removeKeys are
// deleted from the store in the same transaction.
//
// fn receives the live list, not a copy. It may edit posts in place or
// return a new slice, and must not keep references after it returns.
// fn must not call back into FeedState; the lock is not reentrant.
func (s *FeedState) Mutate(ctx context.Context, fn func(posts []*models.Post) ([]*models.Post, bool), removeKeys ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := fn(s.posts)
	if !changed {
		return false
	}
	s.posts = next
	s.persist(ctx, removeKeys...)
	return true
}

// MutatePost runs fn on the post with id. It returns false, and persists
// nothing, when the post does not exist.
func (s *FeedState) MutatePost(ctx context.Context, id string, fn func(p *models.Post)) bool {
	return s.Mutate(ctx, func(posts []*models.Post) ([]*models.Post, bool) {
		i := indexOf(posts, id)
		if i < 0 {
			return posts, false
		}
		fn(posts[i])
		return posts, true
	})
}

// persist writes the list. A failed write is logged: the in-memory state
// stays authoritative until the next successful write.
func (s *FeedState) persist(ctx context.Context, removeKeys ...string) {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		store := repository.NewSQLiteStoreRepo(tx)
		if err := repository.SaveJSON(ctx, store, models.PostsKey, s.posts); err != nil {
			return err
		}
		for _, key := range removeKeys {
			if err := store.Remove(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[feed] failed to persist posts: %v", err)
	}
}

// Post returns a copy of the post with id. Changing the copy does not
// change the feed; use MutatePost for that.
func (s *FeedState) Post(id string) (*models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.posts, id)
	if i < 0 {
		return nil, false
	}
	return s.posts[i].Clone(), true
}

// Snapshot returns a copy of the list, newest first.
func (s *FeedState) Snapshot() []*models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of posts.
func (s *FeedState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// ToggleSaved adds id to the front of the saved set, or removes it.
// It returns whether id is saved afterwards.
//
// The id is not checked against the list, so a post saved on another
// device before it synced here can still be saved. A failed write is
// logged and the in-memory set is kept.
func (s *FeedState) ToggleSaved(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := true
	if i := slices.Index(s.saved, id); i >= 0 {
		s.saved = slices.Delete(s.saved, i, i+1)
		saved = false
	} else {
		s.saved = slices.Insert(s.saved, 0, id)
	}

	store := repository.NewSQLiteStoreRepo(s.db)
	if err := repository.SaveJSON(ctx, store, models.SavedKey, s.saved); err != nil {
		log.Printf("[feed] failed to persist saved set: %v", err)
	}
	return saved
}

// Saved returns the saved post ids, most recent first.
func (s *FeedState) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.saved)
}

// IsSaved reports whether id is in the saved set.
func (s *FeedState) IsSaved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.saved, id)
}

func indexOf(posts []*models.Post, id string) int {
	return slices.IndexFunc(posts, func(p *models.Post) bool { return p.ID == id })
}
