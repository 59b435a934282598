package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
)

// ReactionOutcome is the result of a background reaction confirmation.
type ReactionOutcome struct {
	// Applied is true when the server's counts replaced the local ones.
	Applied bool
	Err     error
}

// ReactionTask tracks the network confirmation of one toggle. The
// optimistic state is already visible when the task is returned; callers
// may wait on Done or ignore it.
type ReactionTask struct {
	PostID string
	Result models.ToggleResult
	done   chan ReactionOutcome
}

func newReactionTask(postID string, result models.ToggleResult) *ReactionTask {
	return &ReactionTask{PostID: postID, Result: result, done: make(chan ReactionOutcome, 1)}
}

// Done yields the outcome once, then is closed.
func (t *ReactionTask) Done() <-chan ReactionOutcome {
	return t.done
}

func (t *ReactionTask) finish(o ReactionOutcome) {
	t.done <- o
	close(t.done)
}

// ReactionService toggles emoji reactions on posts.
type ReactionService interface {
	// Toggle applies the viewer's reaction locally, patches the open pages
	// and starts the remote confirmation. An unknown post is a no-op and
	// returns a nil task.
	Toggle(ctx context.Context, viewer models.Viewer, postID, emoji string) (*ReactionTask, error)

	// Wait blocks until every confirmation in flight has written its
	// result. Confirmations persist the post list, so shutdown calls this
	// before closing the database.
	Wait()
}

type reactionService struct {
	state   *FeedState
	pager   *Pager
	posts   gateway.PostGateway
	timeout time.Duration

	// pending tracks running confirmations for Wait.
	pending sync.WaitGroup
}

// NewReactionService creates the reaction reconciler. timeout bounds each
// remote confirmation.
func NewReactionService(state *FeedState, pager *Pager, posts gateway.PostGateway, timeout time.Duration) ReactionService {
	return &reactionService{
		state:   state,
		pager:   pager,
		posts:   posts,
		timeout: timeout,
	}
}

func (s *reactionService) Toggle(ctx context.Context, viewer models.Viewer, postID, emoji string) (*ReactionTask, error) {
	if !models.IsReactionEmoji(emoji) {
		return nil, fmt.Errorf("%w: unsupported reaction %q", pkg.ErrBadRequest, emoji)
	}

	userID := viewer.ID
	if userID == "" {
		userID = models.AnonViewerID
	}

	var result models.ToggleResult
	found := s.state.MutatePost(ctx, postID, func(p *models.Post) {
		result = models.ApplyToggle(p, userID, emoji)
	})
	if !found {
		return nil, nil
	}

	s.pager.PatchReactions(postID)

	task := newReactionTask(postID, result)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.confirm(task, models.ReactionRequest{Reaction: emoji, User: userID})
	}()
	return task, nil
}

func (s *reactionService) Wait() {
	s.pending.Wait()
}

// confirm sends the toggle to the backend. The request context is not
// used: the confirmation outlives the HTTP request that started it.
func (s *reactionService) confirm(task *ReactionTask, req models.ReactionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	st, err := s.posts.React(ctx, task.PostID, req)
	if err != nil {
		log.Printf("[reactions] confirmation for post %s failed: %v", task.PostID, err)
		task.finish(ReactionOutcome{Err: err})
		return
	}

	applied := s.state.MutatePost(context.Background(), task.PostID, func(p *models.Post) {
		models.ApplyState(p, st)
	})
	if applied {
		s.pager.PatchReactions(task.PostID)
	}
	task.finish(ReactionOutcome{Applied: applied})
}
