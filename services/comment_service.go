package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/pkg/cache"
	"github.com/akinalp/blogme/repository"
	"github.com/akinalp/blogme/ws"
)

const (
	// replyTargetTTL is how long an unused "replying to" banner survives.
	replyTargetTTL = 30 * time.Minute
	// confirmTTL is how long an edit/delete dialog stays valid.
	confirmTTL = 10 * time.Minute
)

// Confirmation actions.
const (
	ConfirmEdit   = "edit"
	ConfirmDelete = "delete"
)

// ReplyTarget is the comment the viewer's composer currently answers.
type ReplyTarget struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	Author    string `json:"author"`
}

// Confirmation is an open edit or delete dialog. Label and Body are
// message keys, except Body of an edit which is the current text.
type Confirmation struct {
	Token  string `json:"token"`
	Action string `json:"action"`
	Label  string `json:"label"`
	Body   string `json:"body"`
}

type pendingConfirm struct {
	viewerID  string
	postID    string
	commentID string
	action    string
}

// CommentService manages the local-only comment threads of posts.
//
// A viewer has one composer: it either posts a new comment or, while a
// reply target is set on the same post, answers that comment. Edits and
// deletions go through a two-step confirmation identified by a token.
type CommentService interface {
	List(ctx context.Context, postID string) []models.Comment
	Send(ctx context.Context, viewer models.Viewer, postID, text string) (Result, error)

	SetReplyTarget(viewer models.Viewer, postID, commentID, author string) (ReplyTarget, error)
	ReplyTarget(viewer models.Viewer) (ReplyTarget, bool)
	CancelReply(viewer models.Viewer)

	OpenEdit(ctx context.Context, viewer models.Viewer, postID, commentID string) (*Confirmation, error)
	OpenDelete(ctx context.Context, viewer models.Viewer, postID, commentID string) (*Confirmation, error)
	Confirm(ctx context.Context, viewer models.Viewer, token, text string) (Result, error)
	// CancelConfirm drops the dialog and returns the label the confirm
	// button goes back to.
	CancelConfirm(viewer models.Viewer, token string) string

	// React toggles the thread's reaction on a comment. An unknown comment
	// is a no-op and returns nil.
	React(ctx context.Context, postID, commentID, emoji string) (*models.Comment, error)

	// Close stops the dialog and reply-target sweepers.
	Close()
}

type commentService struct {
	mu       sync.Mutex // serializes read-modify-write of threads
	store    repository.StoreRepository
	feed     FeedService
	hub      ws.EventPublisher
	replies  *cache.TTLCache[string, ReplyTarget]
	confirms *cache.TTLCache[string, pendingConfirm]
	now      func() time.Time
}

// NewCommentService creates the comment service.
func NewCommentService(store repository.StoreRepository, feed FeedService, hub ws.EventPublisher) CommentService {
	return &commentService{
		store:    store,
		feed:     feed,
		hub:      hub,
		replies:  cache.New[string, ReplyTarget](replyTargetTTL, time.Minute),
		confirms: cache.New[string, pendingConfirm](confirmTTL, time.Minute),
		now:      time.Now,
	}
}

func (s *commentService) load(ctx context.Context, postID string) []models.Comment {
	return repository.LoadJSON(ctx, s.store, models.CommentsKey(postID), []models.Comment{})
}

func (s *commentService) save(ctx context.Context, postID string, comments []models.Comment) error {
	if err := repository.SaveJSON(ctx, s.store, models.CommentsKey(postID), comments); err != nil {
		return fmt.Errorf("failed to save comments of %s: %w", postID, err)
	}
	s.feed.SetCommentsCount(ctx, postID, len(comments))
	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpCommentsUpdate,
		Data: ws.CommentsUpdateData{PostID: postID, CommentsCount: len(comments)},
	})
	return nil
}

func (s *commentService) postExists(postID string) bool {
	_, err := s.feed.Post(postID)
	return err == nil
}

func (s *commentService) List(ctx context.Context, postID string) []models.Comment {
	return s.load(ctx, postID)
}

func (s *commentService) Send(ctx context.Context, viewer models.Viewer, postID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgCommentEmpty)
	}

	// A modal left open on a deleted post must not bring its thread back.
	if !s.postExists(postID) {
		return Result{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comments := s.load(ctx, postID)
	ts := s.now().UnixMilli()

	if target, ok := s.replies.Get(viewer.ID); ok && target.PostID == postID {
		i := slices.IndexFunc(comments, func(c models.Comment) bool { return c.ID == target.CommentID })
		if i < 0 {
			return Result{}, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgThreadMissing)
		}
		comments[i].Replies = append(comments[i].Replies, models.Reply{
			ID:           localID("id"),
			Author:       viewer.Name,
			AuthorAvatar: viewer.Avatar,
			Text:         text,
			TS:           ts,
		})
		if err := s.save(ctx, postID, comments); err != nil {
			return Result{}, err
		}
		s.replies.Delete(viewer.ID)
		return success(MsgReplySent), nil
	}

	comments = append(comments, models.Comment{
		ID:           localID("id"),
		Author:       viewer.Name,
		AuthorAvatar: viewer.Avatar,
		Text:         text,
		TS:           ts,
		Reactions:    map[string]int{},
		Replies:      []models.Reply{},
	})
	if err := s.save(ctx, postID, comments); err != nil {
		return Result{}, err
	}
	return success(MsgCommentPublished), nil
}

func (s *commentService) SetReplyTarget(viewer models.Viewer, postID, commentID, author string) (ReplyTarget, error) {
	if postID == "" || commentID == "" {
		return ReplyTarget{}, fmt.Errorf("%w: missing comment", pkg.ErrBadRequest)
	}
	target := ReplyTarget{PostID: postID, CommentID: commentID, Author: author}
	s.replies.Set(viewer.ID, target)
	return target, nil
}

func (s *commentService) ReplyTarget(viewer models.Viewer) (ReplyTarget, bool) {
	return s.replies.Get(viewer.ID)
}

func (s *commentService) CancelReply(viewer models.Viewer) {
	s.replies.Delete(viewer.ID)
}

// authored returns the comment when viewer wrote it.
func (s *commentService) authored(ctx context.Context, viewer models.Viewer, postID, commentID string) (*models.Comment, error) {
	c, ok := lo.Find(s.load(ctx, postID), func(c models.Comment) bool { return c.ID == commentID })
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgCommentNotFound)
	}
	if c.Author != viewer.Name {
		return nil, fmt.Errorf("%w: %s", pkg.ErrForbidden, MsgNotAuthor)
	}
	return &c, nil
}

func (s *commentService) open(viewer models.Viewer, postID, commentID, action string) string {
	token := uuid.NewString()
	s.confirms.Set(token, pendingConfirm{
		viewerID:  viewer.ID,
		postID:    postID,
		commentID: commentID,
		action:    action,
	})
	return token
}

func (s *commentService) OpenEdit(ctx context.Context, viewer models.Viewer, postID, commentID string) (*Confirmation, error) {
	c, err := s.authored(ctx, viewer, postID, commentID)
	if err != nil {
		return nil, err
	}
	return &Confirmation{
		Token:  s.open(viewer, postID, commentID, ConfirmEdit),
		Action: ConfirmEdit,
		Label:  MsgLabelSave,
		Body:   c.Text,
	}, nil
}

func (s *commentService) OpenDelete(ctx context.Context, viewer models.Viewer, postID, commentID string) (*Confirmation, error) {
	if _, err := s.authored(ctx, viewer, postID, commentID); err != nil {
		return nil, err
	}
	return &Confirmation{
		Token:  s.open(viewer, postID, commentID, ConfirmDelete),
		Action: ConfirmDelete,
		Label:  MsgLabelDelete,
		Body:   MsgConfirmDelete,
	}, nil
}

func (s *commentService) Confirm(ctx context.Context, viewer models.Viewer, token, text string) (Result, error) {
	pending, ok := s.confirms.Get(token)
	if !ok || pending.viewerID != viewer.ID {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgConfirmExpired)
	}

	text = strings.TrimSpace(text)
	if pending.action == ConfirmEdit && text == "" {
		// the dialog stays open
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgCommentEditEmpty)
	}
	s.confirms.Delete(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	comments := s.load(ctx, pending.postID)
	i := slices.IndexFunc(comments, func(c models.Comment) bool { return c.ID == pending.commentID })
	if i < 0 {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgCommentNotFound)
	}

	var result Result
	switch pending.action {
	case ConfirmEdit:
		comments[i].Text = text
		result = success(MsgCommentUpdated)
	case ConfirmDelete:
		comments = slices.Delete(comments, i, i+1)
		result = success(MsgCommentDeleted)
	}

	if err := s.save(ctx, pending.postID, comments); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *commentService) CancelConfirm(viewer models.Viewer, token string) string {
	if pending, ok := s.confirms.Get(token); ok && pending.viewerID == viewer.ID {
		s.confirms.Delete(token)
	}
	return MsgLabelConfirm
}

func (s *commentService) React(ctx context.Context, postID, commentID, emoji string) (*models.Comment, error) {
	if !models.IsReactionEmoji(emoji) {
		return nil, fmt.Errorf("%w: unsupported reaction %q", pkg.ErrBadRequest, emoji)
	}

	if !s.postExists(postID) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comments := s.load(ctx, postID)
	i := slices.IndexFunc(comments, func(c models.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return nil, nil
	}
	models.ApplyCommentToggle(&comments[i], emoji)

	if err := s.save(ctx, postID, comments); err != nil {
		return nil, err
	}
	c := comments[i]
	return &c, nil
}

func (s *commentService) Close() {
	s.replies.Close()
	s.confirms.Close()
}
