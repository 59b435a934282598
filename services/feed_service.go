package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/pkg/email"
	"github.com/akinalp/blogme/pkg/ratelimit"
	"github.com/akinalp/blogme/pkg/sanitize"
)

// reportExcerptLength caps the post text quoted in a moderator notice.
const reportExcerptLength = 140

// PublishInput is what the composer submits.
type PublishInput struct {
	Content  string // raw editor HTML
	Category string
	Image    *models.ImageFile // optional
}

// FeedService is the local-first post feed: every action changes the
// device state first and syncs with the backend afterwards.
//
// origin is the page id that triggered an action. That page re-renders
// from the response; every other open page receives feed_reset.
type FeedService interface {
	// Boot hydrates the state, replaces it with the remote list when the
	// backend returns a non-empty one, and seeds a welcome post when the
	// feed would otherwise be empty.
	Boot(ctx context.Context) error

	RenderPage(ctx context.Context, pageID string, viewer models.Viewer, reset bool) (*Page, error)
	ClosePage(pageID string)

	Post(postID string) (*models.Post, error)
	PostsBy(author string) []*models.Post
	SavedPosts() []*models.Post

	Publish(ctx context.Context, origin string, viewer models.Viewer, in PublishInput) (*models.Post, Result, error)
	Edit(ctx context.Context, origin, postID, content string) (Result, error)
	Delete(ctx context.Context, origin, postID string) (Result, error)
	// Evict drops a post that was deleted elsewhere, without telling the
	// backend. It reports whether the post existed.
	Evict(ctx context.Context, origin, postID string) bool
	ToggleHidden(ctx context.Context, origin, postID string) (Result, error)
	ToggleSaved(ctx context.Context, postID string) (bool, Result, error)
	Report(ctx context.Context, viewer models.Viewer, postID, reason string) (Result, error)
	AttachImage(ctx context.Context, origin, postID string, image *models.ImageFile) (*models.Post, Result, error)
	ShareURL(postID string) (string, error)

	// SetCommentsCount records the size of a post's local thread.
	SetCommentsCount(ctx context.Context, postID string, count int)

	// Wait blocks until pending backend calls have finished.
	Wait()
}

type feedService struct {
	state     *FeedState
	pager     *Pager
	posts     gateway.PostGateway
	mailer    email.Sender // nil when mail is not configured
	limiter   *ratelimit.KeyedLimiter
	publicURL string
	now       func() time.Time

	// syncs tracks fire-and-forget backend calls so shutdown and tests
	// can wait for them.
	syncs sync.WaitGroup
}

// NewFeedService creates the feed service. mailer may be nil.
func NewFeedService(
	state *FeedState,
	pager *Pager,
	posts gateway.PostGateway,
	mailer email.Sender,
	limiter *ratelimit.KeyedLimiter,
	publicURL string,
) FeedService {
	return &feedService{
		state:     state,
		pager:     pager,
		posts:     posts,
		mailer:    mailer,
		limiter:   limiter,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// Boot runs once at startup, before the server listens.
//
// Order:
//  1. the local blob is loaded (corrupt or missing loads as empty)
//  2. a non-empty remote list replaces it and is persisted
//  3. an unreachable or empty backend keeps the local list
//  4. a feed that is still empty gets the welcome post
//
// The remote list wins wholesale; local-only posts are not merged in.
func (s *feedService) Boot(ctx context.Context) error {
	s.state.Load(ctx)

	remote, err := s.posts.List(ctx)
	switch {
	case err != nil:
		log.Printf("[feed] remote list unavailable, using local posts: %v", err)
	case len(remote) > 0:
		s.state.Replace(ctx, lo.ToSlicePtr(remote))
		log.Printf("[feed] loaded %d posts from the backend", len(remote))
		return nil
	}

	if s.state.Len() == 0 {
		s.state.Replace(ctx, []*models.Post{s.welcomePost()})
		log.Println("[feed] feed was empty, seeded welcome post")
	}
	return nil
}

func (s *feedService) welcomePost() *models.Post {
	return &models.Post{
		ID:            localID("post"),
		Author:        "BlogMe",
		AuthorAvatar:  models.DefaultAvatar,
		Content:       "<p>Bienvenido a BlogMe — escribe tu primera publicación ✨</p>",
		Imgs:          []string{},
		TS:            s.now().Add(-time.Hour).UnixMilli(),
		Category:      "Inicio",
		Reactions:     map[string]int{},
		UserReactions: map[string]string{},
	}
}

func (s *feedService) RenderPage(ctx context.Context, pageID string, viewer models.Viewer, reset bool) (*Page, error) {
	if pageID == "" {
		return nil, fmt.Errorf("%w: missing page id", pkg.ErrBadRequest)
	}
	return s.pager.Render(pageID, viewer, reset)
}

func (s *feedService) ClosePage(pageID string) {
	s.pager.ClosePage(pageID)
}

// Post returns a copy of one post, ErrNotFound when it is gone.
func (s *feedService) Post(postID string) (*models.Post, error) {
	p, ok := s.state.Post(postID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgPostNotFound)
	}
	return p, nil
}

// PostsBy lists the posts whose author name matches exactly, newest first.
// Profiles use it; posts carry the display name, not the account id.
func (s *feedService) PostsBy(author string) []*models.Post {
	return lo.Filter(s.state.Snapshot(), func(p *models.Post, _ int) bool {
		return p.Author == author
	})
}

// SavedPosts resolves the saved ids in save order. Ids whose post was
// deleted are skipped, not reported.
func (s *feedService) SavedPosts() []*models.Post {
	return lo.FilterMap(s.state.Saved(), func(id string, _ int) (*models.Post, bool) {
		return s.state.Post(id)
	})
}

// Publish creates a post.
//
// The content is sanitized, then sent to the backend together with the
// optional image. When the backend answers, its post (with its id and
// image URLs) goes to the top of the feed. When it does not, the post is
// kept with a local id and the image inlined as a data URI, and the
// result is the info toast MsgPublishedOffline instead of an error.
//
// Blank content (only tags and whitespace) is rejected before any call.
func (s *feedService) Publish(ctx context.Context, origin string, viewer models.Viewer, in PublishInput) (*models.Post, Result, error) {
	if sanitize.IsBlank(in.Content) {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgEmptyPost)
	}

	payload := models.CreatePostPayload{
		Author:       viewer.Name,
		AuthorID:     viewer.ID,
		AuthorAvatar: lo.Ternary(viewer.Avatar != "", viewer.Avatar, models.DefaultAvatar),
		Content:      sanitize.HTML(in.Content),
		Category:     in.Category,
		TS:           s.now().UnixMilli(),
	}

	result := success(MsgPublished)
	post, err := s.posts.Create(ctx, payload, in.Image)
	if err != nil {
		log.Printf("[feed] remote create failed, keeping post offline: %v", err)
		post = s.offlinePost(payload, in.Image)
		result = info(MsgPublishedOffline)
	}
	if post.Reactions == nil {
		post.Reactions = map[string]int{}
	}
	if post.UserReactions == nil {
		post.UserReactions = map[string]string{}
	}

	out := post.Clone()
	s.state.Mutate(ctx, func(posts []*models.Post) ([]*models.Post, bool) {
		return append([]*models.Post{post}, posts...), true
	})
	s.pager.Reset(origin)

	return out, result, nil
}

// offlinePost builds the local stand-in for a post the backend did not take.
func (s *feedService) offlinePost(payload models.CreatePostPayload, image *models.ImageFile) *models.Post {
	p := &models.Post{
		ID:            localID("post"),
		Author:        payload.Author,
		AuthorID:      payload.AuthorID,
		AuthorAvatar:  payload.AuthorAvatar,
		Content:       payload.Content,
		Imgs:          []string{},
		TS:            payload.TS,
		Category:      payload.Category,
		Reactions:     models.ZeroReactions(),
		UserReactions: map[string]string{},
	}
	if image != nil {
		p.Imgs = append(p.Imgs, image.DataURI())
	}
	return p
}

// Edit replaces the content of a post locally, then syncs in the
// background. Editing a post that no longer exists is a silent no-op so a
// stale editor does not surface an error.
func (s *feedService) Edit(ctx context.Context, origin, postID, content string) (Result, error) {
	if _, ok := s.state.Post(postID); !ok {
		return Result{}, nil
	}
	if sanitize.IsBlank(content) {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgEmptyEdit)
	}

	clean := sanitize.HTML(content)
	if !s.state.MutatePost(ctx, postID, func(p *models.Post) { p.Content = clean }) {
		return Result{}, nil
	}
	s.pager.Reset(origin)

	s.sync("update", func(ctx context.Context) error {
		return s.posts.Update(ctx, postID, models.UpdatePostRequest{Content: clean})
	})
	return success(MsgEdited), nil
}

// Delete removes the post and its thread locally, then tells the backend
// in the background. A second delete of the same post is a no-op.
func (s *feedService) Delete(ctx context.Context, origin, postID string) (Result, error) {
	if !s.remove(ctx, origin, postID) {
		return Result{}, nil
	}
	s.sync("delete", func(ctx context.Context) error {
		return s.posts.Delete(ctx, postID)
	})
	return success(MsgDeleted), nil
}

func (s *feedService) Evict(ctx context.Context, origin, postID string) bool {
	return s.remove(ctx, origin, postID)
}

// remove drops the post and its comment thread locally.
//
// The thread key is removed in the same transaction that persists the
// list, and the post's reaction bindings are dropped before the reset so
// no page gets a patch for a card it no longer shows.
func (s *feedService) remove(ctx context.Context, origin, postID string) bool {
	removed := s.state.Mutate(ctx, func(posts []*models.Post) ([]*models.Post, bool) {
		i := indexOf(posts, postID)
		if i < 0 {
			return posts, false
		}
		return append(posts[:i:i], posts[i+1:]...), true
	}, models.CommentsKey(postID))
	if !removed {
		return false
	}

	s.pager.Forget(postID)
	s.pager.Reset(origin)
	return true
}

// ToggleHidden flips the hidden flag. Hidden posts stay in the list and
// render collapsed; the flag is local only.
func (s *feedService) ToggleHidden(ctx context.Context, origin, postID string) (Result, error) {
	var hidden bool
	if !s.state.MutatePost(ctx, postID, func(p *models.Post) {
		p.Hidden = !p.Hidden
		hidden = p.Hidden
	}) {
		return Result{}, nil
	}
	s.pager.Reset(origin)

	return info(lo.Ternary(hidden, MsgHidden, MsgVisible)), nil
}

func (s *feedService) ToggleSaved(ctx context.Context, postID string) (bool, Result, error) {
	if postID == "" {
		return false, Result{}, fmt.Errorf("%w: missing post id", pkg.ErrBadRequest)
	}
	saved := s.state.ToggleSaved(ctx, postID)
	return saved, success(lo.Ternary(saved, MsgSaved, MsgUnsaved)), nil
}

// Report forwards a report to the backend.
//
// An empty reason means the viewer cancelled the prompt. Reports are
// limited per viewer by the keyed limiter. An unreachable backend still
// counts as accepted: the viewer gets the offline toast, and moderators
// are mailed either way when mail is configured, with Delivered telling
// them whether the backend has it too.
func (s *feedService) Report(ctx context.Context, viewer models.Viewer, postID, reason string) (Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return info(MsgReportCancelled), nil
	}
	if s.limiter != nil && !s.limiter.Allow(viewer.ID) {
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrTooManyRequests, MsgReportLimited)
	}

	err := s.posts.Report(ctx, postID, models.ReportRequest{Reason: reason, Reporter: viewer.ID})
	delivered := err == nil
	if err != nil {
		log.Printf("[feed] report of post %s not delivered: %v", postID, err)
	}

	s.notifyModerators(ctx, viewer, postID, reason, delivered)

	if !delivered {
		return info(MsgReportOffline), nil
	}
	return success(MsgReportSent), nil
}

// notifyModerators sends the report notice in the background. The send
// outlives the request but is tracked by syncs.
func (s *feedService) notifyModerators(ctx context.Context, viewer models.Viewer, postID, reason string, delivered bool) {
	if s.mailer == nil {
		return
	}

	notice := email.ReportNotice{
		PostID:     postID,
		Reason:     reason,
		Reporter:   lo.Ternary(viewer.Name != "", viewer.Name, viewer.ID),
		ReportedAt: s.now(),
		PostURL:    s.postURL(postID),
		Delivered:  delivered,
	}
	if p, ok := s.state.Post(postID); ok {
		notice.PostAuthor = p.Author
		notice.Excerpt = lo.Substring(strings.TrimSpace(sanitize.StripText(p.Content)), 0, reportExcerptLength)
	}

	s.syncs.Add(1)
	go func() {
		defer s.syncs.Done()
		if err := s.mailer.SendReportNotice(context.WithoutCancel(ctx), notice); err != nil {
			log.Printf("[feed] failed to send report notice for %s: %v", postID, err)
		}
	}()
}

// AttachImage uploads an image for an existing post and appends its URL,
// or the data URI when the upload fails.
func (s *feedService) AttachImage(ctx context.Context, origin, postID string, image *models.ImageFile) (*models.Post, Result, error) {
	if image == nil {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgImageInvalid)
	}
	if _, ok := s.state.Post(postID); !ok {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgPostNotFound)
	}

	src, err := s.posts.UploadImage(ctx, postID, image)
	if err != nil {
		log.Printf("[feed] image upload for %s failed, embedding locally: %v", postID, err)
		src = image.DataURI()
	}

	if !s.state.MutatePost(ctx, postID, func(p *models.Post) { p.Imgs = append(p.Imgs, src) }) {
		// deleted while the upload was running
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgPostNotFound)
	}
	s.pager.Reset(origin)

	p, _ := s.state.Post(postID)
	return p, success(MsgImageAdded), nil
}

// ShareURL is the public read-mode link of a post.
func (s *feedService) ShareURL(postID string) (string, error) {
	if _, ok := s.state.Post(postID); !ok {
		return "", fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgPostNotFound)
	}
	return s.postURL(postID), nil
}

func (s *feedService) postURL(postID string) string {
	return s.publicURL + "/p/" + url.PathEscape(postID)
}

func (s *feedService) SetCommentsCount(ctx context.Context, postID string, count int) {
	s.state.MutatePost(ctx, postID, func(p *models.Post) { p.CommentsCount = count })
}

// sync runs a best-effort backend call after the local change is done.
// Failures are logged and dropped; there is no retry.
func (s *feedService) sync(op string, fn func(ctx context.Context) error) {
	s.syncs.Add(1)
	go func() {
		defer s.syncs.Done()
		if err := fn(context.Background()); err != nil {
			log.Printf("[feed] remote %s failed: %v", op, err)
		}
	}()
}

func (s *feedService) Wait() {
	s.syncs.Wait()
}

// localID generates ids for records created on this device, such as
// "post_3f9a1c2e".
func localID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
