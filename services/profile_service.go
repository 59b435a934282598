package services

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/repository"
)

// guestProfileName is the display name of the anonymous profile.
const guestProfileName = "Invitado"

// ProfileService manages the profile card of each user on this device:
// name, avatar, bio and notes, plus the user's own posts.
type ProfileService interface {
	// Get returns the profile of userID, creating the default one first.
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, Result, error)
	SetAvatar(ctx context.Context, userID string, image *models.ImageFile) (*models.Profile, Result, error)

	AddNote(ctx context.Context, userID, text string) (*models.Profile, Result, error)
	EditNote(ctx context.Context, userID, noteID, text string) (*models.Profile, Result, error)
	DeleteNote(ctx context.Context, userID, noteID string) (*models.Profile, Result, error)

	// MyPosts returns the posts whose author is the profile name.
	MyPosts(ctx context.Context, userID string) ([]*models.Post, error)
	EditPost(ctx context.Context, origin, userID, postID, text string) (Result, error)
	DeletePost(ctx context.Context, origin, userID, postID string) (Result, error)
}

type profileService struct {
	mu    sync.Mutex
	store repository.StoreRepository
	feed  FeedService
	now   func() time.Time
}

// NewProfileService creates the profile service.
func NewProfileService(store repository.StoreRepository, feed FeedService) ProfileService {
	return &profileService{
		store: store,
		feed:  feed,
		now:   time.Now,
	}
}

func (s *profileService) defaultProfile(userID string) models.Profile {
	name := userID
	if userID == "" || userID == models.AnonViewerID {
		name = guestProfileName
	}
	return models.Profile{
		Name:   name,
		Avatar: models.DefaultAvatar,
		Bio:    "Hola! Soy nuevo en BlogMe.",
		Notes: []models.Note{
			{ID: localID("id"), Text: "¡Mi primera nota!", TS: s.now().UnixMilli()},
		},
	}
}

// load returns the stored profile, writing the default one when missing.
// Callers hold s.mu.
func (s *profileService) load(ctx context.Context, userID string) (models.Profile, error) {
	key := models.ProfileKey(userID)
	_, exists, err := s.store.Get(ctx, key)
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	if !exists {
		p := s.defaultProfile(userID)
		if err := repository.SaveJSON(ctx, s.store, key, p); err != nil {
			return models.Profile{}, err
		}
		return p, nil
	}
	return repository.LoadJSON(ctx, s.store, key, s.defaultProfile(userID)), nil
}

// modify loads the profile, applies fn and saves it.
func (s *profileService) modify(ctx context.Context, userID string, fn func(p *models.Profile) error) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	if err := repository.SaveJSON(ctx, s.store, models.ProfileKey(userID), p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *profileService) Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, Result, error) {
	p, err := s.modify(ctx, userID, func(p *models.Profile) error {
		if name := strings.TrimSpace(req.Name); name != "" {
			p.Name = name
		}
		if bio := strings.TrimSpace(req.Bio); bio != "" {
			p.Bio = bio
		}
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return p, success(MsgProfileSaved), nil
}

func (s *profileService) SetAvatar(ctx context.Context, userID string, image *models.ImageFile) (*models.Profile, Result, error) {
	if image == nil {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgImageInvalid)
	}
	p, err := s.modify(ctx, userID, func(p *models.Profile) error {
		p.Avatar = image.DataURI()
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return p, success(MsgAvatarUpdated), nil
}

func (s *profileService) AddNote(ctx context.Context, userID, text string) (*models.Profile, Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgNoteEmpty)
	}
	p, err := s.modify(ctx, userID, func(p *models.Profile) error {
		p.Notes = slices.Insert(p.Notes, 0, models.Note{ID: localID("id"), Text: text, TS: s.now().UnixMilli()})
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return p, success(MsgNoteAdded), nil
}

func (s *profileService) EditNote(ctx context.Context, userID, noteID, text string) (*models.Profile, Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgNoteEmpty)
	}
	p, err := s.modify(ctx, userID, func(p *models.Profile) error {
		i := slices.IndexFunc(p.Notes, func(n models.Note) bool { return n.ID == noteID })
		if i < 0 {
			return fmt.Errorf("%w: %s", pkg.ErrNotFound, MsgNoteNotFound)
		}
		p.Notes[i].Text = text
		p.Notes[i].TS = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return p, success(MsgNoteUpdated), nil
}

func (s *profileService) DeleteNote(ctx context.Context, userID, noteID string) (*models.Profile, Result, error) {
	p, err := s.modify(ctx, userID, func(p *models.Profile) error {
		p.Notes = slices.DeleteFunc(p.Notes, func(n models.Note) bool { return n.ID == noteID })
		return nil
	})
	if err != nil {
		return nil, Result{}, err
	}
	return p, success(MsgNoteDeleted), nil
}

func (s *profileService) MyPosts(ctx context.Context, userID string) ([]*models.Post, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.feed.PostsBy(p.Name), nil
}

// owned checks that postID was written under the profile name of userID.
func (s *profileService) owned(ctx context.Context, userID, postID string) error {
	prof, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	post, err := s.feed.Post(postID)
	if err != nil {
		return err
	}
	if post.Author != prof.Name {
		return fmt.Errorf("%w: %s", pkg.ErrForbidden, MsgNotYourPost)
	}
	return nil
}

func (s *profileService) EditPost(ctx context.Context, origin, userID, postID, text string) (Result, error) {
	if err := s.owned(ctx, userID, postID); err != nil {
		return Result{}, err
	}
	// The profile editor is plain text.
	if _, err := s.feed.Edit(ctx, origin, postID, html.EscapeString(strings.TrimSpace(text))); err != nil {
		return Result{}, err
	}
	return success(MsgPostUpdated), nil
}

func (s *profileService) DeletePost(ctx context.Context, origin, userID, postID string) (Result, error) {
	if err := s.owned(ctx, userID, postID); err != nil {
		return Result{}, err
	}
	if _, err := s.feed.Delete(ctx, origin, postID); err != nil {
		return Result{}, err
	}
	return success(MsgPostDeleted), nil
}
