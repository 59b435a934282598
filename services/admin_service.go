package services

import (
	"context"
	"fmt"
	"log"

	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
)

// Dashboard is what the admin page lists.
type Dashboard struct {
	Users []models.RemoteUser `json:"users"`
	Posts []models.RemotePost `json:"posts"`
}

// AdminService proxies the backend's moderation endpoints. Every method
// requires an admin viewer.
type AdminService interface {
	Dashboard(ctx context.Context, viewer models.Viewer) (*Dashboard, error)
	DeleteUser(ctx context.Context, viewer models.Viewer, userID string) (Result, error)
	// DeletePost removes the post on the backend and from this device.
	DeletePost(ctx context.Context, origin string, viewer models.Viewer, postID string) (Result, error)
}

type adminService struct {
	remote gateway.AccountGateway
	feed   FeedService
}

// NewAdminService creates the admin service.
func NewAdminService(remote gateway.AccountGateway, feed FeedService) AdminService {
	return &adminService{remote: remote, feed: feed}
}

func requireAdmin(viewer models.Viewer) error {
	if !viewer.IsAdmin {
		return fmt.Errorf("%w: admin only", pkg.ErrForbidden)
	}
	return nil
}

func (s *adminService) Dashboard(ctx context.Context, viewer models.Viewer) (*Dashboard, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}

	users, err := s.remote.ListUsers(ctx)
	if err != nil {
		log.Printf("[admin] failed to list users: %v", err)
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnavailable, MsgAdminUnavailable)
	}
	posts, err := s.remote.ListPosts(ctx)
	if err != nil {
		log.Printf("[admin] failed to list posts: %v", err)
		return nil, fmt.Errorf("%w: %s", pkg.ErrUnavailable, MsgAdminUnavailable)
	}

	return &Dashboard{Users: users, Posts: posts}, nil
}

func (s *adminService) DeleteUser(ctx context.Context, viewer models.Viewer, userID string) (Result, error) {
	if err := requireAdmin(viewer); err != nil {
		return Result{}, err
	}
	if err := s.remote.DeleteUser(ctx, userID); err != nil {
		log.Printf("[admin] failed to delete user %s: %v", userID, err)
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrUnavailable, MsgAdminDeleteFailed)
	}
	return success(MsgAdminUserDeleted), nil
}

func (s *adminService) DeletePost(ctx context.Context, origin string, viewer models.Viewer, postID string) (Result, error) {
	if err := requireAdmin(viewer); err != nil {
		return Result{}, err
	}
	if err := s.remote.DeletePost(ctx, postID); err != nil {
		log.Printf("[admin] failed to delete post %s: %v", postID, err)
		return Result{}, fmt.Errorf("%w: %s", pkg.ErrUnavailable, MsgAdminDeleteFailed)
	}
	s.feed.Evict(ctx, origin, postID)
	return success(MsgAdminPostDeleted), nil
}
