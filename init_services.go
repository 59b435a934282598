package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/pkg/email"
	"github.com/akinalp/blogme/pkg/ratelimit"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/services"
	"github.com/akinalp/blogme/ws"
)

// Services holds every service instance plus the shared feed state and
// pager that main needs for shutdown.
type Services struct {
	State     *services.FeedState
	Pager     *services.Pager
	Feed      services.FeedService
	Reactions services.ReactionService
	Comments  services.CommentService
	Profiles  services.ProfileService
	Plans     services.PlanService
	Auth      services.AuthService
	Admin     services.AdminService
	Images    services.ImageService
}

// RateLimiters holds the request limiters.
type RateLimiters struct {
	Login  *ratelimit.LoginRateLimiter
	Report *ratelimit.KeyedLimiter
}

// initServices builds the services. The feed comes first: comments,
// profiles and admin all act on it.
func initServices(
	db *sql.DB,
	repos *Repositories,
	gws *Gateways,
	hub ws.EventPublisher,
	renderer *render.Renderer,
	cfg *config.Config,
) (*Services, *RateLimiters, error) {
	limiters := &RateLimiters{
		Login:  ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow),
		Report: ratelimit.NewKeyedLimiter(cfg.RateLimit.ReportsPerMinute, cfg.RateLimit.ReportBurst),
	}

	var mailer email.Sender
	if cfg.Mail.MailEnabled() {
		mailer = email.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.FromEmail, cfg.Mail.ModeratorEmail)
		log.Printf("[main] moderator notices go to %s", cfg.Mail.ModeratorEmail)
	} else {
		log.Println("[main] mail not configured, moderator notices disabled")
	}

	state := services.NewFeedState(db)
	pager := services.NewPager(state, renderer, hub, cfg.Feed.PageSize, cfg.Feed.CursorTTL)
	feed := services.NewFeedService(state, pager, gws.Posts, mailer, limiters.Report, cfg.Server.PublicURL)

	profiles := services.NewProfileService(repos.Store, feed)

	plans, err := services.NewPlanService(repos.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load plans: %w", err)
	}

	svcs := &Services{
		State:     state,
		Pager:     pager,
		Feed:      feed,
		Reactions: services.NewReactionService(state, pager, gws.Posts, cfg.Remote.ReactTimeout),
		Comments:  services.NewCommentService(repos.Store, feed, hub),
		Profiles:  profiles,
		Plans:     plans,
		Auth: services.NewAuthService(
			repos.Account,
			repos.Session,
			repos.Store,
			gws.Accounts,
			profiles,
			cfg.JWT.Secret,
			cfg.JWT.AccessTokenExpiry,
			cfg.JWT.RefreshTokenExpiry,
		),
		Admin:  services.NewAdminService(gws.Accounts, feed),
		Images: services.NewImageService(cfg.Upload.MaxSize),
	}

	return svcs, limiters, nil
}
