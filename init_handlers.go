package main

import (
	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/handlers"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/ws"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Feed    *handlers.FeedHandler
	Comment *handlers.CommentHandler
	Auth    *handlers.AuthHandler
	Profile *handlers.ProfileHandler
	Plan    *handlers.PlanHandler
	Admin   *handlers.AdminHandler
	Stats   *handlers.StatsHandler
	WS      *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, renderer *render.Renderer, cfg *config.Config) *Handlers {
	return &Handlers{
		Feed:    handlers.NewFeedHandler(svcs.Feed, svcs.Reactions, svcs.Images, renderer, cfg.Upload.MaxSize),
		Comment: handlers.NewCommentHandler(svcs.Comments, renderer),
		Auth:    handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Profile: handlers.NewProfileHandler(svcs.Profiles, svcs.Images, renderer, cfg.Upload.MaxSize),
		Plan:    handlers.NewPlanHandler(svcs.Plans, svcs.Feed),
		Admin:   handlers.NewAdminHandler(svcs.Admin),
		Stats:   handlers.NewStatsHandler(svcs.State, hub),
		WS:      ws.NewHandler(hub, svcs.Auth),
	}
}
