package handlers

import (
	"net/http"
	"strconv"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// PlanHandler serves /api/plans.
type PlanHandler struct {
	plans services.PlanService
	feed  services.FeedService
}

// NewPlanHandler creates the plan handler.
func NewPlanHandler(plans services.PlanService, feed services.FeedService) *PlanHandler {
	return &PlanHandler{plans: plans, feed: feed}
}

// Catalog godoc
// GET /api/plans
func (h *PlanHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, h.plans.Catalog())
}

// Subscribe godoc
// POST /api/plans/subscribe
// Body: { "name": "Ana", "plan": "Plan Pro" }
func (h *PlanHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.SubscribeRequest
	if !decode(w, r, &req) {
		return
	}

	plan, res, err := h.plans.Subscribe(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, plan, res)
}

// Current godoc
// GET /api/plans/current
// The active plan and what it grants to the viewer right now.
func (h *PlanHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plan, _ := h.plans.Current(ctx)
	count := len(h.feed.PostsBy(ViewerFrom(r).Name))

	pkg.JSON(w, http.StatusOK, map[string]any{
		"plan":        plan,
		"privileges":  h.plans.Privileges(ctx),
		"posts":       count,
		"can_publish": h.plans.CanPublish(ctx, count),
	})
}

// Permission godoc
// GET /api/plans/permissions/{key}?count=N
// count only matters for "publicaciones".
func (h *PlanHandler) Permission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	allowed := h.plans.HasPermission(ctx, key)
	if key == models.PermPosts {
		count, err := strconv.Atoi(r.URL.Query().Get("count"))
		if err != nil {
			count = len(h.feed.PostsBy(ViewerFrom(r).Name))
		}
		allowed = h.plans.CanPublish(ctx, count)
	}
	pkg.JSON(w, http.StatusOK, map[string]any{"key": key, "allowed": allowed})
}
