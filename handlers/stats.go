package handlers

import (
	"net/http"

	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// StatsResponse is the body of /api/health.
type StatsResponse struct {
	Status    string `json:"status"`
	Posts     int    `json:"posts"`
	OpenPages int    `json:"open_pages"`
}

// PageCounter reports how many pages hold a websocket.
type PageCounter interface {
	PageCount() int
}

// StatsHandler serves the health endpoint.
type StatsHandler struct {
	state *services.FeedState
	pages PageCounter
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(state *services.FeedState, pages PageCounter) *StatsHandler {
	return &StatsHandler{state: state, pages: pages}
}

// Health godoc
// GET /api/health
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, StatsResponse{
		Status:    "ok",
		Posts:     h.state.Len(),
		OpenPages: h.pages.PageCount(),
	})
}
