package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/services"
)

// FeedHandler serves the feed pages and the post actions.
type FeedHandler struct {
	feed      services.FeedService
	reactions services.ReactionService
	images    services.ImageService
	renderer  *render.Renderer
	maxUpload int64
}

// NewFeedHandler creates the feed handler.
func NewFeedHandler(
	feed services.FeedService,
	reactions services.ReactionService,
	images services.ImageService,
	renderer *render.Renderer,
	maxUpload int64,
) *FeedHandler {
	return &FeedHandler{
		feed:      feed,
		reactions: reactions,
		images:    images,
		renderer:  renderer,
		maxUpload: maxUpload,
	}
}

// pageResponse is the JSON form of a rendered feed slice.
type pageResponse struct {
	*services.Page
	PageID string `json:"page_id"`
}

// renderPage renders a slice for pageID and fills the empty-feed hint.
func (h *FeedHandler) renderPage(r *http.Request, pageID string, reset bool) (*services.Page, error) {
	page, err := h.feed.RenderPage(r.Context(), pageID, ViewerFrom(r), reset)
	if err != nil {
		return nil, err
	}
	if page.Hint != "" {
		hint, err := h.renderer.Hint(localizer(r).T(page.Hint))
		if err != nil {
			return nil, err
		}
		page.HTML = hint
	}
	return page, nil
}

// refreshed re-renders the first slice of the page that sent r, so it can
// replace its feed from the response. Requests without a page id get nil.
func (h *FeedHandler) refreshed(r *http.Request) *pageResponse {
	pageID := origin(r)
	if pageID == "" {
		return nil
	}
	page, err := h.renderPage(r, pageID, true)
	if err != nil {
		return nil
	}
	return &pageResponse{Page: page, PageID: pageID}
}

// Index godoc
// GET /
// Every load is a new page with its own id and cursor.
func (h *FeedHandler) Index(w http.ResponseWriter, r *http.Request) {
	pageID := uuid.NewString()
	page, err := h.renderPage(r, pageID, true)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	body, err := h.renderer.Feed(render.FeedView{
		Viewer:  ViewerFrom(r),
		Cards:   template.HTML(page.HTML),
		Offset:  page.Offset,
		HasMore: page.HasMore,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	doc, err := h.renderer.Page(render.PageView{
		Lang:   localizer(r).Lang(),
		Title:  "BlogMe",
		PageID: pageID,
		Body:   template.HTML(body),
		Script: "feed.js",
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, doc)
}

// Read godoc
// GET /p/{id}
// Read mode of one post; the target of share links.
func (h *FeedHandler) Read(w http.ResponseWriter, r *http.Request) {
	post, err := h.feed.Post(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	loc := localizer(r)
	body, err := h.renderer.Reader(post, render.ReaderLabels{
		Comments: loc.T("reader.comments"),
		Save:     loc.T("reader.save"),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	doc, err := h.renderer.Page(render.PageView{
		Lang:   loc.Lang(),
		Title:  post.Author + " · BlogMe",
		PageID: uuid.NewString(),
		Body:   template.HTML(body),
		Script: "feed.js",
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, doc)
}

// Page godoc
// GET /api/feed/page?page={pageID}&reset=1
// The next slice of the feed for an open page. reset starts over.
func (h *FeedHandler) Page(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		pageID = origin(r)
	}
	if pageID == "" {
		WriteError(w, r, pkg.ErrBadRequest)
		return
	}

	page, err := h.renderPage(r, pageID, r.URL.Query().Get("reset") == "1")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, pageResponse{Page: page, PageID: pageID})
}

// Publish godoc
// POST /api/posts
// multipart/form-data (content, category, image) or JSON (content, category).
func (h *FeedHandler) Publish(w http.ResponseWriter, r *http.Request) {
	in, err := h.publishInput(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	post, res, err := h.feed.Publish(r.Context(), origin(r), ViewerFrom(r), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeResult(w, r, http.StatusCreated, map[string]any{
		"post": post,
		"page": h.refreshed(r),
	}, res)
}

func (h *FeedHandler) publishInput(w http.ResponseWriter, r *http.Request) (services.PublishInput, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req struct {
			Content  string `json:"content"`
			Category string `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return services.PublishInput{}, fmt.Errorf("%w: invalid request body", pkg.ErrBadRequest)
		}
		return services.PublishInput{Content: req.Content, Category: req.Category}, nil
	}

	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		return services.PublishInput{}, err
	}

	in := services.PublishInput{
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
	}
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, nil
	case err != nil:
		return in, fmt.Errorf("%w: %s", pkg.ErrBadRequest, services.MsgImageInvalid)
	}
	defer file.Close()

	in.Image, err = h.images.Read(header.Filename, file)
	return in, err
}

// Edit godoc
// PATCH /api/posts/{id}
// Body: { "content": "<p>...</p>" }
func (h *FeedHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePostRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.feed.Edit(r.Context(), origin(r), r.PathValue("id"), req.Content)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]any{"page": h.refreshed(r)}, res)
}

// Delete godoc
// DELETE /api/posts/{id}
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.feed.Delete(r.Context(), origin(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]any{"page": h.refreshed(r)}, res)
}

// ToggleHidden godoc
// POST /api/posts/{id}/hide
func (h *FeedHandler) ToggleHidden(w http.ResponseWriter, r *http.Request) {
	res, err := h.feed.ToggleHidden(r.Context(), origin(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]any{"page": h.refreshed(r)}, res)
}

// ToggleSaved godoc
// POST /api/posts/{id}/save
func (h *FeedHandler) ToggleSaved(w http.ResponseWriter, r *http.Request) {
	saved, res, err := h.feed.ToggleSaved(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]bool{"saved": saved}, res)
}

// React godoc
// POST /api/posts/{id}/reactions
// Body: { "emoji": "❤️" }
// The new reaction row reaches every page showing the post over the
// websocket, this one included.
func (h *FeedHandler) React(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emoji string `json:"emoji"`
	}
	if !decode(w, r, &req) {
		return
	}

	task, err := h.reactions.Toggle(r.Context(), ViewerFrom(r), r.PathValue("id"), req.Emoji)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if task == nil {
		pkg.JSON(w, http.StatusOK, nil)
		return
	}
	pkg.JSON(w, http.StatusAccepted, map[string]any{
		"post_id": task.PostID,
		"result":  task.Result,
	})
}

// Report godoc
// POST /api/posts/{id}/report
// Body: { "reason": "..." }. An empty reason cancels the report.
func (h *FeedHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.feed.Report(r.Context(), ViewerFrom(r), r.PathValue("id"), req.Reason)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}

// AttachImage godoc
// POST /api/posts/{id}/image
// multipart/form-data with an "image" part.
func (h *FeedHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	image, err := readImagePart(w, r, h.images, h.maxUpload)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	post, res, err := h.feed.AttachImage(r.Context(), origin(r), r.PathValue("id"), image)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]any{
		"post": post,
		"page": h.refreshed(r),
	}, res)
}

// Share godoc
// GET /api/posts/{id}/share
func (h *FeedHandler) Share(w http.ResponseWriter, r *http.Request) {
	link, err := h.feed.ShareURL(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"url": link})
}

// Saved godoc
// GET /api/saved
func (h *FeedHandler) Saved(w http.ResponseWriter, r *http.Request) {
	posts := h.feed.SavedPosts()
	cards, err := h.renderer.PostCards(posts, ViewerFrom(r).ID, func(string) bool { return true })
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"html":  cards,
	})
}
