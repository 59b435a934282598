package handlers

import (
	"net/http"

	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/services"
)

// CommentHandler serves the comment threads under /api/posts/{id}/comments.
type CommentHandler struct {
	comments services.CommentService
	renderer *render.Renderer
}

// NewCommentHandler creates the comment handler.
func NewCommentHandler(comments services.CommentService, renderer *render.Renderer) *CommentHandler {
	return &CommentHandler{comments: comments, renderer: renderer}
}

// thread renders the thread of postID as the viewer of r sees it.
func (h *CommentHandler) thread(r *http.Request, postID string) (map[string]any, error) {
	viewer := ViewerFrom(r)
	comments := h.comments.List(r.Context(), postID)

	view := render.CommentsView{
		PostID:     postID,
		Comments:   comments,
		ViewerName: viewer.Name,
	}
	if target, ok := h.comments.ReplyTarget(viewer); ok && target.PostID == postID {
		view.ReplyTarget = target.CommentID
		view.ReplyAuthor = target.Author
	}

	html, err := h.renderer.Comments(view)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"post_id":  postID,
		"comments": comments,
		"html":     html,
	}, nil
}

func (h *CommentHandler) writeThread(w http.ResponseWriter, r *http.Request, postID string, status int, res services.Result) {
	data, err := h.thread(r, postID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, status, data, res)
}

// List godoc
// GET /api/posts/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeThread(w, r, r.PathValue("id"), http.StatusOK, services.Result{})
}

// Send godoc
// POST /api/posts/{id}/comments
// Body: { "text": "..." }. Answers the reply target when one is set on
// this post.
func (h *CommentHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}

	postID := r.PathValue("id")
	res, err := h.comments.Send(r.Context(), ViewerFrom(r), postID, req.Text)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeThread(w, r, postID, http.StatusCreated, res)
}

// SetReplyTarget godoc
// POST /api/posts/{id}/comments/{commentId}/reply
// Body: { "author": "..." }
func (h *CommentHandler) SetReplyTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author string `json:"author"`
	}
	if !decode(w, r, &req) {
		return
	}

	target, err := h.comments.SetReplyTarget(ViewerFrom(r), r.PathValue("id"), r.PathValue("commentId"), req.Author)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, target)
}

// CancelReply godoc
// DELETE /api/comments/reply
func (h *CommentHandler) CancelReply(w http.ResponseWriter, r *http.Request) {
	h.comments.CancelReply(ViewerFrom(r))
	pkg.JSON(w, http.StatusOK, nil)
}

// OpenEdit godoc
// POST /api/posts/{id}/comments/{commentId}/edit
// Opens the edit dialog; the returned token confirms it.
func (h *CommentHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	conf, err := h.comments.OpenEdit(r.Context(), ViewerFrom(r), r.PathValue("id"), r.PathValue("commentId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeConfirmation(w, r, conf)
}

// OpenDelete godoc
// POST /api/posts/{id}/comments/{commentId}/delete
func (h *CommentHandler) OpenDelete(w http.ResponseWriter, r *http.Request) {
	conf, err := h.comments.OpenDelete(r.Context(), ViewerFrom(r), r.PathValue("id"), r.PathValue("commentId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeConfirmation(w, r, conf)
}

func (h *CommentHandler) writeConfirmation(w http.ResponseWriter, r *http.Request, conf *services.Confirmation) {
	loc := localizer(r)
	out := *conf
	out.Label = loc.T(conf.Label)
	if conf.Action == services.ConfirmDelete {
		out.Body = loc.T(conf.Body)
	}
	pkg.JSON(w, http.StatusOK, out)
}

// Confirm godoc
// POST /api/comments/confirm/{token}
// Body: { "text": "..." } for edits.
func (h *CommentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	res, err := h.comments.Confirm(r.Context(), ViewerFrom(r), r.PathValue("token"), req.Text)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}

// CancelConfirm godoc
// DELETE /api/comments/confirm/{token}
func (h *CommentHandler) CancelConfirm(w http.ResponseWriter, r *http.Request) {
	label := h.comments.CancelConfirm(ViewerFrom(r), r.PathValue("token"))
	pkg.JSON(w, http.StatusOK, map[string]string{"label": localizer(r).T(label)})
}

// React godoc
// POST /api/posts/{id}/comments/{commentId}/reactions
// Body: { "emoji": "😂" }
func (h *CommentHandler) React(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emoji string `json:"emoji"`
	}
	if !decode(w, r, &req) {
		return
	}

	postID := r.PathValue("id")
	comment, err := h.comments.React(r.Context(), postID, r.PathValue("commentId"), req.Emoji)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if comment == nil {
		pkg.JSON(w, http.StatusOK, nil)
		return
	}
	h.writeThread(w, r, postID, http.StatusOK, services.Result{})
}
