package handlers

import (
	"net/http"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/render"
	"github.com/akinalp/blogme/services"
)

// ProfileHandler serves /api/profile for the logged-in viewer.
type ProfileHandler struct {
	profiles  services.ProfileService
	images    services.ImageService
	renderer  *render.Renderer
	maxUpload int64
}

// NewProfileHandler creates the profile handler.
func NewProfileHandler(profiles services.ProfileService, images services.ImageService, renderer *render.Renderer, maxUpload int64) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profiles,
		images:    images,
		renderer:  renderer,
		maxUpload: maxUpload,
	}
}

// card renders the profile of userID with its posts.
func (h *ProfileHandler) card(r *http.Request, userID string, p *models.Profile) (map[string]any, error) {
	posts, err := h.profiles.MyPosts(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	html, err := h.renderer.Profile(render.ProfileView{UserID: userID, Profile: *p, Posts: posts})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"profile": p,
		"posts":   posts,
		"html":    html,
	}, nil
}

func (h *ProfileHandler) writeCard(w http.ResponseWriter, r *http.Request, p *models.Profile, res services.Result) {
	data, err := h.card(r, ViewerFrom(r).ID, p)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, data, res)
}

// Get godoc
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), ViewerFrom(r).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, services.Result{})
}

// Update godoc
// PATCH /api/profile
// Body: { "name", "bio" }. Empty fields keep their value.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	p, res, err := h.profiles.Update(r.Context(), ViewerFrom(r).ID, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, res)
}

// SetAvatar godoc
// POST /api/profile/avatar
// multipart/form-data with an "image" part.
func (h *ProfileHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	image, err := readImagePart(w, r, h.images, h.maxUpload)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	p, res, err := h.profiles.SetAvatar(r.Context(), ViewerFrom(r).ID, image)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, res)
}

// AddNote godoc
// POST /api/profile/notes
// Body: { "text": "..." }
func (h *ProfileHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if !decode(w, r, &req) {
		return
	}

	p, res, err := h.profiles.AddNote(r.Context(), ViewerFrom(r).ID, req.Text)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, res)
}

// EditNote godoc
// PATCH /api/profile/notes/{id}
func (h *ProfileHandler) EditNote(w http.ResponseWriter, r *http.Request) {
	var req models.NoteRequest
	if !decode(w, r, &req) {
		return
	}

	p, res, err := h.profiles.EditNote(r.Context(), ViewerFrom(r).ID, r.PathValue("id"), req.Text)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, res)
}

// DeleteNote godoc
// DELETE /api/profile/notes/{id}
func (h *ProfileHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	p, res, err := h.profiles.DeleteNote(r.Context(), ViewerFrom(r).ID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeCard(w, r, p, res)
}

// MyPosts godoc
// GET /api/profile/posts
func (h *ProfileHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.profiles.MyPosts(r.Context(), ViewerFrom(r).ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, posts)
}

// EditPost godoc
// PATCH /api/profile/posts/{id}
// Body: { "content": "plain text" }
func (h *ProfileHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePostRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.profiles.EditPost(r.Context(), origin(r), ViewerFrom(r).ID, r.PathValue("id"), req.Content)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}

// DeletePost godoc
// DELETE /api/profile/posts/{id}
func (h *ProfileHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	res, err := h.profiles.DeletePost(r.Context(), origin(r), ViewerFrom(r).ID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}
