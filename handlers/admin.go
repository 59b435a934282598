package handlers

import (
	"net/http"

	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/services"
)

// AdminHandler serves /api/admin. Routes sit behind the admin middleware;
// the service checks the viewer again.
type AdminHandler struct {
	adminService services.AdminService
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Dashboard godoc
// GET /api/admin/dashboard
// Users and posts as the backend lists them.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.adminService.Dashboard(r.Context(), ViewerFrom(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	pkg.JSON(w, http.StatusOK, d)
}

// DeleteUser godoc
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.adminService.DeleteUser(r.Context(), ViewerFrom(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}

// DeletePost godoc
// DELETE /api/admin/posts/{id}
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	res, err := h.adminService.DeletePost(r.Context(), origin(r), ViewerFrom(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusOK, nil, res)
}
