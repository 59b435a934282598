package models

import (
	"regexp"
	"time"
)

// Username and email rules shared by login and registration.
var (
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	EmailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinPasswordLength is the shortest password registration accepts.
const MinPasswordLength = 6

// Account is a credential record kept on the device so the user can log
// in while the remote backend is down.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Viewer is whoever is looking at the page. Anonymous visitors get
// AnonViewer.
type Viewer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// AnonViewerID identifies the guest viewer.
const AnonViewerID = "anon"

// AnonViewer returns the guest viewer.
func AnonViewer() Viewer {
	return Viewer{ID: AnonViewerID, Name: "Invitado", Avatar: DefaultAvatar}
}

// IsAnon reports whether v is the guest viewer.
func (v Viewer) IsAnon() bool {
	return v.ID == "" || v.ID == AnonViewerID
}

// LoginRequest is posted by the login form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is posted by the register form. The remote backend
// expects the email under "correo".
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"correo"`
	Password string `json:"password"`
}

// RemoteUser is a user record as the backend's admin API returns it.
type RemoteUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"rol,omitempty"`
}

// RemotePost is a post record as the backend's admin API returns it.
type RemotePost struct {
	ID           string `json:"_id"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"authorAvatar,omitempty"`
	Content      string `json:"content"`
	Img          string `json:"img,omitempty"`
}
