package models

import "time"

// Session is a refresh-token session. Access tokens are short lived; the
// refresh token kept here lets the page get a new one, and deleting the
// row revokes it.
type Session struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenPair is returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest carries the refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
