package repository

import (
	"context"

	"github.com/akinalp/blogme/models"
)

// AccountRepository stores local credentials.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	// UpdateCredentials replaces the password hash and admin flag, used
	// after a successful remote login so offline login matches the backend.
	UpdateCredentials(ctx context.Context, id, passwordHash string, isAdmin bool) error
}

// SessionRepository stores refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByAccountID(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context) error
}
