package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/blogme/database"
	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/google/uuid"
)

type sqliteAccountRepo struct {
	db database.TxQuerier
}

// NewSQLiteAccountRepo returns an AccountRepository on the accounts table.
func NewSQLiteAccountRepo(db database.TxQuerier) AccountRepository {
	return &sqliteAccountRepo{db: db}
}

func (r *sqliteAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	query := `
		INSERT INTO accounts (id, username, email, password_hash, is_admin)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.IsAdmin,
	).Scan(&account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *sqliteAccountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *sqliteAccountRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, `WHERE username = ?`, username)
}

func (r *sqliteAccountRepo) getOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `
		SELECT id, username, COALESCE(email, ''), password_hash, is_admin, created_at
		FROM accounts ` + where

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *sqliteAccountRepo) UpdateCredentials(ctx context.Context, id, passwordHash string, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, is_admin = ? WHERE id = ?`,
		passwordHash, isAdmin, id)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
