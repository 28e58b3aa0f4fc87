package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/Kosench/linkpulse/internal/errors"
	"github.com/Kosench/linkpulse/internal/model"
)

const userColumns = `id, username, email, mobile, password_hash, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO users (id, username, email, mobile, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID,
		user.Username,
		user.Email,
		user.Mobile,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrUserAlreadyExists
	}
	if err != nil {
		return apperrors.NewDatabaseError("failed to create user", err)
	}

	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, fmt.Sprintf("user %s", id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, fmt.Sprintf("user with email '%s'", email))
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE users
	SET username = $2, email = $3, mobile = $4, updated_at = $5
	WHERE id = $1
	`, user.ID, user.Username, user.Email, user.Mobile, user.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.ErrUserAlreadyExists
	}
	if err != nil {
		return apperrors.NewDatabaseError("failed to update user", err)
	}

	return expectAffected(res, fmt.Errorf("user %s: %w", user.ID, apperrors.ErrUserNotFound))
}

// Delete полагается на ON DELETE CASCADE: users -> links -> clicks, link_date_clicks
func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseError("failed to delete user", err)
	}

	return expectAffected(res, fmt.Errorf("user %s: %w", id, apperrors.ErrUserNotFound))
}

func scanUser(row rowScanner, what string) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Mobile,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", what, apperrors.ErrUserNotFound)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}
