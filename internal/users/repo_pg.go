package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, username, email, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrTaken
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, username, email, password_hash, is_active, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByLogin(ctx context.Context, login string) (User, error) {
	const query = `
SELECT id, username, email, password_hash, is_active, created_at, updated_at
FROM users
WHERE lower(username) = lower($1) OR lower(email) = lower($1)
LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, login))
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

var _ Repo = (*PGRepo)(nil)
